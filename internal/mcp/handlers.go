package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/moodjournal/internal/config"
	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/journal"
	"github.com/hpungsan/moodjournal/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	journal *journal.Journal
	db      *sql.DB
	cfg     *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(j *journal.Journal, db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{journal: j, db: db, cfg: cfg}
}

// Request types for each tool

// AddRequest represents the arguments for journal_add.
type AddRequest struct {
	Journal   string `json:"journal"`
	MoodValue int    `json:"mood_value"`
	Tag       string `json:"tag,omitempty"`
	Emotion   string `json:"emotion,omitempty"`
}

// ListRequest represents the arguments for journal_list.
type ListRequest struct {
	Tag    string `json:"tag,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// IDRequest represents the arguments for journal_get and journal_delete.
type IDRequest struct {
	ID int64 `json:"id"`
}

// StatsRequest represents the arguments for journal_stats.
type StatsRequest struct {
	Tag      string `json:"tag,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// SeedRequest represents the arguments for journal_seed.
type SeedRequest struct {
	Force bool `json:"force,omitempty"`
}

// ClassifyRequest represents the arguments for mood_classify.
type ClassifyRequest struct {
	Value int `json:"value"`
}

// PathRequest represents the arguments for journal_export and journal_import.
type PathRequest struct {
	Path string `json:"path,omitempty"`
}

// Handler implementations

// HandleAdd handles the journal_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	e, err := h.journal.Add(ctx, entry.NewInput{
		Journal:   input.Journal,
		MoodValue: input.MoodValue,
		Tag:       input.Tag,
		Emotion:   input.Emotion,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(ops.AddOutput{ID: e.ID, UID: e.UID, Mood: e.Mood, Entry: e})
}

// HandleList handles the journal_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Tag:    input.Tag,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the journal_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the journal_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.journal.Delete(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}

	return successResult(ops.DeleteOutput{Deleted: true, ID: input.ID})
}

// HandleStats handles the journal_stats tool call. A timezone override
// bypasses the journal's cached view.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StatsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if strings.TrimSpace(input.Timezone) != "" {
		result, err := ops.Stats(ctx, h.db, h.cfg, ops.StatsInput{Tag: input.Tag, Timezone: input.Timezone})
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(result)
	}

	var tag entry.Tag
	if strings.TrimSpace(input.Tag) != "" {
		if tag, err = entry.ParseTag(input.Tag); err != nil {
			return errorResult(err), nil
		}
	}

	// with the store down the stats still cover unsaved entries
	result, err := h.journal.Stats(ctx, tag)
	if err != nil && !errors.Is(err, errors.ErrStoreUnavailable) {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSeed handles the journal_seed tool call.
func (h *Handlers) HandleSeed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SeedRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Seed(ctx, h.db, h.cfg, ops.SeedInput{Force: input.Force})
	if err != nil {
		return errorResult(err), nil
	}
	if result.Seeded {
		h.journal.Invalidate()
	}

	return successResult(result)
}

// HandleClassify handles the mood_classify tool call.
func (h *Handlers) HandleClassify(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClassifyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Classify(ops.ClassifyInput{Value: input.Value})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the journal_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the journal_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	if result.Imported > 0 {
		h.journal.Invalidate()
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var jErr *errors.JournalError
	if stderrors.As(err, &jErr) && jErr.Code != errors.ErrInternal {
		message := jErr.Message
		if err != error(jErr) {
			// keep the wrapper's context, e.g. "line 3: ..."
			message = strings.TrimSuffix(err.Error(), jErr.Error()) + jErr.Message
		}
		errorObj := map[string]any{
			"code":    jErr.Code,
			"message": message,
			"status":  jErr.Status,
		}
		if jErr.Details != nil {
			errorObj["details"] = jErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
