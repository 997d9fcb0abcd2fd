package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hpungsan/moodjournal/internal/config"
	"github.com/hpungsan/moodjournal/internal/db"
	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/mood"
)

// maxImportLine bounds one JSONL record.
const maxImportLine = 1 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string // required
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes a line that could not be imported.
type ImportError struct {
	Line    int    `json:"line"`
	UID     string `json:"uid,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import reads a JSONL export. Records whose uid already exists are skipped,
// so importing the same file twice is a no-op. Invalid lines are reported and
// skipped; the rest commit together.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	policy, err := newPathPolicy(cfg)
	if err != nil {
		return nil, err
	}
	if err := policy.check(input.Path, PathCheckRead); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.JournalError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)

	out := &ImportOutput{Errors: parseErrors}
	out.Skipped = len(parseErrors)

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("import")
		}

		e, err := rec.toEntry()
		if err != nil {
			out.Errors = append(out.Errors, ImportError{
				Line:    rec.line,
				UID:     rec.UID,
				Code:    "INVALID_RECORD",
				Message: errors.As(err).Message,
			})
			out.Skipped++
			continue
		}

		if e.UID != "" {
			exists, err := db.ExistsUID(ctx, tx, e.UID)
			if err != nil {
				return nil, err
			}
			if exists || seen[e.UID] {
				out.Skipped++
				continue
			}
			seen[e.UID] = true
		}

		if err := Persist(ctx, tx, &e); err != nil {
			return nil, err
		}
		out.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if out.Errors == nil {
		out.Errors = []ImportError{}
	}
	return out, nil
}

type lineRecord struct {
	ExportRecord
	line int
}

// parseExportFile decodes every line, skipping the header.
func parseExportFile(r io.Reader) ([]lineRecord, []ImportError) {
	var (
		records     []lineRecord
		parseErrors []ImportError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec ExportRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if rec.MoodExport {
			continue
		}
		records = append(records, lineRecord{ExportRecord: rec, line: lineNum})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}

// toEntry validates a record. The stored mood label is recomputed so it
// always agrees with mood_value.
func (r lineRecord) toEntry() (entry.Entry, error) {
	tag, err := entry.ParseTag(r.Tag)
	if err != nil {
		return entry.Entry{}, err
	}
	date, err := entry.ParseDate(r.Date)
	if err != nil {
		return entry.Entry{}, errors.NewInvalidField("date", "must be an ISO-8601 timestamp")
	}

	e := entry.Entry{
		UID:       strings.TrimSpace(r.UID),
		Journal:   strings.TrimSpace(r.Journal),
		Mood:      mood.Display(r.MoodValue),
		MoodValue: r.MoodValue,
		Tag:       tag,
		Emotion:   strings.TrimSpace(r.Emotion),
		Date:      date,
	}
	if err := e.Validate(); err != nil {
		return entry.Entry{}, err
	}
	return e, nil
}
