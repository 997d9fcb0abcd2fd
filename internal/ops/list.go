package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/moodjournal/internal/db"
	"github.com/hpungsan/moodjournal/internal/entry"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Tag    string // optional filter
	Limit  int    // default: 20, max: 200
	Offset int    // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []entry.Entry `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Sort       string        `json:"sort"`
}

// List retrieves entries newest first with pagination.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	var tag entry.Tag
	if strings.TrimSpace(input.Tag) != "" {
		parsed, err := entry.ParseTag(input.Tag)
		if err != nil {
			return nil, err
		}
		tag = parsed
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	items, err := db.List(ctx, database, db.ListFilter{Tag: tag, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	total, err := db.Count(ctx, database, tag)
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "date_desc",
	}, nil
}
