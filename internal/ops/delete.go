package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/moodjournal/internal/db"
	"github.com/hpungsan/moodjournal/internal/errors"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID int64
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
}

// Delete permanently removes an entry.
func Delete(ctx context.Context, database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	if input.ID <= 0 {
		return nil, errors.NewInvalidField("id", "must be a positive integer")
	}

	deleted, err := db.Delete(ctx, database, input.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, errors.NewNotFound(input.ID)
	}

	return &DeleteOutput{
		Deleted: true,
		ID:      input.ID,
	}, nil
}
