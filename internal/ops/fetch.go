package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/moodjournal/internal/db"
	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/mood"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID int64
}

// FetchOutput is an entry together with its mood views.
type FetchOutput struct {
	Entry          entry.Entry         `json:"entry"`
	Classification mood.Classification `json:"classification"`
	TagColor       string              `json:"tag_color"`
}

// Fetch retrieves one entry by id.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	if input.ID <= 0 {
		return nil, errors.NewInvalidField("id", "must be a positive integer")
	}

	e, err := db.GetByID(ctx, database, input.ID)
	if err != nil {
		return nil, err
	}

	return &FetchOutput{
		Entry:          *e,
		Classification: e.Classification(),
		TagColor:       e.Tag.Color(),
	}, nil
}
