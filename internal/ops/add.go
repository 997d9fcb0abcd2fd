package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/moodjournal/internal/entry"
)

// AddInput contains parameters for the Add operation.
type AddInput struct {
	Journal   string // required
	MoodValue int    // required, 1-9
	Tag       string // default: Personal
	Emotion   string // default: first emotion of the mood bucket
	Date      time.Time
}

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	ID    int64       `json:"id"`
	UID   string      `json:"uid"`
	Mood  string      `json:"mood"`
	Entry entry.Entry `json:"entry"`
}

// Add creates a journal entry.
func Add(ctx context.Context, database *sql.DB, input AddInput) (*AddOutput, error) {
	e, err := entry.New(entry.NewInput{
		Journal:   input.Journal,
		MoodValue: input.MoodValue,
		Tag:       input.Tag,
		Emotion:   input.Emotion,
		Date:      input.Date,
	}, time.Now())
	if err != nil {
		return nil, err
	}

	if err := Persist(ctx, database, &e); err != nil {
		return nil, err
	}

	return &AddOutput{
		ID:    e.ID,
		UID:   e.UID,
		Mood:  e.Mood,
		Entry: e,
	}, nil
}
