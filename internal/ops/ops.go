package ops

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/moodjournal/internal/db"
	"github.com/hpungsan/moodjournal/internal/entry"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// NewUID generates a ULID for an entry created at t.
func NewUID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Persist validates e, assigns a UID if it has none and inserts it.
// On success e.ID holds the new row id.
func Persist(ctx context.Context, q db.Querier, e *entry.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.UID == "" {
		e.UID = NewUID(e.Date)
	}
	e.Unsaved = false
	return db.Insert(ctx, q, e)
}
