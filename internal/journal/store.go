package journal

import (
	"context"
	"database/sql"

	"github.com/hpungsan/moodjournal/internal/db"
	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/ops"
)

// Store persists entries. AllEntries returns them newest first.
type Store interface {
	AddEntry(ctx context.Context, e entry.Entry) (int64, error)
	AllEntries(ctx context.Context) ([]entry.Entry, error)
	DeleteEntry(ctx context.Context, id int64) (bool, error)
}

// SQLStore is the SQLite-backed Store.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an initialized database.
func NewSQLStore(database *sql.DB) *SQLStore {
	return &SQLStore{db: database}
}

// DB returns the underlying database.
func (s *SQLStore) DB() *sql.DB { return s.db }

// AddEntry inserts e and returns its row id.
func (s *SQLStore) AddEntry(ctx context.Context, e entry.Entry) (int64, error) {
	if err := ops.Persist(ctx, s.db, &e); err != nil {
		return 0, err
	}
	return e.ID, nil
}

// AllEntries returns every stored entry, newest first.
func (s *SQLStore) AllEntries(ctx context.Context) ([]entry.Entry, error) {
	return db.List(ctx, s.db, db.ListFilter{})
}

// DeleteEntry removes an entry. It reports false if nothing matched.
func (s *SQLStore) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	return db.Delete(ctx, s.db, id)
}

// Ping reports whether the database answers.
func (s *SQLStore) Ping(ctx context.Context) error {
	return db.Ping(ctx, s.db)
}
