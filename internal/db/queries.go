package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/errors"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ErrDuplicateUID is returned when an insert reuses an existing uid.
var ErrDuplicateUID = &errors.JournalError{
	Code:    "DUPLICATE_UID",
	Status:  409,
	Message: "an entry with this uid already exists",
}

const entryColumns = `id, uid, journal, mood, mood_value, tag, emotion, date`

// newestFirst is the display order: latest date, then highest id.
const newestFirst = ` ORDER BY date DESC, id DESC`

// ListFilter narrows List and Count.
type ListFilter struct {
	Tag    entry.Tag // empty: all tags
	Limit  int       // 0: no limit
	Offset int
}

// Insert stores e and sets e.ID to the assigned row id.
// e.UID must already be set.
func Insert(ctx context.Context, q Querier, e *entry.Entry) error {
	if e.UID == "" {
		return errors.NewInvalidField("uid", "is required")
	}

	query := `
		INSERT INTO entries (uid, journal, mood, mood_value, tag, emotion, date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := q.ExecContext(ctx, query,
		e.UID, e.Journal, e.Mood, e.MoodValue, string(e.Tag), e.Emotion, e.ISODate(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateUID
		}
		return wrap(ctx, "insert", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.NewInternal(err)
	}
	e.ID = id

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves one entry.
func GetByID(ctx context.Context, q Querier, id int64) (*entry.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = ?`

	e, err := scanEntry(q.QueryRowContext(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, wrap(ctx, "get", err)
	}

	return e, nil
}

// ExistsUID reports whether an entry with uid is stored.
func ExistsUID(ctx context.Context, q Querier, uid string) (bool, error) {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM entries WHERE uid = ? LIMIT 1`, uid).Scan(&exists)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrap(ctx, "exists", err)
	}
	return true, nil
}

// List returns entries newest first.
func List(ctx context.Context, q Querier, f ListFilter) ([]entry.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries`
	var args []any

	if f.Tag != "" {
		query += ` WHERE tag = ?`
		args = append(args, string(f.Tag))
	}
	query += newestFirst

	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	} else if f.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, f.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(ctx, "list", err)
	}
	defer rows.Close()

	entries := make([]entry.Entry, 0)
	for rows.Next() {
		e, err := ScanEntryFromRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(ctx, "list", err)
	}

	return entries, nil
}

// Count returns the number of entries, optionally for one tag.
func Count(ctx context.Context, q Querier, tag entry.Tag) (int, error) {
	query := `SELECT COUNT(*) FROM entries`
	var args []any
	if tag != "" {
		query += ` WHERE tag = ?`
		args = append(args, string(tag))
	}

	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, wrap(ctx, "count", err)
	}
	return n, nil
}

// Delete removes an entry. It reports false if no row matched.
func Delete(ctx context.Context, q Querier, id int64) (bool, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return false, wrap(ctx, "delete", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n > 0, nil
}

// StreamForExport returns rows for every entry in insertion order.
// The caller must close the rows.
func StreamForExport(ctx context.Context, db *sql.DB) (*sql.Rows, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY id ASC`)
	if err != nil {
		return nil, wrap(ctx, "export", err)
	}
	return rows, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row *sql.Row) (*entry.Entry, error) {
	return scanInto(row)
}

// ScanEntryFromRows scans the current row of a List or StreamForExport result.
func ScanEntryFromRows(rows *sql.Rows) (*entry.Entry, error) {
	return scanInto(rows)
}

func scanInto(s rowScanner) (*entry.Entry, error) {
	var (
		e    entry.Entry
		tag  string
		date string
	)

	if err := s.Scan(&e.ID, &e.UID, &e.Journal, &e.Mood, &e.MoodValue, &tag, &e.Emotion, &date); err != nil {
		return nil, err
	}

	e.Tag = entry.Tag(tag)
	t, err := entry.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("entry %d: bad date %q: %w", e.ID, date, err)
	}
	e.Date = t

	return &e, nil
}

// wrap maps a driver error to a JournalError, keeping cancellation distinct.
func wrap(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewCancelled(op)
	}
	return errors.NewInternal(err)
}
