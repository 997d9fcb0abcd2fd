// Package journal owns the live view of the journal: the entry store, entries
// whose save failed, user-facing notifications and cached statistics.
package journal

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/hpungsan/moodjournal/internal/db"
	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/logging"
	"github.com/hpungsan/moodjournal/internal/metrics"
	"github.com/hpungsan/moodjournal/internal/ops"
)

// Notification messages shown to the user.
const (
	MsgSaved        = "Entry saved successfully!"
	MsgSaveFailed   = "Failed to save entry. Please try again."
	MsgDeleted      = "Entry deleted successfully!"
	MsgDeleteFailed = "Failed to delete entry. Please try again."
	MsgLoadFailed   = "Failed to load your journal entries. Please refresh the page."
)

// StatsTTL bounds how long a stats result is served from cache when no
// add or delete invalidates it first.
const StatsTTL = 5 * time.Minute

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient message for the user.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Journal serializes access to a Store and keeps entries the store rejected
// visible until they are retried.
type Journal struct {
	store   Store
	loc     *time.Location
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	unsaved []entry.Entry
	notes   []Notification
	stats   *cache.Cache
}

// Option configures a Journal.
type Option func(*Journal)

// WithLocation sets the zone used for weekday and history labels.
func WithLocation(loc *time.Location) Option {
	return func(j *Journal) {
		if loc != nil {
			j.loc = loc
		}
	}
}

// WithMetrics records journal activity.
func WithMetrics(m *metrics.Metrics) Option {
	return func(j *Journal) { j.metrics = m }
}

// WithLogger sets the logger. The component attribute is added here.
func WithLogger(l *slog.Logger) Option {
	return func(j *Journal) { j.logger = logging.Component(l, "journal") }
}

// WithClock overrides time.Now for new entries.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// New creates a Journal over store.
func New(store Store, opts ...Option) *Journal {
	j := &Journal{
		store: store,
		loc:   time.Local,
		now:   time.Now,
		// no janitor: expired items are simply not returned
		stats: cache.New(StatsTTL, 0),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.logger == nil {
		j.logger = logging.Discard()
	}
	return j
}

// Add creates an entry and saves it. Invalid input is rejected outright.
// When the store fails the entry is kept in memory, flagged Unsaved, and a
// STORE_UNAVAILABLE error is returned alongside it.
func (j *Journal) Add(ctx context.Context, input entry.NewInput) (entry.Entry, error) {
	e, err := entry.New(input, j.now())
	if err != nil {
		return entry.Entry{}, err
	}
	e.UID = ops.NewUID(e.Date)

	j.mu.Lock()
	defer j.mu.Unlock()

	id, err := j.store.AddEntry(ctx, e)
	j.metrics.RecordEntryOperation("add", err)
	if err != nil {
		if errors.Is(err, errors.ErrCancelled) {
			return entry.Entry{}, err
		}
		j.metrics.RecordStoreError("add")
		j.logger.Warn("save failed; keeping entry in memory", "uid", e.UID, "error", err)

		e.ID = 0
		e.Unsaved = true
		j.unsaved = append(j.unsaved, e)
		j.metrics.SetUnsaved(len(j.unsaved))
		j.notify(LevelError, MsgSaveFailed)
		j.stats.Flush()
		return e, errors.NewStoreUnavailable(err)
	}

	e.ID = id
	j.logger.Debug("entry saved", "id", id, "uid", e.UID, "mood_value", e.MoodValue)
	j.notify(LevelSuccess, MsgSaved)
	j.stats.Flush()
	return e, nil
}

// Delete removes a stored entry. A missing id is NOT_FOUND; a store failure
// leaves the entry in place.
func (j *Journal) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.NewInvalidField("id", "must be a positive integer")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	deleted, err := j.store.DeleteEntry(ctx, id)
	j.metrics.RecordEntryOperation("delete", err)
	if err != nil {
		if errors.Is(err, errors.ErrCancelled) {
			return err
		}
		j.metrics.RecordStoreError("delete")
		j.logger.Warn("delete failed", "id", id, "error", err)
		j.notify(LevelError, MsgDeleteFailed)
		return errors.NewStoreUnavailable(err)
	}
	if !deleted {
		j.notify(LevelError, MsgDeleteFailed)
		return errors.NewNotFound(id)
	}

	j.notify(LevelSuccess, MsgDeleted)
	j.stats.Flush()
	return nil
}

// Entries returns stored and unsaved entries, newest first, optionally
// restricted to one tag. If the store cannot be read the unsaved entries are
// still returned together with the error.
func (j *Journal) Entries(ctx context.Context, tag entry.Tag) ([]entry.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.entriesLocked(ctx, tag)
}

func (j *Journal) entriesLocked(ctx context.Context, tag entry.Tag) ([]entry.Entry, error) {
	stored, loadErr := j.store.AllEntries(ctx)
	if loadErr != nil && !errors.Is(loadErr, errors.ErrCancelled) {
		j.metrics.RecordStoreError("load")
		j.logger.Warn("load failed", "error", loadErr)
		j.notify(LevelError, MsgLoadFailed)
		loadErr = errors.NewStoreUnavailable(loadErr)
	}

	out := make([]entry.Entry, 0, len(stored)+len(j.unsaved))
	for _, e := range j.unsaved {
		if tag == "" || e.Tag == tag {
			out = append(out, e)
		}
	}
	for _, e := range stored {
		if tag == "" || e.Tag == tag {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, newestFirst)

	return out, loadErr
}

// Get returns the stored entry with id. Unsaved entries have no id and are
// never returned.
func (j *Journal) Get(ctx context.Context, id int64) (entry.Entry, error) {
	if id <= 0 {
		return entry.Entry{}, errors.NewInvalidField("id", "must be a positive integer")
	}
	entries, err := j.Entries(ctx, "")
	if err != nil {
		return entry.Entry{}, err
	}
	for _, e := range entries {
		if e.ID == id && !e.Unsaved {
			return e, nil
		}
	}
	return entry.Entry{}, errors.NewNotFound(id)
}

func newestFirst(a, b entry.Entry) int {
	if c := b.Date.Compare(a.Date); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// Stats derives statistics over Entries(ctx, tag). Results are cached until
// the next add or delete. If the store cannot be read the stats cover the
// unsaved entries and are returned together with a STORE_UNAVAILABLE error;
// that result is not cached.
func (j *Journal) Stats(ctx context.Context, tag entry.Tag) (*ops.StatsOutput, error) {
	key := "stats:" + string(tag)

	j.mu.Lock()
	defer j.mu.Unlock()

	if cached, found := j.stats.Get(key); found {
		j.metrics.RecordStatsCache(true)
		return cached.(*ops.StatsOutput), nil
	}
	j.metrics.RecordStatsCache(false)

	entries, err := j.entriesLocked(ctx, tag)
	if err != nil && !errors.Is(err, errors.ErrStoreUnavailable) {
		return nil, err
	}

	start := time.Now()
	out := ops.BuildStats(entries, j.loc)
	j.metrics.RecordStatsCompute(time.Since(start).Seconds(), len(entries))

	if err != nil {
		return out, err
	}
	j.stats.Set(key, out, cache.DefaultExpiration)
	return out, nil
}

// Retry saves unsaved entries in order and stops at the first failure.
// It returns how many were saved.
func (j *Journal) Retry(ctx context.Context) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	saved := 0
	for len(j.unsaved) > 0 {
		e := j.unsaved[0]
		e.Unsaved = false
		_, err := j.store.AddEntry(ctx, e)
		if err == db.ErrDuplicateUID {
			// an earlier attempt reached the store after all
			err = nil
		}
		j.metrics.RecordEntryOperation("retry", err)
		if err != nil {
			j.metrics.RecordStoreError("retry")
			j.notify(LevelError, MsgSaveFailed)
			j.finishRetry(saved)
			return saved, errors.NewStoreUnavailable(err)
		}
		j.unsaved = j.unsaved[1:]
		saved++
	}

	j.finishRetry(saved)
	return saved, nil
}

func (j *Journal) finishRetry(saved int) {
	j.metrics.SetUnsaved(len(j.unsaved))
	if saved == 0 {
		return
	}
	j.stats.Flush()
	if saved == 1 {
		j.notify(LevelSuccess, MsgSaved)
	} else {
		j.notify(LevelSuccess, fmt.Sprintf("%d entries saved successfully!", saved))
	}
	j.logger.Info("retried unsaved entries", "saved", saved, "pending", len(j.unsaved))
}

// Pending returns a copy of the entries awaiting a successful save.
func (j *Journal) Pending() []entry.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.unsaved)
}

// Notifications returns and clears queued notifications, oldest first.
func (j *Journal) Notifications() []Notification {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := j.notes
	j.notes = nil
	return out
}

// Invalidate drops cached statistics. Callers that write to the store
// directly (seed, import) must call it.
func (j *Journal) Invalidate() {
	j.stats.Flush()
}

// Store returns the underlying store.
func (j *Journal) Store() Store { return j.store }

// Ping checks the store when it supports health checks. Stores without a
// Ping method are assumed healthy.
func (j *Journal) Ping(ctx context.Context) error {
	p, ok := j.store.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return errors.NewStoreUnavailable(err)
	}
	return nil
}

func (j *Journal) notify(level Level, msg string) {
	j.notes = append(j.notes, Notification{Level: level, Message: msg, Time: j.now()})
}
