package journal

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/moodjournal/internal/db"
	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/metrics"
)

var clock = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

var errDown = stderrors.New("store offline")

// fakeStore keeps entries in memory and fails on demand.
type fakeStore struct {
	mu         sync.Mutex
	entries    []entry.Entry
	nextID     int64
	failAdd    bool
	failLoad   bool
	failDelete bool
	loads      int
}

func (s *fakeStore) AddEntry(_ context.Context, e entry.Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAdd {
		return 0, errDown
	}
	s.nextID++
	e.ID = s.nextID
	s.entries = append([]entry.Entry{e}, s.entries...)
	return e.ID, nil
}

func (s *fakeStore) AllEntries(context.Context) ([]entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.failLoad {
		return nil, errDown
	}
	out := make([]entry.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *fakeStore) DeleteEntry(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return false, errDown
	}
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newJournal(t *testing.T, store Store) *Journal {
	t.Helper()
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	tick := clock
	return New(store,
		WithLocation(time.UTC),
		WithMetrics(m),
		WithClock(func() time.Time {
			tick = tick.Add(time.Minute)
			return tick
		}),
	)
}

func input(text string, v int) entry.NewInput {
	return entry.NewInput{Journal: text, MoodValue: v, Tag: "Office"}
}

func TestAdd(t *testing.T) {
	store := &fakeStore{}
	j := newJournal(t, store)

	e, err := j.Add(context.Background(), input("Shipped the release", 7))
	require.NoError(t, err)

	assert.Equal(t, int64(1), e.ID)
	assert.NotEmpty(t, e.UID)
	assert.False(t, e.Unsaved)
	assert.Equal(t, "Pleasant (7/9)", e.Mood)
	assert.Equal(t, entry.TagOffice, e.Tag)

	notes := j.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, LevelSuccess, notes[0].Level)
	assert.Equal(t, MsgSaved, notes[0].Message)
	assert.Empty(t, j.Notifications(), "notifications are drained")
}

func TestAdd_InvalidInput(t *testing.T) {
	j := newJournal(t, &fakeStore{})

	_, err := j.Add(context.Background(), input("   ", 5))
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = j.Add(context.Background(), input("text", 12))
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	assert.Empty(t, j.Pending())
	assert.Empty(t, j.Notifications())
}

func TestAdd_StoreFailureKeepsEntry(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{failAdd: true}
	j := newJournal(t, store)

	e, err := j.Add(ctx, input("Offline thoughts", 3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStoreUnavailable))
	assert.True(t, e.Unsaved)
	assert.Zero(t, e.ID)
	assert.NotEmpty(t, e.UID)

	notes := j.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, LevelError, notes[0].Level)
	assert.Equal(t, MsgSaveFailed, notes[0].Message)

	entries, err := j.Entries(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Unsaved)

	stats, err := j.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stats.EntryCount)
	assert.Equal(t, 3, stats.Stats.HighestMood)
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{failAdd: true}
	j := newJournal(t, store)

	for _, text := range []string{"first", "second"} {
		_, err := j.Add(ctx, input(text, 5))
		require.Error(t, err)
	}
	require.Len(t, j.Pending(), 2)
	j.Notifications()

	n, err := j.Retry(ctx)
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Len(t, j.Pending(), 2)

	store.failAdd = false
	n, err = j.Retry(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, j.Pending())

	entries, err := j.Entries(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.Unsaved)
		assert.NotZero(t, e.ID)
	}

	notes := j.Notifications()
	require.NotEmpty(t, notes)
	assert.Equal(t, "2 entries saved successfully!", notes[len(notes)-1].Message)
}

func TestRetry_Nothing(t *testing.T) {
	j := newJournal(t, &fakeStore{})
	n, err := j.Retry(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, j.Notifications())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	j := newJournal(t, store)

	e, err := j.Add(ctx, input("to remove", 4))
	require.NoError(t, err)
	j.Notifications()

	require.NoError(t, j.Delete(ctx, e.ID))
	notes := j.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, MsgDeleted, notes[0].Message)

	err = j.Delete(ctx, e.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	err = j.Delete(ctx, 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestDelete_StoreFailureKeepsEntry(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	j := newJournal(t, store)

	e, err := j.Add(ctx, input("stays", 6))
	require.NoError(t, err)
	j.Notifications()

	store.failDelete = true
	err = j.Delete(ctx, e.ID)
	assert.True(t, errors.Is(err, errors.ErrStoreUnavailable))

	notes := j.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, LevelError, notes[0].Level)
	assert.Equal(t, MsgDeleteFailed, notes[0].Message)

	entries, err := j.Entries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEntries_NewestFirstWithTagFilter(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	j := newJournal(t, store)

	_, err := j.Add(ctx, entry.NewInput{Journal: "home", MoodValue: 6, Tag: "Family"})
	require.NoError(t, err)
	_, err = j.Add(ctx, input("desk", 4))
	require.NoError(t, err)

	store.failAdd = true
	_, err = j.Add(ctx, input("desk again", 5))
	require.Error(t, err)

	all, err := j.Entries(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "desk again", all[0].Journal)
	assert.Equal(t, "desk", all[1].Journal)
	assert.Equal(t, "home", all[2].Journal)

	office, err := j.Entries(ctx, entry.TagOffice)
	require.NoError(t, err)
	assert.Len(t, office, 2)
}

func TestEntries_LoadFailure(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{failAdd: true}
	j := newJournal(t, store)

	_, err := j.Add(ctx, input("pending", 5))
	require.Error(t, err)
	j.Notifications()

	store.failLoad = true
	entries, err := j.Entries(ctx, "")
	assert.True(t, errors.Is(err, errors.ErrStoreUnavailable))
	assert.Len(t, entries, 1, "unsaved entries stay visible")

	notes := j.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, MsgLoadFailed, notes[0].Message)

	stats, err := j.Stats(ctx, "")
	assert.True(t, errors.Is(err, errors.ErrStoreUnavailable))
	require.NotNil(t, stats, "stats still cover the unsaved entries")
	assert.Equal(t, 1, stats.Stats.EntryCount)
	assert.InDelta(t, 5.0, stats.Stats.AverageMood, 1e-9)

	// the degraded result is not cached
	store.failLoad = false
	loads := store.loads
	stats, err = j.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, loads+1, store.loads)
	assert.Equal(t, 1, stats.Stats.EntryCount)
}

func TestStats_CachedUntilChange(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	j := newJournal(t, store)

	_, err := j.Add(ctx, input("one", 8))
	require.NoError(t, err)

	first, err := j.Stats(ctx, "")
	require.NoError(t, err)
	second, err := j.Stats(ctx, "")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, store.loads)

	_, err = j.Add(ctx, input("two", 2))
	require.NoError(t, err)

	third, err := j.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, third.Stats.EntryCount)
	assert.Equal(t, 2, store.loads)

	j.Invalidate()
	_, err = j.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, store.loads)
}

func TestStats_PerTag(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t, &fakeStore{})

	_, err := j.Add(ctx, entry.NewInput{Journal: "family lunch", MoodValue: 8, Tag: "Family"})
	require.NoError(t, err)
	_, err = j.Add(ctx, input("long meeting", 3))
	require.NoError(t, err)

	family, err := j.Stats(ctx, entry.TagFamily)
	require.NoError(t, err)
	assert.Equal(t, 1, family.Stats.EntryCount)
	assert.Equal(t, 8, family.Stats.HighestMood)

	all, err := j.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Stats.EntryCount)
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	j := newJournal(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = j.Add(ctx, input("parallel", 5))
			_, _ = j.Stats(ctx, "")
		}()
	}
	wg.Wait()

	entries, err := j.Entries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestSQLStore(t *testing.T) {
	ctx := context.Background()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store := NewSQLStore(database)
	j := New(store, WithLocation(time.UTC))

	e, err := j.Add(ctx, input("persisted", 6))
	require.NoError(t, err)
	assert.NotZero(t, e.ID)

	all, err := store.AllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, e.UID, all[0].UID)

	require.NoError(t, j.Delete(ctx, e.ID))
	deleted, err := store.DeleteEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t, &fakeStore{})

	e, err := j.Add(ctx, input("find me", 6))
	require.NoError(t, err)

	got, err := j.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.UID, got.UID)

	_, err = j.Get(ctx, e.ID+1)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = j.Get(ctx, 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestPing(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, newJournal(t, &fakeStore{}).Ping(ctx), "stores without Ping are healthy")

	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	j := New(NewSQLStore(database))
	require.NoError(t, j.Ping(ctx))

	require.NoError(t, database.Close())
	err = j.Ping(ctx)
	assert.True(t, errors.Is(err, errors.ErrStoreUnavailable))
}
