package entry

import (
	"strings"
	"time"

	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/mood"
)

// DateLayout is the stored timestamp format: UTC, millisecond precision.
// Fixed-width so that string order equals time order.
const DateLayout = "2006-01-02T15:04:05.000Z"

// Entry is one journal record.
type Entry struct {
	// ID is assigned by the store; zero until persisted
	ID int64 `json:"id"`

	// UID is a ULID that identifies the entry across export/import
	UID string `json:"uid"`

	// Journal is the free-text content
	Journal string `json:"journal"`

	// Mood is the display label baked in at creation, e.g. "Pleasant (6/9)"
	Mood string `json:"mood"`

	// MoodValue is the self-reported intensity, 1-9
	MoodValue int `json:"mood_value"`

	Tag     Tag    `json:"tag"`
	Emotion string `json:"emotion"`

	// Date is the creation timestamp
	Date time.Time `json:"date"`

	// Unsaved marks an in-memory copy whose write to the store failed
	Unsaved bool `json:"unsaved,omitempty"`
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate accepts DateLayout and any RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ISODate returns the entry date in DateLayout.
func (e Entry) ISODate() string { return FormatDate(e.Date) }

// Classification returns the mood views for this entry.
func (e Entry) Classification() mood.Classification {
	return mood.Classify(e.MoodValue)
}

// NewInput holds the fields a user supplies when writing an entry.
type NewInput struct {
	Journal   string
	MoodValue int
	Tag       string    // default: Personal
	Emotion   string    // default: first emotion of the mood bucket
	Date      time.Time // default: now
}

// New validates input and builds an unsaved entry with derived fields filled in.
func New(input NewInput, now time.Time) (Entry, error) {
	journal := strings.TrimSpace(input.Journal)
	if journal == "" {
		return Entry{}, errors.NewInvalidField("journal", "must not be empty")
	}
	if !mood.Valid(input.MoodValue) {
		return Entry{}, errors.NewInvalidField("mood_value", "must be between 1 and 9")
	}

	tag := DefaultTag
	if strings.TrimSpace(input.Tag) != "" {
		parsed, err := ParseTag(input.Tag)
		if err != nil {
			return Entry{}, err
		}
		tag = parsed
	}

	emotion := strings.TrimSpace(input.Emotion)
	if emotion == "" {
		emotion = mood.DefaultEmotion(input.MoodValue)
	}
	if len(emotion) > MaxEmotionLen {
		return Entry{}, errors.NewInvalidField("emotion", "too long")
	}

	date := input.Date
	if date.IsZero() {
		date = now
	}

	return Entry{
		Journal:   journal,
		Mood:      mood.Display(input.MoodValue),
		MoodValue: input.MoodValue,
		Tag:       tag,
		Emotion:   emotion,
		Date:      date.UTC().Truncate(time.Millisecond),
	}, nil
}

// MaxEmotionLen bounds the free-form emotion label.
const MaxEmotionLen = 64

// Validate checks the invariants of an entry about to be stored.
// Emotion may be empty for legacy data.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Journal) == "" {
		return errors.NewInvalidField("journal", "must not be empty")
	}
	if !mood.Valid(e.MoodValue) {
		return errors.NewInvalidField("mood_value", "must be between 1 and 9")
	}
	if !e.Tag.Valid() {
		return errors.NewInvalidField("tag", "must be one of Family, Personal, Office, Other")
	}
	if len(e.Emotion) > MaxEmotionLen {
		return errors.NewInvalidField("emotion", "too long")
	}
	if e.Date.IsZero() {
		return errors.NewInvalidField("date", "is required")
	}
	return nil
}
