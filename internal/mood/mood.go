// Package mood maps a 1-9 mood value to its display label, emoji, color and
// emotion vocabulary. All views share one bucketing rule:
//
//	<=2 Very Unpleasant, <=4 Unpleasant, ==5 Neutral, <=7 Pleasant, >7 Very Pleasant
//
// A value of 0 means "absent" and classifies as Neutral, except for the emoji
// which uses FallbackEmoji.
package mood

import (
	"fmt"
	"slices"
)

// Mood value range accepted on write paths.
const (
	MinValue     = 1
	MaxValue     = 9
	NeutralValue = 5
)

// Bucket is one of the five mood ranges.
type Bucket int

const (
	VeryUnpleasant Bucket = iota
	Unpleasant
	Neutral
	Pleasant
	VeryPleasant
)

// FallbackEmoji is shown when no mood value is present.
const FallbackEmoji = "😊"

type bucketInfo struct {
	label    string
	emoji    string
	color    string
	emotions []string
}

var buckets = [...]bucketInfo{
	VeryUnpleasant: {
		label:    "Very Unpleasant",
		emoji:    "😞",
		color:    "#e74c3c",
		emotions: []string{"Angry", "Scared", "Annoyed", "Frustrated", "Anxious", "Stressed"},
	},
	Unpleasant: {
		label:    "Unpleasant",
		emoji:    "😐",
		color:    "#e67e22",
		emotions: []string{"Sad", "Disappointed", "Lonely", "Tired", "Bored", "Confused"},
	},
	Neutral: {
		label:    "Neutral",
		emoji:    "😊",
		color:    "#f1c40f",
		emotions: []string{"Calm", "Focused", "Content", "Neutral", "Relaxed", "Mindful"},
	},
	Pleasant: {
		label:    "Pleasant",
		emoji:    "😃",
		color:    "#2ecc71",
		emotions: []string{"Happy", "Optimistic", "Grateful", "Motivated", "Proud", "Peaceful"},
	},
	VeryPleasant: {
		label:    "Very Pleasant",
		emoji:    "😁",
		color:    "#27ae60",
		emotions: []string{"Excited", "Joyful", "Inspired", "Energetic", "Enthusiastic", "Thrilled"},
	},
}

// BucketOf returns the bucket for v. It is total: 0 maps to Neutral,
// negatives to VeryUnpleasant, anything above 9 to VeryPleasant.
func BucketOf(v int) Bucket {
	switch {
	case v == 0:
		return Neutral
	case v <= 2:
		return VeryUnpleasant
	case v <= 4:
		return Unpleasant
	case v == 5:
		return Neutral
	case v <= 7:
		return Pleasant
	default:
		return VeryPleasant
	}
}

// String returns the bucket label.
func (b Bucket) String() string {
	if b < VeryUnpleasant || b > VeryPleasant {
		return fmt.Sprintf("Bucket(%d)", int(b))
	}
	return buckets[b].label
}

// Classification holds every view of a mood value.
type Classification struct {
	Value    int      `json:"value"`
	Bucket   Bucket   `json:"bucket"`
	Label    string   `json:"label"`
	Emoji    string   `json:"emoji"`
	Color    string   `json:"color"`
	Emotions []string `json:"emotions"`
	Display  string   `json:"display"`
}

// Classify returns all views of v at once.
func Classify(v int) Classification {
	b := BucketOf(v)
	return Classification{
		Value:    v,
		Bucket:   b,
		Label:    buckets[b].label,
		Emoji:    Emoji(v),
		Color:    buckets[b].color,
		Emotions: Emotions(v),
		Display:  Display(v),
	}
}

// Label returns the descriptive text for v.
func Label(v int) string { return buckets[BucketOf(v)].label }

// Color returns the hex color for v.
func Color(v int) string { return buckets[BucketOf(v)].color }

// Emoji returns the glyph for v, or FallbackEmoji when v is absent.
func Emoji(v int) string {
	if v == 0 {
		return FallbackEmoji
	}
	return buckets[BucketOf(v)].emoji
}

// Emotions returns a copy of the six candidate emotions for v, in display order.
func Emotions(v int) []string {
	return slices.Clone(buckets[BucketOf(v)].emotions)
}

// DefaultEmotion is the emotion recorded when the user picks none.
func DefaultEmotion(v int) string {
	return buckets[BucketOf(v)].emotions[0]
}

// IsEmotionFor reports whether e belongs to v's vocabulary.
func IsEmotionFor(v int, e string) bool {
	return slices.Contains(buckets[BucketOf(v)].emotions, e)
}

// Display formats the stored mood string, e.g. "Pleasant (6/9)".
func Display(v int) string {
	return fmt.Sprintf("%s (%d/%d)", Label(v), v, MaxValue)
}

// Valid reports whether v is an acceptable stored mood value.
func Valid(v int) bool {
	return v >= MinValue && v <= MaxValue
}

// MarshalText encodes the bucket as its label.
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}
