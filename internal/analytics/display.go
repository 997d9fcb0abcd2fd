package analytics

import (
	"math"

	"github.com/hpungsan/moodjournal/internal/mood"
)

// Default font sizes, in px, for the word cloud.
const (
	DefaultMinFont = 14
	DefaultMaxFont = 42

	// MinBarPercent keeps zero-count bars visible in the distribution chart.
	MinBarPercent = 4.0
)

// SizedWord is a CloudWord with its rendered size.
type SizedWord struct {
	CloudWord
	Size    float64 `json:"size"`
	Opacity float64 `json:"opacity"`
	Bold    bool    `json:"bold"`
}

// SizeCloud scales each word linearly between minSize and maxSize by its
// value relative to the largest value in words.
func SizeCloud(words []CloudWord, minSize, maxSize float64) []SizedWord {
	out := make([]SizedWord, 0, len(words))
	if len(words) == 0 {
		return out
	}

	var top float64
	for _, w := range words {
		top = math.Max(top, w.Value)
	}

	for _, w := range words {
		ratio := 0.0
		if top > 0 {
			ratio = w.Value / top
		}
		size := minSize + ratio*(maxSize-minSize)
		out = append(out, SizedWord{
			CloudWord: w,
			Size:      size,
			Opacity:   0.7 + ratio*0.3,
			Bold:      w.IsEmotion || size > 24,
		})
	}
	return out
}

// Bar is one column of the mood distribution chart.
type Bar struct {
	Value   int     `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Height  float64 `json:"height"`
	Color   string  `json:"color"`
	Emoji   string  `json:"emoji"`
}

// Distribution returns one bar per mood value 1-9. Height is the share of
// entries at that value, floored at MinBarPercent.
func Distribution(stats Stats) []Bar {
	bars := make([]Bar, 0, mood.MaxValue)
	for v := mood.MinValue; v <= mood.MaxValue; v++ {
		count := stats.MoodCounts[v]
		pct := 0.0
		if stats.EntryCount > 0 {
			pct = float64(count) / float64(stats.EntryCount) * 100
		}
		bars = append(bars, Bar{
			Value:   v,
			Count:   count,
			Percent: pct,
			Height:  math.Max(pct, MinBarPercent),
			Color:   mood.Color(v),
			Emoji:   mood.Emoji(v),
		})
	}
	return bars
}
