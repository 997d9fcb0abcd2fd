// Package analytics derives aggregate mood statistics from a collection of
// journal entries. Everything here is pure: no I/O, no errors, no shared state.
package analytics

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/mood"
	"github.com/hpungsan/moodjournal/internal/textstat"
)

const (
	// HistoryLen is how many of the most recent entries feed MoodHistory.
	HistoryLen = 10

	// CloudWords caps the regular (non-emotion) words in the word cloud.
	CloudWords = 40

	// EmotionWeight scales emotion counts in the word cloud.
	EmotionWeight = 1.5

	trendWindow = 3
)

// Weekdays lists MoodByDay keys in calendar order, Sunday first.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// HistoryPoint is one entry projected for the trend chart.
type HistoryPoint struct {
	Date     string `json:"date"` // "Jan 2"
	Mood     int    `json:"mood"`
	Emotion  string `json:"emotion"`
	FullDate string `json:"full_date"`
}

// DayStats accumulates moods for one weekday.
type DayStats struct {
	Sum     int     `json:"sum"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// CloudWord is one word-cloud term.
type CloudWord struct {
	Text      string  `json:"text"`
	Value     float64 `json:"value"`
	IsEmotion bool    `json:"is_emotion"`
}

// Stats is the derived view over an entry collection.
type Stats struct {
	EntryCount          int                 `json:"entry_count"`
	Empty               bool                `json:"empty"`
	AverageMood         float64             `json:"average_mood"`
	MoodCounts          map[int]int         `json:"mood_counts"`
	MoodHistory         []HistoryPoint      `json:"mood_history"`
	MostFrequentMood    int                 `json:"most_frequent_mood"`
	HighestMood         int                 `json:"highest_mood"`
	LowestMood          int                 `json:"lowest_mood"`
	MoodByDay           map[string]DayStats `json:"mood_by_day"`
	RecentTrend         mood.Trend          `json:"recent_trend"`
	EmotionCounts       map[string]int      `json:"emotion_counts"`
	MostFrequentEmotion string              `json:"most_frequent_emotion"`
	WordCloud           []CloudWord         `json:"word_cloud"`
}

type options struct {
	loc *time.Location
}

// Option configures Compute.
type Option func(*options)

// WithLocation sets the zone used for weekday buckets and short dates.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func emptyStats() Stats {
	return Stats{
		Empty:            true,
		MoodCounts:       map[int]int{},
		MoodHistory:      []HistoryPoint{},
		MostFrequentMood: mood.NeutralValue,
		MoodByDay:        map[string]DayStats{},
		RecentTrend:      mood.TrendStable,
		EmotionCounts:    map[string]int{},
		WordCloud:        []CloudWord{},
	}
}

// Compute derives Stats from entries. The input is not modified and its order
// only matters for tie-breaking in the word cloud and emotion ranking.
func Compute(entries []entry.Entry, opts ...Option) Stats {
	o := options{loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	if len(entries) == 0 {
		return emptyStats()
	}

	stats := emptyStats()
	stats.Empty = false
	stats.EntryCount = len(entries)

	var (
		sum      int
		highest  = 0
		lowest   = mood.MaxValue + 1
		words    = textstat.NewFrequencies()
		emotions = textstat.NewFrequencies()
	)

	for _, e := range entries {
		v := effectiveMood(e)

		sum += v
		stats.MoodCounts[v]++
		if e.Emotion != "" {
			emotions.Add(e.Emotion)
		}
		highest = max(highest, v)
		lowest = min(lowest, v)

		day := weekday(e.Date, o.loc)
		ds := stats.MoodByDay[day]
		ds.Sum += v
		ds.Count++
		stats.MoodByDay[day] = ds

		words.AddText(e.Journal)
	}

	stats.AverageMood = roundTenth(float64(sum) / float64(len(entries)))
	stats.HighestMood = highest
	stats.LowestMood = lowest
	stats.EmotionCounts = emotions.Map()
	stats.MostFrequentEmotion = mostFrequent(emotions)
	stats.MostFrequentMood = mostFrequentMood(stats.MoodCounts)
	stats.MoodHistory = history(entries, o.loc)
	stats.RecentTrend = trend(stats.MoodHistory)

	for day, ds := range stats.MoodByDay {
		ds.Average = roundTenth(float64(ds.Sum) / float64(ds.Count))
		stats.MoodByDay[day] = ds
	}

	stats.WordCloud = wordCloud(words, emotions)
	return stats
}

// effectiveMood treats a missing value as neutral.
func effectiveMood(e entry.Entry) int {
	if e.MoodValue == 0 {
		return mood.NeutralValue
	}
	return e.MoodValue
}

func weekday(t time.Time, loc *time.Location) string {
	return t.In(loc).Weekday().String()[:3]
}

// roundTenth rounds half up to one decimal.
func roundTenth(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

func history(entries []entry.Entry, loc *time.Location) []HistoryPoint {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b entry.Entry) int {
		return a.Date.Compare(b.Date)
	})
	if len(sorted) > HistoryLen {
		sorted = sorted[len(sorted)-HistoryLen:]
	}

	points := make([]HistoryPoint, 0, len(sorted))
	for _, e := range sorted {
		points = append(points, HistoryPoint{
			Date:     e.Date.In(loc).Format("Jan 2"),
			Mood:     effectiveMood(e),
			Emotion:  e.Emotion,
			FullDate: e.ISODate(),
		})
	}
	return points
}

func trend(points []HistoryPoint) mood.Trend {
	if len(points) < trendWindow {
		return mood.TrendStable
	}
	first := points[len(points)-trendWindow].Mood
	last := points[len(points)-1].Mood
	switch {
	case last > first:
		return mood.TrendImproving
	case last < first:
		return mood.TrendDeclining
	default:
		return mood.TrendStable
	}
}

// mostFrequentMood scans values in ascending order; the lowest value wins ties.
func mostFrequentMood(counts map[int]int) int {
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	best, bestCount := mood.NeutralValue, 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

// mostFrequent returns the highest-count word; the first seen wins ties.
func mostFrequent(f *textstat.Frequencies) string {
	best, bestCount := "", 0
	for _, w := range f.Words() {
		if c := f.Count(w); c > bestCount {
			best, bestCount = w, c
		}
	}
	return best
}

func wordCloud(words, emotions *textstat.Frequencies) []CloudWord {
	ranked := words.Words()
	slices.SortStableFunc(ranked, func(a, b string) int {
		return cmp.Compare(words.Count(b), words.Count(a))
	})
	if len(ranked) > CloudWords {
		ranked = ranked[:CloudWords]
	}

	cloud := make([]CloudWord, 0, len(ranked)+emotions.Len())
	for _, w := range ranked {
		cloud = append(cloud, CloudWord{Text: w, Value: float64(words.Count(w))})
	}
	for _, e := range emotions.Words() {
		cloud = append(cloud, CloudWord{
			Text:      e,
			Value:     float64(emotions.Count(e)) * EmotionWeight,
			IsEmotion: true,
		})
	}
	return cloud
}
