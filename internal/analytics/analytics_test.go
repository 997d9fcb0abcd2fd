package analytics

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/mood"
)

// monday is 2025-03-10 12:00 UTC.
var monday = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func mk(id int64, v int, dayOffset int, emotion, text string) entry.Entry {
	return entry.Entry{
		ID:        id,
		MoodValue: v,
		Mood:      mood.Display(v),
		Tag:       entry.TagPersonal,
		Emotion:   emotion,
		Journal:   text,
		Date:      monday.AddDate(0, 0, dayOffset),
	}
}

func moods(values ...int) []entry.Entry {
	out := make([]entry.Entry, 0, len(values))
	for i, v := range values {
		out = append(out, mk(int64(i+1), v, i, "", "note"))
	}
	return out
}

func compute(entries []entry.Entry) Stats {
	return Compute(entries, WithLocation(time.UTC))
}

func TestCompute_Empty(t *testing.T) {
	for _, in := range [][]entry.Entry{nil, {}} {
		s := compute(in)

		assert.True(t, s.Empty)
		assert.Zero(t, s.EntryCount)
		assert.Zero(t, s.AverageMood)
		assert.NotNil(t, s.MoodCounts)
		assert.Empty(t, s.MoodCounts)
		assert.NotNil(t, s.MoodHistory)
		assert.Empty(t, s.MoodHistory)
		assert.NotNil(t, s.MoodByDay)
		assert.NotNil(t, s.EmotionCounts)
		assert.NotNil(t, s.WordCloud)
		assert.Equal(t, 5, s.MostFrequentMood)
		assert.Equal(t, mood.TrendStable, s.RecentTrend)
		assert.Zero(t, s.HighestMood)
		assert.Zero(t, s.LowestMood)
		assert.Empty(t, s.MostFrequentEmotion)
	}
}

func TestCompute_AverageMood(t *testing.T) {
	tests := []struct {
		values []int
		want   float64
	}{
		{[]int{3, 3, 3}, 3.0},
		{[]int{1, 9}, 5.0},
		{[]int{1, 2}, 1.5},
		{[]int{1, 1, 2}, 1.3},
		{[]int{1, 2, 2}, 1.7},
		{[]int{7}, 7.0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.values), func(t *testing.T) {
			s := compute(moods(tt.values...))
			assert.InDelta(t, tt.want, s.AverageMood, 1e-9)
			assert.False(t, s.Empty)
			assert.Equal(t, len(tt.values), s.EntryCount)
		})
	}
}

func TestCompute_MostFrequentMood(t *testing.T) {
	assert.Equal(t, 7, compute(moods(5, 5, 7, 7, 7, 2)).MostFrequentMood)
	assert.Equal(t, 3, compute(moods(7, 7, 3, 3)).MostFrequentMood, "lowest value wins ties")
	assert.Equal(t, 9, compute(moods(9)).MostFrequentMood)
}

func TestCompute_MoodCountsAndExtremes(t *testing.T) {
	s := compute(moods(5, 5, 7, 7, 7, 2))

	assert.Equal(t, map[int]int{2: 1, 5: 2, 7: 3}, s.MoodCounts)
	assert.Equal(t, 7, s.HighestMood)
	assert.Equal(t, 2, s.LowestMood)

	sum := 0
	for _, c := range s.MoodCounts {
		sum += c
	}
	assert.Equal(t, s.EntryCount, sum)
}

func TestCompute_RecentTrend(t *testing.T) {
	tests := []struct {
		values []int
		want   mood.Trend
	}{
		{[]int{4, 6, 8}, mood.TrendImproving},
		{[]int{8, 6, 4}, mood.TrendDeclining},
		{[]int{5, 5, 5}, mood.TrendStable},
		{[]int{4, 8}, mood.TrendStable},
		{[]int{9}, mood.TrendStable},
		{[]int{1, 1, 4, 9, 4}, mood.TrendStable},
		{[]int{9, 9, 3, 1, 5}, mood.TrendImproving},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.values), func(t *testing.T) {
			assert.Equal(t, tt.want, compute(moods(tt.values...)).RecentTrend)
		})
	}
}

func TestCompute_HistoryIsChronologicalAndTruncated(t *testing.T) {
	var entries []entry.Entry
	for i := 0; i < 12; i++ {
		entries = append(entries, mk(int64(i+1), 1+i%9, i, "", "x"))
	}
	// newest first, the way the store returns them
	reversed := make([]entry.Entry, len(entries))
	for i := range entries {
		reversed[len(entries)-1-i] = entries[i]
	}

	s := compute(reversed)
	require.Len(t, s.MoodHistory, HistoryLen)

	assert.Equal(t, "Mar 12", s.MoodHistory[0].Date)
	assert.Equal(t, "Mar 21", s.MoodHistory[9].Date)
	assert.Equal(t, entries[2].ISODate(), s.MoodHistory[0].FullDate)
	for i := 1; i < len(s.MoodHistory); i++ {
		assert.Less(t, s.MoodHistory[i-1].FullDate, s.MoodHistory[i].FullDate)
	}

	assert.Equal(t, compute(entries).MoodHistory, s.MoodHistory, "input order does not affect history")
	assert.Equal(t, int64(12), reversed[0].ID, "input is not reordered")
}

func TestCompute_MoodByDay(t *testing.T) {
	entries := []entry.Entry{
		mk(1, 4, 0, "", "x"),
		mk(2, 5, 7, "", "x"),
		mk(3, 8, 1, "", "x"),
		mk(4, 1, 2, "", "x"),
		mk(5, 2, 2, "", "x"),
		mk(6, 2, 2, "", "x"),
	}

	s := compute(entries)

	assert.Equal(t, DayStats{Sum: 9, Count: 2, Average: 4.5}, s.MoodByDay["Mon"])
	assert.Equal(t, DayStats{Sum: 8, Count: 1, Average: 8}, s.MoodByDay["Tue"])
	assert.Equal(t, DayStats{Sum: 5, Count: 3, Average: 1.7}, s.MoodByDay["Wed"])
	assert.NotContains(t, s.MoodByDay, "Sun")
	for day := range s.MoodByDay {
		assert.Contains(t, Weekdays, day)
	}
}

func TestCompute_LocationShiftsWeekday(t *testing.T) {
	late := entry.Entry{ID: 1, MoodValue: 6, Journal: "x", Date: time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)}

	utc := Compute([]entry.Entry{late}, WithLocation(time.UTC))
	east := Compute([]entry.Entry{late}, WithLocation(time.FixedZone("UTC+2", 2*3600)))

	assert.Contains(t, utc.MoodByDay, "Mon")
	assert.Contains(t, east.MoodByDay, "Tue")
	assert.Equal(t, "Mar 10", utc.MoodHistory[0].Date)
	assert.Equal(t, "Mar 11", east.MoodHistory[0].Date)
	assert.Equal(t, utc.MoodHistory[0].FullDate, east.MoodHistory[0].FullDate)
}

func TestCompute_AbsentMoodIsNeutral(t *testing.T) {
	entries := []entry.Entry{mk(1, 0, 0, "", "x"), mk(2, 9, 1, "", "x")}

	s := compute(entries)

	assert.Equal(t, map[int]int{5: 1, 9: 1}, s.MoodCounts)
	assert.InDelta(t, 7.0, s.AverageMood, 1e-9)
	assert.Equal(t, 5, s.LowestMood)
	assert.Equal(t, 5, s.MoodHistory[0].Mood)
}

func TestCompute_Emotions(t *testing.T) {
	entries := []entry.Entry{
		mk(1, 6, 0, "Happy", "x"),
		mk(2, 3, 1, "Tired", "x"),
		mk(3, 6, 2, "Happy", "x"),
		mk(4, 3, 3, "Tired", "x"),
		mk(5, 5, 4, "", "x"),
	}

	s := compute(entries)

	assert.Equal(t, map[string]int{"Happy": 2, "Tired": 2}, s.EmotionCounts)
	assert.Equal(t, "Happy", s.MostFrequentEmotion, "first seen wins ties")
}

func TestCompute_WordCloud(t *testing.T) {
	entries := []entry.Entry{
		mk(1, 6, 0, "Happy", "Morning coffee with friends, coffee again"),
		mk(2, 3, 1, "Tired", "Long meeting. Tired after meeting"),
		mk(3, 6, 2, "Happy", "Friends dinner"),
	}

	s := compute(entries)

	regular, emotional := splitCloud(s.WordCloud)
	assert.Equal(t, []CloudWord{
		{Text: "coffee", Value: 2},
		{Text: "friends", Value: 2},
		{Text: "meeting", Value: 2},
		{Text: "morning", Value: 1},
		{Text: "long", Value: 1},
		{Text: "tired", Value: 1},
		{Text: "dinner", Value: 1},
	}, regular)
	assert.Equal(t, []CloudWord{
		{Text: "Happy", Value: 3, IsEmotion: true},
		{Text: "Tired", Value: 1.5, IsEmotion: true},
	}, emotional)

	// emotions come after every regular word
	for i, w := range s.WordCloud {
		if w.IsEmotion {
			for _, rest := range s.WordCloud[i:] {
				assert.True(t, rest.IsEmotion)
			}
			break
		}
	}
}

func TestCompute_WordCloudCapsRegularWords(t *testing.T) {
	var parts []string
	for i := 0; i < 55; i++ {
		parts = append(parts, fmt.Sprintf("word%02d", i))
	}
	entries := []entry.Entry{
		mk(1, 5, 0, "Calm", strings.Join(parts, " ")),
		mk(2, 5, 1, "Focused", "word54 word54"),
		mk(3, 5, 2, "Calm", "x"),
	}

	s := compute(entries)
	regular, emotional := splitCloud(s.WordCloud)

	require.Len(t, regular, CloudWords)
	assert.Equal(t, "word54", regular[0].Text)
	assert.Equal(t, 3.0, regular[0].Value)
	assert.Equal(t, "word00", regular[1].Text)
	assert.Equal(t, "word38", regular[39].Text)
	assert.Equal(t, []CloudWord{
		{Text: "Calm", Value: 3, IsEmotion: true},
		{Text: "Focused", Value: 1.5, IsEmotion: true},
	}, emotional)
}

func TestCompute_Deterministic(t *testing.T) {
	entries := []entry.Entry{
		mk(1, 6, 0, "Happy", "Sunny walk in the park"),
		mk(2, 2, 3, "Anxious", "Deadline pressure at work"),
		mk(3, 8, 5, "Joyful", "Family picnic in the park"),
	}
	assert.Equal(t, compute(entries), compute(entries))
}

func splitCloud(cloud []CloudWord) (regular, emotional []CloudWord) {
	for _, w := range cloud {
		if w.IsEmotion {
			emotional = append(emotional, w)
		} else {
			regular = append(regular, w)
		}
	}
	return regular, emotional
}
