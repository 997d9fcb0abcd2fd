package ops

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/hpungsan/moodjournal/internal/analytics"
	"github.com/hpungsan/moodjournal/internal/config"
	"github.com/hpungsan/moodjournal/internal/db"
	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/mood"
)

// StatsInput contains parameters for the Stats operation.
type StatsInput struct {
	Tag      string // optional: restrict to one tag
	Timezone string // optional: overrides cfg.Timezone
}

// StatsOutput is the derived statistics plus the presentation views the
// stats page and API share.
type StatsOutput struct {
	Stats        analytics.Stats       `json:"stats"`
	Summary      Summary               `json:"summary"`
	Distribution []analytics.Bar       `json:"distribution"`
	Trend        mood.TrendInfo        `json:"trend"`
	Cloud        []analytics.SizedWord `json:"cloud"`
}

// Summary is the headline card: the average and most frequent mood.
type Summary struct {
	Average      mood.Classification `json:"average"`
	MostFrequent mood.Classification `json:"most_frequent"`
	Emotion      string              `json:"emotion"`
}

// Stats loads every entry and derives statistics.
func Stats(ctx context.Context, database *sql.DB, cfg *config.Config, input StatsInput) (*StatsOutput, error) {
	loc, err := resolveLocation(cfg, input.Timezone)
	if err != nil {
		return nil, err
	}

	var tag entry.Tag
	if strings.TrimSpace(input.Tag) != "" {
		if tag, err = entry.ParseTag(input.Tag); err != nil {
			return nil, err
		}
	}

	entries, err := db.List(ctx, database, db.ListFilter{Tag: tag})
	if err != nil {
		return nil, err
	}

	return BuildStats(entries, loc), nil
}

// BuildStats derives the stats views from an in-memory collection.
func BuildStats(entries []entry.Entry, loc *time.Location) *StatsOutput {
	s := analytics.Compute(entries, analytics.WithLocation(loc))
	return &StatsOutput{
		Stats:        s,
		Summary:      summarize(s),
		Distribution: analytics.Distribution(s),
		Trend:        mood.TrendDisplay(s.RecentTrend),
		Cloud:        analytics.SizeCloud(s.WordCloud, analytics.DefaultMinFont, analytics.DefaultMaxFont),
	}
}

// summarize classifies the rounded average; no entries reads as neutral.
func summarize(s analytics.Stats) Summary {
	avg := mood.NeutralValue
	if s.AverageMood > 0 {
		avg = int(math.Floor(s.AverageMood + 0.5))
	}
	return Summary{
		Average:      mood.Classify(avg),
		MostFrequent: mood.Classify(s.MostFrequentMood),
		Emotion:      s.MostFrequentEmotion,
	}
}

func resolveLocation(cfg *config.Config, override string) (*time.Location, error) {
	if strings.TrimSpace(override) != "" {
		loc, err := time.LoadLocation(strings.TrimSpace(override))
		if err != nil {
			return nil, errors.NewInvalidField("timezone", err.Error())
		}
		return loc, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, errors.NewInvalidField("timezone", err.Error())
	}
	return loc, nil
}
