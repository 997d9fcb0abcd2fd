// Package seed holds the sample journal used to populate an empty install.
package seed

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/moodjournal/internal/entry"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Window is how far back seeded dates reach.
const Window = 3 // months

// Sample is one catalog record.
type Sample struct {
	Journal   string `yaml:"journal"`
	MoodValue int    `yaml:"mood_value"`
	Tag       string `yaml:"tag"`
	Emotion   string `yaml:"emotion"`
}

type catalogFile struct {
	Entries []Sample `yaml:"entries"`
}

var loadCatalog = sync.OnceValues(func() ([]Sample, error) {
	return parseCatalog(catalogYAML)
})

func parseCatalog(data []byte) ([]Sample, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("seed catalog is empty")
	}
	return f.Entries, nil
}

// Catalog returns the embedded samples. The slice is shared; do not modify it.
func Catalog() ([]Sample, error) {
	return loadCatalog()
}

// RandomDate returns a uniformly random instant in the Window months before now.
func RandomDate(now time.Time, rng *rand.Rand) time.Time {
	start := now.AddDate(0, -Window, 0)
	span := now.Sub(start)
	return start.Add(time.Duration(rng.Int64N(int64(span) + 1)))
}

// Entries builds one validated entry per catalog sample, each dated randomly
// within the seed window. UIDs are left for the caller to assign.
func Entries(now time.Time, rng *rand.Rand) ([]entry.Entry, error) {
	samples, err := Catalog()
	if err != nil {
		return nil, err
	}

	out := make([]entry.Entry, 0, len(samples))
	for i, s := range samples {
		e, err := entry.New(entry.NewInput{
			Journal:   s.Journal,
			MoodValue: s.MoodValue,
			Tag:       s.Tag,
			Emotion:   s.Emotion,
			Date:      RandomDate(now, rng),
		}, now)
		if err != nil {
			return nil, fmt.Errorf("seed sample %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}
