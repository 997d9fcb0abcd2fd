package ops

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hpungsan/moodjournal/internal/config"
	"github.com/hpungsan/moodjournal/internal/db"
	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/seed"
)

// SeedInput contains parameters for the Seed operation.
type SeedInput struct {
	Force bool       // seed regardless of the threshold
	Now   time.Time  // default: time.Now()
	Rand  *rand.Rand // default: randomly seeded
}

// SeedOutput contains the result of the Seed operation.
type SeedOutput struct {
	Seeded  bool   `json:"seeded"`
	Added   int    `json:"added"`
	Message string `json:"message"`
}

// Seed loads the sample catalog when the store holds fewer than
// cfg.SeedThreshold entries. All samples go in one transaction.
func Seed(ctx context.Context, database *sql.DB, cfg *config.Config, input SeedInput) (*SeedOutput, error) {
	threshold := config.DefaultConfig().SeedThreshold
	if cfg != nil && cfg.SeedThreshold > 0 {
		threshold = cfg.SeedThreshold
	}

	existing, err := db.Count(ctx, database, "")
	if err != nil {
		return nil, err
	}
	if !input.Force && existing >= threshold {
		return &SeedOutput{
			Seeded:  false,
			Message: "Database already contains enough entries. Seeding skipped.",
		}, nil
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	rng := input.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	entries, err := seed.Entries(now, rng)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("seed")
		}
		if err := Persist(ctx, tx, &entries[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &SeedOutput{
		Seeded:  true,
		Added:   len(entries),
		Message: fmt.Sprintf("Added %d sample journal entries.", len(entries)),
	}, nil
}
