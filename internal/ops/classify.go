package ops

import (
	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/mood"
)

// ClassifyInput contains parameters for the Classify operation.
type ClassifyInput struct {
	Value int
}

// Classify returns every mood view for a value. Zero is accepted and
// classifies as absent.
func Classify(input ClassifyInput) (*mood.Classification, error) {
	if input.Value != 0 && !mood.Valid(input.Value) {
		return nil, errors.NewInvalidField("value", "must be between 1 and 9")
	}
	c := mood.Classify(input.Value)
	return &c, nil
}
