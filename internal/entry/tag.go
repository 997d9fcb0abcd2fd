package entry

import (
	"strings"

	"github.com/hpungsan/moodjournal/internal/errors"
)

// Tag is the entry category. The set is closed.
type Tag string

const (
	TagFamily   Tag = "Family"
	TagPersonal Tag = "Personal"
	TagOffice   Tag = "Office"
	TagOther    Tag = "Other"
)

// DefaultTag is used when the user picks none.
const DefaultTag = TagPersonal

// Tags lists every tag in form order.
var Tags = []Tag{TagFamily, TagPersonal, TagOffice, TagOther}

// ParseTag matches s case-insensitively against the tag set.
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	for _, t := range Tags {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", errors.NewInvalidField("tag", "must be one of Family, Personal, Office, Other")
}

// Valid reports whether t is in the tag set.
func (t Tag) Valid() bool {
	for _, known := range Tags {
		if t == known {
			return true
		}
	}
	return false
}

// Color returns the badge color for t.
func (t Tag) Color() string {
	switch t {
	case TagFamily:
		return "#9b59b6"
	case TagPersonal:
		return "#3498db"
	case TagOffice:
		return "#2ecc71"
	case TagOther:
		return "#f39c12"
	default:
		return "#3498db"
	}
}
