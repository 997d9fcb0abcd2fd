// Package textstat extracts significant words from journal text.
package textstat

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MinWordLen is the shortest token kept; shorter ones carry no signal.
const MinWordLen = 4

// punctuation is stripped before splitting. Apostrophes are kept so that
// contractions still match the stop-word list.
const punctuation = ".,/#!$%^&*;:{}=-_`~()"

// Tokenize lowercases text, removes punctuation, splits on whitespace and
// drops short tokens and stop words. Duplicates are kept. Empty input
// returns an empty slice.
func Tokenize(text string) []string {
	words := []string{}
	if text == "" {
		return words
	}

	lowered := cases.Lower(language.English).String(text)
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, lowered)

	for _, w := range strings.Fields(stripped) {
		if utf8.RuneCountInString(w) < MinWordLen || IsStopWord(w) {
			continue
		}
		words = append(words, w)
	}
	return words
}

// Frequencies counts words and remembers the order each was first seen.
type Frequencies struct {
	order  []string
	counts map[string]int
}

// NewFrequencies returns an empty counter.
func NewFrequencies() *Frequencies {
	return &Frequencies{counts: make(map[string]int)}
}

// Add counts one occurrence of w.
func (f *Frequencies) Add(w string) {
	if _, ok := f.counts[w]; !ok {
		f.order = append(f.order, w)
	}
	f.counts[w]++
}

// AddText tokenizes text and counts every token.
func (f *Frequencies) AddText(text string) {
	for _, w := range Tokenize(text) {
		f.Add(w)
	}
}

// Count returns the occurrences of w.
func (f *Frequencies) Count(w string) int { return f.counts[w] }

// Len is the number of distinct words.
func (f *Frequencies) Len() int { return len(f.order) }

// Words returns distinct words in first-seen order.
func (f *Frequencies) Words() []string {
	return append([]string(nil), f.order...)
}

// Map returns a copy of the counts.
func (f *Frequencies) Map() map[string]int {
	m := make(map[string]int, len(f.counts))
	for k, v := range f.counts {
		m[k] = v
	}
	return m
}
