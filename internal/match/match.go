// Package match finds the rule that governs a document's text.
//
// Rules are tried in mapping order and the first whose phrase occurs in the
// text wins. A more specific phrase only beats a general one when it is
// listed first.
package match

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/local/pdfsorter/internal/mapping"
)

// Normalize collapses every whitespace run to a single space and lowercases.
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Matcher scans text for all phrases of a mapping in one pass.
type Matcher struct {
	rules   []mapping.Rule
	matcher *ahocorasick.Matcher
	// owner maps a dictionary entry to the lowest rule index using it.
	owner []int
}

// New builds a matcher over the rules of m. The rule slice is copied, so later
// edits to m do not affect the matcher.
func New(m *mapping.Mapping) *Matcher {
	mt := &Matcher{}
	if m == nil {
		return mt
	}
	mt.rules = append([]mapping.Rule(nil), m.Rules...)

	dict := make([]string, 0, len(mt.rules))
	seen := make(map[string]int, len(mt.rules))
	for i, r := range mt.rules {
		p := Normalize(r.Phrase)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = len(dict)
		dict = append(dict, p)
		mt.owner = append(mt.owner, i)
	}
	if len(dict) > 0 {
		mt.matcher = ahocorasick.NewStringMatcher(dict)
	}
	return mt
}

// Match returns the earliest rule whose phrase occurs in text.
func (mt *Matcher) Match(text string) (mapping.Rule, bool) {
	if mt.matcher == nil {
		return mapping.Rule{}, false
	}
	norm := Normalize(text)
	if norm == "" {
		return mapping.Rule{}, false
	}
	best := -1
	for _, hit := range mt.matcher.MatchThreadSafe([]byte(norm)) {
		if idx := mt.owner[hit]; best < 0 || idx < best {
			best = idx
		}
	}
	if best < 0 {
		return mapping.Rule{}, false
	}
	return mt.rules[best], true
}

// Match is a one-off convenience for New(m).Match(text).
func Match(m *mapping.Mapping, text string) (mapping.Rule, bool) {
	return New(m).Match(text)
}
