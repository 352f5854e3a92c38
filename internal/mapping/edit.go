package mapping

import "strings"

// Direction is the direction of a single-step rule move.
type Direction int

const (
	Up Direction = iota
	Down
)

// Index returns the position of the rule with the given phrase, or -1.
// Phrases compare the way they match: case and whitespace insensitive.
func (m *Mapping) Index(phrase string) int {
	key := phraseKey(phrase)
	for i, r := range m.Rules {
		if phraseKey(r.Phrase) == key {
			return i
		}
	}
	return -1
}

// Get returns the rule with the given phrase.
func (m *Mapping) Get(phrase string) (Rule, bool) {
	i := m.Index(phrase)
	if i < 0 {
		return Rule{}, false
	}
	return m.Rules[i], true
}

// Add appends a rule at the end of the mapping.
func (m *Mapping) Add(r Rule) error {
	r, err := normalizeRule(r)
	if err != nil {
		return err
	}
	if m.Index(r.Phrase) >= 0 {
		return ErrDuplicatePhrase
	}
	m.Rules = append(m.Rules, r)
	return nil
}

// Update replaces the rule identified by oldPhrase, keeping its position.
func (m *Mapping) Update(oldPhrase string, r Rule) error {
	i := m.Index(oldPhrase)
	if i < 0 {
		return ErrRuleNotFound
	}
	r, err := normalizeRule(r)
	if err != nil {
		return err
	}
	if j := m.Index(r.Phrase); j >= 0 && j != i {
		return ErrDuplicatePhrase
	}
	m.Rules[i] = r
	return nil
}

// Remove deletes the rule with the given phrase. Removing an unknown phrase
// is a no-op.
func (m *Mapping) Remove(phrase string) {
	i := m.Index(phrase)
	if i < 0 {
		return
	}
	m.Rules = append(m.Rules[:i], m.Rules[i+1:]...)
}

// Move shifts a rule one position up or down.
func (m *Mapping) Move(phrase string, dir Direction) error {
	i := m.Index(phrase)
	if i < 0 {
		return ErrRuleNotFound
	}
	switch {
	case dir == Up && i > 0:
		return m.MoveTo(phrase, i-1)
	case dir == Down && i < len(m.Rules)-1:
		return m.MoveTo(phrase, i+1)
	default:
		return ErrCannotMove
	}
}

// MoveTo places a rule at index, shifting the rules in between.
func (m *Mapping) MoveTo(phrase string, index int) error {
	i := m.Index(phrase)
	if i < 0 {
		return ErrRuleNotFound
	}
	if index < 0 || index >= len(m.Rules) {
		return ErrCannotMove
	}
	r := m.Rules[i]
	rules := append(m.Rules[:i:i], m.Rules[i+1:]...)
	rules = append(rules[:index], append([]Rule{r}, rules[index:]...)...)
	m.Rules = rules
	return nil
}

func normalizeRule(r Rule) (Rule, error) {
	r.Phrase = strings.TrimSpace(r.Phrase)
	r.Destination = strings.TrimSpace(r.Destination)
	r.Name = strings.TrimSpace(r.Name)
	if r.Phrase == "" {
		return r, &ValidationError{Message: "phrase must not be empty"}
	}
	if r.Destination == "" {
		return r, &ValidationError{Phrase: r.Phrase, Message: "destination must not be empty"}
	}
	if !IsLocalDestination(r.Destination) {
		return r, &ValidationError{Phrase: r.Phrase, Message: "destination escapes the template directory"}
	}
	if r.Name == "" {
		r.Name = NameFromPhrase(r.Phrase)
	}
	return r, nil
}
