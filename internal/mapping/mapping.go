package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RootDestination routes a rule into the template directory itself.
const RootDestination = "."

// Rule is one phrase -> destination routing decision.
type Rule struct {
	Phrase      string `json:"phrase"`
	Name        string `json:"name"`
	Destination string `json:"dest"`
}

// Mapping is an ordered set of rules. Order decides which rule wins when
// several phrases occur in the same document.
type Mapping struct {
	Rules []Rule

	// NamingScheme is persisted in the settings sidecar, not the JSON file.
	NamingScheme string

	// Path is the file the mapping was loaded from, if any.
	Path string
}

// ruleValue is the canonical on-disk value of a rule.
type ruleValue struct {
	Name string  `json:"name"`
	Dest *string `json:"dest"`
}

// Len returns the number of rules.
func (m *Mapping) Len() int { return len(m.Rules) }

// Destinations returns the distinct destinations in rule order.
func (m *Mapping) Destinations() []string {
	seen := make(map[string]struct{}, len(m.Rules))
	out := make([]string, 0, len(m.Rules))
	for _, r := range m.Rules {
		if _, ok := seen[r.Destination]; ok {
			continue
		}
		seen[r.Destination] = struct{}{}
		out = append(out, r.Destination)
	}
	return out
}

// MarshalJSON writes the rules as a JSON object keyed by phrase, in rule order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range m.Rules {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(r.Phrase)
		if err != nil {
			return nil, err
		}
		dest := r.Destination
		val, err := marshalNoEscape(ruleValue{Name: r.Name, Dest: &dest})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a phrase-keyed object keeping key order. Plain string
// values are the legacy phrase -> destination form and are migrated.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("mapping must be a JSON object, got %v", tok)
	}

	rules := make([]Rule, 0)
	index := make(map[string]int)
	keys := make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		phrase, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("value for %q: %w", phrase, err)
		}
		rule, err := decodeRule(phrase, raw)
		if err != nil {
			return err
		}
		// A repeated key overwrites the value but keeps its first position.
		if i, dup := index[phrase]; dup {
			rules[i] = rule
			continue
		}
		// Phrases equal after case and whitespace folding are one phrase;
		// the first one wins.
		key := phraseKey(phrase)
		if first, dup := keys[key]; dup {
			log.Warn().Str("phrase", phrase).Str("kept", first).Msg("dropping rule with duplicate phrase")
			continue
		}
		keys[key] = phrase
		index[phrase] = len(rules)
		rules = append(rules, rule)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	m.Rules = rules
	return nil
}

func decodeRule(phrase string, raw json.RawMessage) (Rule, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Rule{}, fmt.Errorf("empty value for %q", phrase)
	}
	switch raw[0] {
	case '"':
		var dest string
		if err := json.Unmarshal(raw, &dest); err != nil {
			return Rule{}, fmt.Errorf("value for %q: %w", phrase, err)
		}
		return Rule{Phrase: phrase, Name: NameFromPhrase(phrase), Destination: dest}, nil
	case '{':
		var v ruleValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return Rule{}, fmt.Errorf("value for %q: %w", phrase, err)
		}
		if v.Dest == nil {
			return Rule{}, fmt.Errorf("rule %q has no dest", phrase)
		}
		name := strings.TrimSpace(v.Name)
		if name == "" {
			name = NameFromPhrase(phrase)
		}
		return Rule{Phrase: phrase, Name: name, Destination: *v.Dest}, nil
	default:
		return Rule{}, fmt.Errorf("rule %q: value must be a string or an object", phrase)
	}
}

// NameFromPhrase synthesizes a display label for a legacy rule:
// separators become spaces and the result is title-cased.
func NameFromPhrase(phrase string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(phrase)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return phrase
	}
	return cases.Title(language.Und).String(s)
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
