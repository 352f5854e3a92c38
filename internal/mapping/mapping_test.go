package mapping

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestUnmarshalKeepsOrderAndMigratesLegacy(t *testing.T) {
	data := `{
		"zeta invoice": {"name": "Zeta", "dest": "Finance/Zeta"},
		"alpha_report": "Reports",
		"medical-bill": {"dest": "Health"}
	}`
	var m Mapping
	require.NoError(t, json.Unmarshal([]byte(data), &m))

	require.Len(t, m.Rules, 3)
	assert.Equal(t, Rule{Phrase: "zeta invoice", Name: "Zeta", Destination: "Finance/Zeta"}, m.Rules[0])
	assert.Equal(t, Rule{Phrase: "alpha_report", Name: "Alpha Report", Destination: "Reports"}, m.Rules[1])
	assert.Equal(t, Rule{Phrase: "medical-bill", Name: "Medical Bill", Destination: "Health"}, m.Rules[2])
}

func TestUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"array", `["a"]`},
		{"number value", `{"a": 1}`},
		{"missing dest", `{"a": {"name": "A"}}`},
		{"truncated", `{"a": "b"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Mapping
			assert.Error(t, json.Unmarshal([]byte(tt.data), &m))
		})
	}
}

func TestDuplicateKeyKeepsFirstPosition(t *testing.T) {
	var m Mapping
	require.NoError(t, json.Unmarshal([]byte(`{"a": "one", "b": "two", "a": "three"}`), &m))
	require.Len(t, m.Rules, 2)
	assert.Equal(t, "a", m.Rules[0].Phrase)
	assert.Equal(t, "three", m.Rules[0].Destination)
}

func TestFoldedDuplicatePhraseKeepsFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "office.json")
	writeFile(t, path, `{"Invoice": "Finance", "b": "Other", " invoice ": "Elsewhere", "INVOICE": {"name": "X", "dest": "Y"}}`)

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Rules, 2)
	assert.Equal(t, "Invoice", m.Rules[0].Phrase)
	assert.Equal(t, "Finance", m.Rules[0].Destination)
	assert.Equal(t, "b", m.Rules[1].Phrase)

	require.NoError(t, Validate(m))
	require.NoError(t, Save(path, m))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings", "office.json")
	m := &Mapping{Rules: []Rule{
		{Phrase: "tax invoice", Name: "Tax", Destination: "Finance/Tax"},
		{Phrase: "invoice", Name: "Invoice", Destination: "Finance"},
		{Phrase: "misc <&>", Name: "Misc", Destination: "."},
	}}
	require.NoError(t, Save(path, m))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n    \"tax invoice\": {")
	assert.Contains(t, string(raw), `"misc <&>"`)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Rules, got.Rules)
	assert.Equal(t, path, got.Path)
	assert.NoFileExists(t, SettingsPathFor(path))
}

func TestLoadLegacyThenSaveWritesCanonicalForm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	writeFile(t, path, `{"bank_statement": "Bank"}`)

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Save(path, m))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var canonical map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &canonical))
	assert.Equal(t, map[string]string{"name": "Bank Statement", "dest": "Bank"}, canonical["bank_statement"])
}

func TestLoadFailuresYieldEmptyMapping(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.json")
	writeFile(t, corrupt, `{not json`)

	for _, path := range []string{filepath.Join(dir, "missing.json"), corrupt} {
		m, err := Load(path)
		require.Error(t, err)
		var cfgErr *ConfigError
		assert.True(t, errors.As(err, &cfgErr))
		require.NotNil(t, m)
		assert.Equal(t, 0, m.Len())
		assert.Equal(t, 0, LoadOrEmpty(path).Len())
	}
}

func TestSaveRejectsInvalidWithoutWriting(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"empty phrase", []Rule{{Phrase: " ", Destination: "A"}}},
		{"empty destination", []Rule{{Phrase: "a", Destination: ""}}},
		{"escaping destination", []Rule{{Phrase: "a", Destination: "../out"}}},
		{"absolute destination", []Rule{{Phrase: "a", Destination: "/etc"}}},
		{"duplicate phrase", []Rule{{Phrase: "Invoice", Destination: "A"}, {Phrase: " invoice ", Destination: "B"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "m.json")
			err := Save(path, &Mapping{Rules: tt.rules})
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.NoFileExists(t, path)
		})
	}
}

func TestNamingSchemeSidecar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	m := &Mapping{
		Rules:        []Rule{{Phrase: "a", Name: "A", Destination: "A"}},
		NamingScheme: "{date}_{rule_name}",
	}
	require.NoError(t, Save(path, m))
	assert.FileExists(t, SettingsPathFor(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "{date}_{rule_name}", got.NamingScheme)

	got.NamingScheme = ""
	require.NoError(t, Save(path, got))
	again, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, again.NamingScheme)
}

func TestDerivedPaths(t *testing.T) {
	p := filepath.Join("maps", "office.json")
	assert.Equal(t, filepath.Join("maps", "office_template"), TemplateDirFor(p))
	assert.Equal(t, filepath.Join("maps", "office_settings.yaml"), SettingsPathFor(p))
}

func TestDestinations(t *testing.T) {
	m := &Mapping{Rules: []Rule{
		{Phrase: "a", Destination: "X"},
		{Phrase: "b", Destination: "Y"},
		{Phrase: "c", Destination: "X"},
	}}
	assert.Equal(t, []string{"X", "Y"}, m.Destinations())
}
