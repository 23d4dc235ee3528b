package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValidateValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		key     string
		value   string
		want    any
		wantErr string
	}{
		"bool":        {key: "merged", value: "true", want: true},
		"bad bool":    {key: "merged", value: "yes", wantErr: "invalid boolean"},
		"int":         {key: "per_page", value: "50", want: 50},
		"bad int":     {key: "per_page", value: "many", wantErr: "invalid integer"},
		"enum":        {key: "merge_check", value: "api", want: "api"},
		"bad enum":    {key: "merge_check", value: "guess", wantErr: "valid options: events, api"},
		"list":        {key: "labels", value: "bug, ui,,", want: []string{"bug", "ui"}},
		"string":      {key: "owner", value: "acme", want: "acme"},
		"unknown key": {key: "agent_preset", value: "x", wantErr: "unknown configuration key: agent_preset"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateValue(tc.key, tc.value)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Parsed)
			assert.Equal(t, tc.value, got.Raw)
		})
	}
}

func TestKnownKeysMatchDefaults(t *testing.T) {
	t.Parallel()

	for key, value := range GetDefaults() {
		schema, err := GetKeySchema(key)
		require.NoError(t, err, key)
		assert.Equal(t, value, schema.Default, key)
	}
	assert.Len(t, SortedKeys(), len(KnownKeys))
	assert.IsIncreasing(t, SortedKeys())
}

func TestSetValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		existing string
		key      string
		value    string
		check    func(t *testing.T, out string, doc map[string]any)
	}{
		"creates missing file": {
			key:   "owner",
			value: "acme",
			check: func(t *testing.T, _ string, doc map[string]any) {
				assert.Equal(t, map[string]any{"owner": "acme"}, doc)
			},
		},
		"replaces value and keeps comments": {
			existing: "# header\nowner: old # who owns it\nrepo: widgets\n",
			key:      "owner",
			value:    "acme",
			check: func(t *testing.T, out string, doc map[string]any) {
				assert.Equal(t, "acme", doc["owner"])
				assert.Equal(t, "widgets", doc["repo"])
				assert.Contains(t, out, "# header")
				assert.Contains(t, out, "# who owns it")
			},
		},
		"appends typed values": {
			existing: "repo: widgets\n",
			key:      "per_page",
			value:    "20",
			check: func(t *testing.T, _ string, doc map[string]any) {
				assert.Equal(t, 20, doc["per_page"])
			},
		},
		"writes lists": {
			key:   "labels",
			value: "bug,ui",
			check: func(t *testing.T, _ string, doc map[string]any) {
				assert.Equal(t, []any{"bug", "ui"}, doc["labels"])
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), ".issuelog", "config.yml")
			if tc.existing != "" {
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
				require.NoError(t, os.WriteFile(path, []byte(tc.existing), 0o644))
			}

			_, err := SetValue(path, tc.key, tc.value)
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			var doc map[string]any
			require.NoError(t, yaml.Unmarshal(data, &doc))
			tc.check(t, string(data), doc)
		})
	}
}

func TestSetValue_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := SetValue(filepath.Join(dir, "a.yml"), "per_page", "lots")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "a.yml"))

	seq := filepath.Join(dir, "b.yml")
	require.NoError(t, os.WriteFile(seq, []byte("- one\n- two\n"), 0o644))
	_, err = SetValue(seq, "owner", "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top level must be a mapping")
}
