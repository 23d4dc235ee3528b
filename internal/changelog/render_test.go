package changelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ariel-frischer/issuelog/internal/tracker"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var since = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleData() Data {
	return Data{
		Header: DefaultHeader(since),
		Owner:  "acme",
		Repo:   "widgets",
		Since:  since,
		Items: []tracker.Item{
			{Number: 12, Title: "Experiment ", URL: "https://github.com/acme/widgets/pull/12", IsPullRequest: true},
			{Number: 11, Title: "Fix crash", URL: "https://github.com/acme/widgets/pull/11", IsPullRequest: true, Labels: []string{"bug", "ui"}},
			{
				Number: 10, Title: "Crash on start", URL: "https://github.com/acme/widgets/issues/10",
				ClosedBy: &tracker.Item{Number: 11, URL: "https://github.com/acme/widgets/pull/11", IsPullRequest: true},
			},
			{Number: 9, Title: "Docs", ClosedBy: &tracker.Item{Number: 7}},
		},
	}
}

func TestDefaultTemplate_Golden(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer("", FormatMarkdown)
	require.NoError(t, err)

	out, err := r.RenderString(sampleData())
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "default_template", []byte(out))
}

func TestDefaultTemplate_Embedded(t *testing.T) {
	t.Parallel()

	tmpl := DefaultTemplate()
	assert.NotEmpty(t, tmpl)
	assert.Contains(t, tmpl, "{{ .Header }}")
	assert.Contains(t, tmpl, "closed by")
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		template    string
		format      Format
		data        Data
		want        string
		contains    []string
		notContains []string
	}{
		"custom template sees data fields": {
			template: "{{ .Owner }}/{{ .Repo }} {{ len .Items }}",
			data:     sampleData(),
			want:     "acme/widgets 4",
		},
		"sprig functions are available": {
			template: `{{ .Header | upper }}`,
			data:     Data{Header: "changes"},
			want:     "CHANGES",
		},
		"issues and pull requests helpers": {
			template: `{{ len .Issues }} {{ len .PullRequests }}`,
			data:     sampleData(),
			want:     "2 2",
		},
		"empty item list renders only header": {
			data: Data{Header: "Nothing"},
			want: "## Nothing\n\n",
		},
		"html conversion": {
			format: FormatHTML,
			data:   sampleData(),
			contains: []string{
				"<h2>Changes since 2024-01-01T00:00:00Z</h2>",
				`<a href="https://github.com/acme/widgets/pull/12">#12</a>`,
				"<code>bug</code>",
				"<li>",
			},
			notContains: []string{"## "},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r, err := NewRenderer(tc.template, tc.format)
			require.NoError(t, err)

			got, err := r.RenderString(tc.data)
			require.NoError(t, err)

			if tc.want != "" {
				assert.Equal(t, tc.want, got)
			}
			for _, s := range tc.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tc.notContains {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestRenderer_IsDeterministic(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer("", FormatMarkdown)
	require.NoError(t, err)

	first, err := r.RenderString(sampleData())
	require.NoError(t, err)
	for range 5 {
		again, err := r.RenderString(sampleData())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNewRenderer_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		template string
		format   Format
		wantErr  string
	}{
		"unknown format": {format: "pdf", wantErr: `unknown output format "pdf"`},
		"parse error":    {template: "{{ .Header ", wantErr: "parsing template"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRenderer(tc.template, tc.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRenderer_ExecuteError(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer(`{{ link .Owner .Repo .Header }}`, FormatMarkdown)
	require.NoError(t, err)

	_, err = r.RenderString(Data{Header: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executing template")
}

func TestLoadRenderer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{ range .Items }}{{ .Number }};{{ end }}"), 0o644))

	r, err := LoadRenderer(path, FormatMarkdown)
	require.NoError(t, err)
	got, err := r.RenderString(sampleData())
	require.NoError(t, err)
	assert.Equal(t, "12;11;10;9;", got)

	r, err = LoadRenderer("", "")
	require.NoError(t, err)
	got, err = r.RenderString(sampleData())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "## Changes since"))

	_, err = LoadRenderer(filepath.Join(dir, "missing.tmpl"), FormatMarkdown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading template")
}

func TestLink(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		value   any
		want    string
		wantErr bool
	}{
		"value with url":   {value: tracker.Item{Number: 3, URL: "https://example.com/3"}, want: "[#3](https://example.com/3)"},
		"pointer fallback": {value: &tracker.Item{Number: 4}, want: "[#4](https://github.com/o/r/issues/4)"},
		"nil pointer":      {value: (*tracker.Item)(nil), want: ""},
		"wrong type":       {value: "x", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := link("o", "r", tc.value)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
