package changelog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/ariel-frischer/issuelog/internal/tracker"
	"github.com/yuin/goldmark"
)

// Renderer executes a changelog template.
type Renderer struct {
	tmpl   *template.Template
	format Format
}

// NewRenderer parses text as a template. An empty text selects the bundled
// default template.
func NewRenderer(text string, format Format) (*Renderer, error) {
	if text == "" {
		text = defaultTemplate
	}
	switch format {
	case "", FormatMarkdown:
		format = FormatMarkdown
	case FormatHTML:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}

	tmpl, err := template.New("changelog").
		Funcs(sprig.TxtFuncMap()).
		Funcs(template.FuncMap{"link": link}).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	return &Renderer{tmpl: tmpl, format: format}, nil
}

// LoadRenderer reads a template from path, or uses the default when path
// is empty.
func LoadRenderer(path string, format Format) (*Renderer, error) {
	if path == "" {
		return NewRenderer("", format)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	return NewRenderer(string(data), format)
}

// Render writes the document for data to w. HTML output is produced by
// rendering Markdown first and converting the result.
func (r *Renderer) Render(data Data, w io.Writer) error {
	if r.format == FormatMarkdown {
		if err := r.tmpl.Execute(w, data); err != nil {
			return fmt.Errorf("executing template: %w", err)
		}
		return nil
	}

	var md bytes.Buffer
	if err := r.tmpl.Execute(&md, data); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	if err := goldmark.Convert(md.Bytes(), w); err != nil {
		return fmt.Errorf("converting markdown to html: %w", err)
	}
	return nil
}

// RenderString is a convenience function that renders to a string.
func (r *Renderer) RenderString(data Data) (string, error) {
	var b strings.Builder
	if err := r.Render(data, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// link formats an item as a Markdown link. Items that were only known from
// an event carry no URL; GitHub redirects /issues/N to /pull/N, so the issue
// URL works for both kinds.
func link(owner, repo string, v any) (string, error) {
	var it *tracker.Item
	switch x := v.(type) {
	case tracker.Item:
		it = &x
	case *tracker.Item:
		it = x
	default:
		return "", fmt.Errorf("link: unsupported value %T", v)
	}
	if it == nil {
		return "", nil
	}

	url := it.URL
	if url == "" {
		url = fmt.Sprintf("https://github.com/%s/%s/issues/%d", owner, repo, it.Number)
	}
	return fmt.Sprintf("[#%d](%s)", it.Number, url), nil
}
