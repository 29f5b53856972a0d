// Package markdown renders document bodies to sanitized HTML.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer converts markdown to HTML that is safe to embed in a page.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New returns a renderer supporting GitHub flavored markdown.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts src. Raw HTML in src is dropped by goldmark and anything
// unsafe left in the output is stripped by the sanitizer.
func (r *Renderer) Render(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}

	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil //nolint:gosec
}
