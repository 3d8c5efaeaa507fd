package handler

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown turns a post body into HTML for the post page. Raw HTML in the
// source is stripped by the UGC policy, so the result is safe to mark as
// template.HTML.
type Markdown struct {
	enabled bool
	md      goldmark.Markdown
	policy  *bluemonday.Policy
}

// NewMarkdown returns a renderer. With enabled false bodies are shown as
// escaped text with line breaks kept.
func NewMarkdown(enabled bool) *Markdown {
	return &Markdown{
		enabled: enabled,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:  bluemonday.UGCPolicy(),
	}
}

// Render converts src to sanitized HTML.
func (m *Markdown) Render(src string) template.HTML {
	if !m.enabled {
		return plainText(src)
	}

	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return plainText(src)
	}
	return template.HTML(m.policy.SanitizeBytes(buf.Bytes()))
}

func plainText(src string) template.HTML {
	escaped := template.HTMLEscapeString(src)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML("<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>")
}
