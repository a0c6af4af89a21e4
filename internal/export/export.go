// Package export renders notes as Markdown files, standalone HTML
// documents and terminal previews.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/zhishi/internal/attachment"
	"github.com/starford/zhishi/internal/models"
)

var unsafeNameRe = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]`)

// FileName returns "<title>.md", or "untitled.md" for a blank title.
func FileName(n models.Note, ext string) string {
	title := strings.TrimSpace(unsafeNameRe.ReplaceAllString(n.Title, "_"))
	if title == "" {
		title = "untitled"
	}
	return title + ext
}

// Markdown returns the note content with attachment references resolved to
// data URIs, and the file name to save it under.
func Markdown(n models.Note) (name string, content []byte) {
	return FileName(n, ".md"), []byte(attachment.Resolve(n.Content, n.Attachments))
}

func newMarkdown(style Style) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithExtensions(&highlighting{style: style.Chroma}),
	)
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>{{if .Title}}{{.Title}}{{else}}Export{{end}}</title>
    <style>{{.CSS}}</style>
  </head>
  <body>
    <div class="container">
      {{if .Title}}<h1>{{.Title}}</h1>{{end}}
      {{.Body}}
    </div>
  </body>
</html>
`))

// HTML renders n as a standalone themed HTML document. Attachments are
// inlined as data URIs.
func HTML(n models.Note, theme Theme) ([]byte, error) {
	style := theme.Style()
	var body bytes.Buffer
	source := attachment.Resolve(n.Content, n.Attachments)
	if err := newMarkdown(style).Convert([]byte(source), &body); err != nil {
		return nil, fmt.Errorf("export: render markdown: %w", err)
	}
	var out bytes.Buffer
	err := page.Execute(&out, struct {
		Title string
		CSS   template.CSS
		Body  template.HTML
	}{
		Title: strings.TrimSpace(n.Title),
		CSS:   template.CSS(style.CSS()),
		Body:  template.HTML(body.String()), //nolint:gosec // goldmark output, raw HTML is escaped
	})
	if err != nil {
		return nil, fmt.Errorf("export: render page: %w", err)
	}
	return out.Bytes(), nil
}

// TerminalOptions tune Terminal.
type TerminalOptions struct {
	Width   int
	NoColor bool
}

// Terminal renders n for a terminal with glamour. Dark themes use the dark
// glamour style.
func Terminal(n models.Note, theme Theme, opts TerminalOptions) (string, error) {
	width := opts.Width
	if width <= 0 {
		width = 80
	}
	style := "light"
	switch {
	case opts.NoColor:
		style = "notty"
	case theme.Style().Dark:
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("export: terminal renderer: %w", err)
	}
	src := n.Content
	if t := strings.TrimSpace(n.Title); t != "" && !strings.HasPrefix(strings.TrimSpace(src), "# ") {
		src = "# " + t + "\n\n" + src
	}
	out, err := r.Render(src)
	if err != nil {
		return "", fmt.Errorf("export: terminal render: %w", err)
	}
	return out, nil
}
