package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/zhishi/internal/models"
)

func TestParseTheme(t *testing.T) {
	for _, th := range Themes {
		assert.Equal(t, th, ParseTheme(string(th)))
	}
	assert.Equal(t, ThemeNight, ParseTheme(" Night "))
	assert.Equal(t, ThemeClassic, ParseTheme("feishu"))
	assert.Equal(t, ThemeClassic, ParseTheme(""))
	assert.Len(t, themeStyles, len(Themes), "every theme has a style")
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "untitled.md", FileName(models.Note{Title: "  "}, ".md"))
	assert.Equal(t, "a_b.md", FileName(models.Note{Title: "a/b"}, ".md"))
	assert.Equal(t, "Plan.html", FileName(models.Note{Title: "Plan"}, ".html"))
}

func TestMarkdown_ResolvesAttachments(t *testing.T) {
	n := models.Note{
		Title:       "Trip",
		Content:     "![map](attachment:att-1) and ![gone](attachment:att-2)",
		Attachments: map[string]string{"att-1": "data:image/png;base64,AA=="},
	}
	name, data := Markdown(n)
	assert.Equal(t, "Trip.md", name)
	assert.Equal(t, "![map](data:image/png;base64,AA==) and ![gone](attachment:att-2)", string(data))
}

func TestHTML(t *testing.T) {
	n := models.Note{
		Title:       "Report <1>",
		Content:     "Hello **world**\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n```go\nfunc main() {}\n```\n\n![img](attachment:att-1)\n\n<script>alert(1)</script>\n",
		Attachments: map[string]string{"att-1": "data:image/png;base64,AA=="},
	}
	out, err := HTML(n, ThemeNight)
	require.NoError(t, err)
	doc := string(out)

	assert.Contains(t, doc, "<title>Report &lt;1&gt;</title>")
	assert.Contains(t, doc, "<strong>world</strong>")
	assert.Contains(t, doc, "<table>", "GFM tables")
	assert.Contains(t, doc, `src="data:image/png;base64,AA=="`)
	assert.Contains(t, doc, "background: #0b1220", "night palette")
	assert.NotContains(t, doc, "<script>alert(1)</script>", "raw HTML is not passed through")
	assert.Contains(t, doc, `style="`, "code is highlighted with inline styles")
	assert.Contains(t, doc, "main")
}

func TestHTML_UsesThemeFonts(t *testing.T) {
	out, err := HTML(models.Note{Content: "x"}, ThemeSerif)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Georgia")
	assert.NotContains(t, string(out), "<h1>", "no heading without a title")
}

func TestStyle_CSS(t *testing.T) {
	for _, th := range Themes {
		css := th.Style().CSS()
		assert.True(t, strings.HasPrefix(css, baseCSS), th)
		assert.Contains(t, css, "blockquote { background:", th)
	}
	assert.Contains(t, ThemePaper.Style().CSS(), "text-decoration: underline")
}

func TestTerminal(t *testing.T) {
	out, err := Terminal(models.Note{Title: "Groceries", Content: "- milk\n- eggs\n"}, ThemeClassic, TerminalOptions{Width: 40, NoColor: true})
	require.NoError(t, err)
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "milk")
}
