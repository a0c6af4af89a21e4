package export

import (
	"fmt"
	"strings"
)

// Theme is a named export look.
type Theme string

const (
	ThemeClassic  Theme = "classic"
	ThemeSerif    Theme = "serif"
	ThemeNight    Theme = "night"
	ThemePastel   Theme = "pastel"
	ThemePaper    Theme = "paper"
	ThemeContrast Theme = "contrast"
	ThemeMono     Theme = "mono"
	ThemeTerminal Theme = "terminal"
)

// Themes lists every theme in display order.
var Themes = []Theme{ThemeClassic, ThemeSerif, ThemeNight, ThemePastel, ThemePaper, ThemeContrast, ThemeMono, ThemeTerminal}

// ParseTheme maps a stored theme name to a Theme. Unknown and retired names
// fall back to classic.
func ParseTheme(name string) Theme {
	t := Theme(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := themeStyles[t]; ok {
		return t
	}
	return ThemeClassic
}

// Style returns the descriptor for t.
func (t Theme) Style() Style {
	if s, ok := themeStyles[t]; ok {
		return s
	}
	return themeStyles[ThemeClassic]
}

// Style describes a theme's palette. Every theme renders through the same
// CSS template.
type Style struct {
	Background  string
	Text        string
	Font        string
	Link        string
	Underline   bool
	PreBg       string
	PreBorder   string
	CodeBg      string
	CodeBorder  string
	CodeText    string
	TableBorder string
	ThBg        string
	ThText      string
	TdText      string
	QuoteBg     string
	QuoteBorder string
	QuoteText   string
	Dark        bool
	Chroma      string // chroma style for fenced code
}

const (
	sansFont  = `'Inter','PingFang SC','Microsoft YaHei',system-ui,sans-serif`
	serifFont = `'Georgia','Songti SC',serif`
	monoFont  = `'JetBrains Mono','SFMono-Regular',Consolas,monospace`
)

var themeStyles = map[Theme]Style{
	ThemeClassic: {
		Background: "#f8fafc", Text: "#0f172a", Font: sansFont, Link: "#2563eb",
		PreBg: "#f8fafc", PreBorder: "#e2e8f0", CodeBg: "#e2e8f0", CodeBorder: "#cbd5e1",
		TableBorder: "#e2e8f0", ThBg: "#f1f5f9", ThText: "#475569", TdText: "#475569",
		QuoteBg: "#eff6ff", QuoteBorder: "#3b82f6", QuoteText: "#1f2937",
		Chroma: "github",
	},
	ThemeSerif: {
		Background: "radial-gradient(circle at 20% 20%, #fff7e6 0%, #ffffff 45%)", Text: "#1f2937", Font: serifFont,
		Link: "#92400e", Underline: true,
		PreBg: "#fdf6e3", PreBorder: "#f3e0b3", CodeBg: "#f5e8c7", CodeBorder: "#f3e0b3",
		TableBorder: "#f3e0b3", ThBg: "#fef3c7", ThText: "#92400e", TdText: "#374151",
		QuoteBg: "#fff7e6", QuoteBorder: "#d97706", QuoteText: "#92400e",
		Chroma: "solarized-light",
	},
	ThemeNight: {
		Background: "#0b1220", Text: "#e2e8f0", Font: sansFont, Link: "#7dd3fc",
		PreBg: "#0f172a", PreBorder: "#1f2937", CodeBg: "#0f172a", CodeBorder: "#1f2937", CodeText: "#e5e7eb",
		TableBorder: "#1f2937", ThBg: "#111827", ThText: "#cbd5f5", TdText: "#e2e8f0",
		QuoteBg: "#0f172a", QuoteBorder: "#22d3ee", QuoteText: "#e2e8f0",
		Dark: true, Chroma: "dracula",
	},
	ThemePastel: {
		Background: "linear-gradient(180deg, #f6f5ff 0%, #fffaf0 60%, #ffffff 100%)", Text: "#1f2937", Font: sansFont, Link: "#6366f1",
		PreBg: "#f4f2ff", PreBorder: "#e0e7ff", CodeBg: "#eef2ff", CodeBorder: "#e0e7ff",
		TableBorder: "#e0e7ff", ThBg: "#eef2ff", ThText: "#4f46e5", TdText: "#374151",
		QuoteBg: "#eef2ff", QuoteBorder: "#818cf8", QuoteText: "#312e81",
		Chroma: "friendly",
	},
	ThemePaper: {
		Background: "#fdfbf7", Text: "#1f2937", Font: sansFont, Link: "#2b2b2b", Underline: true,
		PreBg: "#f7f3ec", PreBorder: "#e5decf", CodeBg: "#f5efe2", CodeBorder: "#e5decf",
		TableBorder: "#e5decf", ThBg: "#f7f3ec", ThText: "#6b7280", TdText: "#374151",
		QuoteBg: "#f7f3ec", QuoteBorder: "#a78b73", QuoteText: "#5b4231",
		Chroma: "tango",
	},
	ThemeContrast: {
		Background: "#0e0b14", Text: "#f3e8ff", Font: sansFont, Link: "#f472b6",
		PreBg: "#14111b", PreBorder: "#1f1a2c", CodeBg: "#1f1a2c", CodeBorder: "#312347", CodeText: "#f8e7ff",
		TableBorder: "#1f1a2c", ThBg: "#1c1a24", ThText: "#fbcfe8", TdText: "#f3e8ff",
		QuoteBg: "#1c142a", QuoteBorder: "#f472b6", QuoteText: "#f8e7ff",
		Dark: true, Chroma: "monokai",
	},
	ThemeMono: {
		Background: "#f4f6fb", Text: "#0f172a", Font: monoFont, Link: "#2563eb",
		PreBg: "#eef2ff", PreBorder: "#cbd5ff", CodeBg: "#e2e8f0", CodeBorder: "#cbd5e1",
		TableBorder: "#cbd5e1", ThBg: "#e2e8f0", ThText: "#1f2937", TdText: "#1f2937",
		QuoteBg: "#e0f2fe", QuoteBorder: "#38bdf8", QuoteText: "#0f172a",
		Chroma: "bw",
	},
	ThemeTerminal: {
		Background: "radial-gradient(circle at 20% 20%, #0f172a 0%, #0b1220 45%, #0a0f1a 100%)", Text: "#e0f2fe",
		Font: monoFont, Link: "#34d399",
		PreBg: "#0c111b", PreBorder: "#1f2937", CodeBg: "#111827", CodeBorder: "#1f2937", CodeText: "#d1fae5",
		TableBorder: "#1f2937", ThBg: "#0f172a", ThText: "#a7f3d0", TdText: "#e0f2fe",
		QuoteBg: "#0e1a1a", QuoteBorder: "#34d399", QuoteText: "#d1fae5",
		Dark: true, Chroma: "native",
	},
}

const baseCSS = `* { box-sizing: border-box; }
body { margin: 0; padding: 0; }
.container { padding: 32px; max-width: 860px; margin: 0 auto; }
h1,h2,h3,h4,h5,h6 { margin-top: 1.6em; margin-bottom: 0.6em; line-height: 1.25; }
h1 { font-size: 2.2rem; }
h2 { font-size: 1.7rem; }
h3 { font-size: 1.4rem; }
p,li { line-height: 1.75; }
img { max-width: 100%; border-radius: 12px; }
pre { overflow: auto; padding: 16px; border-radius: 14px; }
code { font-family: ` + monoFont + `; }
pre code { background: none; border: none; padding: 0; }
table { width: 100%; border-collapse: collapse; border-radius: 12px; overflow: hidden; }
th, td { padding: 10px 12px; }
th { text-transform: uppercase; font-size: 12px; letter-spacing: 0.08em; }
blockquote { margin: 18px 0; padding: 12px 16px; border-left: 4px solid; border-radius: 12px; font-style: italic; }
`

// CSS renders the stylesheet for s.
func (s Style) CSS() string {
	var b strings.Builder
	b.WriteString(baseCSS)
	fmt.Fprintf(&b, "body { background: %s; color: %s; font-family: %s; }\n", s.Background, s.Text, s.Font)
	decoration := "none"
	if s.Underline {
		decoration = "underline"
	}
	fmt.Fprintf(&b, "a { color: %s; text-decoration: %s; }\n", s.Link, decoration)
	fmt.Fprintf(&b, "pre { background: %s; border: 1px solid %s;%s }\n", s.PreBg, s.PreBorder, colorRule(s.CodeText))
	fmt.Fprintf(&b, "code { background: %s; padding: 2px 6px; border-radius: 8px; border: 1px solid %s;%s }\n", s.CodeBg, s.CodeBorder, colorRule(s.CodeText))
	fmt.Fprintf(&b, "table { border: 1px solid %s; }\n", s.TableBorder)
	fmt.Fprintf(&b, "th { background: %s; color: %s; }\n", s.ThBg, s.ThText)
	fmt.Fprintf(&b, "td { border-top: 1px solid %s; color: %s; }\n", s.TableBorder, s.TdText)
	fmt.Fprintf(&b, "blockquote { background: %s; border-color: %s; color: %s; }\n", s.QuoteBg, s.QuoteBorder, s.QuoteText)
	return b.String()
}

func colorRule(c string) string {
	if c == "" {
		return ""
	}
	return " color: " + c + ";"
}
