package models

// Defaults applied to settings that were saved without them.
const (
	DefaultBaseURL  = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel    = "gemini-2.0-flash"
	DefaultUserName = "Insight Explorer"
	DefaultTheme    = "classic"

	DefaultAnalyzePrompt = `Analyze the provided markdown note content.
1. Generate up to 5 relevant tags (keywords).
2. Write a 1-sentence summary.
Return ONLY JSON of the form {"tags": ["..."], "summary": "..."}.`

	DefaultPolishPrompt = `Act as a professional editor. Polish the following content so it reads
fluently and professionally, and fix typos. Keep the Markdown structure
(headings, code blocks, quotes) intact. Return only the polished text,
without any conversational preamble.`
)

// Settings are the user preferences persisted next to the notes.
type Settings struct {
	APIKey              string `json:"apiKey"`
	BaseURL             string `json:"baseUrl,omitempty"`
	Model               string `json:"model,omitempty"`
	UserName            string `json:"userName,omitempty"`
	CustomAnalyzePrompt string `json:"customAnalyzePrompt,omitempty"`
	CustomPolishPrompt  string `json:"customPolishPrompt,omitempty"`
	MarkdownTheme       string `json:"markdownTheme,omitempty"`
}

// DefaultSettings returns the settings used on first start.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:             DefaultBaseURL,
		Model:               DefaultModel,
		UserName:            DefaultUserName,
		CustomAnalyzePrompt: DefaultAnalyzePrompt,
		CustomPolishPrompt:  DefaultPolishPrompt,
		MarkdownTheme:       DefaultTheme,
	}
}

// WithDefaults fills missing optional fields. The retired "feishu" theme
// maps to classic.
func (s Settings) WithDefaults() Settings {
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.Model == "" {
		s.Model = DefaultModel
	}
	if s.CustomAnalyzePrompt == "" {
		s.CustomAnalyzePrompt = DefaultAnalyzePrompt
	}
	if s.CustomPolishPrompt == "" {
		s.CustomPolishPrompt = DefaultPolishPrompt
	}
	if s.MarkdownTheme == "" || s.MarkdownTheme == "feishu" {
		s.MarkdownTheme = DefaultTheme
	}
	return s
}
