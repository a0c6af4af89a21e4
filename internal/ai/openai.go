package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/starford/zhishi/internal/assist"
	"github.com/starford/zhishi/internal/models"
)

const maxResponseSize = 4 << 20

const chatSystemPrompt = "You are a helpful assistant inside a Markdown note-taking app. Answer concisely."

// SettingsFunc returns the current user settings. Credentials and model are
// resolved on every call so that settings changes apply immediately.
type SettingsFunc func() models.Settings

// OpenAI is a Client for OpenAI-compatible /chat/completions endpoints.
type OpenAI struct {
	settings SettingsFunc
	http     *http.Client
	envKey   string
}

// NewOpenAI creates a client. A zero timeout means 60s.
func NewOpenAI(settings SettingsFunc, timeout time.Duration) *OpenAI {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{
		settings: settings,
		http:     &http.Client{Timeout: timeout},
		envKey:   assist.EnvKey,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Analyze asks for tags and a summary and parses the JSON reply.
func (c *OpenAI) Analyze(ctx context.Context, content, prompt string) (assist.Analysis, error) {
	if prompt == "" {
		prompt = models.DefaultAnalyzePrompt
	}
	reply, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: prompt},
		{Role: "user", Content: content},
	}, true)
	if err != nil {
		return assist.Analysis{}, err
	}
	return ParseAnalysis(reply)
}

// Polish returns the rewritten content.
func (c *OpenAI) Polish(ctx context.Context, content, prompt string) (string, error) {
	if prompt == "" {
		prompt = models.DefaultPolishPrompt
	}
	reply, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: prompt},
		{Role: "user", Content: content},
	}, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// Chat sends message with the prior history. History may already end with
// message; it is not sent twice.
func (c *OpenAI) Chat(ctx context.Context, message string, history []assist.Message) (string, error) {
	msgs := make([]chatMessage, 0, len(history)+2)
	msgs = append(msgs, chatMessage{Role: "system", Content: chatSystemPrompt})
	for _, m := range history {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	if n := len(history); n == 0 || history[n-1].Role != assist.RoleUser || history[n-1].Content != message {
		msgs = append(msgs, chatMessage{Role: assist.RoleUser, Content: message})
	}
	return c.complete(ctx, msgs, false)
}

func (c *OpenAI) complete(ctx context.Context, msgs []chatMessage, jsonMode bool) (string, error) {
	s := c.settings().WithDefaults()
	key := s.APIKey
	if key == "" {
		key = os.Getenv(c.envKey)
	}
	if key == "" && !assist.IsLocalEndpoint(s.BaseURL) {
		return "", ErrMissingCredential
	}

	body := chatRequest{Model: s.Model, Messages: msgs}
	if jsonMode {
		body.ResponseFormat = map[string]any{"type": "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ai: encode request: %w", err)
	}

	endpoint := strings.TrimSuffix(s.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("ai: read body: %w", err)
	}

	var out chatResponse
	decodeErr := json.Unmarshal(data, &out)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("ai: HTTP %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("ai: HTTP %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("ai: decode response: %w", decodeErr)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("ai: empty response")
	}
	return out.Choices[0].Message.Content, nil
}

// ParseAnalysis decodes an analyze reply, tolerating ```json fences.
func ParseAnalysis(reply string) (assist.Analysis, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	var a assist.Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &a); err != nil {
		return assist.Analysis{}, fmt.Errorf("ai: analysis is not valid JSON: %w", err)
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return a, nil
}

var _ Client = (*OpenAI)(nil)
