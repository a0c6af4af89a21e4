package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/zhishi/internal/attachment"
	"github.com/starford/zhishi/internal/inbox"
	"github.com/starford/zhishi/internal/keymap"
	"github.com/starford/zhishi/internal/noteservice"
	"github.com/starford/zhishi/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Storage     StorageConfig     `yaml:"storage"`
	Index       IndexConfig       `yaml:"index"`
	Editor      EditorConfig      `yaml:"editor"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	AI          AIConfig          `yaml:"ai"`
	Inbox       InboxConfig       `yaml:"inbox"`
	Auth        AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Storage, &c.Editor, &c.Attachments, &c.AI, &c.Inbox,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects where notes and settings are persisted.
type StorageConfig struct {
	Backend      string `yaml:"backend"`
	Path         string `yaml:"path"`
	SQLiteDriver string `yaml:"sqlite_driver"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(storage.BackendFS, storage.BackendSQLite, storage.BackendMemory)),
		validation.Field(&c.Path, validation.When(c.Backend != storage.BackendMemory, validation.Required)),
		validation.Field(&c.SQLiteDriver, validation.In(storage.DriverCGO, storage.DriverPureGo)),
	)
}

// Options converts the section into storage.Open options.
func (c *StorageConfig) Options() storage.Options {
	return storage.Options{Backend: c.Backend, Path: c.Path, Driver: c.SQLiteDriver}
}

// IndexConfig holds the search index location. An empty path disables the
// index; search then falls back to substring matching.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// EditorConfig tunes the editing core. Keys maps combos to actions and
// overrides the stock shortcuts.
type EditorConfig struct {
	HistoryDelay    time.Duration     `yaml:"history_delay"`
	AutosaveDelay   time.Duration     `yaml:"autosave_delay"`
	HistoryCapacity int               `yaml:"history_capacity"`
	Keys            map[string]string `yaml:"keys"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.HistoryDelay, validation.Required, validation.Min(10*time.Millisecond)),
		validation.Field(&c.AutosaveDelay, validation.Required, validation.Min(10*time.Millisecond)),
		validation.Field(&c.HistoryCapacity, validation.Required, validation.Min(2)),
	); err != nil {
		return err
	}
	_, err := c.Keymap()
	return err
}

// Keymap builds the keymap: stock bindings overridden by Keys.
func (c *EditorConfig) Keymap() (*keymap.Keymap, error) {
	bindings := append([]keymap.Binding(nil), keymap.Defaults...)
	for combo, action := range c.Keys {
		bindings = append(bindings, keymap.Binding{Combo: combo, Action: keymap.Action(action)})
	}
	km, err := keymap.New(bindings)
	if err != nil {
		return nil, fmt.Errorf("editor.keys: %w", err)
	}
	return km, nil
}

// AttachmentsConfig bounds embedded images.
type AttachmentsConfig struct {
	MaxEdge        int   `yaml:"max_edge"`
	TargetBytes    int   `yaml:"target_bytes"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// Validate validates the attachments configuration.
func (c *AttachmentsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxEdge, validation.Required, validation.Min(16)),
		validation.Field(&c.TargetBytes, validation.Required, validation.Min(1024)),
		validation.Field(&c.MaxUploadBytes, validation.Required, validation.Min(int64(1024))),
	)
}

// AIConfig configures the AI client. The credential, endpoint and model
// are user settings; ZHISHI_API_KEY is used when the settings carry no key.
type AIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the AI configuration.
func (c *AIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Min(time.Second)),
	)
}

// InboxConfig configures the Markdown import directory.
type InboxConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Path     string   `yaml:"path"`
	Patterns []string `yaml:"patterns"`
}

// Validate validates the inbox configuration.
func (c *InboxConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	); err != nil {
		return err
	}
	return inbox.ValidatePatterns(c.Patterns)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ServiceConfig returns the note service configuration.
func (c *Config) ServiceConfig() noteservice.Config {
	att := attachment.DefaultOptions()
	att.MaxEdge = c.Attachments.MaxEdge
	att.TargetBytes = c.Attachments.TargetBytes
	return noteservice.Config{
		HistoryDelay:    c.Editor.HistoryDelay,
		AutosaveDelay:   c.Editor.AutosaveDelay,
		HistoryCapacity: c.Editor.HistoryCapacity,
		Attachments:     att,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	svc := noteservice.DefaultConfig()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Backend:      storage.BackendFS,
			Path:         "./data",
			SQLiteDriver: storage.DriverCGO,
		},
		Index: IndexConfig{
			Path: "./data/index.db",
		},
		Editor: EditorConfig{
			HistoryDelay:    svc.HistoryDelay,
			AutosaveDelay:   svc.AutosaveDelay,
			HistoryCapacity: svc.HistoryCapacity,
		},
		Attachments: AttachmentsConfig{
			MaxEdge:        svc.Attachments.MaxEdge,
			TargetBytes:    svc.Attachments.TargetBytes,
			MaxUploadBytes: 20 << 20,
		},
		AI: AIConfig{
			Enabled: true,
			Timeout: 60 * time.Second,
		},
		Inbox: InboxConfig{
			Path:     "./inbox",
			Patterns: inbox.DefaultPatterns,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
