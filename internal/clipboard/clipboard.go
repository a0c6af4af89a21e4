// Package clipboard wraps the system clipboard.
package clipboard

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/starford/zhishi/internal/apperr"
)

// Clipboard reads and writes plain text.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// System is the OS clipboard. On hosts without a clipboard utility every
// call fails with apperr.ErrClipboardUnavailable.
type System struct{}

// ReadText implements Clipboard.
func (System) ReadText() (string, error) {
	if clipboard.Unsupported {
		return "", apperr.ErrClipboardUnavailable
	}
	s, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard: read: %v: %w", err, apperr.ErrClipboardUnavailable)
	}
	return s, nil
}

// WriteText implements Clipboard.
func (System) WriteText(text string) error {
	if clipboard.Unsupported {
		return apperr.ErrClipboardUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: write: %v: %w", err, apperr.ErrClipboardUnavailable)
	}
	return nil
}

// Memory is an in-process clipboard for tests and headless servers.
type Memory struct {
	mu   sync.Mutex
	text string
}

// ReadText implements Clipboard.
func (m *Memory) ReadText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

// WriteText implements Clipboard.
func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

var (
	_ Clipboard = System{}
	_ Clipboard = (*Memory)(nil)
)
