// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNoActiveNote  = errors.New("no active note")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrConfigurationRequired means no AI credential is configured.
	// Callers prompt for configuration instead of reporting a failure.
	ErrConfigurationRequired = errors.New("configuration required")
	ErrAIRequestFailed       = errors.New("ai request failed")
	ErrImportValidation      = errors.New("import validation failed")
	ErrClipboardUnavailable  = errors.New("clipboard unavailable")
	ErrUnsupportedMedia      = errors.New("unsupported media")
)
