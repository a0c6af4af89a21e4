// Package models defines the domain types for zhishi.
package models

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Note is a titled, tagged, categorized unit of Markdown content.
// Timestamps are Unix milliseconds so that backups stay compatible with
// the zhishi-v1 document format.
type Note struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Category    string            `json:"category"`
	Tags        []string          `json:"tags"`
	CreatedAt   int64             `json:"createdAt"`
	UpdatedAt   int64             `json:"updatedAt"`
	Attachments map[string]string `json:"attachments,omitempty"`
}

// Clone returns a deep copy of n.
func (n Note) Clone() Note {
	n.Tags = slices.Clone(n.Tags)
	n.Attachments = maps.Clone(n.Attachments)
	return n
}

// Touch sets UpdatedAt to t.
func (n *Note) Touch(t time.Time) {
	n.UpdatedAt = t.UnixMilli()
}

// Updated returns UpdatedAt as a time.
func (n Note) Updated() time.Time {
	return time.UnixMilli(n.UpdatedAt)
}

// Created returns CreatedAt as a time.
func (n Note) Created() time.Time {
	return time.UnixMilli(n.CreatedAt)
}

// Matches reports whether the lower-cased query occurs in the title,
// the content or any tag.
func (n Note) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// SortByUpdated orders notes by UpdatedAt descending. The sort is stable so
// notes saved in the same millisecond keep their relative order.
func SortByUpdated(notes []Note) {
	slices.SortStableFunc(notes, func(a, b Note) int {
		switch {
		case a.UpdatedAt > b.UpdatedAt:
			return -1
		case a.UpdatedAt < b.UpdatedAt:
			return 1
		}
		return 0
	})
}

// Category is a distinct note category with the number of notes in it.
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats are the word/character counters shown under the editor.
type Stats struct {
	Words       int `json:"words"`
	Chars       int `json:"chars"`
	ReadingTime int `json:"readingTime"` // minutes
}
