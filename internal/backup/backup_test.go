package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/zhishi/internal/apperr"
	"github.com/starford/zhishi/internal/models"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)
	notes := []models.Note{
		{ID: "a", Title: "A", Content: "x", Tags: []string{"t"}, Attachments: map[string]string{"att-1": "data:image/png;base64,AA=="}},
		{ID: "b", Title: "B"},
	}
	doc := New(notes, models.Settings{APIKey: "k", MarkdownTheme: "night"}, at)
	assert.Equal(t, "2024-03-09T10:30:00.000Z", doc.ExportedAt)

	data, err := Encode(doc)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Version, got.Version)
	require.Len(t, got.Notes, 2)
	assert.Equal(t, "data:image/png;base64,AA==", got.Notes[0].Attachments["att-1"])
	assert.Equal(t, []string{}, got.Notes[1].Tags)
	assert.Equal(t, "night", got.Settings.MarkdownTheme)
	assert.Equal(t, models.DefaultModel, got.Settings.Model, "missing settings get defaults")
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":          `nope`,
		"array root":        `[]`,
		"notes missing":     `{"settings":{}}`,
		"notes object":      `{"notes":{},"settings":{}}`,
		"notes null":        `{"notes":null,"settings":{}}`,
		"settings missing":  `{"notes":[]}`,
		"settings array":    `{"notes":[],"settings":[]}`,
		"note without id":   `{"notes":[{"title":"x"}],"settings":{}}`,
		"duplicate ids":     `{"notes":[{"id":"a"},{"id":"a"}],"settings":{}}`,
		"wrong field types": `{"notes":[{"id":1}],"settings":{}}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(input))
			assert.ErrorIs(t, err, apperr.ErrImportValidation)
		})
	}
}

func TestDecode_EmptyNotesIsValid(t *testing.T) {
	doc, err := Decode([]byte(`{"notes":[],"settings":{}}`))
	require.NoError(t, err)
	assert.Empty(t, doc.Notes)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "zhishi-backup-2024-12-31.json", FileName(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)))
}
