package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]string{
		"Ctrl+K":           "mod+k",
		"cmd+shift+z":      "mod+shift+z",
		"Shift+Meta+Z":     "mod+shift+z",
		"cmd-enter":        "mod+enter",
		"ctrl+Return":      "mod+enter",
		"alt+shift+ctrl+x": "mod+alt+shift+x",
		"-":                "-",
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "ctrl+", "ctrl+shift", "a+b"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestDefaultLookup(t *testing.T) {
	km := Default()
	cases := map[string]Action{
		"ctrl+k":       ActionPalette,
		"cmd+s":        ActionSave,
		"ctrl+shift+p": ActionExport,
		"meta+enter":   ActionPolish,
		"ctrl+z":       ActionUndo,
		"cmd+shift+z":  ActionRedo,
	}
	for combo, want := range cases {
		got, ok := km.Lookup(combo)
		require.True(t, ok, combo)
		assert.Equal(t, want, got, combo)
	}

	_, ok := km.Lookup("ctrl+q")
	assert.False(t, ok)
	assert.Len(t, km.Bindings(), len(Defaults))
}

func TestNew_Overrides(t *testing.T) {
	km, err := New(append(Defaults, Binding{Combo: "ctrl+y", Action: ActionRedo}))
	require.NoError(t, err)
	a, ok := km.Lookup("cmd+y")
	require.True(t, ok)
	assert.Equal(t, ActionRedo, a)

	_, err = New([]Binding{{Combo: "", Action: ActionSave}})
	assert.Error(t, err)
}
