// Package keymap maps keyboard shortcuts to editor actions.
package keymap

import (
	"fmt"
	"slices"
	"strings"
)

// Action is an editor command reachable from the keyboard.
type Action string

const (
	ActionPalette Action = "palette"
	ActionSave    Action = "save"
	ActionExport  Action = "export"
	ActionPolish  Action = "polish"
	ActionUndo    Action = "undo"
	ActionRedo    Action = "redo"
)

// Binding pairs a normalised combo with its action.
type Binding struct {
	Combo  string `json:"combo"`
	Action Action `json:"action"`
}

// Defaults are the stock shortcuts. "mod" is Cmd on macOS and Ctrl elsewhere.
var Defaults = []Binding{
	{Combo: "mod+k", Action: ActionPalette},
	{Combo: "mod+s", Action: ActionSave},
	{Combo: "mod+shift+p", Action: ActionExport},
	{Combo: "mod+enter", Action: ActionPolish},
	{Combo: "mod+z", Action: ActionUndo},
	{Combo: "mod+shift+z", Action: ActionRedo},
}

var modifierOrder = []string{"mod", "alt", "shift"}

var aliases = map[string]string{
	"ctrl": "mod", "control": "mod", "cmd": "mod", "command": "mod", "meta": "mod", "super": "mod",
	"option": "alt", "opt": "alt",
	"return": "enter",
	"esc":    "escape",
}

// Parse normalises a combo such as "Ctrl+Shift+Z" or "cmd-k" into the
// canonical "mod+shift+z" form.
func Parse(combo string) (string, error) {
	combo = strings.ToLower(strings.TrimSpace(combo))
	if combo == "" {
		return "", fmt.Errorf("keymap: empty combo")
	}
	sep := "+"
	if !strings.Contains(combo, "+") && strings.Contains(combo, "-") && len(combo) > 1 {
		sep = "-"
	}
	var mods []string
	key := ""
	for _, part := range strings.Split(combo, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			return "", fmt.Errorf("keymap: malformed combo %q", combo)
		}
		if a, ok := aliases[part]; ok {
			part = a
		}
		if slices.Contains(modifierOrder, part) {
			if !slices.Contains(mods, part) {
				mods = append(mods, part)
			}
			continue
		}
		if key != "" {
			return "", fmt.Errorf("keymap: more than one key in %q", combo)
		}
		key = part
	}
	if key == "" {
		return "", fmt.Errorf("keymap: no key in %q", combo)
	}
	slices.SortFunc(mods, func(a, b string) int {
		return slices.Index(modifierOrder, a) - slices.Index(modifierOrder, b)
	})
	return strings.Join(append(mods, key), "+"), nil
}

// Keymap resolves combos to actions.
type Keymap struct {
	bindings map[string]Action
}

// New builds a keymap from bindings. Later bindings override earlier ones.
func New(bindings []Binding) (*Keymap, error) {
	km := &Keymap{bindings: make(map[string]Action, len(bindings))}
	for _, b := range bindings {
		combo, err := Parse(b.Combo)
		if err != nil {
			return nil, err
		}
		km.bindings[combo] = b.Action
	}
	return km, nil
}

// Default returns the stock keymap.
func Default() *Keymap {
	km, err := New(Defaults)
	if err != nil {
		panic(err)
	}
	return km
}

// Lookup returns the action bound to combo.
func (k *Keymap) Lookup(combo string) (Action, bool) {
	c, err := Parse(combo)
	if err != nil {
		return "", false
	}
	a, ok := k.bindings[c]
	return a, ok
}

// Bindings lists the bindings sorted by combo.
func (k *Keymap) Bindings() []Binding {
	out := make([]Binding, 0, len(k.bindings))
	for c, a := range k.bindings {
		out = append(out, Binding{Combo: c, Action: a})
	}
	slices.SortFunc(out, func(a, b Binding) int { return strings.Compare(a.Combo, b.Combo) })
	return out
}
