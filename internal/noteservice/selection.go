package noteservice

import "unicode/utf8"

// Selection is the editor selection in rune offsets into the content.
// Start == End is a caret.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Normalize orders the bounds so that Start <= End.
func (s Selection) Normalize() Selection {
	if s.Start > s.End {
		s.Start, s.End = s.End, s.Start
	}
	return s
}

// Clamp normalizes s and limits both bounds to [0, length].
func (s Selection) Clamp(length int) Selection {
	s = s.Normalize()
	s.Start = min(max(s.Start, 0), length)
	s.End = min(max(s.End, 0), length)
	return s
}

// Empty reports whether s is a caret.
func (s Selection) Empty() bool { return s.Start == s.End }

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// selected returns the text covered by sel, which must be clamped.
func selected(content string, sel Selection) string {
	r := []rune(content)
	return string(r[sel.Start:sel.End])
}

// splice replaces the runes covered by sel with text and returns the new
// content with a caret after the inserted text.
func splice(content string, sel Selection, text string) (string, Selection) {
	r := []rune(content)
	sel = sel.Clamp(len(r))
	out := make([]rune, 0, len(r)+len(text))
	out = append(out, r[:sel.Start]...)
	out = append(out, []rune(text)...)
	out = append(out, r[sel.End:]...)
	caret := sel.Start + runeLen(text)
	return string(out), Selection{Start: caret, End: caret}
}
