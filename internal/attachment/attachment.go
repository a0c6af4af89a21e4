// Package attachment resolves attachment references inside note content
// and turns raw image bytes into compact data URIs.
package attachment

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scheme is the pseudo URL scheme used by attachment references.
const Scheme = "attachment:"

var refRe = regexp.MustCompile(`!\[([^\]]*)\]\(attachment:([^)]+)\)`)

// Ref is one attachment reference found in content.
type Ref struct {
	Alt string
	ID  string
}

// Refs returns every attachment reference in content, in order.
func Refs(content string) []Ref {
	matches := refRe.FindAllStringSubmatch(content, -1)
	out := make([]Ref, 0, len(matches))
	for _, m := range matches {
		out = append(out, Ref{Alt: m[1], ID: m[2]})
	}
	return out
}

// Resolve replaces every ![alt](attachment:<id>) whose id is present in
// attachments with ![alt](<data URI>). Unknown ids are left untouched.
func Resolve(content string, attachments map[string]string) string {
	if len(attachments) == 0 || !strings.Contains(content, Scheme) {
		return content
	}
	return refRe.ReplaceAllStringFunc(content, func(match string) string {
		m := refRe.FindStringSubmatch(match)
		uri, ok := attachments[m[2]]
		if !ok {
			return match
		}
		return "![" + m[1] + "](" + uri + ")"
	})
}

// NewID returns a fresh attachment id of the form att-<base36 ms>-<random>.
func NewID() string {
	return newID(time.Now())
}

func newID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "att-" + strconv.FormatInt(t.UnixMilli(), 36) + "-" + suffix
}

// Reference builds the Markdown image reference for id.
func Reference(alt, id string) string {
	return fmt.Sprintf("![%s](%s%s)", alt, Scheme, id)
}

// AltText picks the alt text for an inserted image: the trimmed selection,
// else the filename without extension, else "image".
func AltText(selected, filename string) string {
	if s := strings.TrimSpace(selected); s != "" {
		return s
	}
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return "image"
}
