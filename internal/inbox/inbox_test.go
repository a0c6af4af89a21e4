package inbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/zhishi/internal/models"
)

type imported struct {
	title, content, category string
	tags                     []string
}

type fakeImporter struct {
	mu    sync.Mutex
	notes []imported
	err   error
}

func (f *fakeImporter) ImportMarkdown(_ context.Context, title, content, category string, tags []string) (models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Note{}, f.err
	}
	f.notes = append(f.notes, imported{title, content, category, tags})
	return models.Note{ID: title, Title: title}, nil
}

func (f *fakeImporter) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, n := range f.notes {
		out = append(out, n.title)
	}
	return out
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMatches(t *testing.T) {
	opts := Options{}
	cases := map[string]bool{
		"note.md":             true,
		"deep/dir/note.md":    true,
		"note.txt":            false,
		".imported/note.md":   false,
		"drafts/.hidden/x.md": false,
	}
	for rel, want := range cases {
		if got := opts.Matches(rel); got != want {
			t.Errorf("Matches(%q) = %v, want %v", rel, got, want)
		}
	}

	opts.Patterns = []string{"journal/*.md"}
	if opts.Matches("other/x.md") || !opts.Matches("journal/x.md") {
		t.Error("custom pattern not honoured")
	}
}

func TestValidatePatterns(t *testing.T) {
	if err := ValidatePatterns([]string{"**/*.md", "a/{b,c}.md"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePatterns([]string{"[unclosed"}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestImportFile_ParsesAndArchives(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "ideas", "one.md"), "---\ncategory: work\ntags: [a]\n---\n# First idea\nbody #b\n")
	imp := &fakeImporter{}
	var called string

	n, err := ImportFile(context.Background(), imp, Options{Root: root, Logger: quiet(), OnImport: func(rel string, _ models.Note) { called = rel }},
		filepath.Join("ideas", "one.md"))
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if n.Title != "First idea" {
		t.Errorf("title = %q", n.Title)
	}
	got := imp.notes[0]
	if got.category != "work" || len(got.tags) != 2 || got.content != "# First idea\nbody #b\n" {
		t.Errorf("imported = %+v", got)
	}
	if called != filepath.Join("ideas", "one.md") {
		t.Errorf("callback rel = %q", called)
	}
	if _, err := os.Stat(filepath.Join(root, "ideas", "one.md")); !os.IsNotExist(err) {
		t.Error("source file should be moved")
	}
	if _, err := os.Stat(filepath.Join(root, ImportedDir, "ideas", "one.md")); err != nil {
		t.Errorf("archived file missing: %v", err)
	}
}

func TestImportFile_FailureKeepsFile(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "x.md"), "# X")
	imp := &fakeImporter{err: errors.New("disk full")}

	if _, err := ImportFile(context.Background(), imp, Options{Root: root, Logger: quiet()}, "x.md"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(filepath.Join(root, "x.md")); err != nil {
		t.Error("file should stay in the inbox after a failed import")
	}
}

func TestArchive_AvoidsOverwrite(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, ImportedDir, "dup.md"), "old")
	write(t, filepath.Join(root, "dup.md"), "new")

	if err := archive(root, "dup.md"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, ImportedDir, "dup-1.md"))
	if err != nil || string(data) != "new" {
		t.Errorf("dup-1.md = %q, %v", data, err)
	}
}

func TestSweep(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.md"), "# A")
	write(t, filepath.Join(root, "sub", "b.md"), "# B")
	write(t, filepath.Join(root, "skip.txt"), "nope")
	write(t, filepath.Join(root, ImportedDir, "old.md"), "# Old")
	imp := &fakeImporter{}

	n, err := Sweep(context.Background(), imp, Options{Root: root, Logger: quiet()})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d, want 2 (titles %v)", n, imp.titles())
	}
}

func TestWatch_ImportsNewFiles(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "existing.md"), "# Existing")
	imp := &fakeImporter{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, imp, Options{Root: root, Logger: quiet(), Debounce: 50 * time.Millisecond})

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return len(imp.titles()) == 1
	}, "existing file not imported on start")

	write(t, filepath.Join(root, "fresh.md"), "# Fresh")
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return len(imp.titles()) == 2
	}, "new file not imported by watcher")

	_ = os.MkdirAll(filepath.Join(root, "later"), 0o755)
	time.Sleep(100 * time.Millisecond)
	write(t, filepath.Join(root, "later", "deep.md"), "# Deep")
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return len(imp.titles()) == 3
	}, "file in new subdir not imported")
}
