// Package inbox imports Markdown files dropped into a watched directory as
// new notes. Imported files are moved to .imported/ so they are picked up
// only once.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/starford/zhishi/internal/models"
	"github.com/starford/zhishi/internal/parser"
)

// ImportedDir is the directory, relative to the inbox root, that receives
// imported files.
const ImportedDir = ".imported"

// DefaultPatterns matches every Markdown file below the root.
var DefaultPatterns = []string{"**/*.md"}

// Importer stores an imported note.
type Importer interface {
	ImportMarkdown(ctx context.Context, title, content, category string, tags []string) (models.Note, error)
}

// Callback is called after a file was imported.
type Callback func(rel string, n models.Note)

// Options configure Watch and Sweep.
type Options struct {
	Root     string
	Patterns []string      // doublestar patterns over slash-separated relative paths
	Debounce time.Duration // quiet period before a changed file is imported
	Logger   *slog.Logger
	OnImport Callback
}

func (o Options) withDefaults() Options {
	if len(o.Patterns) == 0 {
		o.Patterns = DefaultPatterns
	}
	if o.Debounce <= 0 {
		o.Debounce = 200 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ValidatePatterns reports the first malformed pattern.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("inbox: bad pattern %q", p)
		}
	}
	return nil
}

// Matches reports whether rel (relative to the root) should be imported.
func (o Options) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	if skipped(rel) {
		return false
	}
	for _, p := range o.withDefaults().Patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// skipped reports paths under .imported/ or any other dot directory.
func skipped(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// Watch imports matching files already present under the root, then keeps
// importing files as they are created or written until ctx is cancelled.
// Writes to the same file are coalesced over the debounce period.
func Watch(ctx context.Context, imp Importer, opts Options) error {
	opts = opts.withDefaults()
	logger := opts.Logger
	if err := os.MkdirAll(opts.Root, 0o755); err != nil {
		return fmt.Errorf("inbox: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, opts.Root); err != nil {
		return err
	}
	if _, err := Sweep(ctx, imp, opts); err != nil {
		logger.Warn("inbox: initial sweep failed", slog.String("error", err.Error()))
	}
	logger.Info("inbox: started", slog.String("root", opts.Root))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func(rel string) {
		pending[rel] = struct{}{}
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			timerCh = timer.C
		} else {
			timer.Reset(opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("inbox: stopped")
			return nil

		case <-timerCh:
			for rel := range pending {
				if _, err := ImportFile(ctx, imp, opts, rel); err != nil && !errors.Is(err, fs.ErrNotExist) {
					logger.Warn("inbox: import failed", slog.String("path", rel), slog.String("error", err.Error()))
				}
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			rel, relErr := filepath.Rel(opts.Root, ev.Name)
			if relErr != nil || skipped(filepath.ToSlash(rel)) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("inbox: add new dir failed", slog.String("path", ev.Name), slog.String("error", addErr.Error()))
					}
					// Files may have landed before the watch was added.
					_ = filepath.WalkDir(ev.Name, func(p string, d fs.DirEntry, err error) error {
						if err != nil || d.IsDir() {
							return nil
						}
						if r, err := filepath.Rel(opts.Root, p); err == nil && opts.Matches(r) {
							schedule(r)
						}
						return nil
					})
					continue
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && opts.Matches(rel) {
				schedule(rel)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// Sweep imports every matching file currently under the root.
func Sweep(ctx context.Context, imp Importer, opts Options) (int, error) {
	opts = opts.withDefaults()
	var rels []string
	err := filepath.WalkDir(opts.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(opts.Root, p)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			if rel != "." && skipped(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if opts.Matches(rel) {
			rels = append(rels, rel)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("inbox: sweep: %w", err)
	}

	imported := 0
	for _, rel := range rels {
		if _, err := ImportFile(ctx, imp, opts, rel); err != nil {
			opts.Logger.Warn("inbox: import failed", slog.String("path", rel), slog.String("error", err.Error()))
			continue
		}
		imported++
	}
	return imported, nil
}

// ImportFile parses root/rel, stores it through imp and moves the file to
// .imported/. The file stays in place when storing fails.
func ImportFile(ctx context.Context, imp Importer, opts Options, rel string) (models.Note, error) {
	opts = opts.withDefaults()
	src := filepath.Join(opts.Root, rel)
	data, err := os.ReadFile(src)
	if err != nil {
		return models.Note{}, err
	}
	res, err := parser.Parse(data, rel)
	if err != nil {
		return models.Note{}, fmt.Errorf("inbox: parse %s: %w", rel, err)
	}
	n, err := imp.ImportMarkdown(ctx, res.Title, res.Body, res.Category, res.Tags)
	if err != nil {
		return models.Note{}, fmt.Errorf("inbox: import %s: %w", rel, err)
	}
	if err := archive(opts.Root, rel); err != nil {
		opts.Logger.Warn("inbox: archive failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
	opts.Logger.Info("inbox: imported", slog.String("path", rel), slog.String("note_id", n.ID))
	if opts.OnImport != nil {
		opts.OnImport(rel, n)
	}
	return n, nil
}

// archive moves root/rel to root/.imported/rel, adding a numeric suffix
// when the target already exists.
func archive(root, rel string) error {
	dst := filepath.Join(root, ImportedDir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	ext := filepath.Ext(dst)
	stem := strings.TrimSuffix(dst, ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(dst); errors.Is(err, fs.ErrNotExist) {
			break
		}
		dst = stem + "-" + strconv.Itoa(i) + ext
	}
	return os.Rename(filepath.Join(root, rel), dst)
}

// addDirsRecursive adds root and all its subdirectories except dot
// directories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
