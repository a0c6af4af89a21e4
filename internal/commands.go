package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/zhishi/internal/export"
)

// Export formats accepted by ExportNote.
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// cliLogger logs to stderr so that command output stays clean.
func (app *application) cliLogger() *slog.Logger {
	if app.logger != nil {
		return app.logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: app.config.App.LogLevel}))
}

func withCore(ctx context.Context, opts []Option, fn func(*application, *core) error) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := openCore(ctx, app.config, app.cliLogger())
	if err != nil {
		return err
	}
	defer c.close(ctx)
	return fn(app, c)
}

// ExportNote writes note id as Markdown or standalone HTML to the output.
// An empty theme uses the one from the settings.
func ExportNote(ctx context.Context, id, format, theme string, opts ...Option) error {
	return withCore(ctx, opts, func(app *application, c *core) error {
		switch format {
		case FormatMarkdown, "":
			_, content, err := c.svc.ExportMarkdown(id)
			if err != nil {
				return err
			}
			_, err = app.out.Write(content)
			return err
		case FormatHTML:
			n, err := c.svc.Note(id)
			if err != nil {
				return err
			}
			if theme == "" {
				theme = c.svc.Settings().MarkdownTheme
			}
			page, err := export.HTML(n, export.ParseTheme(theme))
			if err != nil {
				return err
			}
			_, err = app.out.Write(page)
			return err
		}
		return fmt.Errorf("unknown format %q (want md or html)", format)
	})
}

// ShowNote renders note id for the terminal.
func ShowNote(ctx context.Context, id string, width int, noColor bool, opts ...Option) error {
	return withCore(ctx, opts, func(app *application, c *core) error {
		n, err := c.svc.Note(id)
		if err != nil {
			return err
		}
		out, err := export.Terminal(n, export.ParseTheme(c.svc.Settings().MarkdownTheme),
			export.TerminalOptions{Width: width, NoColor: noColor})
		if err != nil {
			return err
		}
		_, err = io.WriteString(app.out, out)
		return err
	})
}

// ListNotes prints one "id<TAB>title" line per note, newest first.
func ListNotes(ctx context.Context, opts ...Option) error {
	return withCore(ctx, opts, func(app *application, c *core) error {
		for _, n := range c.svc.Notes() {
			if _, err := fmt.Fprintf(app.out, "%s\t%s\n", n.ID, n.Title); err != nil {
				return err
			}
		}
		return nil
	})
}

// Backup writes a backup document to path, or to the output when path is
// empty, and returns the suggested file name.
func Backup(ctx context.Context, path string, opts ...Option) (string, error) {
	var name string
	err := withCore(ctx, opts, func(app *application, c *core) error {
		var (
			data []byte
			err  error
		)
		name, data, err = c.svc.ExportBackup()
		if err != nil {
			return err
		}
		if path == "" {
			_, err = app.out.Write(data)
			return err
		}
		return os.WriteFile(path, data, 0o600)
	})
	return name, err
}

// Restore replaces every note with the content of the backup at path.
func Restore(ctx context.Context, path string, opts ...Option) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var count int
	err = withCore(ctx, opts, func(_ *application, c *core) error {
		count, err = c.svc.ImportBackup(ctx, data)
		return err
	})
	return count, err
}
