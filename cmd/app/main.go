package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/zhishi/internal"
	pkgconfig "github.com/starford/zhishi/pkg/config"
)

var version = "dev"

func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func noteID(cmd *cli.Command) (string, error) {
	if cmd.NArg() != 1 {
		return "", errors.New("expected exactly one note id")
	}
	return cmd.Args().First(), nil
}

func main() {
	cmd := &cli.Command{
		Name:    "zhishi",
		Usage:   "Personal Markdown notes with history, autosave and AI assistance",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:  "list",
				Usage: "List notes, newest first",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := options(cmd)
					if err != nil {
						return err
					}
					return internal.ListNotes(ctx, opts...)
				},
			},
			{
				Name:      "export",
				Usage:     "Write a note as Markdown or HTML to stdout",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: internal.FormatMarkdown, Usage: "md or html"},
					&cli.StringFlag{Name: "theme", Usage: "HTML theme (defaults to the settings)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := noteID(cmd)
					if err != nil {
						return err
					}
					opts, err := options(cmd)
					if err != nil {
						return err
					}
					return internal.ExportNote(ctx, id, cmd.String("format"), cmd.String("theme"), opts...)
				},
			},
			{
				Name:      "show",
				Usage:     "Render a note in the terminal",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Value: 80, Usage: "wrap width"},
					&cli.BoolFlag{Name: "no-color", Usage: "disable ANSI colors"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := noteID(cmd)
					if err != nil {
						return err
					}
					opts, err := options(cmd)
					if err != nil {
						return err
					}
					return internal.ShowNote(ctx, id, int(cmd.Int("width")), cmd.Bool("no-color"), opts...)
				},
			},
			{
				Name:  "backup",
				Usage: "Write a backup of every note",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (stdout when empty)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := options(cmd)
					if err != nil {
						return err
					}
					name, err := internal.Backup(ctx, cmd.String("out"), opts...)
					if err != nil {
						return err
					}
					if cmd.String("out") != "" {
						slog.Info("backup written", slog.String("path", cmd.String("out")), slog.String("suggested_name", name))
					}
					return nil
				},
			},
			{
				Name:      "restore",
				Usage:     "Replace all notes with a backup",
				ArgsUsage: "<file>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return errors.New("expected a backup file")
					}
					opts, err := options(cmd)
					if err != nil {
						return err
					}
					n, err := internal.Restore(ctx, cmd.Args().First(), opts...)
					if err != nil {
						return err
					}
					fmt.Fprintf(os.Stderr, "restored %d notes\n", n)
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
