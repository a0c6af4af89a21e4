package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/zhishi/internal/ai"
	"github.com/starford/zhishi/internal/index"
	"github.com/starford/zhishi/internal/models"
	"github.com/starford/zhishi/internal/noteservice"
	"github.com/starford/zhishi/internal/storage"
)

// core is the loaded note service with the resources it owns.
type core struct {
	svc *noteservice.Service
	gw  storage.Gateway
	idx *index.DB
	log *slog.Logger
}

// openCore opens storage and the index and loads the note service.
func openCore(ctx context.Context, cfg *Config, logger *slog.Logger, extra ...noteservice.Option) (*core, error) {
	gw, err := storage.Open(cfg.Storage.Options(), logger)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	c := &core{gw: gw, log: logger}

	opts := []noteservice.Option{
		noteservice.WithLogger(logger),
		noteservice.WithConfig(cfg.ServiceConfig()),
	}
	if cfg.Index.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Index.Path), 0o755); err != nil {
			gw.Close()
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		db, err := index.Open(cfg.Index.Path)
		if err != nil {
			gw.Close()
			return nil, fmt.Errorf("init index: %w", err)
		}
		c.idx = db
		opts = append(opts, noteservice.WithIndex(db))
	}
	if cfg.AI.Enabled {
		// The client reads credentials from the live settings on every call.
		opts = append(opts, noteservice.WithAI(ai.NewOpenAI(func() models.Settings {
			return c.svc.Settings()
		}, cfg.AI.Timeout)))
	}

	c.svc = noteservice.New(gw, append(opts, extra...)...)
	if err := c.svc.Load(ctx); err != nil {
		c.close(ctx)
		return nil, err
	}
	return c, nil
}

// close flushes unsaved edits and releases storage and the index.
func (c *core) close(ctx context.Context) error {
	var errs []error
	if c.svc != nil {
		errs = append(errs, c.svc.Close(ctx))
	}
	if c.idx != nil {
		errs = append(errs, c.idx.Close())
	}
	errs = append(errs, c.gw.Close())
	if err := errors.Join(errs...); err != nil {
		c.log.Warn("shutdown incomplete", slog.String("error", err.Error()))
		return err
	}
	return nil
}
