package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/recstore/internal/config"
	"github.com/roach88/recstore/internal/model"
	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/store"
)

// app is an opened database with an engine per declared collection.
type app struct {
	cfg     config.Config
	store   *store.Store
	engines map[string]*model.Engine

	// names lists the collections in declaration order.
	names []string
}

// loadConfig reads the config file and applies the flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.Schemas != "" {
		cfg.Schemas = opts.Schemas
	}
	return cfg, nil
}

// setupLogging installs a text handler on w at the configured level.
// Verbose forces debug.
func setupLogging(w io.Writer, cfg config.Config, verbose bool) {
	level := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// openApp loads config and schemas, opens the database and creates any
// missing collection tables. Failures are reported through f.
func openApp(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	setupLogging(f.GetErrWriter(), cfg, opts.Verbose)

	slog.Debug("loading schemas", "dir", cfg.Schemas)
	cols, err := schema.LoadDir(cfg.Schemas)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeSchema, err)
	}

	slog.Debug("opening database", "path", cfg.Database.Path, "driver", cfg.Database.Driver)
	st, err := store.Open(cfg.Database.Path,
		store.WithDriver(cfg.Database.Driver),
		store.WithBusyTimeout(time.Duration(cfg.Database.BusyTimeoutMS)*time.Millisecond),
		store.WithJournalMode(cfg.Database.JournalMode),
	)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, err)
	}

	a := &app{cfg: cfg, store: st, engines: make(map[string]*model.Engine, len(cols))}
	for _, c := range cols {
		if err := st.EnsureCollection(ctx, c.Name, c.Schema); err != nil {
			st.Close()
			return nil, f.Fail(ExitCommandError, ErrCodeStore, err)
		}
		e, err := model.NewEngine(st, c.Name, c.Schema)
		if err != nil {
			st.Close()
			return nil, f.Fail(ExitCommandError, ErrCodeStore, err)
		}
		a.engines[c.Name] = e
		a.names = append(a.names, c.Name)
	}
	slog.Debug("collections ready", "count", len(a.names))
	return a, nil
}

// engine returns the engine of a declared collection.
func (a *app) engine(name string, f *OutputFormatter) (*model.Engine, error) {
	e, ok := a.engines[name]
	if !ok {
		err := fmt.Errorf("unknown collection %q (declared: %v)", name, a.names)
		return nil, f.Fail(ExitCommandError, ErrCodeUsage, err)
	}
	return e, nil
}

// public runs project, generating derived values first when the schema has
// any.
func public(ctx context.Context, e *model.Engine, gen func(context.Context) error, project func() (any, error)) (any, error) {
	if len(e.Schema().Derived()) > 0 {
		if err := gen(ctx); err != nil {
			return nil, err
		}
	}
	return project()
}

func (a *app) Close() error {
	return a.store.Close()
}
