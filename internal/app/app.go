// Package app runs one command against the ledger: dispatch pre_load, load
// the documents, apply the operation, then dispatch pre_commit, rewrite the
// ledger and dispatch post_commit. The CLI and the HTTP server both go
// through App.Run.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tiliavir/litt/internal/config"
	"github.com/Tiliavir/litt/internal/hooks"
	"github.com/Tiliavir/litt/internal/ledger"
	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/storage"
)

// App ties the dot-directory, the hook dispatcher and the state machine
// options together.
type App struct {
	Paths  config.Paths
	Hooks  hooks.Dispatcher
	Logger *slog.Logger
	// Now is the clock used for elapsed times in human output.
	Now func() time.Time

	machineOpts []ledger.Option
}

// Open discovers the hooks below paths.Hooks and returns an App.
func Open(paths config.Paths, logger *slog.Logger, opts ...ledger.Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	set, err := hooks.Discover(paths.Hooks)
	if err != nil {
		return nil, err
	}
	return New(paths, hooks.NewRunner(set, paths.Dir, logger), logger, opts...), nil
}

// New returns an App using dispatcher for lifecycle events.
func New(paths config.Paths, dispatcher hooks.Dispatcher, logger *slog.Logger, opts ...ledger.Option) *App {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]ledger.Option{ledger.WithLogger(logger)}, opts...)
	return &App{Paths: paths, Hooks: dispatcher, Logger: logger, Now: time.Now, machineOpts: opts}
}

// Session is the state an operation works on.
type Session struct {
	ctx     context.Context
	app     *App
	Config  model.Config
	Machine *ledger.Machine
}

// Ledger is the loaded document.
func (s *Session) Ledger() *model.Ledger {
	return s.Machine.Ledger()
}

// WriteConfig persists cfg between the pre_config_write and
// post_config_write hooks.
func (s *Session) WriteConfig(cfg model.Config) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := s.app.Hooks.Dispatch(s.ctx, hooks.PreConfigWrite, cfg); err != nil {
		return err
	}
	if err := config.Save(s.app.Paths, cfg); err != nil {
		return err
	}
	s.Config = cfg
	return s.app.Hooks.Dispatch(s.ctx, hooks.PostConfigWrite, cfg)
}

// Op applies one operation. The returned images, possibly nil, are handed to
// the commit hooks.
type Op func(s *Session) (images any, err error)

// Run executes op inside a full cycle. When op fails nothing is written and
// the error is returned unchanged, so dry runs surface as failure.DryRun.
func (a *App) Run(ctx context.Context, op Op) error {
	if !storage.Initialized(a.Paths) {
		a.Logger.Debug("initializing dot-directory", "dir", a.Paths.Dir)
		if err := storage.Init(a.Paths); err != nil {
			return fmt.Errorf("initializing %s: %w", a.Paths.Dir, err)
		}
	}

	if err := a.Hooks.Dispatch(ctx, hooks.PreLoad, nil); err != nil {
		return err
	}
	cfg, err := config.Load(a.Paths)
	if err != nil {
		return err
	}
	doc, err := storage.Load(a.Paths.Ledger)
	if err != nil {
		return err
	}

	s := &Session{ctx: ctx, app: a, Config: cfg, Machine: ledger.New(doc, a.machineOpts...)}
	images, err := op(s)
	if err != nil {
		return err
	}

	if err := a.Hooks.Dispatch(ctx, hooks.PreCommit, images); err != nil {
		return err
	}
	if err := storage.Save(a.Paths.Ledger, doc); err != nil {
		return err
	}
	return a.Hooks.Dispatch(ctx, hooks.PostCommit, images)
}
