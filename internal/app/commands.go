package app

import (
	"bytes"
	"context"
	"io"

	"github.com/Tiliavir/litt/internal/config"
	"github.com/Tiliavir/litt/internal/failure"
	"github.com/Tiliavir/litt/internal/ledger"
	"github.com/Tiliavir/litt/internal/query"
	"github.com/Tiliavir/litt/internal/render"
)

// Output selects where command results go and in which format. An empty
// Format means the configured one.
type Output struct {
	W      io.Writer
	Format string
}

// ListRequest is the input of List.
type ListRequest struct {
	query.Options
	CSV bool
}

type printer func(s *Session, r render.Renderer, w io.Writer) (any, error)

// run wraps Run and holds back output until the cycle finished; a dry run
// still prints what it would have committed.
func (a *App) run(ctx context.Context, out Output, op printer) error {
	var buf bytes.Buffer
	err := a.Run(ctx, func(s *Session) (any, error) {
		format := out.Format
		if format == "" {
			format = s.Config.OutputFormat
		}
		if err := config.ValidateFormat(format); err != nil {
			return nil, err
		}
		return op(s, render.Renderer{Format: format, Now: a.Now}, &buf)
	})
	if err != nil && !failure.IsKind(err, failure.DryRun) {
		return err
	}
	if out.W != nil {
		if _, werr := out.W.Write(buf.Bytes()); werr != nil && err == nil {
			return werr
		}
	}
	return err
}

// Status prints the running stopwatch and the open interruption, if any.
func (a *App) Status(ctx context.Context, out Output) error {
	return a.run(ctx, out, func(s *Session, r render.Renderer, w io.Writer) (any, error) {
		doc := s.Ledger()
		if doc.Stopwatch == nil {
			return nil, nil
		}
		if err := r.Record(w, *doc.Stopwatch); err != nil {
			return nil, err
		}
		if doc.Interruption != nil {
			if err := r.Record(w, *doc.Interruption); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

// Start opens the stopwatch.
func (a *App) Start(ctx context.Context, in ledger.Input, out Output) error {
	return a.run(ctx, out, func(s *Session, _ render.Renderer, _ io.Writer) (any, error) {
		return nil, s.Machine.Start(in)
	})
}

// Stop closes the stopwatch and prints the new record ID.
func (a *App) Stop(ctx context.Context, in ledger.Input, out Output) error {
	return a.run(ctx, out, func(s *Session, r render.Renderer, w io.Writer) (any, error) {
		c, err := s.Machine.Stop(in)
		if err != nil {
			return nil, err
		}
		return c.Images, r.ID(w, c.ID)
	})
}

// Toggle starts or stops the stopwatch.
func (a *App) Toggle(ctx context.Context, in ledger.Input, out Output) error {
	return a.run(ctx, out, func(s *Session, r render.Renderer, w io.Writer) (any, error) {
		c, err := s.Machine.Toggle(in)
		if err != nil || c == nil {
			return nil, err
		}
		return c.Images, r.ID(w, c.ID)
	})
}

// Interrupt opens an interruption, or the stopwatch when idle.
func (a *App) Interrupt(ctx context.Context, in ledger.Input, out Output) error {
	return a.run(ctx, out, func(s *Session, _ render.Renderer, _ io.Writer) (any, error) {
		return nil, s.Machine.Interrupt(in)
	})
}

// Resume closes the open interruption and prints its record ID.
func (a *App) Resume(ctx context.Context, in ledger.Input, out Output) error {
	return a.run(ctx, out, func(s *Session, r render.Renderer, w io.Writer) (any, error) {
		c, err := s.Machine.Resume(in)
		if err != nil {
			return nil, err
		}
		return c.Images, r.ID(w, c.ID)
	})
}

// Cancel discards the open interruption or stopwatch.
func (a *App) Cancel(ctx context.Context, out Output) error {
	return a.run(ctx, out, func(s *Session, _ render.Renderer, _ io.Writer) (any, error) {
		if discarded := s.Machine.Cancel(); discarded != nil {
			a.Logger.Info("discarded open record", "start", discarded.StartTime)
		}
		return nil, nil
	})
}

// Track records a fixed interval. A dry run prints the record instead of
// its ID and returns failure.DryRun.
func (a *App) Track(ctx context.Context, in ledger.Input, out Output) error {
	return a.run(ctx, out, func(s *Session, r render.Renderer, w io.Writer) (any, error) {
		return commitOrPreview(r, w)(s.Machine.Track(in))
	})
}

// Amend edits a committed record, with the same dry run behaviour as Track.
func (a *App) Amend(ctx context.Context, in ledger.Input, out Output) error {
	return a.run(ctx, out, func(s *Session, r render.Renderer, w io.Writer) (any, error) {
		return commitOrPreview(r, w)(s.Machine.Amend(in))
	})
}

func commitOrPreview(r render.Renderer, w io.Writer) func(ledger.Commit, error) (any, error) {
	return func(c ledger.Commit, err error) (any, error) {
		if failure.IsKind(err, failure.DryRun) {
			if perr := r.Record(w, c.Record); perr != nil {
				return nil, perr
			}
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		return c.Images, r.ID(w, c.ID)
	}
}

// Alias lists the aliases when key is empty, otherwise stores or, given no
// fields, deletes the alias key.
func (a *App) Alias(ctx context.Context, key string, in ledger.AliasInput, out Output) error {
	return a.run(ctx, out, func(s *Session, r render.Renderer, w io.Writer) (any, error) {
		if key == "" {
			return nil, r.Aliases(w, s.Ledger().Aliases)
		}
		return s.Machine.SetAlias(key, in), nil
	})
}

// List prints the selected records, as CSV when req.CSV is set.
func (a *App) List(ctx context.Context, req ListRequest, out Output) error {
	return a.run(ctx, out, func(s *Session, r render.Renderer, w io.Writer) (any, error) {
		doc := s.Ledger()
		entries, err := query.List(doc, req.Options, s.Machine.TimeParser())
		if err != nil {
			return nil, err
		}
		if req.CSV {
			return nil, query.WriteCSV(w, entries, doc.Records, query.ExportOptions{
				WithStructuredData: req.WithStructuredData,
				WithoutDetail:      req.WithoutDetail,
			})
		}
		return nil, r.Records(w, entries)
	})
}

// Configure prints the configuration, or rewrites it when format is set.
func (a *App) Configure(ctx context.Context, format *string, out Output) error {
	return a.run(ctx, out, func(s *Session, r render.Renderer, w io.Writer) (any, error) {
		if format == nil {
			return nil, r.Config(w, s.Config)
		}
		cfg := s.Config
		cfg.OutputFormat = *format
		return nil, s.WriteConfig(cfg)
	})
}
