package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/litt/internal/app"
	"github.com/Tiliavir/litt/internal/config"
	"github.com/Tiliavir/litt/internal/failure"
	"github.com/Tiliavir/litt/internal/hooks"
	"github.com/Tiliavir/litt/internal/ledger"
	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/storage"
)

type call struct {
	event   hooks.Event
	payload any
}

type recorder struct {
	calls  []call
	failOn hooks.Event
}

func (r *recorder) Dispatch(_ context.Context, event hooks.Event, payload any) error {
	r.calls = append(r.calls, call{event, payload})
	if event == r.failOn {
		return failure.New(failure.HookFailed, "%s hook returned non-zero, aborting", event)
	}
	return nil
}

func (r *recorder) events() []hooks.Event {
	out := make([]hooks.Event, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.event)
	}
	return out
}

func newApp(t *testing.T, rec *recorder) *app.App {
	t.Helper()
	now := time.Unix(1000, 0).UTC()
	paths := config.NewPaths(filepath.Join(t.TempDir(), ".litt"))
	return app.New(paths, rec, nil, ledger.WithClock(func() time.Time { return now }))
}

func TestRunInitializesAndPersists(t *testing.T) {
	rec := &recorder{}
	a := newApp(t, rec)

	err := a.Run(context.Background(), func(s *app.Session) (any, error) {
		assert.Equal(t, config.DefaultOutputFormat, s.Config.OutputFormat)
		return nil, s.Machine.Start(ledger.Input{Description: strPtr("work")})
	})
	require.NoError(t, err)
	assert.Equal(t, []hooks.Event{hooks.PreLoad, hooks.PreCommit, hooks.PostCommit}, rec.events())
	assert.Nil(t, rec.calls[0].payload)

	doc, err := storage.Load(a.Paths.Ledger)
	require.NoError(t, err)
	require.NotNil(t, doc.Stopwatch)
	assert.Equal(t, "work", *doc.Stopwatch.Description)
}

func TestRunPassesImagesToCommitHooks(t *testing.T) {
	rec := &recorder{}
	a := newApp(t, rec)
	require.NoError(t, a.Run(context.Background(), func(s *app.Session) (any, error) {
		return nil, s.Machine.Start(ledger.Input{})
	}))

	rec.calls = nil
	var id string
	require.NoError(t, a.Run(context.Background(), func(s *app.Session) (any, error) {
		c, err := s.Machine.Stop(ledger.Input{})
		id = c.ID
		return c.Images, err
	}))

	require.Len(t, rec.calls, 3)
	images, ok := rec.calls[1].payload.(model.Images[model.Record])
	require.True(t, ok)
	assert.Contains(t, images.NewImage, id)
	assert.Equal(t, rec.calls[1].payload, rec.calls[2].payload)
}

func TestRunDoesNotPersistOnFailure(t *testing.T) {
	tests := []struct {
		name string
		op   app.Op
		kind failure.Kind
	}{
		{
			name: "state conflict",
			op: func(s *app.Session) (any, error) {
				require.NoError(t, s.Machine.Start(ledger.Input{}))
				return nil, s.Machine.Start(ledger.Input{})
			},
			kind: failure.StopwatchAlreadyRunning,
		},
		{
			name: "dry run",
			op: func(s *app.Session) (any, error) {
				require.NoError(t, s.Machine.Start(ledger.Input{}))
				start := "500"
				_, err := s.Machine.Track(ledger.Input{StartTime: &start, DryRun: true})
				return nil, err
			},
			kind: failure.DryRun,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			a := newApp(t, rec)
			err := a.Run(context.Background(), tt.op)
			assert.Equal(t, tt.kind, failure.KindOf(err))
			assert.Equal(t, []hooks.Event{hooks.PreLoad}, rec.events())

			doc, err := storage.Load(a.Paths.Ledger)
			require.NoError(t, err)
			assert.Nil(t, doc.Stopwatch, "nothing may be written")
		})
	}
}

func TestRunPreCommitHookAborts(t *testing.T) {
	rec := &recorder{failOn: hooks.PreCommit}
	a := newApp(t, rec)
	err := a.Run(context.Background(), func(s *app.Session) (any, error) {
		return nil, s.Machine.Start(ledger.Input{})
	})
	assert.Equal(t, 10, failure.ExitCode(err))
	assert.Equal(t, []hooks.Event{hooks.PreLoad, hooks.PreCommit}, rec.events())

	doc, err := storage.Load(a.Paths.Ledger)
	require.NoError(t, err)
	assert.Nil(t, doc.Stopwatch)
}

func TestRunPreLoadHookAborts(t *testing.T) {
	rec := &recorder{failOn: hooks.PreLoad}
	a := newApp(t, rec)
	called := false
	err := a.Run(context.Background(), func(*app.Session) (any, error) {
		called = true
		return nil, nil
	})
	assert.True(t, failure.IsKind(err, failure.HookFailed))
	assert.False(t, called)
}

func TestRunOpError(t *testing.T) {
	a := newApp(t, &recorder{})
	boom := errors.New("boom")
	err := a.Run(context.Background(), func(*app.Session) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestWriteConfig(t *testing.T) {
	rec := &recorder{}
	a := newApp(t, rec)
	require.NoError(t, a.Run(context.Background(), func(s *app.Session) (any, error) {
		return nil, s.WriteConfig(model.Config{OutputFormat: model.FormatYAML})
	}))
	assert.Equal(t, []hooks.Event{hooks.PreLoad, hooks.PreConfigWrite, hooks.PostConfigWrite, hooks.PreCommit, hooks.PostCommit}, rec.events())
	assert.Equal(t, model.Config{OutputFormat: model.FormatYAML}, rec.calls[1].payload)

	cfg, err := config.Load(a.Paths)
	require.NoError(t, err)
	assert.Equal(t, model.FormatYAML, cfg.OutputFormat)
}

func TestWriteConfigRejectsInvalidBeforeHooks(t *testing.T) {
	rec := &recorder{}
	a := newApp(t, rec)
	err := a.Run(context.Background(), func(s *app.Session) (any, error) {
		return nil, s.WriteConfig(model.Config{OutputFormat: "xml"})
	})
	assert.Equal(t, failure.InvalidConfig, failure.KindOf(err))
	assert.Equal(t, []hooks.Event{hooks.PreLoad}, rec.events())
}

func TestOpenDiscoversHooks(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	a, err := app.Open(paths, nil)
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background(), func(*app.Session) (any, error) { return nil, nil }))
	assert.True(t, storage.Initialized(paths))
}

func strPtr(s string) *string { return &s }
