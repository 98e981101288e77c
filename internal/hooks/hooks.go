// Package hooks runs the user's lifecycle executables found below
// <dir>/hooks/<event>/.
//
// Each executable is started with argv [path, event] in the dot-directory,
// receives the event payload as JSON on stdin and must exit zero. Hooks of
// one event run one after another in lexicographic order; the first failure
// aborts the event and the surrounding command.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Tiliavir/litt/internal/failure"
)

// Event names a point in the load/commit cycle.
type Event string

const (
	PreLoad         Event = "pre_load"
	PreCommit       Event = "pre_commit"
	PostCommit      Event = "post_commit"
	PreConfigWrite  Event = "pre_config_write"
	PostConfigWrite Event = "post_config_write"
)

// Events lists every event hooks can register for.
var Events = []Event{PreLoad, PreCommit, PostCommit, PreConfigWrite, PostConfigWrite}

// Dispatcher delivers an event payload to whatever is registered for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event, payload any) error
}

// Set maps each event to its executables, sorted.
type Set map[Event][]string

// Discover scans hooksDir/<event>/ for executable regular files. Missing
// directories simply register nothing.
func Discover(hooksDir string) (Set, error) {
	set := Set{}
	for _, event := range Events {
		dir := filepath.Join(hooksDir, string(event))
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading hook directory %s: %w", dir, err)
		}
		var found []string
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
				found = append(found, path)
			}
		}
		sort.Strings(found)
		if len(found) > 0 {
			set[event] = found
		}
	}
	return set, nil
}

// Error describes a hook that exited unsuccessfully.
type Error struct {
	Hook   string
	Event  Event
	Stdout string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s hook %s failed: %v", e.Event, filepath.Base(e.Hook), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Runner executes discovered hooks as child processes.
type Runner struct {
	hooks   Set
	workDir string
	logger  *slog.Logger
}

// NewRunner returns a Runner for set whose hooks run in workDir.
func NewRunner(set Set, workDir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{hooks: set, workDir: workDir, logger: logger}
}

// Hooks returns the executables registered for event.
func (r *Runner) Hooks(event Event) []string {
	return r.hooks[event]
}

// Dispatch runs every hook of event with payload. A failing hook yields a
// failure.HookFailed error wrapping *Error.
func (r *Runner) Dispatch(ctx context.Context, event Event, payload any) error {
	hooks := r.hooks[event]
	if len(hooks) == 0 {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", event, err)
	}
	for _, hook := range hooks {
		if err := r.run(ctx, hook, event, data); err != nil {
			r.logger.Error("hook failed", "event", event, "hook", hook, "error", err)
			return failure.Wrap(failure.HookFailed, err, "%s hook returned non-zero, aborting", event)
		}
	}
	return nil
}

func (r *Runner) run(ctx context.Context, hook string, event Event, payload []byte) error {
	cmd := exec.CommandContext(ctx, hook, string(event))
	cmd.Dir = r.workDir
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	r.logger.Debug("hook executed", "event", event, "hook", hook, "duration", time.Since(started))
	if err != nil {
		return &Error{Hook: hook, Event: event, Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
	}
	return nil
}
