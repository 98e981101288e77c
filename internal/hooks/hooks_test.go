package hooks_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/litt/internal/failure"
	"github.com/Tiliavir/litt/internal/hooks"
)

func writeHook(t *testing.T, hooksDir string, event hooks.Event, name, script string, mode os.FileMode) string {
	t.Helper()
	dir := filepath.Join(hooksDir, string(event))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), mode))
	return path
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("hook scripts need a POSIX shell")
	}
}

func TestDiscover(t *testing.T) {
	skipWithoutShell(t)
	root := t.TempDir()
	hooksDir := filepath.Join(root, "hooks")
	b := writeHook(t, hooksDir, hooks.PreCommit, "b-second", "exit 0", 0o755)
	a := writeHook(t, hooksDir, hooks.PreCommit, "a-first", "exit 0", 0o755)
	writeHook(t, hooksDir, hooks.PreCommit, "not-executable", "exit 0", 0o644)
	require.NoError(t, os.MkdirAll(filepath.Join(hooksDir, string(hooks.PreCommit), "subdir"), 0o755))

	set, err := hooks.Discover(hooksDir)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, set[hooks.PreCommit])
	assert.Empty(t, set[hooks.PostCommit])
}

func TestDiscoverMissingDirectory(t *testing.T) {
	set, err := hooks.Discover(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestDispatchPassesEventPayloadAndWorkDir(t *testing.T) {
	skipWithoutShell(t)
	root := t.TempDir()
	hooksDir := filepath.Join(root, "hooks")
	writeHook(t, hooksDir, hooks.PostCommit, "record", `echo "$1" > event.out; cat > payload.out; pwd > cwd.out`, 0o755)

	set, err := hooks.Discover(hooksDir)
	require.NoError(t, err)
	r := hooks.NewRunner(set, root, nil)

	require.NoError(t, r.Dispatch(context.Background(), hooks.PostCommit, map[string]int{"b": 2, "a": 1}))

	event, err := os.ReadFile(filepath.Join(root, "event.out"))
	require.NoError(t, err)
	assert.Equal(t, "post_commit\n", string(event))

	payload, err := os.ReadFile(filepath.Join(root, "payload.out"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":2}`, string(payload))

	cwd, err := os.ReadFile(filepath.Join(root, "cwd.out"))
	require.NoError(t, err)
	wantDir, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(string(cwd[:len(cwd)-1]))
	require.NoError(t, err)
	assert.Equal(t, wantDir, gotDir)
}

func TestDispatchRunsInOrderAndStopsAtFailure(t *testing.T) {
	skipWithoutShell(t)
	root := t.TempDir()
	hooksDir := filepath.Join(root, "hooks")
	writeHook(t, hooksDir, hooks.PreCommit, "10-ok", `echo first >> trace.out`, 0o755)
	writeHook(t, hooksDir, hooks.PreCommit, "20-fail", `echo second >> trace.out; echo "no way" >&2; exit 3`, 0o755)
	writeHook(t, hooksDir, hooks.PreCommit, "30-never", `echo third >> trace.out`, 0o755)

	set, err := hooks.Discover(hooksDir)
	require.NoError(t, err)
	err = hooks.NewRunner(set, root, nil).Dispatch(context.Background(), hooks.PreCommit, nil)
	require.Error(t, err)
	assert.Equal(t, failure.HookFailed, failure.KindOf(err))
	assert.Equal(t, 10, failure.ExitCode(err))

	var hookErr *hooks.Error
	require.True(t, errors.As(err, &hookErr))
	assert.Equal(t, hooks.PreCommit, hookErr.Event)
	assert.Equal(t, "no way\n", hookErr.Stderr)

	trace, err := os.ReadFile(filepath.Join(root, "trace.out"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(trace))
}

func TestDispatchWithoutHooks(t *testing.T) {
	r := hooks.NewRunner(hooks.Set{}, t.TempDir(), nil)
	assert.NoError(t, r.Dispatch(context.Background(), hooks.PreLoad, nil))
	assert.Empty(t, r.Hooks(hooks.PreLoad))
}
