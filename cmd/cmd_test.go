package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/litt/internal/config"
	"github.com/Tiliavir/litt/internal/harvest"
	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/storage"
)

type cli struct {
	dir            string
	stdout, stderr bytes.Buffer
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	return &cli{dir: filepath.Join(t.TempDir(), ".litt")}
}

// tt runs one invocation against a fresh command tree and returns the exit code.
func (c *cli) tt(args ...string) int {
	c.stdout.Reset()
	c.stderr.Reset()
	return run(newRootCmd(), append([]string{"--dir", c.dir}, args...), &c.stdout, &c.stderr)
}

func (c *cli) ledger(t *testing.T) *model.Ledger {
	t.Helper()
	doc, err := storage.Load(config.NewPaths(c.dir).Ledger)
	require.NoError(t, err)
	return doc
}

func TestTrackAndList(t *testing.T) {
	c := newCLI(t)
	code := c.tt("--output-format", "json-compact", "track", "-s", "100", "-e", "400", "-i", "rec-1", "-t", "x", "review")
	require.Equal(t, 0, code, c.stderr.String())
	assert.Equal(t, "\"rec-1\"\n", c.stdout.String())

	require.Equal(t, 0, c.tt("--output-format", "json", "ls", "rec-1"), c.stderr.String())
	var listed map[string]model.Record
	require.NoError(t, json.Unmarshal(c.stdout.Bytes(), &listed))
	require.Contains(t, listed, "rec-1")
	assert.Equal(t, "review", *listed["rec-1"].Description)
	assert.Equal(t, []string{"x"}, listed["rec-1"].Tags)
}

func TestStateConflictExitCode(t *testing.T) {
	c := newCLI(t)
	assert.Equal(t, 2, c.tt("stop"))
	assert.NotEmpty(t, c.stderr.String())
	assert.Empty(t, c.stdout.String())
}

func TestTrackDryRun(t *testing.T) {
	c := newCLI(t)
	code := c.tt("--output-format", "json", "track", "-s", "100", "-e", "400", "--dryrun")
	assert.Equal(t, 127, code)
	assert.Contains(t, c.stdout.String(), "\"StartTime\"")
	assert.Empty(t, c.stderr.String())
	assert.Empty(t, c.ledger(t).Records)
}

func TestTrackNeedsOneEndpoint(t *testing.T) {
	c := newCLI(t)
	require.Equal(t, 0, c.tt("track", "-s", "100", "-i", "open-end"), c.stderr.String())
	rec := c.ledger(t).Records["open-end"]
	require.NotNil(t, rec.EndTime)
	assert.True(t, rec.EndTime.After(rec.StartTime))

	assert.Equal(t, 6, c.tt("track", "-d", "nothing"))
	assert.Contains(t, newTrackCmd(&rootOptions{}).Long, "the other defaults to now")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"start", "--nope"}},
		{"too many arguments", []string{"start", "a", "b"}},
		{"amend without id", []string{"amend", "-d", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCLI(t)
			assert.Equal(t, 64, c.tt(tt.args...))
		})
	}
}

func TestInvalidFilterExitCode(t *testing.T) {
	c := newCLI(t)
	assert.Equal(t, 12, c.tt("ls", "-f", `{"Owner": ["me"]}`))
}

func TestConfigCommand(t *testing.T) {
	c := newCLI(t)
	require.Equal(t, 0, c.tt("--output-format", "yaml", "config"), c.stderr.String())
	assert.Empty(t, c.stdout.String())

	require.Equal(t, 0, c.tt("config"))
	assert.Equal(t, "OutputFormat: yaml\n", c.stdout.String())

	assert.Equal(t, 13, c.tt("--output-format", "xml", "config"))
}

func TestAliasStartAndStatus(t *testing.T) {
	c := newCLI(t)
	require.Equal(t, 0, c.tt("alias", "-k", "mtg", "-d", "meeting", "-t", "m"), c.stderr.String())
	require.Equal(t, 0, c.tt("start", "mtg"), c.stderr.String())

	require.Equal(t, 0, c.tt("--output-format", "json-compact"))
	assert.Contains(t, c.stdout.String(), `"Description":"meeting"`)
	assert.Equal(t, []string{"m"}, c.ledger(t).Stopwatch.Tags)

	require.Equal(t, 0, c.tt("alias", "-k", "mtg"))
	assert.Empty(t, c.ledger(t).Aliases)
}

func TestListToFile(t *testing.T) {
	c := newCLI(t)
	require.Equal(t, 0, c.tt("track", "-s", "100", "-e", "200", "-t", "a"))
	require.Equal(t, 0, c.tt("track", "-s", "300", "-e", "400", "-t", "b"))

	out := filepath.Join(t.TempDir(), "sheet.csv")
	require.Equal(t, 0, c.tt("ls", "--csv", "-o", out), c.stderr.String())
	assert.Empty(t, c.stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RecordId,"))
	assert.True(t, strings.HasSuffix(lines[0], ",a,b"), lines[0])
}

func TestSyncHarvestWithoutCredentials(t *testing.T) {
	t.Setenv(harvest.EnvToken, "")
	t.Setenv(harvest.EnvAccountID, "")
	c := newCLI(t)
	require.Equal(t, 0, c.tt("alias", "-k", "client", "-t", "HarvestProject:1", "-t", "HarvestTask:2"))
	require.Equal(t, 0, c.tt("track", "-s", "0", "-e", "3600", "client"))

	require.Equal(t, 0, c.tt("sync", "harvest"), c.stderr.String())
	assert.Contains(t, c.stderr.String(), "reporting only")
	assert.Contains(t, c.stderr.String(), "1 synced")
	for _, rec := range c.ledger(t).Records {
		assert.NotContains(t, strings.Join(rec.Tags, ","), harvest.EntryTagPrefix)
	}
}

func TestSyncHarvest(t *testing.T) {
	var posted map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&posted)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 55}`))
	}))
	defer srv.Close()
	t.Setenv(harvest.EnvToken, "tok")
	t.Setenv(harvest.EnvAccountID, "acc")

	c := newCLI(t)
	require.Equal(t, 0, c.tt("alias", "-k", "client", "-t", "HarvestProject:1", "-t", "HarvestTask:2"))
	require.Equal(t, 0, c.tt("track", "-s", "0", "-e", "3600", "-i", "r1", "client"))

	require.Equal(t, 0, c.tt("sync", "harvest", "--base-url", srv.URL), c.stderr.String())
	assert.EqualValues(t, 1, posted["project_id"])
	assert.EqualValues(t, 1, posted["hours"])
	assert.Contains(t, c.ledger(t).Records["r1"].Tags, "HarvestEntryId:55")

	require.Equal(t, 0, c.tt("sync", "harvest", "--base-url", srv.URL))
	assert.Contains(t, c.stderr.String(), "1 already synced")
}
