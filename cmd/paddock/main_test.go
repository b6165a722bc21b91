package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paddock/internal/resolver"
	"paddock/internal/review"
	"paddock/internal/store"
	"paddock/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	configPath := filepath.Join(base, "paddock.toml")
	testsupport.WriteFile(t, configPath, fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[logging]
level = "error"

[review]
actor = "tester"
`, filepath.Join(base, "data"), filepath.Join(base, "logs")))

	return &cliTestEnv{baseDir: base, configPath: configPath}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const driverRecords = `[
  {"type": "driver", "raw_key": "max", "name": "Max Verstappen",
   "driver": {"number": 1, "abbreviation": "VER", "nationality": "Dutch"}},
  {"type": "driver", "raw_key": "jos", "name": "Jos Verstappen", "driver": {"number": 1}}
]`

func (e *cliTestEnv) resolveDrivers(t *testing.T) {
	t.Helper()
	path := filepath.Join(e.baseDir, "drivers.json")
	testsupport.WriteFile(t, path, driverRecords)
	out, err := e.run(t, "resolve", path, "--source", "feed")
	require.NoError(t, err)
	require.Contains(t, out, "finished in")
}

func (e *cliTestEnv) pendingIDs(t *testing.T) []string {
	t.Helper()
	out, err := e.run(t, "review", "list", "--json")
	require.NoError(t, err)
	var items []store.PendingMatch
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	ids := make([]string, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestResolveJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "drivers.jsonl")
	testsupport.WriteFile(t, path, strings.ReplaceAll(strings.Trim(driverRecords, "[]\n "), "},\n  {", "}\n{"))

	out, err := env.run(t, "resolve", path, "--json")
	require.NoError(t, err)

	var result resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Decisions, 2)
	assert.Equal(t, resolver.OutcomeCreated, result.Decisions[0].Outcome)
	assert.Equal(t, resolver.OutcomeQueued, result.Decisions[1].Outcome)
	assert.Equal(t, "drivers", result.Decisions[0].Record.Source)
	totals := result.Summary.Totals()
	assert.Equal(t, 1, totals.Created)
	assert.Equal(t, 1, totals.Queued)
}

func TestReviewApproveTwice(t *testing.T) {
	env := setupCLITestEnv(t)
	env.resolveDrivers(t)

	ids := env.pendingIDs(t)
	require.Len(t, ids, 1)

	out, err := env.run(t, "review", "show", ids[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Jos Verstappen")
	assert.Contains(t, out, "last_name")

	out, err = env.run(t, "review", "approve", ids[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Approved "+ids[0])

	_, err = env.run(t, "review", "approve", ids[0])
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrAlreadyResolved))
	assert.Contains(t, err.Error(), "already resolved (approved)")
	assert.Equal(t, exitFailure, exitCode(err))

	_, err = env.run(t, "review", "list")
	assert.Equal(t, exitNoMatches, exitCode(err))

	out, err = env.run(t, "review", "list", "--status", "approved", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"decided_by": "tester"`)
}

func TestReviewRejectAndEntityCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.resolveDrivers(t)
	ids := env.pendingIDs(t)
	require.Len(t, ids, 1)

	out, err := env.run(t, "review", "reject", ids[0], "--actor", "steward")
	require.NoError(t, err)
	assert.Contains(t, out, `created driver "Jos Verstappen"`)

	out, err = env.run(t, "entity", "list", "--type", "driver")
	require.NoError(t, err)
	assert.Contains(t, out, "Max Verstappen")
	assert.Contains(t, out, "Jos Verstappen")

	out, err = env.run(t, "entity", "stats", "--json")
	require.NoError(t, err)
	var stats store.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.Entities["driver"])

	_, err = env.run(t, "entity", "promote-alias", "zero")
	assert.Error(t, err)
	_, err = env.run(t, "entity", "show", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBulkApproveAndExportExitCodes(t *testing.T) {
	env := setupCLITestEnv(t)
	env.resolveDrivers(t)

	_, err := env.run(t, "review", "bulk-approve-above", "abc")
	assert.Equal(t, exitFailure, exitCode(err))

	_, err = env.run(t, "review", "bulk-approve-above", "0.99")
	assert.ErrorIs(t, err, review.ErrNoMatches)
	assert.Equal(t, exitNoMatches, exitCode(err))

	exportPath := filepath.Join(env.baseDir, "out", "pending.csv")
	out, err := env.run(t, "review", "export", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 pending matches")
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,entity_type,source"))

	_, err = env.run(t, "review", "export", filepath.Join(env.baseDir, "none.json"), "--min-score", "0.99")
	assert.Equal(t, exitNoMatches, exitCode(err))
	_, statErr := os.Stat(filepath.Join(env.baseDir, "none.json"))
	assert.True(t, os.IsNotExist(statErr))

	out, err = env.run(t, "review", "bulk-approve-above", "0.4", "--type", "driver")
	require.NoError(t, err)
	assert.Contains(t, out, "Approved 1 pending matches")
}

func TestInvalidArgumentsExitOne(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "drivers.json")
	testsupport.WriteFile(t, path, driverRecords)

	for _, args := range [][]string{
		{"resolve", path, "--type", "boat"},
		{"resolve", path, "--strategy", "guess"},
		{"resolve", filepath.Join(env.baseDir, "records.txt")},
		{"review", "list", "--status", "maybe"},
		{"review", "list", "--min-score", "2"},
		{"review", "approve", "no-such-id"},
		{"--log-level", "bogus", "review", "list"},
	} {
		_, err := env.run(t, args...)
		require.Error(t, err, args)
		assert.Equal(t, exitFailure, exitCode(err), args)
	}
}

func TestConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, env.configPath)

	out, err = env.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "auto_accept_threshold = 0.85")

	target := filepath.Join(env.baseDir, "new", "paddock.toml")
	out, err = env.run(t, "config", "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)
	_, err = env.run(t, "config", "init", "--path", target)
	assert.ErrorContains(t, err, "already exists")

	bad := filepath.Join(env.baseDir, "bad.toml")
	testsupport.WriteFile(t, bad, "[matching.weights.driver]\nshoe_size = 0.5\n")
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", bad, "config", "validate"})
	err = cmd.Execute()
	assert.ErrorContains(t, err, "shoe_size")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitNoMatches, exitCode(fmt.Errorf("wrapped: %w", review.ErrNoMatches)))
	assert.Equal(t, exitFailure, exitCode(&store.AlreadyResolvedError{ID: "x", Status: store.StatusRejected}))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}
