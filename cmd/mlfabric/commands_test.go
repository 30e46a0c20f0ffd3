package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/experimentation/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T) (string, string) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tracking.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)

	require.NoError(t, store.SetExperiment(ctx, "sentiment", ""))
	require.NoError(t, store.StartRun(ctx))
	runID := store.ActiveRunID()
	require.NoError(t, store.LogParam(ctx, "model_name", "PromptClassifier"))
	require.NoError(t, store.LogMetric(ctx, "f1", 0.75, core.NoStep))
	require.NoError(t, store.LogMetric(ctx, "loss", 0.5, 2))
	require.NoError(t, store.Close())
	return path, runID
}

func TestConfigValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("experiment_name: sentiment\n"), 0o644))

	out, err := execute(t, "config", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "backend memory")

	require.NoError(t, os.WriteFile(path, []byte("tracking:\n  backend: nope\n"), 0o644))
	_, err = execute(t, "config", "validate", path)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestRunsAndExperiments(t *testing.T) {
	db, runID := seed(t)

	out, err := execute(t, "experiments", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "sentiment")

	out, err = execute(t, "runs", "list", "--db", db, "-e", "sentiment")
	require.NoError(t, err)
	assert.Contains(t, out, runID)
	assert.Contains(t, out, "FINISHED")

	out, err = execute(t, "runs", "show", runID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "PromptClassifier")
	assert.Contains(t, out, "0.75")
	assert.Contains(t, out, "loss")

	_, err = execute(t, "runs", "show", "missing", "--db", db)
	assert.ErrorIs(t, err, sqlite.ErrRunNotFound)
}

func TestMissingDatabase(t *testing.T) {
	_, err := execute(t, "experiments", "--db", filepath.Join(t.TempDir(), "none.db"))
	assert.Error(t, err)
}
