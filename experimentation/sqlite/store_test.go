package sqlite

import (
	"context"
	"image"
	"math"
	"path/filepath"
	"testing"

	"github.com/hupe1980/mlfabric/artifact"
	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/evaluation"
	"github.com/hupe1980/mlfabric/experimentation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ core.Experimentation = (*Store)(nil)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tracking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	require.NoError(t, s.SetExperiment(ctx, "sentiment", ""))
	require.NoError(t, s.StartRun(ctx))
	runID := s.ActiveRunID()
	require.NotEmpty(t, runID)

	require.NoError(t, s.LogParams(ctx, core.Params{"alpha": 0.1, "loss": "hinge"}))
	require.NoError(t, s.LogParam(ctx, "alpha", 0.2))
	require.NoError(t, s.LogMetrics(ctx, core.Metrics{"f1": 0.5, "acc": 0.6}, core.NoStep))
	require.NoError(t, s.LogMetric(ctx, "loss", 0.3, 2))
	require.NoError(t, s.EndRun(ctx))
	assert.Empty(t, s.ActiveRunID())

	run, err := s.Run(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, "sentiment", run.Experiment)
	assert.Equal(t, string(experimentation.RunStatusFinished), run.Status)
	require.NotNil(t, run.EndedAt)
	assert.Equal(t, map[string]string{"alpha": "0.2", "loss": "hinge"}, run.Params)

	require.Len(t, run.Metrics, 3)
	assert.Equal(t, "acc", run.Metrics[0].Key)
	assert.Equal(t, core.NoStep, run.Metrics[0].Step)
	assert.Equal(t, "loss", run.Metrics[2].Key)
	assert.Equal(t, int64(2), run.Metrics[2].Step)
}

func TestStore_StartRunClosesStaleRun(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	require.NoError(t, s.SetExperiment(ctx, "exp", ""))

	require.NoError(t, s.StartRun(ctx))
	first := s.ActiveRunID()
	require.NoError(t, s.StartRun(ctx))
	second := s.ActiveRunID()
	assert.NotEqual(t, first, second)

	runs, err := s.Runs(ctx, "exp")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	open := 0
	for _, r := range runs {
		if r.Status == string(experimentation.RunStatusRunning) {
			open++
			assert.Equal(t, second, r.ID)
		}
	}
	assert.Equal(t, 1, open)
}

func TestStore_EndRunWithoutRun(t *testing.T) {
	s := tempStore(t)
	assert.NoError(t, s.EndRun(context.Background()))
}

func TestStore_LogWithoutRun(t *testing.T) {
	s := tempStore(t)
	err := s.LogParam(context.Background(), "k", 1)
	assert.ErrorIs(t, err, experimentation.ErrNoActiveRun)
	assert.True(t, core.IsBackendError(err))
}

func TestStore_SetExperimentIdempotent(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	require.NoError(t, s.SetExperiment(ctx, "exp", ""))
	require.NoError(t, s.SetExperiment(ctx, "exp", ""))
	require.NoError(t, s.StartRun(ctx))

	exps, err := s.Experiments(ctx)
	require.NoError(t, err)
	require.Len(t, exps, 1)
	assert.Equal(t, "exp", exps[0].Name)
	assert.Equal(t, 1, exps[0].RunCount)
}

func TestStore_DefaultExperiment(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	require.NoError(t, s.StartRun(ctx))

	run, err := s.Run(ctx, s.ActiveRunID())
	require.NoError(t, err)
	assert.Equal(t, experimentation.DefaultExperiment, run.Experiment)
}

func TestStore_LogImageBlob(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	require.NoError(t, s.SetExperiment(ctx, "exp", ""))
	require.NoError(t, s.StartRun(ctx))
	runID := s.ActiveRunID()

	fig := artifact.PNG(image.NewGray(image.Rect(0, 0, 2, 2)))
	require.NoError(t, s.LogImage(ctx, "roc", fig))
	require.NoError(t, s.LogImage(ctx, "roc", fig))

	run, err := s.Run(ctx, runID)
	require.NoError(t, err)
	require.Len(t, run.Artifacts, 2)
	assert.Contains(t, run.Artifacts, "roc.png")

	data, err := s.Artifact(ctx, runID, "roc.png")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestStore_LogImageArtifactLocation(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	location := t.TempDir()
	require.NoError(t, s.SetExperiment(ctx, "exp", location))
	require.NoError(t, s.StartRun(ctx))
	runID := s.ActiveRunID()

	require.NoError(t, s.LogImage(ctx, "a/b", artifact.Raw("svg", []byte("<svg/>"))))

	run, err := s.Run(ctx, runID)
	require.NoError(t, err)
	require.Len(t, run.Artifacts, 1)

	data, err := s.Artifact(ctx, runID, run.Artifacts[0])
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	names, err := artifact.NewFileStore(filepath.Join(location, "exp")).List(runID)
	require.NoError(t, err)
	assert.Equal(t, run.Artifacts, names)
}

func TestStore_LogEvaluationResult(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	require.NoError(t, s.StartRun(ctx))
	runID := s.ActiveRunID()

	require.NoError(t, s.LogEvaluationResult(ctx, evaluation.NewResult(core.Metrics{"precision": 0.5})))

	run, err := s.Run(ctx, runID)
	require.NoError(t, err)
	require.Len(t, run.Metrics, 1)
	assert.Equal(t, 0.5, run.Metrics[0].Value)
}

func TestStore_LogMetricsNonFinite(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	require.NoError(t, s.StartRun(ctx))
	runID := s.ActiveRunID()

	require.NoError(t, s.LogMetrics(ctx, core.Metrics{"precision": math.NaN(), "recall": math.Inf(1)}, core.NoStep))
	require.NoError(t, s.LogMetric(ctx, "f1", 0.25, 2))

	run, err := s.Run(ctx, runID)
	require.NoError(t, err)
	require.Len(t, run.Metrics, 3)
	assert.Equal(t, "precision", run.Metrics[0].Key)
	assert.True(t, math.IsNaN(run.Metrics[0].Value))
	assert.True(t, math.IsInf(run.Metrics[1].Value, 1))
	assert.Equal(t, 0.25, run.Metrics[2].Value)
	assert.Equal(t, int64(2), run.Metrics[2].Step)
}

func TestStore_RunNotFound(t *testing.T) {
	s := tempStore(t)
	_, err := s.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tracking.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetExperiment(ctx, "exp", ""))
	require.NoError(t, s.StartRun(ctx))
	runID := s.ActiveRunID()
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	run, err := s.Run(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, string(experimentation.RunStatusFinished), run.Status)
}
