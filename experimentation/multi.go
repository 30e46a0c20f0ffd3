package experimentation

import (
	"context"
	"strings"

	"github.com/hupe1980/mlfabric/core"
)

// Multi fans every call out to a list of backends in order. The first error
// aborts the call and is returned unchanged; backends after the failing one
// are not invoked.
type Multi struct {
	backends []core.Experimentation
}

// NewMulti combines backends into one.
func NewMulti(backends ...core.Experimentation) *Multi {
	return &Multi{backends: backends}
}

// Name returns "Multi(a,b,...)".
func (m *Multi) Name() string {
	names := make([]string, len(m.backends))
	for i, b := range m.backends {
		names[i] = b.Name()
	}
	return "Multi(" + strings.Join(names, ",") + ")"
}

// ActiveRunID implements core.RunTracker by joining the run ids of the
// backends that expose one. It is "" when none of them has an open run.
func (m *Multi) ActiveRunID() string {
	var ids []string
	open := false
	for _, b := range m.backends {
		rt, ok := b.(core.RunTracker)
		if !ok {
			continue
		}
		id := rt.ActiveRunID()
		open = open || id != ""
		ids = append(ids, id)
	}
	if !open {
		return ""
	}
	return strings.Join(ids, ",")
}

func (m *Multi) each(fn func(b core.Experimentation) error) error {
	for _, b := range m.backends {
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

// SetExperiment implements core.Experimentation.
func (m *Multi) SetExperiment(ctx context.Context, name, artifactLocation string) error {
	return m.each(func(b core.Experimentation) error { return b.SetExperiment(ctx, name, artifactLocation) })
}

// StartRun implements core.Experimentation.
func (m *Multi) StartRun(ctx context.Context) error {
	return m.each(func(b core.Experimentation) error { return b.StartRun(ctx) })
}

// EndRun implements core.Experimentation.
func (m *Multi) EndRun(ctx context.Context) error {
	return m.each(func(b core.Experimentation) error { return b.EndRun(ctx) })
}

// LogParam implements core.Experimentation.
func (m *Multi) LogParam(ctx context.Context, key string, value any) error {
	return m.each(func(b core.Experimentation) error { return b.LogParam(ctx, key, value) })
}

// LogParams implements core.Experimentation.
func (m *Multi) LogParams(ctx context.Context, params core.Params) error {
	return m.each(func(b core.Experimentation) error { return b.LogParams(ctx, params) })
}

// LogMetric implements core.Experimentation.
func (m *Multi) LogMetric(ctx context.Context, key string, value float64, step int64) error {
	return m.each(func(b core.Experimentation) error { return b.LogMetric(ctx, key, value, step) })
}

// LogMetrics implements core.Experimentation.
func (m *Multi) LogMetrics(ctx context.Context, metrics core.Metrics, step int64) error {
	return m.each(func(b core.Experimentation) error { return b.LogMetrics(ctx, metrics, step) })
}

// LogImage implements core.Experimentation.
func (m *Multi) LogImage(ctx context.Context, title string, fig core.Figure) error {
	return m.each(func(b core.Experimentation) error { return b.LogImage(ctx, title, fig) })
}

// LogEvaluationResult implements core.Experimentation.
func (m *Multi) LogEvaluationResult(ctx context.Context, result core.EvaluationResult) error {
	return m.each(func(b core.Experimentation) error { return b.LogEvaluationResult(ctx, result) })
}
