package core

import (
	"context"
	"io"
)

// Figure is a visual artifact that can be rendered to an encoded image.
type Figure interface {
	// Format returns the file extension of the encoded image without the
	// leading dot (e.g. "png").
	Format() string
	Encode(w io.Writer) error
}

// Experimentation is the contract of a metrics and parameters logging backend
// (in-memory, SQLite file, Prometheus, remote tracking service, ...).
//
// A backend instance owns at most one open run. StartRun closes any run that
// is still open before opening a new one, EndRun without an open run is a
// no-op. Failures are reported as *BackendError.
type Experimentation interface {
	Named

	// SetExperiment declares or selects the experiment namespace. Calling it
	// again with the same name is a no-op. An empty artifactLocation selects
	// the backend default.
	SetExperiment(ctx context.Context, name, artifactLocation string) error
	StartRun(ctx context.Context) error
	EndRun(ctx context.Context) error

	LogParam(ctx context.Context, key string, value any) error
	LogParams(ctx context.Context, params Params) error

	// LogMetric records a value; step is NoStep for a single final value.
	LogMetric(ctx context.Context, key string, value float64, step int64) error
	LogMetrics(ctx context.Context, metrics Metrics, step int64) error

	// LogImage persists a figure. When the title collides with an existing
	// artifact or is not a valid file name the backend stores it under a
	// generated unique name instead.
	LogImage(ctx context.Context, title string, fig Figure) error

	// LogEvaluationResult forwards result.Metrics() to LogMetrics. Most
	// backends delegate to experimentation.LogEvaluationResult.
	LogEvaluationResult(ctx context.Context, result EvaluationResult) error
}

// RunTracker is implemented by backends that expose the id of their open run.
// ActiveRunID returns "" when no run is open.
type RunTracker interface {
	ActiveRunID() string
}
