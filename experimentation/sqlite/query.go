package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/hupe1980/mlfabric/artifact"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Experiment is a stored experiment namespace.
type Experiment struct {
	ID               string
	Name             string
	ArtifactLocation string
	CreatedAt        time.Time
	RunCount         int
}

// Metric is one stored metric value. Step is core.NoStep for final values.
type Metric struct {
	Key       string
	Value     float64
	Step      int64
	Timestamp time.Time
}

// RunRecord describes a stored run. Params, Metrics and Artifacts are only
// populated by Store.Run.
type RunRecord struct {
	ID         string
	Experiment string
	Status     string
	StartedAt  time.Time
	EndedAt    *time.Time
	Params     map[string]string
	Metrics    []Metric
	Artifacts  []string
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// Experiments lists all experiments ordered by name.
func (s *Store) Experiments(ctx context.Context) ([]Experiment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.experiment_id, e.name, e.artifact_location, e.created_at, COUNT(r.run_id)
		FROM experiments e LEFT JOIN runs r ON r.experiment_id = e.experiment_id
		GROUP BY e.experiment_id
		ORDER BY e.name`)
	if err != nil {
		return nil, fmt.Errorf("query experiments: %w", err)
	}
	defer rows.Close()

	var out []Experiment
	for rows.Next() {
		var e Experiment
		var created string
		if err := rows.Scan(&e.ID, &e.Name, &e.ArtifactLocation, &created, &e.RunCount); err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs lists the runs of an experiment in start order. An empty name lists
// the runs of every experiment.
func (s *Store) Runs(ctx context.Context, experiment string) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, e.name, r.status, r.started_at, r.ended_at
		FROM runs r JOIN experiments e ON e.experiment_id = r.experiment_id
		WHERE ? = '' OR e.name = ?
		ORDER BY r.started_at, r.run_id`, experiment, experiment)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var r RunRecord
	var started string
	var ended sql.NullString
	if err := row.Scan(&r.ID, &r.Experiment, &r.Status, &started, &ended); err != nil {
		return RunRecord{}, err
	}
	r.StartedAt = parseTime(started)
	if ended.Valid {
		t := parseTime(ended.String)
		r.EndedAt = &t
	}
	return r, nil
}

// Run loads a run with its params, metrics (in logging order) and artifact names.
func (s *Store) Run(ctx context.Context, runID string) (RunRecord, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `
		SELECT r.run_id, e.name, r.status, r.started_at, r.ended_at
		FROM runs r JOIN experiments e ON e.experiment_id = r.experiment_id
		WHERE r.run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("query run: %w", err)
	}

	// the pool holds a single connection: each result set is drained and
	// closed before the next query
	if r.Params, err = s.params(ctx, runID); err != nil {
		return RunRecord{}, err
	}
	if r.Metrics, err = s.metrics(ctx, runID); err != nil {
		return RunRecord{}, err
	}
	r.Artifacts, err = (&blobStore{ctx: ctx, db: s.db}).List(runID)
	if err != nil {
		return RunRecord{}, fmt.Errorf("query artifacts: %w", err)
	}
	return r, nil
}

func (s *Store) params(ctx context.Context, runID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM params WHERE run_id = ? ORDER BY key`, runID)
	if err != nil {
		return nil, fmt.Errorf("query params: %w", err)
	}
	defer rows.Close()
	params := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan param: %w", err)
		}
		params[k] = v
	}
	return params, rows.Err()
}

func (s *Store) metrics(ctx context.Context, runID string) ([]Metric, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, step, logged_at FROM metrics WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()
	var out []Metric
	for rows.Next() {
		var m Metric
		var value sql.NullFloat64
		var ts string
		if err := rows.Scan(&m.Key, &value, &m.Step, &ts); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		m.Value = math.NaN()
		if value.Valid {
			m.Value = value.Float64
		}
		m.Timestamp = parseTime(ts)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Artifact returns the bytes of a logged image, reading from the experiment's
// artifact location when one is configured.
func (s *Store) Artifact(ctx context.Context, runID, name string) ([]byte, error) {
	var experiment, location string
	err := s.db.QueryRowContext(ctx, `
		SELECT e.name, e.artifact_location
		FROM runs r JOIN experiments e ON e.experiment_id = r.experiment_id
		WHERE r.run_id = ?`, runID).Scan(&experiment, &location)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	if location != "" {
		return artifact.NewFileStore(filepath.Join(location, experiment)).Get(runID, name)
	}
	return (&blobStore{ctx: ctx, db: s.db}).Get(runID, name)
}
