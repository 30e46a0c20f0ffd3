package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/mlfabric/artifact"
	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/experimentation"
	"github.com/hupe1980/mlfabric/logging"
	_ "modernc.org/sqlite"
)

const backendName = "SQLite"

const schema = `
CREATE TABLE IF NOT EXISTS experiments (
	experiment_id     TEXT PRIMARY KEY,
	name              TEXT NOT NULL UNIQUE,
	artifact_location TEXT NOT NULL DEFAULT '',
	created_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	experiment_id TEXT NOT NULL,
	status        TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	ended_at      TEXT,
	FOREIGN KEY (experiment_id) REFERENCES experiments(experiment_id)
);

CREATE TABLE IF NOT EXISTS params (
	run_id TEXT NOT NULL,
	key    TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (run_id, key),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS metrics (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      REAL,
	step       INTEGER NOT NULL,
	logged_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS artifacts (
	run_id     TEXT NOT NULL,
	name       TEXT NOT NULL,
	data       BLOB,
	created_at TEXT NOT NULL,
	PRIMARY KEY (run_id, name),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// Options configures a Store.
type Options struct {
	Logger logging.Logger
}

// Store is a SQLite backed experimentation backend. It is safe for
// concurrent use; the single open run is tracked per Store instance.
type Store struct {
	db     *sql.DB
	logger logging.Logger

	mu           sync.Mutex
	experimentID string
	experiment   string
	location     string
	activeRun    string
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, logger: opts.Logger}, nil
}

// Close ends an open run and closes the database.
func (s *Store) Close() error {
	endErr := s.EndRun(context.Background())
	return errors.Join(endErr, s.db.Close())
}

// Name implements core.Experimentation.
func (s *Store) Name() string { return backendName }

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func wrap(op string, err error) error { return core.NewBackendError(backendName, op, err) }

// SetExperiment implements core.Experimentation. The experiment row is
// created on first use; a non-empty artifactLocation updates the stored one.
func (s *Store) SetExperiment(ctx context.Context, name, artifactLocation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id, location string
	err := s.db.QueryRowContext(ctx,
		`SELECT experiment_id, artifact_location FROM experiments WHERE name = ?`, name,
	).Scan(&id, &location)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		location = artifactLocation
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO experiments (experiment_id, name, artifact_location, created_at) VALUES (?, ?, ?, ?)`,
			id, name, location, now(),
		); err != nil {
			return wrap(experimentation.OpSetExperiment, fmt.Errorf("insert experiment: %w", err))
		}
	case err != nil:
		return wrap(experimentation.OpSetExperiment, fmt.Errorf("query experiment: %w", err))
	case artifactLocation != "" && artifactLocation != location:
		if _, err := s.db.ExecContext(ctx,
			`UPDATE experiments SET artifact_location = ? WHERE experiment_id = ?`, artifactLocation, id,
		); err != nil {
			return wrap(experimentation.OpSetExperiment, fmt.Errorf("update experiment: %w", err))
		}
		location = artifactLocation
	}

	s.experimentID, s.experiment, s.location = id, name, location
	return nil
}

// StartRun implements core.Experimentation. A run left open on this Store is
// finished first.
func (s *Store) StartRun(ctx context.Context) error {
	if s.currentExperiment() == "" {
		if err := s.SetExperiment(ctx, experimentation.DefaultExperiment, ""); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeRun != "" {
		s.logger.Warn("Closing stale run before starting a new one", "run_id", s.activeRun)
		if err := s.endLocked(ctx); err != nil {
			return wrap(experimentation.OpStartRun, err)
		}
	}

	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, experiment_id, status, started_at) VALUES (?, ?, ?, ?)`,
		id, s.experimentID, string(experimentation.RunStatusRunning), now(),
	); err != nil {
		return wrap(experimentation.OpStartRun, fmt.Errorf("insert run: %w", err))
	}
	s.activeRun = id
	return nil
}

func (s *Store) currentExperiment() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.experimentID
}

func (s *Store) endLocked(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, ended_at = ? WHERE run_id = ?`,
		string(experimentation.RunStatusFinished), now(), s.activeRun,
	); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	s.activeRun = ""
	return nil
}

// EndRun implements core.Experimentation; without an open run it is a no-op.
func (s *Store) EndRun(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeRun == "" {
		return nil
	}
	return wrap(experimentation.OpEndRun, s.endLocked(ctx))
}

// ActiveRunID returns the open run id or "".
func (s *Store) ActiveRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRun
}

func (s *Store) runFor(op string) (string, error) {
	if s.activeRun == "" {
		return "", wrap(op, experimentation.ErrNoActiveRun)
	}
	return s.activeRun, nil
}

// LogParam implements core.Experimentation. Existing keys are overwritten.
func (s *Store) LogParam(ctx context.Context, key string, value any) error {
	return s.LogParams(ctx, core.Params{key: value})
}

// LogParams implements core.Experimentation.
func (s *Store) LogParams(ctx context.Context, params core.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	runID, err := s.runFor(experimentation.OpLogParams)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(experimentation.OpLogParams, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	for _, k := range sortedKeys(params) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO params (run_id, key, value) VALUES (?, ?, ?)
			 ON CONFLICT (run_id, key) DO UPDATE SET value = excluded.value`,
			runID, k, fmt.Sprint(params[k]),
		); err != nil {
			return wrap(experimentation.OpLogParams, fmt.Errorf("insert param %q: %w", k, err))
		}
	}
	return wrap(experimentation.OpLogParams, tx.Commit())
}

// LogMetric implements core.Experimentation.
func (s *Store) LogMetric(ctx context.Context, key string, value float64, step int64) error {
	return s.LogMetrics(ctx, core.Metrics{key: value}, step)
}

// LogMetrics implements core.Experimentation.
func (s *Store) LogMetrics(ctx context.Context, metrics core.Metrics, step int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	runID, err := s.runFor(experimentation.OpLogMetrics)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(experimentation.OpLogMetrics, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	ts := now()
	for _, k := range sortedKeys(metrics) {
		// NaN is stored as NULL.
		var value any = metrics[k]
		if math.IsNaN(metrics[k]) {
			value = nil
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO metrics (run_id, key, value, step, logged_at) VALUES (?, ?, ?, ?, ?)`,
			runID, k, value, step, ts,
		); err != nil {
			return wrap(experimentation.OpLogMetrics, fmt.Errorf("insert metric %q: %w", k, err))
		}
	}
	return wrap(experimentation.OpLogMetrics, tx.Commit())
}

// LogImage implements core.Experimentation.
func (s *Store) LogImage(ctx context.Context, title string, fig core.Figure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	runID, err := s.runFor(experimentation.OpLogImage)
	if err != nil {
		return err
	}

	var store core.ArtifactStore = &blobStore{ctx: ctx, db: s.db}
	if s.location != "" {
		store = artifact.NewFileStore(filepath.Join(s.location, s.experiment))
	}
	name, err := artifact.SaveImage(store, runID, title, fig)
	if err != nil {
		return wrap(experimentation.OpLogImage, err)
	}
	if s.location != "" {
		// keep an index row so the run lists its artifacts
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO artifacts (run_id, name, data, created_at) VALUES (?, ?, NULL, ?)`,
			runID, name, now(),
		); err != nil {
			return wrap(experimentation.OpLogImage, fmt.Errorf("index artifact: %w", err))
		}
	}
	s.logger.Debug("Logged image", "run_id", runID, "title", title, "name", name)
	return nil
}

// LogEvaluationResult implements core.Experimentation.
func (s *Store) LogEvaluationResult(ctx context.Context, result core.EvaluationResult) error {
	return experimentation.LogEvaluationResult(ctx, s, result)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
