package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hupe1980/mlfabric/artifact"
)

// blobStore adapts the artifacts table to core.ArtifactStore.
type blobStore struct {
	ctx context.Context
	db  *sql.DB
}

func (b *blobStore) Save(runID, name string, data []byte) error {
	if err := artifact.ValidateName(name); err != nil {
		return err
	}
	res, err := b.db.ExecContext(b.ctx,
		`INSERT OR IGNORE INTO artifacts (run_id, name, data, created_at) VALUES (?, ?, ?, ?)`,
		runID, name, data, now(),
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	if n == 0 {
		return artifact.ErrExists
	}
	return nil
}

func (b *blobStore) Get(runID, name string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(b.ctx,
		`SELECT data FROM artifacts WHERE run_id = ? AND name = ?`, runID, name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, artifact.ErrNotFound
	}
	return data, err
}

func (b *blobStore) List(runID string) ([]string, error) {
	rows, err := b.db.QueryContext(b.ctx, `SELECT name FROM artifacts WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (b *blobStore) Delete(runID, name string) error {
	res, err := b.db.ExecContext(b.ctx, `DELETE FROM artifacts WHERE run_id = ? AND name = ?`, runID, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return artifact.ErrNotFound
	}
	return nil
}
