package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// FileStore persists artifacts on the local file system under
// <root>/<runID>/<name>. It is safe for concurrent use as long as distinct
// processes do not write the same run directory.
type FileStore struct {
	root string
}

// NewFileStore returns a store rooted at dir. The directory is created lazily.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Root returns the store's root directory.
func (f *FileStore) Root() string { return f.root }

func (f *FileStore) runDir(runID string) (string, error) {
	if err := ValidateName(runID); err != nil {
		return "", fmt.Errorf("run id: %w", err)
	}
	return filepath.Join(f.root, runID), nil
}

// Save writes data to a new file; an existing file yields ErrExists.
func (f *FileStore) Save(runID, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	dir, err := f.runDir(runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("create artifact: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	return file.Close()
}

// Get reads an artifact or returns ErrNotFound.
func (f *FileStore) Get(runID, name string) ([]byte, error) {
	dir, err := f.runDir(runID)
	if err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// List returns the sorted artifact names of a run.
func (f *FileStore) List(runID string) ([]string, error) {
	dir, err := f.runDir(runID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Delete removes an artifact or returns ErrNotFound.
func (f *FileStore) Delete(runID, name string) error {
	dir, err := f.runDir(runID)
	if err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
