package artifact

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrNotFound is returned when an artifact for the given run / name pair
	// does not exist in the underlying store.
	ErrNotFound = fmt.Errorf("artifact not found")

	// ErrExists is returned when an artifact name is already taken within a run.
	ErrExists = errors.New("artifact already exists")

	// ErrInvalidName is returned when a name cannot be used as a file name.
	ErrInvalidName = errors.New("invalid artifact name")
)

const maxNameLen = 255

// ValidateName checks that name is usable as a single path element on common
// file systems.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxNameLen)
	}
	if strings.ContainsAny(name, `/\:*?"<>|`) {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidName, name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains a control character", ErrInvalidName, name)
		}
	}
	return nil
}
