package artifact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	require.NoError(t, fs.Save("run-1", "confusion.png", []byte("png-bytes")))

	data, err := fs.Get("run-1", "confusion.png")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	names, err := fs.List("run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"confusion.png"}, names)

	assert.ErrorIs(t, fs.Save("run-1", "confusion.png", nil), ErrExists)

	require.NoError(t, fs.Delete("run-1", "confusion.png"))
	_, err = fs.Get("run-1", "confusion.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_UnknownRunListsEmpty(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	names, err := fs.List("missing")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	err := fs.Save("run-1", "../escape.png", nil)
	assert.True(t, errors.Is(err, ErrInvalidName))

	err = fs.Save("..", "x.png", nil)
	assert.True(t, errors.Is(err, ErrInvalidName))
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"loss.png", "Loss curve (fold 1).png", "ä.svg"} {
		assert.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`, "a:b", "tab\tname", string(make([]byte, 300))} {
		assert.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
	}
}
