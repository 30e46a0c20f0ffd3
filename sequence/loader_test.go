package sequence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoader_DownloadAndLoad(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()

	dir := t.TempDir()
	loader := NewFileLoader(dir, func(o *FileLoaderOptions) {
		o.BaseURL = srv.URL
		o.HTTPClient = srv.Client()
	})

	// Present folds are not fetched again.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "conll_03"), 0o755))
	require.NoError(t, os.WriteFile(loader.Path(FoldDev), []byte("x NN B-NP O\n"), 0o644))

	require.NoError(t, loader.Download(context.Background()))
	assert.Equal(t, int32(2), hits.Load())

	require.NoError(t, loader.Download(context.Background()))
	assert.Equal(t, int32(2), hits.Load())

	corpus, err := loader.Load()
	require.NoError(t, err)
	assert.Len(t, corpus.Train, 2)
	assert.Len(t, corpus.Dev, 1)
	assert.Len(t, corpus.Test, 2)
}

func TestFileLoader_DownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	dir := t.TempDir()
	loader := NewFileLoader(dir, func(o *FileLoaderOptions) {
		o.BaseURL = srv.URL
		o.HTTPClient = srv.Client()
	})

	err := loader.Download(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "404"))

	_, statErr := os.Stat(loader.Path(FoldTrain))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileLoader_LoadMissing(t *testing.T) {
	loader := NewFileLoader(t.TempDir())
	_, err := loader.Load()
	assert.ErrorContains(t, err, "call Download first")
}

func TestFileLoader_Loggable(t *testing.T) {
	loader := NewFileLoader(t.TempDir(), func(o *FileLoaderOptions) {
		o.DatasetVersion = "2"
	})
	assert.Equal(t, "conll_03", loader.DatasetName())
	assert.Equal(t, "2", loader.DatasetVersion())
	assert.Equal(t, "2", loader.Params()["dataset_version"])
	assert.Nil(t, loader.Metrics())
}
