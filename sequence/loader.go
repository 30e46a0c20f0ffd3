package sequence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/logging"
	"golang.org/x/sync/errgroup"
)

// Fold names of the CoNLL-2003 English dataset.
const (
	FoldTrain = "eng.train"
	FoldDev   = "eng.testa"
	FoldTest  = "eng.testb"
)

// DefaultBaseURL serves the raw CoNLL-2003 folds.
const DefaultBaseURL = "https://raw.githubusercontent.com/glample/tagger/master/dataset"

// ErrUnknownDataset is returned when the loader has no source for the
// configured dataset name and version.
var ErrUnknownDataset = errors.New("unknown dataset")

// FileLoaderOptions configures a FileLoader.
type FileLoaderOptions struct {
	DatasetName    string
	DatasetVersion string
	// BaseURL is the location the folds are downloaded from.
	BaseURL    string
	Columns    []string
	HTTPClient *http.Client
	Logger     logging.Logger
}

// FileLoader reads the CoNLL folds from <dir>/<dataset name>/ and downloads
// missing ones. It implements core.DataLoader and core.Loggable.
type FileLoader struct {
	dir  string
	opts FileLoaderOptions
}

var (
	_ core.DataLoader = (*FileLoader)(nil)
	_ core.Loggable   = (*FileLoader)(nil)
)

// NewFileLoader creates a loader rooted at dir.
func NewFileLoader(dir string, optFns ...func(o *FileLoaderOptions)) *FileLoader {
	opts := FileLoaderOptions{
		DatasetName:    "conll_03",
		DatasetVersion: "1",
		BaseURL:        DefaultBaseURL,
		Columns:        DefaultColumns,
		HTTPClient:     http.DefaultClient,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &FileLoader{dir: dir, opts: opts}
}

// Name implements core.Named.
func (l *FileLoader) Name() string { return "CoNLLFileLoader" }

// DatasetName implements core.DataLoader.
func (l *FileLoader) DatasetName() string { return l.opts.DatasetName }

// DatasetVersion implements core.DataLoader.
func (l *FileLoader) DatasetVersion() string { return l.opts.DatasetVersion }

// Params implements core.Loggable.
func (l *FileLoader) Params() core.Params {
	return core.Params{
		"dataset_name":    l.opts.DatasetName,
		"dataset_version": l.opts.DatasetVersion,
	}
}

// Metrics implements core.Loggable.
func (l *FileLoader) Metrics() core.Metrics { return nil }

// Path returns the local path of a fold.
func (l *FileLoader) Path(fold string) string {
	return filepath.Join(l.dir, l.opts.DatasetName, fold)
}

// Download implements core.DataLoader. Folds already on disk are skipped,
// missing folds are fetched concurrently.
func (l *FileLoader) Download(ctx context.Context) error {
	if l.opts.BaseURL == "" {
		return fmt.Errorf("%w: %s version %s", ErrUnknownDataset, l.opts.DatasetName, l.opts.DatasetVersion)
	}
	if err := os.MkdirAll(filepath.Join(l.dir, l.opts.DatasetName), 0o755); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, fold := range []string{FoldTrain, FoldDev, FoldTest} {
		path := l.Path(fold)
		if _, err := os.Stat(path); err == nil {
			l.opts.Logger.Debug("Fold already present, skipping download", "fold", fold)
			continue
		}
		g.Go(func() error {
			return l.fetch(gctx, fold, path)
		})
	}
	return g.Wait()
}

func (l *FileLoader) fetch(ctx context.Context, fold, path string) error {
	url := l.opts.BaseURL + "/" + fold
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := l.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", fold, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", fold, resp.Status)
	}

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("download %s: %w", fold, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	l.opts.Logger.Info("Downloaded fold", "fold", fold, "path", path)
	return os.Rename(tmp, path)
}

// Load reads the three folds into a corpus.
func (l *FileLoader) Load() (*Corpus, error) {
	train, err := l.readFold(FoldTrain)
	if err != nil {
		return nil, err
	}
	dev, err := l.readFold(FoldDev)
	if err != nil {
		return nil, err
	}
	test, err := l.readFold(FoldTest)
	if err != nil {
		return nil, err
	}
	return &Corpus{Train: train, Dev: dev, Test: test}, nil
}

func (l *FileLoader) readFold(fold string) ([]Sentence, error) {
	f, err := os.Open(l.Path(fold))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("fold %s not found, call Download first: %w", fold, err)
		}
		return nil, err
	}
	defer f.Close()

	sentences, err := ReadCoNLL(f, l.opts.Columns)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fold, err)
	}
	return sentences, nil
}
