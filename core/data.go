package core

import "context"

// DataLoader identifies and fetches a raw dataset.
type DataLoader interface {
	DatasetName() string
	DatasetVersion() string
	// Download fetches the raw dataset into local storage. Implementations
	// skip data that is already present.
	Download(ctx context.Context) error
}
