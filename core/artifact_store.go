package core

// ArtifactStore defines the interface for artifact persistence. Implementations
// should be thread-safe and scope artifacts by run identifier. Save must not
// overwrite: an existing name yields artifact.ErrExists and a name that is not
// a valid file name yields artifact.ErrInvalidName, so callers can fall back to
// a generated name.
type ArtifactStore interface {
	Save(runID, name string, data []byte) error
	Get(runID, name string) ([]byte, error)
	List(runID string) ([]string, error)
	Delete(runID, name string) error
}
