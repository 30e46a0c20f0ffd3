// Package artifact contains concrete implementations of the core.ArtifactStore
// together with the figure adapters and the image saving policy shared by the
// experimentation backends.
//
// The canonical ArtifactStore interface lives in the core package to avoid
// dependency cycles and keep domain contracts central. Implementation packages
// like this one (in‑memory, local file system, object stores, etc.) provide
// storage backends that can be swapped without touching calling code.
//
// Stores never overwrite: saving an existing name fails with ErrExists and an
// unusable name fails with ErrInvalidName. SaveImage turns both failures into
// a retry under a generated unique name so a figure is never lost.
package artifact
