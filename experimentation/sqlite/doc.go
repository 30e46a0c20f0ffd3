// Package sqlite provides a file-based core.Experimentation backend storing
// experiments, runs, params, metrics and image artifacts in a single SQLite
// database (pure Go driver, no cgo).
//
// Images are stored as blobs unless the experiment declares an artifact
// location, in which case they are written below that directory. The Store
// also exposes a small query API used by the mlfabric CLI.
package sqlite
