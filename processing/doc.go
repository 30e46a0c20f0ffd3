// Package processing defines data processors applied before or after a model
// (tokenization, normalization, label mapping, ...). Every processor in this
// package is a core.Loggable so runners can record its configuration.
package processing
