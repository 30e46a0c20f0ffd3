package model

import "github.com/hupe1980/mlfabric/core"

// Base implements the identity part of core.Model and the core.Processors
// capability. Embed it in concrete models.
type Base struct {
	name  string
	hyper core.Params
	pre   any
	post  any
}

// BaseOptions holds the optional processors of a model.
type BaseOptions struct {
	Preprocessor  any
	Postprocessor any
}

// NewBase creates a Base. The hyperparameter bag is copied and must not
// change afterwards. Nil pointer processors are stored as untyped nil.
func NewBase(name string, hyper core.Params, optFns ...func(o *BaseOptions)) Base {
	var opts BaseOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if core.IsNil(opts.Preprocessor) {
		opts.Preprocessor = nil
	}
	if core.IsNil(opts.Postprocessor) {
		opts.Postprocessor = nil
	}
	return Base{
		name:  name,
		hyper: hyper.Clone(),
		pre:   opts.Preprocessor,
		post:  opts.Postprocessor,
	}
}

// Name implements core.Named.
func (b Base) Name() string { return b.name }

// HyperParams returns a copy of the hyperparameter bag.
func (b Base) HyperParams() core.Params { return b.hyper.Clone() }

// Preprocessor implements core.Processors.
func (b Base) Preprocessor() any { return b.pre }

// Postprocessor implements core.Processors.
func (b Base) Postprocessor() any { return b.post }
