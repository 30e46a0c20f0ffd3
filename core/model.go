package core

import "context"

// Named is implemented by every collaborator that carries a display name.
type Named interface {
	Name() string
}

// Model is a trainable unit. X is the input type, Y the label type and P the
// prediction type. HyperParams returns the hyperparameter bag which must not
// change after construction; callers receive a copy.
//
// Errors returned by Fit and Predict are never wrapped by the runners.
type Model[X, Y, P any] interface {
	Named
	HyperParams() Params
	Fit(ctx context.Context, x X, y Y) error
	Predict(ctx context.Context, x X) (P, error)
}

// Processors is an optional capability for models carrying a pre and/or post
// processor. Either value may be nil.
type Processors interface {
	Preprocessor() any
	Postprocessor() any
}
