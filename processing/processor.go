package processing

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/mlfabric/core"
)

// Processor transforms single items or batches of type T.
type Processor[T any] interface {
	core.Named
	Apply(ctx context.Context, item T) (T, error)
	ApplyBatch(ctx context.Context, items []T) ([]T, error)
}

// Identity returns its input unchanged.
type Identity[T any] struct{}

// Name implements core.Named.
func (Identity[T]) Name() string { return "Identity" }

// Params implements core.Loggable.
func (Identity[T]) Params() core.Params { return nil }

// Metrics implements core.Loggable.
func (Identity[T]) Metrics() core.Metrics { return nil }

// Apply implements Processor.
func (Identity[T]) Apply(_ context.Context, item T) (T, error) { return item, nil }

// ApplyBatch implements Processor.
func (Identity[T]) ApplyBatch(_ context.Context, items []T) ([]T, error) { return items, nil }

// Func adapts a function into a named Processor.
type Func[T any] struct {
	name   string
	fn     func(T) (T, error)
	params core.Params
}

// NewFunc creates a processor from fn. params are reported verbatim.
func NewFunc[T any](name string, fn func(T) (T, error), params core.Params) *Func[T] {
	return &Func[T]{name: name, fn: fn, params: params.Clone()}
}

// Name implements core.Named.
func (f *Func[T]) Name() string { return f.name }

// Params implements core.Loggable.
func (f *Func[T]) Params() core.Params { return f.params.Clone() }

// Metrics implements core.Loggable.
func (f *Func[T]) Metrics() core.Metrics { return nil }

// Apply implements Processor.
func (f *Func[T]) Apply(_ context.Context, item T) (T, error) { return f.fn(item) }

// ApplyBatch implements Processor. It stops at the first failing item.
func (f *Func[T]) ApplyBatch(ctx context.Context, items []T) ([]T, error) {
	return applyEach(ctx, f, items)
}

// Chain runs processors in order.
type Chain[T any] struct {
	steps []Processor[T]
}

// NewChain creates a chain of processors.
func NewChain[T any](steps ...Processor[T]) *Chain[T] {
	return &Chain[T]{steps: steps}
}

// Name implements core.Named, e.g. "Chain(Lowercase,Trim)".
func (c *Chain[T]) Name() string {
	names := make([]string, len(c.steps))
	for i, s := range c.steps {
		names[i] = s.Name()
	}
	return "Chain(" + strings.Join(names, ",") + ")"
}

// Params implements core.Loggable. Loggable steps contribute their params
// prefixed with their position and name.
func (c *Chain[T]) Params() core.Params {
	out := core.Params{"steps": len(c.steps)}
	for i, s := range c.steps {
		l, ok := core.AsLoggable(s)
		if !ok {
			continue
		}
		for k, v := range l.Params() {
			out[fmt.Sprintf("%d.%s.%s", i, s.Name(), k)] = v
		}
	}
	return out
}

// Metrics implements core.Loggable.
func (c *Chain[T]) Metrics() core.Metrics { return nil }

// Apply implements Processor.
func (c *Chain[T]) Apply(ctx context.Context, item T) (T, error) {
	var err error
	for _, s := range c.steps {
		if item, err = s.Apply(ctx, item); err != nil {
			return item, fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return item, nil
}

// ApplyBatch implements Processor.
func (c *Chain[T]) ApplyBatch(ctx context.Context, items []T) ([]T, error) {
	var err error
	for _, s := range c.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if items, err = s.ApplyBatch(ctx, items); err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return items, nil
}

func applyEach[T any](ctx context.Context, p Processor[T], items []T) ([]T, error) {
	out := make([]T, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := p.Apply(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Lowercase returns a text processor lowering the case of its input.
func Lowercase() *Func[string] {
	return NewFunc("Lowercase", func(s string) (string, error) { return strings.ToLower(s), nil }, nil)
}

// TrimSpace returns a text processor trimming surrounding whitespace.
func TrimSpace() *Func[string] {
	return NewFunc("TrimSpace", func(s string) (string, error) { return strings.TrimSpace(s), nil }, nil)
}
