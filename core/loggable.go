package core

import "reflect"

// Loggable is implemented by pipeline participants (models, processors,
// evaluators, data loaders) that report their own params and metrics for
// automatic logging. Both methods may return nil, meaning nothing to log.
// Implementations must not mutate themselves when queried.
type Loggable interface {
	Named
	Params() Params
	Metrics() Metrics
}

// Snapshot is a read-only copy of a Loggable's params and metrics.
type Snapshot struct {
	Name    string
	Params  Params
	Metrics Metrics
}

// TakeSnapshot copies the params and metrics reported by l. Nil mappings are
// normalised to empty ones.
func TakeSnapshot(l Loggable) Snapshot {
	return Snapshot{
		Name:    l.Name(),
		Params:  l.Params().Clone(),
		Metrics: l.Metrics().Clone(),
	}
}

// AsLoggable reports whether v implements Loggable. Nil values, including
// nil pointers stored in an interface, are not loggable.
func AsLoggable(v any) (Loggable, bool) {
	if IsNil(v) {
		return nil, false
	}
	l, ok := v.(Loggable)
	if !ok {
		return nil, false
	}
	return l, true
}

// IsNil reports whether v is nil or an interface holding a nil pointer, map,
// slice, func or channel.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
