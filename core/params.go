package core

import "maps"

// Params is a flat mapping of static configuration values (hyperparameters,
// dataset identity, free-form run parameters). Values are scalars or other
// primitives passed opaquely to the experimentation backend.
type Params map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty, non-nil map.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return maps.Clone(p)
}

// Metrics is a flat mapping of metric name to numeric value.
type Metrics map[string]float64

// Clone returns a shallow copy. A nil receiver yields an empty, non-nil map.
func (m Metrics) Clone() Metrics {
	if m == nil {
		return Metrics{}
	}
	return maps.Clone(m)
}
