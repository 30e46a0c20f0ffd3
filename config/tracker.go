package config

import (
	"fmt"

	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/experimentation"
	"github.com/hupe1980/mlfabric/experimentation/prometheus"
	"github.com/hupe1980/mlfabric/experimentation/sqlite"
	"github.com/hupe1980/mlfabric/logging"
)

// Tracker is an experimentation backend together with its release function.
type Tracker struct {
	core.Experimentation
	close func() error
}

// Close releases the backend's resources.
func (t *Tracker) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}

// ActiveRunID implements core.RunTracker when the backend does; otherwise it
// returns "".
func (t *Tracker) ActiveRunID() string {
	if rt, ok := t.Experimentation.(core.RunTracker); ok {
		return rt.ActiveRunID()
	}
	return ""
}

// OpenTracker creates the backend selected by the tracking section.
func (c *Config) OpenTracker(logger logging.Logger) (*Tracker, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	switch c.Tracking.Backend {
	case BackendMemory, "":
		return &Tracker{Experimentation: experimentation.NewInMemory(func(o *experimentation.InMemoryOptions) {
			o.Logger = logger
		})}, nil
	case BackendSQLite:
		store, err := sqlite.Open(c.Tracking.DSN, func(o *sqlite.Options) { o.Logger = logger })
		if err != nil {
			return nil, err
		}
		return &Tracker{Experimentation: store, close: store.Close}, nil
	case BackendPrometheus:
		exp, err := prometheus.New(func(o *prometheus.Options) {
			o.Namespace = c.Tracking.Namespace
			o.Logger = logger
		})
		if err != nil {
			return nil, err
		}
		return &Tracker{Experimentation: exp}, nil
	default:
		return nil, fmt.Errorf("%w: unknown tracking backend %q", core.ErrConfiguration, c.Tracking.Backend)
	}
}
