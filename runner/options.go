package runner

import (
	"fmt"

	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/logging"
	"github.com/hupe1980/mlfabric/sequence"
)

// Options holds the configuration passed to New and NewSequence.
type Options struct {
	// LogExperiment enables tracking. Defaults to true.
	LogExperiment bool
	// Experiment is the tracking backend. Required when LogExperiment is set.
	Experiment core.Experimentation
	// ExperimentName selects the experiment. Required when LogExperiment is set.
	ExperimentName string
	// ArtifactLocation is forwarded to SetExperiment.
	ArtifactLocation string

	// DatasetName and DatasetVersion are logged as identity params. They
	// default to the values reported by DataLoader.
	DatasetName    string
	DatasetVersion string
	DataLoader     core.DataLoader

	// Params holds free-form parameters logged verbatim as one batch.
	Params core.Params

	// Label types used by SequenceRunner.
	LabelType     string
	GoldLabelType string
	EmptyLabel    string

	Logger logging.Logger
}

func defaultOptions() Options {
	return Options{
		LogExperiment: true,
		LabelType:     sequence.LabelType,
		GoldLabelType: sequence.GoldLabelType,
		EmptyLabel:    sequence.EmptyLabel,
		Logger:        logging.NoOpLogger{},
	}
}

func buildOptions(optFns []func(o *Options)) (Options, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.DataLoader != nil {
		if opts.DatasetName == "" {
			opts.DatasetName = opts.DataLoader.DatasetName()
		}
		if opts.DatasetVersion == "" {
			opts.DatasetVersion = opts.DataLoader.DatasetVersion()
		}
	}
	if opts.LogExperiment {
		if opts.Experiment == nil {
			return opts, fmt.Errorf("%w: experimentation backend not set, cannot log experiment", core.ErrConfiguration)
		}
		if opts.ExperimentName == "" {
			return opts, fmt.Errorf("%w: experiment name must be set for the experimentation backend", core.ErrConfiguration)
		}
	}
	return opts, nil
}
