package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/logging"
	"gopkg.in/yaml.v3"
)

// Tracking backends.
const (
	BackendMemory     = "memory"
	BackendSQLite     = "sqlite"
	BackendPrometheus = "prometheus"
)

// Config is an experiment configuration document.
type Config struct {
	ExperimentName   string         `yaml:"experiment_name" validate:"required_if=LogExperiment true"`
	LogExperiment    bool           `yaml:"log_experiment"`
	ArtifactLocation string         `yaml:"artifact_location"`
	Dataset          Dataset        `yaml:"dataset"`
	Tracking         Tracking       `yaml:"tracking"`
	Logging          Logging        `yaml:"logging"`
	Params           map[string]any `yaml:"params"`
}

// Dataset identifies the data of a run.
type Dataset struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Tracking selects the experimentation backend.
type Tracking struct {
	Backend string `yaml:"backend" validate:"oneof=memory sqlite prometheus"`
	// DSN is the database path of the sqlite backend.
	DSN string `yaml:"dsn" validate:"required_if=Backend sqlite"`
	// Namespace prefixes Prometheus series.
	Namespace string `yaml:"namespace"`
}

// Logging configures the structured logger.
type Logging struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// Default returns the configuration applied before a document is decoded.
func Default() Config {
	return Config{
		LogExperiment: true,
		Tracking:      Tracking{Backend: BackendMemory, Namespace: "mlfabric"},
		Logging:       Logging{Level: "info", Format: "json"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and validates a single YAML document on top of Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse config: %w", core.ErrConfiguration, err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, fmt.Errorf("%w: parse config: multiple YAML documents are not supported", core.ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: parse config: %w", core.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", core.ErrConfiguration, strings.Join(msgs, "; "))
}

// Logger builds the structured logger described by the configuration.
func (c *Config) Logger(w io.Writer) (*logging.FabricLogger, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = level
	cfg.Format = c.Logging.Format
	cfg.Output = w
	cfg.Component = "mlfabric"
	return logging.NewLogger(cfg), nil
}
