// Package config loads experiment configuration from YAML.
//
//	experiment_name: sentiment
//	log_experiment: true
//	artifact_location: ./artifacts
//	dataset:
//	  name: reviews
//	  version: "1"
//	tracking:
//	  backend: sqlite        # memory | sqlite | prometheus
//	  dsn: ./tracking.db
//	logging:
//	  level: info            # debug | info | warn | error
//	  format: json           # json | text
//	params:
//	  seed: 42
//
// Unknown fields are rejected. Validation failures wrap core.ErrConfiguration.
package config
