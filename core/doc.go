// Package core provides the foundational contracts shared by every mlfabric
// component. It defines the abstractions for:
//
//   - Models (trainable units exposing Fit / Predict and a hyperparameter bag)
//   - Evaluators and evaluation results (scalar and step indexed)
//   - Experimentation backends (runs, params, metrics, image artifacts)
//   - Loggable collaborators reporting their own params and metrics
//   - Data loaders and processor carriers
//
// Implementation concerns (concrete backends, models, runners) live in other
// packages. Runners query optional behaviour through small capability
// interfaces (Loggable, StepResult, Processors) instead of type hierarchies,
// so any collaborator can opt in by implementing a method set.
package core
