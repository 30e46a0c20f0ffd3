// Package experimentation houses concrete implementations of
// core.Experimentation plus the behaviour shared by all of them.
//
// InMemory records every call and is the default backend for tests,
// examples and dry runs. Multi fans calls out to several backends. Durable
// backends live in sub-packages (sqlite, prometheus) so minimal builds do not
// pull their dependencies.
//
// LogEvaluationResult is the default implementation of
// core.Experimentation.LogEvaluationResult; backends delegate to it.
package experimentation
