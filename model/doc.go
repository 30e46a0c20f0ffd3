// Package model provides building blocks for trainable models run by the
// experiment runners.
//
// Base carries the name, hyperparameter bag and optional processors every
// model reports. PromptClassifier is a text classifier backed by a language
// model: Fit learns the label vocabulary and a handful of few-shot examples,
// Predict prompts a Completer per input and maps the answer onto a label.
//
// Providers (OpenAI, Anthropic) implement Completer in the sub-packages so
// models stay decoupled from vendor SDKs. MockCompleter serves tests and
// examples.
package model
