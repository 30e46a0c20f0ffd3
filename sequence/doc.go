// Package sequence holds the data model and plug-ins for sequence labeling
// experiments (named entity recognition and similar token tagging tasks).
//
// A Token carries one or more typed tags ("ner", "pos", ...). The sequence
// runner relies on label isolation: before prediction the gold tag of every
// test token is moved to a shadow tag type (GoldLabelType) and the live tag is
// reset to EmptyLabel, so the evaluator only ever compares the model's output
// against the shadow value.
package sequence
