// Package pipeline runs the motion-to-actions flow end to end.
//
// It wires together stages from L2-L6 into one batch run: train rulesets
// against a reference timeline, mask and filter them, synthesise actions
// over the generation window and optionally smooth the result. The
// pipeline does not own domain logic; it delegates to layer packages.
//
// This package is the composition root: it imports from layer packages
// and config, but none of those packages import pipeline/.
package pipeline
