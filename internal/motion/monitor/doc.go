// Package monitor renders report artefacts for a training run: PNG
// heatmaps of the learned rules, a motion energy plot, and an HTML
// timeline comparing reference and generated actions.
//
// Nothing in the motion layers imports this package. The CLI calls it
// after the pipeline has finished.
package monitor
