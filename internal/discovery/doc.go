// Package discovery runs detectors against a target project and folds their
// findings into a facts.Store.
//
// Detectors declare the keys they produce and the keys they need. The engine
// orders them into waves from those declarations, runs each wave on a bounded
// worker pool, and merges results on the calling goroutine once the wave is
// done. Detector failures are recorded in the Report and never abort discovery.
package discovery
