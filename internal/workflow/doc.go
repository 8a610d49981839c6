// Package workflow runs an ordered list of steps against a persisted
// manifest. Progress survives interruption: completed, skipped and
// non-blocking failed steps are never re-executed, a failed blocking step
// halts the run until it is retried, and a finished run is a no-op unless an
// update pass is requested.
//
// The manifest is saved atomically after every step transition, so a crash
// or cancellation leaves a manifest that reflects exactly the steps that
// finished.
package workflow
