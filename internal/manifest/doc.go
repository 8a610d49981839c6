// Package manifest models the durable record of a workflow run: the ordered
// step list with statuses, per-file records for generated output, free-form
// metadata, and timestamps. Manifests are validated against an embedded JSON
// Schema on load and written atomically on save.
package manifest
