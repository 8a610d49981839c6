// Package render parses and renders document templates against a fact store.
//
// The language is deliberately small: placeholders ({{ key }} and
// {{ key | "default" }}) and truthiness conditionals ({{ if key }} ...
// {{ else }} ... {{ end }}) nested at most one level deep. Templates are
// validated when parsed, so authoring mistakes never surface mid-run.
package render
