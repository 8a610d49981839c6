// Package project wires the fixed workflow that scaffolds a target project:
// discover facts, snapshot them, generate the guide and docs, keep state out
// of version control, and verify the result.
package project
