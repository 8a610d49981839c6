// Package logging builds the process logger. Logs always go to stderr so
// that reports written to stdout stay machine-readable.
package logging
