// Package platform provides filesystem helpers that behave the same on every
// OS: atomic file replacement, backups, and permission handling that is a
// no-op on Windows. All helpers operate on an afero.Fs so callers can run them
// against the real disk or an in-memory tree.
package platform
