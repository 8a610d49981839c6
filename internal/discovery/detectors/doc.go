// Package detectors holds the built-in discovery detectors. Each detector
// reads a small, bounded set of files through an afero.Fs rooted at the
// target project ("/" is the project root) and proposes facts about it.
package detectors
