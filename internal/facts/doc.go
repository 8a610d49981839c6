// Package facts holds the structured record of what is known about a target
// project. Each fact carries a typed value, a confidence level, and the source
// that produced it. A Store accepts writes during discovery under a
// confidence-ordered conflict policy and is frozen before any template reads it.
package facts
