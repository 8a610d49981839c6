// Package verify checks a target tree against its manifest without touching
// it. Each check produces findings at one of three levels, and the overall
// outcome is the most severe level seen.
package verify
