// Package scaffold renders catalog templates and merges the output into the
// target tree. Files are processed concurrently on a bounded worker pool; each
// worker owns exactly one destination path, and results are collected after
// the pool drains. A file whose merge fails is left untouched while the
// others proceed.
package scaffold
