// Package config manages user-level settings stored at
// ~/.groundwork/config.yaml, overridable through GROUNDWORK_* environment
// variables. Every key has a registered default so a missing file is valid.
package config
