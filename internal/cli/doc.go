// Package cli defines the Cobra command tree for the groundwork CLI. Each
// file registers one top-level command with the root command. Command
// implementations delegate to internal packages for business logic and only
// handle flag parsing, output formatting and exit codes.
package cli
