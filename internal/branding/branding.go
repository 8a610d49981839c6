// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package before building. Go's //go:embed
// bakes it into the binary, and every user-facing name, directory, and
// environment variable prefix is read from here.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	StateDir    string `yaml:"state_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	GitHubRepo  string `yaml:"github_repo"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:     "groundwork",
			DisplayName: "Groundwork",
			Description: "Discover, render, and merge project guides",
			HomeDir:     ".groundwork",
			StateDir:    ".groundwork",
			EnvPrefix:   "GROUNDWORK",
			GoModule:    "github.com/agentx-labs/groundwork",
			GitHubRepo:  "agentx-labs/groundwork",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "groundwork").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".groundwork").
func HomeDir() string { load(); return defaults.HomeDir }

// StateDir returns the directory, relative to a target project, that holds the
// workflow manifest, fact snapshot, and user-supplied facts.
func StateDir() string { load(); return defaults.StateDir }

// EnvPrefix returns the environment variable prefix (e.g., "GROUNDWORK").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// GitHubRepo returns the "owner/repo" string.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("WORKERS") → "GROUNDWORK_WORKERS".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
