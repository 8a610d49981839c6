package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/agentx-labs/groundwork/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys.
const (
	KeyWorkers     = "workers"
	KeyCatalogDir  = "catalog_dir"
	KeyBackup      = "backup"
	KeySnapshot    = "snapshot"
	KeyTools       = "tools"
	KeyToolTimeout = "tool_timeout"
	KeyLogLevel    = "log_level"
	KeyLogFormat   = "log_format"
)

var defaults = map[string]interface{}{
	KeyWorkers:     4,
	KeyCatalogDir:  "",
	KeyBackup:      "on-conflict",
	KeySnapshot:    true,
	KeyTools:       []string{"git", "node", "npm", "go", "cargo", "python", "docker", "make"},
	KeyToolTimeout: 5 * time.Second,
	KeyLogLevel:    "warn",
	KeyLogFormat:   "console",
}

// Settings is the resolved configuration.
type Settings struct {
	Workers     int           `mapstructure:"workers"`
	CatalogDir  string        `mapstructure:"catalog_dir"`
	Backup      string        `mapstructure:"backup"`
	Snapshot    bool          `mapstructure:"snapshot"`
	Tools       []string      `mapstructure:"tools"`
	ToolTimeout time.Duration `mapstructure:"tool_timeout"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
}

// Dir returns the path to the config directory (~/.groundwork/), or the
// directory named by GROUNDWORK_HOME.
func Dir() string {
	if dir := os.Getenv(branding.EnvVar("HOME")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.groundwork/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Config wraps a viper instance bound to one config file.
type Config struct {
	v    *viper.Viper
	fs   afero.Fs
	path string
}

// New returns a Config reading path on fsys, with defaults registered and
// environment overrides enabled.
func New(fsys afero.Fs, path string) *Config {
	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return &Config{v: v, fs: fsys, path: path}
}

// Load builds a Config from the user's config file on disk.
func Load() (*Config, error) {
	c := New(afero.NewOsFs(), FilePath())
	if err := c.Read(); err != nil {
		return nil, err
	}
	return c, nil
}

// Read loads the config file. A missing file is not an error.
func (c *Config) Read() error {
	exists, err := afero.Exists(c.fs, c.path)
	if err != nil {
		return fmt.Errorf("checking config file %s: %w", c.path, err)
	}
	if !exists {
		return nil
	}
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", c.path, err)
	}
	return nil
}

// Settings decodes the resolved configuration.
func (c *Config) Settings() (Settings, error) {
	var s Settings
	if err := c.v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding config: %w", err)
	}
	if s.Workers < 1 {
		return Settings{}, fmt.Errorf("%s must be at least 1, got %d", KeyWorkers, s.Workers)
	}
	if s.ToolTimeout <= 0 {
		return Settings{}, fmt.Errorf("%s must be positive, got %s", KeyToolTimeout, s.ToolTimeout)
	}
	return s, nil
}

// Viper exposes the underlying instance for flag binding.
func (c *Config) Viper() *viper.Viper { return c.v }

// Keys returns every known configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Known reports whether key is a configuration key.
func Known(key string) bool {
	_, ok := defaults[key]
	return ok
}

// Get returns a config value by key, formatted for display.
func (c *Config) Get(key string) string {
	if key == KeyTools {
		return strings.Join(c.v.GetStringSlice(key), ",")
	}
	return c.v.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func (c *Config) Set(key, value string) error {
	if !Known(key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if key == KeyTools {
		c.v.Set(key, splitList(value))
	} else {
		c.v.Set(key, value)
	}
	if _, err := c.Settings(); err != nil {
		return err
	}

	if err := c.v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
