// Package config loads and persists the tms configuration.
//
// Configuration is read with viper from ~/.config/tms/config.toml (or the
// file named by --config / TMS_CONFIG_FILE) plus TMS_-prefixed environment
// variables. Write-back (bookmark management, tms config) serializes the
// same structure with go-toml.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	tmserrors "github.com/alisonjenkins/tmux-sessionizer/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	DisplayFullPath bool        `mapstructure:"display_full_path" toml:"display_full_path,omitempty"`
	SearchDirs      []SearchDir `mapstructure:"search_dirs" toml:"search_dirs,omitempty"`
	ExcludedDirs    []string    `mapstructure:"excluded_dirs" toml:"excluded_dirs,omitempty"`
	Bookmarks       []string    `mapstructure:"bookmarks" toml:"bookmarks,omitempty"`
	Scan            ScanConfig  `mapstructure:"scan" toml:"scan,omitempty"`
	Cache           CacheConfig `mapstructure:"cache" toml:"cache,omitempty"`
	Picker          Picker      `mapstructure:"picker" toml:"picker,omitempty"`
	GitHubProfiles  []Profile   `mapstructure:"github_profiles" toml:"github_profiles,omitempty"`
	Tmux            TmuxConfig  `mapstructure:"tmux" toml:"tmux,omitempty"`
}

// SearchDir is one search root with its traversal depth.
type SearchDir struct {
	Path  string `mapstructure:"path" toml:"path"`
	Depth int    `mapstructure:"depth" toml:"depth"`
}

// ScanConfig holds directory scanner tuning.
type ScanConfig struct {
	Workers        int `mapstructure:"workers" toml:"workers,omitempty"`                 // 0 means GOMAXPROCS
	HighWater      int `mapstructure:"high_water" toml:"high_water,omitempty"`           // outstanding-task throttle threshold
	TimeoutSeconds int `mapstructure:"timeout_seconds" toml:"timeout_seconds,omitempty"` // soft wall-clock budget
}

// CacheConfig holds the two cache-tier TTLs and the stale-fallback policy.
type CacheConfig struct {
	LocalHours   int  `mapstructure:"local_hours" toml:"local_hours,omitempty"`
	GitHubHours  int  `mapstructure:"github_hours" toml:"github_hours,omitempty"`
	StaleOnError bool `mapstructure:"stale_on_error" toml:"stale_on_error,omitempty"` // serve stale remote data on network failure
}

// Picker holds the key bindings forwarded to the interactive picker.
type Picker struct {
	SwitchModeKey string `mapstructure:"switch_mode_key" toml:"switch_mode_key,omitempty"`
	RefreshKey    string `mapstructure:"refresh_key" toml:"refresh_key,omitempty"`
}

// Profile is a named remote repository source.
type Profile struct {
	Name               string `mapstructure:"name" toml:"name"`
	CredentialsCommand string `mapstructure:"credentials_command" toml:"credentials_command,omitempty"`
	CloneRootPath      string `mapstructure:"clone_root_path" toml:"clone_root_path"`
	CloneMethod        string `mapstructure:"clone_method" toml:"clone_method,omitempty"` // "ssh" (default) or "https"
	ClientID           string `mapstructure:"client_id" toml:"client_id,omitempty"`       // OAuth app client ID for device flow
}

// TmuxConfig holds session naming configuration.
type TmuxConfig struct {
	SessionPrefix string `mapstructure:"session_prefix" toml:"session_prefix,omitempty"`
}

// ValidCloneMethods is the list of supported clone methods.
var ValidCloneMethods = []string{"", "ssh", "https"}

// Load loads the configuration from file and environment variables.
func Load() (*Config, error) {
	config := &Config{}

	setDefaults()

	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration and returns any validation errors.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for _, p := range c.GitHubProfiles {
		if p.Name == "" {
			return tmserrors.NewConfigError("github_profiles", "profile name is required")
		}
		if seen[p.Name] {
			return tmserrors.NewConfigError("github_profiles", "duplicate profile name: "+p.Name)
		}
		seen[p.Name] = true
		if p.CloneRootPath == "" {
			return tmserrors.NewConfigError("github_profiles", "clone_root_path is required for profile "+p.Name)
		}
		if !validCloneMethod(p.CloneMethod) {
			return tmserrors.NewConfigError("github_profiles",
				"invalid clone_method "+p.CloneMethod+" for profile "+p.Name+": must be ssh or https")
		}
		if p.CredentialsCommand == "" && p.ClientID == "" {
			return tmserrors.NewConfigError("github_profiles",
				"profile "+p.Name+" needs credentials_command or client_id")
		}
	}

	if c.Scan.Workers < 0 {
		return tmserrors.NewConfigError("scan.workers", "must be >= 0")
	}

	return nil
}

func validCloneMethod(method string) bool {
	for _, m := range ValidCloneMethods {
		if method == m {
			return true
		}
	}
	return false
}

// ResolvedSearchDirs expands and canonicalizes the configured search dirs,
// dropping paths that do not exist and deduplicating by canonical path.
// When the same path appears twice the greater depth wins, so the scan is
// never shallower than any one entry asked for.
func (c *Config) ResolvedSearchDirs() ([]SearchDir, error) {
	if len(c.SearchDirs) == 0 {
		return nil, tmserrors.NewConfigError("search_dirs",
			"at least one search directory must be configured (see tms config)")
	}

	byPath := make(map[string]int, len(c.SearchDirs))
	var order []string
	for _, dir := range c.SearchDirs {
		expanded, err := ExpandPath(dir.Path)
		if err != nil {
			continue
		}
		canonical, err := filepath.EvalSymlinks(expanded)
		if err != nil {
			continue // nonexistent roots are skipped, not fatal
		}
		if depth, ok := byPath[canonical]; ok {
			if dir.Depth > depth {
				byPath[canonical] = dir.Depth
			}
			continue
		}
		byPath[canonical] = dir.Depth
		order = append(order, canonical)
	}

	if len(order) == 0 {
		return nil, tmserrors.NewConfigError("search_dirs", "no configured search directory exists")
	}

	resolved := make([]SearchDir, 0, len(order))
	for _, path := range order {
		resolved = append(resolved, SearchDir{Path: path, Depth: byPath[path]})
	}
	return resolved, nil
}

// BookmarkPaths expands and canonicalizes the configured bookmarks,
// dropping paths that no longer exist.
func (c *Config) BookmarkPaths() []string {
	var paths []string
	for _, b := range c.Bookmarks {
		expanded, err := ExpandPath(b)
		if err != nil {
			continue
		}
		canonical, err := filepath.EvalSymlinks(expanded)
		if err != nil {
			continue
		}
		paths = append(paths, canonical)
	}
	return paths
}

// AddBookmark appends a bookmark if it is not already present.
func (c *Config) AddBookmark(path string) {
	for _, b := range c.Bookmarks {
		if b == path {
			return
		}
	}
	c.Bookmarks = append(c.Bookmarks, path)
}

// DeleteBookmark removes a bookmark. It reports whether one was removed.
func (c *Config) DeleteBookmark(path string) bool {
	for i, b := range c.Bookmarks {
		if b == path {
			c.Bookmarks = append(c.Bookmarks[:i], c.Bookmarks[i+1:]...)
			return true
		}
	}
	return false
}

// LocalTTL returns the local snapshot TTL.
func (c *Config) LocalTTL() time.Duration {
	return time.Duration(c.Cache.LocalHours) * time.Hour
}

// GitHubTTL returns the remote record TTL.
func (c *Config) GitHubTTL() time.Duration {
	return time.Duration(c.Cache.GitHubHours) * time.Hour
}

// ScanTimeout returns the soft wall-clock budget for one scan run.
// Zero disables the budget.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Scan.TimeoutSeconds) * time.Second
}

// Profile returns the named profile, or nil when it does not exist.
func (c *Config) Profile(name string) *Profile {
	for i := range c.GitHubProfiles {
		if c.GitHubProfiles[i].Name == name {
			return &c.GitHubProfiles[i]
		}
	}
	return nil
}

// Save writes the configuration back to the config file as TOML.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to serialize config to TOML")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}

	return nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	if path := os.Getenv("TMS_CONFIG_FILE"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".config", "tms", "config.toml"), nil
}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("display_full_path", false)
	viper.SetDefault("excluded_dirs", []string{})
	viper.SetDefault("bookmarks", []string{})

	viper.SetDefault("scan.workers", 0)
	viper.SetDefault("scan.high_water", 256)
	viper.SetDefault("scan.timeout_seconds", 30)

	viper.SetDefault("cache.local_hours", 24)
	viper.SetDefault("cache.github_hours", 24*30)
	viper.SetDefault("cache.stale_on_error", false)

	viper.SetDefault("picker.switch_mode_key", "tab")
	viper.SetDefault("picker.refresh_key", "f5")

	viper.SetDefault("tmux.session_prefix", "")
}
