// Package config provides hierarchical configuration management for issuelog using koanf.
// Configuration is loaded with priority: environment variables > project config (.issuelog/config.yml)
// > user config (~/.config/issuelog/config.yml) > defaults. Command-line flags are applied on top
// by the cli package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "ISSUELOG_"

// TokenEnvVar is consulted for the access token when no token is configured.
const TokenEnvVar = "GITHUB_TOKEN"

// Configuration represents the issuelog configuration
type Configuration struct {
	Owner    string   `koanf:"owner" yaml:"owner"`
	Repo     string   `koanf:"repo" yaml:"repo"`
	Username string   `koanf:"username" yaml:"username"`
	Password string   `koanf:"password" yaml:"password"`
	Token    string   `koanf:"token" yaml:"token"`
	BaseURL  string   `koanf:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Labels   []string `koanf:"labels" yaml:"labels"`

	// File is the changelog the output is prepended to. Its modification
	// time is the cutoff when no since is given.
	File     string `koanf:"file" yaml:"file"`
	Header   string `koanf:"header" yaml:"header"`
	Template string `koanf:"template" yaml:"template"`
	Format   string `koanf:"format" yaml:"format" validate:"oneof=markdown html"`

	// Cache is the event cache path. A .db or .sqlite suffix selects the
	// SQLite backend; empty disables caching.
	Cache string `koanf:"cache" yaml:"cache"`

	Merged      bool   `koanf:"merged" yaml:"merged"`
	MergeCheck  string `koanf:"merge_check" yaml:"merge_check" validate:"oneof=events api"`
	PerPage     int    `koanf:"per_page" yaml:"per_page" validate:"min=1,max=100"`
	Parallelism int    `koanf:"parallelism" yaml:"parallelism" validate:"min=1"`

	LogLevel  string `koanf:"log_level" yaml:"log_level" validate:"oneof=trace debug info warn error disabled"`
	LogFormat string `koanf:"log_format" yaml:"log_format" validate:"oneof=auto console json"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .issuelog/config.yml)
	ProjectConfigPath string
	// UserConfigPath overrides the user config path (default: ~/.config/issuelog/config.yml)
	UserConfigPath string
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	loadDefaults(k)

	userPath := opts.UserConfigPath
	if userPath == "" {
		userPath, _ = UserConfigPath()
	}
	if fileExists(userPath) {
		if err := loadYAMLConfig(k, userPath, "user"); err != nil {
			return nil, err
		}
	}

	projectPath := opts.ProjectConfigPath
	if projectPath == "" {
		projectPath = ProjectConfigPath()
	}
	if fileExists(projectPath) {
		if err := loadYAMLConfig(k, projectPath, "project"); err != nil {
			return nil, err
		}
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Token == "" {
		cfg.Token = os.Getenv(TokenEnvVar)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.Cache = expandHomePath(cfg.Cache)
	cfg.File = expandHomePath(cfg.File)
	cfg.Template = expandHomePath(cfg.Template)

	return &cfg, nil
}

// Masked returns a copy with credentials replaced by a placeholder, for display.
func (c Configuration) Masked() Configuration {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Password = mask(c.Password)
	c.Token = mask(c.Token)
	c.Labels = append([]string(nil), c.Labels...)
	return c
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys.
// Example: ISSUELOG_PER_PAGE -> per_page. Labels are comma separated.
func envTransform(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "labels" {
		var labels []string
		for _, l := range strings.Split(value, ",") {
			if l = strings.TrimSpace(l); l != "" {
				labels = append(labels, l)
			}
		}
		return key, labels
	}
	return key, value
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
