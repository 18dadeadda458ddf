// Package config loads the shell configuration from YAML or TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/shell"
	"github.com/marcelocantos/gsh/internal/variables"
)

// Config holds the global gsh configuration.
type Config struct {
	Prompt string `yaml:"prompt" toml:"prompt"`

	// Path is the colon-separated command search path.
	Path string `yaml:"path" toml:"path"`

	Log   LogConfig   `yaml:"log" toml:"log"`
	Audit AuditConfig `yaml:"audit" toml:"audit"`

	// Variables are seeded into the root scope; names listed in Immutable
	// are seeded read-only.
	Variables map[string]string `yaml:"variables" toml:"variables"`
	Immutable []string          `yaml:"immutable" toml:"immutable"`
	Aliases   map[string]string `yaml:"aliases" toml:"aliases"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // auto, text, json
}

// AuditConfig controls the audit log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Prompt: shell.DefaultPrompt,
		Path:   command.DefaultPath,
		Log: LogConfig{
			Level:  "warn",
			Format: "auto",
		},
		Audit: AuditConfig{
			Path: filepath.Join(home, ".local", "share", "gsh", "audit.jsonl"),
		},
	}
}

// Load reads the config from the standard location (~/.config/gsh/config.yaml).
// If the file doesn't exist, returns the default config.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config from the given path. Files ending in .toml are
// decoded as TOML, anything else as YAML.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Expand ~ in audit path.
	if strings.HasPrefix(cfg.Audit.Path, "~") {
		home, _ := os.UserHomeDir()
		cfg.Audit.Path = filepath.Join(home, cfg.Audit.Path[1:])
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks names and enumerations.
func (c *Config) Validate() error {
	for name := range c.Variables {
		if !variables.IsIdentifier(name) {
			return &variables.InvalidIdentifierError{Name: name}
		}
		if name == shell.EnvVariable {
			return fmt.Errorf("variable %q is reserved for the process environment", name)
		}
	}
	for _, name := range c.Immutable {
		if _, ok := c.Variables[name]; !ok {
			return fmt.Errorf("immutable variable %q has no value", name)
		}
	}
	for name, target := range c.Aliases {
		if !variables.IsIdentifier(name) {
			return &variables.InvalidIdentifierError{Name: name}
		}
		if strings.TrimSpace(target) == "" {
			return fmt.Errorf("alias %q has an empty target", name)
		}
	}
	switch c.Log.Format {
	case "", "auto", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Apply seeds scope with the prompt, search path, variables and aliases.
func (c *Config) Apply(scope *variables.Scope) error {
	if c.Prompt != "" {
		if err := scope.Set(shell.PromptVariable, c.Prompt); err != nil {
			return err
		}
	}
	if c.Path != "" {
		if err := scope.Set(command.PathVariable, c.Path); err != nil {
			return err
		}
	}

	immutable := make(map[string]bool, len(c.Immutable))
	for _, name := range c.Immutable {
		immutable[name] = true
	}
	for _, name := range sortedKeys(c.Variables) {
		var err error
		if immutable[name] {
			err = scope.SetImmutable(name, c.Variables[name])
		} else {
			err = scope.Set(name, c.Variables[name])
		}
		if err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(c.Aliases) {
		if err := scope.Set(command.AliasPrefix+name, c.Aliases[name]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gsh", "config.yaml")
}
