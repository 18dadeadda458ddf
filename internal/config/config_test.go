package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/shell"
	"github.com/marcelocantos/gsh/internal/variables"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != shell.DefaultPrompt || cfg.Path != command.DefaultPath {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Log.Level != "warn" || cfg.Audit.Enabled {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
prompt: "$user> "
path: /vfs:/
log:
  level: debug
  format: json
audit:
  enabled: true
  path: ~/gsh/audit.jsonl
variables:
  user: ada
  site: prod
immutable: [site]
aliases:
  ll: cat -n
`)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != "$user> " || cfg.Path != "/vfs:/" {
		t.Errorf("unexpected prompt/path %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
	home, _ := os.UserHomeDir()
	if !cfg.Audit.Enabled || cfg.Audit.Path != filepath.Join(home, "gsh", "audit.jsonl") {
		t.Errorf("unexpected audit config %+v", cfg.Audit)
	}
	if cfg.Variables["user"] != "ada" || cfg.Aliases["ll"] != "cat -n" {
		t.Errorf("unexpected variables/aliases %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
prompt = "% "
immutable = ["site"]

[log]
level = "info"

[variables]
site = "prod"

[aliases]
hi = "echo hi"
`)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != "% " || cfg.Log.Level != "info" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Log.Format != "auto" {
		t.Errorf("unset keys keep defaults, got format %q", cfg.Log.Format)
	}
	if cfg.Variables["site"] != "prod" || cfg.Aliases["hi"] != "echo hi" {
		t.Errorf("unexpected tables %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"bad yaml", "c.yaml", "prompt: [unclosed"},
		{"bad toml", "c.toml", "prompt = "},
		{"bad identifier", "c.yaml", "variables:\n  1x: y\n"},
		{"immutable without value", "c.yaml", "immutable: [ghost]\n"},
		{"empty alias", "c.yaml", "aliases:\n  x: ' '\n"},
		{"bad format", "c.yaml", "log:\n  format: xml\n"},
		{"reserved env", "c.yaml", "variables:\n  env: x\n"},
		{"reserved env toml", "c.toml", "[variables]\nenv = \"x\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFrom(writeFile(t, tt.file, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestApply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prompt = "> "
	cfg.Path = "/vfs:/"
	cfg.Variables = map[string]string{"user": "ada", "site": "prod"}
	cfg.Immutable = []string{"site"}
	cfg.Aliases = map[string]string{"ll": "cat -n"}

	root := variables.NewRoot()
	if err := cfg.Apply(root); err != nil {
		t.Fatal(err)
	}
	checks := map[string]string{
		shell.PromptVariable:       "> ",
		command.PathVariable:       "/vfs:/",
		"user":                     "ada",
		"site":                     "prod",
		command.AliasPrefix + "ll": "cat -n",
	}
	for name, want := range checks {
		if got := root.String(name, ""); got != want {
			t.Errorf("%s: got %q, want %q", name, got, want)
		}
	}
	if root.IsMutable("site") || !root.IsMutable("user") {
		t.Error("only site should be immutable")
	}

	// Applying again trips over the immutable variable.
	err := cfg.Apply(root)
	var ie *variables.ImmutableVariableError
	if !errors.As(err, &ie) {
		t.Errorf("expected ImmutableVariableError, got %v", err)
	}
}

func TestApplyCannotReplaceEnv(t *testing.T) {
	root := variables.NewRoot()
	if _, err := shell.New(shell.Options{Registry: command.NewRegistry(), Variables: root, Environ: []string{"A=1"}}); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Variables = map[string]string{shell.EnvVariable: "x"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected env to be rejected")
	}
	var ie *variables.ImmutableVariableError
	if err := cfg.Apply(root); !errors.As(err, &ie) {
		t.Errorf("expected ImmutableVariableError, got %v", err)
	}
	if env, _ := root.Get(shell.EnvVariable); env.(map[string]string)["A"] != "1" {
		t.Error("env must keep the process environment")
	}
}

func TestConfigPath(t *testing.T) {
	if !strings.HasSuffix(ConfigPath(), filepath.Join(".config", "gsh", "config.yaml")) {
		t.Errorf("unexpected path %q", ConfigPath())
	}
}
