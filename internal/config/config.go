// Package config loads kild's TOML configuration.
//
// Configuration lives at ~/.kild/config.toml. Every field has a
// default, so a missing file is not an error. The KILD_SESSIONS_DIR
// environment variable overrides the session directory for tests and
// sandboxed setups.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = 1

// Config is the root of the TOML configuration.
type Config struct {
	Version  int            `toml:"version"`
	Session  SessionConfig  `toml:"session"`
	Agent    AgentConfig    `toml:"agent"`
	Terminal TerminalConfig `toml:"terminal"`
}

// SessionConfig controls where session state lives.
type SessionConfig struct {
	// Dir holds session records and sidecar files. Empty means the
	// default of ~/.kild/sessions.
	Dir string `toml:"dir"`
}

// AgentConfig selects the default agent backend.
type AgentConfig struct {
	Default string `toml:"default"`
}

// TerminalConfig selects the default terminal backend.
type TerminalConfig struct {
	Default string `toml:"default"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version:  CurrentVersion,
		Agent:    AgentConfig{Default: "claude"},
		Terminal: TerminalConfig{Default: "tmux"},
	}
}

// Path returns the config file location, ~/.kild/config.toml.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".kild", "config.toml"), nil
}

// Load reads the config file from its default location, returning
// defaults when the file does not exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path. A missing file yields the
// defaults; a malformed file is an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		// Unknown keys are tolerated so older binaries can read newer
		// configs, but flag the first one for typo detection.
		fmt.Fprintf(os.Stderr, "warning: unknown config key %s in %s\n", undecoded[0], path)
	}
	return cfg, nil
}

// SessionsDir returns the directory for session records, in order of
// precedence: KILD_SESSIONS_DIR, the configured session.dir, then
// ~/.kild/sessions.
func (c *Config) SessionsDir() (string, error) {
	if dir := os.Getenv("KILD_SESSIONS_DIR"); dir != "" {
		return dir, nil
	}
	if c.Session.Dir != "" {
		return c.Session.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".kild", "sessions"), nil
}

// WorktreesDir returns the directory session worktrees are created
// under, a sibling of the sessions dir.
func (c *Config) WorktreesDir() (string, error) {
	sessions, err := c.SessionsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(sessions), "worktrees"), nil
}
