// Package config provides project-level configuration for stack.
// It supports loading configuration from .stack/config.yaml files with
// proper precedence: CLI flags > environment > project config > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name for stack configuration
	ConfigDir = ".stack"
	// ConfigFile is the name of the configuration file
	ConfigFile = "config.yaml"
	// ConfigPath is the full path to the config file relative to project root
	ConfigPath = ConfigDir + "/" + ConfigFile

	// DefaultRemote is the remote that stack branches are pushed to.
	DefaultRemote = "origin"
	// DefaultIdentityFile is the SSH private key used after the agent, relative to $HOME.
	DefaultIdentityFile = ".ssh/id_rsa"

	// DescriptionEditor asks the user for the changeset description in an editor.
	DescriptionEditor = "editor"
	// DescriptionCommit parses the HEAD commit message as the changeset description.
	DescriptionCommit = "commit"
)

// ProjectConfig represents the project-level configuration for stack.
// It provides defaults that can be overridden by flags and environment.
type ProjectConfig struct {
	// Remote is the remote that branches are pushed to (default "origin")
	Remote string `yaml:"remote,omitempty"`

	// Editor is consulted after VISUAL and EDITOR and before "vi"
	Editor string `yaml:"editor,omitempty"`

	// LogLevel is the default log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level,omitempty"`

	// Description selects where the changeset description comes from.
	// Values: "editor" (default), "commit"
	Description string `yaml:"description,omitempty"`

	// GitHub API overrides
	GitHub GitHubConfig `yaml:"github,omitempty"`

	// SSH authentication overrides
	SSH SSHConfig `yaml:"ssh,omitempty"`
}

// GitHubConfig contains GitHub API settings.
type GitHubConfig struct {
	// BaseURL is the API base URL, for GitHub Enterprise installations
	BaseURL string `yaml:"base_url,omitempty"`
}

// SSHConfig contains SSH key settings.
type SSHConfig struct {
	// IdentityFile is the private key path relative to $HOME
	IdentityFile string `yaml:"identity_file,omitempty"`
}

// Load loads the project configuration from the given directory.
// It searches for .stack/config.yaml in the directory and its parents.
//
// If no config file is found, it returns a zero config and nil error.
// If a config file is found but cannot be parsed, it returns an error.
func Load(dir string) (*ProjectConfig, error) {
	configPath, err := findConfigPath(dir)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return &ProjectConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads the project configuration from the current working directory.
func LoadFromCurrentDir() (*ProjectConfig, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return Load(dir)
}

// findConfigPath searches for .stack/config.yaml in dir and its parent directories.
// It returns the full path to the config file, or empty string if not found.
func findConfigPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	for {
		configPath := filepath.Join(absDir, ConfigPath)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parentDir := filepath.Dir(absDir)
		if parentDir == absDir {
			return "", nil
		}
		absDir = parentDir
	}
}

// Validate checks enumerated fields.
func (c *ProjectConfig) Validate() error {
	switch c.Description {
	case "", DescriptionEditor, DescriptionCommit:
	default:
		return fmt.Errorf("description must be %q or %q, got %q", DescriptionEditor, DescriptionCommit, c.Description)
	}
	if filepath.IsAbs(c.SSH.IdentityFile) {
		return fmt.Errorf("ssh.identity_file must be relative to $HOME, got %q", c.SSH.IdentityFile)
	}
	return nil
}

// ResolveString returns the effective value for a string configuration field.
// Precedence: cliValue > configValue > defaultValue.
// Returns the effective value and its source ("cli", "config", or "default").
func (c *ProjectConfig) ResolveString(cliValue, configValue, defaultValue string) (string, string) {
	if cliValue != "" {
		return cliValue, "cli"
	}
	if configValue != "" {
		return configValue, "config"
	}
	return defaultValue, "default"
}

// ResolveLogLevel returns the effective log level and its source.
func (c *ProjectConfig) ResolveLogLevel(cliValue, defaultValue string) (string, string) {
	return c.ResolveString(cliValue, c.LogLevel, defaultValue)
}

// ResolveRemote returns the remote to push to.
func (c *ProjectConfig) ResolveRemote() string {
	v, _ := c.ResolveString("", c.Remote, DefaultRemote)
	return v
}

// ResolveDescription returns the changeset description source.
func (c *ProjectConfig) ResolveDescription() string {
	v, _ := c.ResolveString("", c.Description, DescriptionEditor)
	return v
}

// ResolveIdentityFile returns the SSH key path relative to $HOME.
func (c *ProjectConfig) ResolveIdentityFile() string {
	v, _ := c.ResolveString("", c.SSH.IdentityFile, DefaultIdentityFile)
	return v
}
