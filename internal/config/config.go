// Package config holds runtime settings for the beam CLI, layered as
// defaults, then an optional YAML config file, then BEAM_* environment
// variables. Command-line flags are applied on top by the cmd layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all recognized options.
type Config struct {
	// BaseURL is the upload endpoint; the remote filename is appended to it.
	BaseURL string `yaml:"baseURL"`

	// RemotePrefix and RemoteSuffix are applied around the remote filename.
	RemotePrefix string `yaml:"remotePrefix"`
	RemoteSuffix string `yaml:"remoteSuffix"`

	// TempDir is where in-memory content is materialized before upload.
	TempDir string `yaml:"tempDir"`

	// AgentCommand and AgentArgs override transfer-agent auto-detection.
	AgentCommand string   `yaml:"agentCommand"`
	AgentArgs    []string `yaml:"agentArgs"`

	// KeyringPath is the OpenPGP keyring file used for recipient selection.
	KeyringPath string `yaml:"keyringPath"`

	// KeyReferenceSeparator joins name, email and fingerprint in key labels.
	KeyReferenceSeparator string `yaml:"keyReferenceSeparator"`

	// RegistryPath is the upload-history file; empty disables the registry.
	RegistryPath string `yaml:"registryPath"`

	// Clipboard controls whether result URLs are copied to the clipboard.
	Clipboard bool `yaml:"clipboard"`
}

// Defaults returns a Config populated with built-in defaults.
func Defaults() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		BaseURL:               "https://transfer.sh",
		TempDir:               os.TempDir(),
		KeyringPath:           filepath.Join(home, ".gnupg", "pubring.gpg"),
		KeyReferenceSeparator: " - ",
		RegistryPath:          filepath.Join(home, ".config", "beam", "uploads.yaml"),
		Clipboard:             true,
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "beam", "config.yaml")
}

// Load builds a Config from defaults, the YAML file at path, and the
// environment. If path is empty, the default location is used and a missing
// file is not an error; an explicitly given path must exist.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine; defaults apply.
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BEAM_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("BEAM_REMOTE_PREFIX"); v != "" {
		c.RemotePrefix = v
	}
	if v := os.Getenv("BEAM_REMOTE_SUFFIX"); v != "" {
		c.RemoteSuffix = v
	}
	if v := os.Getenv("BEAM_TEMP_DIR"); v != "" {
		c.TempDir = v
	}
	if v := os.Getenv("BEAM_AGENT"); v != "" {
		c.AgentCommand = v
	}
	if v := os.Getenv("BEAM_AGENT_ARGS"); v != "" {
		c.AgentArgs = strings.Fields(v)
	}
	if v := os.Getenv("BEAM_KEYRING"); v != "" {
		c.KeyringPath = v
	}
	if v := os.Getenv("BEAM_KEY_SEPARATOR"); v != "" {
		c.KeyReferenceSeparator = v
	}
	if v := os.Getenv("BEAM_REGISTRY"); v != "" {
		c.RegistryPath = v
	}
	if v := os.Getenv("BEAM_CLIPBOARD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Clipboard = b
		}
	}
}
