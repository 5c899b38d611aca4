package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the desired-state descriptor for a latchkey-managed login
// environment.
type Config struct {
	GPG      GPGConfig      `toml:"gpg"`
	SSH      SSHConfig      `toml:"ssh"`
	Store    StoreConfig    `toml:"store"`
	Packages PackagesConfig `toml:"packages"`
}

// GPGConfig identifies the key that backs the password store.
type GPGConfig struct {
	// KeyID is the GPG key ID or fingerprint. Empty means resolve at
	// setup time (auto-detect, then prompt).
	KeyID string `toml:"key_id"`
}

// SSHConfig lists the identities keychain loads at login.
type SSHConfig struct {
	Keys []string `toml:"keys"`

	// AgentTimeoutMinutes clears loaded identities after this many
	// minutes. Zero keeps them for the agent's lifetime.
	AgentTimeoutMinutes int `toml:"agent_timeout_minutes"`
}

// StoreConfig controls password-store seeding.
type StoreConfig struct {
	// Hosts get a git/<host> entry pre-created in the store.
	Hosts []string `toml:"hosts"`
}

// PackagesConfig lists the OS packages setup installs.
type PackagesConfig struct {
	Names []string `toml:"names"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		SSH: SSHConfig{
			Keys: []string{"~/.ssh/id_ed25519"},
		},
		Store: StoreConfig{
			Hosts: []string{"github.com", "gitlab.com"},
		},
		Packages: PackagesConfig{
			Names: []string{"keychain", "pass", "gnupg2", "pinentry-curses"},
		},
	}
}

// Dir returns the latchkey configuration directory.
func Dir() (string, error) {
	if dir := os.Getenv("LATCHKEY_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(base, "latchkey"), nil
}

// Path returns the path of the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file. A missing file yields the defaults, so
// first runs work without a `latchkey config init`.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config file, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a config file is present on disk.
func Exists() (bool, error) {
	path, err := Path()
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}
