package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// userConfig holds user-level settings read from the TOML config file. It
// never reaches the core packages; values are passed down as plain
// arguments.
type userConfig struct {
	User    userIdentity  `toml:"user"`
	Signing signingConfig `toml:"signing"`
}

type userIdentity struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type signingConfig struct {
	Key    string `toml:"key"`
	Always bool   `toml:"always"`
}

// userConfigPath returns the config file location: $GRIT_CONFIG when set,
// otherwise ~/.config/grit/config.toml.
func userConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv("GRIT_CONFIG")); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "grit", "config.toml"), nil
}

// loadUserConfig reads the user config file. A missing file is not an
// error; callers get zero values and fall back to environment defaults.
func loadUserConfig() (*userConfig, error) {
	path, err := userConfigPath()
	if err != nil {
		return nil, err
	}

	var cfg userConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("load user config %q: %w", path, err)
	}
	return &cfg, nil
}

// authorString builds the "Name <email>" identity from config, falling back
// to $USER and finally "unknown".
func (c *userConfig) authorString() string {
	name := strings.TrimSpace(c.User.Name)
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "unknown"
	}
	if email := strings.TrimSpace(c.User.Email); email != "" {
		return fmt.Sprintf("%s <%s>", name, email)
	}
	return name
}
