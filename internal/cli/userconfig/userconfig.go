// Package userconfig keeps per-user CLI state in ~/.config/wanderlust/config.json:
// the selected server and the servers used most recently.
package userconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const (
	configDirName  = "wanderlust"
	configFileName = "config.json"

	maxRecent = 5
)

// UserConfig is the on-disk layout
type UserConfig struct {
	SelectedServerURL string   `json:"selected_server_url"`
	RecentServerURLs  []string `json:"recent_server_urls,omitempty"`
}

// touch makes url the selection and moves it to the front of the recent list
func (c *UserConfig) touch(url string) {
	c.SelectedServerURL = url
	c.RecentServerURLs = slices.DeleteFunc(c.RecentServerURLs, func(u string) bool { return u == url })
	c.RecentServerURLs = append([]string{url}, c.RecentServerURLs...)
	if len(c.RecentServerURLs) > maxRecent {
		c.RecentServerURLs = c.RecentServerURLs[:maxRecent]
	}
}

// forget drops url from the selection and the recent list
func (c *UserConfig) forget(url string) {
	if c.SelectedServerURL == url {
		c.SelectedServerURL = ""
	}
	c.RecentServerURLs = slices.DeleteFunc(c.RecentServerURLs, func(u string) bool { return u == url })
}

// GetConfigDir returns ~/.config/wanderlust, shared with session storage
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", configDirName), nil
}

// GetConfigPath returns the path of config.json
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the file. A missing file is an empty config.
func Load() (*UserConfig, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}
	return &cfg, nil
}

// Save replaces the file through a temp file so readers never see a partial write
func Save(cfg *UserConfig) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), configFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace user config file: %w", err)
	}
	return nil
}

func update(fn func(*UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	fn(cfg)
	return Save(cfg)
}

// SetSelectedServer selects serverURL and records it as the most recent server.
// An empty URL clears the selection only.
func SetSelectedServer(serverURL string) error {
	return update(func(cfg *UserConfig) {
		if serverURL == "" {
			cfg.SelectedServerURL = ""
			return
		}
		cfg.touch(serverURL)
	})
}

// ForgetServer removes every trace of serverURL, used when it left the project file
func ForgetServer(serverURL string) error {
	return update(func(cfg *UserConfig) { cfg.forget(serverURL) })
}

// GetSelectedServer returns the selected server URL, or "" when none is set
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.SelectedServerURL, nil
}

// RecentServers returns server URLs, most recently selected first
func RecentServers() ([]string, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	return cfg.RecentServerURLs, nil
}
