package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const ConfigFileName = "wanderlust.json"

// Server represents a Wanderlust API the CLI can talk to
type Server struct {
	URL   string `json:"url"`
	Alias string `json:"alias"`
}

// Config represents the CLI project configuration file
type Config struct {
	Servers []Server `json:"servers"`
}

// DefaultConfig returns a configuration pointing at a local API
func DefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{
				URL:   "http://localhost:8080",
				Alias: "local",
			},
		},
	}
}

// NormalizeURL validates an API address and strips any trailing slash.
// A bare host gets https:// prepended.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("server URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid server URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// FindConfigFile searches for wanderlust.json in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find wanderlust.json or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURL returns a server by its URL, ignoring a trailing slash
func (c *Config) GetServerByURL(raw string) (*Server, error) {
	want := strings.TrimRight(raw, "/")
	for i := range c.Servers {
		if strings.TrimRight(c.Servers[i].URL, "/") == want {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with URL '%s' not found", raw)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}

// AddServer appends a server unless its URL is already configured. The
// first server is called "production", later ones "server-N".
func (c *Config) AddServer(rawURL string) (*Server, bool, error) {
	u, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, false, err
	}
	if existing, err := c.GetServerByURL(u); err == nil {
		return existing, false, nil
	}

	alias := "production"
	if len(c.Servers) > 0 {
		alias = fmt.Sprintf("server-%d", len(c.Servers)+1)
	}
	c.Servers = append(c.Servers, Server{URL: u, Alias: alias})
	return &c.Servers[len(c.Servers)-1], true, nil
}
