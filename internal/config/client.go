package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ClientEnvPrefix prefixes the environment overrides of the terminal client,
// e.g. TODO_API_BASE_URL -> api.base_url.
const ClientEnvPrefix = "TODO_"

type ClientConfig struct {
	API   ClientAPIConfig   `koanf:"api"`
	Prefs ClientPrefsConfig `koanf:"prefs"`
	Log   ClientLogConfig   `koanf:"log"`
}

type ClientAPIConfig struct {
	BaseURL string `koanf:"base_url"`
	Timeout int    `koanf:"timeout"` // seconds
}

func (c ClientAPIConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

type ClientPrefsConfig struct {
	Path string `koanf:"path"` // empty = user config dir
}

type ClientLogConfig struct {
	File  string `koanf:"file"` // empty = no logging
	Level string `koanf:"level"`
}

func clientDefaults() map[string]interface{} {
	return map[string]interface{}{
		"api": map[string]interface{}{
			"base_url": "http://localhost:5000/api/todos",
			"timeout":  10,
		},
		"prefs": map[string]interface{}{
			"path": "",
		},
		"log": map[string]interface{}{
			"file":  "",
			"level": "info",
		},
	}
}

// LoadClient layers defaults, an optional YAML file and TODO_* env vars.
func LoadClient(configPath string) (*ClientConfig, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(clientDefaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(ClientEnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, ClientEnvPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg ClientConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Prefs.Path = expandPath(cfg.Prefs.Path)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
