// Package config handles configuration loading and home directory resolution.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// StoreConfig holds connection settings for the underlying key-value store.
type StoreConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	Password         string `yaml:"password"` // #nosec G117 -- Password is an intentional field name for the store credential
	DB               int    `yaml:"db"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms"`
	OpTimeoutMs      int    `yaml:"op_timeout_ms"`
}

// Addr returns the host:port dial address.
func (s StoreConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// ConnectTimeout returns the connect timeout as a duration.
func (s StoreConfig) ConnectTimeout() time.Duration {
	return time.Duration(s.ConnectTimeoutMs) * time.Millisecond
}

// OpTimeout returns the per-operation timeout as a duration.
func (s StoreConfig) OpTimeout() time.Duration {
	return time.Duration(s.OpTimeoutMs) * time.Millisecond
}

// ResearchConfig holds settings for the guest-research API collaborator.
type ResearchConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // #nosec G117 -- APIKey is an intentional field name for the research API token
}

// StructurerConfig holds settings for the text-structuring LLM collaborator.
type StructurerConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // #nosec G117 -- APIKey is an intentional field name for the LLM API token
	Model   string `yaml:"model"`
}

// Config is the root per-home configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Namespace  string           `yaml:"namespace"`
	Research   ResearchConfig   `yaml:"research"`
	Structurer StructurerConfig `yaml:"structurer"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Host:             "127.0.0.1",
			Port:             6379,
			DB:               0,
			ConnectTimeoutMs: 3000,
			OpTimeoutMs:      2000,
		},
		Namespace: "default",
		Research: ResearchConfig{
			BaseURL: "https://api.qwello.com/v1",
		},
		Structurer: StructurerConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4",
		},
	}
}

// Load reads a per-home config.yaml from path and applies environment
// overrides. If the file does not exist it returns Default() (plus env
// overrides) with no error. Missing keys retain their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		applyDefaults(cfg)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyDefaults restores defaults for keys the yaml file set to zero values.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Store.Host == "" {
		cfg.Store.Host = def.Store.Host
	}
	if cfg.Store.Port == 0 {
		cfg.Store.Port = def.Store.Port
	}
	if cfg.Store.ConnectTimeoutMs == 0 {
		cfg.Store.ConnectTimeoutMs = def.Store.ConnectTimeoutMs
	}
	if cfg.Store.OpTimeoutMs == 0 {
		cfg.Store.OpTimeoutMs = def.Store.OpTimeoutMs
	}
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}
	if cfg.Research.BaseURL == "" {
		cfg.Research.BaseURL = def.Research.BaseURL
	}
	if cfg.Structurer.BaseURL == "" {
		cfg.Structurer.BaseURL = def.Structurer.BaseURL
	}
	if cfg.Structurer.Model == "" {
		cfg.Structurer.Model = def.Structurer.Model
	}
}

// applyEnv overlays environment variables onto the config. A .env file in
// the working directory is honored first (without clobbering variables
// already present in the environment), matching the original deployment's
// dotenv behavior.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Store.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Store.Port = p
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Store.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Store.DB = db
		}
	}
	if v := os.Getenv("QWELLO_API_KEY"); v != "" {
		c.Research.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Structurer.APIKey = v
	}
}

// ---------------------------------------------------------------------------
// Home resolution
// ---------------------------------------------------------------------------

// globalConfigPath returns the path to the global greenroom config file.
// This file stores only home (and future global settings).
func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "greenroom", "config.yaml"), nil
}

// normalizePath expands ~ and makes the path absolute.
func normalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(os.ExpandEnv(path))
}

// ResolveHome returns the greenroom home path and the source of the
// resolution. Priority: GREENROOM_HOME env → persisted global config →
// ~/.greenroom. source is one of "env", "config", or "default".
func ResolveHome() (path, source string) {
	if env := os.Getenv("GREENROOM_HOME"); env != "" {
		p, err := normalizePath(env)
		if err == nil {
			return p, "env"
		}
	}

	if persisted, ok, _ := GetPersistedHome(); ok {
		return persisted, "config"
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".greenroom"), "default"
}

// GetHome returns the resolved home path.
func GetHome() string {
	path, _ := ResolveHome()
	return path
}

// GetPersistedHome reads home from the global config.
// Returns ("", false, nil) if not set.
func GetPersistedHome() (string, bool, error) {
	cfgPath, err := globalConfigPath()
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return "", false, nil
	}

	val, _ := raw["home"].(string)
	val = strings.TrimSpace(val)
	if val == "" {
		return "", false, nil
	}

	p, err := normalizePath(val)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// SetPersistedHome normalizes path and persists it in the global config.
// Returns the normalized path.
func SetPersistedHome(path string) (string, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return "", err
	}

	cfgPath, err := globalConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", err
	}

	// Read existing global config, preserving any other keys.
	var raw map[string]any
	if data, err := os.ReadFile(cfgPath); err == nil {
		_ = yaml.Unmarshal(data, &raw)
	}
	if raw == nil {
		raw = make(map[string]any)
	}
	raw["home"] = normalized

	out, err := yaml.Marshal(raw)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(cfgPath, out, 0o600); err != nil {
		return "", err
	}
	return normalized, nil
}
