package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	AppName = "buddy-mcp"

	DefaultAddr      = ":8080"
	DefaultKeepAlive = 30 * time.Second

	DriverPostgREST = "postgrest"
	DriverSQLite    = "sqlite"
)

// Config holds the application configuration.
// Credentials are not validated here; each backend reports missing
// credentials when one of its tools is invoked.
type Config struct {
	GitHub   GitHub   `yaml:"github"`
	Supabase Supabase `yaml:"supabase"`
	Vercel   Vercel   `yaml:"vercel"`
	Server   Server   `yaml:"server"`
	Debug    bool     `yaml:"debug"`
}

// GitHub holds source-hosting credentials. Either Token or App may be set.
type GitHub struct {
	Token   string    `yaml:"token"`
	App     GitHubApp `yaml:"app"`
	BaseURL string    `yaml:"base_url"`
}

// GitHubApp holds GitHub App specific configuration
type GitHubApp struct {
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKey     string `yaml:"private_key"`
}

// Configured reports whether all three GitHub App fields are present.
func (a GitHubApp) Configured() bool {
	return a.AppID != 0 && a.InstallationID != 0 && a.PrivateKey != ""
}

// Supabase holds the relational store endpoint and service credential.
type Supabase struct {
	URL            string `yaml:"url"`
	ServiceRoleKey string `yaml:"service_role_key"`
	Schema         string `yaml:"schema"`
	Driver         string `yaml:"driver"`
	DatabasePath   string `yaml:"database_path"`
}

// Vercel holds the deployment platform credential.
type Vercel struct {
	Token   string `yaml:"token"`
	TeamID  string `yaml:"team_id"`
	BaseURL string `yaml:"base_url"`
}

// Server holds HTTP transport settings.
type Server struct {
	Addr      string        `yaml:"addr"`
	KeepAlive time.Duration `yaml:"keepalive"`
}

// GetConfig loads configuration from file and environment variables.
func GetConfig(customPath string) (*Config, error) {
	cfg := &Config{}

	// 1. Load from YAML file
	configPath, err := ResolveConfigPath(customPath)
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err == nil {
			// Expand env vars before unmarshalling
			expanded := os.ExpandEnv(string(file))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) || customPath != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	// 2. Override with environment variables
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.GitHub.Token, "GITHUB_TOKEN")
	setString(&cfg.GitHub.BaseURL, "GITHUB_BASE_URL")
	setString(&cfg.GitHub.App.PrivateKey, "GITHUB_PRIVATE_KEY")
	if err := setInt64(&cfg.GitHub.App.AppID, "GITHUB_APP_ID"); err != nil {
		return err
	}
	if err := setInt64(&cfg.GitHub.App.InstallationID, "GITHUB_INSTALLATION_ID"); err != nil {
		return err
	}

	setString(&cfg.Supabase.URL, "SUPABASE_URL")
	setString(&cfg.Supabase.ServiceRoleKey, "SUPABASE_SERVICE_ROLE_KEY")
	setString(&cfg.Supabase.Schema, "SUPABASE_SCHEMA")
	setString(&cfg.Supabase.Driver, "SUPABASE_DRIVER")
	setString(&cfg.Supabase.DatabasePath, "SUPABASE_DATABASE_PATH")

	setString(&cfg.Vercel.Token, "VERCEL_TOKEN")
	setString(&cfg.Vercel.TeamID, "VERCEL_TEAM_ID")
	setString(&cfg.Vercel.BaseURL, "VERCEL_BASE_URL")

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	setString(&cfg.Server.Addr, "BUDDY_MCP_ADDR")
	if raw := os.Getenv("BUDDY_MCP_KEEPALIVE"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid BUDDY_MCP_KEEPALIVE: %w", err)
		}
		cfg.Server.KeepAlive = d
	}
	if raw := os.Getenv("BUDDY_MCP_DEBUG"); raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid BUDDY_MCP_DEBUG: %w", err)
		}
		cfg.Debug = debug
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.KeepAlive <= 0 {
		cfg.Server.KeepAlive = DefaultKeepAlive
	}
	if cfg.Supabase.Schema == "" {
		cfg.Supabase.Schema = "public"
	}
	cfg.Supabase.Driver = strings.ToLower(strings.TrimSpace(cfg.Supabase.Driver))
	if cfg.Supabase.Driver == "" {
		cfg.Supabase.Driver = DriverPostgREST
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt64(dst *int64, env string) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", env, err)
	}
	*dst = n
	return nil
}

// ResolveConfigPath returns customPath when set, otherwise
// ~/.config/buddy-mcp/config.yaml.
func ResolveConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName, "config.yaml"), nil
}
