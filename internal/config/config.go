package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Goal maps one tracked salesperson to a monthly revenue target. The order
// of goals in the config file is the roster declaration order, which also
// breaks ranking ties.
type Goal struct {
	Name   string  `yaml:"name"`
	Target float64 `yaml:"target"`
}

// Config holds all application configuration.
type Config struct {
	API struct {
		BaseURL            string `yaml:"base_url"`
		Token              string `yaml:"token"`
		PollTimeoutSeconds int    `yaml:"poll_timeout_seconds"`
		PageTimeoutSeconds int    `yaml:"page_timeout_seconds"`
	} `yaml:"api"`
	Goals    []Goal `yaml:"goals"`
	Timezone string `yaml:"timezone"`
	Schedule struct {
		RecomputeCron      string `yaml:"recompute_cron"`
		WinPollSeconds     int    `yaml:"win_poll_seconds"`
		WinEventTTLSeconds int    `yaml:"win_event_ttl_seconds"`
	} `yaml:"schedule"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("AGENDOR_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("AGENDOR_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("DASHBOARD_TZ"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("DASHBOARD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.agendor.com.br/v3"
	}
	if cfg.API.PollTimeoutSeconds == 0 {
		cfg.API.PollTimeoutSeconds = 15
	}
	if cfg.API.PageTimeoutSeconds == 0 {
		cfg.API.PageTimeoutSeconds = 30
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "America/Sao_Paulo"
	}
	if cfg.Schedule.RecomputeCron == "" {
		cfg.Schedule.RecomputeCron = "@every 60s"
	}
	if cfg.Schedule.WinPollSeconds == 0 {
		cfg.Schedule.WinPollSeconds = 10
	}
	if cfg.Schedule.WinEventTTLSeconds == 0 {
		cfg.Schedule.WinEventTTLSeconds = 15
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 2112
	}

	return cfg, nil
}

// Validate checks that all required fields are set and coherent. A broken
// goal roster is rejected here so it can never surface mid-run as a
// divide-by-zero.
func (c *Config) Validate() error {
	if c.API.Token == "" {
		return fmt.Errorf("api.token is required")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if len(c.Goals) == 0 {
		return fmt.Errorf("at least one goal is required")
	}
	seen := make(map[string]bool, len(c.Goals))
	for _, g := range c.Goals {
		if g.Name == "" {
			return fmt.Errorf("goal with empty name")
		}
		if seen[g.Name] {
			return fmt.Errorf("duplicate goal for %q", g.Name)
		}
		seen[g.Name] = true
		if g.Target <= 0 {
			return fmt.Errorf("goal for %q must be positive, got %v", g.Name, g.Target)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.Schedule.WinPollSeconds <= 0 {
		return fmt.Errorf("schedule.win_poll_seconds must be positive")
	}
	if c.Schedule.WinEventTTLSeconds <= 0 {
		return fmt.Errorf("schedule.win_event_ttl_seconds must be positive")
	}
	if c.API.PollTimeoutSeconds <= 0 || c.API.PageTimeoutSeconds <= 0 {
		return fmt.Errorf("api timeouts must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

// Location resolves the configured IANA zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.API.PollTimeoutSeconds) * time.Second
}

func (c *Config) PageTimeout() time.Duration {
	return time.Duration(c.API.PageTimeoutSeconds) * time.Second
}

func (c *Config) WinPollInterval() time.Duration {
	return time.Duration(c.Schedule.WinPollSeconds) * time.Second
}

func (c *Config) WinEventTTL() time.Duration {
	return time.Duration(c.Schedule.WinEventTTLSeconds) * time.Second
}
