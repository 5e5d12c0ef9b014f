package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	ListenAddr string              `json:"listen_addr" yaml:"listen_addr"`
	Database   DatabaseConfig      `json:"database" yaml:"database"`
	Auth       AuthConfig          `json:"auth" yaml:"auth"`
	Security   SecurityConfig      `json:"security" yaml:"security"`
	Runs       RunConfig           `json:"runs" yaml:"runs"`
	Observer   ObservabilityConfig `json:"observability" yaml:"observability"`
	Limits     RateLimitConfig     `json:"limits" yaml:"limits"`
}

type DatabaseConfig struct {
	DSN            string `json:"dsn" yaml:"dsn"`
	MaxConns       int32  `json:"max_conns" yaml:"max_conns"`
	MigrationsPath string `json:"migrations_path" yaml:"migrations_path"`
}

type AuthConfig struct {
	SessionTTL string `json:"session_ttl" yaml:"session_ttl"`
	CookieName string `json:"cookie_name" yaml:"cookie_name"`
}

type SecurityConfig struct {
	AdminToken string `json:"admin_token" yaml:"admin_token"`
}

// RunConfig bounds what a queued verification run may do on this host.
type RunConfig struct {
	ScriptsDir        string `json:"scripts_dir" yaml:"scripts_dir"`
	DefaultTimeoutSec int    `json:"default_timeout_sec" yaml:"default_timeout_sec"`
	MaxParallelRuns   int    `json:"max_parallel_runs" yaml:"max_parallel_runs"`
}

type ObservabilityConfig struct {
	OTLPEndpoint string  `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName  string  `json:"service_name" yaml:"service_name"`
	SampleRatio  float64 `json:"sample_ratio" yaml:"sample_ratio"`
}

type RateLimitConfig struct {
	SubmitRPS   float64 `json:"submit_rps" yaml:"submit_rps"`
	SubmitBurst int     `json:"submit_burst" yaml:"submit_burst"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr: ":8080",
		Database: DatabaseConfig{
			MaxConns:       10,
			MigrationsPath: "./migrations",
		},
		Auth: AuthConfig{
			SessionTTL: "8h",
			CookieName: "vetrun_session",
		},
		Runs: RunConfig{
			ScriptsDir:        "./scripts",
			DefaultTimeoutSec: 600,
			MaxParallelRuns:   2,
		},
		Observer: ObservabilityConfig{
			ServiceName: "vetrun-api",
			SampleRatio: 1,
		},
		Limits: RateLimitConfig{
			SubmitRPS:   1,
			SubmitBurst: 5,
		},
	}
}

func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse json config: %w", err)
		}
	default:
		var yamlErr error
		if yamlErr = yaml.Unmarshal(data, &cfg); yamlErr == nil {
			break
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.New("config format not recognized (expected yaml/json)")
		}
	}
	normalizeConfig(&cfg)
	return cfg, nil
}

func normalizeConfig(cfg *ServerConfig) {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if strings.TrimSpace(cfg.Database.MigrationsPath) == "" {
		cfg.Database.MigrationsPath = "./migrations"
	}
	if strings.TrimSpace(cfg.Auth.CookieName) == "" {
		cfg.Auth.CookieName = "vetrun_session"
	}
	if strings.TrimSpace(cfg.Auth.SessionTTL) == "" {
		cfg.Auth.SessionTTL = "8h"
	}
	if strings.TrimSpace(cfg.Runs.ScriptsDir) == "" {
		cfg.Runs.ScriptsDir = "./scripts"
	}
	if cfg.Runs.DefaultTimeoutSec <= 0 {
		cfg.Runs.DefaultTimeoutSec = 600
	}
	if cfg.Runs.MaxParallelRuns <= 0 {
		cfg.Runs.MaxParallelRuns = 2
	}
	if cfg.Observer.SampleRatio <= 0 || cfg.Observer.SampleRatio > 1 {
		cfg.Observer.SampleRatio = 1
	}
	if strings.TrimSpace(cfg.Observer.ServiceName) == "" {
		cfg.Observer.ServiceName = "vetrun-api"
	}
	if cfg.Limits.SubmitRPS <= 0 {
		cfg.Limits.SubmitRPS = 1
	}
	if cfg.Limits.SubmitBurst <= 0 {
		cfg.Limits.SubmitBurst = 5
	}
}
