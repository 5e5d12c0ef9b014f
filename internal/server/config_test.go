package server

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("load empty config: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen addr default: %q", cfg.ListenAddr)
	}
	if cfg.Runs.DefaultTimeoutSec != 600 || cfg.Runs.MaxParallelRuns != 2 {
		t.Fatalf("run defaults: %+v", cfg.Runs)
	}
	if cfg.Auth.CookieName != "vetrun_session" {
		t.Fatalf("cookie default: %q", cfg.Auth.CookieName)
	}
}

func TestLoadServerConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen_addr: ":9090"
runs:
  scripts_dir: /opt/vetrun/scripts
  default_timeout_sec: 120
limits:
  submit_rps: 2
  submit_burst: 10
security:
  admin_token: secret
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("listen addr: %q", cfg.ListenAddr)
	}
	if cfg.Runs.ScriptsDir != "/opt/vetrun/scripts" || cfg.Runs.DefaultTimeoutSec != 120 {
		t.Fatalf("runs: %+v", cfg.Runs)
	}
	if cfg.Limits.SubmitRPS != 2 || cfg.Limits.SubmitBurst != 10 {
		t.Fatalf("limits: %+v", cfg.Limits)
	}
	if cfg.Security.AdminToken != "secret" {
		t.Fatalf("admin token: %q", cfg.Security.AdminToken)
	}
	// Untouched sections keep their defaults.
	if cfg.Runs.MaxParallelRuns != 2 {
		t.Fatalf("max parallel default lost: %d", cfg.Runs.MaxParallelRuns)
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("missing config file must error")
	}
}
