package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func managerTestConfig(t *testing.T, scriptsDir string) ServerConfig {
	t.Helper()
	cfg := DefaultServerConfig()
	cfg.Runs.ScriptsDir = scriptsDir
	cfg.Runs.MaxParallelRuns = 1
	return cfg
}

func TestValidateRunRequest(t *testing.T) {
	cfg := DefaultServerConfig()
	projectDir := t.TempDir()

	cases := []struct {
		name    string
		request RunRequest
		wantErr bool
	}{
		{"valid core", RunRequest{ProjectPath: projectDir}, false},
		{"missing project path", RunRequest{}, true},
		{"nonexistent project path", RunRequest{ProjectPath: filepath.Join(projectDir, "nope")}, true},
		{"full without url", RunRequest{ProjectPath: projectDir, Mode: "full"}, true},
		{"full with url", RunRequest{ProjectPath: projectDir, Mode: "full", URL: "http://localhost:3000"}, false},
		{"unknown mode", RunRequest{ProjectPath: projectDir, Mode: "turbo"}, true},
		{"dry run skips path check", RunRequest{ProjectPath: "/does/not/exist", DryRun: true}, false},
	}
	for _, tc := range cases {
		req := tc.request
		err := validateRunRequest(&req, cfg)
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
	}

	req := RunRequest{ProjectPath: projectDir}
	if err := validateRunRequest(&req, cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if req.Mode != "core" {
		t.Fatalf("mode should default to core, got %q", req.Mode)
	}
	if req.TimeoutSec != cfg.Runs.DefaultTimeoutSec {
		t.Fatalf("timeout should default to %d, got %d", cfg.Runs.DefaultTimeoutSec, req.TimeoutSec)
	}
}

func waitForStatus(t *testing.T, store Store, runID string, want ...string) RunMeta {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		meta, ok := store.GetRun(runID)
		if ok {
			for _, status := range want {
				if meta.Status == status {
					return meta
				}
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	meta, _ := store.GetRun(runID)
	t.Fatalf("run %s never reached %v, last status %q", runID, want, meta.Status)
	return RunMeta{}
}

func TestRunManagerExecutesRun(t *testing.T) {
	scriptsDir := t.TempDir()
	for _, name := range []string{"security_scan.sh", "lint.sh", "schema_check.sh", "run_tests.sh", "ux_audit.sh"} {
		if err := os.WriteFile(filepath.Join(scriptsDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write script: %v", err)
		}
	}
	store := newTestStore(t)
	manager := NewRunManager(managerTestConfig(t, scriptsDir), store, nil)
	defer manager.Shutdown()

	meta, err := manager.CreateRun(RunRequest{ProjectPath: t.TempDir()}, Principal{Subject: "admin-token"}, "admin.manual")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if meta.Status != "queued" {
		t.Fatalf("new run should be queued, got %q", meta.Status)
	}

	done := waitForStatus(t, store, meta.RunID, "pass", "fail")
	if done.Status != "pass" {
		t.Fatalf("expected pass, got %q (error=%q)", done.Status, done.Error)
	}
	if done.Report == nil || done.Report.Passed != 5 {
		t.Fatalf("report not stored: %+v", done.Report)
	}
	if !done.Summary.OverallPassed || done.Summary.Passed != 5 {
		t.Fatalf("summary wrong: %+v", done.Summary)
	}
	if done.StartedAt == "" || done.FinishedAt == "" {
		t.Fatalf("timestamps not recorded: %+v", done)
	}

	events := store.ListRunEvents(meta.RunID, 0)
	stages := map[string]bool{}
	for _, event := range events {
		stages[event.Stage] = true
	}
	for _, want := range []string{"queue", "start", "check_start", "check_result", "completed"} {
		if !stages[want] {
			t.Fatalf("missing %s event, got stages %v", want, stages)
		}
	}
}

func TestRunManagerRecordsFailure(t *testing.T) {
	scriptsDir := t.TempDir()
	scripts := map[string]string{
		"security_scan.sh": "exit 0",
		"lint.sh":          `echo "broken" >&2; exit 1`,
		"schema_check.sh":  "exit 0",
		"run_tests.sh":     "exit 0",
		"ux_audit.sh":      "exit 0",
	}
	for name, body := range scripts {
		if err := os.WriteFile(filepath.Join(scriptsDir, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			t.Fatalf("write script: %v", err)
		}
	}
	store := newTestStore(t)
	manager := NewRunManager(managerTestConfig(t, scriptsDir), store, nil)
	defer manager.Shutdown()

	meta, err := manager.CreateRun(RunRequest{ProjectPath: t.TempDir()}, Principal{Subject: "admin-token"}, "admin.manual")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	done := waitForStatus(t, store, meta.RunID, "pass", "fail")
	if done.Status != "fail" {
		t.Fatalf("expected fail, got %q", done.Status)
	}
	if done.Error == "" {
		t.Fatalf("failed run should record an error string")
	}
	if done.Summary.Failed != 1 || done.Summary.Passed != 4 {
		t.Fatalf("summary wrong: %+v", done.Summary)
	}
}

func TestRunManagerDryRun(t *testing.T) {
	store := newTestStore(t)
	manager := NewRunManager(managerTestConfig(t, t.TempDir()), store, nil)
	defer manager.Shutdown()

	meta, err := manager.CreateRun(RunRequest{ProjectPath: "/does/not/exist", DryRun: true}, Principal{Subject: "admin-token"}, "admin.manual")
	if err != nil {
		t.Fatalf("create dry run: %v", err)
	}
	done := waitForStatus(t, store, meta.RunID, "pass", "fail")
	if done.Status != "pass" {
		t.Fatalf("dry run should pass, got %q", done.Status)
	}
	if done.Report == nil || len(done.Report.Results) != 5 {
		t.Fatalf("dry run should simulate the core catalog, got %+v", done.Report)
	}
}

func TestRunManagerRejectsInvalidRequest(t *testing.T) {
	store := newTestStore(t)
	manager := NewRunManager(managerTestConfig(t, t.TempDir()), store, nil)
	defer manager.Shutdown()

	if _, err := manager.CreateRun(RunRequest{}, Principal{Subject: "admin-token"}, "admin.manual"); err == nil {
		t.Fatalf("empty request must be rejected")
	}
	if runs := store.ListRuns(10); len(runs) != 0 {
		t.Fatalf("rejected request must not be persisted, got %d runs", len(runs))
	}
}
