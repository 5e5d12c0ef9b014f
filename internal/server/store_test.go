package server

import (
	"os"
	"path/filepath"
	"testing"

	"vetrun/internal/checks"
)

func newTestStore(t *testing.T) *MemoryFileStore {
	t.Helper()
	store, err := NewMemoryFileStore("")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	meta := RunMeta{RunID: "run_a", Status: "queued", CreatedAt: nowRFC3339()}
	if err := store.CreateRun(meta); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := store.CreateRun(meta); err == nil {
		t.Fatalf("duplicate run id must be rejected")
	}
	got, ok := store.GetRun("run_a")
	if !ok || got.Status != "queued" {
		t.Fatalf("get run: ok=%v status=%q", ok, got.Status)
	}
	if _, ok := store.GetRun("run_missing"); ok {
		t.Fatalf("missing run should not be found")
	}
}

func TestMemoryStoreUpdateRun(t *testing.T) {
	store := newTestStore(t)
	if err := store.CreateRun(RunMeta{RunID: "run_a", Status: "queued", CreatedAt: nowRFC3339()}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	updated, err := store.UpdateRun("run_a", func(meta *RunMeta) {
		meta.Status = "pass"
		meta.Summary = RunSummary{Passed: 5, OverallPassed: true, DurationMS: 1234}
	})
	if err != nil {
		t.Fatalf("update run: %v", err)
	}
	if updated.Status != "pass" || updated.Summary.Passed != 5 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if _, err := store.UpdateRun("run_missing", nil); err == nil {
		t.Fatalf("updating a missing run must fail")
	}
}

func TestMemoryStoreRunEventsMonotonicSeq(t *testing.T) {
	store := newTestStore(t)
	if err := store.CreateRun(RunMeta{RunID: "run_a", CreatedAt: nowRFC3339()}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := store.AppendRunEvent("run_a", "check_result", "ok", nil); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}
	events := store.ListRunEvents("run_a", 0)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, event := range events {
		if event.Seq != int64(i+1) {
			t.Fatalf("event %d has seq %d", i, event.Seq)
		}
	}
	tail := store.ListRunEvents("run_a", 2)
	if len(tail) != 1 || tail[0].Seq != 3 {
		t.Fatalf("cursor read: got %+v", tail)
	}
	if _, err := store.AppendRunEvent("run_missing", "x", "y", nil); err == nil {
		t.Fatalf("appending to a missing run must fail")
	}
}

func TestMemoryStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "store.json")
	store, err := NewMemoryFileStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	report := checks.Report{Passed: 2, Results: []checks.Result{}}
	if err := store.CreateRun(RunMeta{RunID: "run_a", Status: "queued", CreatedAt: nowRFC3339()}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if _, err := store.UpdateRun("run_a", func(meta *RunMeta) {
		meta.Status = "pass"
		meta.Report = &report
		meta.Summary = summarizeReport(report)
	}); err != nil {
		t.Fatalf("update run: %v", err)
	}
	if _, err := store.AppendRunEvent("run_a", "completed", "done", map[string]any{"status": "pass"}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if err := store.AppendAudit(AuditEvent{ActorType: "admin", Action: "run.create", Result: "queued"}); err != nil {
		t.Fatalf("append audit: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file not written: %v", err)
	}

	reloaded, err := NewMemoryFileStore(path)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	meta, ok := reloaded.GetRun("run_a")
	if !ok || meta.Status != "pass" || meta.Report == nil {
		t.Fatalf("run did not survive reload: ok=%v %+v", ok, meta)
	}
	events := reloaded.ListRunEvents("run_a", 0)
	if len(events) != 1 || events[0].Stage != "completed" {
		t.Fatalf("events did not survive reload: %+v", events)
	}
	// Seq continues after the reloaded history.
	event, err := reloaded.AppendRunEvent("run_a", "note", "post-reload", nil)
	if err != nil || event.Seq != 2 {
		t.Fatalf("seq should continue at 2, got %d err=%v", event.Seq, err)
	}
	if audit := reloaded.ListAudit(10); len(audit) != 1 {
		t.Fatalf("audit did not survive reload: %d entries", len(audit))
	}
}

func TestMemoryStoreListRunsByCreator(t *testing.T) {
	store := newTestStore(t)
	for _, run := range []RunMeta{
		{RunID: "run_a", CreatorSub: "alice", CreatedAt: "2026-01-01T00:00:00Z"},
		{RunID: "run_b", CreatorSub: "bob", CreatedAt: "2026-01-02T00:00:00Z"},
		{RunID: "run_c", CreatorSub: "alice", CreatedAt: "2026-01-03T00:00:00Z"},
	} {
		if err := store.CreateRun(run); err != nil {
			t.Fatalf("create run: %v", err)
		}
	}
	mine := store.ListRunsByCreator("alice", 0)
	if len(mine) != 2 {
		t.Fatalf("expected 2 runs for alice, got %d", len(mine))
	}
	if mine[0].RunID != "run_c" {
		t.Fatalf("runs should list newest first, got %s", mine[0].RunID)
	}
	all := store.ListRuns(2)
	if len(all) != 2 || all[0].RunID != "run_c" {
		t.Fatalf("list limit or order wrong: %+v", all)
	}
}

func TestMemoryStoreMetricsOverview(t *testing.T) {
	store := newTestStore(t)
	runs := []RunMeta{
		{RunID: "run_a", Status: "pass", CreatedAt: "1", Summary: RunSummary{DurationMS: 100}},
		{RunID: "run_b", Status: "fail", CreatedAt: "2", Summary: RunSummary{DurationMS: 300, Aborted: true}},
		{RunID: "run_c", Status: "running", CreatedAt: "3"},
	}
	for _, run := range runs {
		if err := store.CreateRun(run); err != nil {
			t.Fatalf("create run: %v", err)
		}
	}
	overview := store.GetMetricsOverview()
	if overview.TotalRuns != 3 || overview.PassRuns != 1 || overview.FailRuns != 1 || overview.RunningRuns != 1 {
		t.Fatalf("overview counts wrong: %+v", overview)
	}
	if overview.AbortedRuns != 1 {
		t.Fatalf("aborted count wrong: %+v", overview)
	}
	if overview.AverageDuration != (100+300)/3 {
		t.Fatalf("average duration wrong: %d", overview.AverageDuration)
	}
}
