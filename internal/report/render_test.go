package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"vetrun/internal/checks"
)

func sampleReport() checks.Report {
	return checks.Report{
		GeneratedAt: "2026-01-15T10:00:00Z",
		Mode:        "core",
		ProjectPath: "/srv/app",
		Results: []checks.Result{
			{Name: "security scan", Category: "Security", Outcome: checks.OutcomePassed, DurationMS: 1200},
			{Name: "lint", Category: "Code Quality", Outcome: checks.OutcomeFailed, DurationMS: 800, Detail: "unused variable x\nline 42"},
			{Name: "unit tests", Category: "Tests", Outcome: checks.OutcomeSkipped},
		},
		Passed:          1,
		Failed:          1,
		Skipped:         1,
		TotalDurationMS: 2000,
	}
}

func TestJSONRendererRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONRenderer{}).Render(&buf, sampleReport()); err != nil {
		t.Fatalf("render: %v", err)
	}
	var decoded checks.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Mode != "core" || len(decoded.Results) != 3 {
		t.Fatalf("decoded report lost fields: mode=%q results=%d", decoded.Mode, len(decoded.Results))
	}
	if decoded.Results[1].Detail != "unused variable x\nline 42" {
		t.Fatalf("detail not preserved: %q", decoded.Results[1].Detail)
	}
}

func TestTextRendererPlain(t *testing.T) {
	var buf bytes.Buffer
	if err := (TextRenderer{}).Render(&buf, sampleReport()); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Project: /srv/app",
		"Security",
		"[PASSED] security scan (1200ms)",
		"[FAILED] lint (800ms)",
		"[SKIPPED] unit tests (0ms)",
		"Failures",
		"lint: unused variable x / line 42",
		"Totals: passed=1 failed=1 timed_out=0 errored=0 skipped=1 (2000ms)",
		"Verdict: FAIL",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("plain renderer must not emit ANSI escapes:\n%q", out)
	}
}

func TestTextRendererPassVerdict(t *testing.T) {
	rep := checks.Report{
		Mode:        "core",
		ProjectPath: "/srv/app",
		Results: []checks.Result{
			{Name: "lint", Category: "Code Quality", Outcome: checks.OutcomePassed},
		},
		Passed: 1,
	}
	var buf bytes.Buffer
	if err := (TextRenderer{}).Render(&buf, rep); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Verdict: PASS") {
		t.Fatalf("expected PASS verdict:\n%s", out)
	}
	if strings.Contains(out, "Failures") {
		t.Fatalf("no failure section expected for a clean run:\n%s", out)
	}
}

func TestTextRendererAbortNote(t *testing.T) {
	rep := sampleReport()
	rep.Aborted = true
	var buf bytes.Buffer
	if err := (TextRenderer{}).Render(&buf, rep); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "run aborted on required check failure") {
		t.Fatalf("abort note missing:\n%s", buf.String())
	}
}

func TestTruncateLine(t *testing.T) {
	long := strings.Repeat("x", 300)
	got := truncateLine(long)
	if len([]rune(got)) != 203 {
		t.Fatalf("expected 200 runes plus ellipsis, got %d", len([]rune(got)))
	}
	if got := truncateLine("a\nb"); got != "a / b" {
		t.Fatalf("newline flattening: got %q", got)
	}
}
