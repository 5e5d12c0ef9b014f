package server

import (
	"time"

	"vetrun/internal/checks"
)

type Principal struct {
	Subject  string `json:"subject"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type RunRequest struct {
	ProjectPath     string `json:"project_path"`
	URL             string `json:"url,omitempty"`
	Mode            string `json:"mode,omitempty"`
	StopOnFail      bool   `json:"stop_on_fail,omitempty"`
	SkipPerformance bool   `json:"skip_performance,omitempty"`
	TimeoutSec      int    `json:"timeout_sec,omitempty"`
	DryRun          bool   `json:"dry_run,omitempty"`
}

type RunMeta struct {
	RunID        string         `json:"run_id"`
	Status       string         `json:"status"`
	CreatorType  string         `json:"creator_type"`
	CreatorSub   string         `json:"creator_sub,omitempty"`
	CreatorEmail string         `json:"creator_email,omitempty"`
	Source       string         `json:"source"`
	Request      RunRequest     `json:"request"`
	StartedAt    string         `json:"started_at,omitempty"`
	FinishedAt   string         `json:"finished_at,omitempty"`
	CreatedAt    string         `json:"created_at"`
	Error        string         `json:"error,omitempty"`
	Report       *checks.Report `json:"report,omitempty"`
	Summary      RunSummary     `json:"summary"`
}

// RunSummary is the denormalized verdict snapshot stored alongside the run
// so listings do not need the full report.
type RunSummary struct {
	Passed        int   `json:"passed"`
	Failed        int   `json:"failed"`
	TimedOut      int   `json:"timed_out"`
	Errored       int   `json:"errored"`
	Skipped       int   `json:"skipped"`
	Aborted       bool  `json:"aborted"`
	DurationMS    int64 `json:"duration_ms"`
	OverallPassed bool  `json:"overall_passed"`
}

type AuditEvent struct {
	Timestamp string `json:"timestamp"`
	RunID     string `json:"run_id,omitempty"`
	ActorType string `json:"actor_type"`
	ActorSub  string `json:"actor_sub,omitempty"`
	Action    string `json:"action"`
	Result    string `json:"result"`
	IPHash    string `json:"ip_hash,omitempty"`
	UAHash    string `json:"ua_hash,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

type RunEvent struct {
	Seq       int64          `json:"seq"`
	Timestamp string         `json:"timestamp"`
	Stage     string         `json:"stage"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

type MetricsOverview struct {
	GeneratedAt     string `json:"generated_at"`
	TotalRuns       int    `json:"total_runs"`
	RunningRuns     int    `json:"running_runs"`
	PassRuns        int    `json:"pass_runs"`
	FailRuns        int    `json:"fail_runs"`
	ErrorRuns       int    `json:"error_runs"`
	AbortedRuns     int    `json:"aborted_runs"`
	AverageDuration int64  `json:"average_duration_ms"`
}

func summarizeReport(report checks.Report) RunSummary {
	return RunSummary{
		Passed:        report.Passed,
		Failed:        report.Failed,
		TimedOut:      report.TimedOut,
		Errored:       report.Errored,
		Skipped:       report.Skipped,
		Aborted:       report.Aborted,
		DurationMS:    report.TotalDurationMS,
		OverallPassed: report.OverallPassed(),
	}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
