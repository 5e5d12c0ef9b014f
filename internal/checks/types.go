package checks

import "time"

type Outcome string

const (
	OutcomePassed   Outcome = "passed"
	OutcomeFailed   Outcome = "failed"
	OutcomeTimedOut Outcome = "timed_out"
	OutcomeErrored  Outcome = "errored"
	OutcomeSkipped  Outcome = "skipped"
)

// Blocking reports whether the outcome counts against the run verdict.
func (o Outcome) Blocking() bool {
	switch o {
	case OutcomeFailed, OutcomeTimedOut, OutcomeErrored:
		return true
	default:
		return false
	}
}

type Result struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Outcome    Outcome `json:"outcome"`
	DurationMS int64   `json:"duration_ms"`
	Stdout     string  `json:"stdout,omitempty"`
	Stderr     string  `json:"stderr,omitempty"`
	Detail     string  `json:"detail,omitempty"`
}

type RunConfig struct {
	Mode        Mode
	ProjectPath string
	URL         string
	ScriptsDir  string

	StopOnFail      bool
	SkipPerformance bool

	// Timeout overrides TimeoutFor(Mode) when positive.
	Timeout time.Duration

	// FailOnMissingRequired makes a skipped required check count against
	// the verdict. The historical behavior is that absence never blocks,
	// so this defaults to off.
	FailOnMissingRequired bool
}

type Report struct {
	GeneratedAt string   `json:"generated_at"`
	Mode        string   `json:"mode"`
	ProjectPath string   `json:"project_path"`
	URL         string   `json:"url,omitempty"`
	Results     []Result `json:"results"`

	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	TimedOut int `json:"timed_out"`
	Errored  int `json:"errored"`
	Skipped  int `json:"skipped"`

	Aborted         bool  `json:"aborted,omitempty"`
	RequiredSkipped int   `json:"required_skipped,omitempty"`
	StrictMissing   bool  `json:"strict_missing,omitempty"`
	TotalDurationMS int64 `json:"total_duration_ms"`
}

// OverallPassed holds iff no recorded result has a blocking outcome.
// Skipped checks never block unless the run was configured with
// FailOnMissingRequired and the skip hit a required descriptor.
func (r Report) OverallPassed() bool {
	for _, result := range r.Results {
		if result.Outcome.Blocking() {
			return false
		}
	}
	if r.StrictMissing && r.RequiredSkipped > 0 {
		return false
	}
	return true
}

func (r Report) ExitCode() int {
	if r.OverallPassed() {
		return 0
	}
	return 1
}
