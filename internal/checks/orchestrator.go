package checks

import (
	"context"
	"time"
)

// Event is the progress signal emitted while a run advances. The API server
// persists these as run events; the CLI ignores them.
type Event struct {
	Stage   string
	Message string
	Data    map[string]any
}

// Run walks the mode's catalog in order, executing every applicable check
// sequentially and accumulating results. Checks never run concurrently:
// collaborators may mutate shared project state, so ordering is part of the
// contract and result order is exactly catalog order minus gated categories.
func Run(ctx context.Context, cfg RunConfig, onEvent func(Event)) Report {
	return RunCatalog(ctx, cfg, CategoriesFor(cfg.Mode), onEvent)
}

// RunCatalog is Run with an explicit catalog, used by tests and dry runs.
func RunCatalog(ctx context.Context, cfg RunConfig, catalog []Category, onEvent func(Event)) Report {
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = TimeoutFor(cfg.Mode)
	}

	report := Report{
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		Mode:          string(cfg.Mode),
		ProjectPath:   cfg.ProjectPath,
		URL:           cfg.URL,
		StrictMissing: cfg.FailOnMissingRequired,
		Results:       []Result{},
	}

	executor := Executor{}
	start := time.Now()

walk:
	for _, category := range catalog {
		if category.RequiresURL && cfg.URL == "" {
			// Conditionally applicable, not a failure: the category's
			// descriptors never appear in the report.
			onEvent(Event{
				Stage:   "category_skip",
				Message: "category requires a live URL",
				Data:    map[string]any{"category": category.Name},
			})
			continue
		}
		if category.Performance && cfg.SkipPerformance {
			onEvent(Event{
				Stage:   "category_skip",
				Message: "performance checks disabled for this run",
				Data:    map[string]any{"category": category.Name},
			})
			continue
		}
		for _, desc := range category.Checks {
			onEvent(Event{
				Stage:   "check_start",
				Message: "check started",
				Data:    map[string]any{"check": desc.Name, "category": category.Name},
			})
			result := executor.Execute(ctx, desc, cfg.ScriptsDir, cfg.ProjectPath, cfg.URL, timeout)
			result.Category = category.Name
			report.Results = append(report.Results, result)
			if result.Outcome == OutcomeSkipped && desc.Required {
				report.RequiredSkipped++
			}
			onEvent(Event{
				Stage:   "check_result",
				Message: checkMessage(result),
				Data: map[string]any{
					"check":       desc.Name,
					"category":    category.Name,
					"outcome":     string(result.Outcome),
					"duration_ms": result.DurationMS,
				},
			})
			if desc.Required && result.Outcome.Blocking() && cfg.StopOnFail {
				report.Aborted = true
				onEvent(Event{
					Stage:   "abort",
					Message: "required check did not pass, stopping run",
					Data:    map[string]any{"check": desc.Name, "category": category.Name},
				})
				break walk
			}
		}
	}

	report.TotalDurationMS = time.Since(start).Milliseconds()
	for _, result := range report.Results {
		switch result.Outcome {
		case OutcomePassed:
			report.Passed++
		case OutcomeFailed:
			report.Failed++
		case OutcomeTimedOut:
			report.TimedOut++
		case OutcomeErrored:
			report.Errored++
		case OutcomeSkipped:
			report.Skipped++
		}
	}
	return report
}

func checkMessage(result Result) string {
	if result.Detail != "" {
		return string(result.Outcome) + ": " + firstN(result.Detail, 200)
	}
	return string(result.Outcome)
}
