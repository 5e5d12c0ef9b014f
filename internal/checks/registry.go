package checks

import (
	"fmt"
	"strings"
	"time"
)

type Mode string

const (
	ModeCore Mode = "core"
	ModeFull Mode = "full"
)

func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "core":
		return ModeCore, nil
	case "full":
		return ModeFull, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected core or full)", value)
	}
}

// Descriptor identifies one invocable check. Script is a file name resolved
// against the run's scripts directory; the target project path is always
// appended as the first positional argument, and the run URL follows it for
// URL-aware checks.
type Descriptor struct {
	Name     string
	Script   string
	Args     []string
	Required bool
	URLAware bool
}

type Category struct {
	Name        string
	RequiresURL bool
	// Performance-tier categories are dropped wholesale by the
	// skip-performance directive.
	Performance bool
	Checks      []Descriptor
}

var coreCatalog = []Category{
	{Name: "Security", Checks: []Descriptor{
		{Name: "security scan", Script: "security_scan.sh", Required: true},
	}},
	{Name: "Code Quality", Checks: []Descriptor{
		{Name: "lint", Script: "lint.sh", Required: true},
	}},
	{Name: "Schema", Checks: []Descriptor{
		{Name: "schema validation", Script: "schema_check.sh", Required: true},
	}},
	{Name: "Tests", Checks: []Descriptor{
		{Name: "unit tests", Script: "run_tests.sh", Required: true},
	}},
	{Name: "UX", Checks: []Descriptor{
		{Name: "ux audit", Script: "ux_audit.sh"},
	}},
}

var fullExtra = []Category{
	{Name: "Type Coverage", Checks: []Descriptor{
		{Name: "type coverage", Script: "type_coverage.sh"},
	}},
	{Name: "Accessibility", Checks: []Descriptor{
		{Name: "accessibility audit", Script: "accessibility_audit.sh"},
	}},
	{Name: "Performance", RequiresURL: true, Performance: true, Checks: []Descriptor{
		{Name: "performance audit", Script: "perf_audit.sh", URLAware: true},
	}},
	{Name: "End-to-End", RequiresURL: true, Performance: true, Checks: []Descriptor{
		{Name: "e2e tests", Script: "e2e.sh", Required: true, URLAware: true},
	}},
}

// CategoriesFor returns the fixed, ordered catalog for a run mode. Callers
// get a fresh slice but share the descriptor values; the catalog is
// compiled-in configuration and never mutated.
func CategoriesFor(mode Mode) []Category {
	switch mode {
	case ModeFull:
		out := make([]Category, 0, len(coreCatalog)+len(fullExtra))
		out = append(out, coreCatalog...)
		out = append(out, fullExtra...)
		return out
	default:
		out := make([]Category, len(coreCatalog))
		copy(out, coreCatalog)
		return out
	}
}

func TimeoutFor(mode Mode) time.Duration {
	if mode == ModeFull {
		return 600 * time.Second
	}
	return 300 * time.Second
}
