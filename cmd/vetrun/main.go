package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"vetrun/internal/checks"
	"vetrun/internal/report"
)

func main() {
	mode := flag.String("mode", envOr("VETRUN_MODE", "core"), "Run mode: core|full")
	url := flag.String("url", envOr("VETRUN_URL", ""), "Live URL for URL-gated categories (required in full mode)")
	scriptsDir := flag.String("scripts-dir", envOr("VETRUN_SCRIPTS_DIR", "./scripts"), "Directory holding the check scripts")
	skipPerformance := flag.Bool("skip-performance", false, "Skip performance and end-to-end categories")
	stopOnFail := flag.Bool("stop-on-fail", false, "Abort the run when a required check fails")
	strictMissing := flag.Bool("fail-on-missing-required", false, "Count a missing required check script against the verdict")
	timeout := flag.Duration("timeout", 0, "Per-check timeout override (0 = mode default)")
	format := flag.String("format", "text", "Output format: text|json")
	outputPath := flag.String("out", "", "Write full report JSON to this file")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	flag.Parse()

	runMode, err := checks.ParseMode(*mode)
	if err != nil {
		exitWith(err.Error())
	}

	projectPath := strings.TrimSpace(flag.Arg(0))
	if projectPath == "" {
		exitWith("project path argument is required")
	}
	info, err := os.Stat(projectPath)
	if err != nil {
		exitWith("project path not accessible: " + err.Error())
	}
	if !info.IsDir() {
		exitWith("project path is not a directory: " + projectPath)
	}

	if runMode == checks.ModeFull && strings.TrimSpace(*url) == "" {
		exitWith("full mode requires -url (or VETRUN_URL)")
	}

	cfg := checks.RunConfig{
		Mode:                  runMode,
		ProjectPath:           projectPath,
		URL:                   strings.TrimSpace(*url),
		ScriptsDir:            *scriptsDir,
		StopOnFail:            *stopOnFail,
		SkipPerformance:       *skipPerformance,
		Timeout:               *timeout,
		FailOnMissingRequired: *strictMissing,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := checks.Run(ctx, cfg, nil)

	var renderer report.Renderer
	switch strings.ToLower(strings.TrimSpace(*format)) {
	case "json":
		renderer = report.JSONRenderer{}
	default:
		renderer = report.TextRenderer{Color: !*noColor}
	}
	if err := renderer.Render(os.Stdout, result); err != nil {
		exitWith("render report: " + err.Error())
	}

	if strings.TrimSpace(*outputPath) != "" {
		if err := writeReport(*outputPath, result); err != nil {
			exitWith("failed to write report: " + err.Error())
		}
	}

	os.Exit(result.ExitCode())
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func writeReport(path string, result checks.Report) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Clean(path), data, 0o644)
}

// Usage and configuration errors exit 2, keeping them distinct from the
// exit 1 verification verdict.
func exitWith(message string) {
	fmt.Fprintln(os.Stderr, "error:", message)
	os.Exit(2)
}
