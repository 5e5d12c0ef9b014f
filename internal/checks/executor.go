package checks

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// Per-stream capture cap; anything past it is dropped, never an error.
	maxCaptureBytes = 64 * 1024
	// Excerpt lengths kept on the result record.
	outputExcerptRunes = 4096
	detailExcerptRunes = 2000
)

type Executor struct{}

// Execute runs one descriptor as an isolated child process and classifies
// the outcome. It never returns an error: every launch-level fault becomes
// an Errored result, a missing script becomes Skipped, and the timeout
// terminates the child and yields TimedOut.
func (Executor) Execute(ctx context.Context, desc Descriptor, scriptsDir, projectPath, url string, timeout time.Duration) Result {
	result := Result{Name: desc.Name}

	script := filepath.Join(scriptsDir, desc.Script)
	if _, err := os.Stat(script); err != nil {
		// Soft-skip: the collaborator is simply not installed.
		result.Outcome = OutcomeSkipped
		return result
	}

	args := make([]string, 0, len(desc.Args)+2)
	args = append(args, desc.Args...)
	args = append(args, projectPath)
	if desc.URLAware && strings.TrimSpace(url) != "" {
		args = append(args, url)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := newCapWriter(maxCaptureBytes)
	stderr := newCapWriter(maxCaptureBytes)
	cmd := exec.CommandContext(runCtx, script, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	result.DurationMS = time.Since(start).Milliseconds()
	result.Stdout = firstN(stdout.String(), outputExcerptRunes)
	result.Stderr = firstN(stderr.String(), outputExcerptRunes)

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		result.Outcome = OutcomeTimedOut
		result.Detail = "timeout"
	case err == nil:
		result.Outcome = OutcomePassed
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.Outcome = OutcomeFailed
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = strings.TrimSpace(stdout.String())
			}
			result.Detail = firstN(detail, detailExcerptRunes)
		} else {
			// Launch fault (permission denied, bad interpreter), not a
			// finding by the check itself.
			result.Outcome = OutcomeErrored
			result.Detail = firstN("tool could not run: "+err.Error(), detailExcerptRunes)
		}
	}
	return result
}

type capWriter struct {
	buf       []byte
	limit     int
	truncated bool
}

func newCapWriter(limit int) *capWriter {
	return &capWriter{limit: limit}
}

// Write always accepts the full input so the child never sees a pipe error;
// bytes past the cap are discarded.
func (w *capWriter) Write(p []byte) (int, error) {
	remaining := w.limit - len(w.buf)
	if remaining > 0 {
		if len(p) <= remaining {
			w.buf = append(w.buf, p...)
		} else {
			w.buf = append(w.buf, p[:remaining]...)
			w.truncated = true
		}
	} else if len(p) > 0 {
		w.truncated = true
	}
	return len(p), nil
}

func (w *capWriter) String() string {
	if w.truncated {
		return string(w.buf) + "\n[output truncated]"
	}
	return string(w.buf)
}

func firstN(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
