// Package harness drives the external benchmark runner, `go test
// -bench`, as a child process and hands its raw output to the
// collector. The runner owns all timing methodology; this package only
// launches it, waits, and fails hard when it fails.
package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RunConfig holds parameters for a single benchmark invocation.
type RunConfig struct {
	// BenchDir is the package path of the benchmark suite, as passed
	// to `go test` (e.g. "./bench").
	BenchDir string

	// Filter is the -bench selection regex. Build it with
	// BenchFilter; an empty Filter runs the whole suite.
	Filter string

	// Count is the number of times the runner repeats each
	// benchmark; repeats become the samples behind mean and stddev.
	Count int

	Timeout time.Duration
}

// Runner launches and manages one benchmark runner process.
type Runner struct {
	// GoBinary is the toolchain executable, normally "go".
	GoBinary string

	// Tee, when set, receives a live copy of the runner's stdout so
	// progress is visible during long runs.
	Tee io.Writer

	Logger *slog.Logger
}

// NewRunner creates a Runner that invokes the go toolchain from PATH.
func NewRunner(logger *slog.Logger, tee io.Writer) *Runner {
	return &Runner{
		GoBinary: "go",
		Tee:      tee,
		Logger:   logger,
	}
}

// Run executes the benchmark runner and returns its raw stdout. Any
// child failure (launch error, non-zero exit, timeout) is returned as
// an error; no partial output is ever reported as success.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) ([]byte, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	args := buildArgs(cfg)
	cmd := exec.CommandContext(ctx, r.GoBinary, args...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	if r.Tee != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Tee)
	}

	cmd.Stderr = &stderr

	r.Logger.Info("starting benchmark runner",
		slog.String("binary", r.GoBinary),
		slog.Any("args", args),
	)

	wallStart := time.Now()

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf(
			"benchmark runner failed: %w\nstderr: %s",
			err, stderr.String(),
		)
	}

	r.Logger.Info("benchmark runner finished",
		slog.Duration("wall_time", time.Since(wallStart)),
	)

	return stdout.Bytes(), nil
}

func buildArgs(cfg RunConfig) []string {
	filter := cfg.Filter
	if filter == "" {
		filter = "^BenchmarkHash$"
	}

	args := []string{
		"test",
		"-run", "^$",
		"-bench", filter,
		"-count", strconv.Itoa(cfg.Count),
	}

	if cfg.Timeout > 0 {
		args = append(args, "-timeout", cfg.Timeout.String())
	}

	return append(args, cfg.BenchDir)
}

// BenchFilter builds the -bench regex selecting the given workloads and
// hashers. Empty slices select everything at that level.
func BenchFilter(workloads, hashers []string) string {
	parts := []string{"^BenchmarkHash$", alternation(workloads)}
	if len(hashers) > 0 {
		parts = append(parts, alternation(hashers))
	}

	return strings.Join(parts, "/")
}

func alternation(names []string) string {
	if len(names) == 0 {
		return ".*"
	}

	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}

	return "^(" + strings.Join(quoted, "|") + ")$"
}
