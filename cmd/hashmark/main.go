// Package main provides the CLI entry point for hashmark, a harness
// that benchmarks hash function implementations across input workloads
// and renders the comparison from CSV reports.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"hashmark/collect"
	"hashmark/config"
	"hashmark/harness"
	"hashmark/report"
)

// rawOutputFile is where the driver saves the runner's raw output
// inside the output directory, so collection can be re-run offline.
const rawOutputFile = "bench.out"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hashmark:", err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "hashmark",
		Short: "Hash function benchmarking harness",
		Long: `Hashmark compares external hash function implementations across
input workloads. It delegates measurement to the Go benchmark runner,
collects the runner's output into per-workload CSV files, and renders a
static comparison page over them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newCollectCmd(logger))
	root.AddCommand(newRenderCmd(logger))
	root.AddCommand(newServeCmd(logger))

	return root
}

// planFlags binds the fields of a config.Plan to CLI flags; any flag
// the user sets wins over the plan file.
type planFlags struct {
	planPath  string
	hashers   []string
	workloads []string
	count     int
	timeout   time.Duration
	benchDir  string
	outputDir string
}

func (f *planFlags) register(cmd *cobra.Command) {
	def := config.Default()

	flags := cmd.Flags()
	flags.StringVar(&f.planPath, "plan", "",
		"Path to a YAML benchmark plan file")
	flags.StringSliceVar(&f.hashers, "hashers", nil,
		"Hashers to benchmark (default: all registered)")
	flags.StringSliceVar(&f.workloads, "workloads", nil,
		"Workloads to benchmark (default: all registered)")
	flags.IntVar(&f.count, "count", def.Count,
		"Benchmark repetitions per (hasher, workload, size) cell")
	flags.DurationVar(&f.timeout, "timeout", time.Duration(def.Timeout),
		"Overall benchmark runner timeout")
	flags.StringVar(&f.benchDir, "bench-dir", def.BenchDir,
		"Package path of the benchmark suite")
	flags.StringVar(&f.outputDir, "out", def.OutputDir,
		"Directory for CSV reports and the static page")
}

// resolve merges the plan file (if any) with explicitly set flags.
func (f *planFlags) resolve(cmd *cobra.Command) (config.Plan, error) {
	plan := config.Default()

	if f.planPath != "" {
		var err error

		plan, err = config.Load(f.planPath)
		if err != nil {
			return plan, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("hashers") {
		plan.Hashers = f.hashers
	}
	if flags.Changed("workloads") {
		plan.Workloads = f.workloads
	}
	if flags.Changed("count") {
		plan.Count = f.count
	}
	if flags.Changed("timeout") {
		plan.Timeout = config.Duration(f.timeout)
	}
	if flags.Changed("bench-dir") {
		plan.BenchDir = f.benchDir
	}
	if flags.Changed("out") {
		plan.OutputDir = f.outputDir
	}

	if err := plan.Validate(); err != nil {
		return plan, err
	}

	return plan, nil
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		flags planFlags
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark matrix and write CSV reports",
		Long: `Invoke the Go benchmark runner over the configured (hasher,
workload) matrix, collect its output into per-workload CSV files, and
write the static report page.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := flags.resolve(cmd)
			if err != nil {
				return err
			}

			return runBenchmark(cmd.Context(), logger, plan, quiet)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&quiet, "quiet", false,
		"Do not echo runner output while it runs")

	return cmd
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	plan config.Plan,
	quiet bool,
) error {
	logger.InfoContext(ctx, "starting benchmark",
		slog.Any("hashers", plan.Hashers),
		slog.Any("workloads", plan.Workloads),
		slog.Int("count", plan.Count),
		slog.String("bench_dir", plan.BenchDir),
	)

	// Step 1: Run the external benchmark runner.
	var tee io.Writer = os.Stderr
	if quiet {
		tee = nil
	}

	runner := harness.NewRunner(logger, tee)

	raw, err := runner.Run(ctx, harness.RunConfig{
		BenchDir: plan.BenchDir,
		Filter:   harness.BenchFilter(plan.Workloads, plan.Hashers),
		Count:    plan.Count,
		Timeout:  time.Duration(plan.Timeout),
	})
	if err != nil {
		return fmt.Errorf("run benchmarks: %w", err)
	}

	// Step 2: Save the raw output for offline re-collection.
	if err := os.MkdirAll(plan.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rawPath := filepath.Join(plan.OutputDir, rawOutputFile)
	if err := os.WriteFile(rawPath, raw, 0o644); err != nil {
		return fmt.Errorf("save raw output: %w", err)
	}

	// Step 3: Collect and report.
	if err := collectAndReport(
		ctx, logger, bytes.NewReader(raw), plan.OutputDir,
	); err != nil {
		return err
	}

	logger.InfoContext(ctx, "benchmark complete",
		slog.String("output_dir", plan.OutputDir),
	)

	return nil
}

func newCollectCmd(logger *slog.Logger) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "collect <raw-output-file>",
		Short: "Collect saved benchmark runner output into CSV reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open raw output: %w", err)
			}
			defer f.Close()

			return collectAndReport(
				cmd.Context(), logger, f, outputDir,
			)
		},
	}

	cmd.Flags().StringVar(&outputDir, "out", config.Default().OutputDir,
		"Directory for CSV reports and the static page")

	return cmd
}

// collectAndReport runs the collector and renderer stages over raw
// runner output. Nothing is written unless the whole input parses.
func collectAndReport(
	ctx context.Context,
	logger *slog.Logger,
	raw io.Reader,
	outputDir string,
) error {
	samples, err := collect.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse bench output: %w", err)
	}

	measurements, err := collect.Aggregate(samples)
	if err != nil {
		return fmt.Errorf("aggregate samples: %w", err)
	}

	paths, err := report.WriteCSV(outputDir, measurements)
	if err != nil {
		return fmt.Errorf("write CSV reports: %w", err)
	}

	logger.InfoContext(ctx, "reports written",
		slog.Int("samples", len(samples)),
		slog.Int("measurements", len(measurements)),
		slog.Any("files", paths),
	)

	if _, err := report.WriteHTML(outputDir); err != nil {
		return fmt.Errorf("write report page: %w", err)
	}

	tables := loadTables(logger, paths)

	return report.Generate(os.Stdout, tables)
}

func newRenderCmd(logger *slog.Logger) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Re-render the summary and static page from existing CSVs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := filepath.Glob(
				filepath.Join(outputDir, "*.csv"),
			)
			if err != nil {
				return fmt.Errorf("scan %s: %w", outputDir, err)
			}

			if _, err := report.WriteHTML(outputDir); err != nil {
				return fmt.Errorf("write report page: %w", err)
			}

			tables := loadTables(logger, paths)

			return report.Generate(os.Stdout, tables)
		},
	}

	cmd.Flags().StringVar(&outputDir, "out", config.Default().OutputDir,
		"Directory holding the CSV reports")

	return cmd
}

// loadTables loads each CSV, degrading unreadable files to an empty
// table so the summary shows a visible no-data entry instead of
// aborting. The renderer is a presentation layer; only the collector
// treats bad input as fatal.
func loadTables(logger *slog.Logger, paths []string) []*report.Table {
	tables := make([]*report.Table, 0, len(paths))

	for _, path := range paths {
		table, err := report.LoadCSV(path)
		if err != nil {
			logger.Warn("skipping unreadable report",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)

			name := filepath.Base(path)
			table = &report.Table{
				Workload: name[:len(name)-len(".csv")],
			}
		}

		tables = append(tables, table)
	}

	return tables
}

func newServeCmd(logger *slog.Logger) *cobra.Command {
	var (
		outputDir string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report directory over HTTP",
		Long: `Serve the output directory so the static report page can fetch
its CSV files from a browser.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.Info("serving report",
				slog.String("addr", addr),
				slog.String("dir", outputDir),
			)

			server := &http.Server{
				Addr:              addr,
				Handler:           http.FileServer(http.Dir(outputDir)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			return server.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&outputDir, "out", config.Default().OutputDir,
		"Directory holding the CSV reports")
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080",
		"Listen address")

	return cmd
}
