// Package report owns the CSV contract between the collector and the
// renderer, and formats human-readable views of it.
//
// Each workload gets one file, `<workload>.csv`, with the fixed header
//
//	hasher,size,mean_ns,stddev_ns,mb_per_sec
//
// and one row per (hasher, size), ordered by hasher then size. The
// column order and names are the binding contract with the static
// report page and must stay stable across runs. The loader locates
// columns by header name, so the reduced `hasher,mean,stddev` layout
// also loads.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"hashmark/collect"
)

var columns = []string{"hasher", "size", "mean_ns", "stddev_ns", "mb_per_sec"}

// WriteCSV writes one CSV file per workload into dir and returns the
// paths written, sorted. Measurements are assumed pre-sorted by
// collect.Aggregate; rows are emitted in that order, so identical
// measurements always produce byte-identical files.
func WriteCSV(dir string, measurements []collect.Measurement) ([]string, error) {
	if len(measurements) == 0 {
		return nil, fmt.Errorf("no measurements to write")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}

	byWorkload := make(map[string][]collect.Measurement)
	for _, m := range measurements {
		byWorkload[m.Workload] = append(byWorkload[m.Workload], m)
	}

	workloads := make([]string, 0, len(byWorkload))
	for name := range byWorkload {
		workloads = append(workloads, name)
	}

	sort.Strings(workloads)

	paths := make([]string, 0, len(workloads))

	for _, name := range workloads {
		path := filepath.Join(dir, name+".csv")
		if err := writeFile(path, byWorkload[name]); err != nil {
			return nil, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func writeFile(path string, measurements []collect.Measurement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write(columns); err != nil {
		f.Close()

		return fmt.Errorf("write %s: %w", path, err)
	}

	for _, m := range measurements {
		record := []string{
			m.Hasher,
			strconv.Itoa(m.Size),
			formatFloat(m.MeanNs),
			formatFloat(m.StddevNs),
			formatFloat(m.MBPerSec),
		}
		if err := w.Write(record); err != nil {
			f.Close()

			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()

		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Row is one loaded CSV data row.
type Row struct {
	Hasher     string
	Size       int
	MeanNs     float64
	StddevNs   float64
	Throughput float64
}

// Table holds the loaded rows of one workload's CSV file. A Table with
// no rows renders as an explicit no-data state.
type Table struct {
	Workload string
	Rows     []Row
}

// LoadCSV reads one workload CSV. The workload name is taken from the
// file name. An empty file yields an empty Table; a malformed header or
// row is an error for the caller to degrade on.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), ".csv")

	table, err := readTable(name, f)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}

	return table, nil
}

func readTable(workload string, r io.Reader) (*Table, error) {
	table := &Table{Workload: workload}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return table, nil
	}
	if err != nil {
		return nil, err
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row, err := cols.row(record)
		if err != nil {
			return nil, err
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// colIndex maps contract column names to their position in the header.
// A value of -1 marks an optional column that is absent.
type colIndex struct {
	hasher     int
	size       int
	mean       int
	stddev     int
	throughput int
}

func mapColumns(header []string) (colIndex, error) {
	cols := colIndex{-1, -1, -1, -1, -1}

	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "hasher":
			cols.hasher = i
		case "size":
			cols.size = i
		case "mean", "mean_ns":
			cols.mean = i
		case "stddev", "stddev_ns":
			cols.stddev = i
		case "mb_per_sec":
			cols.throughput = i
		}
	}

	if cols.hasher < 0 || cols.mean < 0 {
		return cols, fmt.Errorf(
			"unrecognized CSV header %q: need at least hasher and mean columns",
			strings.Join(header, ","),
		)
	}

	return cols, nil
}

func (c colIndex) row(record []string) (Row, error) {
	var row Row

	get := func(i int) (string, bool) {
		if i < 0 || i >= len(record) {
			return "", false
		}

		return record[i], true
	}

	field, ok := get(c.hasher)
	if !ok || field == "" {
		return row, fmt.Errorf("row %q: missing hasher", record)
	}

	row.Hasher = field

	var err error

	if field, ok = get(c.size); ok {
		if row.Size, err = strconv.Atoi(field); err != nil {
			return row, fmt.Errorf("row %q: size: %w", record, err)
		}
	}

	field, ok = get(c.mean)
	if !ok {
		return row, fmt.Errorf("row %q: missing mean", record)
	}

	if row.MeanNs, err = strconv.ParseFloat(field, 64); err != nil {
		return row, fmt.Errorf("row %q: mean: %w", record, err)
	}

	if field, ok = get(c.stddev); ok {
		if row.StddevNs, err = strconv.ParseFloat(field, 64); err != nil {
			return row, fmt.Errorf("row %q: stddev: %w", record, err)
		}
	}

	if field, ok = get(c.throughput); ok {
		if row.Throughput, err = strconv.ParseFloat(field, 64); err != nil {
			return row, fmt.Errorf("row %q: throughput: %w", record, err)
		}
	}

	return row, nil
}

// Generate writes a markdown comparison to w, one section per workload.
// For workloads with a size column, hashers are compared at the largest
// measured size; reduced tables are compared as-is. Workloads without
// rows render a visible no-data marker instead of failing.
func Generate(w io.Writer, tables []*Table) error {
	fmt.Fprintln(w, "## Benchmark Results")

	if len(tables) == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "_no data_")

		return nil
	}

	for _, table := range tables {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "### %s\n", table.Workload)
		fmt.Fprintln(w)

		rows := comparisonRows(table)
		if len(rows) == 0 {
			fmt.Fprintln(w, "_no data_")

			continue
		}

		if size := rows[0].Size; size > 0 {
			fmt.Fprintf(w, "Input size: %d bytes\n\n", size)
		}

		fastest := findFastest(rows)

		fmt.Fprintln(w, "| Hasher | Mean | Stddev | Throughput | Slowdown |")
		fmt.Fprintln(w, "|--------|------|--------|------------|----------|")

		for _, row := range rows {
			slowdown := 1.0
			if fastest > 0 && row.MeanNs > 0 {
				slowdown = row.MeanNs / fastest
			}

			fmt.Fprintf(w, "| %s | %s | %s | %s | %.2fx |\n",
				row.Hasher,
				formatNs(row.MeanNs),
				formatNs(row.StddevNs),
				formatThroughput(row.Throughput),
				slowdown,
			)
		}
	}

	return nil
}

// comparisonRows picks the rows to compare: all rows at the largest
// size present, sorted fastest first.
func comparisonRows(table *Table) []Row {
	maxSize := 0
	for _, row := range table.Rows {
		if row.Size > maxSize {
			maxSize = row.Size
		}
	}

	var rows []Row
	for _, row := range table.Rows {
		if row.Size == maxSize {
			rows = append(rows, row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MeanNs != rows[j].MeanNs {
			return rows[i].MeanNs < rows[j].MeanNs
		}

		return rows[i].Hasher < rows[j].Hasher
	})

	return rows
}

func findFastest(rows []Row) float64 {
	fastest := 0.0
	for _, row := range rows {
		if row.MeanNs > 0 && (fastest == 0 || row.MeanNs < fastest) {
			fastest = row.MeanNs
		}
	}

	return fastest
}

func formatNs(ns float64) string {
	switch {
	case ns <= 0:
		return "-"
	case ns < 1000:
		return fmt.Sprintf("%.1fns", ns)
	case ns < 1e6:
		return fmt.Sprintf("%.2fµs", ns/1000)
	default:
		return fmt.Sprintf("%.2fms", ns/1e6)
	}
}

func formatThroughput(mbps float64) string {
	if mbps <= 0 {
		return "-"
	}

	return fmt.Sprintf("%.1f MB/s", mbps)
}
