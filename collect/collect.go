// Package collect parses raw benchmark runner output into samples and
// aggregates repeated runs into per-cell measurements. Parsing is
// strict: a benchmark line that does not match the expected shape fails
// the whole collection, because a silently incomplete report would
// misrepresent the comparison.
package collect

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Sample is one benchmark result line: a single measured run of a
// (workload, hasher, size) cell.
type Sample struct {
	Workload string
	Hasher   string
	Size     int
	Iters    int64
	NsPerOp  float64
	MBPerSec float64
}

// Measurement aggregates the repeated samples of one cell. StddevNs is
// the sample standard deviation across `-count` repetitions, zero when
// there is only one.
type Measurement struct {
	Workload string
	Hasher   string
	Size     int
	Samples  int
	MeanNs   float64
	StddevNs float64
	MBPerSec float64
}

// Parse reads raw `go test -bench` output and returns every benchmark
// sample in order of appearance. Non-benchmark lines (goos/pkg
// preamble, PASS, ok) are ignored; malformed benchmark lines are a hard
// error.
func Parse(r io.Reader) ([]Sample, error) {
	var samples []Sample

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++

		line := sc.Text()
		if !strings.HasPrefix(line, "Benchmark") {
			continue
		}

		s, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		samples = append(samples, s)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read bench output: %w", err)
	}

	return samples, nil
}

func parseLine(line string) (Sample, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Sample{}, fmt.Errorf("truncated benchmark line %q", line)
	}

	s, err := parseName(fields[0])
	if err != nil {
		return Sample{}, err
	}

	s.Iters, err = strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Sample{}, fmt.Errorf(
			"iteration count %q: %w", fields[1], err,
		)
	}

	// Remaining fields come in value/unit pairs.
	sawNsPerOp := false

	for i := 2; i+1 < len(fields); i += 2 {
		value, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return Sample{}, fmt.Errorf(
				"metric value %q: %w", fields[i], err,
			)
		}

		switch unit := fields[i+1]; unit {
		case "ns/op":
			s.NsPerOp = value
			sawNsPerOp = true
		case "MB/s":
			s.MBPerSec = value
		case "B/op", "allocs/op":
			// Reported under -benchmem; not part of the CSV
			// contract.
		default:
			return Sample{}, fmt.Errorf(
				"unexpected metric unit %q in %q", unit, line,
			)
		}
	}

	if !sawNsPerOp {
		return Sample{}, fmt.Errorf("no ns/op metric in %q", line)
	}

	return s, nil
}

// parseName splits "BenchmarkHash/<workload>/<hasher>/<size>[-P]".
func parseName(name string) (Sample, error) {
	parts := strings.Split(name, "/")
	if len(parts) != 4 {
		return Sample{}, fmt.Errorf("unexpected benchmark name %q", name)
	}

	if parts[0] != "BenchmarkHash" {
		return Sample{}, fmt.Errorf(
			"unexpected benchmark family %q", parts[0],
		)
	}

	sizeField := parts[3]
	if i := strings.LastIndexByte(sizeField, '-'); i >= 0 {
		sizeField = sizeField[:i]
	}

	size, err := strconv.Atoi(sizeField)
	if err != nil {
		return Sample{}, fmt.Errorf(
			"input size in benchmark name %q: %w", name, err,
		)
	}

	return Sample{
		Workload: parts[1],
		Hasher:   parts[2],
		Size:     size,
	}, nil
}

type cellKey struct {
	workload string
	hasher   string
	size     int
}

// Aggregate groups samples by (workload, hasher, size) and reduces each
// group to a Measurement. The result is fully ordered by workload, then
// hasher, then size, so identical input always yields identical output.
func Aggregate(samples []Sample) ([]Measurement, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("benchmark output contained no samples")
	}

	groups := make(map[cellKey][]Sample)
	for _, s := range samples {
		key := cellKey{s.Workload, s.Hasher, s.Size}
		groups[key] = append(groups[key], s)
	}

	measurements := make([]Measurement, 0, len(groups))

	for key, group := range groups {
		var sumNs, sumMB float64
		for _, s := range group {
			sumNs += s.NsPerOp
			sumMB += s.MBPerSec
		}

		n := float64(len(group))
		meanNs := sumNs / n

		var stddev float64
		if len(group) > 1 {
			var sq float64
			for _, s := range group {
				d := s.NsPerOp - meanNs
				sq += d * d
			}

			stddev = math.Sqrt(sq / (n - 1))
		}

		measurements = append(measurements, Measurement{
			Workload: key.workload,
			Hasher:   key.hasher,
			Size:     key.size,
			Samples:  len(group),
			MeanNs:   meanNs,
			StddevNs: stddev,
			MBPerSec: sumMB / n,
		})
	}

	sort.Slice(measurements, func(i, j int) bool {
		a, b := measurements[i], measurements[j]
		if a.Workload != b.Workload {
			return a.Workload < b.Workload
		}
		if a.Hasher != b.Hasher {
			return a.Hasher < b.Hasher
		}

		return a.Size < b.Size
	})

	return measurements, nil
}
