// Package config loads the optional benchmark plan file. The plan
// selects which hashers and workloads to run and how; CLI flags
// override it field by field. Hasher and workload names are validated
// against the registries at load time so typos fail before any
// benchmark starts.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"hashmark/hasher"
	"hashmark/workload"
)

// Duration wraps time.Duration so plans can say "90s" or "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)

	return nil
}

// Plan describes one benchmark run. Empty Hashers or Workloads mean
// the full registered set.
type Plan struct {
	Hashers   []string `yaml:"hashers"`
	Workloads []string `yaml:"workloads"`
	Count     int      `yaml:"count"`
	Timeout   Duration `yaml:"timeout"`
	BenchDir  string   `yaml:"bench_dir"`
	OutputDir string   `yaml:"output_dir"`
}

// Default returns the plan used when no file or flags override it.
func Default() Plan {
	return Plan{
		Count:     5,
		Timeout:   Duration(30 * time.Minute),
		BenchDir:  "./bench",
		OutputDir: "results",
	}
}

// Load reads a plan file on top of the defaults. Unknown fields are
// rejected.
func Load(path string) (Plan, error) {
	plan := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("read plan %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&plan); err != nil {
		return plan, fmt.Errorf("parse plan %s: %w", path, err)
	}

	if err := plan.Validate(); err != nil {
		return plan, fmt.Errorf("plan %s: %w", path, err)
	}

	return plan, nil
}

// Validate checks the plan against the registries and bounds.
func (p Plan) Validate() error {
	for _, name := range p.Hashers {
		if _, ok := hasher.Lookup(name); !ok {
			return fmt.Errorf(
				"unknown hasher %q (registered: %v)",
				name, hasher.Names(),
			)
		}
	}

	for _, name := range p.Workloads {
		if _, ok := workload.Lookup(name); !ok {
			return fmt.Errorf(
				"unknown workload %q (registered: %v)",
				name, workload.Names(),
			)
		}
	}

	if p.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", p.Count)
	}

	if p.BenchDir == "" {
		return fmt.Errorf("bench_dir must not be empty")
	}

	if p.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}

	return nil
}
