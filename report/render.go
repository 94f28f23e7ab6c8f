package report

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
)

//go:embed assets/report.html.tmpl
var pageTemplate string

// WriteHTML writes the static report page into dir as index.html. The
// page fetches the workload CSVs from the same directory at view time;
// dir is scanned for them here so the page knows what to load. A page
// is written even when no CSVs exist, rendering a no-data message.
func WriteHTML(dir string) (string, error) {
	workloads, err := listWorkloads(dir)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("report").Parse(pageTemplate)
	if err != nil {
		return "", fmt.Errorf("parse report template: %w", err)
	}

	path := filepath.Join(dir, "index.html")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	data := struct{ Workloads []string }{Workloads: workloads}

	if err := tmpl.Execute(f, data); err != nil {
		f.Close()

		return "", fmt.Errorf("render report page: %w", err)
	}

	return path, f.Close()
}

func listWorkloads(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	workloads := make([]string, 0, len(matches))
	for _, path := range matches {
		name := strings.TrimSuffix(filepath.Base(path), ".csv")
		workloads = append(workloads, name)
	}

	sort.Strings(workloads)

	return workloads, nil
}
