package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hashmark/collect"
)

func sampleMeasurements() []collect.Measurement {
	return []collect.Measurement{
		{
			Workload: "bytes", Hasher: "Fnv", Size: 64,
			Samples: 5, MeanNs: 45, StddevNs: 1.1, MBPerSec: 1422.22,
		},
		{
			Workload: "bytes", Hasher: "Sip", Size: 64,
			Samples: 5, MeanNs: 120, StddevNs: 3.2, MBPerSec: 533.33,
		},
		{
			Workload: "mapdense", Hasher: "XX", Size: 64,
			Samples: 5, MeanNs: 25000, StddevNs: 400, MBPerSec: 2560,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()

	paths, err := WriteCSV(dir, sampleMeasurements())
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "bytes.csv"),
		filepath.Join(dir, "mapdense.csv"),
	}, paths)

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)

	want := "hasher,size,mean_ns,stddev_ns,mb_per_sec\n" +
		"Fnv,64,45.00,1.10,1422.22\n" +
		"Sip,64,120.00,3.20,533.33\n"
	assert.Equal(t, want, string(content))
}

func TestWriteCSVDeterministic(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	_, err := WriteCSV(dirA, sampleMeasurements())
	require.NoError(t, err)
	_, err = WriteCSV(dirB, sampleMeasurements())
	require.NoError(t, err)

	a, err := os.ReadFile(filepath.Join(dirA, "bytes.csv"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dirB, "bytes.csv"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestWriteCSVEmpty(t *testing.T) {
	_, err := WriteCSV(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestLoadCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteCSV(dir, sampleMeasurements())
	require.NoError(t, err)

	table, err := LoadCSV(filepath.Join(dir, "bytes.csv"))
	require.NoError(t, err)
	assert.Equal(t, "bytes", table.Workload)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, "Fnv", table.Rows[0].Hasher)
	assert.Equal(t, 64, table.Rows[0].Size)
	assert.Equal(t, 45.0, table.Rows[0].MeanNs)
	assert.Equal(t, 1.1, table.Rows[0].StddevNs)
	assert.Equal(t, 1422.22, table.Rows[0].Throughput)
}

func TestLoadCSVReducedSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bytes.csv")
	data := "hasher,mean,stddev\nSip,120.0,3.2\nFnv,45.0,1.1\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	table, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	byHasher := map[string]Row{}
	for _, row := range table.Rows {
		byHasher[row.Hasher] = row
	}

	assert.Equal(t, 120.0, byHasher["Sip"].MeanNs)
	assert.Equal(t, 3.2, byHasher["Sip"].StddevNs)
	assert.Equal(t, 45.0, byHasher["Fnv"].MeanNs)
	assert.Equal(t, 1.1, byHasher["Fnv"].StddevNs)
}

func TestLoadCSVEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bytes.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	table, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestLoadCSVMissing(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestLoadCSVMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown header", "pet,food\ncat,fish\n"},
		{"non-numeric mean", "hasher,mean,stddev\nSip,fast,3.2\n"},
		{"non-numeric size", "hasher,size,mean_ns,stddev_ns,mb_per_sec\nSip,big,1,1,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "w.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			_, err := LoadCSV(path)
			assert.Error(t, err)
		})
	}
}

func TestGenerate(t *testing.T) {
	tables := []*Table{
		{
			Workload: "bytes",
			Rows: []Row{
				{Hasher: "Sip", Size: 64, MeanNs: 120, StddevNs: 3.2, Throughput: 533.33},
				{Hasher: "Fnv", Size: 64, MeanNs: 45, StddevNs: 1.1, Throughput: 1422.22},
				{Hasher: "Sip", Size: 8, MeanNs: 20},
				{Hasher: "Fnv", Size: 8, MeanNs: 10},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, tables))

	out := buf.String()

	assert.Contains(t, out, "### bytes")
	assert.Contains(t, out, "Input size: 64 bytes")
	// Fastest first, slowdown relative to it.
	assert.Contains(t, out, "| Fnv | 45.0ns | 1.1ns | 1422.2 MB/s | 1.00x |")
	assert.Contains(t, out, "| Sip | 120.0ns | 3.2ns | 533.3 MB/s | 2.67x |")
	// Only the largest size is compared.
	assert.NotContains(t, out, "| Fnv | 10.0ns")
}

func TestGenerateNoData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, []*Table{{Workload: "bytes"}}))
	assert.Contains(t, buf.String(), "_no data_")

	buf.Reset()
	require.NoError(t, Generate(&buf, nil))
	assert.Contains(t, buf.String(), "_no data_")
}

func TestFormatNs(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "-"},
		{45, "45.0ns"},
		{999.9, "999.9ns"},
		{1000, "1.00µs"},
		{25000, "25.00µs"},
		{2.5e6, "2.50ms"},
	}

	for _, tt := range tests {
		got := formatNs(tt.input)
		if got != tt.want {
			t.Errorf("formatNs(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWriteHTML(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteCSV(dir, sampleMeasurements())
	require.NoError(t, err)

	path, err := WriteHTML(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.html"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	page := string(content)
	assert.Contains(t, page, `"bytes"`)
	assert.Contains(t, page, `"mapdense"`)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
}

func TestWriteHTMLEmptyDir(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteHTML(dir)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "const workloads = [];")
}
