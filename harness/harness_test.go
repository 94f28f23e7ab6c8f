package harness

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func TestBuildArgs(t *testing.T) {
	args := buildArgs(RunConfig{
		BenchDir: "./bench",
		Filter:   "^BenchmarkHash$/^(bytes)$",
		Count:    5,
		Timeout:  90 * time.Second,
	})

	assert.Equal(t, []string{
		"test",
		"-run", "^$",
		"-bench", "^BenchmarkHash$/^(bytes)$",
		"-count", "5",
		"-timeout", "1m30s",
		"./bench",
	}, args)
}

func TestBuildArgsDefaults(t *testing.T) {
	args := buildArgs(RunConfig{BenchDir: "./bench", Count: 1})

	assert.Contains(t, args, "^BenchmarkHash$")
	assert.NotContains(t, args, "-timeout")
}

func TestBenchFilter(t *testing.T) {
	tests := []struct {
		workloads []string
		hashers   []string
		want      string
	}{
		{nil, nil, "^BenchmarkHash$/.*"},
		{[]string{"bytes"}, nil, "^BenchmarkHash$/^(bytes)$"},
		{
			[]string{"bytes", "mapdense"},
			[]string{"Sip", "XX"},
			"^BenchmarkHash$/^(bytes|mapdense)$/^(Sip|XX)$",
		},
		{nil, []string{"A+B"}, `^BenchmarkHash$/.*/^(A\+B)$`},
	}

	for _, tt := range tests {
		got := BenchFilter(tt.workloads, tt.hashers)
		assert.Equal(t, tt.want, got)
	}
}

// writeStub creates an executable that prints canned runner output,
// standing in for the go toolchain.
func writeStub(t *testing.T, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("stub runner requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fake-go")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755)
	require.NoError(t, err)

	return path
}

func TestRunCapturesOutput(t *testing.T) {
	stub := writeStub(t, `printf 'BenchmarkHash/bytes/Sip/64-8\t100\t120.0 ns/op\n'`)

	r := NewRunner(testLogger(), nil)
	r.GoBinary = stub

	out, err := r.Run(context.Background(), RunConfig{
		BenchDir: ".",
		Count:    1,
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "BenchmarkHash/bytes/Sip/64")
}

func TestRunSurfacesChildFailure(t *testing.T) {
	stub := writeStub(t, `echo 'boom' >&2; exit 3`)

	r := NewRunner(testLogger(), nil)
	r.GoBinary = stub

	_, err := r.Run(context.Background(), RunConfig{
		BenchDir: ".",
		Count:    1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRunHonorsContext(t *testing.T) {
	stub := writeStub(t, `sleep 10`)

	r := NewRunner(testLogger(), nil)
	r.GoBinary = stub

	ctx, cancel := context.WithTimeout(
		context.Background(), 50*time.Millisecond,
	)
	defer cancel()

	_, err := r.Run(ctx, RunConfig{BenchDir: ".", Count: 1})
	assert.Error(t, err)
}
