// Package bench is the benchmark suite that the hashmark driver runs
// through `go test -bench`. BenchmarkHash enumerates the hasher and
// workload registries as subbenchmarks named
//
//	BenchmarkHash/<workload>/<hasher>/<size>
//
// so the driver selects combinations with a -bench filter and the
// collector recovers the full matrix from the runner's output. Timing,
// warm-up and iteration-count policy belong to the Go benchmark runner,
// not to this package.
package bench
