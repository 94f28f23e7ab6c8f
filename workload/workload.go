// Package workload defines the named input-generation strategies that
// benchmark inputs are drawn from. Generators are deterministic: the
// same (workload, size) always yields the same bytes, so repeated runs
// measure the same work.
package workload

import (
	mrand "math/rand"
	"sort"
)

// ChunkCount is the number of fixed-size chunks a chunk-counting
// workload produces per benchmark operation.
const ChunkCount = 1000

// sparseSeed fixes the PRNG for the random-data workload.
const sparseSeed = 0x68617368

// Workload is a named strategy for generating benchmark input.
type Workload struct {
	Name string

	// Chunked reports whether the benchmark hashes Size-byte chunks
	// of the generated buffer and counts digest occurrences, rather
	// than hashing the buffer in one call.
	Chunked bool

	gen func(size int) []byte
}

// Generate returns the input buffer for the given chunk or buffer size.
func (w Workload) Generate(size int) []byte {
	return w.gen(size)
}

var registry = map[string]Workload{
	"bytes": {
		Name: "bytes",
		gen:  func(size int) []byte { return cyclic(size, 100) },
	},
	"mapdense": {
		Name:    "mapdense",
		Chunked: true,
		gen: func(size int) []byte {
			return cyclic(size*ChunkCount, 93)
		},
	},
	"mapsparse": {
		Name:    "mapsparse",
		Chunked: true,
		gen: func(size int) []byte {
			buf := make([]byte, size*ChunkCount)
			mrand.New(mrand.NewSource(sparseSeed)).Read(buf)

			return buf
		},
	},
}

func cyclic(n, period int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i % period)
	}

	return buf
}

// Sizes returns the input size ladder in bytes, ascending.
func Sizes() []int {
	return []int{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024, 2048}
}

// Names returns all registered workload names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Lookup returns the workload registered under name.
func Lookup(name string) (Workload, bool) {
	w, ok := registry[name]

	return w, ok
}

// All returns the registered workloads ordered by name.
func All() []Workload {
	names := Names()
	all := make([]Workload, 0, len(names))

	for _, name := range names {
		all = append(all, registry[name])
	}

	return all
}
