// Package hasher registers the hash implementations under test. Every
// entry is an external library (or standard library) implementation;
// hashmark measures them, it does not implement them.
package hasher

import (
	"hash/fnv"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"
	farm "github.com/dgryski/go-farm"
	"github.com/minio/highwayhash"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Func computes a 64-bit digest of a byte sequence.
type Func func([]byte) uint64

// Keyed hashers get fixed keys so that digests, and therefore the
// chunk-counting workloads, are reproducible across runs.
const (
	sipKey0 = 0x0706050403020100
	sipKey1 = 0x0f0e0d0c0b0a0908
)

var highwayKey = [32]byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
	0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
	0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f,
}

// registry maps hasher name to implementation. Populated once here and
// read-only afterwards; adding an entry is all it takes for a hasher to
// appear in benchmark output and CSV reports.
var registry = map[string]Func{
	"Sip": func(b []byte) uint64 {
		return siphash.Hash(sipKey0, sipKey1, b)
	},
	"Fnv": func(b []byte) uint64 {
		h := fnv.New64a()
		h.Write(b)
		return h.Sum64()
	},
	"XX":      xxhash.Sum64,
	"XXH3":    xxh3.Hash,
	"Farm":    farm.Hash64,
	"Murmur3": func(b []byte) uint64 { return murmur3.Sum64(b) },
	"Highway": func(b []byte) uint64 {
		return highwayhash.Sum64(b, highwayKey[:])
	},
}

// Names returns all registered hasher names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Lookup returns the implementation registered under name.
func Lookup(name string) (Func, bool) {
	fn, ok := registry[name]

	return fn, ok
}
