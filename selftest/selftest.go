// Package selftest reads the tests.txt vector format of spec.md §6 and
// verifies single- and double-hash digests against it.
package selftest

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/nthash/cryptonight"
)

// Vector is one parsed tests.txt record: an input blob and its expected
// v0/v1/v2 digests.
type Vector struct {
	Input []byte
	V0    []byte
	V1    []byte
	V2    []byte
}

// Parse reads tests.txt's alternating (input, v0, v1, v2) records.
func Parse(r io.Reader) ([]Vector, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("selftest: read: %w", err)
	}
	if len(lines)%4 != 0 {
		return nil, fmt.Errorf("selftest: expected a multiple of 4 non-empty lines, got %d", len(lines))
	}

	vectors := make([]Vector, 0, len(lines)/4)
	for i := 0; i < len(lines); i += 4 {
		input, err := hex.DecodeString(lines[i])
		if err != nil {
			return nil, fmt.Errorf("selftest: line %d: decode input: %w", i+1, err)
		}
		v0, err := hex.DecodeString(lines[i+1])
		if err != nil {
			return nil, fmt.Errorf("selftest: line %d: decode v0 digest: %w", i+2, err)
		}
		v1, err := hex.DecodeString(lines[i+2])
		if err != nil {
			return nil, fmt.Errorf("selftest: line %d: decode v1 digest: %w", i+3, err)
		}
		v2, err := hex.DecodeString(lines[i+3])
		if err != nil {
			return nil, fmt.Errorf("selftest: line %d: decode v2 digest: %w", i+4, err)
		}
		vectors = append(vectors, Vector{Input: input, V0: v0, V1: v1, V2: v2})
	}
	return vectors, nil
}

// Mismatch describes one failed comparison.
type Mismatch struct {
	VectorIndex int
	Variant     string
	Got         []byte
	Want        []byte
}

// Run verifies every vector's v0 digest, and its v1/v2 digests when the
// input is at least cryptonight.MinBlobLen bytes long, plus v0 DoubleHash
// agreement between each adjacent pair whose inputs both meet that length
// (spec.md §6/§8 scenario 6). It returns every
// mismatch found rather than stopping at the first, so a caller can report
// them all.
func Run(vectors []Vector) []Mismatch {
	var mismatches []Mismatch
	cache := cryptonight.NewCache()

	for i, v := range vectors {
		if got := cache.Sum(v.Input, cryptonight.Variant0); !bytesEqual(got, v.V0) {
			mismatches = append(mismatches, Mismatch{i, "v0", got, v.V0})
		}
		if len(v.Input) >= cryptonight.MinBlobLen {
			if got := cache.Sum(v.Input, cryptonight.Variant1); !bytesEqual(got, v.V1) {
				mismatches = append(mismatches, Mismatch{i, "v1", got, v.V1})
			}
			if got := cache.Sum(v.Input, cryptonight.Variant2); !bytesEqual(got, v.V2) {
				mismatches = append(mismatches, Mismatch{i, "v2", got, v.V2})
			}
		}
	}

	cacheA := cryptonight.NewCache()
	cacheB := cryptonight.NewCache()
	for i := 0; i+1 < len(vectors); i++ {
		a, b := vectors[i], vectors[i+1]
		if len(a.Input) < cryptonight.MinBlobLen || len(b.Input) < cryptonight.MinBlobLen {
			continue
		}
		gotA, gotB := cryptonight.DoubleHash(cacheA, cacheB, a.Input, b.Input, cryptonight.Variant0)
		if !bytesEqual(gotA, a.V0) || !bytesEqual(gotB, b.V0) {
			mismatches = append(mismatches, Mismatch{i, "double-hash v0", append(append([]byte{}, gotA...), gotB...), append(append([]byte{}, a.V0...), b.V0...)})
		}
	}

	return mismatches
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
