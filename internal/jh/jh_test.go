package jh

import (
	"bytes"
	"testing"
)

func TestNew256Size(t *testing.T) {
	h := New256()
	if h.Size() != Size {
		t.Fatalf("Size() = %d, want %d", h.Size(), Size)
	}
	if h.BlockSize() != BlockSize {
		t.Fatalf("BlockSize() = %d, want %d", h.BlockSize(), BlockSize)
	}
}

func TestSumLengthAndDeterminism(t *testing.T) {
	h1 := New256()
	h1.Write([]byte("jh test vector"))
	sum1 := h1.Sum(nil)

	h2 := New256()
	h2.Write([]byte("jh test vector"))
	sum2 := h2.Sum(nil)

	if len(sum1) != Size {
		t.Fatalf("Sum length = %d, want %d", len(sum1), Size)
	}
	if !bytes.Equal(sum1, sum2) {
		t.Fatalf("JH-256 not deterministic for identical input")
	}
}

func TestSumDiffersOnInput(t *testing.T) {
	h1 := New256()
	h1.Write([]byte("input A"))
	h2 := New256()
	h2.Write([]byte("input B"))

	if bytes.Equal(h1.Sum(nil), h2.Sum(nil)) {
		t.Fatalf("JH-256 produced identical digests for distinct inputs")
	}
}

func TestSumDiffersOnLength(t *testing.T) {
	// Regression test for the bitLen-from-buffered-bytes-only bug: two
	// messages differing only by how many full blocks precede the final
	// partial one must not collide just because their trailing bytes match.
	h1 := New256()
	h1.Write(bytes.Repeat([]byte{0x42}, BlockSize+5))
	h2 := New256()
	h2.Write(bytes.Repeat([]byte{0x42}, 5))

	if bytes.Equal(h1.Sum(nil), h2.Sum(nil)) {
		t.Fatalf("JH-256 collided on messages of different total length")
	}
}

func TestResetProducesFreshState(t *testing.T) {
	h := New256()
	h.Write([]byte("before reset"))
	h.Sum(nil)
	h.Reset()
	h.Write([]byte("after reset"))

	h2 := New256()
	h2.Write([]byte("after reset"))

	if !bytes.Equal(h.Sum(nil), h2.Sum(nil)) {
		t.Fatalf("Reset did not clear prior state")
	}
}
