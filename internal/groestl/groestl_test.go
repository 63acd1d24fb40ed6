package groestl

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
	h1.Write([]byte("groestl test vector"))
	sum1 := h1.Sum(nil)

	h2 := New256()
	h2.Write([]byte("groestl test vector"))
	sum2 := h2.Sum(nil)

	if len(sum1) != Size {
		t.Fatalf("Sum length = %d, want %d", len(sum1), Size)
	}
	if !bytes.Equal(sum1, sum2) {
		t.Fatalf("Grøstl-256 not deterministic for identical input")
	}
}

func TestSumDiffersOnInput(t *testing.T) {
	h1 := New256()
	h1.Write([]byte("input A"))
	h2 := New256()
	h2.Write([]byte("input B"))

	if bytes.Equal(h1.Sum(nil), h2.Sum(nil)) {
		t.Fatalf("Grøstl-256 produced identical digests for distinct inputs")
	}
}

func TestWriteInChunksMatchesSingleWrite(t *testing.T) {
	data := []byte("a message long enough to span more than one 64-byte Grøstl block, padding included")

	h1 := New256()
	h1.Write(data)
	want := h1.Sum(nil)

	h2 := New256()
	for i := 0; i < len(data); i += 7 {
		end := i + 7
		if end > len(data) {
			end = len(data)
		}
		h2.Write(data[i:end])
	}
	got := h2.Sum(nil)

	if !bytes.Equal(got, want) {
		t.Fatalf("chunked writes produced a different digest than one large write")
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
