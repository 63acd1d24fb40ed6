package worker

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nthash/cryptonight"
	"github.com/nthash/cryptonight/config"
	"github.com/nthash/cryptonight/pool"
	"github.com/nthash/cryptonight/scratchpad"
)

type recordingSink struct {
	shares chan cryptonight.Share
}

func newRecordingSink() *recordingSink {
	return &recordingSink{shares: make(chan cryptonight.Share, 256)}
}

func (s *recordingSink) Submit(share cryptonight.Share) {
	s.shares <- share
}

func padTo(s string, n int) []byte {
	b := []byte(s)
	if len(b) < n {
		b = append(b, make([]byte, n-len(b))...)
	}
	return b
}

func TestRunSingleEmitsSharesAtMaxTarget(t *testing.T) {
	var slot pool.WorkSlot
	sink := newRecordingSink()

	cfg := config.Thread{
		Mode:      config.Single,
		Variant:   cryptonight.Variant0,
		CPUID:     -1,
		HugePages: scratchpad.NeverUse,
	}
	w, err := New(cfg, &slot, sink, nil, 0, "w0", nil)
	require.NoError(t, err)

	blob := padTo("nonce iteration test blob", 76)
	slot.Publish(&cryptonight.Job{ID: []byte("job"), Blob: blob, Target: ^uint64(0)})

	done := make(chan struct{})
	go w.Run(done)

	select {
	case share := <-sink.shares:
		require.Equal(t, "job", string(share.JobID))
	case <-time.After(5 * time.Second):
		t.Fatal("expected at least one share within 5s at maximum target")
	}

	close(done)
}

func TestRunSingleKeepsRunningAcrossGenerationChange(t *testing.T) {
	var slot pool.WorkSlot
	sink := newRecordingSink()

	cfg := config.Thread{
		Mode:      config.Single,
		Variant:   cryptonight.Variant0,
		CPUID:     -1,
		HugePages: scratchpad.NeverUse,
	}
	w, err := New(cfg, &slot, sink, nil, 0, "w0", nil)
	require.NoError(t, err)

	blob := padTo("first job blob for generation test", 76)
	// Target 0: no hash can ever satisfy it, so the worker just iterates
	// nonces until the job changes.
	slot.Publish(&cryptonight.Job{ID: []byte("first"), Blob: blob, Target: 0})

	done := make(chan struct{})
	runExited := make(chan struct{})
	go func() {
		w.Run(done)
		close(runExited)
	}()

	time.Sleep(50 * time.Millisecond)
	slot.Publish(&cryptonight.Job{ID: []byte("second"), Blob: blob, Target: 0})

	select {
	case <-runExited:
		t.Fatal("Run should continue polling, not exit, on a generation change without done closed")
	case <-time.After(100 * time.Millisecond):
	}

	close(done)
	select {
	case <-runExited:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after done was closed")
	}
}

func TestNonceIsPatchedIntoBlob(t *testing.T) {
	blob := padTo("blob for nonce patch check", 76)
	binary.LittleEndian.PutUint32(blob[cryptonight.NonceOffset:], 0)

	nonce := cryptonight.CalcStartNonce(7)
	binary.LittleEndian.PutUint32(blob[cryptonight.NonceOffset:], nonce)

	require.Equal(t, uint32(7), binary.LittleEndian.Uint32(blob[cryptonight.NonceOffset:]))
}
