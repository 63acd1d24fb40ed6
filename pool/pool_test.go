package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nthash/cryptonight"
)

// stubWorker watches the slot's generation and acknowledges the job each
// time it changes, so SwitchWork's handshake can
// be exercised without package worker (avoiding an import cycle in tests).
type stubWorker struct {
	slot *WorkSlot
}

func (s *stubWorker) Run(done <-chan struct{}) {
	lastGen := uint64(0)
	for {
		select {
		case <-done:
			return
		default:
		}
		if gen := s.slot.Generation(); gen != lastGen && gen != 0 {
			lastGen = gen
			s.slot.Acknowledge()
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartPublishesInitialJob(t *testing.T) {
	var built []*stubWorker
	p := New(nil, 2, func(slot *WorkSlot, index int) Worker {
		w := &stubWorker{slot: slot}
		built = append(built, w)
		return w
	})

	job := &cryptonight.Job{ID: []byte("job-1")}
	p.Start(job)
	defer p.Stop()

	require.Eventually(t, func() bool {
		return p.slot.Job() != nil && string(p.slot.Job().ID) == "job-1"
	}, time.Second, time.Millisecond)
}

func TestSwitchWorkWaitsForAcknowledgement(t *testing.T) {
	p := New(nil, 3, func(slot *WorkSlot, index int) Worker {
		return &stubWorker{slot: slot}
	})

	p.Start(&cryptonight.Job{ID: []byte("initial")})
	defer p.Stop()

	require.Eventually(t, func() bool {
		return p.slot.consumed.Load() == 3
	}, time.Second, time.Millisecond, "all workers should acknowledge the initial job")

	p.SwitchWork(&cryptonight.Job{ID: []byte("second")})
	require.Equal(t, "second", string(p.slot.Job().ID))

	require.Eventually(t, func() bool {
		return p.slot.consumed.Load() == 3
	}, time.Second, time.Millisecond, "all workers should acknowledge the second job")
}
