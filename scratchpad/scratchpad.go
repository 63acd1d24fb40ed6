// Package scratchpad implements the large-page allocation policies of
// spec.md §5 for the 2 MiB CryptoNight working set.
package scratchpad

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Policy selects how a Pad is backed: huge pages, locked memory, or a
// plain fallback allocation, mirroring the four modes of spec.md §5.
type Policy int

const (
	// AlwaysUse requires huge pages; allocation fails if unavailable.
	AlwaysUse Policy = iota
	// NeverUse always does a plain allocation, no locking.
	NeverUse
	// NoMlock requests huge pages but does not mlock them.
	NoMlock
	// PrintWarning tries huge pages first, falling back silently (after
	// logging) to a plain allocation.
	PrintWarning
)

// Size is the 2 MiB scratchpad size every CryptoNight variant uses.
const Size = 2 * 1024 * 1024

// Pad is a single worker's exclusively-owned scratchpad allocation. It is
// never shared between workers (spec.md §5).
type Pad struct {
	Bytes     []byte
	HugePages bool
	Locked    bool
}

// Alloc allocates a Pad according to policy. log may be nil, in which case
// a no-op logger is used.
func Alloc(policy Policy, log *zap.SugaredLogger) (*Pad, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	switch policy {
	case NeverUse:
		return &Pad{Bytes: make([]byte, Size)}, nil

	case AlwaysUse:
		pad, err := mmapHuge()
		if err != nil {
			return nil, fmt.Errorf("scratchpad: huge pages required but unavailable: %w", err)
		}
		if err := unix.Mlock(pad.Bytes); err != nil {
			unmap(pad.Bytes)
			return nil, fmt.Errorf("scratchpad: mlock failed: %w", err)
		}
		pad.Locked = true
		return pad, nil

	case NoMlock:
		pad, err := mmapHuge()
		if err != nil {
			return nil, fmt.Errorf("scratchpad: huge pages required but unavailable: %w", err)
		}
		return pad, nil

	default: // PrintWarning
		pad, err := mmapHuge()
		if err != nil {
			log.Warnw("huge pages unavailable, falling back to plain allocation", "error", err)
			return &Pad{Bytes: make([]byte, Size)}, nil
		}
		if err := unix.Mlock(pad.Bytes); err != nil {
			log.Warnw("mlock failed, continuing without locked memory", "error", err)
			return pad, nil
		}
		pad.Locked = true
		return pad, nil
	}
}

// Free releases a Pad's backing memory. Safe to call on a Pad obtained via
// any policy.
func Free(pad *Pad) error {
	if pad == nil || pad.Bytes == nil {
		return nil
	}
	if pad.HugePages {
		return unmap(pad.Bytes)
	}
	pad.Bytes = nil
	return nil
}

func mmapHuge() (*Pad, error) {
	b, err := unix.Mmap(-1, 0, Size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_HUGETLB)
	if err != nil {
		// MAP_HUGETLB commonly fails when no huge pages are reserved on the
		// host; that's an ordinary allocation failure here, not a bug.
		return nil, err
	}
	return &Pad{Bytes: b, HugePages: true}, nil
}

// BindNUMA touches every page of pad from the calling thread, so that under
// Linux's default first-touch policy the pages land on the NUMA node of the
// CPU running the call. cpuID is not used: placement follows the caller's
// CPU, not cpuID. Best-effort per spec.md §5: on failure it returns an error
// the caller may log and ignore, never one that should abort worker startup.
func BindNUMA(pad *Pad, cpuID int) error {
	if pad == nil || len(pad.Bytes) == 0 {
		return nil
	}
	// mbind(2) is not wrapped by golang.org/x/sys/unix; numactl-style binding
	// would need raw syscall numbers per architecture, which is out of
	// proportion for a best-effort hint. Touching every page instead relies
	// on first-touch NUMA placement under Linux's default policy.
	for i := 0; i < len(pad.Bytes); i += 4096 {
		pad.Bytes[i] = pad.Bytes[i]
	}
	return nil
}

func unmap(b []byte) error {
	return unix.Munmap(b)
}
