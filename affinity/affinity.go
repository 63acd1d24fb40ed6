// Package affinity pins worker goroutines' OS threads to a logical CPU and
// reports host topology used to pick default thread counts (spec.md §4.6,
// §5).
package affinity

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its current OS thread and restricts
// that thread's CPU affinity mask to cpuID. Callers must invoke Pin from
// the goroutine that will run the hash loop (worker.Run does this), and
// must not call runtime.UnlockOSThread afterwards for the lifetime of the
// worker.
//
// Pin is best-effort: a failure is returned for the caller to log, never a
// reason to abort startup (spec.md §7, "Scratchpad allocation failed ...
// otherwise log and fall back" — the same policy applies to affinity).
func Pin(cpuID int) error {
	if cpuID < 0 {
		return nil
	}
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: pin to cpu %d: %w", cpuID, err)
	}
	return nil
}

// Topology summarizes the host CPU layout relevant to worker sizing.
type Topology struct {
	LogicalCores  int
	PhysicalCores int
	// L3PerCoreMiB is an estimate of L3 cache divided by physical core
	// count, used to gate double-hash eligibility (spec.md §4.6: "better
	// ILP on cores with >=4 MiB L3 per core").
	L3PerCoreMiB float64
}

// Detect reports the current host's Topology. Cache size detection uses
// gopsutil's best-known-value per platform; when it cannot be determined,
// L3PerCoreMiB is 0 and callers should not enable double-hash by default.
func Detect() (Topology, error) {
	logical, err := cpu.Counts(true)
	if err != nil {
		return Topology{}, fmt.Errorf("affinity: logical core count: %w", err)
	}
	physical, err := cpu.Counts(false)
	if err != nil {
		return Topology{}, fmt.Errorf("affinity: physical core count: %w", err)
	}

	info, err := cpu.Info()
	var l3PerCore float64
	if err == nil && len(info) > 0 && physical > 0 {
		// gopsutil reports CacheSize in KB on platforms that expose it at
		// all; treat it as a rough L3 estimate, not an exact figure.
		l3PerCore = float64(info[0].CacheSize) / 1024 / float64(physical)
	}

	return Topology{
		LogicalCores:  logical,
		PhysicalCores: physical,
		L3PerCoreMiB:  l3PerCore,
	}, nil
}

// DoubleHashEligible reports whether t's L3-per-core estimate meets the
// >=4 MiB threshold spec.md §4.6 uses to recommend double-hash mode.
func (t Topology) DoubleHashEligible() bool {
	return t.L3PerCoreMiB >= 4
}
