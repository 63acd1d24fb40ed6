package aes

import "golang.org/x/sys/cpu"

// HasHWAES reports whether the running CPU exposes AES-NI (amd64) or the
// ARMv8 Crypto Extension (arm64). A true hardware backend is an assembly
// optimisation the portable implementation in this package must remain
// bit-exact with (spec §9, "cross-check every enabled back-end against the
// portable implementation"); until such assembly lands, HasHWAES is
// informational only — CnExpandKey/CnRounds/CnSingleRound always run the
// T-table path below.
func HasHWAES() bool {
	return cpu.X86.HasAES || cpu.ARM64.HasAES
}
