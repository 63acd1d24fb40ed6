// Package aes implements the CryptoNight-specific AES primitive: a
// 10-round key schedule with no key rotation between rounds. Every exported
// function runs the table-based software path (cn_soft.go); hardware.go only
// reports AES-NI/ARMv8 support via golang.org/x/sys/cpu and contains no
// hardware round. This is not standard AES-128/256 — see cn_soft.go for the
// divergence.
package aes // import "github.com/nthash/cryptonight/internal/aes"

// CnExpandKey derives the 10 round keys the scratchpad-init and result-calc
// passes both use (cryptonight.go's explode/implode), from the 32 bytes of
// Keccak state that seed each pass.
//
// rkeys is filled for use as CnRounds input: round key r occupies
// rkeys[4*r : 4*r+4].
func CnExpandKey(key []uint64, rkeys *[40]uint32) {
	cnExpandKey(key, rkeys)
}

// CnRounds runs all 10 AES rounds back to back, used by explode/implode to
// fill and drain the 2 MiB scratchpad 16 bytes at a time.
//
// dst and src must be at least 16 bytes long; rkeys must have 40 elements.
func CnRounds(dst, src []uint64, rkeys *[40]uint32) {
	cnRounds(dst, src, rkeys)
}

// CnSingleRound runs exactly one AES round against a single round key,
// the inner-loop primitive every variant's memory-hard loop calls once per
// iteration (cryptonight.go's hashV0/hashV1/hashV2). One CnRounds call is
// equivalent to ten CnSingleRound calls with rkeys' ten round keys in order.
func CnSingleRound(dst, src []uint64, rkey *[4]uint32) {
	cnSingleRound(dst, src, rkey)
}