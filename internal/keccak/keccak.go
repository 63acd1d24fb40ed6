// Package keccak implements the Keccak-f[1600] permutation and the sponge
// construction CryptoNight uses to turn an arbitrary-length input into a
// 200-byte (1600-bit) state. This is the original Keccak padding
// (0x01 / 0x80), not the later NIST SHA-3 domain separation (0x06).
package keccak

const (
	rate       = 136 // 1088 bits
	stateBytes = 200 // 25 lanes * 8 bytes
)

var rc = [24]uint64{
	0x0000000000000001, 0x0000000000008082,
	0x800000000000808a, 0x8000000080008000,
	0x000000000000808b, 0x0000000080000001,
	0x8000000080008081, 0x8000000000008009,
	0x000000000000008a, 0x0000000000000088,
	0x0000000080008009, 0x000000008000000a,
	0x000000008000808b, 0x800000000000008b,
	0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080,
	0x000000000000800a, 0x800000008000000a,
	0x8000000080008081, 0x8000000000008080,
	0x0000000080000001, 0x8000000080008008,
}

var rotc = [5][5]uint{
	{0, 36, 3, 41, 18},
	{1, 44, 10, 45, 2},
	{62, 6, 43, 15, 61},
	{28, 55, 25, 21, 56},
	{27, 20, 39, 8, 14},
}

func rotl64(x uint64, n uint) uint64 {
	return (x << n) | (x >> (64 - n))
}

// permute applies the 24-round Keccak-f[1600] permutation in place.
func permute(a *[25]uint64) {
	var b [25]uint64
	var c [5]uint64

	for round := 0; round < 24; round++ {
		// Theta
		for x := 0; x < 5; x++ {
			c[x] = a[x] ^ a[x+5] ^ a[x+10] ^ a[x+15] ^ a[x+20]
		}
		for x := 0; x < 5; x++ {
			d := c[(x+4)%5] ^ rotl64(c[(x+1)%5], 1)
			for y := 0; y < 5; y++ {
				a[x+5*y] ^= d
			}
		}
		// Rho and Pi
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				b[y+5*((2*x+3*y)%5)] = rotl64(a[x+5*y], rotc[x][y])
			}
		}
		// Chi
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				a[x+5*y] = b[x+5*y] ^ ((^b[(x+1)%5+5*y]) & b[(x+2)%5+5*y])
			}
		}
		// Iota
		a[0] ^= rc[round]
	}
}

// laneBytesToState writes the 25 uint64 lanes into dst as little-endian bytes.
func laneBytesToState(lanes *[25]uint64, dst *[stateBytes]byte) {
	for i, w := range lanes {
		o := i * 8
		dst[o+0] = byte(w)
		dst[o+1] = byte(w >> 8)
		dst[o+2] = byte(w >> 16)
		dst[o+3] = byte(w >> 24)
		dst[o+4] = byte(w >> 32)
		dst[o+5] = byte(w >> 40)
		dst[o+6] = byte(w >> 48)
		dst[o+7] = byte(w >> 56)
	}
}

// Sum1600 absorbs data with rate 136 bytes using pad10*1, permutes, and
// writes the full 200-byte state (not just the capacity-trimmed digest)
// into state.
func Sum1600(state *[200]byte, data []byte) {
	var lanes [25]uint64

	block := make([]byte, rate)
	for len(data) >= rate {
		absorb(&lanes, data[:rate])
		data = data[rate:]
	}

	// Final (possibly empty) block with pad10*1: first pad byte ORs in 0x01,
	// last byte of the rate-sized block ORs in 0x80. A full block of
	// message bytes followed by a 1-byte pad block is handled by letting
	// the loop above consume all full blocks first.
	for i := range block {
		block[i] = 0
	}
	copy(block, data)
	block[len(data)] |= 0x01
	block[rate-1] |= 0x80
	absorb(&lanes, block)

	laneBytesToState(&lanes, (*[200]byte)(state))
}

func absorb(lanes *[25]uint64, block []byte) {
	for i := 0; i < rate/8; i++ {
		o := i * 8
		lanes[i] ^= uint64(block[o]) | uint64(block[o+1])<<8 |
			uint64(block[o+2])<<16 | uint64(block[o+3])<<24 |
			uint64(block[o+4])<<32 | uint64(block[o+5])<<40 |
			uint64(block[o+6])<<48 | uint64(block[o+7])<<56
	}
	permute(lanes)
}

// Permute1600 re-runs the Keccak-f[1600] permutation over an existing
// 200-byte state in place (used as the epilogue permutation after the
// memory-hard loop, per spec §4.4).
func Permute1600(state *[200]byte) {
	var lanes [25]uint64
	for i := 0; i < 25; i++ {
		o := i * 8
		lanes[i] = uint64(state[o]) | uint64(state[o+1])<<8 |
			uint64(state[o+2])<<16 | uint64(state[o+3])<<24 |
			uint64(state[o+4])<<32 | uint64(state[o+5])<<40 |
			uint64(state[o+6])<<48 | uint64(state[o+7])<<56
	}
	permute(&lanes)
	laneBytesToState(&lanes, state)
}
