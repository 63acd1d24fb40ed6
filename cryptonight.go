// Package cryptonight implements the CryptoNight memory-hard proof-of-work
// hash function and its v1/v2 variants, as defined in CNS008
// (https://cryptonote.org/cns/cns008.txt) and the variant tweaks later
// shipped by Monero.
package cryptonight

import (
	"encoding/binary"
	"hash"
	"math/bits"

	"github.com/aead/skein"
	"github.com/dchest/blake256"

	"github.com/nthash/cryptonight/internal/aes"
	"github.com/nthash/cryptonight/internal/groestl"
	"github.com/nthash/cryptonight/internal/jh"
	"github.com/nthash/cryptonight/internal/keccak"
)

// Variant selects which CryptoNight revision Sum computes.
type Variant int

const (
	// Variant0 is the original CNS008 algorithm.
	Variant0 Variant = iota
	// Variant1 adds the single-byte tweak (CryptoNight v7 / "monero7").
	Variant1
	// Variant2 adds the division/sqrt dependency chain and the 3-chunk
	// shuffle (CryptoNight v8).
	Variant2
)

const (
	scratchpadWords = 2 * 1024 * 1024 / 8 // 2 MiB of uint64 slots
	iterations      = 524288
)

// Cache holds the 2 MiB scratchpad and 200-byte Keccak state a Sum call
// needs. Reusing a Cache across calls avoids re-allocating the scratchpad.
//
// A Cache's Sum method is not concurrency-safe: a single Cache supports at
// most one in-flight Sum. Give each concurrent worker its own Cache (see
// package worker) rather than sharing one behind a mutex — the scratchpad
// is large enough that lock contention would erase any savings.
//
// The zero value is ready to use.
type Cache struct {
	finalState [25]uint64
	scratchpad [scratchpadWords]uint64
}

// NewCache returns a Cache with a freshly allocated scratchpad.
func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) loadSlot(w uint64) (lo, hi uint64) {
	return c.scratchpad[w], c.scratchpad[w+1]
}

func (c *Cache) storeSlot(w uint64, lo, hi uint64) {
	c.scratchpad[w] = lo
	c.scratchpad[w+1] = hi
}

func toAddr(a0 uint64) uint64 {
	return (a0 & 0x1ffff0) >> 3
}

func le64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// byteMul is CryptoNight's 64x64->128 multiply step; math/bits.Mul64 is the
// stdlib's direct expression of the same full-width multiply the reference
// algorithm calls for, so there is no third-party library to reach for here.
func byteMul(a, b uint64) (lo, hi uint64) {
	hi, lo = bits.Mul64(a, b)
	return
}

// explode derives the 10 AES round keys from finalState[keyOffset:keyOffset+4]
// and fans the eight 16-byte intermediate blocks (finalState[8:24]) out across the full
// 2 MiB scratchpad via 10 rounds of AES each, per CNS008 §3.
func (c *Cache) explode(keyOffset int) {
	rkeys := new([40]uint32)
	aes.CnExpandKey(c.finalState[keyOffset:keyOffset+4], rkeys)

	var blocks [16]uint64
	copy(blocks[:], c.finalState[8:24])

	for i := 0; i < scratchpadWords; i += 16 {
		for j := 0; j < 16; j += 2 {
			aes.CnRounds(blocks[j:], blocks[j:], rkeys)
		}
		copy(c.scratchpad[i:i+16], blocks[:])
	}
}

// implode is the inverse of explode: it XORs the scratchpad back down into
// eight 16-byte blocks through 10 AES rounds each, per CNS008 §5.
func (c *Cache) implode(keyOffset int) {
	rkeys := new([40]uint32)
	aes.CnExpandKey(c.finalState[keyOffset:keyOffset+4], rkeys)

	var blocks [16]uint64
	copy(blocks[:], c.finalState[8:24])

	for i := 0; i < scratchpadWords; i += 16 {
		for j := 0; j < 16; j += 2 {
			c.scratchpad[i+j] ^= blocks[j]
			c.scratchpad[i+j+1] ^= blocks[j+1]
			aes.CnRounds(c.scratchpad[i+j:], c.scratchpad[i+j:], rkeys)
		}
		copy(blocks[:], c.scratchpad[i:i+16])
	}

	copy(c.finalState[8:24], blocks[:])
}

// finalize runs the epilogue Keccak permutation and dispatches to one of
// the four finalist hashes selected by finalState[0]&3, per CNS008 §5 / §6.
func (c *Cache) finalize() []byte {
	var stateBytes [200]byte
	putState(&stateBytes, &c.finalState)
	keccak.Permute1600(&stateBytes)
	getState(&c.finalState, &stateBytes)

	var h hash.Hash
	switch c.finalState[0] & 0x03 {
	case 0x00:
		h = blake256.New()
	case 0x01:
		h = groestl.New256()
	case 0x02:
		h = jh.New256()
	default:
		h = skein.New256(nil)
	}

	var out [200]byte
	putState(&out, &c.finalState)
	h.Write(out[:])
	return h.Sum(nil)
}

func putState(dst *[200]byte, lanes *[25]uint64) {
	for i, w := range lanes {
		binary.LittleEndian.PutUint64(dst[i*8:], w)
	}
}

func getState(lanes *[25]uint64, src *[200]byte) {
	for i := range lanes {
		lanes[i] = le64(src[i*8:])
	}
}

// Sum computes a CryptoNight digest, always exactly 32 bytes long.
//
// For Variant1, data must be at least 43 bytes long; Sum does not check
// this and will panic on the out-of-range slice access if it's violated.
func (c *Cache) Sum(data []byte, variant Variant) []byte {
	var stateBytes [200]byte
	keccak.Sum1600(&stateBytes, data)
	getState(&c.finalState, &stateBytes)

	switch variant {
	case Variant1:
		c.hashV1(data)
	case Variant2:
		c.hashV2()
	default:
		c.hashV0()
	}

	return c.finalize()
}

// hashV0 runs the original CNS008 memory-hard loop.
func (c *Cache) hashV0() {
	c.explode(0)

	a0 := c.finalState[0] ^ c.finalState[4]
	a1 := c.finalState[1] ^ c.finalState[5]
	b0 := c.finalState[2] ^ c.finalState[6]
	b1 := c.finalState[3] ^ c.finalState[7]

	for i := 0; i < iterations; i++ {
		addr := toAddr(a0)
		slo, shi := c.loadSlot(addr)
		var rk [4]uint32
		rk[0], rk[1], rk[2], rk[3] = uint32(a0), uint32(a0>>32), uint32(a1), uint32(a1>>32)
		clo, chi := aesRoundVia(slo, shi, rk)

		c.storeSlot(addr, b0^clo, b1^chi)
		b0, b1 = clo, chi

		addr = toAddr(b0)
		clo, chi = c.loadSlot(addr)

		mlo, mhi := byteMul(b0, clo)

		// byteAdd swaps hi/lo into (al, ah): al += hi, ah += lo. This is a
		// long-standing quirk of the reference algorithm, not a typo — see
		// cryptonight_aesni.h's "al0 += hi; ah0 += lo;".
		a0 += mhi
		a1 += mlo
		c.storeSlot(addr, a0, a1)
		a0 ^= clo
		a1 ^= chi
	}

	c.implode(4)
}

// hashV1 adds the CryptoNight v7 single-byte tweak on top of hashV0's loop.
func (c *Cache) hashV1(data []byte) {
	c.explode(0)

	tweak := c.finalState[24] ^ le64(data[35:43])

	a0 := c.finalState[0] ^ c.finalState[4]
	a1 := c.finalState[1] ^ c.finalState[5]
	b0 := c.finalState[2] ^ c.finalState[6]
	b1 := c.finalState[3] ^ c.finalState[7]

	for i := 0; i < iterations; i++ {
		addr := toAddr(a0)
		slo, shi := c.loadSlot(addr)
		var rk [4]uint32
		rk[0], rk[1], rk[2], rk[3] = uint32(a0), uint32(a0>>32), uint32(a1), uint32(a1>>32)
		clo, chi := aesRoundVia(slo, shi, rk)

		nb0, nb1 := b0^clo, b1^chi
		c.storeSlot(addr, nb0, nb1)
		b0, b1 = clo, chi

		t := c.scratchpad[addr+1] >> 24
		t = ((^t)&1)<<4 | (((^t)&1)<<4&t)<<1 | (t&32)>>1
		c.scratchpad[addr+1] ^= t << 24

		addr = toAddr(b0)
		clo, chi = c.loadSlot(addr)

		mlo, mhi := byteMul(b0, clo)

		a0 += mhi
		a1 += mlo
		c.storeSlot(addr, a0, a1)
		a0 ^= clo
		a1 ^= chi

		c.scratchpad[addr+1] ^= tweak
	}

	c.implode(4)
}

// hashV2 adds the division/sqrt dependency chain and the 3-chunk shuffle of
// CryptoNight v8 on top of hashV0's loop.
//
// Unlike hashV0/hashV1, `b` here is deliberately NOT advanced to `c` until
// the very end of the iteration (cryptonight_aesni.h keeps bx0/bx1/ax0 fixed
// across both shuffle calls within one iteration, only updating
// `bx1, bx0 = bx0, cx` at the bottom) — both VARIANT2_SHUFFLE sites read the
// pre-iteration a/b/b_prev, per spec.md §4.5's shuffle table.
func (c *Cache) hashV2() {
	c.explode(0)

	a0 := c.finalState[0] ^ c.finalState[4]
	a1 := c.finalState[1] ^ c.finalState[5]
	b0 := c.finalState[2] ^ c.finalState[6]
	b1 := c.finalState[3] ^ c.finalState[7]
	bPrev0 := c.finalState[8] ^ c.finalState[10]
	bPrev1 := c.finalState[9] ^ c.finalState[11]

	var divisionResult, sqrtResult uint64

	for i := 0; i < iterations; i++ {
		addr := toAddr(a0)
		slo, shi := c.loadSlot(addr)
		var rk [4]uint32
		rk[0], rk[1], rk[2], rk[3] = uint32(a0), uint32(a0>>32), uint32(a1), uint32(a1>>32)
		clo, chi := aesRoundVia(slo, shi, rk)

		variant2ShuffleA(c, addr, a0, a1, b0, b1, bPrev0, bPrev1)

		c.storeSlot(addr, b0^clo, b1^chi)

		addr = toAddr(clo)
		dlo, dhi := c.loadSlot(addr)

		// Use the previous iteration's division/sqrt results to hide their
		// latency (spec.md §4.5), then compute this iteration's values from
		// the freshly computed AES output (clo, chi), not from b.
		dlo ^= divisionResult ^ (sqrtResult << 32)
		divisor := ((clo + (sqrtResult << 1)) & 0xffffffff) | 0x80000001
		dividend := chi
		divisionResult = (dividend/divisor)&0xffffffff | ((dividend % divisor) << 32)
		sqrtResult = isqrt64(clo + divisionResult)

		mlo, mhi := byteMul(clo, dlo)

		mlo, mhi = variant2ShuffleB(c, addr, a0, a1, b0, b1, bPrev0, bPrev1, mlo, mhi)

		a0 += mhi
		a1 += mlo
		c.storeSlot(addr, a0, a1)
		a0 ^= dlo
		a1 ^= dhi

		bPrev0, bPrev1 = b0, b1
		b0, b1 = clo, chi
	}

	c.implode(4)
}

// aesRoundVia performs exactly one CryptoNight AES round, keyed by rk, on
// the 16-byte value (lo, hi) — CNS008 §4 step 1.
func aesRoundVia(lo, hi uint64, rk [4]uint32) (uint64, uint64) {
	var dst [2]uint64
	src := [2]uint64{lo, hi}
	aes.CnSingleRound(dst[:], src[:], &rk)
	return dst[0], dst[1]
}

// Sum computes a one-off CryptoNight digest. For repeated calls prefer
// Cache.Sum on a reused Cache, since CryptoNight's whole point is that its
// 2 MiB scratchpad is expensive to allocate and fill.
func Sum(data []byte, variant Variant) []byte {
	return NewCache().Sum(data, variant)
}

// DoubleHash computes two independent CryptoNight digests, one per Cache.
// It exists so callers processing two lanes at once (see package worker)
// can express that intent directly; output is identical to calling Sum
// twice.
func DoubleHash(c0, c1 *Cache, data0, data1 []byte, variant Variant) (sum0, sum1 []byte) {
	sum0 = c0.Sum(data0, variant)
	sum1 = c1.Sum(data1, variant)
	return
}

// Difficulty reports whether digest meets target, using the standard
// proof-of-work comparison: the digest's last 8 bytes, read as a
// little-endian integer, must be strictly less than target.
func Difficulty(digest []byte, target uint64) bool {
	return le64(digest[24:32]) < target
}
