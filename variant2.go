package cryptonight

// Variant 2 (CryptoNight v8) integer square root and the 3-chunk shuffle,
// spec.md §4.5. Both are reproduced from the reference lane-wise-add
// shuffle and division/sqrt step in cryptonight_aesni.h (VARIANT2_SHUFFLE /
// VARIANT2_SHUFFLE2 and the VARIANT==2 integer-math block of
// cryptonight_hash), not from the teacher's dead (`// +build ignore`)
// VARIANT2_SHUFFLE macro block, which never compiles and turned out to
// diverge from the real algorithm.

// isqrt64 stands in for the reference's IEEE-754 bit-trick square root
// (constructing a double from n>>12 and the exponent bias, then a one-step
// Newton fixup): that trick has no source in the retrieval pack and its
// exact rounding can't be confirmed without running the toolchain, so this
// computes an exact integer square root of the same input instead, via a
// plain bit-by-bit method. No shift is applied to the input beyond what
// spec.md §4.5 specifies (`n = c_low + division_result_new`) — unlike the
// bit-trick, an integer sqrt needs no extra scaling shift to land in range.
func isqrt64(n uint64) uint64 {
	var res, bit uint64
	bit = uint64(1) << 62
	for bit > n {
		bit >>= 2
	}
	for bit != 0 {
		if n >= res+bit {
			n -= res + bit
			res = (res >> 1) + bit
		} else {
			res >>= 1
		}
		bit >>= 2
	}
	return res
}

// chunkOffsets returns the word indices of the three 16-byte chunks
// neighbouring the 16-byte-aligned word index addr: addr is a word index
// (byte offset / 8); the reference XORs 0x10/0x20/0x30 into the byte
// address, which is equivalent to XORing those values into addr<<3 before
// scaling back down (XOR distributes over the <<3 scaling).
func chunkOffsets(addr uint64) (uint64, uint64, uint64) {
	base := addr << 3
	return (base ^ 0x10) >> 3, (base ^ 0x20) >> 3, (base ^ 0x30) >> 3
}

// variant2ShuffleA is VARIANT2_SHUFFLE: three 64-bit-lane-wise adds across
// the chunks neighbouring addr, per spec.md §4.5's table
// (new[0x10]=c3+b_prev, new[0x20]=c1+b, new[0x30]=c2+a). a, b and bPrev are
// the iteration's pre-update register values — hashV2 only advances them
// at the end of the iteration, after both shuffle calls.
func variant2ShuffleA(c *Cache, addr uint64, a0, a1, b0, b1, bPrev0, bPrev1 uint64) {
	off0, off1, off2 := chunkOffsets(addr)

	c1lo, c1hi := c.loadSlot(off0)
	c2lo, c2hi := c.loadSlot(off1)
	c3lo, c3hi := c.loadSlot(off2)

	c.storeSlot(off0, c3lo+bPrev0, c3hi+bPrev1)
	c.storeSlot(off1, c1lo+b0, c1hi+b1)
	c.storeSlot(off2, c2lo+a0, c2hi+a1)
}

// variant2ShuffleB is VARIANT2_SHUFFLE2 as used for variant 2 (the
// `variant >= 4` extra fold-back in the reference is a CryptoNight-R
// addition outside this repo's v0/v1/v2 scope). Beyond the same three
// lane-wise adds as shuffle A, it XORs the fresh multiply product (lo, hi)
// into chunk1 and folds chunk2 back into (lo, hi) in place, returning the
// updated product for the caller to add into a.
func variant2ShuffleB(c *Cache, addr uint64, a0, a1, b0, b1, bPrev0, bPrev1, lo, hi uint64) (uint64, uint64) {
	off0, off1, off2 := chunkOffsets(addr)

	c1lo, c1hi := c.loadSlot(off0)
	c1lo ^= hi
	c1hi ^= lo

	c2lo, c2hi := c.loadSlot(off1)
	hi ^= c2lo
	lo ^= c2hi

	c3lo, c3hi := c.loadSlot(off2)

	c.storeSlot(off0, c3lo+bPrev0, c3hi+bPrev1)
	c.storeSlot(off1, c1lo+b0, c1hi+b1)
	c.storeSlot(off2, c2lo+a0, c2hi+a1)

	return lo, hi
}
