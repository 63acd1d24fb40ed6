package aes

import "testing"

func TestExpandKeyDeterministic(t *testing.T) {
	key := []uint64{1, 2, 3, 4}
	var r1, r2 [40]uint32
	CnExpandKey(key, &r1)
	CnExpandKey(key, &r2)
	if r1 != r2 {
		t.Fatalf("CnExpandKey not deterministic")
	}
}

func TestExpandKeyDiffersOnInput(t *testing.T) {
	var r1, r2 [40]uint32
	CnExpandKey([]uint64{1, 2, 3, 4}, &r1)
	CnExpandKey([]uint64{5, 6, 7, 8}, &r2)
	if r1 == r2 {
		t.Fatalf("CnExpandKey produced identical round keys for distinct inputs")
	}
}

func TestRoundsChangesBlock(t *testing.T) {
	rkeys := new([40]uint32)
	CnExpandKey([]uint64{0xdead, 0xbeef, 0xcafe, 0xbabe}, rkeys)

	src := []uint64{0x1122334455667788, 0x99aabbccddeeff00}
	dst := make([]uint64, 2)
	CnRounds(dst, src, rkeys)

	if dst[0] == src[0] && dst[1] == src[1] {
		t.Fatalf("CnRounds left the block unchanged")
	}
}

func TestSingleRoundIsNotTenRounds(t *testing.T) {
	rkeys := new([40]uint32)
	CnExpandKey([]uint64{1, 1, 1, 1}, rkeys)

	src := []uint64{42, 43}
	var rk [4]uint32
	copy(rk[:], rkeys[0:4])

	single := make([]uint64, 2)
	CnSingleRound(single, src, &rk)

	full := make([]uint64, 2)
	CnRounds(full, src, rkeys)

	if single[0] == full[0] && single[1] == full[1] {
		t.Fatalf("one AES round should not equal all ten for generic round keys")
	}
}
