// Package scan provides scanning primitives over UTF-32 subjects.
//
// The search driver and the prefilters spend most of their time looking for
// the first occurrence of a single code point. IndexRune processes two code
// points per iteration using SWAR (SIMD Within A Register) arithmetic on
// uint64 words; the words are assembled with shifts, so the technique is
// independent of the host byte order.
package scan

import "math/bits"

// IndexRune returns the index of the first occurrence of needle in haystack
// at or after start, or -1 if there is none.
func IndexRune(haystack []rune, needle rune, start int) int {
	if start < 0 {
		start = 0
	}
	n := len(haystack)
	i := start

	// Small tails are cheaper without the SWAR setup.
	if n-i >= 4 {
		// Broadcast the needle into both 32-bit lanes.
		mask := uint64(uint32(needle)) | uint64(uint32(needle))<<32

		const (
			lo32 = 0x0000000100000001
			hi32 = 0x8000000080000000
		)
		for ; i+2 <= n; i += 2 {
			chunk := uint64(uint32(haystack[i])) | uint64(uint32(haystack[i+1]))<<32

			// XOR turns matching lanes into zero; the zero-lane
			// detection formula marks them in the high bit.
			xor := chunk ^ mask
			hasZero := (xor - lo32) & ^xor & hi32
			if hasZero != 0 {
				return i + bits.TrailingZeros64(hasZero)/32
			}
		}
	}

	for ; i < n; i++ {
		if haystack[i] == needle {
			return i
		}
	}
	return -1
}

// IndexFunc returns the index of the first code point at or after start for
// which pred reports true, or -1.
func IndexFunc(haystack []rune, start int, pred func(rune) bool) int {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(haystack); i++ {
		if pred(haystack[i]) {
			return i
		}
	}
	return -1
}
