// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package brotli

// The static dictionary of RFC section 8 and appendix A holds words of
// 4 to 24 bytes, with 2^dictSizeBits[l] words of each length l laid out
// back to back. This package implements the full lookup and transform
// machinery but does not embed the 122 KiB dictionary data itself; the
// caller installs the blob with Reader.SetDictionary. Streams that
// reference a dictionary word without one installed are rejected.

const (
	minDictLen = 4
	maxDictLen = 24

	numTransforms = 121
)

// RFC section 8.
// Number of bits in the word index for each word length.
var dictSizeBits = [maxDictLen + 1]uint{
	0, 0, 0, 0, 10, 10, 11, 11, 10, 10,
	10, 10, 10, 9, 9, 8, 7, 7, 8, 7,
	7, 6, 6, 5, 5,
}

// Byte offset of the first word of each length, derived from dictSizeBits.
var dictOffsets [maxDictLen + 2]int

func initDictLUTs() {
	var offset int
	for l := 0; l <= maxDictLen; l++ {
		dictOffsets[l] = offset
		if l >= minDictLen {
			offset += l << dictSizeBits[l]
		}
	}
	dictOffsets[maxDictLen+1] = offset
}

// dictDataSize reports the total size of a dictionary blob covering every
// word the format can reference.
func dictDataSize() int {
	return dictOffsets[maxDictLen+1]
}

// lookupDictWord resolves a copy length and an out-of-window distance to a
// transformed dictionary word, writing the result into buf and returning
// the number of bytes produced.
func lookupDictWord(dict []byte, buf []byte, cpyLen, wordID int) int {
	if dict == nil {
		panic(ErrCorrupt) // Dictionary reference with no dictionary installed
	}
	if cpyLen < minDictLen || cpyLen > maxDictLen {
		panic(ErrCorrupt)
	}
	ndbits := dictSizeBits[cpyLen]
	index := wordID & (1<<ndbits - 1)
	transformID := wordID >> ndbits
	if transformID >= numTransforms {
		panic(ErrCorrupt)
	}
	offset := dictOffsets[cpyLen] + index*cpyLen
	if offset+cpyLen > len(dict) {
		panic(ErrCorrupt)
	}
	return transformWord(buf, dict[offset:offset+cpyLen], transformID)
}
