// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

// symbolCode maps a sequence symbol to its decoded base value and the
// number of extra bits that follow it in the bitstream.
type symbolCode struct {
	baseline uint32
	addBits  uint8
}

const (
	numLLCodes = 36
	numOFCodes = 32
	numMLCodes = 53
)

var (
	llCodes [numLLCodes]symbolCode
	mlCodes [numMLCodes]symbolCode
	ofCodes [numOFCodes]symbolCode

	// Predefined normalized counts from RFC 8878 section 3.1.1.3.2.2.
	// These must be bit-identical to the RFC constants.
	llDefaultNorm = []int16{
		4, 3, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 1, 1,
		2, 2, 2, 2, 2, 2, 2, 2, 2, 3, 2, 1, 1, 1, 1, 1,
		-1, -1, -1, -1,
	}
	mlDefaultNorm = []int16{
		1, 4, 3, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, -1, -1,
		-1, -1, -1, -1, -1,
	}
	ofDefaultNorm = []int16{
		1, 1, 1, 1, 1, 1, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1, -1, -1, -1, -1, -1,
	}

	llPredefined fseTable
	mlPredefined fseTable
	ofPredefined fseTable
)

func init() {
	// Literal length codes: 0..15 are literal, the rest carry extra bits.
	for i := 0; i < 16; i++ {
		llCodes[i] = symbolCode{baseline: uint32(i)}
	}
	llExtra := []uint8{1, 1, 1, 1, 2, 2, 3, 3, 4, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	base := uint32(16)
	for i, nb := range llExtra {
		llCodes[16+i] = symbolCode{baseline: base, addBits: nb}
		base += 1 << nb
	}

	// Match length codes: 0..31 map to lengths 3..34.
	for i := 0; i < 32; i++ {
		mlCodes[i] = symbolCode{baseline: uint32(i) + 3}
	}
	mlExtra := []uint8{1, 1, 1, 1, 2, 2, 3, 3, 4, 4, 5, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	base = 35
	for i, nb := range mlExtra {
		mlCodes[32+i] = symbolCode{baseline: base, addBits: nb}
		base += 1 << nb
	}

	// Offset codes: the baseline is the raw offset value before the
	// repeat-offset adjustment performed by the sequence decoder.
	for i := range ofCodes {
		ofCodes[i] = symbolCode{baseline: 1 << uint(i), addBits: uint8(i)}
	}

	llPredefined.Init(llDefaultNorm, 6, llCodes[:])
	mlPredefined.Init(mlDefaultNorm, 6, mlCodes[:])
	ofPredefined.Init(ofDefaultNorm, 5, ofCodes[:])
}
