// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package brotli implements the Brotli compressed data format,
// described in RFC 7932.
package brotli

import "github.com/insinfo/netlib/internal"

func initLUTs() {
	initPrefixLUTs()
	initContextLUTs()
	initDictLUTs()
}

func init() { initLUTs() }

// reverseBits reverses the lower n bits of v.
func reverseBits(v uint16, n uint) uint16 {
	return uint16(internal.ReverseUint32N(uint32(v), n))
}

// neededBits computes the bit-width needed to distinguish n symbols.
func neededBits(n uint) (nb uint) {
	for n -= 1; n > 0; n >>= 1 {
		nb++
	}
	return nb
}
