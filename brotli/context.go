// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package brotli

// The context modes for literal trees, from RFC section 7.1.
const (
	contextLSB6 = iota
	contextMSB6
	contextUTF8
	contextSigned
	numContextModes

	numLitContexts  = 64 // Number of literal context ids per block type
	numDistContexts = 4  // Number of distance context ids per block type
)

// Context LUTs for the UTF8 and signed modes. The low half of each UTF8
// table is irregular and is stored literally; the high halves and the
// signed table follow simple patterns and are generated by initContextLUTs.
var (
	// RFC section 7.1.
	// LUT over the last output byte for the UTF8 mode.
	contextP1LUT = [256]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 4, 4, 0, 0, 4, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		8, 12, 16, 12, 12, 20, 12, 16, 24, 28, 12, 12, 32, 12, 36, 12,
		44, 44, 44, 44, 44, 44, 44, 44, 44, 44, 32, 32, 24, 40, 28, 12,
		12, 48, 52, 52, 52, 48, 52, 52, 52, 48, 52, 52, 52, 52, 52, 48,
		52, 52, 52, 52, 52, 48, 52, 52, 52, 52, 52, 24, 12, 28, 12, 12,
		12, 56, 60, 60, 60, 56, 60, 60, 60, 56, 60, 60, 60, 60, 60, 56,
		60, 60, 60, 60, 60, 56, 60, 60, 60, 60, 60, 24, 12, 28, 12, 0,
	}

	// RFC section 7.1.
	// LUT over the second-to-last output byte for the UTF8 mode.
	contextP2LUT = [256]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		1, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
		2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1,
		1, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
		3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 1, 1, 1, 1, 0,
	}

	// RFC section 7.1.
	// LUT over the last two output bytes for the signed mode.
	contextSignedLUT [256]uint8
)

func initContextLUTs() {
	for i := 128; i < 256; i++ {
		// Continuation bytes split by parity, lead bytes by 2+parity.
		if i < 192 {
			contextP1LUT[i] = uint8(i & 1)
		} else {
			contextP1LUT[i] = 2 + uint8(i&1)
		}
		contextP2LUT[i] = 2
	}
	for i := 0; i < 256; i++ {
		switch {
		case i == 0:
			contextSignedLUT[i] = 0
		case i < 16:
			contextSignedLUT[i] = 1
		case i < 64:
			contextSignedLUT[i] = 2
		case i < 128:
			contextSignedLUT[i] = 3
		case i < 192:
			contextSignedLUT[i] = 4
		case i < 240:
			contextSignedLUT[i] = 5
		case i < 255:
			contextSignedLUT[i] = 6
		default:
			contextSignedLUT[i] = 7
		}
	}
}

// contextID computes the literal context id from the last two output
// bytes according to the given context mode.
func contextID(mode uint8, p1, p2 byte) uint {
	switch mode {
	case contextLSB6:
		return uint(p1 & 0x3f)
	case contextMSB6:
		return uint(p1 >> 2)
	case contextUTF8:
		return uint(contextP1LUT[p1] | contextP2LUT[p2])
	default: // contextSigned
		return uint(contextSignedLUT[p1]<<3 | contextSignedLUT[p2])
	}
}

// distContextID computes the distance context id from the copy length.
func distContextID(cpyLen int) uint {
	if cpyLen > 4 {
		return 3
	}
	return uint(cpyLen - 2)
}
