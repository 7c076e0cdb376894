// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package brotli

// prefixEncoder is a symbol-indexed table of prefix codes, used by the
// writer to emit the fixed codecs and any dynamically built trees.
type prefixEncoder struct {
	codes prefixCodes // Dense table indexed by symbol
}

// Init initializes the encoder from codes with valid val and len fields.
// Symbols absent from codes are left with zero-width entries that must
// never be encoded.
func (pe *prefixEncoder) Init(codes prefixCodes) {
	var maxSym uint16
	for _, c := range codes {
		if c.sym > maxSym {
			maxSym = c.sym
		}
	}
	if cap(pe.codes) > int(maxSym) {
		pe.codes = pe.codes[:maxSym+1]
		for i := range pe.codes {
			pe.codes[i] = prefixCode{}
		}
	} else {
		pe.codes = make(prefixCodes, maxSym+1)
	}
	for _, c := range codes {
		pe.codes[c.sym] = c
	}
}

// Lookup returns the code for the given symbol.
func (pe *prefixEncoder) Lookup(sym uint) prefixCode {
	return pe.codes[sym]
}
