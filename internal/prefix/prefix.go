// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package prefix implements the construction of canonical prefix codes.
//
// The package operates on sets of PrefixCode structs. Starting from symbol
// frequencies, GenerateLengths computes length-limited code lengths, and
// GeneratePrefixes assigns the canonical code values for those lengths.
// The bit-level serialization of the codes is format specific and is left
// to the calling package.
package prefix

import (
	"sort"

	"github.com/insinfo/netlib/internal"
)

// MaxLengthBits is the maximum bit-width this package will ever assign to a
// single prefix code. Both Brotli and the zstd Huffman sections stay at or
// below this width.
const MaxLengthBits = 15

var errInvalid = internal.Error("prefix code is invalid")

// PrefixCode is a mapping between a symbol and the code assigned to it.
type PrefixCode struct {
	Sym uint32 // The symbol being mapped
	Cnt uint32 // The number of times this symbol is used
	Len uint32 // Bit-length of the prefix code
	Val uint32 // Value of the prefix code (must be in [0, 1<<Len))
}

// PrefixCodes is a list of PrefixCode.
type PrefixCodes []PrefixCode

// SortBySymbol sorts the codes in ascending symbol order.
func (pc PrefixCodes) SortBySymbol() {
	sort.Slice(pc, func(i, j int) bool { return pc[i].Sym < pc[j].Sym })
}

// SortByCount sorts the codes by descending count, breaking ties by
// ascending symbol order.
func (pc PrefixCodes) SortByCount() {
	sort.Slice(pc, func(i, j int) bool {
		if pc[i].Cnt != pc[j].Cnt {
			return pc[i].Cnt > pc[j].Cnt
		}
		return pc[i].Sym < pc[j].Sym
	})
}

// Length computes the total encoded bit-length using the Len and Cnt fields.
func (pc PrefixCodes) Length() (nb uint) {
	for _, c := range pc {
		nb += uint(c.Cnt * c.Len)
	}
	return nb
}

// CheckLengths reports whether the codes form a complete prefix tree.
// A single code of zero length is valid and represents the degenerate tree.
func (pc PrefixCodes) CheckLengths() bool {
	if len(pc) == 1 && pc[0].Len == 0 {
		return true
	}
	var nb uint
	for _, c := range pc {
		if c.Len == 0 || c.Len > MaxLengthBits {
			return false
		}
		nb += 1 << (MaxLengthBits - c.Len)
	}
	return nb == 1<<MaxLengthBits
}

// GenerateLengths assigns code lengths to all codes according to their Cnt
// fields, such that no length exceeds maxBits. Every length is non-zero,
// except that a lone code gets length zero (the degenerate tree). The set of lengths
// always satisfies the Kraft equality exactly, so GeneratePrefixes may be
// applied to the result. The order of codes is preserved.
func GenerateLengths(codes PrefixCodes, maxBits uint) error {
	if maxBits > MaxLengthBits || len(codes) > 1<<maxBits {
		return errInvalid // Alphabet cannot fit in the code space
	}
	switch len(codes) {
	case 0:
		return nil
	case 1:
		codes[0].Len = 0
		return nil
	}

	// Build a Huffman tree using two queues: one of leaves sorted by count
	// and one of interior nodes, which are produced in non-decreasing count
	// order. The smallest unconsumed node is always at the head of one of
	// the two queues, so no heap is needed.
	type node struct {
		cnt  uint32
		l, r int // Child indices, or -1 for leaves
		leaf int // Index into codes, or -1 for interior nodes
	}
	nodes := make([]node, len(codes), 2*len(codes)-1)
	for i, c := range codes {
		nodes[i] = node{cnt: c.Cnt, l: -1, r: -1, leaf: i}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].cnt < nodes[j].cnt })

	numLeaves := len(nodes)
	li, ii := 0, numLeaves // Queue heads for leaves and interior nodes
	pop := func() int {
		if li < numLeaves && (ii >= len(nodes) || nodes[li].cnt <= nodes[ii].cnt) {
			li++
			return li - 1
		}
		ii++
		return ii - 1
	}
	for (numLeaves-li)+(len(nodes)-ii) >= 2 {
		n0, n1 := pop(), pop()
		nodes = append(nodes, node{cnt: nodes[n0].cnt + nodes[n1].cnt, l: n0, r: n1, leaf: -1})
	}

	// Children always precede their parent, so a single reverse pass
	// assigns every depth.
	depths := make([]uint32, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].l >= 0 {
			depths[nodes[i].l] = depths[i] + 1
			depths[nodes[i].r] = depths[i] + 1
		} else {
			codes[nodes[i].leaf].Len = depths[i]
		}
	}

	// Limit the lengths to maxBits, then repair the Kraft sum so that the
	// tree is exactly complete again. Clamping only ever over-subscribes,
	// so deepen the longest still-promotable codes until the excess is
	// consumed; a final fill stage handles any overshoot.
	target := uint(1) << maxBits
	var kraft uint
	for i := range codes {
		if uint(codes[i].Len) > maxBits {
			codes[i].Len = uint32(maxBits)
		}
		kraft += 1 << (maxBits - uint(codes[i].Len))
	}
	for kraft > target {
		best := -1
		for i := range codes {
			if uint(codes[i].Len) < maxBits && (best < 0 || codes[i].Len > codes[best].Len) {
				best = i
			}
		}
		if best < 0 {
			return errInvalid
		}
		codes[best].Len++
		kraft -= 1 << (maxBits - uint(codes[best].Len))
	}
	for kraft < target {
		// The deficit is always a multiple of the smallest code-space
		// quantum present, so a promotable code always exists.
		best := -1
		for i := range codes {
			if uint(1)<<(maxBits-uint(codes[i].Len)) <= target-kraft &&
				(best < 0 || codes[i].Len > codes[best].Len) {
				best = i
			}
		}
		if best < 0 {
			return errInvalid
		}
		kraft += 1 << (maxBits - uint(codes[best].Len))
		codes[best].Len--
	}
	return nil
}

// GeneratePrefixes assigns the canonical code values to all codes according
// to their Len fields. Codes of equal length are ordered by their position
// in the slice. The values produced are bit-reversed so that they may be
// written directly by an LSB-first bit writer, which is the convention used
// by DEFLATE and Brotli streams.
func GeneratePrefixes(codes PrefixCodes) error {
	if len(codes) == 1 && codes[0].Len == 0 {
		codes[0].Val = 0
		return nil
	}

	var bitCnts [MaxLengthBits + 1]uint
	var minBits, maxBits uint32 = MaxLengthBits + 1, 0
	for _, c := range codes {
		if c.Len == 0 || c.Len > MaxLengthBits {
			return errInvalid
		}
		if minBits > c.Len {
			minBits = c.Len
		}
		if maxBits < c.Len {
			maxBits = c.Len
		}
		bitCnts[c.Len]++
	}

	var nextCodes [MaxLengthBits + 1]uint
	var code uint
	for i := minBits; i <= maxBits; i++ {
		code <<= 1
		nextCodes[i] = code
		code += bitCnts[i]
	}
	if code != 1<<maxBits {
		return errInvalid // Tree is under or over subscribed
	}

	for i := range codes {
		c := &codes[i]
		c.Val = uint32(internal.ReverseUint64N(uint64(nextCodes[c.Len]), uint(c.Len)))
		nextCodes[c.Len]++
	}
	return nil
}

// Encoder is a symbol-indexed view of a set of prefix codes.
type Encoder struct {
	codes   PrefixCodes // Dense table indexed by symbol
	numSyms uint32
}

// Init initializes the Encoder from codes with valid Len and Val fields.
// The symbols need not be dense; holes are filled with zero-width codes
// that must never be encoded.
func (pe *Encoder) Init(codes PrefixCodes) {
	var maxSym uint32
	for _, c := range codes {
		if c.Sym > maxSym {
			maxSym = c.Sym
		}
	}
	if uint32(cap(pe.codes)) > maxSym {
		pe.codes = pe.codes[:maxSym+1]
		for i := range pe.codes {
			pe.codes[i] = PrefixCode{}
		}
	} else {
		pe.codes = make(PrefixCodes, maxSym+1)
	}
	for _, c := range codes {
		pe.codes[c.Sym] = c
	}
	pe.numSyms = uint32(len(codes))
}

// NumSyms reports the number of symbols the Encoder was initialized with.
func (pe *Encoder) NumSyms() uint32 { return pe.numSyms }

// Lookup returns the code value and width for the given symbol.
func (pe *Encoder) Lookup(sym uint32) (val uint32, nb uint) {
	c := pe.codes[sym]
	return c.Val, uint(c.Len)
}
