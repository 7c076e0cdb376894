// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package brotli

// Reading of dynamic prefix codes and context maps, RFC sections 3.4,
// 3.5, and 7.3.

// readPrefixCode reads a prefix-code definition over an alphabet of
// numSyms symbols and initializes pd with it.
func (br *Reader) readPrefixCode(pd *prefixDecoder, numSyms uint) {
	if hskip := br.rd.ReadBits(2); hskip == 1 {
		br.readSimplePrefixCode(pd, numSyms)
	} else {
		br.readComplexPrefixCode(pd, numSyms, hskip)
	}
}

// readSimplePrefixCode reads a simple prefix-code definition of one to
// four symbols.
func (br *Reader) readSimplePrefixCode(pd *prefixDecoder, numSyms uint) {
	var codes [4]prefixCode
	nsym := br.rd.ReadBits(2) + 1
	clen := neededBits(numSyms)
	for i := uint(0); i < nsym; i++ {
		sym := br.rd.ReadBits(clen)
		if sym >= numSyms {
			panic(ErrCorrupt) // Symbol goes beyond range of alphabet
		}
		codes[i].sym = uint16(sym)
	}

	copyLens := func(lens []uint) {
		for i := uint(0); i < nsym; i++ {
			codes[i].len = uint8(lens[i])
		}
	}
	assignVals := func(vals []uint16) {
		for i := uint(0); i < nsym; i++ {
			codes[i].val = vals[i]
		}
	}
	switch nsym {
	case 1:
		copyLens(simpleLens1[:])
		assignVals([]uint16{0})
	case 2:
		copyLens(simpleLens2[:])
		assignVals([]uint16{0, 1})
	case 3:
		copyLens(simpleLens3[:])
		assignVals([]uint16{0, 1, 3})
	case 4:
		if tshape := br.rd.ReadBits(1) == 1; tshape {
			copyLens(simpleLens4b[:])
			assignVals([]uint16{0, 1, 3, 7})
		} else {
			copyLens(simpleLens4a[:])
			assignVals([]uint16{0, 2, 1, 3})
		}
	}

	// The codes are tied to the order they were read in, so sort the
	// (symbol, code) pairs by symbol before initializing the decoder.
	cs := codes[:nsym]
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j-1].sym > cs[j].sym; j-- {
			cs[j-1], cs[j] = cs[j], cs[j-1]
		}
	}
	for i := 1; i < len(cs); i++ {
		if cs[i-1].sym == cs[i].sym {
			panic(ErrCorrupt) // Symbols must be unique
		}
	}
	pd.Init(cs, false)
}

// readComplexPrefixCode reads a complex prefix-code definition: the code
// lengths of the code-length alphabet, then the RLE-coded code lengths of
// the symbol alphabet itself.
func (br *Reader) readComplexPrefixCode(pd *prefixDecoder, numSyms, hskip uint) {
	// Read the code lengths of the code-length code, in the fixed symbol
	// order, stopping as soon as the code space is saturated.
	var clenLens [len(complexLens)]uint8
	space, numCodes := 32, 0
	for i := hskip; i < uint(len(complexLens)) && space > 0; i++ {
		sym := complexLens[i]
		l := br.rd.ReadSymbol(&decCLens)
		if l == 0 {
			continue
		}
		clenLens[sym] = uint8(l)
		numCodes++
		space -= 32 >> l
	}
	if space < 0 || (space > 0 && numCodes != 1) {
		panic(ErrCorrupt) // Code space must be exactly saturated
	}

	var clCodes prefixCodes
	for sym, l := range clenLens {
		if l > 0 {
			clCodes = append(clCodes, prefixCode{sym: uint16(sym), len: l})
		}
	}
	var clTree prefixDecoder
	if numCodes == 1 {
		clCodes[0].len = 0 // Degenerate single code of zero width
	}
	clTree.Init(clCodes, true)

	// Use the code-length code to read the symbol code lengths.
	var codes prefixCodes
	space = 32768
	sym, prevLen := uint(0), uint(8)
	var rep, repLen uint
	for sym < numSyms && space > 0 {
		switch c := br.rd.ReadSymbol(&clTree); {
		case c < 16:
			if c > 0 {
				codes = append(codes, prefixCode{sym: uint16(sym), len: uint8(c)})
				prevLen = c
				space -= 32768 >> c
			}
			sym++
			rep = 0
		case c == 16:
			if repLen != prevLen {
				rep, repLen = 0, prevLen
			}
			old := rep
			if rep > 0 {
				rep = (rep - 2) << 2
			}
			rep += br.rd.ReadBits(2) + 3
			delta := rep - old
			if sym+delta > numSyms {
				panic(ErrCorrupt)
			}
			for i := uint(0); i < delta; i++ {
				codes = append(codes, prefixCode{sym: uint16(sym), len: uint8(repLen)})
				sym++
				space -= 32768 >> repLen
			}
		default: // c == 17
			if repLen != 0 {
				rep, repLen = 0, 0
			}
			old := rep
			if rep > 0 {
				rep = (rep - 2) << 3
			}
			rep += br.rd.ReadBits(3) + 3
			delta := rep - old
			if sym+delta > numSyms {
				panic(ErrCorrupt)
			}
			sym += delta
		}
	}
	if space != 0 || len(codes) == 0 {
		panic(ErrCorrupt)
	}
	pd.Init(codes, true)
}

// readContextMap reads a context map of the given size for numTrees trees,
// applying the run-length zero coding and the optional inverse
// move-to-front transform of RFC section 7.3.
func (br *Reader) readContextMap(numTrees, size int, cmap []uint8) []uint8 {
	cmap = allocUint8s(cmap, size)
	if numTrees < 2 {
		for i := range cmap {
			cmap[i] = 0
		}
		return cmap
	}

	rleMax := br.rd.ReadSymbol(&decMaxRLE)
	var tree prefixDecoder
	br.readPrefixCode(&tree, uint(numTrees)+rleMax)
	for i := 0; i < size; {
		switch sym := br.rd.ReadSymbol(&tree); {
		case sym == 0:
			cmap[i] = 0
			i++
		case sym <= rleMax:
			n := int(1<<sym) + int(br.rd.ReadBits(sym))
			if i+n > size {
				panic(ErrCorrupt) // Zero run goes beyond the map
			}
			for j := 0; j < n; j++ {
				cmap[i] = 0
				i++
			}
		default:
			cmap[i] = uint8(sym - rleMax)
			i++
		}
	}
	if br.rd.ReadBits(1) == 1 {
		inverseMoveToFront(cmap)
	}
	return cmap
}

// inverseMoveToFront applies the inverse move-to-front transform in place.
func inverseMoveToFront(vals []uint8) {
	var mtf [256]uint8
	for i := range mtf {
		mtf[i] = uint8(i)
	}
	for i, v := range vals {
		n := int(v)
		vals[i] = mtf[n]
		copy(mtf[1:n+1], mtf[:n])
		mtf[0] = vals[i]
	}
}
