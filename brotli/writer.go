// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package brotli

import (
	"io"

	"github.com/dsnet/golib/bits"

	"github.com/insinfo/netlib/internal/prefix"
)

// The writer produces literal-mode streams: every meta-block carries a
// single insert-and-copy command whose inserts cover the whole block, one
// block type per category, no context mapping, and no distance codes.
// The output is a strict subset of RFC 7932 that any compliant decoder
// accepts.

// maxMetaBlockSize caps a meta-block so its length header fits in six
// nibbles.
const maxMetaBlockSize = 1 << 24

// WriterConfig configures the Writer. The zero value is valid.
type WriterConfig struct {
	// WindowBits declares the sliding window as 1<<WindowBits - 16 bytes,
	// with valid values in [10, 24]. Zero selects 22. The literal encoder
	// never emits back-references, so the value only affects decoders'
	// memory use.
	WindowBits uint
}

type Writer struct {
	OutputOffset int64 // Total number of bytes emitted to the underlying writer

	wr     io.Writer
	bw     bits.Buffer
	buf    []byte
	wbits  uint
	header bool
	closed bool
	err    error
}

func NewWriter(w io.Writer, cfg *WriterConfig) (*Writer, error) {
	zw := new(Writer)
	if err := zw.Reset(w, cfg); err != nil {
		return nil, err
	}
	return zw, nil
}

func (zw *Writer) Reset(w io.Writer, cfg *WriterConfig) error {
	wbits := uint(22)
	if cfg != nil && cfg.WindowBits != 0 {
		if cfg.WindowBits < 10 || cfg.WindowBits > 24 {
			return Error("brotli: invalid window bits")
		}
		wbits = cfg.WindowBits
	}
	*zw = Writer{wr: w, wbits: wbits, buf: zw.buf[:0]}
	zw.bw.Reset()
	return nil
}

func (zw *Writer) Write(buf []byte) (int, error) {
	if zw.err != nil {
		return 0, zw.err
	}
	if zw.closed {
		return 0, io.ErrClosedPipe
	}
	zw.buf = append(zw.buf, buf...)
	for len(zw.buf) >= maxMetaBlockSize {
		zw.encodeMetaBlock(zw.buf[:maxMetaBlockSize])
		zw.buf = zw.buf[maxMetaBlockSize:]
	}
	return len(buf), nil
}

// Close flushes any pending meta-blocks, terminates the stream with an
// empty last meta-block, and writes everything to the underlying writer.
func (zw *Writer) Close() error {
	if zw.err != nil {
		return zw.err
	}
	if zw.closed {
		return nil
	}
	zw.closed = true

	zw.writeStreamHeader()
	if len(zw.buf) > 0 {
		zw.encodeMetaBlock(zw.buf)
		zw.buf = zw.buf[:0]
	}
	zw.bw.WriteBits(1, 1) // ISLAST
	zw.bw.WriteBits(1, 1) // ISLASTEMPTY
	if pad := int(zw.bw.BitsWritten() % 8); pad != 0 {
		zw.bw.WriteBits(0, 8-pad)
	}

	n, err := zw.wr.Write(zw.bw.Bytes())
	zw.OutputOffset += int64(n)
	zw.err = err
	return err
}

func (zw *Writer) writeStreamHeader() {
	if zw.header {
		return
	}
	zw.header = true
	c := encWinBits.Lookup(zw.wbits)
	zw.bw.WriteBits(uint(c.val), int(c.len))
}

// encodeMetaBlock emits one non-last compressed meta-block covering chunk.
func (zw *Writer) encodeMetaBlock(chunk []byte) {
	zw.writeStreamHeader()
	bw := &zw.bw

	bw.WriteBits(0, 1) // ISLAST
	n := uint(len(chunk) - 1)
	var nibbles uint
	switch {
	case n < 1<<16:
		nibbles = 4
	case n < 1<<20:
		nibbles = 5
	default:
		nibbles = 6
	}
	bw.WriteBits(nibbles-4, 2)
	for i := uint(0); i < nibbles; i++ {
		bw.WriteBits(n>>(4*i)&0xf, 4)
	}
	bw.WriteBits(0, 1) // ISUNCOMPRESSED

	// One block type per category, no distance parameters, the LSB6
	// context mode, and a single tree for literals and for distances.
	one := encCounts.Lookup(1)
	for i := 0; i < 3; i++ {
		bw.WriteBits(uint(one.val), int(one.len)) // NBLTYPES
	}
	bw.WriteBits(0, 2)                        // NPOSTFIX
	bw.WriteBits(0, 4)                        // NDIRECT
	bw.WriteBits(0, 2)                        // Context mode for block type 0
	bw.WriteBits(uint(one.val), int(one.len)) // NTREESL
	bw.WriteBits(uint(one.val), int(one.len)) // NTREESD

	litEnc := zw.writeLitTree(chunk)

	insCode := findRangeCode(insLenRanges, uint(len(chunk)))
	cmdSym := commandSymbol(insCode)
	writeSingleSymbolTree(bw, cmdSym, numInsSyms)
	writeSingleSymbolTree(bw, 0, 16+48) // Distance tree, never used

	// The command and distance trees are degenerate, so the command emits
	// only the insert-length extra bits, the literals, and no distance.
	rc := insLenRanges[insCode]
	extra := uint(len(chunk)) - uint(rc.base)
	for nb := int(rc.bits); nb > 0; {
		chunkBits := nb
		if chunkBits > 16 {
			chunkBits = 16
		}
		bw.WriteBits(extra&(1<<chunkBits-1), chunkBits)
		extra >>= uint(chunkBits)
		nb -= chunkBits
	}
	for _, b := range chunk {
		c := litEnc[b]
		bw.WriteBits(uint(c.val), int(c.len))
	}
}

// findRangeCode returns the index of the range containing v.
func findRangeCode(rcs rangeCodes, v uint) uint {
	for i, rc := range rcs {
		if v >= uint(rc.base) && v-uint(rc.base) < 1<<rc.bits {
			return uint(i)
		}
	}
	panic(Error("brotli: value has no range code"))
}

// commandSymbol maps an insert-length code paired with copy code zero to
// an insert-and-copy command symbol, preferring the implicit-distance
// cells since the copy part of a block-filling insert is ignored.
func commandSymbol(insCode uint) uint {
	switch {
	case insCode < 8:
		return insCode << 3
	case insCode < 16:
		return 256 + (insCode-8)<<3
	default:
		return 448 + (insCode-16)<<3
	}
}

// writeSingleSymbolTree emits a simple prefix code holding exactly one
// symbol, which then costs zero bits per use.
func writeSingleSymbolTree(bw *bits.Buffer, sym, numSyms uint) {
	bw.WriteBits(1, 2) // Simple tree marker
	bw.WriteBits(0, 2) // NSYM - 1
	bw.WriteBits(sym, int(neededBits(numSyms)))
}

// litCode is the encoder-side form of a literal code.
type litCode struct {
	val uint32
	len uint8
}

// writeLitTree serializes the literal tree for chunk and returns the
// symbol-indexed code table.
func (zw *Writer) writeLitTree(chunk []byte) (enc [256]litCode) {
	bw := &zw.bw
	var hist [256]uint32
	for _, b := range chunk {
		hist[b]++
	}
	var codes prefix.PrefixCodes
	for s, c := range hist {
		if c > 0 {
			codes = append(codes, prefix.PrefixCode{Sym: uint32(s), Cnt: c})
		}
	}

	if len(codes) <= 4 {
		// Simple tree: most frequent symbol first so it gets the
		// shortest code of the chosen shape.
		codes.SortByCount()
		var lens []uint
		var vals []uint16
		switch len(codes) {
		case 1:
			lens, vals = simpleLens1[:], []uint16{0}
		case 2:
			lens, vals = simpleLens2[:], []uint16{0, 1}
		case 3:
			lens, vals = simpleLens3[:], []uint16{0, 1, 3}
		case 4:
			if codes[0].Cnt > codes[1].Cnt+codes[2].Cnt+codes[3].Cnt {
				lens, vals = simpleLens4b[:], []uint16{0, 1, 3, 7}
			} else {
				lens, vals = simpleLens4a[:], []uint16{0, 2, 1, 3}
			}
		}

		bw.WriteBits(1, 2)                  // Simple tree marker
		bw.WriteBits(uint(len(codes)-1), 2) // NSYM - 1
		for i, c := range codes {
			bw.WriteBits(uint(c.Sym), int(neededBits(numLitSyms)))
			enc[c.Sym] = litCode{val: uint32(vals[i]), len: uint8(lens[i])}
		}
		if len(codes) == 4 {
			if lens[0] == 1 {
				bw.WriteBits(1, 1) // Tree shape (1, 2, 3, 3)
			} else {
				bw.WriteBits(0, 1) // Tree shape (2, 2, 2, 2)
			}
		}
		return enc
	}

	codes.SortBySymbol()
	if err := prefix.GenerateLengths(codes, maxPrefixBits); err != nil {
		panic(err)
	}
	if err := prefix.GeneratePrefixes(codes); err != nil {
		panic(err)
	}
	writeComplexTree(bw, codes, numLitSyms)
	for _, c := range codes {
		enc[c.Sym] = litCode{val: c.Val, len: uint8(c.Len)}
	}
	return enc
}

// writeComplexTree emits a complex prefix-code definition for codes,
// which must be sorted by symbol and carry canonical Len and Val fields.
func writeComplexTree(bw *bits.Buffer, codes prefix.PrefixCodes, numSyms uint) {
	var lens [numInsSyms]uint8 // Largest alphabet this package writes
	last := uint32(0)
	for _, c := range codes {
		lens[c.Sym] = uint8(c.Len)
		if c.Sym > last {
			last = c.Sym
		}
	}

	// Tokenize the length sequence with the run-length codes 16 and 17.
	// Runs use the decoder's accumulation rule, so each run is emitted as
	// the base-4 or base-8 digit expansion of its length.
	type token struct {
		sym   uint
		extra uint
		ebits uint
	}
	var tokens []token
	emitRun := func(run uint, sym, ebits, minRep uint, lit uint) {
		if run < minRep {
			for i := uint(0); i < run; i++ {
				tokens = append(tokens, token{sym: lit})
			}
			return
		}
		var digits []uint
		m := run - 3
		for {
			digits = append(digits, m&(1<<ebits-1))
			m >>= ebits
			if m == 0 {
				break
			}
			m--
		}
		for i := len(digits) - 1; i >= 0; i-- {
			tokens = append(tokens, token{sym: sym, extra: digits[i], ebits: ebits})
		}
	}
	for i := uint32(0); i <= last; {
		l := lens[i]
		run := uint32(1)
		for i+run <= last && lens[i+run] == l {
			run++
		}
		if l == 0 {
			emitRun(uint(run), 17, 3, 3, 0)
		} else {
			tokens = append(tokens, token{sym: uint(l)})
			emitRun(uint(run-1), 16, 2, 3, uint(l))
		}
		i += run
	}

	// Build the code-length code over the token symbols.
	var thist [18]uint32
	for _, t := range tokens {
		thist[t.sym]++
	}
	var clCodes prefix.PrefixCodes
	for s, c := range thist {
		if c > 0 {
			clCodes = append(clCodes, prefix.PrefixCode{Sym: uint32(s), Cnt: c})
		}
	}
	if len(clCodes) == 1 {
		// Pad with an unused symbol so the code-length code is complete.
		pad := (clCodes[0].Sym + 1) % 18
		clCodes = append(clCodes, prefix.PrefixCode{Sym: pad, Cnt: 0})
		clCodes.SortBySymbol()
	}
	if err := prefix.GenerateLengths(clCodes, 5); err != nil {
		panic(err)
	}
	if err := prefix.GeneratePrefixes(clCodes); err != nil {
		panic(err)
	}
	var clEnc [18]litCode
	for _, c := range clCodes {
		clEnc[c.Sym] = litCode{val: c.Val, len: uint8(c.Len)}
	}

	// Emit the code-length code lengths in the fixed order, stopping once
	// the code space is saturated, exactly where the decoder stops.
	bw.WriteBits(0, 2) // HSKIP
	space := 32
	for _, sym := range complexLens {
		if space <= 0 {
			break
		}
		l := uint(clEnc[sym].len)
		c := encCLens.Lookup(l)
		bw.WriteBits(uint(c.val), int(c.len))
		if l > 0 {
			space -= 32 >> l
		}
	}

	// Emit the token stream.
	for _, t := range tokens {
		c := clEnc[t.sym]
		bw.WriteBits(uint(c.val), int(c.len))
		bw.WriteBits(t.extra, t.ebits)
	}
}

// encodeDistance maps a match distance to a distance symbol and extra
// bits against the ring of recent distances, using the zero-postfix,
// zero-direct code layout. The ring is updated the way the decoder
// updates its own. Distances below one that miss the ring cannot be
// represented and report ok as false.
func encodeDistance(ring *[4]int, dist int) (sym uint, extra uint, ebits uint, ok bool) {
	push := func(d int) {
		ring[3], ring[2], ring[1], ring[0] = ring[2], ring[1], ring[0], d
	}
	if dist == ring[0] {
		return 0, 0, 0, true // Not pushed
	}
	for i := 1; i < 4; i++ {
		if dist == ring[i] {
			push(dist)
			return uint(i), 0, 0, true
		}
	}
	for i, delta := range shortDistDelta[4:] {
		if dist == ring[shortDistIndex[4+i]]+delta {
			push(dist)
			return uint(4 + i), 0, 0, true
		}
	}
	if dist < 1 {
		return 0, 0, 0, false
	}
	adjusted := uint(dist + 3)
	nbits := neededBits(adjusted+1) - 2
	hcode := adjusted>>nbits - 2
	base := (2 + hcode) << nbits
	push(dist)
	return 16 + 2*(nbits-1) + hcode, adjusted - base, nbits, true
}
