// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

import (
	"github.com/dsnet/golib/bits"

	"github.com/insinfo/netlib/internal/prefix"
)

// huffEncoder holds a canonical Huffman code and its serialized table
// description, ready to code a literals section.
type huffEncoder struct {
	tableLog uint
	codeVal  [256]uint16
	codeBits [256]uint8
	desc     []byte
}

// buildHuffEncoder derives a length-limited canonical code from the byte
// histogram of lits. It returns nil when no usable table exists, such as
// when only one distinct symbol is present.
func buildHuffEncoder(lits []byte) *huffEncoder {
	var hist [256]int
	for _, b := range lits {
		hist[b]++
	}
	var codes prefix.PrefixCodes
	maxSym := 0
	for s, c := range hist {
		if c > 0 {
			codes = append(codes, prefix.PrefixCode{Sym: uint32(s), Cnt: uint32(c)})
			maxSym = s
		}
	}
	if len(codes) < 2 {
		return nil
	}
	if err := prefix.GenerateLengths(codes, maxLitTableLog); err != nil {
		return nil
	}

	// Convert the code lengths into the weight form and lay out the code
	// values the way the decoder lays out its table: longest codes first,
	// in symbol order within a rank.
	he := new(huffEncoder)
	var weights [256]uint8
	var maxLen uint32
	for _, c := range codes {
		if c.Len > maxLen {
			maxLen = c.Len
		}
	}
	he.tableLog = uint(maxLen)
	for _, c := range codes {
		weights[c.Sym] = uint8(he.tableLog + 1 - uint(c.Len))
	}

	var rankCount [maxHuffWeight + 2]uint32
	for _, w := range weights[:maxSym+1] {
		rankCount[w]++
	}
	var rankVal [maxHuffWeight + 2]uint32
	var next uint32
	for w := uint(1); w <= he.tableLog; w++ {
		rankVal[w] = next
		next += rankCount[w] << (w - 1)
	}
	if next != 1<<he.tableLog {
		return nil // Lengths did not satisfy the Kraft equality
	}
	for s := 0; s <= maxSym; s++ {
		w := weights[s]
		if w == 0 {
			continue
		}
		start := rankVal[w]
		rankVal[w] += 1 << (w - 1)
		he.codeBits[s] = uint8(he.tableLog + 1 - uint(w))
		he.codeVal[s] = uint16(start >> (w - 1))
	}

	he.desc = serializeWeights(weights[:maxSym+1])
	if he.desc == nil {
		return nil
	}
	return he
}

// serializeWeights emits the table description: the weight of every symbol
// up to but excluding the last used one, either as FSE-compressed data or
// as raw packed nibbles, whichever is smaller.
func serializeWeights(weights []uint8) []byte {
	transmitted := weights[:len(weights)-1]

	var raw []byte
	if len(transmitted) <= 128 {
		raw = make([]byte, 1+(len(transmitted)+1)/2)
		raw[0] = byte(127 + len(transmitted))
		for i, w := range transmitted {
			if i%2 == 0 {
				raw[1+i/2] |= w << 4
			} else {
				raw[1+i/2] |= w
			}
		}
	}

	fse := encodeWeightsFSE(transmitted)
	switch {
	case fse != nil && (raw == nil || len(fse) < len(raw)):
		return fse
	case raw != nil:
		return raw
	default:
		return nil
	}
}

// encodeWeightsFSE compresses the weight stream with a two-state FSE
// encoder. It returns nil when the weights are not FSE-compressible.
func encodeWeightsFSE(weights []uint8) (out []byte) {
	defer func() {
		// Normalization can fail on degenerate histograms; treat any
		// such failure as "not compressible" and let the caller use
		// the raw form.
		if recover() != nil {
			out = nil
		}
	}()

	if len(weights) < 2 {
		return nil
	}
	var hist [maxHuffWeight + 1]int
	maxW, distinct := 0, 0
	for _, w := range weights {
		if hist[w] == 0 {
			distinct++
		}
		hist[w]++
		if int(w) > maxW {
			maxW = int(w)
		}
	}
	if distinct < 2 {
		return nil
	}

	tableLog := uint(maxWeightTableLog)
	norm := normalizeCounts(hist[:maxW+1], len(weights), tableLog)
	var ct fseCTable
	ct.Init(norm, tableLog)

	var bw bits.Buffer
	writeNCount(&bw, norm, tableLog)

	// Symbols are encoded backwards so that the decoder, reading the
	// stream in reverse, recovers them in order. State 1 covers the even
	// positions and state 2 the odd ones.
	var state1, state2 fseCState
	i := len(weights)
	if i%2 != 0 {
		state1.Init(&ct, weights[i-1])
		state2.Init(&ct, weights[i-2])
		i -= 2
		if i > 0 {
			i--
			state1.Encode(&bw, weights[i])
		}
	} else {
		state2.Init(&ct, weights[i-1])
		state1.Init(&ct, weights[i-2])
		i -= 2
	}
	for i > 0 {
		i--
		state2.Encode(&bw, weights[i])
		i--
		state1.Encode(&bw, weights[i])
	}
	state2.Flush(&bw)
	state1.Flush(&bw)
	closeReverseStream(&bw)

	if bw.BitsWritten()%8 != 0 {
		return nil
	}
	body := bw.Bytes()
	if len(body) >= 128 {
		return nil // Length must fit the one-byte header with the top bit clear
	}
	return append([]byte{byte(len(body))}, body...)
}

// closeReverseStream appends the sentinel bit that marks the end of a
// reverse-read bitstream and pads the result to a byte boundary.
func closeReverseStream(bw *bits.Buffer) {
	bw.WriteBits(1, 1)
	if pad := int(bw.BitsWritten() % 8); pad != 0 {
		bw.WriteBits(0, 8-pad)
	}
}

// encodeStream Huffman-codes lits as one reverse bitstream closed by a
// sentinel bit. Symbols are written in reverse so the decoder reads them
// in order.
func (he *huffEncoder) encodeStream(lits []byte) []byte {
	var bw bits.Buffer
	for i := len(lits) - 1; i >= 0; i-- {
		s := lits[i]
		bw.WriteBits(uint(he.codeVal[s]), int(he.codeBits[s]))
	}
	closeReverseStream(&bw)
	return bw.Bytes()
}

// encodeStreams produces the stream section of a compressed literals
// block: a single stream, or four streams prefixed by the six-byte jump
// table holding the sizes of the first three.
func (he *huffEncoder) encodeStreams(lits []byte, fourStreams bool) []byte {
	if !fourStreams {
		return he.encodeStream(lits)
	}
	segSize := (len(lits) + 3) / 4
	var streams [4][]byte
	for i := 0; i < 4; i++ {
		lo := i * segSize
		hi := lo + segSize
		if i == 3 {
			hi = len(lits)
		}
		streams[i] = he.encodeStream(lits[lo:hi])
	}
	out := make([]byte, 6, 6+len(streams[0])+len(streams[1])+len(streams[2])+len(streams[3]))
	for i := 0; i < 3; i++ {
		n := len(streams[i])
		if n > 0xffff {
			return nil
		}
		out[2*i] = byte(n)
		out[2*i+1] = byte(n >> 8)
	}
	for _, s := range streams {
		out = append(out, s...)
	}
	return out
}
