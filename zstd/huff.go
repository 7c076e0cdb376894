// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

// The literals of a compressed block are coded with a single canonical
// Huffman table. zstd describes the table with weights rather than code
// lengths: a weight w > 0 stands for a code of tableLog+1-w bits, and the
// weight of the last symbol is never transmitted because the Kraft
// equality pins it down.

// huffTable is a direct-lookup decoding table: the top tableLog bits of
// the bit container index it, and each cell names the decoded symbol and
// its true code length.
type huffTable struct {
	tableLog uint
	syms     []uint8
	nbBits   []uint8
}

// maxHuffWeight bounds any transmitted weight; the implied code would
// otherwise exceed the 12-bit format limit on table logs.
const maxHuffWeight = 12

// readHuffTable decodes a Huffman table description from br and returns
// the built table.
func readHuffTable(br *byteReader) *huffTable {
	header := br.ReadByte()
	var weights []uint8
	if header >= 128 {
		// Raw nibble-packed weights.
		n := int(header) - 127
		packed := br.ReadBytes((n + 1) / 2)
		weights = make([]uint8, n)
		for i := range weights {
			if i%2 == 0 {
				weights[i] = packed[i/2] >> 4
			} else {
				weights[i] = packed[i/2] & 0xf
			}
		}
	} else {
		weights = decodeWeightsFSE(br.ReadBytes(int(header)))
	}

	t := new(huffTable)
	t.build(weights)
	return t
}

// decodeWeightsFSE decodes an FSE-compressed weight stream. The stream
// carries its own table description followed by a reverse bitstream
// decoded with two interleaved states.
func decodeWeightsFSE(data []byte) []uint8 {
	norm, tableLog, n := readNCount(data, 255, maxWeightTableLog)
	var ft fseTable
	ft.Init(norm, tableLog, nil)

	var rb reverseBitReader
	rb.Init(data[n:])
	var state1, state2 fseState
	state1.Init(&ft, &rb)
	state2.Init(&ft, &rb)

	var weights []uint8
	for {
		if len(weights) >= 254 {
			panic(ErrInvalidTable)
		}
		weights = append(weights, state1.DecodeSymbol(&rb))
		if rb.Reload() == reloadOverflow {
			weights = append(weights, state2.Peek().sym)
			break
		}
		weights = append(weights, state2.DecodeSymbol(&rb))
		if rb.Reload() == reloadOverflow {
			weights = append(weights, state1.Peek().sym)
			break
		}
	}
	return weights
}

// build constructs the decoding table from the transmitted weights and
// derives the implicit weight of the final symbol.
func (t *huffTable) build(weights []uint8) {
	var sum uint32
	for _, w := range weights {
		if w > maxHuffWeight {
			panic(ErrInvalidTable)
		}
		if w > 0 {
			sum += 1 << (w - 1)
		}
	}
	if sum == 0 {
		panic(ErrInvalidTable)
	}
	tableLog := highBit(sum) + 1
	if tableLog > maxHuffWeight {
		panic(ErrInvalidTable)
	}
	rest := uint32(1<<tableLog) - sum
	if rest == 0 || rest&(rest-1) != 0 {
		panic(ErrInvalidTable) // Remainder must be a non-zero power of two
	}
	lastWeight := uint8(highBit(rest) + 1)
	weights = append(weights, lastWeight)

	// The number of longest codes must be even, with at least one pair,
	// or the Kraft sum could not have been a power of two.
	var numWeight1 int
	for _, w := range weights {
		if w == 1 {
			numWeight1++
		}
	}
	if numWeight1 < 2 || numWeight1%2 != 0 {
		panic(ErrInvalidTable)
	}

	// Lay the symbols out by rank: weight 1 (the longest codes) occupies
	// the front of the table, each symbol covering 2^(w-1) cells.
	var rankCount [maxHuffWeight + 2]uint32
	for _, w := range weights {
		rankCount[w]++
	}
	var rankVal [maxHuffWeight + 2]uint32
	var next uint32
	for w := uint(1); w <= tableLog; w++ {
		rankVal[w] = next
		next += rankCount[w] << (w - 1)
	}
	if next != 1<<tableLog {
		panic(ErrInvalidTable)
	}

	tableSize := 1 << tableLog
	t.tableLog = tableLog
	t.syms = make([]uint8, tableSize)
	t.nbBits = make([]uint8, tableSize)
	for sym, w := range weights {
		if w == 0 {
			continue
		}
		length := uint32(1) << (w - 1)
		start := rankVal[w]
		rankVal[w] += length
		nb := uint8(tableLog + 1 - uint(w))
		for i := start; i < start+length; i++ {
			t.syms[i] = uint8(sym)
			t.nbBits[i] = nb
		}
	}
}

// decodeStream decodes exactly n symbols from a single reverse bitstream.
func (t *huffTable) decodeStream(data []byte, dst []byte) {
	var rb reverseBitReader
	rb.Init(data)
	for i := range dst {
		rb.Reload()
		idx := rb.PeekBits(t.tableLog)
		dst[i] = t.syms[idx]
		rb.consumed += uint(t.nbBits[idx])
	}
	if rb.Remaining() != 0 {
		panic(ErrCorrupt) // Stream must end exactly at the sentinel
	}
}

// decodeStreams decodes a compressed literals payload in either the
// one-stream or the four-stream layout. The four-stream form opens with a
// six-byte jump table holding the sizes of the first three streams; the
// output is split into four quarters, with the last quarter absorbing the
// remainder.
func (t *huffTable) decodeStreams(data []byte, regenSize int, fourStreams bool) []byte {
	dst := make([]byte, regenSize)
	if !fourStreams {
		t.decodeStream(data, dst)
		return dst
	}

	if len(data) < 6 {
		panic(ErrTruncated)
	}
	sizes := [4]int{
		int(data[0]) | int(data[1])<<8,
		int(data[2]) | int(data[3])<<8,
		int(data[4]) | int(data[5])<<8,
	}
	data = data[6:]
	sizes[3] = len(data) - sizes[0] - sizes[1] - sizes[2]
	if sizes[3] <= 0 {
		panic(ErrCorrupt)
	}

	segSize := (regenSize + 3) / 4
	if regenSize-3*segSize < 0 {
		panic(ErrCorrupt) // Output too small for a four-way split
	}
	var off int
	for i := 0; i < 4; i++ {
		seg := segSize
		if i == 3 {
			seg = regenSize - 3*segSize
		}
		if seg < 0 {
			panic(ErrCorrupt)
		}
		t.decodeStream(data[:sizes[i]], dst[off:off+seg])
		data = data[sizes[i]:]
		off += seg
	}
	return dst
}
