// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

import "github.com/dsnet/golib/bits"

// Finite State Entropy is the tabled-ANS coder zstd uses for sequence
// symbols and Huffman weights. A table description is a list of normalized
// counts summing to 1<<tableLog; count -1 marks a low-probability symbol
// that is granted a single slot at the high end of the table.

// fseEntry is one cell of a decoding table.
type fseEntry struct {
	sym      uint8  // Symbol recovered when the state lands on this cell
	nbBits   uint8  // Bits to read for the state transition
	newState uint16 // Next-state base, before adding the bits read
	baseline uint32 // Base value of the decoded symbol (sequence tables)
	addBits  uint8  // Extra bits to read beyond baseline (sequence tables)
}

// fseTable is a fully built decoding table.
type fseTable struct {
	tableLog uint
	entries  []fseEntry
}

// readNCount parses a normalized-count table description from data and
// returns the counts, the table log, and the number of bytes consumed.
// The counts slice holds exactly the used symbols; absent trailing symbols
// are not represented.
func readNCount(data []byte, maxSymbol int, maxTableLog uint) (norm []int16, tableLog uint, n int) {
	var lb lsbBitReader
	lb.Init(data)

	tableLog = lb.ReadBits(4) + 5
	if tableLog > maxTableLog {
		panic(ErrInvalidTable)
	}
	remaining := int32(1<<tableLog) + 1
	threshold := int32(1 << tableLog)
	nbBits := tableLog + 1

	norm = make([]int16, 0, maxSymbol+1)
	previous0 := false
	for remaining > 1 && len(norm) <= maxSymbol {
		if previous0 {
			for {
				rep := lb.ReadBits(2)
				if rep < 3 {
					for i := uint(0); i < rep; i++ {
						norm = append(norm, 0)
					}
					break
				}
				norm = append(norm, 0, 0, 0)
				if len(norm) > maxSymbol {
					panic(ErrInvalidTable)
				}
			}
			if len(norm) > maxSymbol {
				panic(ErrInvalidTable)
			}
		}

		max := (2*threshold - 1) - remaining
		var count int32
		if low := int32(lb.ReadBits(nbBits - 1)); low < max {
			count = low
		} else {
			count = low | int32(lb.ReadBits(1))<<(nbBits-1)
			if count >= threshold {
				count -= max
			}
		}
		count-- // Counts are stored with an offset of one; -1 is low-probability

		if count < 0 {
			remaining += count
		} else {
			remaining -= count
		}
		norm = append(norm, int16(count))
		previous0 = count == 0
		if remaining < 1 {
			panic(ErrInvalidTable)
		}
		for remaining < threshold {
			nbBits--
			threshold >>= 1
		}
	}
	if remaining != 1 {
		panic(ErrInvalidTable)
	}
	return norm, tableLog, lb.BytesConsumed()
}

// fseSpread distributes the symbols of norm across a table of 1<<tableLog
// slots and returns the per-slot symbols. Low-probability symbols occupy
// the region above highThreshold.
func fseSpread(norm []int16, tableLog uint) (syms []uint8, highThreshold int) {
	tableSize := 1 << tableLog
	syms = make([]uint8, tableSize)
	highThreshold = tableSize - 1
	for s, c := range norm {
		if c == -1 {
			syms[highThreshold] = uint8(s)
			highThreshold--
		}
	}

	step := (tableSize >> 1) + (tableSize >> 3) + 3
	mask := tableSize - 1
	pos := 0
	for s, c := range norm {
		for i := int16(0); i < c; i++ {
			syms[pos] = uint8(s)
			pos = (pos + step) & mask
			for pos > highThreshold {
				pos = (pos + step) & mask // Skip the low-probability area
			}
		}
	}
	if pos != 0 {
		panic(ErrInvalidTable) // Spread must visit every open slot exactly once
	}
	return syms, highThreshold
}

// Init builds the decoding table for the given normalized counts. The codes
// table, when non-nil, supplies the per-symbol baseline and extra-bit
// values used by the sequence decoders.
func (t *fseTable) Init(norm []int16, tableLog uint, codes []symbolCode) {
	tableSize := 1 << tableLog
	t.tableLog = tableLog
	if cap(t.entries) >= tableSize {
		t.entries = t.entries[:tableSize]
	} else {
		t.entries = make([]fseEntry, tableSize)
	}

	syms, _ := fseSpread(norm, tableLog)
	var symbolNext [256]uint16
	for s, c := range norm {
		if c == -1 {
			symbolNext[s] = 1
		} else {
			symbolNext[s] = uint16(c)
		}
	}

	for u := range t.entries {
		s := syms[u]
		next := symbolNext[s]
		symbolNext[s]++
		nb := uint8(tableLog - highBit(uint32(next)))
		t.entries[u] = fseEntry{
			sym:      s,
			nbBits:   nb,
			newState: next<<nb - uint16(tableSize),
		}
		if codes != nil {
			if int(s) >= len(codes) {
				panic(ErrInvalidTable)
			}
			t.entries[u].baseline = codes[s].baseline
			t.entries[u].addBits = codes[s].addBits
		}
	}
}

// InitRLE builds the single-state table that always decodes sym.
func (t *fseTable) InitRLE(sym uint8, codes []symbolCode) {
	t.tableLog = 0
	t.entries = append(t.entries[:0], fseEntry{sym: sym})
	if codes != nil {
		if int(sym) >= len(codes) {
			panic(ErrInvalidTable)
		}
		t.entries[0].baseline = codes[sym].baseline
		t.entries[0].addBits = codes[sym].addBits
	}
}

// fseState is a decoding state register over a table.
type fseState struct {
	table *fseTable
	state uint16
}

func (s *fseState) Init(t *fseTable, rb *reverseBitReader) {
	s.table = t
	s.state = uint16(rb.ReadBits(t.tableLog))
}

// Peek returns the table entry for the current state.
func (s *fseState) Peek() fseEntry {
	return s.table.entries[s.state]
}

// Next transitions the state by reading the entry's bit count.
func (s *fseState) Next(rb *reverseBitReader) {
	e := s.table.entries[s.state]
	s.state = e.newState + uint16(rb.ReadBits(uint(e.nbBits)))
}

// DecodeSymbol returns the current symbol and transitions the state.
func (s *fseState) DecodeSymbol(rb *reverseBitReader) uint8 {
	e := s.table.entries[s.state]
	s.state = e.newState + uint16(rb.ReadBits(uint(e.nbBits)))
	return e.sym
}

// fseCTable is the encoder-side mirror of fseTable. Symbols map to
// (deltaNbBits, deltaFindState) pairs derived from the same slot spread,
// so that any stream it produces lands the decoder on matching states.
type fseCTable struct {
	tableLog   uint
	stateTable []uint16
	deltaBits  []uint32 // Per symbol: (nbBits << 16) - minStatePlus
	deltaState []int32  // Per symbol: offset into stateTable
}

// Init builds the compression table for the given normalized counts.
func (ct *fseCTable) Init(norm []int16, tableLog uint) {
	tableSize := 1 << tableLog
	ct.tableLog = tableLog
	ct.stateTable = make([]uint16, tableSize)
	ct.deltaBits = make([]uint32, len(norm))
	ct.deltaState = make([]int32, len(norm))

	cumul := make([]int32, len(norm)+1)
	for s, c := range norm {
		if c == -1 {
			cumul[s+1] = cumul[s] + 1
		} else {
			cumul[s+1] = cumul[s] + int32(c)
		}
	}

	syms, _ := fseSpread(norm, tableLog)
	for u, s := range syms {
		ct.stateTable[cumul[s]] = uint16(tableSize + u)
		cumul[s]++
	}

	var total int32
	for s, c := range norm {
		switch {
		case c == 0:
			ct.deltaBits[s] = uint32(tableLog+1) << 16 // Must never be used
		case c == -1 || c == 1:
			ct.deltaBits[s] = uint32(tableLog)<<16 - uint32(tableSize)
			ct.deltaState[s] = total - 1
			total++
		default:
			maxBitsOut := tableLog - highBit(uint32(c-1))
			minStatePlus := uint32(c) << maxBitsOut
			ct.deltaBits[s] = uint32(maxBitsOut)<<16 - minStatePlus
			ct.deltaState[s] = total - int32(c)
			total += int32(c)
		}
	}
}

// fseCState is an encoding state register over a compression table.
type fseCState struct {
	ct    *fseCTable
	state uint32
}

// Init seeds the state with its first symbol. No bits are emitted; the
// symbol is recovered by the decoder from the flushed state value alone.
func (s *fseCState) Init(ct *fseCTable, sym uint8) {
	s.ct = ct
	nbBitsOut := (ct.deltaBits[sym] + (1 << 15)) >> 16
	state := (nbBitsOut << 16) - ct.deltaBits[sym]
	s.state = uint32(ct.stateTable[int32(state>>nbBitsOut)+ct.deltaState[sym]])
}

// Encode emits the bits for the current state and transitions by sym.
func (s *fseCState) Encode(bw *bits.Buffer, sym uint8) {
	nbBits := (s.state + s.ct.deltaBits[sym]) >> 16
	bw.WriteBits(uint(s.state)&((1<<nbBits)-1), int(nbBits))
	s.state = uint32(s.ct.stateTable[int32(s.state>>nbBits)+s.ct.deltaState[sym]])
}

// Flush emits the final state value.
func (s *fseCState) Flush(bw *bits.Buffer) {
	bw.WriteBits(uint(s.state)&((1<<s.ct.tableLog)-1), int(s.ct.tableLog))
}

// writeNCount serializes a normalized-count table description.
func writeNCount(bw *bits.Buffer, norm []int16, tableLog uint) {
	bw.WriteBits(tableLog-5, 4)

	remaining := int32(1<<tableLog) + 1
	threshold := int32(1 << tableLog)
	nbBits := tableLog + 1
	previous0 := false
	i := 0
	for remaining > 1 {
		if previous0 {
			run := 0
			for i+run < len(norm) && norm[i+run] == 0 {
				run++
			}
			i += run
			for run >= 24 {
				bw.WriteBits(0xffff, 16) // Eight repeat fields at once
				run -= 24
			}
			for run >= 3 {
				bw.WriteBits(3, 2)
				run -= 3
			}
			bw.WriteBits(uint(run), 2)
		}
		if i >= len(norm) {
			panic(ErrInvalidTable) // Counts do not cover the table
		}

		count := int32(norm[i])
		i++
		max := (2*threshold - 1) - remaining
		if count < 0 {
			remaining += count
		} else {
			remaining -= count
		}
		count++ // Stored with an offset of one
		if count >= threshold {
			count += max
		}
		if count < max {
			bw.WriteBits(uint(count), int(nbBits)-1)
		} else {
			bw.WriteBits(uint(count), int(nbBits))
		}
		previous0 = count == 1
		for remaining < threshold {
			nbBits--
			threshold >>= 1
		}
	}
	// Pad the description to a byte boundary.
	if pad := int(bw.BitsWritten() % 8); pad != 0 {
		bw.WriteBits(0, 8-pad)
	}
}

// normalizeCounts scales a histogram so that it sums to exactly
// 1<<tableLog, keeping every present symbol at a count of at least one.
func normalizeCounts(hist []int, total int, tableLog uint) []int16 {
	tableSize := 1 << tableLog
	norm := make([]int16, len(hist))
	used, assigned := 0, 0
	for s, c := range hist {
		if c == 0 {
			continue
		}
		used++
		n := c * tableSize / total
		if n == 0 {
			n = 1
		}
		norm[s] = int16(n)
		assigned += n
	}
	if used == 0 || used > tableSize {
		panic(ErrInvalidTable) // Histogram cannot fill this table
	}
	// Settle the rounding drift one slot at a time, granting slots to the
	// symbols with the highest count-per-slot ratio and reclaiming them
	// from the lowest.
	for assigned != tableSize {
		best := -1
		if assigned < tableSize {
			for s, c := range hist {
				if c > 0 && (best < 0 || c*int(norm[best]) > hist[best]*int(norm[s])) {
					best = s
				}
			}
			norm[best]++
			assigned++
		} else {
			for s, c := range hist {
				if norm[s] > 1 && (best < 0 || c*int(norm[best]) < hist[best]*int(norm[s])) {
					best = s
				}
			}
			if best < 0 {
				panic(ErrInvalidTable)
			}
			norm[best]--
			assigned--
		}
	}
	return norm
}
