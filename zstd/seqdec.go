// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

// Sequence descriptor compression modes.
const (
	modePredefined = iota
	modeRLE
	modeCompressed
	modeRepeat
)

// readSeqTable resolves one tree descriptor of the sequences header.
// cur is the frame-persistent table pointer for this tree and own is the
// frame-owned storage used by the RLE and compressed modes.
func readSeqTable(br *byteReader, cur **fseTable, own *fseTable, mode int,
	codes []symbolCode, maxLog uint, predefined *fseTable) {
	switch mode {
	case modePredefined:
		*cur = predefined
	case modeRLE:
		sym := br.ReadByte()
		if int(sym) >= len(codes) {
			panic(ErrInvalidTable)
		}
		own.InitRLE(sym, codes)
		*cur = own
	case modeCompressed:
		norm, tableLog, n := readNCount(br.Rest(), len(codes)-1, maxLog)
		br.Skip(n)
		own.Init(norm, tableLog, codes)
		*cur = own
	case modeRepeat:
		if *cur == nil {
			panic(ErrUnsupported) // Repeat mode with no prior table
		}
	}
}

// decodeSequences parses the sequences section, executes every sequence
// against the window, and flushes the residual literals.
func (d *frameDecoder) decodeSequences(br *byteReader, lits []byte) {
	var nbSeq int
	switch b0 := br.ReadByte(); {
	case b0 < 128:
		nbSeq = int(b0)
	case b0 < 255:
		nbSeq = (int(b0)-128)<<8 | int(br.ReadByte())
	default:
		nbSeq = int(br.ReadUint16()) + 0x7f00
	}
	if nbSeq == 0 {
		if br.Len() != 0 {
			panic(ErrCorrupt) // Empty sequences section must end the block
		}
		d.w.Append(lits)
		return
	}

	modes := br.ReadByte()
	if modes&3 != 0 {
		panic(ErrReservedBit)
	}
	readSeqTable(br, &d.ll, &d.llOwn, int(modes>>6)&3, llCodes[:], maxLLTableLog, &llPredefined)
	readSeqTable(br, &d.of, &d.ofOwn, int(modes>>4)&3, ofCodes[:], maxOFTableLog, &ofPredefined)
	readSeqTable(br, &d.ml, &d.mlOwn, int(modes>>2)&3, mlCodes[:], maxMLTableLog, &mlPredefined)

	var rb reverseBitReader
	rb.Init(br.ReadBytes(br.Len()))

	// The three states are read in LL, OF, ML order.
	var llS, ofS, mlS fseState
	llS.Init(d.ll, &rb)
	ofS.Init(d.of, &rb)
	mlS.Init(d.ml, &rb)

	litPos := 0
	for i := 0; i < nbSeq; i++ {
		rb.Reload()
		ofE, mlE, llE := ofS.Peek(), mlS.Peek(), llS.Peek()

		// Extra bits follow in offset, match length, literal length order.
		ofVal := int(ofE.baseline) + int(rb.ReadBits(uint(ofE.addBits)))
		rb.Reload()
		ml := int(mlE.baseline) + int(rb.ReadBits(uint(mlE.addBits)))
		ll := int(llE.baseline) + int(rb.ReadBits(uint(llE.addBits)))

		dist := d.resolveOffset(ofVal, ll)

		if ll > len(lits)-litPos {
			panic(ErrBackReference) // Sequence overruns the literal buffer
		}
		d.w.Append(lits[litPos : litPos+ll])
		litPos += ll
		d.w.CopyMatch(dist, ml)

		if i != nbSeq-1 {
			rb.Reload()
			llS.Next(&rb)
			mlS.Next(&rb)
			ofS.Next(&rb)
		}
	}
	if rb.Remaining() != 0 {
		panic(ErrCorrupt) // Bitstream must be fully consumed
	}
	d.w.Append(lits[litPos:])
}

// resolveOffset turns a raw offset value into a match distance, consulting
// and updating the repeat-offset ring. Offset values of three or less
// select a recent offset, with the indices shifted by one when the
// sequence carries no literals; the final slot of that shifted view means
// "most recent minus one", clamped so the ring never holds a zero.
func (d *frameDecoder) resolveOffset(ofVal, ll int) int {
	if ofVal > 3 {
		dist := ofVal - 3
		d.recentOffsets[2] = d.recentOffsets[1]
		d.recentOffsets[1] = d.recentOffsets[0]
		d.recentOffsets[0] = dist
		return dist
	}

	idx := ofVal
	if ll == 0 {
		idx++
	}
	var dist int
	switch idx {
	case 1:
		return d.recentOffsets[0]
	case 2:
		dist = d.recentOffsets[1]
	case 3:
		dist = d.recentOffsets[2]
		d.recentOffsets[2] = d.recentOffsets[1]
	case 4:
		dist = d.recentOffsets[0] - 1
		if dist == 0 {
			dist = 1
		}
		d.recentOffsets[2] = d.recentOffsets[1]
	}
	d.recentOffsets[1] = d.recentOffsets[0]
	d.recentOffsets[0] = dist
	return dist
}
