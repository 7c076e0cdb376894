// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

// Literals section types.
const (
	litRaw = iota
	litRLE
	litCompressed
	litRepeat
)

// decodeLiterals parses the literals section of a compressed block and
// returns the regenerated literal bytes. A compressed section installs a
// new Huffman table on d; a repeat section reuses the table left behind by
// an earlier block of the same frame or by the dictionary.
func (d *frameDecoder) decodeLiterals(br *byteReader) []byte {
	b0 := br.ReadByte()
	btype := int(b0 & 3)
	sizeFormat := int(b0>>2) & 3

	if btype == litRaw || btype == litRLE {
		var regen int
		switch sizeFormat {
		case 0, 2: // The size field is one bit narrower in this form
			regen = int(b0 >> 3)
		case 1:
			regen = int(b0>>4) | int(br.ReadByte())<<4
		case 3:
			regen = int(b0>>4) | int(br.ReadByte())<<4 | int(br.ReadByte())<<12
		}
		if regen > d.fh.blockSizeMax {
			panic(ErrCorrupt)
		}
		if btype == litRaw {
			return br.ReadBytes(regen)
		}
		b := br.ReadByte()
		lits := make([]byte, regen)
		for i := range lits {
			lits[i] = b
		}
		return lits
	}

	var regen, csize int
	fourStreams := sizeFormat != 0
	switch sizeFormat {
	case 0, 1:
		lhc := uint32(b0) | uint32(br.ReadByte())<<8 | uint32(br.ReadByte())<<16
		regen = int(lhc>>4) & 0x3ff
		csize = int(lhc >> 14)
	case 2:
		lhc := uint32(b0) | uint32(br.ReadByte())<<8 | uint32(br.ReadByte())<<16 | uint32(br.ReadByte())<<24
		regen = int(lhc>>4) & 0x3fff
		csize = int(lhc >> 18)
	case 3:
		lhc := uint32(b0) | uint32(br.ReadByte())<<8 | uint32(br.ReadByte())<<16 | uint32(br.ReadByte())<<24
		regen = int(lhc>>4) & 0x3ffff
		csize = int(lhc>>22) | int(br.ReadByte())<<10
	}
	if regen > d.fh.blockSizeMax {
		panic(ErrCorrupt)
	}

	payload := br.ReadBytes(csize)
	if btype == litCompressed {
		var pr byteReader
		pr.Init(payload)
		d.huff = readHuffTable(&pr)
		payload = pr.Rest()
	} else if d.huff == nil {
		panic(ErrUnsupported) // Repeat mode with no prior table
	}
	return d.huff.decodeStreams(payload, regen, fourStreams)
}
