// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

// frameHeader is the decoded form of the fixed-layout frame preamble
// described in RFC 8878 section 3.1.1.1.
type frameHeader struct {
	contentSize    uint64
	hasContentSize bool
	windowSize     int
	blockSizeMax   int
	singleSegment  bool
	checksum       bool
	dictID         uint32
}

// Frame descriptor bit assignments.
const (
	fdDictIDMask    = 0x03
	fdChecksumFlag  = 0x04
	fdReservedFlag  = 0x08
	fdSingleSegment = 0x20
	fdFCSShift      = 6
)

// parseFrameHeader consumes the magic number and frame header from br.
func parseFrameHeader(br *byteReader) frameHeader {
	magic := br.ReadUint32()
	if magic&0xfffffff0 == skipFrameMagic {
		panic(ErrUnsupported) // Skippable frames are reported, not skipped
	}
	if magic != frameMagic {
		panic(ErrInvalidMagic)
	}

	desc := br.ReadByte()
	if desc&fdReservedFlag != 0 {
		panic(ErrReservedBit)
	}
	var fh frameHeader
	fh.singleSegment = desc&fdSingleSegment != 0
	fh.checksum = desc&fdChecksumFlag != 0

	if !fh.singleSegment {
		wd := br.ReadByte()
		wlog := minWindowLog + uint(wd>>3)
		if wlog > maxWindowLog {
			panic(ErrWindowSize)
		}
		base := 1 << wlog
		fh.windowSize = base + (base/8)*int(wd&7)
	}

	switch desc & fdDictIDMask {
	case 1:
		fh.dictID = uint32(br.ReadByte())
	case 2:
		fh.dictID = uint32(br.ReadUint16())
	case 3:
		fh.dictID = br.ReadUint32()
	}

	switch desc >> fdFCSShift {
	case 0:
		if fh.singleSegment {
			fh.contentSize = uint64(br.ReadByte())
			fh.hasContentSize = true
		}
	case 1:
		fh.contentSize = uint64(br.ReadUint16()) + 256
		fh.hasContentSize = true
	case 2:
		fh.contentSize = uint64(br.ReadUint32())
		fh.hasContentSize = true
	case 3:
		fh.contentSize = br.ReadUint64()
		fh.hasContentSize = true
	}

	if fh.singleSegment {
		// With no window byte, the window is the content itself.
		if fh.contentSize > 1<<maxWindowLog {
			panic(ErrWindowSize)
		}
		fh.windowSize = int(fh.contentSize)
	}
	fh.blockSizeMax = fh.windowSize
	if fh.blockSizeMax > maxBlockSize {
		fh.blockSizeMax = maxBlockSize
	}
	return fh
}

// Block types.
const (
	blockRaw = iota
	blockRLE
	blockCompressed
	blockReserved
)

type blockHeader struct {
	lastBlock bool
	blockType int
	size      int // Payload size, or the repeat count for RLE blocks
}

func parseBlockHeader(br *byteReader) blockHeader {
	v := br.ReadUint24()
	bh := blockHeader{
		lastBlock: v&1 != 0,
		blockType: int(v >> 1 & 3),
		size:      int(v >> 3),
	}
	if bh.blockType == blockReserved {
		panic(ErrReservedBit)
	}
	return bh
}
