// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

import (
	"io"

	"github.com/cespare/xxhash/v2"
)

// WriterConfig configures the encoder. The zero value is a valid
// configuration.
type WriterConfig struct {
	// Checksum appends the low 32 bits of the xxHash64 of the content to
	// every frame.
	Checksum bool
}

// Compress encodes src as a single zstd frame. The frame uses the
// single-segment layout with the smallest possible content-size field, so
// decoders derive the window from the content size. Runs become RLE
// blocks, skewed literal segments become Huffman-coded blocks, and
// everything else is stored raw.
func Compress(src []byte, cfg *WriterConfig) []byte {
	checksum := cfg != nil && cfg.Checksum
	out := appendFrameHeader(nil, len(src), checksum)

	if len(src) == 0 {
		out = appendBlockHeader(out, blockRaw, 0, true)
	}
	blockSizeMax := len(src)
	if blockSizeMax > maxBlockSize {
		blockSizeMax = maxBlockSize
	}
	for pos := 0; pos < len(src); {
		if r := runLength(src[pos:]); r >= 2 {
			if r > blockSizeMax {
				r = blockSizeMax
			}
			out = appendBlockHeader(out, blockRLE, r, pos+r == len(src))
			out = append(out, src[pos])
			pos += r
			continue
		}
		seg := literalSegment(src, pos, blockSizeMax)
		last := pos+len(seg) == len(src)
		if blk := encodeLiteralBlock(seg); blk != nil && len(blk) < len(seg) && len(blk) <= blockSizeMax {
			out = appendBlockHeader(out, blockCompressed, len(blk), last)
			out = append(out, blk...)
		} else {
			out = appendBlockHeader(out, blockRaw, len(seg), last)
			out = append(out, seg...)
		}
		pos += len(seg)
	}

	if checksum {
		sum := uint32(xxhash.Sum64(src))
		out = append(out, byte(sum), byte(sum>>8), byte(sum>>16), byte(sum>>24))
	}
	return out
}

// runLength reports the length of the run of identical bytes at the start
// of buf.
func runLength(buf []byte) int {
	n := 1
	for n < len(buf) && buf[n] == buf[0] {
		n++
	}
	return n
}

// literalSegment returns the segment starting at pos that extends until
// the next run of two or more bytes, capped at max bytes.
func literalSegment(src []byte, pos, max int) []byte {
	end := pos + 1
	for end < len(src) && end-pos < max {
		if end+1 < len(src) && src[end] == src[end+1] {
			break
		}
		end++
	}
	return src[pos:end]
}

func appendFrameHeader(dst []byte, contentSize int, checksum bool) []byte {
	dst = append(dst, 0x28, 0xb5, 0x2f, 0xfd)

	desc := byte(fdSingleSegment)
	if checksum {
		desc |= fdChecksumFlag
	}
	var fcsFlag byte
	switch {
	case contentSize <= 0xff:
		fcsFlag = 0
	case contentSize <= 0xffff+256:
		fcsFlag = 1
	case int64(contentSize) <= 0xffffffff:
		fcsFlag = 2
	default:
		fcsFlag = 3
	}
	dst = append(dst, desc|fcsFlag<<fdFCSShift)

	cs := uint64(contentSize)
	switch fcsFlag {
	case 0:
		dst = append(dst, byte(cs))
	case 1:
		cs -= 256
		dst = append(dst, byte(cs), byte(cs>>8))
	case 2:
		dst = append(dst, byte(cs), byte(cs>>8), byte(cs>>16), byte(cs>>24))
	case 3:
		dst = append(dst, byte(cs), byte(cs>>8), byte(cs>>16), byte(cs>>24),
			byte(cs>>32), byte(cs>>40), byte(cs>>48), byte(cs>>56))
	}
	return dst
}

func appendBlockHeader(dst []byte, blockType, size int, last bool) []byte {
	v := uint32(size)<<3 | uint32(blockType)<<1
	if last {
		v |= 1
	}
	return append(dst, byte(v), byte(v>>8), byte(v>>16))
}

// encodeLiteralBlock builds a compressed-block payload holding a
// Huffman-coded literals section and an empty sequences section. It
// returns nil when the literals do not qualify for Huffman coding or do
// not shrink.
func encodeLiteralBlock(seg []byte) []byte {
	var hist [256]int
	for _, b := range seg {
		hist[b]++
	}
	maxCount := 0
	for _, c := range hist {
		if c > maxCount {
			maxCount = c
		}
	}
	// Entropy coding pays off only on reasonably long, skewed, non-RLE
	// segments.
	if len(seg) < 64 || maxCount >= len(seg) || maxCount <= len(seg)/128+4 {
		return nil
	}
	he := buildHuffEncoder(seg)
	if he == nil {
		return nil
	}

	fourStreams := len(seg) > 1023
	streams := he.encodeStreams(seg, fourStreams)
	if streams == nil {
		return nil
	}
	regen := len(seg)
	csize := len(he.desc) + len(streams)

	var blk []byte
	switch {
	case !fourStreams && regen <= 0x3ff && csize <= 0x3ff:
		lhc := uint32(litCompressed) | 0<<2 | uint32(regen)<<4 | uint32(csize)<<14
		blk = append(blk, byte(lhc), byte(lhc>>8), byte(lhc>>16))
	case fourStreams && regen <= 0x3fff && csize <= 0x3fff:
		lhc := uint32(litCompressed) | 2<<2 | uint32(regen)<<4 | uint32(csize)<<18
		blk = append(blk, byte(lhc), byte(lhc>>8), byte(lhc>>16), byte(lhc>>24))
	case fourStreams && regen <= 0x3ffff && csize <= 0x3ffff:
		lhc := uint32(litCompressed) | 3<<2 | uint32(regen)<<4 | uint32(csize)<<22
		blk = append(blk, byte(lhc), byte(lhc>>8), byte(lhc>>16), byte(lhc>>24), byte(csize>>10))
	default:
		return nil
	}
	blk = append(blk, he.desc...)
	blk = append(blk, streams...)
	blk = append(blk, 0x00) // Sequences section: nbSeq = 0
	return blk
}

// Writer compresses to an underlying io.Writer. The input is buffered in
// full and emitted as one frame when Close is called.
type Writer struct {
	OutputOffset int64 // Total number of bytes emitted to the underlying io.Writer

	wr   io.Writer
	cfg  WriterConfig
	buf  []byte
	err  error
	done bool
}

func NewWriter(w io.Writer, cfg *WriterConfig) *Writer {
	zw := new(Writer)
	zw.Reset(w, cfg)
	return zw
}

func (zw *Writer) Reset(w io.Writer, cfg *WriterConfig) {
	*zw = Writer{wr: w, buf: zw.buf[:0]}
	if cfg != nil {
		zw.cfg = *cfg
	}
}

func (zw *Writer) Write(buf []byte) (int, error) {
	if zw.err != nil {
		return 0, zw.err
	}
	if zw.done {
		return 0, io.ErrClosedPipe
	}
	zw.buf = append(zw.buf, buf...)
	return len(buf), nil
}

func (zw *Writer) Close() error {
	if zw.err != nil {
		return zw.err
	}
	if zw.done {
		return nil
	}
	zw.done = true
	frame := Compress(zw.buf, &zw.cfg)
	n, err := zw.wr.Write(frame)
	zw.OutputOffset += int64(n)
	zw.err = err
	return err
}
