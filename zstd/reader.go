// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

import (
	"io"
	"runtime"

	"github.com/cespare/xxhash/v2"
)

// frameDecoder carries the state that survives across the blocks of a
// single frame: the history window, the last-built Huffman table, the
// three sequence tables, and the repeat-offset ring.
type frameDecoder struct {
	fh   frameHeader
	w    window
	huff *huffTable

	ll, of, ml          *fseTable
	llOwn, ofOwn, mlOwn fseTable

	recentOffsets [3]int
}

// Decompress decodes one or more concatenated frames and returns the
// decoded bytes.
func Decompress(src []byte) ([]byte, error) {
	return DecompressDict(src, nil)
}

// DecompressDict is Decompress with a dictionary available for frames
// that request one.
func DecompressDict(src []byte, dict *Dictionary) (dst []byte, err error) {
	// A decoding error never yields partial output.
	defer func() {
		switch ex := recover().(type) {
		case nil:
		case runtime.Error:
			panic(ex)
		case error:
			err = ex
			dst = nil
		default:
			panic(ex)
		}
	}()

	var br byteReader
	br.Init(src)
	for {
		dst = decodeFrame(&br, dst, dict)
		if br.Len() == 0 {
			return dst, nil
		}
	}
}

func decodeFrame(br *byteReader, dst []byte, dict *Dictionary) []byte {
	var d frameDecoder
	d.fh = parseFrameHeader(br)
	d.w.Init(d.fh.windowSize, dst)
	d.recentOffsets = [3]int{1, 4, 8}

	if d.fh.dictID != 0 && (dict == nil || dict.ID != d.fh.dictID) {
		panic(ErrDictionary)
	}
	if dict != nil && (d.fh.dictID == 0 || dict.ID == d.fh.dictID) {
		d.w.Prime(dict.Content)
		if dict.hasEntropy {
			d.huff = dict.huff
			d.ll, d.of, d.ml = &dict.llT, &dict.ofT, &dict.mlT
			d.recentOffsets = dict.offsets
		}
	}

	frameStart := len(dst)
	for {
		bh := parseBlockHeader(br)
		if bh.size > d.fh.blockSizeMax {
			panic(ErrCorrupt)
		}
		blockStart := len(d.w.dst)
		switch bh.blockType {
		case blockRaw:
			d.w.Append(br.ReadBytes(bh.size))
		case blockRLE:
			d.w.AppendRLE(br.ReadByte(), bh.size)
		case blockCompressed:
			var bbr byteReader
			bbr.Init(br.ReadBytes(bh.size))
			lits := d.decodeLiterals(&bbr)
			d.decodeSequences(&bbr, lits)
		}
		if len(d.w.dst)-blockStart > d.fh.blockSizeMax {
			panic(ErrCorrupt)
		}
		if bh.lastBlock {
			break
		}
	}

	dst = d.w.dst
	if d.fh.hasContentSize && uint64(len(dst)-frameStart) != d.fh.contentSize {
		panic(ErrContentSize)
	}
	if d.fh.checksum {
		want := br.ReadUint32()
		if uint32(xxhash.Sum64(dst[frameStart:])) != want {
			panic(ErrChecksum)
		}
	}
	return dst
}

// Reader decompresses a zstd stream from an underlying io.Reader.
//
// The decoder operates on fully materialized frames, so the underlying
// reader is drained on first use. Callers that need incremental input
// should drive Decompress with their own framing.
type Reader struct {
	InputOffset  int64 // Total number of bytes read from the underlying io.Reader
	OutputOffset int64 // Total number of bytes emitted from Read

	rd     io.Reader
	dict   *Dictionary
	toRead []byte
	loaded bool
	err    error
}

func NewReader(r io.Reader) *Reader {
	zr := new(Reader)
	zr.Reset(r)
	return zr
}

// NewReaderDict is NewReader with a dictionary for frames that request one.
func NewReaderDict(r io.Reader, dict *Dictionary) *Reader {
	zr := NewReader(r)
	zr.dict = dict
	return zr
}

func (zr *Reader) Reset(r io.Reader) error {
	*zr = Reader{rd: r, dict: zr.dict}
	return nil
}

func (zr *Reader) Read(buf []byte) (int, error) {
	if zr.err != nil {
		return 0, zr.err
	}
	if !zr.loaded {
		input, err := io.ReadAll(zr.rd)
		if err != nil {
			zr.err = err
			return 0, err
		}
		zr.InputOffset = int64(len(input))
		zr.toRead, err = DecompressDict(input, zr.dict)
		zr.loaded = true
		if err != nil {
			zr.err = err
			return 0, err
		}
	}
	if len(zr.toRead) == 0 {
		zr.err = io.EOF
		return 0, io.EOF
	}
	cnt := copy(buf, zr.toRead)
	zr.toRead = zr.toRead[cnt:]
	zr.OutputOffset += int64(cnt)
	return cnt, nil
}

func (zr *Reader) Close() error {
	if zr.err == io.EOF || zr.err == io.ErrClosedPipe {
		return nil
	}
	err := zr.err
	zr.err = io.ErrClosedPipe
	return err
}
