// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

import (
	"bytes"
	"testing"

	"github.com/insinfo/netlib/internal/testutil"

	kpzstd "github.com/klauspost/compress/zstd"
)

func testInputs() map[string][]byte {
	rand := testutil.NewRand(0)
	text := bytes.Repeat([]byte("the quick brown fox jumped over the lazy dog. "), 400)
	skewed := make([]byte, 1<<15)
	for i := range skewed {
		skewed[i] = "aaaaaaaaaaaaaaaabcde"[rand.Intn(20)]
	}
	return map[string][]byte{
		"empty":  nil,
		"one":    {0x41},
		"rle":    bytes.Repeat([]byte{0x41}, 5),
		"zeros":  make([]byte, 1<<18),
		"text":   text,
		"skewed": skewed,
		"random": rand.Bytes(1 << 17),
		"mixed":  append(append(rand.Bytes(1000), bytes.Repeat([]byte{7}, 5000)...), text...),
	}
}

func TestRoundTrip(t *testing.T) {
	for name, input := range testInputs() {
		for _, checksum := range []bool{false, true} {
			out := Compress(input, &WriterConfig{Checksum: checksum})
			got, err := Decompress(out)
			if err != nil {
				t.Errorf("%s (checksum=%v): unexpected error: %v", name, checksum, err)
				continue
			}
			if !bytes.Equal(got, input) {
				t.Errorf("%s (checksum=%v): output mismatch", name, checksum)
			}
		}
	}
}

func TestRoundTripConcatenated(t *testing.T) {
	var stream []byte
	var want []byte
	for _, input := range [][]byte{nil, []byte("hello"), bytes.Repeat([]byte{9}, 1000)} {
		stream = append(stream, Compress(input, &WriterConfig{Checksum: true})...)
		want = append(want, input...)
	}
	got, err := Decompress(stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("concatenated output mismatch")
	}
}

// TestCompressEmpty checks the exact encoding of the empty frame: a
// single-segment header with a one-byte content size of zero, followed by
// one empty raw block with the last bit set.
func TestCompressEmpty(t *testing.T) {
	want := []byte{0x28, 0xb5, 0x2f, 0xfd, 0x20, 0x00, 0x01, 0x00, 0x00}
	if got := Compress(nil, nil); !bytes.Equal(got, want) {
		t.Fatalf("Compress(nil):\ngot  %x\nwant %x", got, want)
	}
}

// TestCompressRLE checks that a short run becomes a single RLE block.
func TestCompressRLE(t *testing.T) {
	out := Compress(bytes.Repeat([]byte{'A'}, 5), nil)

	var br byteReader
	br.Init(out)
	parseFrameHeader(&br)
	bh := parseBlockHeader(&br)
	if !bh.lastBlock || bh.blockType != blockRLE || bh.size != 5 {
		t.Fatalf("block header = %+v, want last RLE block of size 5", bh)
	}
	if b := br.ReadByte(); b != 'A' {
		t.Fatalf("RLE byte = %q, want 'A'", b)
	}
	if br.Len() != 0 {
		t.Fatalf("trailing bytes after RLE block")
	}

	got, err := Decompress(out)
	if err != nil || string(got) != "AAAAA" {
		t.Fatalf("Decompress() = (%q, %v), want (\"AAAAA\", nil)", got, err)
	}
}

func TestChecksumCorruption(t *testing.T) {
	input := []byte("checksummed content that spans a couple of words")
	out := Compress(input, &WriterConfig{Checksum: true})

	for i := 1; i <= 4; i++ {
		bad := append([]byte{}, out...)
		bad[len(bad)-i] ^= 0x01
		got, err := Decompress(bad)
		if err != ErrChecksum {
			t.Errorf("trailer byte %d: got error %v, want %v", i, err, ErrChecksum)
		}
		if got != nil {
			t.Errorf("trailer byte %d: corrupted frame produced output", i)
		}
	}
}

func TestErrors(t *testing.T) {
	var vectors = []struct {
		desc  string
		input []byte
		err   error
	}{{
		desc:  "bad magic number",
		input: []byte{0x00, 0x01, 0x02, 0x03, 0x20, 0x00, 0x01, 0x00, 0x00},
		err:   ErrInvalidMagic,
	}, {
		desc:  "skippable frame",
		input: []byte{0x50, 0x2a, 0x4d, 0x18, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		err:   ErrUnsupported,
	}, {
		desc:  "truncated header",
		input: []byte{0x28, 0xb5, 0x2f, 0xfd},
		err:   ErrTruncated,
	}, {
		desc: "reserved descriptor bit",
		// Empty frame with bit 3 of the descriptor set.
		input: []byte{0x28, 0xb5, 0x2f, 0xfd, 0x28, 0x00, 0x01, 0x00, 0x00},
		err:   ErrReservedBit,
	}, {
		desc: "reserved block type",
		// Valid header followed by a block with type 3.
		input: []byte{0x28, 0xb5, 0x2f, 0xfd, 0x20, 0x00, 0x07, 0x00, 0x00},
		err:   ErrReservedBit,
	}, {
		desc: "content size mismatch",
		// Declared content size of 1 with an empty raw block.
		input: []byte{0x28, 0xb5, 0x2f, 0xfd, 0x20, 0x01, 0x01, 0x00, 0x00},
		err:   ErrContentSize,
	}, {
		desc: "dictionary missing",
		// Single-byte dictionary id 7 with no dictionary provided.
		input: []byte{0x28, 0xb5, 0x2f, 0xfd, 0x21, 0x07, 0x00, 0x01, 0x00, 0x00},
		err:   ErrDictionary,
	}}

	for i, v := range vectors {
		out, err := Decompress(v.input)
		if err != v.err {
			t.Errorf("test %d (%s): got error %v, want %v", i, v.desc, err, v.err)
		}
		if out != nil {
			t.Errorf("test %d (%s): error case produced output", i, v.desc)
		}
	}
}

// TestReferenceDecoder checks that frames produced by this encoder decode
// through an independent implementation.
func TestReferenceDecoder(t *testing.T) {
	dec, err := kpzstd.NewReader(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer dec.Close()

	for name, input := range testInputs() {
		for _, checksum := range []bool{false, true} {
			out := Compress(input, &WriterConfig{Checksum: checksum})
			got, err := dec.DecodeAll(out, nil)
			if err != nil {
				t.Errorf("%s (checksum=%v): reference decoder error: %v", name, checksum, err)
				continue
			}
			if !bytes.Equal(got, input) {
				t.Errorf("%s (checksum=%v): reference decoder mismatch", name, checksum)
			}
		}
	}
}

// TestReferenceEncoder checks that frames produced by an independent
// implementation decode through this decoder.
func TestReferenceEncoder(t *testing.T) {
	for _, level := range []kpzstd.EncoderLevel{
		kpzstd.SpeedFastest, kpzstd.SpeedDefault, kpzstd.SpeedBetterCompression,
	} {
		enc, err := kpzstd.NewWriter(nil, kpzstd.WithEncoderLevel(level), kpzstd.WithZeroFrames(true))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for name, input := range testInputs() {
			out := enc.EncodeAll(input, nil)
			got, err := Decompress(out)
			if err != nil {
				t.Errorf("%s (level=%v): unexpected error: %v", name, level, err)
				continue
			}
			if !bytes.Equal(got, input) {
				t.Errorf("%s (level=%v): output mismatch", name, level)
			}
		}
		enc.Close()
	}
}

func TestReaderWriter(t *testing.T) {
	input := testInputs()["text"]
	var buf bytes.Buffer
	zw := NewWriter(&buf, &WriterConfig{Checksum: true})
	if _, err := zw.Write(input); err != nil {
		t.Fatalf("unexpected Write error: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("unexpected Close error: %v", err)
	}

	var out bytes.Buffer
	zr := NewReader(&buf)
	if _, err := out.ReadFrom(zr); err != nil {
		t.Fatalf("unexpected Read error: %v", err)
	}
	if err := zr.Close(); err != nil {
		t.Fatalf("unexpected Close error: %v", err)
	}
	if !bytes.Equal(out.Bytes(), input) {
		t.Fatalf("output mismatch")
	}
}
