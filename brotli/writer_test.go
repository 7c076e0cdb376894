// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package brotli

import (
	"bytes"
	"io"
	"testing"

	"github.com/insinfo/netlib/internal/testutil"
)

func roundTrip(t *testing.T, name string, input []byte, cfg *WriterConfig) {
	t.Helper()
	var enc bytes.Buffer
	zw, err := NewWriter(&enc, cfg)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	if _, err := zw.Write(input); err != nil {
		t.Fatalf("%s: unexpected Write error: %v", name, err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("%s: unexpected Close error: %v", name, err)
	}

	output, err := io.ReadAll(NewReader(bytes.NewReader(enc.Bytes())))
	if err != nil {
		t.Fatalf("%s: unexpected decode error: %v", name, err)
	}
	if !bytes.Equal(output, input) {
		t.Errorf("%s: round trip mismatch", name)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	rand := testutil.NewRand(0)
	var vectors = map[string][]byte{
		"empty":      nil,
		"single":     {0x00},
		"repeats":    []byte("abcabcabcabc"),
		"onesymbol":  bytes.Repeat([]byte{'x'}, 1000),
		"twosymbol":  bytes.Repeat([]byte{'x', 'y'}, 500),
		"threesym":   bytes.Repeat([]byte{'x', 'y', 'x', 'z'}, 250),
		"foursym":    bytes.Repeat([]byte{'w', 'x', 'y', 'z'}, 250),
		"fourskewed": bytes.Repeat([]byte{'w', 'w', 'w', 'w', 'w', 'w', 'x', 'y', 'z'}, 111),
		"text":       bytes.Repeat([]byte("the quick brown fox jumped over the lazy dog. "), 300),
		"random":     rand.Bytes(1 << 16),
		"binary":     rand.Bytes(255),
	}
	for name, input := range vectors {
		roundTrip(t, name, input, nil)
	}
}

func TestWriterWindowBits(t *testing.T) {
	input := []byte("window configuration does not change the literal stream")
	for wbits := uint(10); wbits <= 24; wbits++ {
		roundTrip(t, "wbits", input, &WriterConfig{WindowBits: wbits})
	}
	if _, err := NewWriter(io.Discard, &WriterConfig{WindowBits: 25}); err == nil {
		t.Errorf("invalid window bits unexpectedly accepted")
	}
}

// TestWriterMultiBlock drives an input across the meta-block size cap so
// that the stream carries more than one meta-block.
func TestWriterMultiBlock(t *testing.T) {
	if testing.Short() {
		t.Skip("large input test")
	}
	rand := testutil.NewRand(0)
	input := rand.Bytes(maxMetaBlockSize + 4096)
	roundTrip(t, "multiblock", input, nil)
}

// TestWriterLargeInsert checks the insert codes that carry wide extra-bit
// fields.
func TestWriterLargeInsert(t *testing.T) {
	rand := testutil.NewRand(1)
	for _, n := range []int{1, 5, 21, 22, 129, 2113, 6209, 22594, 1 << 20} {
		roundTrip(t, "insert", rand.Bytes(n), nil)
	}
}

func TestEncodeDistance(t *testing.T) {
	var vectors = []struct {
		ring  [4]int
		dist  int
		sym   uint
		extra uint
		ebits uint
		ok    bool
	}{
		{[4]int{4, 11, 15, 16}, 4, 0, 0, 0, true},
		{[4]int{4, 11, 15, 16}, 15, 2, 0, 0, true},
		{[4]int{4, 11, 15, 16}, 3, 4, 0, 0, true},   // last - 1
		{[4]int{4, 11, 15, 16}, 7, 9, 0, 0, true},   // last + 3
		{[4]int{4, 11, 15, 16}, 12, 11, 0, 0, true}, // second + 1
		{[4]int{100, 101, 102, 103}, 5, 18, 0, 2, true},
		{[4]int{100, 101, 102, 103}, 8, 18, 3, 2, true},
		{[4]int{100, 101, 102, 103}, 9, 19, 0, 2, true},
		{[4]int{100, 101, 102, 103}, 2, 16, 1, 1, true},
	}

	for i, v := range vectors {
		ring := v.ring
		sym, extra, ebits, ok := encodeDistance(&ring, v.dist)
		if ok != v.ok {
			t.Errorf("test %d: ok = %v, want %v", i, ok, v.ok)
			continue
		}
		if !ok {
			continue
		}
		if sym != v.sym || extra != v.extra || ebits != v.ebits {
			t.Errorf("test %d: got (%d, %d, %d), want (%d, %d, %d)",
				i, sym, extra, ebits, v.sym, v.extra, v.ebits)
		}

		// The decoder's short-code table must agree on ring-based codes.
		if sym < 16 {
			want := v.ring[shortDistIndex[sym]] + shortDistDelta[sym]
			if want != v.dist {
				t.Errorf("test %d: decoder resolves code %d to %d, want %d", i, sym, want, v.dist)
			}
		}
	}
}
