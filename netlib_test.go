// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package netlib

import (
	"bytes"
	"testing"
)

func TestZstdRoundTrip(t *testing.T) {
	for _, input := range [][]byte{
		nil,
		[]byte("A"),
		bytes.Repeat([]byte("A"), 5),
		bytes.Repeat([]byte("the five boxing wizards jump quickly. "), 1000),
	} {
		for _, compress := range []func([]byte) []byte{ZstdCompress, ZstdCompressChecksum} {
			out, err := ZstdDecompress(compress(input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(out, input) {
				t.Fatalf("round trip mismatch for %d byte input", len(input))
			}
		}
	}
}

func TestBrotliLiteralRoundTrip(t *testing.T) {
	input := []byte("abcabcabcabc")
	out, err := BrotliDecompress(BrotliCompressLiteral(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Fatalf("round trip mismatch: got %q, want %q", out, input)
	}
}
