// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package brotli

import (
	"bytes"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/insinfo/netlib/internal/testutil"
)

func TestReader(t *testing.T) {
	var vectors = []struct {
		desc   string // Description of the test
		input  []byte // Test input
		output string // Expected output string in hex
		err    error  // Expected error
	}{{
		desc:  "empty string",
		input: nil,
		err:   io.ErrUnexpectedEOF,
	}, {
		desc:   "empty last block (padding is zero)",
		input:  testutil.MustDecodeHex("06"),
		output: "",
	}, {
		desc:  "empty last block (padding is non-zero)",
		input: testutil.MustDecodeHex("16"),
		err:   ErrCorrupt,
	}, {
		desc: "uncompressed meta-block",
		input: testutil.MustDecodeBitGen(`<<<
			< 0        # WBITS = 16
			< 0 00     # ISLAST = 0, MNIBBLES = 4
			< D16:3    # MLEN - 1
			< 1 000    # ISUNCOMPRESSED = 1, padding
			X:61626364 # Raw data
			< 1 1 0*6  # ISLAST = 1, ISLASTEMPTY = 1, padding
		`),
		output: "61626364",
	}, {
		desc: "metadata meta-block",
		input: testutil.MustDecodeBitGen(`<<<
			< 0            # WBITS = 16
			< 0 11 0       # ISLAST = 0, MNIBBLES = 7, reserved
			< 01 D8:4 0    # MSKIPBYTES = 1, MSKIPLEN - 1 = 4, padding
			X:aabbccddee   # Skipped bytes
			< 1 1 0*6      # ISLAST = 1, ISLASTEMPTY = 1, padding
		`),
		output: "",
	}, {
		desc: "metadata with reserved bit set",
		input: testutil.MustDecodeBitGen(`<<<
			< 0 0 11 1 0*3
		`),
		err: ErrCorrupt,
	}, {
		// A compressed meta-block with one command: insert "ab", then
		// copy 4098 bytes at distance 2. The copy overlaps its own
		// output and, against the 2032-byte window of WBITS 11, forces
		// the ring buffer to grow to the full window and wrap twice.
		desc: "compressed meta-block with a wrapping overlapped copy",
		input: testutil.MustDecodeBitGen(`<<<
			< 1 000 D3:3            # WBITS = 11
			< 0 00 D16:4099 0       # ISLAST = 0, MNIBBLES = 4, MLEN - 1, ISUNCOMPRESSED = 0
			< 0 0 0                 # NBLTYPESL = NBLTYPESI = NBLTYPESD = 1
			< 00 0000               # NPOSTFIX = 0, NDIRECT = 0
			< 00                    # Literal context mode 0
			< 0 0                   # NTREESL = 1, NTREESD = 1
			< D2:1 D2:1 D8:97 D8:98 # Literal tree: simple, symbols 'a' and 'b'
			< D2:1 D2:0 D10:407     # Command tree: one symbol, insert 2, copy 4098
			< D2:1 D2:0 D6:6        # Distance tree: one symbol, last distance minus two
			< D24:1980              # Copy-length extra bits: 4098 = 2118 + 1980
			< 0 1                   # Literals 'a' and 'b'
			< 1 1                   # ISLAST = 1, ISLASTEMPTY = 1
		`),
		output: strings.Repeat("6162", 2050),
	}}

	for i, v := range vectors {
		data, err := io.ReadAll(NewReader(bytes.NewReader(v.input)))
		output := hex.EncodeToString(data)

		if err != v.err {
			t.Errorf("test %d (%q): got %v, want %v", i, v.desc, err, v.err)
		}
		if output != v.output {
			t.Errorf("test %d (%q):\ngot  %v\nwant %v", i, v.desc, output, v.output)
		}
	}
}

// TestReaderWindowSizes checks the stream-header window codes.
func TestReaderWindowSizes(t *testing.T) {
	for wbits := uint(10); wbits <= 24; wbits++ {
		var bw bytesWriterBits
		c := encWinBits.Lookup(wbits)
		bw.WriteBits(uint(c.val), uint(c.len))
		bw.WriteBits(1, 1) // ISLAST
		bw.WriteBits(1, 1) // ISLASTEMPTY
		bw.Align()

		br := NewReader(bytes.NewReader(bw.Bytes()))
		if _, err := io.ReadAll(br); err != nil {
			t.Errorf("wbits %d: unexpected error: %v", wbits, err)
			continue
		}
		if want := 1<<wbits - 16; br.wsize != want {
			t.Errorf("wbits %d: wsize = %d, want %d", wbits, br.wsize, want)
		}
	}
}

// bytesWriterBits is a minimal LSB-first bit writer for crafting test
// streams without depending on the encoder.
type bytesWriterBits struct {
	buf []byte
	n   uint
}

func (bw *bytesWriterBits) WriteBits(v, nb uint) {
	for i := uint(0); i < nb; i++ {
		if bw.n%8 == 0 {
			bw.buf = append(bw.buf, 0)
		}
		if v&(1<<i) != 0 {
			bw.buf[len(bw.buf)-1] |= 1 << (bw.n % 8)
		}
		bw.n++
	}
}

func (bw *bytesWriterBits) Align() {
	bw.n = (bw.n + 7) &^ 7
}

func (bw *bytesWriterBits) Bytes() []byte {
	return bw.buf
}
