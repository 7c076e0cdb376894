// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package brotli

import (
	"bytes"
	"testing"

	"github.com/dsnet/golib/bits"

	"github.com/insinfo/netlib/internal/prefix"
	"github.com/insinfo/netlib/internal/testutil"
)

// TestFixedCodecs checks that the fixed prefix codecs decode their own
// encoder tables.
func TestFixedCodecs(t *testing.T) {
	var vectors = []struct {
		codes prefixCodes
		dec   *prefixDecoder
		enc   *prefixEncoder
	}{
		{codeCLens, &decCLens, &encCLens},
		{codeMaxRLE, &decMaxRLE, &encMaxRLE},
		{codeCounts, &decCounts, &encCounts},
	}

	for i, v := range vectors {
		for _, c := range v.codes {
			if c.sym == 0 && c.len == 0 {
				continue
			}
			ec := v.enc.Lookup(uint(c.sym))
			var bw bytesWriterBits
			bw.WriteBits(uint(ec.val), uint(ec.len))
			bw.WriteBits(0, 15) // Slack so the reader can feed freely

			var rd bitReader
			rd.Init(bytes.NewReader(bw.Bytes()))
			if sym := rd.ReadSymbol(v.dec); sym != uint(c.sym) {
				t.Errorf("test %d: decoded symbol %d, want %d", i, sym, c.sym)
			}
		}
	}
}

// TestComplexTreeRoundTrip serializes dynamically built prefix codes with
// the writer's complex-tree emitter and reads them back with the decoder.
func TestComplexTreeRoundTrip(t *testing.T) {
	rand := testutil.NewRand(0)
	for trial := 0; trial < 50; trial++ {
		numSyms := 5 + rand.Intn(200)
		var codes prefix.PrefixCodes
		sym := 0
		for i := 0; i < numSyms; i++ {
			sym += 1 + rand.Intn(3) // Leave holes in the alphabet
			codes = append(codes, prefix.PrefixCode{Sym: uint32(sym), Cnt: uint32(1 + rand.Intn(1000))})
		}
		alphabet := uint(sym + 1)
		if alphabet > numLitSyms {
			alphabet = numLitSyms
			trimmed := codes[:0]
			for _, c := range codes {
				if c.Sym < numLitSyms {
					trimmed = append(trimmed, c)
				}
			}
			codes = trimmed
			if len(codes) < 5 {
				continue
			}
		}
		if err := prefix.GenerateLengths(codes, maxPrefixBits); err != nil {
			t.Fatalf("trial %d: unexpected error: %v", trial, err)
		}
		if err := prefix.GeneratePrefixes(codes); err != nil {
			t.Fatalf("trial %d: unexpected error: %v", trial, err)
		}

		var bw bits.Buffer
		writeComplexTree(&bw, codes, alphabet) // Emits the HSKIP field itself

		var br Reader
		br.rd.Init(bytes.NewReader(append(bw.Bytes(), 0, 0)))
		var pd prefixDecoder
		err := func() (err error) {
			defer errRecover(&err)
			br.readPrefixCode(&pd, alphabet)
			return nil
		}()
		if err != nil {
			t.Fatalf("trial %d: unexpected decode error: %v", trial, err)
		}

		// Feeding each symbol's code bits must decode that symbol.
		for _, c := range codes {
			var sw bytesWriterBits
			sw.WriteBits(uint(c.Val), uint(c.Len))
			sw.WriteBits(0, 16)
			var rd bitReader
			rd.Init(bytes.NewReader(sw.Bytes()))
			if sym := rd.ReadSymbol(&pd); sym != uint(c.Sym) {
				t.Fatalf("trial %d: symbol %d decoded as %d", trial, c.Sym, sym)
			}
		}
	}
}
