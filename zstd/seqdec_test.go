// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

import (
	"testing"

	"github.com/insinfo/netlib/internal/testutil"
)

func TestResolveOffset(t *testing.T) {
	var vectors = []struct {
		desc  string
		ring  [3]int
		ofVal int // Raw offset value: baseline plus extra bits
		ll    int // Literal length of the sequence
		dist  int
		want  [3]int // Ring contents afterwards
	}{{
		desc: "real offset pushes the ring",
		ring: [3]int{1, 4, 8}, ofVal: 13, ll: 5,
		dist: 10, want: [3]int{10, 1, 4},
	}, {
		desc: "repeat code 1 reuses the head",
		ring: [3]int{7, 11, 13}, ofVal: 1, ll: 5,
		dist: 7, want: [3]int{7, 11, 13},
	}, {
		desc: "repeat code 1 with empty literals swaps the first two",
		ring: [3]int{7, 11, 13}, ofVal: 1, ll: 0,
		dist: 11, want: [3]int{11, 7, 13},
	}, {
		desc: "repeat code 2 rotates",
		ring: [3]int{7, 11, 13}, ofVal: 2, ll: 5,
		dist: 11, want: [3]int{11, 7, 13},
	}, {
		desc: "repeat code 3 rotates fully",
		ring: [3]int{7, 11, 13}, ofVal: 3, ll: 5,
		dist: 13, want: [3]int{13, 7, 11},
	}, {
		desc: "shifted final slot takes head minus one",
		ring: [3]int{7, 11, 13}, ofVal: 3, ll: 0,
		dist: 6, want: [3]int{6, 7, 11},
	}, {
		desc: "head minus one clamps to one",
		ring: [3]int{1, 11, 13}, ofVal: 3, ll: 0,
		dist: 1, want: [3]int{1, 1, 11},
	}}

	for i, v := range vectors {
		d := &frameDecoder{recentOffsets: v.ring}
		dist := d.resolveOffset(v.ofVal, v.ll)
		if dist != v.dist {
			t.Errorf("test %d (%s): dist = %d, want %d", i, v.desc, dist, v.dist)
		}
		if d.recentOffsets != v.want {
			t.Errorf("test %d (%s): ring = %v, want %v", i, v.desc, d.recentOffsets, v.want)
		}
	}
}

// TestRepeatOffsetsPositive checks that no sequence of offset updates can
// drive a ring slot to zero or below.
func TestRepeatOffsetsPositive(t *testing.T) {
	rand := testutil.NewRand(0)
	d := &frameDecoder{recentOffsets: [3]int{1, 4, 8}}
	for i := 0; i < 10000; i++ {
		var ofVal int
		if rand.Intn(2) == 0 {
			ofVal = 1 + rand.Intn(3)
		} else {
			ofVal = 4 + rand.Intn(100)
		}
		d.resolveOffset(ofVal, rand.Intn(3))
		for _, off := range d.recentOffsets {
			if off <= 0 {
				t.Fatalf("step %d: ring %v contains a non-positive offset", i, d.recentOffsets)
			}
		}
	}
}

func TestSequencesHeader(t *testing.T) {
	var vectors = []struct {
		input []byte
		nbSeq int
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x00}, 0},
		{[]byte{0x81, 0x01}, 257},
		{[]byte{0xfe, 0xff}, 0x7eff},
		{[]byte{0xff, 0x00, 0x00}, 0x7f00},
		{[]byte{0xff, 0x34, 0x12}, 0x7f00 + 0x1234},
	}

	for i, v := range vectors {
		var br byteReader
		br.Init(v.input)
		var nbSeq int
		switch b0 := br.ReadByte(); {
		case b0 < 128:
			nbSeq = int(b0)
		case b0 < 255:
			nbSeq = (int(b0)-128)<<8 | int(br.ReadByte())
		default:
			nbSeq = int(br.ReadUint16()) + 0x7f00
		}
		if nbSeq != v.nbSeq {
			t.Errorf("test %d: nbSeq = %d, want %d", i, nbSeq, v.nbSeq)
		}
	}
}
