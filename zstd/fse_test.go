// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

import (
	"testing"

	"github.com/dsnet/golib/bits"
	"github.com/google/go-cmp/cmp"
)

func TestPredefinedTables(t *testing.T) {
	var vectors = []struct {
		name     string
		table    *fseTable
		norm     []int16
		tableLog uint
	}{
		{"LL", &llPredefined, llDefaultNorm, 6},
		{"OF", &ofPredefined, ofDefaultNorm, 5},
		{"ML", &mlPredefined, mlDefaultNorm, 6},
	}

	for _, v := range vectors {
		if v.table.tableLog != v.tableLog {
			t.Errorf("%s: tableLog = %d, want %d", v.name, v.table.tableLog, v.tableLog)
		}
		if len(v.table.entries) != 1<<v.tableLog {
			t.Errorf("%s: table size = %d, want %d", v.name, len(v.table.entries), 1<<v.tableLog)
		}

		// Every symbol occupies exactly as many cells as its normalized
		// count, with -1 counting as a single low-probability cell.
		cells := make(map[uint8]int)
		for _, e := range v.table.entries {
			cells[e.sym]++
		}
		for s, c := range v.norm {
			want := int(c)
			if c == -1 {
				want = 1
			}
			if cells[uint8(s)] != want {
				t.Errorf("%s: symbol %d occupies %d cells, want %d", v.name, s, cells[uint8(s)], want)
			}
		}
	}
}

func TestNCountRoundTrip(t *testing.T) {
	var vectors = []struct {
		norm     []int16
		tableLog uint
	}{
		{llDefaultNorm, 6},
		{mlDefaultNorm, 6},
		{ofDefaultNorm, 5},
		{[]int16{32, 32}, 6},
		{[]int16{1, 1, 1, 1, 60}, 6},
		{[]int16{-1, -1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 62}, 6},
		{[]int16{16, 16}, 5},
	}

	for i, v := range vectors {
		var bw bits.Buffer
		writeNCount(&bw, v.norm, v.tableLog)

		norm, tableLog, n := readNCount(bw.Bytes(), 255, v.tableLog)
		if tableLog != v.tableLog {
			t.Errorf("test %d: tableLog = %d, want %d", i, tableLog, v.tableLog)
		}
		if n != len(bw.Bytes()) {
			t.Errorf("test %d: consumed %d bytes, want %d", i, n, len(bw.Bytes()))
		}
		if diff := cmp.Diff(v.norm, norm); diff != "" {
			t.Errorf("test %d: counts mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestFSERoundTrip(t *testing.T) {
	// Inputs use the Huffman-weight alphabet, the only one this package
	// compresses with FSE.
	var vectors = [][]byte{
		{0, 1, 0, 1, 0, 1, 1, 1, 0, 0, 0, 1, 0, 1, 1, 0},
		{4, 4, 4, 4, 4, 3, 3, 3, 2, 2, 1, 0, 0, 0, 4, 4, 4, 5, 5, 6, 1, 2, 3, 4},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2},
	}

	for i, input := range vectors {
		out := encodeWeightsFSE(input)
		if out == nil {
			t.Errorf("test %d: sequence did not compress", i)
			continue
		}
		got := func() (w []uint8) {
			defer func() { recover() }()
			return decodeWeightsFSE(out[1:])
		}()
		if diff := cmp.Diff(input, []byte(got)); diff != "" {
			t.Errorf("test %d: round trip mismatch (-want +got):\n%s", i, diff)
		}
	}
}
