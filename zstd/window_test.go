// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

import (
	"bytes"
	"testing"
)

func TestWindowCopyMatch(t *testing.T) {
	var vectors = []struct {
		desc   string
		size   int
		seed   string // Bytes appended before the copy
		offset int
		length int
		output string // Expected total output, empty if the copy must fail
	}{{
		desc: "simple copy",
		size: 16, seed: "abcd", offset: 4, length: 4,
		output: "abcdabcd",
	}, {
		desc: "overlapping copy replays itself",
		size: 16, seed: "ab", offset: 1, length: 6,
		output: "abbbbbbb",
	}, {
		desc: "offset smaller than length",
		size: 16, seed: "abc", offset: 3, length: 7,
		output: "abcabcabca",
	}, {
		desc: "copy across the wrap point",
		size: 4, seed: "abcdef", offset: 3, length: 3,
		output: "abcdefdef",
	}, {
		desc: "zero offset",
		size: 16, seed: "abcd", offset: 0, length: 1,
	}, {
		desc: "offset beyond history",
		size: 16, seed: "abcd", offset: 5, length: 1,
	}, {
		desc: "offset beyond window capacity",
		size: 4, seed: "abcdefgh", offset: 5, length: 1,
	}}

	for i, v := range vectors {
		var w window
		w.Init(v.size, nil)
		w.Append([]byte(v.seed))

		err := func() (err error) {
			defer errRecover(&err)
			w.CopyMatch(v.offset, v.length)
			return nil
		}()
		if v.output == "" {
			if err != ErrBackReference {
				t.Errorf("test %d (%s): got error %v, want %v", i, v.desc, err, ErrBackReference)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d (%s): unexpected error: %v", i, v.desc, err)
			continue
		}
		if string(w.dst) != v.output {
			t.Errorf("test %d (%s): output = %q, want %q", i, v.desc, w.dst, v.output)
		}
	}
}

func TestWindowPrime(t *testing.T) {
	var w window
	w.Init(4, nil)
	w.Prime([]byte("0123456789"))
	if len(w.dst) != 0 {
		t.Fatalf("priming must not emit output")
	}
	if w.Size() != 4 {
		t.Fatalf("Size() = %d, want 4", w.Size())
	}

	// The history must now hold the last four primed bytes.
	w.CopyMatch(4, 4)
	if string(w.dst) != "6789" {
		t.Fatalf("output = %q, want %q", w.dst, "6789")
	}
}

func TestWindowRLE(t *testing.T) {
	var w window
	w.Init(8, nil)
	w.AppendRLE('x', 20)
	if !bytes.Equal(w.dst, bytes.Repeat([]byte{'x'}, 20)) {
		t.Fatalf("RLE output mismatch")
	}
	w.CopyMatch(8, 3)
	if len(w.dst) != 23 {
		t.Fatalf("copy after RLE failed")
	}
}
