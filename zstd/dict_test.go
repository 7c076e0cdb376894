// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

import (
	"bytes"
	"testing"

	"github.com/dsnet/golib/bits"
)

// buildTestDictionary assembles a formatted dictionary with the given id,
// the predefined sequence distributions as its entropy tables, and the
// given initial repeat offsets.
func buildTestDictionary(id uint32, offsets [3]uint32, content []byte) []byte {
	var out []byte
	put32 := func(v uint32) {
		out = append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	put32(dictMagic)
	put32(id)

	he := buildHuffEncoder(bytes.Repeat([]byte("abcdefgh aabb"), 40))
	out = append(out, he.desc...)

	var bw bits.Buffer
	writeNCount(&bw, ofDefaultNorm, 5)
	out = append(out, bw.Bytes()...)
	bw.Reset()
	writeNCount(&bw, mlDefaultNorm, 6)
	out = append(out, bw.Bytes()...)
	bw.Reset()
	writeNCount(&bw, llDefaultNorm, 6)
	out = append(out, bw.Bytes()...)

	for _, off := range offsets {
		put32(off)
	}
	return append(out, content...)
}

func TestNewDictionary(t *testing.T) {
	content := []byte("some shared dictionary history for priming windows")
	data := buildTestDictionary(0x1234, [3]uint32{7, 11, 13}, content)

	d, err := NewDictionary(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID != 0x1234 {
		t.Errorf("ID = %#x, want 0x1234", d.ID)
	}
	if !bytes.Equal(d.Content, content) {
		t.Errorf("content mismatch")
	}
	if !d.hasEntropy {
		t.Errorf("entropy tables were not parsed")
	}
	if d.offsets != [3]int{7, 11, 13} {
		t.Errorf("offsets = %v, want [7 11 13]", d.offsets)
	}
	if d.huff == nil || len(d.ofT.entries) != 32 || len(d.mlT.entries) != 64 || len(d.llT.entries) != 64 {
		t.Errorf("entropy tables have unexpected shapes")
	}
}

func TestNewDictionaryRawContent(t *testing.T) {
	content := []byte("no magic number here")
	d, err := NewDictionary(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID != 0 || d.hasEntropy || !bytes.Equal(d.Content, content) {
		t.Errorf("raw-content dictionary parsed incorrectly: %+v", d)
	}
}

func TestNewDictionaryBadOffsets(t *testing.T) {
	data := buildTestDictionary(1, [3]uint32{0, 4, 8}, []byte("0123456789"))
	if _, err := NewDictionary(data); err != ErrDictionary {
		t.Fatalf("got error %v, want %v", err, ErrDictionary)
	}
}

func TestDecompressDictRouting(t *testing.T) {
	content := []byte("0123456789")
	dict, err := NewDictionary(buildTestDictionary(0x77, [3]uint32{1, 4, 8}, content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// An empty single-block frame naming dictionary id 0x77.
	frame := []byte{0x28, 0xb5, 0x2f, 0xfd, 0x21, 0x77, 0x00, 0x01, 0x00, 0x00}

	if _, err := DecompressDict(frame, nil); err != ErrDictionary {
		t.Errorf("no dictionary: got error %v, want %v", err, ErrDictionary)
	}
	wrong := &Dictionary{ID: 0x78}
	if _, err := DecompressDict(frame, wrong); err != ErrDictionary {
		t.Errorf("wrong dictionary: got error %v, want %v", err, ErrDictionary)
	}
	out, err := DecompressDict(frame, dict)
	if err != nil || len(out) != 0 {
		t.Errorf("matching dictionary: got (%v, %v), want empty success", out, err)
	}
}
