// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

// Dictionary is a parsed zstd dictionary. A formatted dictionary carries
// an identifier, prebuilt entropy tables, and the initial repeat offsets;
// any other blob of bytes acts as a raw-content dictionary that only
// primes the history window.
type Dictionary struct {
	ID      uint32
	Content []byte

	huff          *huffTable
	llT, ofT, mlT fseTable
	offsets       [3]int
	hasEntropy    bool
}

// NewDictionary parses data as a dictionary. Data that does not open with
// the dictionary magic number becomes a raw-content dictionary with ID 0.
func NewDictionary(data []byte) (d *Dictionary, err error) {
	defer errRecover(&err)

	d = &Dictionary{offsets: [3]int{1, 4, 8}}
	if len(data) < 8 ||
		uint32(data[0])|uint32(data[1])<<8|uint32(data[2])<<16|uint32(data[3])<<24 != dictMagic {
		d.Content = data
		return d, nil
	}

	var br byteReader
	br.Init(data)
	br.Skip(4)
	d.ID = br.ReadUint32()

	d.huff = readHuffTable(&br)

	// The FSE tables appear in offset, match length, literal length order.
	norm, tableLog, n := readNCount(br.Rest(), numOFCodes-1, maxOFTableLog)
	br.Skip(n)
	d.ofT.Init(norm, tableLog, ofCodes[:])
	norm, tableLog, n = readNCount(br.Rest(), numMLCodes-1, maxMLTableLog)
	br.Skip(n)
	d.mlT.Init(norm, tableLog, mlCodes[:])
	norm, tableLog, n = readNCount(br.Rest(), numLLCodes-1, maxLLTableLog)
	br.Skip(n)
	d.llT.Init(norm, tableLog, llCodes[:])

	for i := range d.offsets {
		d.offsets[i] = int(br.ReadUint32())
	}
	d.Content = br.Rest()
	for _, off := range d.offsets {
		if off <= 0 || off > len(d.Content) {
			return nil, ErrDictionary
		}
	}
	d.hasEntropy = true
	return d, nil
}
