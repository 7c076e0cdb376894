// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

import (
	"encoding/binary"
	"math/bits"
)

// The FSE and Huffman payloads of a zstd frame are written forwards with an
// LSB-first bit writer, but are decoded starting from the last bit written.
// A single 1 bit is appended when the stream is closed; locating that
// sentinel in the final byte recovers the exact bit-length of the stream.
//
// reverseBitReader models this as a 64-bit shift register positioned over
// the tail of the buffer. Bits are consumed from the top of the register,
// and reload slides the register towards the front of the buffer.

type reloadStatus int

const (
	reloadUnfinished reloadStatus = iota
	reloadEndOfBuffer
	reloadCompleted
	reloadOverflow
)

type reverseBitReader struct {
	data      []byte
	ptr       int    // Start index of the register window
	container uint64 // Little-endian load of data[ptr:ptr+8]
	consumed  uint   // Bits consumed from the top of the register
	phantom   uint   // Bottom bits of the register that lie before data[0]
}

func (rb *reverseBitReader) Init(data []byte) {
	if len(data) == 0 || data[len(data)-1] == 0 {
		panic(ErrCorrupt) // Sentinel bit is missing
	}
	*rb = reverseBitReader{data: data}
	if len(data) >= 8 {
		rb.ptr = len(data) - 8
		rb.container = binary.LittleEndian.Uint64(data[rb.ptr:])
	} else {
		var buf [8]byte
		copy(buf[:], data)
		rb.container = binary.LittleEndian.Uint64(buf[:]) << (8 * uint(8-len(data)))
		rb.phantom = 8 * uint(8-len(data))
	}
	rb.consumed = 9 - uint(bits.Len8(data[len(data)-1])) // Padding plus sentinel
}

// PeekBits returns the next nb bits without consuming them. It must not be
// called with nb greater than 56.
func (rb *reverseBitReader) PeekBits(nb uint) uint {
	if nb == 0 {
		return 0
	}
	if rb.consumed > 64 {
		return 0 // Register ran dry; Remaining is already negative
	}
	return uint((rb.container << rb.consumed) >> (64 - nb))
}

// ReadBits consumes and returns the next nb bits.
func (rb *reverseBitReader) ReadBits(nb uint) uint {
	v := rb.PeekBits(nb)
	rb.consumed += nb
	return v
}

// Remaining reports the number of unread data bits. A negative value means
// the reader has consumed bits past the start of the stream, which only
// happens on corrupt input or during the controlled drain of FSE states.
func (rb *reverseBitReader) Remaining() int {
	return 8*rb.ptr + 64 - int(rb.phantom) - int(rb.consumed)
}

// Reload slides the register towards the front of the buffer so that
// subsequent peeks have fresh bits to work with.
func (rb *reverseBitReader) Reload() reloadStatus {
	if rb.consumed > 64 {
		return reloadOverflow
	}
	if rb.ptr == 0 {
		switch r := rb.Remaining(); {
		case r > 0:
			return reloadEndOfBuffer
		case r == 0:
			return reloadCompleted
		default:
			return reloadOverflow
		}
	}
	nb := int(rb.consumed >> 3)
	if nb > rb.ptr {
		nb = rb.ptr
	}
	rb.ptr -= nb
	rb.consumed -= 8 * uint(nb)
	rb.container = binary.LittleEndian.Uint64(rb.data[rb.ptr:])
	if rb.ptr == 0 {
		return reloadEndOfBuffer
	}
	return reloadUnfinished
}

// lsbBitReader reads bits in LSB-first order from a byte slice. It is used
// for the forward-coded parts of the format, namely the FSE table
// descriptions.
type lsbBitReader struct {
	data []byte
	pos  uint // Bit position
}

func (lb *lsbBitReader) Init(data []byte) {
	*lb = lsbBitReader{data: data}
}

func (lb *lsbBitReader) ReadBits(nb uint) (v uint) {
	for i := uint(0); i < nb; i++ {
		idx := (lb.pos + i) >> 3
		if idx >= uint(len(lb.data)) {
			panic(ErrTruncated)
		}
		v |= uint((lb.data[idx]>>((lb.pos+i)&7))&1) << i
	}
	lb.pos += nb
	return v
}

// BytesConsumed reports the number of whole or partial bytes read.
func (lb *lsbBitReader) BytesConsumed() int {
	return int((lb.pos + 7) / 8)
}
