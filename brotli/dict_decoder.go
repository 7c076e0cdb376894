// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package brotli

// dictDecoder is the ring-buffer output window. Decoded bytes accumulate
// in hist until the buffer fills; the reader then flushes the pending
// region to the caller and the write position wraps. Back-references
// always resolve against the bytes still held in hist.
//
// The buffer starts small and grows on demand up to the declared window
// size, so short streams that claim a large window do not force a large
// allocation.
type dictDecoder struct {
	hist  []byte // Sliding window storage, grown lazily up to size
	size  int    // Declared sliding window size
	wrPos int    // Current write position
	rdPos int    // Position up to which the output was flushed
	full  bool   // The window has wrapped at least once
}

func (dd *dictDecoder) Init(size int) {
	*dd = dictDecoder{hist: dd.hist, size: size}
	if cap(dd.hist) < 1024 {
		dd.hist = make([]byte, 0, 1024)
	}
	dd.hist = dd.hist[:cap(dd.hist)]
	if len(dd.hist) > size {
		dd.hist = dd.hist[:size]
	}
}

// HistSize reports the number of bytes of history available for copies.
func (dd *dictDecoder) HistSize() int {
	if dd.full {
		return len(dd.hist)
	}
	return dd.wrPos
}

// AvailWrite reports the space left before a flush is needed, growing the
// buffer towards the window size when possible.
func (dd *dictDecoder) AvailWrite() int {
	if dd.wrPos == len(dd.hist) && len(dd.hist) < dd.size && !dd.full {
		want := 2 * len(dd.hist)
		if want < 1024 {
			want = 1024
		}
		if want > dd.size {
			want = dd.size
		}
		dd.hist = append(dd.hist, make([]byte, want-len(dd.hist))...)
	}
	return len(dd.hist) - dd.wrPos
}

// WriteByte writes a single byte. There must be space available.
func (dd *dictDecoder) WriteByte(b byte) {
	dd.hist[dd.wrPos] = b
	dd.wrPos++
}

// WriteSlice returns the writable region of the window. The caller fills
// some prefix of it and reports the count via WriteMark.
func (dd *dictDecoder) WriteSlice() []byte {
	return dd.hist[dd.wrPos:]
}

// WriteMark advances the write position by n bytes filled via WriteSlice.
func (dd *dictDecoder) WriteMark(n int) {
	dd.wrPos += n
}

// WriteCopy copies up to length bytes from dist bytes back in the history,
// one byte at a time so that overlapping copies replay their own output.
// It returns the number of bytes written, bounded by the available space.
func (dd *dictDecoder) WriteCopy(dist, length int) int {
	n := len(dd.hist) - dd.wrPos
	if n > length {
		n = length
	}
	rd := dd.wrPos - dist
	if rd < 0 {
		rd += len(dd.hist)
	}
	for i := 0; i < n; i++ {
		dd.hist[dd.wrPos] = dd.hist[rd]
		dd.wrPos++
		if rd++; rd == len(dd.hist) {
			rd = 0
		}
	}
	return n
}

// LastBytes returns the last and second-to-last bytes written.
func (dd *dictDecoder) LastBytes() (p1, p2 byte) {
	switch {
	case dd.wrPos >= 2:
		return dd.hist[dd.wrPos-1], dd.hist[dd.wrPos-2]
	case dd.wrPos == 1:
		p1 = dd.hist[0]
		if dd.full {
			p2 = dd.hist[len(dd.hist)-1]
		}
		return p1, p2
	case dd.full:
		return dd.hist[len(dd.hist)-1], dd.hist[len(dd.hist)-2]
	default:
		return 0, 0
	}
}

// ReadFlush returns the region written since the previous flush and wraps
// the write position when the window is exhausted.
func (dd *dictDecoder) ReadFlush() []byte {
	out := dd.hist[dd.rdPos:dd.wrPos]
	dd.rdPos = dd.wrPos
	if dd.wrPos == len(dd.hist) && len(dd.hist) == dd.size {
		dd.wrPos, dd.rdPos = 0, 0
		dd.full = true
	}
	return out
}
