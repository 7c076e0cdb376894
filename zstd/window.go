// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zstd

// window is the sliding history buffer that match offsets resolve against.
// It owns the decoded output: every store also appends to dst, except for
// dictionary priming, which seeds history without emitting anything.
//
// The ring storage grows lazily up to its capacity so that small frames
// do not pay for a large declared window.
type window struct {
	buf []byte // Ring storage, len(buf) grows up to cap
	pos int    // Next write index within buf
	cap int    // Declared window size
	dst []byte // Accumulated output
}

func (w *window) Init(size int, dst []byte) {
	w.cap = size
	w.pos = 0
	w.dst = dst
	if w.buf == nil {
		w.buf = make([]byte, 0, 1024)
	}
	w.buf = w.buf[:0]
}

// Size reports the number of history bytes currently available.
func (w *window) Size() int {
	return len(w.buf)
}

func (w *window) storeByte(b byte) {
	if len(w.buf) < w.cap {
		w.buf = append(w.buf, b)
		if w.pos = len(w.buf); w.pos == w.cap {
			w.pos = 0
		}
		return
	}
	w.buf[w.pos] = b
	if w.pos++; w.pos == w.cap {
		w.pos = 0
	}
}

// Append emits buf to the output and records it as history.
func (w *window) Append(buf []byte) {
	w.dst = append(w.dst, buf...)
	if w.cap == 0 {
		return
	}
	for _, b := range buf {
		w.storeByte(b)
	}
}

// AppendRLE emits b repeated n times.
func (w *window) AppendRLE(b byte, n int) {
	for i := 0; i < n; i++ {
		w.dst = append(w.dst, b)
		if w.cap > 0 {
			w.storeByte(b)
		}
	}
}

// CopyMatch emits length bytes from offset bytes behind the write head.
// Each byte is read, emitted, and stored before the next read, so an
// offset smaller than the length replays the bytes it just produced.
// That ordering is what makes offset 1 a run-length fill.
func (w *window) CopyMatch(offset, length int) {
	if offset <= 0 || offset > w.Size() || w.cap == 0 {
		panic(ErrBackReference)
	}
	rpos := w.pos - offset
	if rpos < 0 {
		rpos += w.cap
	}
	for i := 0; i < length; i++ {
		b := w.buf[rpos]
		w.dst = append(w.dst, b)
		w.storeByte(b)
		if rpos++; rpos == w.cap {
			rpos = 0
		}
	}
}

// Prime seeds the history with the tail of hist without emitting output.
func (w *window) Prime(hist []byte) {
	if len(hist) > w.cap {
		hist = hist[len(hist)-w.cap:]
	}
	for _, b := range hist {
		w.storeByte(b)
	}
}
