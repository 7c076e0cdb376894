// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build !no_ds_lib
// +build !no_ds_lib

package bench

import (
	"io"

	"github.com/insinfo/netlib/brotli"
	"github.com/insinfo/netlib/zstd"
)

func init() {
	RegisterEncoder(FormatBrotli, "ds",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := brotli.NewWriter(w, nil)
			if err != nil {
				panic(err)
			}
			return zw
		})
	RegisterDecoder(FormatBrotli, "ds",
		func(r io.Reader) io.ReadCloser {
			return brotli.NewReader(r)
		})
	RegisterEncoder(FormatZstd, "ds",
		func(w io.Writer, lvl int) io.WriteCloser {
			return zstd.NewWriter(w, nil)
		})
	RegisterDecoder(FormatZstd, "ds",
		func(r io.Reader) io.ReadCloser {
			return zstd.NewReader(r)
		})
}
