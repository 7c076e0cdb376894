// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package netlib bundles the compression primitives of this repository
// behind a small buffer-in, buffer-out surface. The zstd and brotli
// packages expose the full codec APIs; callers layer streaming or file
// I/O on top of these helpers.
package netlib

import (
	"bytes"

	"github.com/insinfo/netlib/brotli"
	"github.com/insinfo/netlib/zstd"
)

// ZstdCompress encodes buf as a single zstd frame without a checksum.
func ZstdCompress(buf []byte) []byte {
	return zstd.Compress(buf, nil)
}

// ZstdCompressChecksum encodes buf as a single zstd frame whose trailer
// carries the xxHash64 content checksum.
func ZstdCompressChecksum(buf []byte) []byte {
	return zstd.Compress(buf, &zstd.WriterConfig{Checksum: true})
}

// ZstdDecompress decodes one or more concatenated zstd frames.
func ZstdDecompress(buf []byte) ([]byte, error) {
	return zstd.Decompress(buf)
}

// ZstdDecompressDict decodes zstd frames with a dictionary available for
// frames that request one.
func ZstdDecompressDict(buf []byte, dict *zstd.Dictionary) ([]byte, error) {
	return zstd.DecompressDict(buf, dict)
}

// BrotliCompressLiteral encodes buf as a literal-mode Brotli stream.
func BrotliCompressLiteral(buf []byte) []byte {
	var out bytes.Buffer
	zw, err := brotli.NewWriter(&out, nil)
	if err == nil {
		_, err = zw.Write(buf)
	}
	if err == nil {
		err = zw.Close()
	}
	if err != nil {
		// The writer only fails on the underlying io.Writer, and a
		// bytes.Buffer never does.
		panic(err)
	}
	return out.Bytes()
}

// BrotliDecompress decodes a Brotli stream.
func BrotliDecompress(buf []byte) ([]byte, error) {
	var out bytes.Buffer
	zr := brotli.NewReader(bytes.NewReader(buf))
	if _, err := out.ReadFrom(zr); err != nil {
		return nil, err
	}
	if err := zr.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
