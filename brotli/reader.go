// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package brotli

import "io"

// Reader is a single-threaded decoder state machine. Each call to step
// advances the machine by one unit of work; when the output window fills,
// the pending region is handed to Read through toRead and the current
// step is re-entered after the caller drains it.
type Reader struct {
	InputOffset  int64 // Total number of bytes read from underlying io.Reader
	OutputOffset int64 // Total number of bytes emitted from Read

	rd     bitReader   // Input source
	step   func()      // Single step of decompression work (can panic)
	dict   dictDecoder // Sliding window output
	toRead []byte      // Uncompressed data ready to be emitted from Read
	last   bool        // Last block bit detected
	err    error       // Persistent error

	// Stream state.
	wsize    int    // Sliding window size
	dictData []byte // Static dictionary installed by SetDictionary
	produced int64  // Total bytes written to the window
	p1, p2   byte   // Last two bytes written, for context modeling
	distRing [4]int // Most recent distances, most recent first

	// Meta-block state.
	blkLen    int           // Uncompressed bytes left in the meta-block
	blocks    [3]blockSplit // Literal, insert&copy, and distance splits
	npostfix  uint
	ndirect   uint
	cmodes    []uint8
	cmapL     []uint8
	cmapD     []uint8
	litTrees  []prefixDecoder
	cmdTrees  []prefixDecoder
	distTrees []prefixDecoder

	// Command state.
	insRem   int // Literals left to insert for the current command
	cpyRem   int // Copy bytes left for the current command
	matchLen int // Original copy length of the current command
	implicit bool
	distVal  int
	word     []byte // Pending transformed dictionary word
	wordArr  [maxWordSize]byte
}

// blockSplit tracks the block-switching state of one category.
type blockSplit struct {
	numTypes int
	typeTree prefixDecoder
	lenTree  prefixDecoder
	cur      int // Current block type
	prev     int // Second-to-last block type
	length   int // Bytes or commands left in the current block
}

func NewReader(r io.Reader) *Reader {
	br := new(Reader)
	br.Reset(r)
	return br
}

func (br *Reader) Read(buf []byte) (int, error) {
	for {
		if len(br.toRead) > 0 {
			cnt := copy(buf, br.toRead)
			br.toRead = br.toRead[cnt:]
			br.OutputOffset += int64(cnt)
			return cnt, nil
		}
		if br.err != nil {
			return 0, br.err
		}

		// Perform next step in decompression process.
		func() {
			defer errRecover(&br.err)
			br.step()
		}()
		br.InputOffset = br.rd.offset
	}
}

func (br *Reader) Close() error {
	if br.err == io.EOF || br.err == io.ErrClosedPipe {
		return nil
	}
	err := br.err
	br.err = io.ErrClosedPipe
	return err
}

func (br *Reader) Reset(r io.Reader) error {
	*br = Reader{
		step:     br.readStreamHeader,
		dict:     br.dict,
		dictData: br.dictData,
	}
	br.rd.Init(r)
	return nil
}

// SetDictionary installs the static dictionary blob referenced by streams
// that use dictionary words. The blob must follow the word layout of RFC
// appendix A.
func (br *Reader) SetDictionary(dict []byte) error {
	if dict != nil && len(dict) < dictDataSize() {
		return Error("brotli: dictionary is too short")
	}
	br.dictData = dict
	return nil
}

// readStreamHeader reads the Brotli stream header according to RFC
// section 9.1.
func (br *Reader) readStreamHeader() {
	var wbits uint
	if val := br.rd.ReadBits(1); val != 1 { // Code is "0"
		wbits = 16
		goto done
	}
	if val := br.rd.ReadBits(3); val != 0 { // Code is "1xxx"
		wbits = 18 + uint(val-1)
		goto done
	}
	if val := br.rd.ReadBits(3); val != 1 { // Code is "1000xxx"
		if val == 0 {
			wbits = 17
			goto done
		}
		wbits = 10 + uint(val-2)
		goto done
	}
	panic(ErrCorrupt) // Code is "1000100", which is invalid

done:
	br.wsize = 1<<wbits - 16
	br.dict.Init(br.wsize)
	br.distRing = [4]int{4, 11, 15, 16}
	br.step = br.readBlockHeader
}

// readBlockHeader reads a meta-block header according to RFC section 9.2.
func (br *Reader) readBlockHeader() {
	if br.last {
		if br.dict.wrPos > br.dict.rdPos {
			br.toRead = br.dict.ReadFlush()
			return
		}
		if br.rd.ReadPads() > 0 {
			panic(ErrCorrupt)
		}
		br.err = io.EOF
		return
	}

	// Read ISLAST and ISLASTEMPTY.
	if br.last = br.rd.ReadBits(1) == 1; br.last {
		if empty := br.rd.ReadBits(1) == 1; empty {
			br.step = br.readBlockHeader // Next call will terminate stream
			return
		}
	}

	// Read MLEN and MNIBBLES and process meta data.
	var blkLen int // Valid values are [1..1<<24]
	if nibbles := br.rd.ReadBits(2) + 4; nibbles == 7 {
		if reserved := br.rd.ReadBits(1) == 1; reserved {
			panic(ErrCorrupt)
		}

		var skipLen int // Valid values are [0..1<<24]
		if skipBytes := br.rd.ReadBits(2); skipBytes > 0 {
			skipLen = int(br.rd.ReadBits(skipBytes * 8))
			if skipBytes > 1 && skipLen>>((skipBytes-1)*8) == 0 {
				panic(ErrCorrupt) // Shortest representation not used
			}
			skipLen++
		}

		if br.rd.ReadPads() > 0 {
			panic(ErrCorrupt)
		}
		br.blkLen = skipLen
		br.step = br.readMetadata
		return
	} else {
		blkLen = int(br.rd.ReadBits(nibbles * 4))
		if nibbles > 4 && blkLen>>((nibbles-1)*4) == 0 {
			panic(ErrCorrupt) // Shortest representation not used
		}
		blkLen++
	}
	br.blkLen = blkLen

	// Read ISUNCOMPRESSED and process uncompressed data.
	if !br.last {
		if uncompressed := br.rd.ReadBits(1) == 1; uncompressed {
			if br.rd.ReadPads() > 0 {
				panic(ErrCorrupt)
			}
			br.step = br.readRawData
			return
		}
	}

	br.readPrefixCodes()
}

// readMetadata skips over the meta data of a meta-block.
func (br *Reader) readMetadata() {
	var buf [512]byte
	for br.blkLen > 0 {
		n := br.blkLen
		if n > len(buf) {
			n = len(buf)
		}
		if _, err := io.ReadFull(&br.rd, buf[:n]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			panic(err)
		}
		br.blkLen -= n
	}
	br.step = br.readBlockHeader
}

// readRawData copies an uncompressed meta-block into the window according
// to RFC section 9.2.
func (br *Reader) readRawData() {
	for br.blkLen > 0 {
		avail := br.dict.AvailWrite()
		if avail == 0 {
			br.toRead = br.dict.ReadFlush()
			return // Re-enters readRawData after the flush drains
		}
		n := br.blkLen
		if n > avail {
			n = avail
		}
		buf := br.dict.WriteSlice()[:n]
		if _, err := io.ReadFull(&br.rd, buf); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			panic(err)
		}
		br.dict.WriteMark(n)
		br.produced += int64(n)
		br.blkLen -= n
		br.p1, br.p2 = br.dict.LastBytes()
	}
	br.step = br.readBlockHeader
}

// readPrefixCodes reads the meta-block coding tables according to RFC
// section 9.2: the block splits for the three categories, the distance
// parameters, the context modes and maps, and the three tree groups.
func (br *Reader) readPrefixCodes() {
	for i := range br.blocks {
		bs := &br.blocks[i]
		bs.numTypes = int(br.rd.ReadSymbol(&decCounts))
		bs.cur, bs.prev = 0, 1
		bs.length = 1 << 28
		if bs.numTypes >= 2 {
			br.readPrefixCode(&bs.typeTree, uint(bs.numTypes)+2)
			br.readPrefixCode(&bs.lenTree, numBlkCntSyms)
			sym := br.rd.ReadSymbol(&bs.lenTree)
			bs.length = int(br.rd.ReadOffset(sym, blkLenRanges))
		}
	}

	br.npostfix = br.rd.ReadBits(2)
	br.ndirect = br.rd.ReadBits(4) << br.npostfix
	numDistSyms := 16 + br.ndirect + 48<<br.npostfix

	br.cmodes = allocUint8s(br.cmodes, br.blocks[0].numTypes)
	for i := range br.cmodes {
		br.cmodes[i] = uint8(br.rd.ReadBits(2))
	}

	numTreesL := int(br.rd.ReadSymbol(&decCounts))
	br.cmapL = br.readContextMap(numTreesL, numLitContexts*br.blocks[0].numTypes, br.cmapL)
	numTreesD := int(br.rd.ReadSymbol(&decCounts))
	br.cmapD = br.readContextMap(numTreesD, numDistContexts*br.blocks[2].numTypes, br.cmapD)

	br.litTrees = extendDecoders(br.litTrees, numTreesL)
	for i := range br.litTrees {
		br.readPrefixCode(&br.litTrees[i], numLitSyms)
	}
	br.cmdTrees = extendDecoders(br.cmdTrees, br.blocks[1].numTypes)
	for i := range br.cmdTrees {
		br.readPrefixCode(&br.cmdTrees[i], numInsSyms)
	}
	br.distTrees = extendDecoders(br.distTrees, numTreesD)
	for i := range br.distTrees {
		br.readPrefixCode(&br.distTrees[i], numDistSyms)
	}

	br.step = br.readCommands
}

// Insert-and-copy command cells from RFC section 5. Each cell of 64
// commands combines one insert-length range with one copy-length range;
// the first two cells implicitly reuse the last distance.
var cmdCells = [11]struct {
	ins, cpy uint
	implicit bool
}{
	{0, 0, true}, {0, 1, true},
	{0, 0, false}, {0, 1, false},
	{1, 0, false}, {1, 1, false},
	{0, 2, false}, {2, 0, false},
	{1, 2, false}, {2, 1, false},
	{2, 2, false},
}

// readCommands is the main command loop of a compressed meta-block.
func (br *Reader) readCommands() {
	if br.blkLen < 0 {
		panic(ErrCorrupt) // Copy ran past the meta-block length
	}
	if br.blkLen == 0 {
		br.step = br.readBlockHeader
		return
	}

	bs := &br.blocks[1]
	if bs.length == 0 {
		br.readBlockSwitch(bs)
	}
	bs.length--

	cmd := br.rd.ReadSymbol(&br.cmdTrees[bs.cur])
	cell := cmdCells[cmd>>6]
	insSym := cell.ins<<3 | cmd>>3&7
	cpySym := cell.cpy<<3 | cmd&7
	br.insRem = int(br.rd.ReadOffset(insSym, insLenRanges))
	br.cpyRem = int(br.rd.ReadOffset(cpySym, cpyLenRanges))
	br.matchLen = br.cpyRem
	br.implicit = cell.implicit
	br.step = br.insertLiterals
}

// insertLiterals writes the insert-length literals of the current command
// into the window, switching literal block types as their counts expire.
func (br *Reader) insertLiterals() {
	for br.insRem > 0 {
		if br.dict.AvailWrite() == 0 {
			br.toRead = br.dict.ReadFlush()
			return // Re-enters insertLiterals after the flush drains
		}
		if br.blkLen <= 0 {
			panic(ErrCorrupt)
		}
		bs := &br.blocks[0]
		if bs.length == 0 {
			br.readBlockSwitch(bs)
		}
		bs.length--

		cid := contextID(br.cmodes[bs.cur], br.p1, br.p2)
		tree := &br.litTrees[br.cmapL[uint(numLitContexts*bs.cur)+cid]]
		b := byte(br.rd.ReadSymbol(tree))
		br.dict.WriteByte(b)
		br.p2, br.p1 = br.p1, b
		br.produced++
		br.blkLen--
		br.insRem--
	}

	if br.blkLen == 0 {
		// The meta-block ends exactly at the inserts; the copy length of
		// the final command is ignored.
		br.step = br.readBlockHeader
		return
	}
	br.step = br.readDistance
}

// readDistance resolves the distance of the current command, either
// implicitly from the ring buffer or from the distance tree, and routes
// to the in-window copy or the dictionary path.
func (br *Reader) readDistance() {
	if br.implicit {
		br.distVal = br.distRing[0]
	} else {
		bs := &br.blocks[2]
		if bs.length == 0 {
			br.readBlockSwitch(bs)
		}
		bs.length--

		cid := distContextID(br.matchLen)
		tree := &br.distTrees[br.cmapD[uint(numDistContexts*bs.cur)+cid]]
		sym := br.rd.ReadSymbol(tree)
		br.distVal = br.resolveDistance(sym)
	}
	if br.distVal <= 0 {
		panic(ErrCorrupt)
	}

	maxDist := br.wsize
	if br.produced < int64(maxDist) {
		maxDist = int(br.produced)
	}
	if br.distVal > maxDist {
		wordID := br.distVal - maxDist - 1
		cnt := lookupDictWord(br.dictData, br.wordArr[:], br.matchLen, wordID)
		br.word = br.wordArr[:cnt]
		br.step = br.writeWord
		return
	}
	br.step = br.copyData
}

// Short distance codes 0-15, from RFC section 4: a ring entry, or a ring
// entry plus a small delta.
var (
	shortDistIndex = [16]int{0, 1, 2, 3, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}
	shortDistDelta = [16]int{0, 0, 0, 0, -1, 1, -2, 2, -3, 3, -1, 1, -2, 2, -3, 3}
)

// resolveDistance converts a distance symbol into a backward distance,
// updating the ring of recent distances. Distance code zero reuses the
// last distance without updating the ring.
func (br *Reader) resolveDistance(sym uint) int {
	var dist int
	switch {
	case sym < 16:
		dist = br.distRing[shortDistIndex[sym]] + shortDistDelta[sym]
		if sym == 0 {
			return dist
		}
	case sym < 16+br.ndirect:
		dist = int(sym-16) + 1
	default:
		lcode := sym - 16 - br.ndirect
		postfix := lcode & (1<<br.npostfix - 1)
		hcode := lcode >> br.npostfix & 1
		ndistbits := 1 + lcode>>(br.npostfix+1)
		extra := br.rd.ReadBits(ndistbits)
		dist = int((2+hcode)<<ndistbits+extra-4)<<br.npostfix + int(postfix+br.ndirect) + 1
	}
	if dist <= 0 {
		panic(ErrCorrupt)
	}

	// Distances beyond the available history name dictionary words and
	// are not pushed onto the ring.
	maxDist := br.wsize
	if br.produced < int64(maxDist) {
		maxDist = int(br.produced)
	}
	if dist <= maxDist {
		br.distRing[3] = br.distRing[2]
		br.distRing[2] = br.distRing[1]
		br.distRing[1] = br.distRing[0]
		br.distRing[0] = dist
	}
	return dist
}

// copyData copies the match bytes of the current command from the window
// history.
func (br *Reader) copyData() {
	for br.cpyRem > 0 {
		if br.dict.AvailWrite() == 0 {
			br.toRead = br.dict.ReadFlush()
			return // Re-enters copyData after the flush drains
		}
		if br.blkLen <= 0 {
			panic(ErrCorrupt)
		}
		if br.distVal > br.dict.HistSize() {
			panic(ErrCorrupt)
		}
		n := br.cpyRem
		if n > br.blkLen {
			n = br.blkLen
		}
		n = br.dict.WriteCopy(br.distVal, n)
		br.produced += int64(n)
		br.blkLen -= n
		br.cpyRem -= n
		br.p1, br.p2 = br.dict.LastBytes()
	}
	br.step = br.readCommands
}

// writeWord emits a transformed dictionary word.
func (br *Reader) writeWord() {
	for len(br.word) > 0 {
		if br.dict.AvailWrite() == 0 {
			br.toRead = br.dict.ReadFlush()
			return // Re-enters writeWord after the flush drains
		}
		if br.blkLen <= 0 {
			panic(ErrCorrupt)
		}
		br.dict.WriteByte(br.word[0])
		br.p2, br.p1 = br.p1, br.word[0]
		br.word = br.word[1:]
		br.produced++
		br.blkLen--
	}
	br.step = br.readCommands
}

// readBlockSwitch reads a block-switch command: the new block type and
// the length of the new block.
func (br *Reader) readBlockSwitch(bs *blockSplit) {
	if bs.numTypes < 2 {
		panic(ErrCorrupt) // A lone block type never expires
	}
	sym := br.rd.ReadSymbol(&bs.typeTree)
	var newType int
	switch sym {
	case 0:
		newType = bs.prev
	case 1:
		newType = (bs.cur + 1) % bs.numTypes
	default:
		newType = int(sym - 2)
	}
	bs.prev, bs.cur = bs.cur, newType

	lenSym := br.rd.ReadSymbol(&bs.lenTree)
	bs.length = int(br.rd.ReadOffset(lenSym, blkLenRanges))
}

// allocUint8s returns a slice with length n, reusing s if possible.
func allocUint8s(s []uint8, n int) []uint8 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]uint8, n)
}

// extendDecoders returns a decoder slice with length n, reusing s so that
// the decoders keep their internal tables across meta-blocks.
func extendDecoders(s []prefixDecoder, n int) []prefixDecoder {
	if cap(s) >= n {
		return s[:n]
	}
	return append(s[:cap(s)], make([]prefixDecoder, n-cap(s))...)
}
