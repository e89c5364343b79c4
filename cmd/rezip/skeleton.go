package main

import (
	"encoding/gob"
	"os"

	"github.com/gztools/rezip/bitio"
	"github.com/gztools/rezip/gzipframe"
	"github.com/gztools/rezip/token"
)

// blockMeta is everything about one original DEFLATE block that the
// decompressed bytes and hint vector alone don't carry: its kind, how
// many decompressed bytes it contributed (so a reconstructed token
// stream can be re-chunked back into blocks), and, for a dynamic block,
// its verbatim Huffman-table header bits.
type blockMeta struct {
	Kind       token.BlockKind
	Length     int
	HeaderBits bitio.Bits
}

// skeleton is "the gzip file sans payload": everything needed to
// re-assemble a byte-identical gzip member once the decompressed bytes
// and hint vector have reconstructed the token stream.
type skeleton struct {
	Header gzipframe.Header
	CRC32  uint32
	ISIZE  uint32
	Digest [32]byte
	Blocks []blockMeta
}

func writeSkeleton(path string, s skeleton) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(s)
}

func readSkeleton(path string) (skeleton, error) {
	f, err := os.Open(path)
	if err != nil {
		return skeleton{}, err
	}
	defer f.Close()
	var s skeleton
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return skeleton{}, err
	}
	return s, nil
}
