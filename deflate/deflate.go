// Package deflate parses an RFC 1951 DEFLATE bit stream into a sequence
// of token.Block values: stored blocks keep their raw bytes, fixed and
// dynamic Huffman blocks are decoded into token.Token sequences, and a
// dynamic block's Huffman-table description is kept verbatim so it can
// be re-emitted bit-for-bit.
package deflate

import (
	"github.com/gztools/rezip/bitio"
	"github.com/gztools/rezip/capnslog"
	"github.com/gztools/rezip/huffman"
	"github.com/gztools/rezip/token"
)

var plog = capnslog.NewPackageLogger("github.com/gztools/rezip", "deflate")

// ReservedBlockType reports a block-type field of 3, the reserved value
// RFC 1951 forbids.
type ReservedBlockType struct{}

func (e *ReservedBlockType) Error() string { return "deflate: reserved block type" }

// InvalidSymbol reports a decoded length or distance symbol outside its
// legal range.
type InvalidSymbol struct {
	Symbol int
}

func (e *InvalidSymbol) Error() string { return "deflate: invalid symbol" }

// InvalidDistance reports a back-reference distance of 0, one that
// exceeds the 32 KiB window, or one that reaches before the start of
// the logical stream (more bytes back than have been emitted so far).
type InvalidDistance struct {
	Distance int
}

func (e *InvalidDistance) Error() string { return "deflate: invalid distance" }

// StoredLengthMismatch reports a stored block whose NLEN field isn't the
// one's complement of LEN.
type StoredLengthMismatch struct{}

func (e *StoredLengthMismatch) Error() string { return "deflate: stored block LEN/NLEN mismatch" }

// RFC 1951 §3.2.5 length code base values and extra-bit counts, for
// symbols 257..285.
var lengthBase = [29]int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
var lengthExtra = [29]int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}

// RFC 1951 §3.2.5 distance code base values and extra-bit counts, for
// symbols 0..29. Not given explicitly in spec.md §4.4 ("decode a
// distance symbol... and add extra bits analogously") so taken directly
// from RFC 1951.
var distBase = [30]int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}
var distExtra = [30]int{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}

// codeOrder is the order HCLEN code-length codes are transmitted in.
var codeOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// FixedLiteralLengths returns the fixed Huffman literal/length code
// lengths RFC 1951 §3.2.6 defines.
func FixedLiteralLengths() []int {
	lens := make([]int, 288)
	for i := 0; i < 144; i++ {
		lens[i] = 8
	}
	for i := 144; i < 256; i++ {
		lens[i] = 9
	}
	for i := 256; i < 280; i++ {
		lens[i] = 7
	}
	for i := 280; i < 288; i++ {
		lens[i] = 8
	}
	return lens
}

// FixedDistanceLengths returns the fixed Huffman distance code lengths.
func FixedDistanceLengths() []int {
	lens := make([]int, 32)
	for i := range lens {
		lens[i] = 5
	}
	return lens
}

var fixedLitTree, fixedDistTree = mustFixedTrees()

func mustFixedTrees() (*huffman.Tree, *huffman.Tree) {
	lit, err := huffman.New(FixedLiteralLengths())
	if err != nil {
		panic(err)
	}
	dist, err := huffman.New(FixedDistanceLengths())
	if err != nil {
		panic(err)
	}
	return lit, dist
}

// Parse consumes r to the end of the final block, returning every block
// in order.
func Parse(r *bitio.Reader) ([]token.Block, error) {
	var blocks []token.Block
	outputLen := 0
	for {
		finalBit, err := r.ReadBit()
		if err != nil {
			return nil, err
		}
		typ, err := r.ReadBits(2)
		if err != nil {
			return nil, err
		}

		var block token.Block
		switch typ {
		case 0:
			block, err = parseStored(r, &outputLen)
		case 1:
			block, err = parseFixed(r, &outputLen)
		case 2:
			block, err = parseDynamic(r, &outputLen)
		case 3:
			return nil, &ReservedBlockType{}
		}
		if err != nil {
			return nil, err
		}
		plog.Debugf("parsed block type=%d final=%d tokens=%d", typ, finalBit, len(block.Tokens))
		blocks = append(blocks, block)
		if finalBit == 1 {
			break
		}
	}
	return blocks, nil
}

func parseStored(r *bitio.Reader, outputLen *int) (token.Block, error) {
	r.Align()
	lenLo, err := r.ReadByte()
	if err != nil {
		return token.Block{}, err
	}
	lenHi, err := r.ReadByte()
	if err != nil {
		return token.Block{}, err
	}
	nlenLo, err := r.ReadByte()
	if err != nil {
		return token.Block{}, err
	}
	nlenHi, err := r.ReadByte()
	if err != nil {
		return token.Block{}, err
	}
	length := int(lenLo) | int(lenHi)<<8
	nlen := int(nlenLo) | int(nlenHi)<<8
	if nlen != (^length & 0xFFFF) {
		return token.Block{}, &StoredLengthMismatch{}
	}
	data := make([]byte, length)
	for i := range data {
		b, err := r.ReadByte()
		if err != nil {
			return token.Block{}, err
		}
		data[i] = b
	}
	*outputLen += length
	return token.Block{Kind: token.BlockStored, Stored: data}, nil
}

func parseFixed(r *bitio.Reader, outputLen *int) (token.Block, error) {
	toks, err := decodeTokens(r, fixedLitTree, fixedDistTree, outputLen)
	if err != nil {
		return token.Block{}, err
	}
	return token.Block{Kind: token.BlockFixedHuffman, Tokens: toks}, nil
}

func parseDynamic(r *bitio.Reader, outputLen *int) (token.Block, error) {
	r.StartRecording()
	litLengths, distLengths, err := ParseCodeLengths(r)
	if err != nil {
		return token.Block{}, err
	}
	headerBits := r.StopRecording()

	litTree, err := huffman.New(litLengths)
	if err != nil {
		return token.Block{}, err
	}
	distTree, err := huffman.New(distLengths)
	if err != nil {
		return token.Block{}, err
	}

	toks, err := decodeTokens(r, litTree, distTree, outputLen)
	if err != nil {
		return token.Block{}, err
	}
	return token.Block{Kind: token.BlockDynamicHuffman, HeaderBits: headerBits, Tokens: toks}, nil
}

// ParseCodeLengths reads a dynamic block's HLIT/HDIST/HCLEN fields and
// the code-length-coded literal/length and distance length sequences,
// returning the two length vectors ready for huffman.New. Exported so
// serialise can re-derive the same tables from a block's verbatim
// HeaderBits before re-emitting its tokens.
func ParseCodeLengths(r *bitio.Reader) (litLengths, distLengths []int, err error) {
	hlit, err := r.ReadBits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist, err := r.ReadBits(5)
	if err != nil {
		return nil, nil, err
	}
	hclen, err := r.ReadBits(4)
	if err != nil {
		return nil, nil, err
	}

	nLit := int(hlit) + 257
	nDist := int(hdist) + 1
	nCLen := int(hclen) + 4

	var clLengths [19]int
	for i := 0; i < nCLen; i++ {
		v, err := r.ReadBits(3)
		if err != nil {
			return nil, nil, err
		}
		clLengths[codeOrder[i]] = int(v)
	}
	clTree, err := huffman.New(clLengths[:])
	if err != nil {
		return nil, nil, err
	}

	all := make([]int, nLit+nDist)
	for i := 0; i < len(all); {
		sym, err := clTree.Decode(r)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case sym < 16:
			all[i] = sym
			i++
		case sym == 16:
			if i == 0 {
				return nil, nil, &InvalidSymbol{Symbol: sym}
			}
			n, err := r.ReadBits(2)
			if err != nil {
				return nil, nil, err
			}
			prev := all[i-1]
			for c := 0; c < int(n)+3 && i < len(all); c++ {
				all[i] = prev
				i++
			}
		case sym == 17:
			n, err := r.ReadBits(3)
			if err != nil {
				return nil, nil, err
			}
			for c := 0; c < int(n)+3 && i < len(all); c++ {
				all[i] = 0
				i++
			}
		case sym == 18:
			n, err := r.ReadBits(7)
			if err != nil {
				return nil, nil, err
			}
			for c := 0; c < int(n)+11 && i < len(all); c++ {
				all[i] = 0
				i++
			}
		default:
			return nil, nil, &InvalidSymbol{Symbol: sym}
		}
	}

	return all[:nLit], all[nLit:], nil
}

// LengthSymbol returns the length-code symbol (257..285), extra-bits
// value, and extra-bit count for a back-reference run, the inverse
// lookup of the lengthBase/lengthExtra tables decodeTokens uses.
func LengthSymbol(run uint16) (sym int, extra uint32, extraBits int) {
	for i := len(lengthBase) - 1; i >= 0; i-- {
		if int(run) >= lengthBase[i] {
			return 257 + i, uint32(int(run) - lengthBase[i]), lengthExtra[i]
		}
	}
	return 257, 0, 0
}

// DistanceSymbol returns the distance-code symbol (0..29), extra-bits
// value, and extra-bit count for a back-reference distance.
func DistanceSymbol(dist uint16) (sym int, extra uint32, extraBits int) {
	for i := len(distBase) - 1; i >= 0; i-- {
		if int(dist) >= distBase[i] {
			return i, uint32(int(dist) - distBase[i]), distExtra[i]
		}
	}
	return 0, 0, 0
}

func decodeTokens(r *bitio.Reader, litTree, distTree *huffman.Tree, outputLen *int) ([]token.Token, error) {
	var toks []token.Token
	for {
		sym, err := litTree.Decode(r)
		if err != nil {
			return nil, err
		}
		if sym < 256 {
			toks = append(toks, token.Lit(byte(sym)))
			*outputLen++
			continue
		}
		if sym == 256 {
			return toks, nil
		}
		if sym > 285 {
			return nil, &InvalidSymbol{Symbol: sym}
		}

		li := sym - 257
		length := lengthBase[li]
		if lengthExtra[li] > 0 {
			extra, err := r.ReadBits(uint(lengthExtra[li]))
			if err != nil {
				return nil, err
			}
			length += int(extra)
		}

		dsym, err := distTree.Decode(r)
		if err != nil {
			return nil, err
		}
		if dsym > 29 {
			return nil, &InvalidSymbol{Symbol: dsym}
		}
		dist := distBase[dsym]
		if distExtra[dsym] > 0 {
			extra, err := r.ReadBits(uint(distExtra[dsym]))
			if err != nil {
				return nil, err
			}
			dist += int(extra)
		}

		if dist < 1 || dist > 32*1024 || dist > *outputLen {
			return nil, &InvalidDistance{Distance: dist}
		}

		toks = append(toks, token.Ref(uint16(dist), uint16(length)))
		*outputLen += length
	}
}
