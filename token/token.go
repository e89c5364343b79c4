// Package token defines the tagged-variant types a parsed DEFLATE block
// stream is built from: a Token is either a literal byte or a
// back-reference, and a Block is one of the three DEFLATE block shapes.
package token

import "github.com/gztools/rezip/bitio"

// Kind tags which variant a Token holds.
type Kind uint8

const (
	// KindLiteral marks a Token carrying a single output byte.
	KindLiteral Kind = iota
	// KindReference marks a Token carrying a back-reference.
	KindReference
)

// minRun and maxRun bound a back-reference's run length, RFC 1951's
// length-code range.
const (
	minRun = 3
	maxRun = 258
)

// Token is a single decoded DEFLATE code: a literal byte, or a
// back-reference copying Run() bytes from Distance bytes before the
// current output position. Run length is packed into a single byte
// (run-3) the way original_source's Code::Reference does, since every
// legal run fits in [3,258].
type Token struct {
	Kind      Kind
	Literal   byte
	Distance  uint16
	runMinus3 uint8
}

// Lit returns a literal-byte Token.
func Lit(b byte) Token {
	return Token{Kind: KindLiteral, Literal: b}
}

// Ref returns a back-reference Token. run is clamped into [3,258] (the
// only values RFC 1951 can express); callers should never pass a run
// outside that range.
func Ref(distance uint16, run uint16) Token {
	return Token{Kind: KindReference, Distance: distance, runMinus3: PackRun(run)}
}

// PackRun saturates run into the run-3 byte encoding.
func PackRun(run uint16) uint8 {
	if run < minRun {
		run = minRun
	}
	if run > maxRun {
		run = maxRun
	}
	return uint8(run - minRun)
}

// WidenRun is the inverse of PackRun.
func WidenRun(packed uint8) uint16 {
	return uint16(packed) + minRun
}

// Run returns the back-reference's run length. Zero for a literal Token.
func (t Token) Run() uint16 {
	if t.Kind != KindReference {
		return 0
	}
	return WidenRun(t.runMinus3)
}

// EmittedBytes returns how many output bytes this token produces: 1 for
// a literal, Run() for a reference.
func (t Token) EmittedBytes() uint16 {
	if t.Kind == KindLiteral {
		return 1
	}
	return t.Run()
}

// Key is the 3-byte rolling key backref.Index hashes positions by,
// mirroring original_source's Key(u8,u8,u8).
type Key [3]byte

// BlockKind tags which of the three DEFLATE block shapes a Block holds.
type BlockKind uint8

const (
	// BlockStored marks an uncompressed block.
	BlockStored BlockKind = iota
	// BlockFixedHuffman marks a block using the fixed Huffman tables.
	BlockFixedHuffman
	// BlockDynamicHuffman marks a block carrying its own Huffman tables.
	BlockDynamicHuffman
)

// Block is one parsed DEFLATE block.
type Block struct {
	Kind BlockKind

	// Stored holds the raw bytes of a BlockStored block.
	Stored []byte

	// HeaderBits holds the verbatim bits of a BlockDynamicHuffman
	// block's Huffman-table description (HLIT/HDIST/HCLEN fields, the
	// code-length code, and the literal/length and distance code
	// length sequences), preserved exactly as read so the original
	// bitstream can be reconstructed without re-deriving a (possibly
	// different, equally valid) canonical assignment.
	HeaderBits bitio.Bits

	// Tokens holds the block's decoded literal/back-reference stream
	// for BlockFixedHuffman and BlockDynamicHuffman blocks.
	Tokens []Token
}
