// Package huffman builds canonical Huffman code tables from a vector of
// per-symbol code lengths and decodes/encodes against them by walking an
// explicit binary tree one bit at a time, rather than the table/link
// tricks a streaming decompressor uses to avoid that per-bit cost.
package huffman

import (
	"github.com/gztools/rezip/bitio"
)

const maxCodeLength = 15

// InvalidCodeTable reports a code-length vector that cannot form a valid
// canonical Huffman code: a length greater than 15, an over-subscribed
// set of lengths (too many codes claimed for the space available), or an
// incomplete set of lengths (codewords left unclaimed) other than the
// accepted lone single-symbol-at-length-1 case (see New, and DESIGN.md
// for why that case is accepted here).
type InvalidCodeTable struct {
	Reason string
}

func (e *InvalidCodeTable) Error() string {
	return "huffman: invalid code table: " + e.Reason
}

// InvalidSymbol reports that a tree-walk ran off the tree (a path with
// no child for the bit just read), which can only happen against a
// corrupt or truncated bit stream.
type InvalidSymbol struct{}

func (e *InvalidSymbol) Error() string { return "huffman: invalid symbol" }

type node struct {
	left, right *node
	symbol      int
	leaf        bool
}

// Tree is a canonical Huffman code, represented as an explicit binary
// tree for bit-by-bit decoding.
type Tree struct {
	root    *node
	nSymbol int
}

// canonicalCodes assigns the standard RFC 1951 canonical code values to
// a length vector (zero means "symbol unused") and reports the active
// symbol count and the sorted codeword for each active symbol. Shared by
// New (tree construction) and NewEncoder (code lookup table).
func canonicalCodes(lengths []int) (codes []uint32, active int, err error) {
	var blCount [maxCodeLength + 1]int
	maxLen := 0
	for _, l := range lengths {
		if l < 0 || l > maxCodeLength {
			return nil, 0, &InvalidCodeTable{Reason: "code length exceeds 15"}
		}
		if l > 0 {
			blCount[l]++
			active++
			if l > maxLen {
				maxLen = l
			}
		}
	}

	if active == 0 {
		return make([]uint32, len(lengths)), 0, nil
	}

	if active == 1 && maxLen == 1 {
		// The lone single-symbol-length-1 case: accepted for strict
		// DEFLATE compatibility (see DESIGN.md Open Question resolution).
		codes = make([]uint32, len(lengths))
		return codes, 1, nil
	}

	left := 1
	for l := 1; l <= maxLen; l++ {
		left <<= 1
		left -= blCount[l]
		if left < 0 {
			return nil, 0, &InvalidCodeTable{Reason: "over-subscribed code lengths"}
		}
	}
	if left > 0 {
		return nil, 0, &InvalidCodeTable{Reason: "incomplete code lengths"}
	}

	var nextCode [maxCodeLength + 2]int
	code := 0
	for l := 1; l <= maxLen; l++ {
		code = (code + blCount[l-1]) << 1
		nextCode[l] = code
	}

	codes = make([]uint32, len(lengths))
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		codes[sym] = uint32(nextCode[l])
		nextCode[l]++
	}
	return codes, active, nil
}

// New builds a canonical Huffman tree from a per-symbol length vector
// (index = symbol, value = code length in bits; 0 means the symbol is
// unused).
func New(lengths []int) (*Tree, error) {
	codes, active, err := canonicalCodes(lengths)
	if err != nil {
		return nil, err
	}

	root := &node{}
	if active == 0 {
		return &Tree{root: root, nSymbol: 0}, nil
	}
	if active == 1 {
		for sym, l := range lengths {
			if l == 1 {
				leaf := &node{leaf: true, symbol: sym}
				root.left = leaf
				root.right = leaf
				break
			}
		}
		return &Tree{root: root, nSymbol: 1}, nil
	}

	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		insert(root, sym, codes[sym], l)
	}
	return &Tree{root: root, nSymbol: active}, nil
}

func insert(root *node, symbol int, code uint32, length int) {
	n := root
	for i := length - 1; i >= 0; i-- {
		bit := (code >> uint(i)) & 1
		var next **node
		if bit == 0 {
			next = &n.left
		} else {
			next = &n.right
		}
		if *next == nil {
			*next = &node{}
		}
		n = *next
	}
	n.leaf = true
	n.symbol = symbol
}

// Decode walks the tree one bit at a time, returning the decoded symbol.
func (t *Tree) Decode(r *bitio.Reader) (int, error) {
	n := t.root
	if n == nil || (n.left == nil && n.right == nil) {
		return 0, &InvalidSymbol{}
	}
	for {
		if n.leaf {
			return n.symbol, nil
		}
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 0 {
			n = n.left
		} else {
			n = n.right
		}
		if n == nil {
			return 0, &InvalidSymbol{}
		}
	}
}

// Encoder looks up the canonical code and bit length for a symbol, the
// inverse of Tree.Decode, used to re-emit a token stream through
// serialise.
type Encoder struct {
	codes []uint32
	lens  []int
}

// NewEncoder builds an Encoder from the same length vector New would use
// to build a Tree, guaranteeing the two agree on every code.
func NewEncoder(lengths []int) (*Encoder, error) {
	codes, _, err := canonicalCodes(lengths)
	if err != nil {
		return nil, err
	}
	lens := make([]int, len(lengths))
	copy(lens, lengths)
	return &Encoder{codes: codes, lens: lens}, nil
}

// Code returns the codeword and bit length for sym, or ok=false if sym
// is unused in this table.
func (e *Encoder) Code(sym int) (code uint32, length int, ok bool) {
	if sym < 0 || sym >= len(e.lens) || e.lens[sym] == 0 {
		return 0, 0, false
	}
	return e.codes[sym], e.lens[sym], true
}

// Write encodes sym and writes its code to w.
func (e *Encoder) Write(w *bitio.Writer, sym int) error {
	code, length, ok := e.Code(sym)
	if !ok {
		return &InvalidSymbol{}
	}
	return w.WriteCode(code, length)
}
