// Package serialise is the round-trip test oracle: it decodes a token
// stream back into bytes for cross-checking against the original
// decompressed payload, and re-emits a block sequence into a bitstream
// for byte-exact comparison against the original DEFLATE stream.
package serialise

import (
	"bytes"

	"github.com/gztools/rezip/bitio"
	"github.com/gztools/rezip/deflate"
	"github.com/gztools/rezip/huffman"
	"github.com/gztools/rezip/token"
	"github.com/gztools/rezip/window"
)

// Decode reconstructs the decompressed bytes a block sequence produces,
// given the preroll bytes available before the first block (usually
// none, for a single self-contained gzip member).
func Decode(preroll []byte, blocks []token.Block) ([]byte, error) {
	win := window.New()
	win.AppendAll(preroll)
	var out []byte
	for _, b := range blocks {
		switch b.Kind {
		case token.BlockStored:
			win.AppendAll(b.Stored)
			out = append(out, b.Stored...)
		default:
			var err error
			out, err = decodeTokens(win, b.Tokens, out)
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// DecodeTokens reconstructs the bytes a single token sequence produces
// against an already-primed window, appending to out. Exposed for
// cmd/rezip, which decodes one block's tokens at a time.
func DecodeTokens(win *window.Window, tokens []token.Token, out []byte) ([]byte, error) {
	return decodeTokens(win, tokens, out)
}

func decodeTokens(win *window.Window, tokens []token.Token, out []byte) ([]byte, error) {
	for _, t := range tokens {
		if t.Kind == token.KindLiteral {
			win.Append(t.Literal)
			out = append(out, t.Literal)
			continue
		}
		dist := int(t.Distance)
		if dist < 1 || dist > window.Size || int64(dist) > win.Len() {
			return nil, &deflate.InvalidDistance{Distance: dist}
		}
		out = win.Copy(dist, int(t.Run()), out)
	}
	return out, nil
}

// Write re-emits a full block sequence as a bitstream, flagging the
// final bit on the last block and flushing any trailing partial byte.
func Write(w *bitio.Writer, blocks []token.Block) error {
	for i, b := range blocks {
		final := i == len(blocks)-1
		if err := WriteBlock(w, final, b); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteBlock re-emits one block, including its 3-bit final+type prefix.
func WriteBlock(w *bitio.Writer, final bool, b token.Block) error {
	var finalBit uint8
	if final {
		finalBit = 1
	}
	if err := w.WriteBit(finalBit); err != nil {
		return err
	}

	switch b.Kind {
	case token.BlockStored:
		return writeStored(w, b.Stored)
	case token.BlockFixedHuffman:
		if err := w.WriteBits(1, 2); err != nil {
			return err
		}
		litEnc, distEnc := fixedEncoders()
		return writeTokens(w, litEnc, distEnc, b.Tokens)
	case token.BlockDynamicHuffman:
		if err := w.WriteBits(2, 2); err != nil {
			return err
		}
		if err := b.HeaderBits.WriteTo(w); err != nil {
			return err
		}
		litEnc, distEnc, err := dynamicEncoders(b.HeaderBits)
		if err != nil {
			return err
		}
		return writeTokens(w, litEnc, distEnc, b.Tokens)
	default:
		return &deflate.ReservedBlockType{}
	}
}

func writeStored(w *bitio.Writer, data []byte) error {
	if err := w.WriteBits(0, 2); err != nil {
		return err
	}
	if err := w.Align(); err != nil {
		return err
	}
	length := len(data)
	nlen := ^length & 0xFFFF
	if err := w.WriteBits(uint32(length&0xff), 8); err != nil {
		return err
	}
	if err := w.WriteBits(uint32((length>>8)&0xff), 8); err != nil {
		return err
	}
	if err := w.WriteBits(uint32(nlen&0xff), 8); err != nil {
		return err
	}
	if err := w.WriteBits(uint32((nlen>>8)&0xff), 8); err != nil {
		return err
	}
	for _, b := range data {
		if err := w.WriteBits(uint32(b), 8); err != nil {
			return err
		}
	}
	return nil
}

var fixedLitEnc, fixedDistEnc = mustFixedEncoders()

func mustFixedEncoders() (*huffman.Encoder, *huffman.Encoder) {
	lit, err := huffman.NewEncoder(deflate.FixedLiteralLengths())
	if err != nil {
		panic(err)
	}
	dist, err := huffman.NewEncoder(deflate.FixedDistanceLengths())
	if err != nil {
		panic(err)
	}
	return lit, dist
}

func fixedEncoders() (*huffman.Encoder, *huffman.Encoder) {
	return fixedLitEnc, fixedDistEnc
}

// dynamicEncoders re-derives the exact Huffman tables a dynamic block's
// verbatim header bits describe, by replaying them through the same
// code-length parser deflate.Parse uses.
func dynamicEncoders(headerBits bitio.Bits) (*huffman.Encoder, *huffman.Encoder, error) {
	r := bitio.NewReader(bytes.NewReader(headerBits.Pack()))
	litLengths, distLengths, err := deflate.ParseCodeLengths(r)
	if err != nil {
		return nil, nil, err
	}
	litEnc, err := huffman.NewEncoder(litLengths)
	if err != nil {
		return nil, nil, err
	}
	distEnc, err := huffman.NewEncoder(distLengths)
	if err != nil {
		return nil, nil, err
	}
	return litEnc, distEnc, nil
}

func writeTokens(w *bitio.Writer, litEnc, distEnc *huffman.Encoder, tokens []token.Token) error {
	for _, t := range tokens {
		if t.Kind == token.KindLiteral {
			if err := litEnc.Write(w, int(t.Literal)); err != nil {
				return err
			}
			continue
		}
		sym, extra, extraBits := deflate.LengthSymbol(t.Run())
		if err := litEnc.Write(w, sym); err != nil {
			return err
		}
		if extraBits > 0 {
			if err := w.WriteBits(extra, uint(extraBits)); err != nil {
				return err
			}
		}
		dsym, dextra, dextraBits := deflate.DistanceSymbol(t.Distance)
		if err := distEnc.Write(w, dsym); err != nil {
			return err
		}
		if dextraBits > 0 {
			if err := w.WriteBits(dextra, uint(dextraBits)); err != nil {
				return err
			}
		}
	}
	return litEnc.Write(w, 256)
}
