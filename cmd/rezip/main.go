// Command rezip analyses a gzip file's DEFLATE token stream against the
// back-reference candidates admissible at each position, and can later
// reconstruct the exact original compressed bytes from the decompressed
// payload plus the resulting hint vector.
package main

import (
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/coreos/go-systemd/v22/journal"
	"golang.org/x/crypto/blake2b"

	"github.com/gztools/rezip/analyse"
	"github.com/gztools/rezip/bitio"
	"github.com/gztools/rezip/capnslog"
	"github.com/gztools/rezip/deflate"
	"github.com/gztools/rezip/flagutil"
	"github.com/gztools/rezip/gzipframe"
	"github.com/gztools/rezip/hintio"
	"github.com/gztools/rezip/serialise"
	"github.com/gztools/rezip/token"
	"github.com/gztools/rezip/window"
	"github.com/gztools/rezip/yamlutil"
)

var plog = capnslog.NewPackageLogger("github.com/gztools/rezip", "rezip")

func main() {
	if journal.Enabled() {
		capnslog.SetFormatter(capnslog.NewJournalFormatter())
	} else {
		capnslog.SetFormatter(capnslog.NewGlogFormatter(os.Stderr))
	}
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: rezip analyse <gzip-file> | rezip restore <skeleton> <decompressed> <hints>")
		os.Exit(1)
	}
	var err error
	switch os.Args[1] {
	case "analyse":
		err = runAnalyse(os.Args[2:])
	case "restore":
		err = runRestore(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		os.Exit(1)
	}
	if err != nil {
		plog.Errorf("%v", err)
		os.Exit(1)
	}
}

func runAnalyse(args []string) error {
	fs := flag.NewFlagSet("analyse", flag.ExitOnError)
	verify := fs.Bool("verify", false, "re-derive each block's tokens from scratch and report the first divergence")
	maxDist := fs.Bool("max-distance", false, "print the largest reference distance used in the stream")
	var level flagutil.LevelFlag
	fs.Var(&level, "level", "optimisation profile level 1-9 (default: unconstrained)")
	var hintFormat flagutil.HintFormatFlag
	fs.Var(&hintFormat, "hint-format", `hint vector wire encoding: "varint" or "text"`)
	config := fs.String("config", "", "YAML file populating these flags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *config != "" {
		raw, err := os.ReadFile(*config)
		if err != nil {
			return err
		}
		if err := yamlutil.SetFlagsFromYaml(fs, raw); err != nil {
			return err
		}
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("rezip analyse: expected exactly one gzip file argument")
	}
	path := fs.Arg(0)

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	member, err := gzipframe.Split(raw)
	if err != nil {
		return err
	}
	blocks, err := deflate.Parse(bitio.NewReader(bytes.NewReader(member.Payload)))
	if err != nil {
		return err
	}

	decompressed, metas, allTokens, err := flattenBlocks(blocks)
	if err != nil {
		return err
	}

	if *verify {
		pos := 0
		for i, b := range blocks {
			if b.Kind == token.BlockStored {
				pos += len(b.Stored)
				continue
			}
			if err := analyse.Verify(decompressed[:pos], decompressed[pos:pos+blockLength(b)], b.Tokens); err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			pos += blockLength(b)
		}
	}

	if *maxDist {
		if d, ok := analyse.MaxDistance(allTokens); ok {
			fmt.Printf("max-distance: %d\n", d)
		} else {
			fmt.Println("max-distance: none")
		}
	}

	hints, err := analyse.Reduce(nil, decompressed, allTokens)
	if err != nil {
		return err
	}

	digest := blake2b.Sum256(decompressed)
	fmt.Printf("digest: %s\n", hex.EncodeToString(digest[:]))
	fmt.Printf("hints: %v\n", hints)

	s := skeleton{
		Header: member.Header,
		CRC32:  member.CRC32,
		ISIZE:  member.ISIZE,
		Digest: digest,
		Blocks: metas,
	}
	if err := writeSkeleton(path+".skeleton", s); err != nil {
		return err
	}
	if err := os.WriteFile(path+".raw", decompressed, 0o644); err != nil {
		return err
	}
	hf, err := os.Create(path + ".hints")
	if err != nil {
		return err
	}
	defer hf.Close()
	return hintio.Write(hf, hintFormat.Format(), hints)
}

func runRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	var hintFormat flagutil.HintFormatFlag
	fs.Var(&hintFormat, "hint-format", `hint vector wire encoding: "varint" or "text"`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("rezip restore: expected <skeleton> <decompressed> <hints>")
	}

	s, err := readSkeleton(fs.Arg(0))
	if err != nil {
		return err
	}
	decompressed, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return err
	}
	hf, err := os.Open(fs.Arg(2))
	if err != nil {
		return err
	}
	defer hf.Close()
	hints, err := hintio.Read(hf, hintFormat.Format())
	if err != nil {
		return err
	}

	digest := blake2b.Sum256(decompressed)
	if digest != s.Digest {
		return fmt.Errorf("rezip restore: decompressed payload digest %x does not match recorded %x", digest, s.Digest)
	}

	tokens, err := analyse.Increase(nil, decompressed, hints)
	if err != nil {
		return err
	}

	blocks, err := rechunk(decompressed, s.Blocks, tokens)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	if err := serialise.Write(w, blocks); err != nil {
		return err
	}

	member := gzipframe.Join(s.Header, buf.Bytes(), s.CRC32, s.ISIZE)
	outPath := fs.Arg(1) + ".gz"
	if err := os.WriteFile(outPath, member, 0o644); err != nil {
		return err
	}
	fmt.Printf("restored: %s\n", outPath)
	return nil
}

// flattenBlocks decompresses a full block sequence, records each block's
// decompressed length (for later re-chunking), and synthesises a single
// literal/reference token stream spanning the whole file: a Stored
// block's raw bytes become one literal Token apiece, since the sliding
// window and the analyser's candidate search don't distinguish how a
// byte originally reached the output.
func flattenBlocks(blocks []token.Block) (decompressed []byte, metas []blockMeta, allTokens []token.Token, err error) {
	for _, b := range blocks {
		switch b.Kind {
		case token.BlockStored:
			decompressed = append(decompressed, b.Stored...)
			for _, by := range b.Stored {
				allTokens = append(allTokens, token.Lit(by))
			}
			metas = append(metas, blockMeta{Kind: token.BlockStored, Length: len(b.Stored)})
		default:
			win := window.New()
			win.AppendAll(decompressed)
			out, derr := serialise.DecodeTokens(win, b.Tokens, nil)
			if derr != nil {
				return nil, nil, nil, derr
			}
			decompressed = append(decompressed, out...)
			allTokens = append(allTokens, b.Tokens...)
			metas = append(metas, blockMeta{Kind: b.Kind, Length: blockLength(b), HeaderBits: b.HeaderBits})
		}
	}
	return decompressed, metas, allTokens, nil
}

func blockLength(b token.Block) int {
	n := 0
	for _, t := range b.Tokens {
		n += int(t.EmittedBytes())
	}
	return n
}

// rechunk splits a flat reconstructed token stream back into per-block
// groups, using each block's original decompressed length as the cut
// point; Stored blocks are emitted from the decompressed bytes directly
// since their tokens were only synthetic placeholders.
func rechunk(decompressed []byte, metas []blockMeta, tokens []token.Token) ([]token.Block, error) {
	blocks := make([]token.Block, 0, len(metas))
	pos := 0
	ti := 0
	for _, m := range metas {
		start := ti
		emitted := 0
		for ti < len(tokens) && emitted < m.Length {
			emitted += int(tokens[ti].EmittedBytes())
			ti++
		}
		if emitted != m.Length {
			return nil, fmt.Errorf("rezip restore: reconstructed token stream doesn't align with original block boundaries")
		}

		if m.Kind == token.BlockStored {
			if pos+m.Length > len(decompressed) {
				return nil, fmt.Errorf("rezip restore: stored block length exceeds decompressed data")
			}
			blocks = append(blocks, token.Block{Kind: token.BlockStored, Stored: decompressed[pos : pos+m.Length]})
		} else {
			blocks = append(blocks, token.Block{Kind: m.Kind, HeaderBits: m.HeaderBits, Tokens: tokens[start:ti]})
		}
		pos += m.Length
	}
	return blocks, nil
}
