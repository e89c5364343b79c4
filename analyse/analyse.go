// Package analyse implements the token-stream analyser: Reduce scores an
// original token stream against the candidates a back-reference index
// admits at each position, producing a compact hint vector; Increase is
// its mirror image, replaying the same candidate enumeration to
// reconstruct the exact token stream from data and hints alone.
package analyse

import (
	"github.com/gztools/rezip/backref"
	"github.com/gztools/rezip/token"
)

// Inconsistent reports a reference token at a position the back-reference
// index admits no candidates for — fewer than 3 bytes remain there, or
// the position's 3-byte key has no earlier occurrence inside the window —
// yet the original stream emitted a back-reference there. This indicates the data wasn't produced by the
// assumed encoder, or preroll/data were mismatched against the tokens.
type Inconsistent struct {
	Pos int
}

func (e *Inconsistent) Error() string { return "analyse: reference at position with no candidates" }

// NotInCandidates reports an original reference whose (distance, run)
// doesn't appear anywhere in the candidate list the index admits at its
// position — a bug in the analyser, or a file not produced by the
// assumed encoder.
type NotInCandidates struct {
	Pos      int
	Distance uint16
	Run      uint16
}

func (e *NotInCandidates) Error() string { return "analyse: reference not found among candidates" }

// TruncatedHints reports a hint vector with fewer entries than Increase
// needed to reconstruct the token stream.
type TruncatedHints struct{}

func (e *TruncatedHints) Error() string { return "analyse: hint vector ran out before data did" }

// InvalidHint reports a hint value with no corresponding candidate.
type InvalidHint struct {
	Hint int
}

func (e *InvalidHint) Error() string { return "analyse: hint has no matching candidate" }

// mandatoryDistance and mandatoryRun identify the maximum-gain match
// every encoder is assumed to take unconditionally, emitting no hint.
const (
	mandatoryDistance = 1
	mandatoryRun      = 258
)

// Reduce computes the hint vector for an original token stream, given the
// preroll bytes available before data and data itself (the full
// decompressed block the tokens were decoded from).
func Reduce(preroll, data []byte, tokens []token.Token) ([]int, error) {
	idx := backref.Build(preroll, data)
	var hints []int
	pos := 0
	for _, t := range tokens {
		hint, emit, err := reduceOne(idx, pos, t)
		if err != nil {
			return nil, err
		}
		if emit {
			hints = append(hints, hint)
		}
		pos += int(t.EmittedBytes())
	}
	return hints, nil
}

// reduceOne scores a single original token against the candidates
// admissible at pos, per §4.6's ranking rule.
func reduceOne(idx *backref.Index, pos int, t token.Token) (hint int, emit bool, err error) {
	it, ok := idx.Open(pos)
	if !ok {
		return noCandidateHint(pos, t)
	}
	best, ok := it.Peek()
	if !ok {
		return noCandidateHint(pos, t)
	}
	if best.Distance == mandatoryDistance && best.Run == mandatoryRun {
		return 0, false, nil
	}
	if t.Kind == token.KindLiteral {
		return 1, true, nil
	}
	sorted := it.Sorted()
	for k, c := range sorted {
		if c.Distance == t.Distance && c.Run == t.Run() {
			if k == 0 {
				return 0, true, nil
			}
			return k + 1, true, nil
		}
	}
	return 0, false, &NotInCandidates{Pos: pos, Distance: t.Distance, Run: t.Run()}
}

func noCandidateHint(pos int, t token.Token) (int, bool, error) {
	if t.Kind == token.KindReference {
		return 0, false, &Inconsistent{Pos: pos}
	}
	return 0, false, nil
}

// Increase reconstructs the original token stream from data and the hint
// vector Reduce produced for it.
func Increase(preroll, data []byte, hints []int) ([]token.Token, error) {
	idx := backref.Build(preroll, data)
	var tokens []token.Token
	hi := 0
	pos := 0
	for pos < len(data) {
		t, consumed, err := increaseOne(idx, data, pos, hints, &hi)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
		pos += consumed
	}
	return tokens, nil
}

// increaseOne emits the single token the candidate set (and, if needed,
// the next hint) at pos determines, returning the token and how many
// output bytes it accounts for.
func increaseOne(idx *backref.Index, data []byte, pos int, hints []int, hi *int) (token.Token, int, error) {
	it, ok := idx.Open(pos)
	if !ok {
		lit := token.Lit(data[pos])
		return lit, 1, nil
	}
	best, ok := it.Peek()
	if !ok {
		lit := token.Lit(data[pos])
		return lit, 1, nil
	}
	if best.Distance == mandatoryDistance && best.Run == mandatoryRun {
		ref := token.Ref(best.Distance, best.Run)
		return ref, int(ref.EmittedBytes()), nil
	}

	if *hi >= len(hints) {
		return token.Token{}, 0, &TruncatedHints{}
	}
	h := hints[*hi]
	*hi++

	switch {
	case h == 0:
		top := it.Sorted()[0]
		ref := token.Ref(top.Distance, top.Run)
		return ref, int(ref.EmittedBytes()), nil
	case h == 1:
		lit := token.Lit(data[pos])
		return lit, 1, nil
	default:
		sorted := it.Sorted()
		k := h - 1
		if k < 0 || k >= len(sorted) {
			return token.Token{}, 0, &InvalidHint{Hint: h}
		}
		c := sorted[k]
		ref := token.Ref(c.Distance, c.Run)
		return ref, int(ref.EmittedBytes()), nil
	}
}

// MaxDistance reports the largest reference distance used in tokens, the
// per-block diagnostic the reference implementation prints alongside its
// token stream. ok is false when tokens contains no reference.
func MaxDistance(tokens []token.Token) (dist uint16, ok bool) {
	for _, t := range tokens {
		if t.Kind != token.KindReference {
			continue
		}
		if !ok || t.Distance > dist {
			dist = t.Distance
			ok = true
		}
	}
	return dist, ok
}

// Mismatch describes where Verify's from-scratch re-derivation first
// diverges from the original token stream.
type Mismatch struct {
	Index int
	Got   token.Token
	Want  token.Token
}

func (e *Mismatch) Error() string { return "analyse: token stream diverges from re-derivation" }

// Verify re-derives a token stream from scratch using the unconstrained
// greedy policy (always take the top-ranked candidate per §4.6: longest
// run wins, ties broken by smallest distance) and reports the first
// point of divergence from tokens, rather than merely letting a
// round-trip comparison fail uninformatively.
func Verify(preroll, data []byte, tokens []token.Token) error {
	idx := backref.Build(preroll, data)
	pos := 0
	for i, want := range tokens {
		it, ok := idx.Open(pos)
		var got token.Token
		switch {
		case !ok:
			got = token.Lit(data[pos])
		default:
			if _, hasBest := it.Peek(); !hasBest {
				got = token.Lit(data[pos])
			} else {
				top := it.Sorted()[0]
				got = token.Ref(top.Distance, top.Run)
			}
		}
		if got != want {
			return &Mismatch{Index: i, Got: got, Want: want}
		}
		pos += int(want.EmittedBytes())
	}
	return nil
}
