// Package backref builds the back-reference candidate index: a hash map
// from every 3-byte key seen in preroll+data to the increasing list of
// positions it occurs at, and a nearest-first pull iterator over the
// candidates legal at a given position under the 32 KiB window rule.
package backref

import "sort"

const windowSize = 32 * 1024

// maxRun is the longest run a single back-reference can express.
const maxRun = 258

// Candidate is one admissible back-reference: copying Run bytes from
// Distance bytes before the current position.
type Candidate struct {
	Distance uint16
	Run      uint16
}

// Index is the back-reference map for one preroll+data pair, built once
// and queried at every data position.
type Index struct {
	preroll []byte
	data    []byte
	buckets map[[3]byte][]int // absolute positions (preroll+data), strictly increasing
}

// Build constructs the index over preroll (bytes available before data
// starts, e.g. from an earlier block; their positions are indexed too,
// so they can be back-reference targets) and data (the bytes being
// analysed).
func Build(preroll, data []byte) *Index {
	idx := &Index{preroll: preroll, data: data, buckets: make(map[[3]byte][]int)}
	whole := make([]byte, 0, len(preroll)+len(data))
	whole = append(whole, preroll...)
	whole = append(whole, data...)
	for pos := 0; pos+2 < len(whole); pos++ {
		var key [3]byte
		copy(key[:], whole[pos:pos+3])
		idx.buckets[key] = append(idx.buckets[key], pos)
	}
	return idx
}

// hasKey reports whether dataPos has at least 3 bytes of data remaining
// to form a key — the "out of possible keys" terminal condition.
func (idx *Index) hasKey(dataPos int) bool {
	return dataPos+2 < len(idx.data)
}

// Open returns a candidate iterator for dataPos, and ok=false if fewer
// than 3 bytes of data remain at dataPos (the terminal "no more keys"
// signal every caller must treat as a forced literal). When ok is true
// the iterator may still yield zero candidates.
func (idx *Index) Open(dataPos int) (*Iter, bool) {
	if !idx.hasKey(dataPos) {
		return nil, false
	}

	pos := len(idx.preroll) + dataPos
	if pos == 0 {
		// The only match for position 0's key would be itself, which
		// sub-range selection (exclusive of the current position) can
		// never produce anyway; short-circuit the degenerate case.
		return &Iter{idx: idx, dataPos: dataPos}, true
	}

	var key [3]byte
	copy(key[:], idx.data[dataPos:dataPos+3])
	positions := idx.buckets[key]

	lo := pos - windowSize
	if lo < 0 {
		lo = 0
	}
	hi := pos - 1
	positions = subRangeInclusive(lo, hi, positions)

	return &Iter{idx: idx, dataPos: dataPos, positions: positions, cursor: len(positions)}, true
}

// subRangeInclusive returns the contiguous slice of the ascending,
// strictly increasing range whose values fall in [start, end] inclusive.
func subRangeInclusive(start, end int, positions []int) []int {
	endIdx := sort.SearchInts(positions, end+1)
	positions = positions[:endIdx]
	startIdx := sort.SearchInts(positions, start)
	return positions[startIdx:]
}

// byteAtDist returns the byte dist bytes before dataPos, reading from
// data when the distance stays within it and from preroll otherwise.
func (idx *Index) byteAtDist(dataPos, dist int) byte {
	if dist <= dataPos {
		return idx.data[dataPos-dist]
	}
	return idx.preroll[len(idx.preroll)-(dist-dataPos)]
}

// possibleRunLengthAt measures how many bytes at dataPos actually match
// a hypothetical back-reference at the given distance, capped at
// maxRun and at the data remaining. The first 3 bytes are guaranteed
// equal (that's the key match that produced this candidate) so the scan
// starts at index 3.
func (idx *Index) possibleRunLengthAt(dataPos, dist int) int {
	remaining := len(idx.data) - dataPos
	upcoming := maxRun
	if remaining < upcoming {
		upcoming = remaining
	}

	limit := dist
	if upcoming < limit {
		limit = upcoming
	}
	for cur := 3; cur < limit; cur++ {
		if idx.data[dataPos+cur] != idx.byteAtDist(dataPos, dist-cur) {
			return cur
		}
	}

	for cur := dist; cur < upcoming; cur++ {
		if idx.data[dataPos+cur%dist] != idx.data[dataPos+cur] {
			return cur
		}
	}

	return upcoming
}

// Iter lazily yields the candidates legal at a position in nearest-first
// (smallest distance first) order, with a Peek that doesn't consume.
type Iter struct {
	idx       *Index
	dataPos   int
	positions []int // ascending; consumed from the end (nearest first)
	cursor    int   // index one past the next position to yield

	peeked  Candidate
	hasPeek bool
}

// Next returns the next nearest-first candidate, consuming it.
func (it *Iter) Next() (Candidate, bool) {
	if it.hasPeek {
		it.hasPeek = false
		return it.peeked, true
	}
	if it.cursor == 0 {
		return Candidate{}, false
	}
	it.cursor--
	pos := it.positions[it.cursor]
	abs := len(it.idx.preroll) + it.dataPos
	dist := abs - pos
	run := it.idx.possibleRunLengthAt(it.dataPos, dist)
	return Candidate{Distance: uint16(dist), Run: uint16(run)}, true
}

// Peek returns the next nearest-first candidate without consuming it.
func (it *Iter) Peek() (Candidate, bool) {
	if it.hasPeek {
		return it.peeked, true
	}
	c, ok := it.Next()
	if !ok {
		return Candidate{}, false
	}
	it.peeked = c
	it.hasPeek = true
	return c, true
}

// Sorted drains every remaining candidate (including one already
// peeked) and returns them ranked by the §4.6 rule: longest run first,
// ties broken by smallest distance.
func (it *Iter) Sorted() []Candidate {
	var all []Candidate
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Run != all[j].Run {
			return all[i].Run > all[j].Run
		}
		return all[i].Distance < all[j].Distance
	})
	return all
}
