// Package profile models the nine fixed optimisation records a reference
// gzip implementation's compression levels 1-9 correspond to: how
// aggressively the encoder is willing to search the back-reference
// candidate space before settling on a match.
package profile

// Mode tags which search tweak a Config uses.
type Mode uint8

const (
	// Greedy marks a level that only re-inserts positions into the
	// back-reference map below a given match length.
	Greedy Mode = iota
	// Lookahead marks a level that looks one position ahead before
	// committing to a match, backing off the search budget once it has
	// already found a sufficiently long one.
	Lookahead
)

// Config is one compression-level record: how long a match stops the
// search outright, how many candidate distances are considered, and
// which search tweak applies.
type Config struct {
	Level int
	// QuitSearchAboveLength: once a match at least this long is found,
	// stop searching for a better one.
	QuitSearchAboveLength uint16
	// LimitCountOfDistances: only the nearest N candidate distances are
	// considered at all.
	LimitCountOfDistances int
	Mode                  Mode

	// InsertOnlyBelowLength is valid when Mode == Greedy: positions are
	// only inserted into the back-reference map if the match found
	// there was shorter than this.
	InsertOnlyBelowLength uint16

	// ApatheticLookaheadAboveLength and AbortLookaheadAboveLength are
	// valid when Mode == Lookahead.
	ApatheticLookaheadAboveLength uint16
	AbortLookaheadAboveLength     uint16
}

func greedy(level int, quitSearchAboveLength uint16, limitCountOfDistances int, insertOnlyBelowLength uint16) Config {
	return Config{
		Level:                 level,
		QuitSearchAboveLength: quitSearchAboveLength,
		LimitCountOfDistances: limitCountOfDistances,
		Mode:                  Greedy,
		InsertOnlyBelowLength: insertOnlyBelowLength,
	}
}

func lookahead(level int, quitSearchAboveLength uint16, limitCountOfDistances int, apatheticAbove, abortAbove uint16) Config {
	return Config{
		Level:                         level,
		QuitSearchAboveLength:         quitSearchAboveLength,
		LimitCountOfDistances:         limitCountOfDistances,
		Mode:                          Lookahead,
		ApatheticLookaheadAboveLength: apatheticAbove,
		AbortLookaheadAboveLength:     abortAbove,
	}
}

// Levels holds the nine reference-encoder-level configurations, indexed
// [0] through [8] for levels 1 through 9.
var Levels = [9]Config{
	greedy(1, 8, 4, 4),
	greedy(2, 16, 8, 5),
	greedy(3, 32, 32, 6),
	lookahead(4, 16, 16, 4, 4),
	lookahead(5, 32, 32, 8, 16),
	lookahead(6, 128, 128, 8, 16),
	lookahead(7, 128, 256, 8, 32),
	lookahead(8, 258, 1024, 32, 128),
	lookahead(9, 258, 4096, 32, 258),
}

// Unconstrained is the baseline policy analyse.Reduce and analyse.Increase
// use: no search cutoff, no distance-count limit. It does not correspond
// to any real gzip level; it is what makes Reduce/Increase exact inverses
// of each other regardless of which level actually produced the stream
// being analysed.
var Unconstrained = Config{
	Level:                 0,
	QuitSearchAboveLength: 258,
	LimitCountOfDistances: 0,
	Mode:                  Greedy,
	InsertOnlyBelowLength: 0,
}

// ForLevel returns the Config for a reference-encoder level in [1,9].
func ForLevel(level int) (Config, error) {
	if level < 1 || level > 9 {
		return Config{}, &InvalidLevel{Level: level}
	}
	return Levels[level-1], nil
}

// InvalidLevel reports a level outside the supported [1,9] range.
type InvalidLevel struct {
	Level int
}

func (e *InvalidLevel) Error() string {
	return "profile: level out of range [1,9]"
}
