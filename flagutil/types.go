// Package flagutil provides flag.Value implementations for the rezip CLI's
// domain-specific knobs.
package flagutil

import (
	"errors"
	"fmt"

	"github.com/gztools/rezip/profile"
)

// LevelFlag parses "1".."9" into the matching profile.Config, the way a
// reference gzip -1..-9 flag selects a compression level. This type
// implements the flag.Value interface.
type LevelFlag struct {
	val profile.Config
	set bool
}

// Config returns the parsed profile, or profile.Unconstrained if Set was
// never called.
func (f *LevelFlag) Config() profile.Config {
	if !f.set {
		return profile.Unconstrained
	}
	return f.val
}

func (f *LevelFlag) Set(v string) error {
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || fmt.Sprintf("%d", n) != v {
		return errors.New("not a level number")
	}
	cfg, err := profile.ForLevel(n)
	if err != nil {
		return err
	}
	f.val = cfg
	f.set = true
	return nil
}

func (f *LevelFlag) String() string {
	if !f.set {
		return "unconstrained"
	}
	return fmt.Sprintf("%d", f.val.Level)
}

// HintFormatFlag selects the wire encoding used to read and write a hint
// vector: "varint" (compact binary) or "text" (one decimal integer per
// line). This type implements the flag.Value interface.
type HintFormatFlag struct {
	val string
}

// Format returns the selected encoding name, defaulting to "varint".
func (f *HintFormatFlag) Format() string {
	if f.val == "" {
		return "varint"
	}
	return f.val
}

func (f *HintFormatFlag) Set(v string) error {
	switch v {
	case "varint", "text":
		f.val = v
		return nil
	default:
		return errors.New("hint format must be \"varint\" or \"text\"")
	}
}

func (f *HintFormatFlag) String() string {
	return f.Format()
}
