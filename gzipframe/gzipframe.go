// Package gzipframe slices an RFC 1952 gzip member into its 10-byte
// header, embedded DEFLATE payload, and 8-byte trailer, and re-emits a
// byte-identical wrapper around a reconstructed payload. It is a thin
// external collaborator: the payload itself is parsed by deflate, not by
// this package.
package gzipframe

import (
	"encoding/binary"
	"errors"
)

const (
	id1         = 0x1f
	id2         = 0x8b
	cmDeflate   = 8
	flagText    = 1 << 0
	flagHdrCrc  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

// ErrHeader reports a gzip member whose fixed 10-byte header doesn't
// carry the expected magic bytes or compression method.
var ErrHeader = errors.New("gzipframe: invalid gzip header")

// ErrTruncated reports a gzip member shorter than its header, trailer,
// or a declared variable-length field requires.
var ErrTruncated = errors.New("gzipframe: truncated gzip member")

// Header holds everything about a gzip member's fixed and optional
// fields needed to re-emit it byte-for-byte, beyond the DEFLATE payload
// itself.
type Header struct {
	Flags   byte
	MTime   uint32
	XFL     byte
	OS      byte
	Extra   []byte // present iff Flags&flagExtra != 0
	Name    []byte // NUL-terminated on the wire; stored without the NUL
	Comment []byte // NUL-terminated on the wire; stored without the NUL
	HCRC    uint16 // present iff Flags&flagHdrCrc != 0
}

// Member is one parsed gzip member: its header, the still-compressed
// DEFLATE payload, and the trailing CRC32/ISIZE fields.
type Member struct {
	Header  Header
	Payload []byte
	CRC32   uint32
	ISIZE   uint32
}

// Split parses a single gzip member out of data, returning its header
// metadata, the embedded DEFLATE payload, and the trailer's CRC32/ISIZE
// fields. data must contain exactly one member (the reference encoder's
// normal output). The final 8 bytes of data are taken as the trailer, so
// bytes following a member's real trailer are not detected: they end up
// in Payload.
func Split(data []byte) (*Member, error) {
	if len(data) < 10 {
		return nil, ErrTruncated
	}
	if data[0] != id1 || data[1] != id2 || data[2] != cmDeflate {
		return nil, ErrHeader
	}

	h := Header{
		Flags: data[3],
		MTime: binary.LittleEndian.Uint32(data[4:8]),
		XFL:   data[8],
		OS:    data[9],
	}
	pos := 10

	if h.Flags&flagExtra != 0 {
		if pos+2 > len(data) {
			return nil, ErrTruncated
		}
		n := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2
		if pos+n > len(data) {
			return nil, ErrTruncated
		}
		h.Extra = append([]byte(nil), data[pos:pos+n]...)
		pos += n
	}
	if h.Flags&flagName != 0 {
		s, next, err := readCString(data, pos)
		if err != nil {
			return nil, err
		}
		h.Name = s
		pos = next
	}
	if h.Flags&flagComment != 0 {
		s, next, err := readCString(data, pos)
		if err != nil {
			return nil, err
		}
		h.Comment = s
		pos = next
	}
	if h.Flags&flagHdrCrc != 0 {
		if pos+2 > len(data) {
			return nil, ErrTruncated
		}
		h.HCRC = binary.LittleEndian.Uint16(data[pos : pos+2])
		pos += 2
	}

	if len(data)-pos < 8 {
		return nil, ErrTruncated
	}
	trailerStart := len(data) - 8
	payload := data[pos:trailerStart]
	crc := binary.LittleEndian.Uint32(data[trailerStart : trailerStart+4])
	isize := binary.LittleEndian.Uint32(data[trailerStart+4 : trailerStart+8])

	return &Member{
		Header:  h,
		Payload: append([]byte(nil), payload...),
		CRC32:   crc,
		ISIZE:   isize,
	}, nil
}

func readCString(data []byte, pos int) (s []byte, next int, err error) {
	for i := pos; i < len(data); i++ {
		if data[i] == 0 {
			return append([]byte(nil), data[pos:i]...), i + 1, nil
		}
	}
	return nil, 0, ErrTruncated
}

// Join re-assembles a gzip member from header metadata, a (re-)emitted
// DEFLATE payload, and the trailer fields, byte-identical to the input
// Split produced them from when payload, crc, and isize are unchanged.
func Join(h Header, payload []byte, crc32, isize uint32) []byte {
	out := make([]byte, 10, 10+len(payload)+8)
	out[0], out[1], out[2] = id1, id2, cmDeflate
	out[3] = h.Flags
	binary.LittleEndian.PutUint32(out[4:8], h.MTime)
	out[8] = h.XFL
	out[9] = h.OS

	if h.Flags&flagExtra != 0 {
		var n [2]byte
		binary.LittleEndian.PutUint16(n[:], uint16(len(h.Extra)))
		out = append(out, n[:]...)
		out = append(out, h.Extra...)
	}
	if h.Flags&flagName != 0 {
		out = append(out, h.Name...)
		out = append(out, 0)
	}
	if h.Flags&flagComment != 0 {
		out = append(out, h.Comment...)
		out = append(out, 0)
	}
	if h.Flags&flagHdrCrc != 0 {
		var c [2]byte
		binary.LittleEndian.PutUint16(c[:], h.HCRC)
		out = append(out, c[:]...)
	}

	out = append(out, payload...)

	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[0:4], crc32)
	binary.LittleEndian.PutUint32(trailer[4:8], isize)
	out = append(out, trailer[:]...)
	return out
}
