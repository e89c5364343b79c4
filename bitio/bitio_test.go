package bitio

import (
	"bytes"
	"io"
	"testing"
)

func TestReadBitsLSBFirst(t *testing.T) {
	// byte 0b1011_0001 = 0xB1: bits read in order 1,0,0,0,1,1,0,1
	r := NewReader(bytes.NewReader([]byte{0xB1}))
	want := []uint8{1, 0, 0, 0, 1, 1, 0, 1}
	for i, w := range want {
		got, err := r.ReadBit()
		if err != nil {
			t.Fatalf("bit %d: %v", i, err)
		}
		if got != w {
			t.Errorf("bit %d = %d, want %d", i, got, w)
		}
	}
}

func TestReadBitsAssemblesLSBFirst(t *testing.T) {
	// 0x05 = 0b0000_0101 -> first 3 bits read are 1,0,1 -> value 0b101 = 5
	r := NewReader(bytes.NewReader([]byte{0x05}))
	v, err := r.ReadBits(3)
	if err != nil {
		t.Fatal(err)
	}
	if v != 5 {
		t.Errorf("ReadBits(3) = %d, want 5", v)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteBits(0x1A2, 9); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBits(7, 3); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	r := NewReader(bytes.NewReader(buf.Bytes()))
	v1, err := r.ReadBits(9)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != 0x1A2 {
		t.Errorf("first field = %#x, want %#x", v1, 0x1A2)
	}
	v2, err := r.ReadBits(3)
	if err != nil {
		t.Fatal(err)
	}
	if v2 != 7 {
		t.Errorf("second field = %d, want 7", v2)
	}
}

func TestWriteCodeMSBFirst(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	// code 0b101 (5) at length 3: bits emitted in order 1,0,1
	if err := w.WriteCode(0b101, 3); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	r := NewReader(bytes.NewReader(buf.Bytes()))
	want := []uint8{1, 0, 1}
	for i, wv := range want {
		got, err := r.ReadBit()
		if err != nil {
			t.Fatal(err)
		}
		if got != wv {
			t.Errorf("bit %d = %d, want %d", i, got, wv)
		}
	}
}

func TestAlignDropsPartialByte(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xFF, 0x00}))
	if _, err := r.ReadBit(); err != nil {
		t.Fatal(err)
	}
	r.Align()
	b, err := r.ReadByte()
	if err != nil {
		t.Fatal(err)
	}
	if b != 0x00 {
		t.Errorf("ReadByte after Align = %#x, want 0x00", b)
	}
}

func TestRecording(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0b0000_0101}))
	r.StartRecording()
	if _, err := r.ReadBit(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadBit(); err != nil {
		t.Fatal(err)
	}
	bits := r.StopRecording()
	want := Bits{1, 0}
	if len(bits) != len(want) {
		t.Fatalf("recorded %v, want %v", bits, want)
	}
	for i := range want {
		if bits[i] != want[i] {
			t.Errorf("bit %d = %d, want %d", i, bits[i], want[i])
		}
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := bits.WriteTo(w); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	r2 := NewReader(bytes.NewReader(buf.Bytes()))
	for i, wv := range want {
		got, err := r2.ReadBit()
		if err != nil {
			t.Fatal(err)
		}
		if got != wv {
			t.Errorf("replayed bit %d = %d, want %d", i, got, wv)
		}
	}
}

func TestTruncated(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	_, err := r.ReadBit()
	if err == nil {
		t.Fatal("expected error on empty reader")
	}
	var tr *Truncated
	if !asTruncated(err, &tr) {
		t.Errorf("expected *Truncated, got %T: %v", err, err)
	}
}

func asTruncated(err error, target **Truncated) bool {
	if t, ok := err.(*Truncated); ok {
		*target = t
		return true
	}
	return false
}

func TestIoErrorUnwraps(t *testing.T) {
	wantErr := io.ErrClosedPipe
	r := NewReader(&failingReader{err: wantErr})
	_, err := r.ReadBit()
	ioErr, ok := err.(*IoError)
	if !ok {
		t.Fatalf("expected *IoError, got %T", err)
	}
	if ioErr.Unwrap() != wantErr {
		t.Errorf("Unwrap() = %v, want %v", ioErr.Unwrap(), wantErr)
	}
}

type failingReader struct{ err error }

func (f *failingReader) Read(p []byte) (int, error) { return 0, f.err }
