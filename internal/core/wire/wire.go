// Package wire provides the typed byte source and sink used for canonical
// object serialization and the replication protocol. All multi-byte integers
// are little-endian with explicit widths; strings are length-prefixed with a
// uint32 ("pstr" framing); hashes are exactly 32 raw bytes.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HashSize is the width of a raw object hash on the wire.
const HashSize = 32

// maxPStrLen bounds length-prefixed strings so a malformed peer cannot make
// us allocate arbitrary amounts of memory.
const maxPStrLen = 1 << 30

// Reader reads typed values from an underlying byte stream.
type Reader struct {
	r io.Reader
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadExact fills buf completely or fails.
func (r *Reader) ReadExact(buf []byte) error {
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return fmt.Errorf("short read: %w", err)
	}
	return nil
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	var buf [1]byte
	if err := r.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	var buf [2]byte
	if err := r.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	var buf [4]byte
	if err := r.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	var buf [8]byte
	if err := r.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// ReadHash reads a raw 32-byte hash.
func (r *Reader) ReadHash() ([HashSize]byte, error) {
	var h [HashSize]byte
	if err := r.ReadExact(h[:]); err != nil {
		return h, err
	}
	return h, nil
}

// ReadPStr reads a uint32 length-prefixed string.
func (r *Reader) ReadPStr() (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	if n > maxPStrLen {
		return "", fmt.Errorf("pstr length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if err := r.ReadExact(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadAll drains the remainder of the stream.
func (r *Reader) ReadAll() ([]byte, error) {
	return io.ReadAll(r.r)
}

// Writer writes typed values to an underlying byte stream.
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes raw bytes.
func (w *Writer) Write(p []byte) error {
	if _, err := w.w.Write(p); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) error {
	return w.Write([]byte{v})
}

// WriteUint16 writes a little-endian uint16.
func (w *Writer) WriteUint16(v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return w.Write(buf[:])
}

// WriteUint32 writes a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return w.Write(buf[:])
}

// WriteUint64 writes a little-endian uint64.
func (w *Writer) WriteUint64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return w.Write(buf[:])
}

// WriteHash writes a raw 32-byte hash.
func (w *Writer) WriteHash(h [HashSize]byte) error {
	return w.Write(h[:])
}

// WritePStr writes a uint32 length-prefixed string.
func (w *Writer) WritePStr(s string) error {
	if err := w.WriteUint32(uint32(len(s))); err != nil {
		return err
	}
	return w.Write([]byte(s))
}
