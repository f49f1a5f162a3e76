package objects

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pipcet/ori/internal/core/wire"
)

// LBlobEntry describes one chunk of a large file: the blob holding the
// chunk payload and its length.
type LBlobEntry struct {
	Hash   ObjectHash
	Length uint16
}

type lbPart struct {
	start uint64
	entry LBlobEntry
}

// LargeBlob is the manifest for a file stored as content-defined chunks.
// Part offsets are implicit prefix sums of the chunk lengths.
type LargeBlob struct {
	TotalHash ObjectHash
	parts     []lbPart
}

// NewLargeBlob creates an empty manifest.
func NewLargeBlob() *LargeBlob {
	return &LargeBlob{}
}

// AppendPart appends a chunk to the manifest.
func (lb *LargeBlob) AppendPart(hash ObjectHash, length uint16) {
	lb.parts = append(lb.parts, lbPart{start: lb.TotalSize(), entry: LBlobEntry{Hash: hash, Length: length}})
}

// Parts returns the chunk entries in file order.
func (lb *LargeBlob) Parts() []LBlobEntry {
	entries := make([]LBlobEntry, len(lb.parts))
	for i, p := range lb.parts {
		entries[i] = p.entry
	}
	return entries
}

// TotalSize returns the reconstructed file size.
func (lb *LargeBlob) TotalSize() uint64 {
	if len(lb.parts) == 0 {
		return 0
	}
	last := lb.parts[len(lb.parts)-1]
	return last.start + uint64(last.entry.Length)
}

// Marshal serializes the manifest: total hash, varint part count, then per
// part a chunk hash and a uint16 length.
func (lb *LargeBlob) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)

	if err := w.WriteHash(lb.TotalHash); err != nil {
		return nil, err
	}

	var varint [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(varint[:], uint64(len(lb.parts)))
	if err := w.Write(varint[:n]); err != nil {
		return nil, err
	}

	for _, p := range lb.parts {
		if err := w.WriteHash(p.entry.Hash); err != nil {
			return nil, err
		}
		if err := w.WriteUint16(p.entry.Length); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Hash returns the object hash of the manifest's canonical bytes.
func (lb *LargeBlob) Hash() (ObjectHash, error) {
	data, err := lb.Marshal()
	if err != nil {
		return ObjectHash{}, err
	}
	return HashBytes(data), nil
}

// UnmarshalLargeBlob parses a manifest from its canonical byte form.
func UnmarshalLargeBlob(data []byte) (*LargeBlob, error) {
	br := bytes.NewReader(data)
	r := wire.NewReader(br)

	lb := NewLargeBlob()
	var err error
	if lb.TotalHash, err = r.ReadHash(); err != nil {
		return nil, fmt.Errorf("%w: bad largeblob header: %v", ErrCorrupt, err)
	}

	num, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("%w: bad largeblob part count: %v", ErrCorrupt, err)
	}

	var off uint64
	for i := uint64(0); i < num; i++ {
		var e LBlobEntry
		if e.Hash, err = r.ReadHash(); err != nil {
			return nil, fmt.Errorf("%w: bad largeblob part hash: %v", ErrCorrupt, err)
		}
		if e.Length, err = r.ReadUint16(); err != nil {
			return nil, fmt.Errorf("%w: bad largeblob part length: %v", ErrCorrupt, err)
		}
		lb.parts = append(lb.parts, lbPart{start: off, entry: e})
		off += uint64(e.Length)
	}

	return lb, nil
}

// ReadAt copies up to len(buf) bytes of the reconstructed file starting at
// off, fetching the covering chunk blob from src. It returns 0 bytes and
// io.EOF past the end of the file.
func (lb *LargeBlob) ReadAt(src Getter, buf []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if uint64(off) >= lb.TotalSize() || len(lb.parts) == 0 {
		return 0, io.EOF
	}

	// Largest part start <= off.
	i := sort.Search(len(lb.parts), func(i int) bool {
		return lb.parts[i].start > uint64(off)
	}) - 1

	part := lb.parts[i]
	partOff := uint64(off) - part.start
	if partOff >= uint64(part.entry.Length) {
		return 0, io.EOF
	}

	obj, err := src.Get(part.entry.Hash)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch chunk %s: %w", part.entry.Hash.Short(), err)
	}
	if obj.Info.Kind != KindBlob {
		return 0, fmt.Errorf("%w: chunk %s is a %s, not a blob", ErrCorrupt, part.entry.Hash.Short(), obj.Info.Kind)
	}

	n := copy(buf, obj.Payload[partOff:])
	return n, nil
}

// Extract reconstructs the file at path by concatenating the chunk payloads
// in order, then verifies the result against the recorded total hash.
func (lb *LargeBlob) Extract(src Getter, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	for _, p := range lb.parts {
		obj, err := src.Get(p.entry.Hash)
		if err != nil {
			return fmt.Errorf("failed to fetch chunk %s: %w", p.entry.Hash.Short(), err)
		}
		if len(obj.Payload) != int(p.entry.Length) {
			return fmt.Errorf("%w: chunk %s is %d bytes, manifest says %d",
				ErrCorrupt, p.entry.Hash.Short(), len(obj.Payload), p.entry.Length)
		}
		if _, err := f.Write(obj.Payload); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		h.Write(obj.Payload)
	}

	var sum ObjectHash
	copy(sum[:], h.Sum(nil))
	if sum != lb.TotalHash {
		return fmt.Errorf("%w: extracted file hashes to %s, manifest says %s", ErrCorrupt, sum, lb.TotalHash)
	}

	return f.Sync()
}
