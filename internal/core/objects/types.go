// Package objects defines the four content-addressed object kinds (Blob,
// LargeBlob, Tree, Commit) and their canonical serialization. Serialization
// is deterministic: field order is fixed, integers use explicit little-endian
// widths, and strings are length-prefixed. Producing different bytes for the
// same logical object would break content addressing.
package objects

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Kind identifies the payload type of a stored object.
type Kind uint8

const (
	KindBlob Kind = iota + 1
	KindLargeBlob
	KindTree
	KindCommit
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindLargeBlob:
		return "largeblob"
	case KindTree:
		return "tree"
	case KindCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// IsValid returns true if the kind is one of the four object kinds.
func (k Kind) IsValid() bool {
	return k >= KindBlob && k <= KindCommit
}

// Sentinel errors shared across the store, the versioning engine and the
// replication protocol.
var (
	// ErrNotFound indicates a hash absent from the store.
	ErrNotFound = errors.New("object not found")
	// ErrCorrupt indicates stored or received bytes that do not hash to
	// their claimed id, or a structural parse failure.
	ErrCorrupt = errors.New("corrupt object")
)

// InfoSize is the serialized size of an ObjectInfo: kind (1) + flags (1) +
// payload size (8) + hash (32).
const InfoSize = 42

const flagCompressed = 0x1

// ObjectInfo is the fixed-width metadata record stored ahead of every
// object payload and exchanged during replication.
type ObjectInfo struct {
	Kind        Kind
	Compressed  bool
	PayloadSize uint64
	Hash        ObjectHash
}

// Marshal serializes the info record into exactly InfoSize bytes.
func (i ObjectInfo) Marshal() []byte {
	buf := make([]byte, InfoSize)
	buf[0] = byte(i.Kind)
	if i.Compressed {
		buf[1] |= flagCompressed
	}
	binary.LittleEndian.PutUint64(buf[2:10], i.PayloadSize)
	copy(buf[10:], i.Hash[:])
	return buf
}

// UnmarshalInfo parses an InfoSize-byte record.
func UnmarshalInfo(data []byte) (ObjectInfo, error) {
	var info ObjectInfo

	if len(data) != InfoSize {
		return info, fmt.Errorf("%w: object info is %d bytes, want %d", ErrCorrupt, len(data), InfoSize)
	}

	info.Kind = Kind(data[0])
	if !info.Kind.IsValid() {
		return info, fmt.Errorf("%w: unknown object kind %d", ErrCorrupt, data[0])
	}
	info.Compressed = data[1]&flagCompressed != 0
	info.PayloadSize = binary.LittleEndian.Uint64(data[2:10])
	copy(info.Hash[:], data[10:])

	return info, nil
}

// Object pairs an info record with its uncompressed payload.
type Object struct {
	Info    ObjectInfo
	Payload []byte
}

// NewObject builds an object of the given kind, computing its hash from the
// canonical payload bytes.
func NewObject(kind Kind, payload []byte) Object {
	return Object{
		Info: ObjectInfo{
			Kind:        kind,
			PayloadSize: uint64(len(payload)),
			Hash:        HashBytes(payload),
		},
		Payload: payload,
	}
}

// NewBlob builds a blob object holding raw file contents.
func NewBlob(data []byte) Object {
	return NewObject(KindBlob, data)
}

// Getter fetches objects by hash. Implemented by the local store and by
// remote repository handles.
type Getter interface {
	Get(hash ObjectHash) (Object, error)
}
