package objects

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashSize is the width of an ObjectHash in bytes.
const HashSize = 32

// ObjectHash is the SHA-256 of an object's canonical serialized form.
type ObjectHash [HashSize]byte

// EmptyCommit is the all-zero sentinel denoting "no commit". It never
// appears in the store.
var EmptyCommit = ObjectHash{}

// String returns the lowercase hexadecimal representation of the hash.
func (h ObjectHash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 8 hex characters of the hash.
func (h ObjectHash) Short() string {
	return h.String()[:8]
}

// IsEmpty returns true if the hash is the empty-commit sentinel.
func (h ObjectHash) IsEmpty() bool {
	return h == EmptyCommit
}

// NewObjectHash parses a 64-character hex string into an ObjectHash.
func NewObjectHash(hexStr string) (ObjectHash, error) {
	var h ObjectHash

	if len(hexStr) != 2*HashSize {
		return h, fmt.Errorf("invalid object hash length: expected %d, got %d", 2*HashSize, len(hexStr))
	}

	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return h, fmt.Errorf("invalid hex string: %w", err)
	}

	copy(h[:], raw)
	return h, nil
}

// HashBytes computes the SHA-256 of data.
func HashBytes(data []byte) ObjectHash {
	return ObjectHash(sha256.Sum256(data))
}

// HashFile computes the SHA-256 of the contents of the file at path,
// returning the hash and the file size.
func HashFile(path string) (ObjectHash, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return ObjectHash{}, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return ObjectHash{}, 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	var hash ObjectHash
	copy(hash[:], h.Sum(nil))
	return hash, n, nil
}
