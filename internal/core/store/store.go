// Package store implements the persistent content-addressed object store
// backing a repository: a map from hash to (typed payload, metadata) laid
// out as .ori/objs/XX/YY/<hex>. Every file starts with the serialized
// ObjectInfo header followed by the payload, LZMA-compressed iff the header
// says so. Writes are crash-safe: objects are staged in the tmp directory,
// fsynced and renamed into place.
package store

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pipcet/ori/internal/core/objects"
)

// compressThreshold is the smallest blob payload worth compressing.
const compressThreshold = 512

// Store is a local object store rooted at a repository's .ori directory.
type Store struct {
	objsDir string
	tmpDir  string
}

// New creates a store handle for the given .ori directory.
func New(oriDir string) *Store {
	return &Store{
		objsDir: filepath.Join(oriDir, "objs"),
		tmpDir:  filepath.Join(oriDir, "tmp"),
	}
}

// Init creates the object and staging directories.
func (s *Store) Init() error {
	for _, dir := range []string{s.objsDir, s.tmpDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// objectPath returns the on-disk path for a hash: objs/XX/YY/<hex>, where
// XX and YY are the first two byte-pairs of the hex digest.
func (s *Store) objectPath(hash objects.ObjectHash) string {
	hex := hash.String()
	return filepath.Join(s.objsDir, hex[0:2], hex[2:4], hex)
}

// Add stores an object. The payload must hash to info.Hash; otherwise the
// add fails with ErrCorrupt. Adding an already-present object is a no-op and
// does not rewrite the file. The store may choose to compress the payload;
// the decision is per-object and recorded in the header.
func (s *Store) Add(info objects.ObjectInfo, payload []byte) error {
	if objects.HashBytes(payload) != info.Hash {
		return fmt.Errorf("%w: payload does not hash to %s", objects.ErrCorrupt, info.Hash)
	}
	if uint64(len(payload)) != info.PayloadSize {
		return fmt.Errorf("%w: payload is %d bytes, info says %d", objects.ErrCorrupt, len(payload), info.PayloadSize)
	}
	if s.Has(info.Hash) {
		return nil
	}

	stored := payload
	info.Compressed = false
	if info.Kind == objects.KindBlob && len(payload) >= compressThreshold {
		if compressed, err := compress(payload); err == nil && len(compressed) < len(payload) {
			stored = compressed
			info.Compressed = true
		}
	}

	return s.writeFile(info, stored)
}

// AddObject stores a fully-formed object.
func (s *Store) AddObject(obj objects.Object) error {
	return s.Add(obj.Info, obj.Payload)
}

// AddRaw stores an object received in transfer form (payload possibly
// already compressed, as described by info). The payload is verified against
// info.Hash before it becomes visible to readers.
func (s *Store) AddRaw(info objects.ObjectInfo, stored []byte) error {
	payload := stored
	if info.Compressed {
		var err error
		if payload, err = decompress(stored, info.PayloadSize); err != nil {
			return fmt.Errorf("%w: %v", objects.ErrCorrupt, err)
		}
	}
	if objects.HashBytes(payload) != info.Hash {
		return fmt.Errorf("%w: transferred payload does not hash to %s", objects.ErrCorrupt, info.Hash)
	}
	if uint64(len(payload)) != info.PayloadSize {
		return fmt.Errorf("%w: transferred payload is %d bytes, info says %d",
			objects.ErrCorrupt, len(payload), info.PayloadSize)
	}
	if s.Has(info.Hash) {
		return nil
	}

	return s.writeFile(info, stored)
}

// writeFile stages the header and stored payload in the tmp directory and
// renames the result into place. The file is fsynced before the rename, so a
// crash never leaves a torn object, and its directory is fsynced after it.
func (s *Store) writeFile(info objects.ObjectInfo, stored []byte) error {
	path := s.objectPath(info.Hash)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.tmpDir, "obj-*")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(info.Marshal()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write object header: %w", err)
	}
	if _, err := tmp.Write(stored); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write object payload: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync object file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close object file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to finalize object file: %w", err)
	}

	return syncDir(filepath.Dir(path))
}

// Get returns the object for hash, decompressed if needed. The payload is
// re-hashed on read; a mismatch reports ErrCorrupt.
func (s *Store) Get(hash objects.ObjectHash) (objects.Object, error) {
	info, stored, err := s.GetRaw(hash)
	if err != nil {
		return objects.Object{}, err
	}

	payload := stored
	if info.Compressed {
		if payload, err = decompress(stored, info.PayloadSize); err != nil {
			return objects.Object{}, fmt.Errorf("%w: %s: %v", objects.ErrCorrupt, hash, err)
		}
	}

	if objects.HashBytes(payload) != hash {
		return objects.Object{}, fmt.Errorf("%w: stored bytes do not hash to %s", objects.ErrCorrupt, hash)
	}

	return objects.Object{Info: info, Payload: payload}, nil
}

// GetRaw returns the header and the stored (possibly compressed) payload,
// as needed for replication.
func (s *Store) GetRaw(hash objects.ObjectHash) (objects.ObjectInfo, []byte, error) {
	data, err := os.ReadFile(s.objectPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return objects.ObjectInfo{}, nil, fmt.Errorf("%w: %s", objects.ErrNotFound, hash)
		}
		return objects.ObjectInfo{}, nil, fmt.Errorf("failed to read object %s: %w", hash, err)
	}

	if len(data) < objects.InfoSize {
		return objects.ObjectInfo{}, nil, fmt.Errorf("%w: object file for %s is truncated", objects.ErrCorrupt, hash)
	}

	info, err := objects.UnmarshalInfo(data[:objects.InfoSize])
	if err != nil {
		return objects.ObjectInfo{}, nil, err
	}
	if info.Hash != hash {
		return objects.ObjectInfo{}, nil, fmt.Errorf("%w: object file for %s claims hash %s",
			objects.ErrCorrupt, hash, info.Hash)
	}

	return info, data[objects.InfoSize:], nil
}

// Has reports whether hash is present, by a filesystem stat alone.
func (s *Store) Has(hash objects.ObjectHash) bool {
	_, err := os.Stat(s.objectPath(hash))
	return err == nil
}

// List enumerates the info records of all stored objects.
func (s *Store) List() ([]objects.ObjectInfo, error) {
	var infos []objects.ObjectInfo

	err := filepath.WalkDir(s.objsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		header := make([]byte, objects.InfoSize)
		if _, err := io.ReadFull(f, header); err != nil {
			return fmt.Errorf("%w: truncated object file %s", objects.ErrCorrupt, path)
		}

		info, err := objects.UnmarshalInfo(header)
		if err != nil {
			return err
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return infos, nil
}

// Verify re-hashes the stored payload for hash.
func (s *Store) Verify(hash objects.ObjectHash) error {
	_, err := s.Get(hash)
	return err
}

// Purge removes an object from the store. The caller must have established
// that nothing references it. Returns false if the object was absent.
func (s *Store) Purge(hash objects.ObjectHash) (bool, error) {
	err := os.Remove(s.objectPath(hash))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to purge %s: %w", hash, err)
	}
	return true, nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory for sync: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("failed to sync directory: %w", err)
	}
	return nil
}

var _ objects.Getter = (*Store)(nil)
