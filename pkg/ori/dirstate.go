package ori

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pipcet/ori/internal/core/objects"
)

// dirstateEntry caches the hash of a working-directory file keyed by its
// stat signature, so unchanged files are not re-hashed on every diff.
type dirstateEntry struct {
	Size  int64  `json:"size"`
	MTime int64  `json:"mtime"`
	Hash  string `json:"hash"`
	Large bool   `json:"large"`
}

type dirstate map[string]dirstateEntry

// loadDirstate reads the cache; a missing or unreadable cache is simply
// empty.
func (r *Repository) loadDirstate() dirstate {
	ds := make(dirstate)
	raw, err := os.ReadFile(filepath.Join(r.oriDir, dirstateFile))
	if err != nil {
		return ds
	}
	if err := json.Unmarshal(raw, &ds); err != nil {
		return make(dirstate)
	}
	return ds
}

// saveDirstate persists the cache atomically.
func (r *Repository) saveDirstate(ds dirstate) error {
	raw, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode dirstate: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Join(r.oriDir, "tmp"), "dirstate-*")
	if err != nil {
		return fmt.Errorf("failed to stage dirstate: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write dirstate: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close dirstate: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(r.oriDir, dirstateFile)); err != nil {
		return fmt.Errorf("failed to save dirstate: %w", err)
	}
	return nil
}

// lookup returns the cached target hash for a file if the stat signature
// still matches.
func (ds dirstate) lookup(path string, size, mtime int64) (objects.ObjectHash, bool, bool) {
	e, ok := ds[path]
	if !ok || e.Size != size || e.MTime != mtime {
		return objects.ObjectHash{}, false, false
	}
	hash, err := objects.NewObjectHash(e.Hash)
	if err != nil {
		return objects.ObjectHash{}, false, false
	}
	return hash, e.Large, true
}

func (ds dirstate) record(path string, size, mtime int64, hash objects.ObjectHash, large bool) {
	ds[path] = dirstateEntry{Size: size, MTime: mtime, Hash: hash.String(), Large: large}
}
