package ori

import (
	"fmt"
	"strings"

	"github.com/pipcet/ori/internal/core/objects"
	"github.com/pipcet/ori/internal/core/treediff"
)

// The filesystem mount is an external collaborator; these are the engine
// operations it builds on.

// Resolve walks the tree of a commit to the entry at a slash-separated
// path. An empty path resolves to the commit's root tree.
func (r *Repository) Resolve(path string, commit objects.ObjectHash) (objects.TreeEntry, error) {
	c, err := r.GetCommit(commit)
	if err != nil {
		return objects.TreeEntry{}, err
	}

	current := objects.TreeEntry{Kind: objects.EntryDir, Hash: c.Tree}
	if path == "" || path == "/" {
		return current, nil
	}

	for _, name := range strings.Split(strings.Trim(path, "/"), "/") {
		if current.Kind != objects.EntryDir {
			return objects.TreeEntry{}, fmt.Errorf("%w: %s is not a directory", objects.ErrNotFound, current.Name)
		}
		tree, err := r.GetTree(current.Hash)
		if err != nil {
			return objects.TreeEntry{}, err
		}
		entry, ok := tree.Lookup(name)
		if !ok {
			return objects.TreeEntry{}, fmt.Errorf("%w: no entry %q in %s", objects.ErrNotFound, name, path)
		}
		current = entry
	}

	return current, nil
}

// ReadAt copies file contents into buf starting at off, for either a plain
// blob or a LargeBlob manifest.
func (r *Repository) ReadAt(hash objects.ObjectHash, buf []byte, off int64) (int, error) {
	obj, err := r.Get(hash)
	if err != nil {
		return 0, err
	}

	switch obj.Info.Kind {
	case objects.KindBlob:
		if off < 0 {
			return 0, fmt.Errorf("negative offset %d", off)
		}
		if off >= int64(len(obj.Payload)) {
			return 0, nil
		}
		return copy(buf, obj.Payload[off:]), nil

	case objects.KindLargeBlob:
		lb, err := objects.UnmarshalLargeBlob(obj.Payload)
		if err != nil {
			return 0, err
		}
		return lb.ReadAt(r.store, buf, off)

	default:
		return 0, fmt.Errorf("%w: %s is a %s, not file data", objects.ErrCorrupt, hash.Short(), obj.Info.Kind)
	}
}

// ExtractLargeBlob reconstructs a chunked file at path.
func (r *Repository) ExtractLargeBlob(lb *objects.LargeBlob, path string) error {
	return lb.Extract(r.store, path)
}

// StageTree applies a set of changes to the head tree and writes the
// resulting tree objects, returning the new root tree hash without touching
// the head. The mount stages its dirty files this way before committing.
func (r *Repository) StageTree(changes treediff.Diff) (objects.ObjectHash, error) {
	treeHash, err := r.headTreeHash()
	if err != nil {
		return objects.ObjectHash{}, err
	}

	flat, err := treediff.Flatten(r, treeHash)
	if err != nil {
		return objects.ObjectHash{}, err
	}

	return changes.ApplyTo(flat, r)
}
