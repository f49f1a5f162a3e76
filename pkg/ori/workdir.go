package ori

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pipcet/ori/internal/core/objects"
	"github.com/pipcet/ori/internal/core/treediff"
)

// workingFlat scans the working directory into a flat tree, hashing files
// opportunistically through the dirstate cache. Directory entries carry no
// hash; their tree hashes are recomputed when the flat tree is folded.
func (r *Repository) workingFlat() (treediff.FlatTree, error) {
	flat := make(treediff.FlatTree)
	ds := r.loadDirstate()
	dirty := false

	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == oriDirName {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		entry := objects.TreeEntry{Name: d.Name()}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read symlink %s: %w", rel, err)
			}
			entry.Kind = objects.EntrySymlink
			entry.Mode = 0777
			entry.Hash = objects.HashBytes([]byte(target))

		case info.IsDir():
			entry.Kind = objects.EntryDir
			entry.Mode = uint32(info.Mode().Perm())

		default:
			entry.Kind = objects.EntryFile
			entry.Mode = uint32(info.Mode().Perm())

			mtime := info.ModTime().UnixNano()
			hash, large, ok := ds.lookup(rel, info.Size(), mtime)
			if !ok {
				hash, large, err = r.fileTargetHash(path, info.Size())
				if err != nil {
					return err
				}
				ds.record(rel, info.Size(), mtime, hash, large)
				dirty = true
			}
			entry.Hash = hash
			entry.Large = large
		}

		flat[rel] = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	if dirty {
		if err := r.saveDirstate(ds); err != nil {
			r.log.WithError(err).Warn("failed to update dirstate cache")
		}
	}

	return flat, nil
}

// WorkingDiff computes the diff from the head tree to the working
// directory.
func (r *Repository) WorkingDiff() (treediff.Diff, treediff.FlatTree, error) {
	treeHash, err := r.headTreeHash()
	if err != nil {
		return treediff.Diff{}, nil, err
	}

	headFlat, err := treediff.Flatten(r, treeHash)
	if err != nil {
		return treediff.Diff{}, nil, err
	}

	workFlat, err := r.workingFlat()
	if err != nil {
		return treediff.Diff{}, nil, err
	}

	return treediff.DiffTrees(headFlat, workFlat), headFlat, nil
}

// materializeFile writes the object behind a tree entry to path.
func (r *Repository) materializeFile(path string, e treediff.Entry) error {
	switch e.Kind {
	case objects.EntrySymlink:
		obj, err := r.Get(e.To)
		if err != nil {
			return err
		}
		os.Remove(path)
		return os.Symlink(string(obj.Payload), path)

	case objects.EntryFile:
		if e.Large {
			lb, err := r.GetLargeBlob(e.To)
			if err != nil {
				return err
			}
			return lb.Extract(r.store, path)
		}

		obj, err := r.Get(e.To)
		if err != nil {
			return err
		}
		mode := os.FileMode(e.Mode)
		if mode == 0 {
			mode = 0644
		}
		return os.WriteFile(path, obj.Payload, mode)

	default:
		return fmt.Errorf("cannot materialize %s entry %s", e.Kind, e.Path)
	}
}

// applyDiffToWorkdir updates the working directory with a diff: creations
// and modifications first in path order (parents before children), then
// deletions deepest-first.
func (r *Repository) applyDiffToWorkdir(d treediff.Diff) error {
	var deletes []treediff.Entry

	for _, e := range d.Entries {
		path := filepath.Join(r.root, filepath.FromSlash(e.Path))

		switch e.Type {
		case treediff.NewDir:
			if err := os.MkdirAll(path, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", e.Path, err)
			}
		case treediff.NewFile, treediff.Modified:
			if err := r.materializeFile(path, e); err != nil {
				return fmt.Errorf("failed to materialize %s: %w", e.Path, err)
			}
		case treediff.DeletedFile, treediff.DeletedDir:
			deletes = append(deletes, e)
		}
	}

	// Children before parents.
	sort.Slice(deletes, func(i, j int) bool {
		return deletes[i].Path > deletes[j].Path
	})
	for _, e := range deletes {
		path := filepath.Join(r.root, filepath.FromSlash(e.Path))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", e.Path, err)
		}
	}

	return nil
}

// Checkout materializes the given commit into the working directory and
// moves the head to it.
func (r *Repository) Checkout(hash objects.ObjectHash) error {
	if err := r.Lock(); err != nil {
		return err
	}
	defer r.Unlock()

	c, err := r.GetCommit(hash)
	if err != nil {
		return err
	}

	targetFlat, err := treediff.Flatten(r, c.Tree)
	if err != nil {
		return err
	}
	workFlat, err := r.workingFlat()
	if err != nil {
		return err
	}

	diff := treediff.DiffTrees(workFlat, targetFlat)
	if err := r.applyDiffToWorkdir(diff); err != nil {
		return err
	}

	r.log.WithField("commit", hash.String()).Info("checkout")
	return r.updateHead(hash)
}
