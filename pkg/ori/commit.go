package ori

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pipcet/ori/internal/core/objects"
	"github.com/pipcet/ori/internal/core/treediff"
)

// Commit records the outstanding working-directory changes as a new commit
// and advances the head. With no changes and no pending merge it fails with
// ErrNothingToCommit; with unresolved conflicts it fails with
// ErrMergeConflict.
func (r *Repository) Commit(message string) (objects.ObjectHash, error) {
	if err := r.Lock(); err != nil {
		return objects.ObjectHash{}, err
	}
	defer r.Unlock()

	state, err := r.MergeState()
	if err != nil {
		return objects.ObjectHash{}, err
	}
	if state != nil && len(state.Conflicts) > 0 {
		return objects.ObjectHash{}, fmt.Errorf("%w: %v", ErrMergeConflict, state.Conflicts)
	}

	diff, headFlat, err := r.WorkingDiff()
	if err != nil {
		return objects.ObjectHash{}, err
	}
	if diff.Empty() && state == nil {
		return objects.ObjectHash{}, ErrNothingToCommit
	}

	// Store the objects behind every added or modified file.
	for i, e := range diff.Entries {
		if e.Type != treediff.NewFile && e.Type != treediff.Modified {
			continue
		}

		switch e.Kind {
		case objects.EntrySymlink:
			link, err := os.Readlink(filepath.Join(r.root, filepath.FromSlash(e.Path)))
			if err != nil {
				return objects.ObjectHash{}, fmt.Errorf("failed to read symlink %s: %w", e.Path, err)
			}
			hash, err := r.AddBlob([]byte(link))
			if err != nil {
				return objects.ObjectHash{}, err
			}
			diff.Entries[i].To = hash

		case objects.EntryFile:
			kind, hash, err := r.AddFile(filepath.Join(r.root, filepath.FromSlash(e.Path)))
			if err != nil {
				return objects.ObjectHash{}, err
			}
			diff.Entries[i].To = hash
			diff.Entries[i].Large = kind == objects.KindLargeBlob
		}
	}

	treeHash, err := diff.ApplyTo(headFlat, r)
	if err != nil {
		return objects.ObjectHash{}, err
	}

	return r.commitFromTree(treeHash, message, state)
}

// commitFromTree writes a commit for the given tree with parent1 = head and
// parent2 from the pending merge state (clearing it), then advances the
// head. The head update is the commit point; a failure before it leaves the
// repository unchanged.
func (r *Repository) commitFromTree(tree objects.ObjectHash, message string, state *MergeState) (objects.ObjectHash, error) {
	head, err := r.Head()
	if err != nil {
		return objects.ObjectHash{}, err
	}

	parent2 := objects.EmptyCommit
	if state != nil {
		_, p2, err := state.Parents()
		if err != nil {
			return objects.ObjectHash{}, err
		}
		parent2 = p2
	}
	if parent2 == head {
		parent2 = objects.EmptyCommit
	}

	commit := objects.NewCommit(tree, head, parent2, Author(), time.Now(), message)
	hash, err := r.AddCommit(commit)
	if err != nil {
		return objects.ObjectHash{}, err
	}

	if err := r.updateHead(hash); err != nil {
		return objects.ObjectHash{}, err
	}
	if err := r.clearMergeState(); err != nil {
		return objects.ObjectHash{}, err
	}

	r.log.WithFields(map[string]interface{}{
		"commit":  hash.String(),
		"tree":    tree.String(),
		"message": message,
	}).Info("commit")

	return hash, nil
}

// CommitFromTree writes a commit for an externally staged tree, consuming
// any pending merge state. This is the commit path used by the filesystem
// mount after StageTree.
func (r *Repository) CommitFromTree(tree objects.ObjectHash, message string) (objects.ObjectHash, error) {
	if err := r.Lock(); err != nil {
		return objects.ObjectHash{}, err
	}
	defer r.Unlock()

	state, err := r.MergeState()
	if err != nil {
		return objects.ObjectHash{}, err
	}
	if state != nil && len(state.Conflicts) > 0 {
		return objects.ObjectHash{}, fmt.Errorf("%w: %v", ErrMergeConflict, state.Conflicts)
	}

	return r.commitFromTree(tree, message, state)
}
