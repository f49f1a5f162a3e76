package ori

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/pipcet/ori/internal/core/dag"
	"github.com/pipcet/ori/internal/core/objects"
	"github.com/pipcet/ori/internal/core/treediff"
)

// MergeOutcome summarizes a merge for the caller: the working-directory
// updates applied and the paths left conflicted.
type MergeOutcome struct {
	LCA       objects.ObjectHash
	Updates   treediff.Diff
	Conflicts []treediff.Conflict
}

// Merge three-way merges the given commit into the current head: it finds
// the lowest common ancestor, merges both sides' diffs against it, updates
// the working directory, and records the merge state (both parents plus any
// conflicts) for the subsequent commit. Conflicted files are left in the
// working directory with conflict markers.
func (r *Repository) Merge(other objects.ObjectHash) (*MergeOutcome, error) {
	if err := r.Lock(); err != nil {
		return nil, err
	}
	defer r.Unlock()

	p1, err := r.Head()
	if err != nil {
		return nil, err
	}
	if p1.IsEmpty() {
		return nil, fmt.Errorf("cannot merge into an empty repository")
	}
	if p1 == other {
		return nil, fmt.Errorf("cannot merge a commit into itself")
	}

	c1, err := r.GetCommit(p1)
	if err != nil {
		return nil, err
	}
	c2, err := r.GetCommit(other)
	if err != nil {
		return nil, err
	}

	lca, err := dag.FindLCA(r, p1, other)
	if err != nil {
		return nil, err
	}

	// Disjoint histories merge against the empty tree.
	baseFlat := make(treediff.FlatTree)
	if !lca.IsEmpty() {
		cc, err := r.GetCommit(lca)
		if err != nil {
			return nil, err
		}
		if baseFlat, err = treediff.Flatten(r, cc.Tree); err != nil {
			return nil, err
		}
	}

	flat1, err := treediff.Flatten(r, c1.Tree)
	if err != nil {
		return nil, err
	}
	flat2, err := treediff.Flatten(r, c2.Tree)
	if err != nil {
		return nil, err
	}

	d1 := treediff.DiffTrees(baseFlat, flat1)
	d2 := treediff.DiffTrees(baseFlat, flat2)

	res, err := treediff.Merge(d1, d2, treediff.MergeContext{
		GetBlob:   r.blobPayload,
		MergeText: mergeText,
	})
	if err != nil {
		return nil, err
	}

	// Store the content-merged blobs and fill in their hashes.
	for i, e := range res.Diff.Entries {
		if e.Blob == nil {
			continue
		}
		hash, err := r.AddBlob(e.Blob)
		if err != nil {
			return nil, err
		}
		res.Diff.Entries[i].To = hash
		res.Diff.Entries[i].Blob = nil
	}

	state := &MergeState{Parent1: p1.String(), Parent2: other.String()}
	for _, c := range res.Conflicts {
		state.Conflicts = append(state.Conflicts, c.Path)
	}
	if err := r.setMergeState(state); err != nil {
		return nil, err
	}

	updates := treediff.MergeChanges(baseFlat, d1, res.Diff)
	if err := r.applyDiffToWorkdir(updates); err != nil {
		return nil, err
	}

	for _, c := range res.Conflicts {
		if err := r.writeConflictMarkers(c); err != nil {
			return nil, err
		}
	}

	r.log.WithFields(map[string]interface{}{
		"ours":      p1.String(),
		"theirs":    other.String(),
		"lca":       lca.String(),
		"conflicts": len(res.Conflicts),
	}).Info("merge")

	return &MergeOutcome{LCA: lca, Updates: updates, Conflicts: res.Conflicts}, nil
}

// blobPayload fetches the raw contents behind a blob hash.
func (r *Repository) blobPayload(hash objects.ObjectHash) ([]byte, error) {
	obj, err := r.Get(hash)
	if err != nil {
		return nil, err
	}
	return obj.Payload, nil
}

// writeConflictMarkers leaves a conflicted file in the working directory
// with both sides delimited, so the user can resolve it in place.
func (r *Repository) writeConflictMarkers(c treediff.Conflict) error {
	var ours, theirs []byte
	if !c.Ours.IsEmpty() {
		if payload, err := r.blobPayload(c.Ours); err == nil {
			ours = payload
		}
	}
	if !c.Theirs.IsEmpty() {
		if payload, err := r.blobPayload(c.Theirs); err == nil {
			theirs = payload
		}
	}

	content := make([]byte, 0, len(ours)+len(theirs)+64)
	content = append(content, []byte("<<<<<<< ours\n")...)
	content = append(content, ours...)
	content = append(content, []byte("=======\n")...)
	content = append(content, theirs...)
	content = append(content, []byte(">>>>>>> theirs\n")...)

	path := filepath.Join(r.root, filepath.FromSlash(c.Path))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", c.Path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write conflict markers to %s: %w", c.Path, err)
	}
	return nil
}

// mergeText merges two derived texts by replaying their-side edits onto our
// side. It succeeds only when every hunk applies cleanly.
func mergeText(base, ours, theirs []byte) ([]byte, bool) {
	dmp := diffmatchpatch.New()
	// A hunk applies only where its context occurs verbatim in our side;
	// the location may shift, but fuzzy matches are rejected.
	dmp.MatchThreshold = 0.01
	dmp.MatchDistance = 1 << 30
	dmp.PatchDeleteThreshold = 0
	patches := dmp.PatchMake(string(base), string(theirs))
	merged, applied := dmp.PatchApply(patches, string(ours))
	for _, ok := range applied {
		if !ok {
			return nil, false
		}
	}
	return []byte(merged), true
}
