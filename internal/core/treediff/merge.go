package treediff

import (
	"fmt"

	"github.com/pipcet/ori/internal/core/objects"
)

// Conflict records a path the merge could not resolve automatically.
type Conflict struct {
	Path   string
	Base   objects.ObjectHash
	Ours   objects.ObjectHash
	Theirs objects.ObjectHash
}

// MergeResult is the outcome of a three-way merge: the combined diff against
// the common ancestor, and the paths needing user resolution. Entries for
// automatically content-merged files carry the merged bytes in Blob with an
// unset To hash; the caller stores the blob and fills the hash in.
type MergeResult struct {
	Diff      Diff
	Conflicts []Conflict
}

// MergeContext supplies the collaborators a content merge needs: payload
// access for blobs, and a line-level text merger. MergeText returns the
// merged content and whether the merge succeeded.
type MergeContext struct {
	GetBlob   func(hash objects.ObjectHash) ([]byte, error)
	MergeText func(base, ours, theirs []byte) ([]byte, bool)
}

// Merge combines two diffs taken against a common ancestor. A path touched
// by exactly one side adopts that side's change; identical edits are adopted
// once; delete-versus-modify and irreconcilable double edits become
// conflicts. When both sides modify a file to different contents the text
// merger is consulted before declaring a conflict.
func Merge(d1, d2 Diff, ctx MergeContext) (MergeResult, error) {
	byPath1 := entriesByPath(d1)
	byPath2 := entriesByPath(d2)

	var res MergeResult

	for path, e1 := range byPath1 {
		e2, both := byPath2[path]
		if !both {
			res.Diff.Entries = append(res.Diff.Entries, e1...)
			continue
		}

		merged, conflict, err := mergePath(path, e1, e2, ctx)
		if err != nil {
			return MergeResult{}, err
		}
		if conflict != nil {
			res.Conflicts = append(res.Conflicts, *conflict)
			continue
		}
		res.Diff.Entries = append(res.Diff.Entries, merged...)
	}

	for path, e2 := range byPath2 {
		if _, both := byPath1[path]; !both {
			res.Diff.Entries = append(res.Diff.Entries, e2...)
		}
	}

	res.Diff.sort()
	sortConflicts(res.Conflicts)
	return res, nil
}

// mergePath reconciles one path edited by both sides. Each side's entries
// are either a single change or a delete-plus-add pair for a kind change;
// kind changes on both sides never auto-merge.
func mergePath(path string, e1, e2 []Entry, ctx MergeContext) ([]Entry, *Conflict, error) {
	if len(e1) != 1 || len(e2) != 1 {
		return nil, conflictFor(path, e1, e2), nil
	}
	a, b := e1[0], e2[0]

	if sameChange(a, b) {
		return []Entry{a}, nil, nil
	}

	if a.isDelete() || b.isDelete() {
		// One side deleted, the other changed: user decides.
		return nil, conflictFor(path, e1, e2), nil
	}

	if a.Kind == objects.EntryDir && b.Kind == objects.EntryDir {
		// Both created the directory; children merge on their own.
		return []Entry{a}, nil, nil
	}

	if a.Kind != b.Kind || a.Large || b.Large {
		return nil, conflictFor(path, e1, e2), nil
	}

	// Both sides produced different blob contents: attempt a content merge.
	if ctx.GetBlob == nil || ctx.MergeText == nil {
		return nil, conflictFor(path, e1, e2), nil
	}

	base := []byte{}
	if !a.From.IsEmpty() {
		var err error
		if base, err = ctx.GetBlob(a.From); err != nil {
			return nil, nil, fmt.Errorf("failed to load merge base for %s: %w", path, err)
		}
	}
	ours, err := ctx.GetBlob(a.To)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load our side of %s: %w", path, err)
	}
	theirs, err := ctx.GetBlob(b.To)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load their side of %s: %w", path, err)
	}

	if !isText(base) || !isText(ours) || !isText(theirs) {
		return nil, conflictFor(path, e1, e2), nil
	}

	mergedContent, ok := ctx.MergeText(base, ours, theirs)
	if !ok {
		return nil, conflictFor(path, e1, e2), nil
	}

	merged := a
	merged.Type = Modified
	merged.To = objects.ObjectHash{}
	merged.Blob = mergedContent
	if a.Type == NewFile && b.Type == NewFile {
		merged.Type = NewFile
	}
	return []Entry{merged}, nil, nil
}

func sameChange(a, b Entry) bool {
	return a.Type == b.Type && a.To == b.To && a.Mode == b.Mode && a.Large == b.Large
}

func conflictFor(path string, e1, e2 []Entry) *Conflict {
	c := &Conflict{Path: path}
	if len(e1) > 0 {
		c.Base = e1[0].From
		c.Ours = e1[0].To
	}
	if len(e2) > 0 {
		c.Theirs = e2[0].To
	}
	return c
}

func entriesByPath(d Diff) map[string][]Entry {
	m := make(map[string][]Entry)
	for _, e := range d.Entries {
		m[e.Path] = append(m[e.Path], e)
	}
	return m
}

func sortConflicts(cs []Conflict) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].Path < cs[j-1].Path; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

// MergeChanges computes the working-directory updates for a merge: the diff
// from the tree currently checked out (the ancestor plus d1) to the merged
// tree (the ancestor plus the merge diff). Merged-entry blobs must already
// have been stored and their To hashes filled in.
func MergeChanges(base FlatTree, d1, merged Diff) Diff {
	ours := d1.Apply(base)
	result := merged.Apply(base)
	return DiffTrees(ours, result)
}

func isText(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return true
}
