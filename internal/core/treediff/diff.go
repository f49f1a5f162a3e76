package treediff

import (
	"sort"

	"github.com/pipcet/ori/internal/core/objects"
)

// EntryType classifies a single path-level change.
type EntryType byte

const (
	NewFile     EntryType = 'A'
	NewDir      EntryType = 'N'
	DeletedFile EntryType = 'D'
	DeletedDir  EntryType = 'd'
	Modified    EntryType = 'U'
)

// Entry is one path-level change in a tree diff. From and To carry the
// relevant object hashes; Mode and Large describe the target side, or the
// removed entry for deletions. Blob
// carries merged file content produced during a three-way content merge,
// before it has been written to the store.
type Entry struct {
	Type  EntryType
	Path  string
	From  objects.ObjectHash
	To    objects.ObjectHash
	Kind  objects.EntryKind
	Mode  uint32
	Large bool
	Blob  []byte
}

// Diff is an ordered sequence of path-level changes; entries are sorted
// lexicographically by path so diffs are deterministic.
type Diff struct {
	Entries []Entry
}

// DiffTrees computes the diff that transforms flat tree a into flat tree b:
// paths only in a are deletions, paths only in b are additions, and file or
// symlink paths in both whose target hash or mode differ are modifications.
// A path that changed kind is a deletion plus an addition. Directories
// present on both sides are never reported as modified, whatever their tree
// hashes; changes inside them appear only as entries for their children.
func DiffTrees(a, b FlatTree) Diff {
	var d Diff

	for path, ea := range a {
		eb, ok := b[path]
		if !ok {
			d.Entries = append(d.Entries, deleteEntry(path, ea))
			continue
		}
		if ea.Kind != eb.Kind {
			// A path that changed kind is a delete plus an add.
			d.Entries = append(d.Entries, deleteEntry(path, ea))
			d.Entries = append(d.Entries, newEntry(path, eb))
			continue
		}
		if ea.Kind == objects.EntryDir {
			// Directories have no content of their own; their
			// changes surface through their children.
			continue
		}
		if ea.Hash != eb.Hash || ea.Mode != eb.Mode {
			d.Entries = append(d.Entries, Entry{
				Type:  Modified,
				Path:  path,
				From:  ea.Hash,
				To:    eb.Hash,
				Kind:  eb.Kind,
				Mode:  eb.Mode,
				Large: eb.Large,
			})
		}
	}

	for path, eb := range b {
		if _, ok := a[path]; !ok {
			d.Entries = append(d.Entries, newEntry(path, eb))
		}
	}

	d.sort()
	return d
}

func newEntry(path string, e objects.TreeEntry) Entry {
	t := NewFile
	if e.Kind == objects.EntryDir {
		t = NewDir
	}
	return Entry{Type: t, Path: path, To: e.Hash, Kind: e.Kind, Mode: e.Mode, Large: e.Large}
}

func deleteEntry(path string, e objects.TreeEntry) Entry {
	t := DeletedFile
	if e.Kind == objects.EntryDir {
		t = DeletedDir
	}
	return Entry{Type: t, Path: path, From: e.Hash, Kind: e.Kind, Mode: e.Mode, Large: e.Large}
}

func (d *Diff) sort() {
	sort.SliceStable(d.Entries, func(i, j int) bool {
		if d.Entries[i].Path != d.Entries[j].Path {
			return d.Entries[i].Path < d.Entries[j].Path
		}
		// Delete-then-add for kind changes on the same path.
		return d.Entries[i].isDelete() && !d.Entries[j].isDelete()
	})
}

func (e Entry) isDelete() bool {
	return e.Type == DeletedFile || e.Type == DeletedDir
}

// Apply interprets the diff as a mutation over a flat tree and returns the
// resulting flat tree. The input is not modified.
func (d Diff) Apply(ft FlatTree) FlatTree {
	out := ft.Clone()

	for _, e := range d.Entries {
		switch e.Type {
		case DeletedFile, DeletedDir:
			delete(out, e.Path)
		case NewFile, NewDir, Modified:
			out[e.Path] = objects.TreeEntry{
				Name:  baseName(e.Path),
				Kind:  e.Kind,
				Mode:  e.Mode,
				Hash:  e.To,
				Large: e.Large,
			}
		}
	}

	return out
}

// ApplyTo applies the diff to a flat tree and folds the result into nested
// tree objects, returning the new root tree hash.
func (d Diff) ApplyTo(ft FlatTree, adder TreeAdder) (objects.ObjectHash, error) {
	return Fold(d.Apply(ft), adder)
}

// Empty reports whether the diff has no entries.
func (d Diff) Empty() bool {
	return len(d.Entries) == 0
}
