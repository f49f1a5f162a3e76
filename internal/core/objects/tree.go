package objects

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/pipcet/ori/internal/core/wire"
)

// EntryKind distinguishes the three kinds of directory entry.
type EntryKind uint8

const (
	EntryFile EntryKind = iota + 1
	EntryDir
	EntrySymlink
)

// String returns a human-readable name for the entry kind.
func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDir:
		return "dir"
	case EntrySymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

const entryFlagLarge = 0x1

// TreeEntry is a single named entry in a tree: a file, subdirectory or
// symlink. Large marks a file entry whose target is a LargeBlob manifest
// rather than a plain Blob.
type TreeEntry struct {
	Name  string
	Kind  EntryKind
	Mode  uint32
	Hash  ObjectHash
	Large bool
}

// Tree is an ordered set of directory entries.
type Tree struct {
	entries []TreeEntry
}

// NewTree creates an empty tree object.
func NewTree() *Tree {
	return &Tree{entries: make([]TreeEntry, 0)}
}

// AddEntry adds an entry to the tree. Names must be unique within a tree and
// must not contain '/'.
func (t *Tree) AddEntry(e TreeEntry) error {
	if e.Name == "" {
		return fmt.Errorf("entry name cannot be empty")
	}
	if strings.ContainsRune(e.Name, '/') {
		return fmt.Errorf("entry name %q contains '/'", e.Name)
	}

	for _, existing := range t.entries {
		if existing.Name == e.Name {
			return fmt.Errorf("duplicate entry name: %s", e.Name)
		}
	}

	t.entries = append(t.entries, e)
	return nil
}

// Entries returns all tree entries.
func (t *Tree) Entries() []TreeEntry {
	return t.entries
}

// Lookup returns the entry with the given name, if present.
func (t *Tree) Lookup(name string) (TreeEntry, bool) {
	for _, e := range t.entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// Marshal serializes the tree into its canonical byte form. Entries are
// sorted by name so equal trees always produce equal bytes.
func (t *Tree) Marshal() ([]byte, error) {
	sorted := make([]TreeEntry, len(t.entries))
	copy(sorted, t.entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	w := wire.NewWriter(&buf)

	if err := w.WriteUint32(uint32(len(sorted))); err != nil {
		return nil, err
	}
	for _, e := range sorted {
		if err := w.WritePStr(e.Name); err != nil {
			return nil, err
		}
		if err := w.WriteUint8(uint8(e.Kind)); err != nil {
			return nil, err
		}
		if err := w.WriteUint32(e.Mode); err != nil {
			return nil, err
		}
		var flags uint8
		if e.Large {
			flags |= entryFlagLarge
		}
		if err := w.WriteUint8(flags); err != nil {
			return nil, err
		}
		if err := w.WriteHash(e.Hash); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Hash returns the object hash of the tree's canonical bytes.
func (t *Tree) Hash() (ObjectHash, error) {
	data, err := t.Marshal()
	if err != nil {
		return ObjectHash{}, err
	}
	return HashBytes(data), nil
}

// UnmarshalTree parses a tree from its canonical byte form.
func UnmarshalTree(data []byte) (*Tree, error) {
	r := wire.NewReader(bytes.NewReader(data))

	count, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: bad tree header: %v", ErrCorrupt, err)
	}

	tree := NewTree()
	for i := uint32(0); i < count; i++ {
		var e TreeEntry
		if e.Name, err = r.ReadPStr(); err != nil {
			return nil, fmt.Errorf("%w: bad tree entry name: %v", ErrCorrupt, err)
		}
		kind, err := r.ReadUint8()
		if err != nil {
			return nil, fmt.Errorf("%w: bad tree entry kind: %v", ErrCorrupt, err)
		}
		e.Kind = EntryKind(kind)
		if e.Mode, err = r.ReadUint32(); err != nil {
			return nil, fmt.Errorf("%w: bad tree entry mode: %v", ErrCorrupt, err)
		}
		flags, err := r.ReadUint8()
		if err != nil {
			return nil, fmt.Errorf("%w: bad tree entry flags: %v", ErrCorrupt, err)
		}
		e.Large = flags&entryFlagLarge != 0
		if e.Hash, err = r.ReadHash(); err != nil {
			return nil, fmt.Errorf("%w: bad tree entry hash: %v", ErrCorrupt, err)
		}

		if err := tree.AddEntry(e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}

	return tree, nil
}
