package objects

import (
	"testing"
)

func testEntry(name string, kind EntryKind, seed string) TreeEntry {
	return TreeEntry{Name: name, Kind: kind, Mode: 0644, Hash: HashBytes([]byte(seed))}
}

func TestTreeRoundTrip(t *testing.T) {
	tree := NewTree()
	entries := []TreeEntry{
		testEntry("b.txt", EntryFile, "b"),
		testEntry("a.txt", EntryFile, "a"),
		{Name: "sub", Kind: EntryDir, Mode: 0755, Hash: HashBytes([]byte("sub"))},
		{Name: "link", Kind: EntrySymlink, Mode: 0777, Hash: HashBytes([]byte("target"))},
		{Name: "big.bin", Kind: EntryFile, Mode: 0644, Hash: HashBytes([]byte("big")), Large: true},
	}
	for _, e := range entries {
		if err := tree.AddEntry(e); err != nil {
			t.Fatalf("AddEntry(%s) error = %v", e.Name, err)
		}
	}

	data, err := tree.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	parsed, err := UnmarshalTree(data)
	if err != nil {
		t.Fatalf("UnmarshalTree() error = %v", err)
	}
	if len(parsed.Entries()) != len(entries) {
		t.Fatalf("parsed %d entries, want %d", len(parsed.Entries()), len(entries))
	}

	for _, want := range entries {
		got, ok := parsed.Lookup(want.Name)
		if !ok {
			t.Fatalf("entry %s missing after round-trip", want.Name)
		}
		if got != want {
			t.Errorf("entry %s = %+v, want %+v", want.Name, got, want)
		}
	}
}

func TestTreeHashOrderIndependent(t *testing.T) {
	// Canonical serialization sorts entries, so insertion order must not
	// affect the hash.
	t1 := NewTree()
	t1.AddEntry(testEntry("a", EntryFile, "a"))
	t1.AddEntry(testEntry("b", EntryFile, "b"))

	t2 := NewTree()
	t2.AddEntry(testEntry("b", EntryFile, "b"))
	t2.AddEntry(testEntry("a", EntryFile, "a"))

	h1, err := t1.Hash()
	if err != nil {
		t.Fatal(err)
	}
	h2, err := t2.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("hashes differ with insertion order: %s vs %s", h1, h2)
	}
}

func TestTreeAddEntryRejects(t *testing.T) {
	tree := NewTree()
	if err := tree.AddEntry(testEntry("a", EntryFile, "a")); err != nil {
		t.Fatal(err)
	}

	if err := tree.AddEntry(testEntry("a", EntryFile, "other")); err == nil {
		t.Error("duplicate name accepted")
	}
	if err := tree.AddEntry(testEntry("", EntryFile, "x")); err == nil {
		t.Error("empty name accepted")
	}
	if err := tree.AddEntry(testEntry("a/b", EntryFile, "x")); err == nil {
		t.Error("name with '/' accepted")
	}
}

func TestUnmarshalTreeCorrupt(t *testing.T) {
	if _, err := UnmarshalTree([]byte{1, 2}); err == nil {
		t.Error("UnmarshalTree() on garbage succeeded")
	}
}
