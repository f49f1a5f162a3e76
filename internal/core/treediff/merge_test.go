package treediff

import (
	"bytes"
	"testing"

	"github.com/pipcet/ori/internal/core/objects"
)

// naiveMergeText only merges when one side left the base untouched.
func naiveMergeText(base, ours, theirs []byte) ([]byte, bool) {
	if bytes.Equal(base, ours) {
		return theirs, true
	}
	if bytes.Equal(base, theirs) {
		return ours, true
	}
	return nil, false
}

func mergeCtx(m *memStore) MergeContext {
	return MergeContext{GetBlob: m.getBlob, MergeText: naiveMergeText}
}

func TestMergeDisjointAdds(t *testing.T) {
	m := newMemStore()
	base := flatten(t, m, buildTree(t, m, map[string]string{"common.txt": "base"}))
	ours := flatten(t, m, buildTree(t, m, map[string]string{"common.txt": "base", "x.txt": "X"}))
	theirs := flatten(t, m, buildTree(t, m, map[string]string{"common.txt": "base", "y.txt": "Y"}))

	d1 := DiffTrees(base, ours)
	d2 := DiffTrees(base, theirs)

	res, err := Merge(d1, d2, mergeCtx(m))
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(res.Conflicts) != 0 {
		t.Fatalf("conflicts = %v, want none", res.Conflicts)
	}

	merged := res.Diff.Apply(base)
	for _, path := range []string{"common.txt", "x.txt", "y.txt"} {
		if _, ok := merged[path]; !ok {
			t.Errorf("merged tree is missing %s", path)
		}
	}
}

func TestMergeSameEdit(t *testing.T) {
	m := newMemStore()
	base := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "old"}))
	edited := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "new"}))

	d1 := DiffTrees(base, edited)
	d2 := DiffTrees(base, edited)

	res, err := Merge(d1, d2, mergeCtx(m))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Conflicts) != 0 {
		t.Fatalf("identical edits conflicted: %v", res.Conflicts)
	}
	if len(res.Diff.Entries) != 1 {
		t.Fatalf("identical edits adopted %d times, want once", len(res.Diff.Entries))
	}
}

func TestMergeBothModifyDifferently(t *testing.T) {
	m := newMemStore()
	base := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "base"}))
	ours := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "ours"}))
	theirs := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "theirs"}))

	d1 := DiffTrees(base, ours)
	d2 := DiffTrees(base, theirs)

	res, err := Merge(d1, d2, mergeCtx(m))
	if err != nil {
		t.Fatal(err)
	}

	// The naive text merger cannot reconcile two divergent edits.
	if len(res.Conflicts) != 1 || res.Conflicts[0].Path != "a.txt" {
		t.Fatalf("conflicts = %v, want exactly a.txt", res.Conflicts)
	}
	c := res.Conflicts[0]
	if c.Ours != objects.HashBytes([]byte("ours")) || c.Theirs != objects.HashBytes([]byte("theirs")) {
		t.Error("conflict does not carry both sides' hashes")
	}
}

func TestMergeContentMerge(t *testing.T) {
	m := newMemStore()
	base := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "base"}))
	ours := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "base"}))
	theirs := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "theirs", "other": "o"}))

	// Force a double-touch by modifying mode on our side.
	oursFlat := ours.Clone()
	e := oursFlat["a.txt"]
	e.Mode = 0755
	oursFlat["a.txt"] = e

	d1 := DiffTrees(base, oursFlat)
	d2 := DiffTrees(base, theirs)

	res, err := Merge(d1, d2, mergeCtx(m))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Conflicts) != 0 {
		t.Fatalf("conflicts = %v, want none (content merge should apply)", res.Conflicts)
	}

	for _, entry := range res.Diff.Entries {
		if entry.Path == "a.txt" {
			if string(entry.Blob) != "theirs" {
				t.Errorf("merged content = %q, want %q", entry.Blob, "theirs")
			}
			return
		}
	}
	t.Fatal("no merged entry for a.txt")
}

func TestMergeDeleteVersusModify(t *testing.T) {
	m := newMemStore()
	base := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "base", "keep": "k"}))
	deleted := flatten(t, m, buildTree(t, m, map[string]string{"keep": "k"}))
	modified := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "changed", "keep": "k"}))

	d1 := DiffTrees(base, deleted)
	d2 := DiffTrees(base, modified)

	res, err := Merge(d1, d2, mergeCtx(m))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].Path != "a.txt" {
		t.Fatalf("conflicts = %v, want a.txt", res.Conflicts)
	}
}

func TestMergeCommutative(t *testing.T) {
	m := newMemStore()
	base := flatten(t, m, buildTree(t, m, map[string]string{
		"a.txt": "base a",
		"b.txt": "base b",
		"c.txt": "base c",
	}))
	side1 := flatten(t, m, buildTree(t, m, map[string]string{
		"a.txt": "side1 a",
		"b.txt": "base b",
		"c.txt": "base c",
		"new1":  "n1",
	}))
	side2 := flatten(t, m, buildTree(t, m, map[string]string{
		"a.txt": "side2 a",
		"c.txt": "base c",
		"new2":  "n2",
	}))

	d1 := DiffTrees(base, side1)
	d2 := DiffTrees(base, side2)

	forward, err := Merge(d1, d2, mergeCtx(m))
	if err != nil {
		t.Fatal(err)
	}
	backward, err := Merge(d2, d1, mergeCtx(m))
	if err != nil {
		t.Fatal(err)
	}

	// Same conflict set in either order.
	if len(forward.Conflicts) != len(backward.Conflicts) {
		t.Fatalf("conflict counts differ: %d vs %d", len(forward.Conflicts), len(backward.Conflicts))
	}
	for i := range forward.Conflicts {
		if forward.Conflicts[i].Path != backward.Conflicts[i].Path {
			t.Errorf("conflict %d path = %s vs %s", i,
				forward.Conflicts[i].Path, backward.Conflicts[i].Path)
		}
	}

	// Same auto-merged tree in either order.
	f := forward.Diff.Apply(base)
	b := backward.Diff.Apply(base)
	if len(f) != len(b) {
		t.Fatalf("merged trees differ in size: %d vs %d", len(f), len(b))
	}
	for path, fe := range f {
		if be, ok := b[path]; !ok || be.Hash != fe.Hash {
			t.Errorf("merged trees disagree on %s", path)
		}
	}
}

func TestMergeChanges(t *testing.T) {
	m := newMemStore()
	base := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "base"}))
	ours := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "base", "x.txt": "X"}))
	theirs := flatten(t, m, buildTree(t, m, map[string]string{"a.txt": "base", "y.txt": "Y"}))

	d1 := DiffTrees(base, ours)
	d2 := DiffTrees(base, theirs)
	res, err := Merge(d1, d2, mergeCtx(m))
	if err != nil {
		t.Fatal(err)
	}

	// The working tree already has our side; only their addition remains.
	updates := MergeChanges(base, d1, res.Diff)
	if len(updates.Entries) != 1 {
		t.Fatalf("updates = %v, want just y.txt", updates.Entries)
	}
	if updates.Entries[0].Path != "y.txt" || updates.Entries[0].Type != NewFile {
		t.Errorf("update = %+v, want NewFile y.txt", updates.Entries[0])
	}
}
