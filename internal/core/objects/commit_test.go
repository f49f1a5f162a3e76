package objects

import (
	"errors"
	"testing"
	"time"
)

func TestCommitRoundTrip(t *testing.T) {
	when := time.Unix(1700000000, 0).UTC()
	c := NewCommit(HashBytes([]byte("tree")), HashBytes([]byte("p1")), EmptyCommit,
		"alice@example", when, "first commit")

	data, err := c.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	parsed, err := UnmarshalCommit(data)
	if err != nil {
		t.Fatalf("UnmarshalCommit() error = %v", err)
	}

	if parsed.Tree != c.Tree || parsed.Parent1 != c.Parent1 || parsed.Parent2 != c.Parent2 {
		t.Error("hashes changed in round-trip")
	}
	if parsed.Author != c.Author || parsed.Message != c.Message {
		t.Error("strings changed in round-trip")
	}
	if !parsed.Time.Equal(when) {
		t.Errorf("time = %v, want %v", parsed.Time, when)
	}
}

func TestCommitIsMerge(t *testing.T) {
	plain := NewCommit(HashBytes([]byte("t")), HashBytes([]byte("p1")), EmptyCommit, "a", time.Unix(0, 0), "m")
	if plain.IsMerge() {
		t.Error("single-parent commit reported as merge")
	}
	if len(plain.Parents()) != 1 {
		t.Errorf("Parents() = %d, want 1", len(plain.Parents()))
	}

	merge := NewCommit(HashBytes([]byte("t")), HashBytes([]byte("p1")), HashBytes([]byte("p2")), "a", time.Unix(0, 0), "m")
	if !merge.IsMerge() {
		t.Error("two-parent commit not reported as merge")
	}
	if len(merge.Parents()) != 2 {
		t.Errorf("Parents() = %d, want 2", len(merge.Parents()))
	}

	root := NewCommit(HashBytes([]byte("t")), EmptyCommit, EmptyCommit, "a", time.Unix(0, 0), "m")
	if len(root.Parents()) != 0 {
		t.Errorf("root Parents() = %d, want 0", len(root.Parents()))
	}
}

func TestUnmarshalCommitIdenticalParents(t *testing.T) {
	p := HashBytes([]byte("p"))
	c := NewCommit(HashBytes([]byte("t")), p, p, "a", time.Unix(0, 0), "m")
	data, err := c.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := UnmarshalCommit(data); !errors.Is(err, ErrCorrupt) {
		t.Errorf("identical parents error = %v, want ErrCorrupt", err)
	}
}

func TestCommitHashDeterministic(t *testing.T) {
	when := time.Unix(1700000000, 0)
	c1 := NewCommit(HashBytes([]byte("t")), HashBytes([]byte("p")), EmptyCommit, "a", when, "m")
	c2 := NewCommit(HashBytes([]byte("t")), HashBytes([]byte("p")), EmptyCommit, "a", when, "m")

	h1, _ := c1.Hash()
	h2, _ := c2.Hash()
	if h1 != h2 {
		t.Error("equal commits hash differently")
	}
}
