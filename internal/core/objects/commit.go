package objects

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pipcet/ori/internal/core/wire"
)

// Commit records a snapshot of the tree together with its ancestry. A commit
// with a non-empty second parent is a merge commit.
type Commit struct {
	Parent1 ObjectHash
	Parent2 ObjectHash
	Tree    ObjectHash
	Author  string
	Time    time.Time
	Message string
}

// NewCommit creates a commit object.
func NewCommit(tree ObjectHash, parent1, parent2 ObjectHash, author string, when time.Time, message string) *Commit {
	return &Commit{
		Parent1: parent1,
		Parent2: parent2,
		Tree:    tree,
		Author:  author,
		Time:    when,
		Message: message,
	}
}

// IsMerge returns true if the commit has a second parent.
func (c *Commit) IsMerge() bool {
	return !c.Parent2.IsEmpty()
}

// Parents returns the non-empty parent hashes.
func (c *Commit) Parents() []ObjectHash {
	var parents []ObjectHash
	if !c.Parent1.IsEmpty() {
		parents = append(parents, c.Parent1)
	}
	if !c.Parent2.IsEmpty() {
		parents = append(parents, c.Parent2)
	}
	return parents
}

// Marshal serializes the commit into its canonical byte form.
func (c *Commit) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)

	if err := w.WriteHash(c.Parent1); err != nil {
		return nil, err
	}
	if err := w.WriteHash(c.Parent2); err != nil {
		return nil, err
	}
	if err := w.WriteHash(c.Tree); err != nil {
		return nil, err
	}
	if err := w.WritePStr(c.Author); err != nil {
		return nil, err
	}
	if err := w.WriteUint64(uint64(c.Time.Unix())); err != nil {
		return nil, err
	}
	if err := w.WritePStr(c.Message); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Hash returns the object hash of the commit's canonical bytes.
func (c *Commit) Hash() (ObjectHash, error) {
	data, err := c.Marshal()
	if err != nil {
		return ObjectHash{}, err
	}
	return HashBytes(data), nil
}

// UnmarshalCommit parses a commit from its canonical byte form.
func UnmarshalCommit(data []byte) (*Commit, error) {
	r := wire.NewReader(bytes.NewReader(data))
	c := &Commit{}

	var err error
	if c.Parent1, err = r.ReadHash(); err != nil {
		return nil, fmt.Errorf("%w: bad commit parent1: %v", ErrCorrupt, err)
	}
	if c.Parent2, err = r.ReadHash(); err != nil {
		return nil, fmt.Errorf("%w: bad commit parent2: %v", ErrCorrupt, err)
	}
	if c.Tree, err = r.ReadHash(); err != nil {
		return nil, fmt.Errorf("%w: bad commit tree: %v", ErrCorrupt, err)
	}
	if c.Author, err = r.ReadPStr(); err != nil {
		return nil, fmt.Errorf("%w: bad commit author: %v", ErrCorrupt, err)
	}
	secs, err := r.ReadUint64()
	if err != nil {
		return nil, fmt.Errorf("%w: bad commit timestamp: %v", ErrCorrupt, err)
	}
	c.Time = time.Unix(int64(secs), 0).UTC()
	if c.Message, err = r.ReadPStr(); err != nil {
		return nil, fmt.Errorf("%w: bad commit message: %v", ErrCorrupt, err)
	}

	if !c.Parent2.IsEmpty() && c.Parent1 == c.Parent2 {
		return nil, fmt.Errorf("%w: merge commit with identical parents", ErrCorrupt)
	}

	return c, nil
}
