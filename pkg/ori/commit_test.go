package ori

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipcet/ori/internal/core/objects"
	"github.com/pipcet/ori/internal/core/treediff"
)

func TestCommitAndDiff(t *testing.T) {
	repo := newTestRepo(t)

	// First commit: a.txt.
	writeFile(t, repo, "a.txt", "A")
	h1, err := repo.Commit("m1")
	require.NoError(t, err)
	assert.False(t, h1.IsEmpty())

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, h1, head)

	// Second commit: b.txt added.
	writeFile(t, repo, "b.txt", "B")
	h2, err := repo.Commit("m2")
	require.NoError(t, err)

	c1, err := repo.GetCommit(h1)
	require.NoError(t, err)
	c2, err := repo.GetCommit(h2)
	require.NoError(t, err)
	assert.Equal(t, h1, c2.Parent1)
	assert.True(t, c2.Parent2.IsEmpty())

	// The tree diff between the two commits is exactly one new file.
	flat1, err := treediff.Flatten(repo, c1.Tree)
	require.NoError(t, err)
	flat2, err := treediff.Flatten(repo, c2.Tree)
	require.NoError(t, err)

	d := treediff.DiffTrees(flat1, flat2)
	require.Len(t, d.Entries, 1)
	assert.Equal(t, treediff.NewFile, d.Entries[0].Type)
	assert.Equal(t, "b.txt", d.Entries[0].Path)
}

func TestCommitNothingToCommit(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, repo, "a.txt", "A")
	_, err := repo.Commit("m1")
	require.NoError(t, err)

	_, err = repo.Commit("m2")
	assert.ErrorIs(t, err, ErrNothingToCommit)
}

func TestCommitSubdirectories(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, repo, "top.txt", "T")
	writeFile(t, repo, "sub/inner.txt", "I")
	writeFile(t, repo, "sub/deep/leaf.txt", "L")

	h, err := repo.Commit("nested")
	require.NoError(t, err)

	entry, err := repo.Resolve("sub/deep/leaf.txt", h)
	require.NoError(t, err)

	obj, err := repo.Get(entry.Hash)
	require.NoError(t, err)
	assert.Equal(t, "L", string(obj.Payload))
}

func TestCommitDeletion(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, repo, "keep.txt", "K")
	writeFile(t, repo, "drop.txt", "D")
	_, err := repo.Commit("both")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(repo.Root(), "drop.txt")))

	h, err := repo.Commit("dropped")
	require.NoError(t, err)

	_, err = repo.Resolve("drop.txt", h)
	assert.Error(t, err)
	_, err = repo.Resolve("keep.txt", h)
	assert.NoError(t, err)
}

func TestCheckoutRestoresOldState(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, repo, "a.txt", "version 1")
	h1, err := repo.Commit("v1")
	require.NoError(t, err)

	writeFile(t, repo, "a.txt", "version 2")
	writeFile(t, repo, "b.txt", "new")
	_, err = repo.Commit("v2")
	require.NoError(t, err)

	require.NoError(t, repo.Checkout(h1))

	content, err := os.ReadFile(filepath.Join(repo.Root(), "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "version 1", string(content))

	_, err = os.Stat(filepath.Join(repo.Root(), "b.txt"))
	assert.True(t, os.IsNotExist(err))

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, h1, head)
}

func TestHistory(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, repo, "a.txt", "1")
	h1, err := repo.Commit("first")
	require.NoError(t, err)
	writeFile(t, repo, "a.txt", "2")
	h2, err := repo.Commit("second")
	require.NoError(t, err)

	entries, err := repo.History(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, h2, entries[0].Hash)
	assert.Equal(t, h1, entries[1].Hash)
	assert.Equal(t, "first", entries[1].Commit.Message)

	limited, err := repo.History(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStageTree(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, repo, "a.txt", "A")
	_, err := repo.Commit("base")
	require.NoError(t, err)

	blob, err := repo.AddBlob([]byte("staged content"))
	require.NoError(t, err)

	treeHash, err := repo.StageTree(treediff.Diff{Entries: []treediff.Entry{{
		Type: treediff.NewFile,
		Path: "staged.txt",
		To:   blob,
		Kind: objects.EntryFile,
		Mode: 0644,
	}}})
	require.NoError(t, err)

	tree, err := repo.GetTree(treeHash)
	require.NoError(t, err)
	_, ok := tree.Lookup("staged.txt")
	assert.True(t, ok)
	_, ok = tree.Lookup("a.txt")
	assert.True(t, ok)
}
