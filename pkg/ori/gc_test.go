package ori

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCKeepsReachable(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, repo, "a.txt", "A")
	h1, err := repo.Commit("first")
	require.NoError(t, err)
	writeFile(t, repo, "b.txt", "B")
	h2, err := repo.Commit("second")
	require.NoError(t, err)

	purged, err := repo.GC()
	require.NoError(t, err)
	assert.Zero(t, purged, "history reachable from the head must survive gc")

	assert.True(t, repo.Has(h1))
	assert.True(t, repo.Has(h2))
}

func TestGCPurgesUnreferenced(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, repo, "a.txt", "A")
	_, err := repo.Commit("only")
	require.NoError(t, err)

	// An orphan blob nothing references.
	orphan, err := repo.AddBlob([]byte("orphan"))
	require.NoError(t, err)

	purged, err := repo.GC()
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	assert.False(t, repo.Has(orphan))

	head, err := repo.Head()
	require.NoError(t, err)
	assert.True(t, repo.Has(head))
}

func TestFsckCleanStore(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, repo, "a.txt", "A")
	writeFile(t, repo, "b.txt", "B")
	_, err := repo.Commit("data")
	require.NoError(t, err)

	bad, total, err := repo.Fsck()
	require.NoError(t, err)
	assert.Empty(t, bad)
	assert.Greater(t, total, 0)
}

func TestStats(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, repo, "a.txt", "A")
	_, err := repo.Commit("data")
	require.NoError(t, err)

	stats, err := repo.Stats()
	require.NoError(t, err)

	// One blob, one tree, one commit.
	var total int
	for _, n := range stats.Counts {
		total += n
	}
	assert.Equal(t, 3, total)
}

func TestRemotes(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.AddRemote("origin", "alice@host:/srv/repo"))
	require.Error(t, repo.AddRemote("origin", "elsewhere"), "duplicate remote accepted")

	url, err := repo.ResolveRemote("origin")
	require.NoError(t, err)
	assert.Equal(t, "alice@host:/srv/repo", url)

	// Unknown names pass through as URLs.
	url, err = repo.ResolveRemote("bob@other:/r")
	require.NoError(t, err)
	assert.Equal(t, "bob@other:/r", url)

	names, _, err := repo.Remotes()
	require.NoError(t, err)
	assert.Equal(t, []string{"origin"}, names)

	require.NoError(t, repo.RemoveRemote("origin"))
	names, _, err = repo.Remotes()
	require.NoError(t, err)
	assert.Empty(t, names)
}
