package ori

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipcet/ori/internal/protocol"
)

// connect wires a protocol client to a server backed by remote, over
// in-memory pipes.
func connect(t *testing.T, remote *Repository) *protocol.Client {
	t.Helper()

	clientIn, serverOut := io.Pipe()
	serverIn, clientOut := io.Pipe()

	server := protocol.NewServer(serverIn, serverOut, remote, remote.Log())
	go server.Serve()

	client, err := protocol.NewClient(clientIn, clientOut, func() error {
		return clientOut.Close()
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestPullClosure(t *testing.T) {
	remote := newTestRepo(t)
	local := newTestRepo(t)

	// Remote history with nested trees and two commits.
	writeFile(t, remote, "a.txt", "A")
	writeFile(t, remote, "sub/b.txt", "B")
	_, err := remote.Commit("first")
	require.NoError(t, err)

	writeFile(t, remote, "sub/c.txt", "C")
	remoteHead, err := remote.Commit("second")
	require.NoError(t, err)

	client := connect(t, remote)
	pulled, err := local.Pull(client)
	require.NoError(t, err)
	assert.Equal(t, remoteHead, pulled)

	head, err := local.Head()
	require.NoError(t, err)
	assert.Equal(t, remoteHead, head)

	// The full closure is present and verifies.
	reachable, err := local.Reachable()
	require.NoError(t, err)
	for hash := range reachable {
		assert.True(t, local.Has(hash), "missing %s after pull", hash.Short())
		assert.NoError(t, local.Verify(hash))
	}

	// The pulled commits resolve content correctly.
	entry, err := local.Resolve("sub/c.txt", remoteHead)
	require.NoError(t, err)
	obj, err := local.Get(entry.Hash)
	require.NoError(t, err)
	assert.Equal(t, "C", string(obj.Payload))
}

func TestPullLargeFile(t *testing.T) {
	remote := newTestRepo(t)
	local := newTestRepo(t)

	rng := rand.New(rand.NewSource(3))
	data := make([]byte, 2*1024*1024)
	rng.Read(data)
	require.NoError(t, os.WriteFile(filepath.Join(remote.Root(), "big.bin"), data, 0644))

	remoteHead, err := remote.Commit("big file")
	require.NoError(t, err)

	client := connect(t, remote)
	_, err = local.Pull(client)
	require.NoError(t, err)

	// The chunk closure came across; the file reconstructs.
	entry, err := local.Resolve("big.bin", remoteHead)
	require.NoError(t, err)
	require.True(t, entry.Large)

	lb, err := local.GetLargeBlob(entry.Hash)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "restored.bin")
	require.NoError(t, local.ExtractLargeBlob(lb, out))

	restored, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data, restored)
}

func TestPullIsIncremental(t *testing.T) {
	remote := newTestRepo(t)
	local := newTestRepo(t)

	writeFile(t, remote, "a.txt", "A")
	_, err := remote.Commit("first")
	require.NoError(t, err)

	client := connect(t, remote)
	_, err = local.Pull(client)
	require.NoError(t, err)
	client.Close()

	// More history on the remote; a second pull catches up.
	writeFile(t, remote, "b.txt", "B")
	remoteHead, err := remote.Commit("second")
	require.NoError(t, err)

	client = connect(t, remote)
	pulled, err := local.Pull(client)
	require.NoError(t, err)
	assert.Equal(t, remoteHead, pulled)

	head, err := local.Head()
	require.NoError(t, err)
	assert.Equal(t, remoteHead, head)
}

func TestPullEmptyRemote(t *testing.T) {
	remote := newTestRepo(t)
	local := newTestRepo(t)

	client := connect(t, remote)
	pulled, err := local.Pull(client)
	require.NoError(t, err)
	assert.True(t, pulled.IsEmpty())

	head, err := local.Head()
	require.NoError(t, err)
	assert.True(t, head.IsEmpty())
}

func TestPullThenCheckout(t *testing.T) {
	remote := newTestRepo(t)
	local := newTestRepo(t)

	writeFile(t, remote, "doc.txt", "replicated")
	remoteHead, err := remote.Commit("doc")
	require.NoError(t, err)

	client := connect(t, remote)
	_, err = local.Pull(client)
	require.NoError(t, err)

	require.NoError(t, local.Checkout(remoteHead))

	content, err := os.ReadFile(filepath.Join(local.Root(), "doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "replicated", string(content))
}
