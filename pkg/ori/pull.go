package ori

import (
	"fmt"

	"github.com/pipcet/ori/internal/core/objects"
	"github.com/pipcet/ori/internal/protocol"
)

// pullBatchSize bounds how many hashes go into a single readobjs request.
const pullBatchSize = 256

// Pull replicates every object reachable from the remote head into the
// local store and advances the local head. The head update happens only
// after the closure is fully present and verified, so an interrupted pull
// leaves the repository unchanged apart from extra objects.
func (r *Repository) Pull(client *protocol.Client) (objects.ObjectHash, error) {
	if err := r.Lock(); err != nil {
		return objects.ObjectHash{}, err
	}
	defer r.Unlock()

	remoteHead, err := client.GetHead()
	if err != nil {
		return objects.ObjectHash{}, err
	}
	if remoteHead.IsEmpty() {
		return objects.EmptyCommit, nil
	}

	if !r.Has(remoteHead) {
		if err := r.fetchClosure(client, remoteHead); err != nil {
			return objects.ObjectHash{}, err
		}
	}

	head, err := r.Head()
	if err != nil {
		return objects.ObjectHash{}, err
	}
	if head != remoteHead {
		if err := r.updateHead(remoteHead); err != nil {
			return objects.ObjectHash{}, err
		}
	}

	r.log.WithField("head", remoteHead.String()).Info("pull")
	return remoteHead, nil
}

// fetchClosure transfers the missing part of the object graph below head:
// the remote's commits identify the roots, and trees and manifests are
// parsed as they arrive to extend the frontier until the closure is closed
// under reference.
func (r *Repository) fetchClosure(client *protocol.Client, head objects.ObjectHash) error {
	commits, err := client.ListCommits()
	if err != nil {
		return err
	}

	seen := make(map[objects.ObjectHash]bool)
	var frontier []objects.ObjectHash

	want := func(h objects.ObjectHash) {
		if h.IsEmpty() || seen[h] || r.Has(h) {
			return
		}
		seen[h] = true
		frontier = append(frontier, h)
	}

	want(head)
	for _, c := range commits {
		hash, err := c.Hash()
		if err != nil {
			return err
		}
		want(hash)
	}

	for len(frontier) > 0 {
		batch := frontier
		if len(batch) > pullBatchSize {
			batch = batch[:pullBatchSize]
		}
		frontier = frontier[len(batch):]

		received, err := client.GetObjects(batch)
		if err != nil {
			return err
		}
		if len(received) < len(batch) {
			return fmt.Errorf("%w: remote served %d of %d requested objects",
				objects.ErrNotFound, len(received), len(batch))
		}

		for _, obj := range received {
			// AddRaw verifies the payload against its claimed hash
			// before the object becomes visible.
			if err := r.AddRaw(obj.Info, obj.Payload); err != nil {
				return err
			}

			refs, err := r.objectRefs(obj.Info)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				want(ref)
			}
		}
	}

	return nil
}

// objectRefs lists the hashes an object refers to: parents and tree for
// commits, entry targets for trees, chunk blobs for manifests.
func (r *Repository) objectRefs(info objects.ObjectInfo) ([]objects.ObjectHash, error) {
	switch info.Kind {
	case objects.KindCommit:
		c, err := r.GetCommit(info.Hash)
		if err != nil {
			return nil, err
		}
		return append(c.Parents(), c.Tree), nil

	case objects.KindTree:
		t, err := r.GetTree(info.Hash)
		if err != nil {
			return nil, err
		}
		var refs []objects.ObjectHash
		for _, e := range t.Entries() {
			refs = append(refs, e.Hash)
		}
		return refs, nil

	case objects.KindLargeBlob:
		lb, err := r.GetLargeBlob(info.Hash)
		if err != nil {
			return nil, err
		}
		var refs []objects.ObjectHash
		for _, p := range lb.Parts() {
			refs = append(refs, p.Hash)
		}
		return refs, nil

	default:
		return nil, nil
	}
}
