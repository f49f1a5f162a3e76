package ori

import (
	"github.com/pipcet/ori/internal/core/objects"
)

// Reachable computes the set of hashes reachable from the head and from any
// pending merge parents, walking commits, trees and manifests.
func (r *Repository) Reachable() (map[objects.ObjectHash]bool, error) {
	reachable := make(map[objects.ObjectHash]bool)

	var roots []objects.ObjectHash
	head, err := r.Head()
	if err != nil {
		return nil, err
	}
	if !head.IsEmpty() {
		roots = append(roots, head)
	}
	if state, err := r.MergeState(); err == nil && state != nil {
		if p1, p2, err := state.Parents(); err == nil {
			roots = append(roots, p1, p2)
		}
	}

	frontier := roots
	for len(frontier) > 0 {
		h := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		if h.IsEmpty() || reachable[h] {
			continue
		}
		reachable[h] = true

		info, _, err := r.store.GetRaw(h)
		if err != nil {
			return nil, err
		}
		refs, err := r.objectRefs(info)
		if err != nil {
			return nil, err
		}
		frontier = append(frontier, refs...)
	}

	return reachable, nil
}

// GC removes objects unreachable from the head and from any pending merge
// parents by mark-and-sweep, returning the number purged.
func (r *Repository) GC() (int, error) {
	if err := r.Lock(); err != nil {
		return 0, err
	}
	defer r.Unlock()

	reachable, err := r.Reachable()
	if err != nil {
		return 0, err
	}

	infos, err := r.store.List()
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, info := range infos {
		if reachable[info.Hash] {
			continue
		}
		removed, err := r.store.Purge(info.Hash)
		if err != nil {
			return purged, err
		}
		if removed {
			purged++
		}
	}

	r.log.WithField("purged", purged).Info("gc")
	return purged, nil
}

// FsckResult reports one object that failed verification.
type FsckResult struct {
	Hash objects.ObjectHash
	Err  error
}

// Fsck re-hashes every stored object and returns the corrupt ones.
func (r *Repository) Fsck() ([]FsckResult, int, error) {
	infos, err := r.store.List()
	if err != nil {
		return nil, 0, err
	}

	var bad []FsckResult
	for _, info := range infos {
		if err := r.store.Verify(info.Hash); err != nil {
			bad = append(bad, FsckResult{Hash: info.Hash, Err: err})
		}
	}
	return bad, len(infos), nil
}

// Stats summarizes the store contents by object kind.
type Stats struct {
	Counts map[objects.Kind]int
	Bytes  map[objects.Kind]uint64
}

// Stats tallies object counts and payload sizes.
func (r *Repository) Stats() (*Stats, error) {
	infos, err := r.store.List()
	if err != nil {
		return nil, err
	}

	s := &Stats{
		Counts: make(map[objects.Kind]int),
		Bytes:  make(map[objects.Kind]uint64),
	}
	for _, info := range infos {
		s.Counts[info.Kind]++
		s.Bytes[info.Kind] += info.PayloadSize
	}
	return s, nil
}
