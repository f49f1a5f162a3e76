// Package dag models the commit graph: a DAG with at most two parents per
// node, traversed breadth-first to find the lowest common ancestor of two
// heads.
package dag

import (
	"github.com/pipcet/ori/internal/core/objects"
)

// Graph exposes the parent edges of the commit DAG.
type Graph interface {
	Parents(hash objects.ObjectHash) ([]objects.ObjectHash, error)
}

const (
	colorLeft  = 1 << 0
	colorRight = 1 << 1
)

// FindLCA locates the lowest common ancestor of p1 and p2 by coloring the
// ancestry of both sides breadth-first; the first node reached from both is
// the LCA. Disjoint histories yield the empty-commit sentinel.
func FindLCA(g Graph, p1, p2 objects.ObjectHash) (objects.ObjectHash, error) {
	if p1 == p2 {
		return p1, nil
	}

	colors := make(map[objects.ObjectHash]uint8)
	left := []objects.ObjectHash{p1}
	right := []objects.ObjectHash{p2}

	visit := func(queue []objects.ObjectHash, color uint8) ([]objects.ObjectHash, objects.ObjectHash, error) {
		var next []objects.ObjectHash
		for _, h := range queue {
			if h.IsEmpty() {
				continue
			}
			if colors[h]&color != 0 {
				continue
			}
			colors[h] |= color
			if colors[h] == colorLeft|colorRight {
				return nil, h, nil
			}

			parents, err := g.Parents(h)
			if err != nil {
				return nil, objects.ObjectHash{}, err
			}
			next = append(next, parents...)
		}
		return next, objects.EmptyCommit, nil
	}

	for len(left) > 0 || len(right) > 0 {
		var lca objects.ObjectHash
		var err error

		left, lca, err = visit(left, colorLeft)
		if err != nil {
			return objects.ObjectHash{}, err
		}
		if !lca.IsEmpty() {
			return lca, nil
		}

		right, lca, err = visit(right, colorRight)
		if err != nil {
			return objects.ObjectHash{}, err
		}
		if !lca.IsEmpty() {
			return lca, nil
		}
	}

	return objects.EmptyCommit, nil
}
