package dag

import (
	"testing"

	"github.com/pipcet/ori/internal/core/objects"
)

// memGraph is a parent map standing in for the commit store.
type memGraph map[objects.ObjectHash][]objects.ObjectHash

func (g memGraph) Parents(hash objects.ObjectHash) ([]objects.ObjectHash, error) {
	return g[hash], nil
}

func h(s string) objects.ObjectHash {
	return objects.HashBytes([]byte(s))
}

func TestFindLCALinear(t *testing.T) {
	// root <- a <- b <- c
	g := memGraph{
		h("c"): {h("b")},
		h("b"): {h("a")},
		h("a"): {h("root")},
	}

	lca, err := FindLCA(g, h("c"), h("a"))
	if err != nil {
		t.Fatal(err)
	}
	if lca != h("a") {
		t.Errorf("FindLCA = %s, want a", lca.Short())
	}
}

func TestFindLCABranches(t *testing.T) {
	//        base
	//       /    \
	//      x1     y1
	//      |      |
	//      x2     y2
	g := memGraph{
		h("x2"): {h("x1")},
		h("y2"): {h("y1")},
		h("x1"): {h("base")},
		h("y1"): {h("base")},
	}

	lca, err := FindLCA(g, h("x2"), h("y2"))
	if err != nil {
		t.Fatal(err)
	}
	if lca != h("base") {
		t.Errorf("FindLCA = %s, want base", lca.Short())
	}
}

func TestFindLCAMergeCommit(t *testing.T) {
	// A merge commit reaches the other branch through its second parent.
	g := memGraph{
		h("merge"): {h("x"), h("y")},
		h("x"):     {h("base")},
		h("y"):     {h("base")},
		h("z"):     {h("y")},
	}

	lca, err := FindLCA(g, h("merge"), h("z"))
	if err != nil {
		t.Fatal(err)
	}
	if lca != h("y") {
		t.Errorf("FindLCA = %s, want y", lca.Short())
	}
}

func TestFindLCADisjoint(t *testing.T) {
	g := memGraph{
		h("a"): nil,
		h("b"): nil,
	}

	lca, err := FindLCA(g, h("a"), h("b"))
	if err != nil {
		t.Fatal(err)
	}
	if !lca.IsEmpty() {
		t.Errorf("disjoint histories LCA = %s, want empty sentinel", lca.Short())
	}
}

func TestFindLCASame(t *testing.T) {
	lca, err := FindLCA(memGraph{}, h("a"), h("a"))
	if err != nil {
		t.Fatal(err)
	}
	if lca != h("a") {
		t.Errorf("FindLCA(x, x) = %s, want x", lca.Short())
	}
}
