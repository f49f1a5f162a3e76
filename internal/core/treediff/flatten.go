// Package treediff implements the tree-level versioning operations: tree
// flattening, deterministic diffs between flattened trees, applying a diff
// back into nested tree objects, and three-way merge.
package treediff

import (
	"fmt"
	"sort"

	"github.com/pipcet/ori/internal/core/objects"
)

// TreeSource fetches tree objects by hash.
type TreeSource interface {
	GetTree(hash objects.ObjectHash) (*objects.Tree, error)
}

// TreeAdder writes tree objects and returns their hashes.
type TreeAdder interface {
	AddTree(tree *objects.Tree) (objects.ObjectHash, error)
}

// FlatTree maps slash-separated paths to directory entries. Subtrees appear
// as their own entries and additionally contribute their children.
type FlatTree map[string]objects.TreeEntry

// Flatten expands the nested tree rooted at hash into a path-keyed map. An
// empty hash flattens to an empty map.
func Flatten(src TreeSource, root objects.ObjectHash) (FlatTree, error) {
	flat := make(FlatTree)
	if root.IsEmpty() {
		return flat, nil
	}
	if err := flattenInto(src, root, "", flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func flattenInto(src TreeSource, hash objects.ObjectHash, prefix string, flat FlatTree) error {
	tree, err := src.GetTree(hash)
	if err != nil {
		return err
	}

	for _, e := range tree.Entries() {
		path := e.Name
		if prefix != "" {
			path = prefix + "/" + e.Name
		}
		flat[path] = e

		if e.Kind == objects.EntryDir {
			if err := flattenInto(src, e.Hash, path, flat); err != nil {
				return err
			}
		}
	}

	return nil
}

// Clone returns a shallow copy of the flat tree.
func (ft FlatTree) Clone() FlatTree {
	out := make(FlatTree, len(ft))
	for k, v := range ft {
		out[k] = v
	}
	return out
}

// Paths returns the tree's paths in lexicographic order.
func (ft FlatTree) Paths() []string {
	paths := make([]string, 0, len(ft))
	for p := range ft {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Fold re-nests a flat tree bottom-up, writing each directory's tree object
// through adder, and returns the new root hash.
func Fold(ft FlatTree, adder TreeAdder) (objects.ObjectHash, error) {
	children := make(map[string][]string)
	for path := range ft {
		children[parentDir(path)] = append(children[parentDir(path)], path)
	}
	return foldDir(ft, children, "", adder)
}

func foldDir(ft FlatTree, children map[string][]string, dir string, adder TreeAdder) (objects.ObjectHash, error) {
	tree := objects.NewTree()

	for _, path := range children[dir] {
		entry := ft[path]
		if entry.Kind == objects.EntryDir {
			sub, err := foldDir(ft, children, path, adder)
			if err != nil {
				return objects.ObjectHash{}, err
			}
			entry.Hash = sub
		}
		if err := tree.AddEntry(entry); err != nil {
			return objects.ObjectHash{}, fmt.Errorf("failed to fold %q: %w", dir, err)
		}
	}

	return adder.AddTree(tree)
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
