package ori

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pipcet/ori/internal/core/objects"
)

// Head returns the current commit hash, or the empty sentinel for a fresh
// repository. The pointer is read in a single open+read so concurrent
// readers see either the old or the new head, never a torn value.
func (r *Repository) Head() (objects.ObjectHash, error) {
	raw, err := os.ReadFile(filepath.Join(r.oriDir, headFile))
	if err != nil {
		return objects.ObjectHash{}, fmt.Errorf("failed to read HEAD: %w", err)
	}
	return objects.NewObjectHash(strings.TrimSpace(string(raw)))
}

// updateHead atomically advances the head pointer by staging the new value
// in the tmp directory and renaming it into place. Object bytes must already
// be durable; this rename is the linearization point of every mutating
// operation.
func (r *Repository) updateHead(hash objects.ObjectHash) error {
	tmp, err := os.CreateTemp(filepath.Join(r.oriDir, "tmp"), "head-*")
	if err != nil {
		return fmt.Errorf("failed to stage HEAD: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(hash.String() + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write HEAD: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync HEAD: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close HEAD: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(r.oriDir, headFile)); err != nil {
		return fmt.Errorf("failed to advance HEAD: %w", err)
	}

	r.log.WithField("head", hash.String()).Info("head advanced")
	return nil
}

// headTreeHash returns the tree hash of the current head, or the empty
// sentinel for a fresh repository.
func (r *Repository) headTreeHash() (objects.ObjectHash, error) {
	head, err := r.Head()
	if err != nil {
		return objects.ObjectHash{}, err
	}
	if head.IsEmpty() {
		return objects.EmptyCommit, nil
	}
	c, err := r.GetCommit(head)
	if err != nil {
		return objects.ObjectHash{}, err
	}
	return c.Tree, nil
}
