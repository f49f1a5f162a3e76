package ori

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/pipcet/ori/internal/core/objects"
)

// MergeState records a merge awaiting its commit: the two parents and the
// paths still conflicted. It is written by merge, consulted and cleared by
// commit, and updated by resolve.
type MergeState struct {
	Parent1   string   `toml:"parent1"`
	Parent2   string   `toml:"parent2"`
	Conflicts []string `toml:"conflicts"`
}

// Parents returns the parsed parent hashes.
func (m *MergeState) Parents() (objects.ObjectHash, objects.ObjectHash, error) {
	p1, err := objects.NewObjectHash(m.Parent1)
	if err != nil {
		return objects.ObjectHash{}, objects.ObjectHash{}, fmt.Errorf("bad merge state parent1: %w", err)
	}
	p2, err := objects.NewObjectHash(m.Parent2)
	if err != nil {
		return objects.ObjectHash{}, objects.ObjectHash{}, fmt.Errorf("bad merge state parent2: %w", err)
	}
	return p1, p2, nil
}

// MergeState returns the pending merge state, or nil when no merge is in
// progress.
func (r *Repository) MergeState() (*MergeState, error) {
	path := filepath.Join(r.oriDir, mergeStateFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var state MergeState
	if _, err := toml.DecodeFile(path, &state); err != nil {
		return nil, fmt.Errorf("failed to read merge state: %w", err)
	}
	return &state, nil
}

// setMergeState persists the merge state atomically.
func (r *Repository) setMergeState(state *MergeState) error {
	tmp, err := os.CreateTemp(filepath.Join(r.oriDir, "tmp"), "mergestate-*")
	if err != nil {
		return fmt.Errorf("failed to stage merge state: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := toml.NewEncoder(tmp).Encode(state); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write merge state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close merge state: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(r.oriDir, mergeStateFile)); err != nil {
		return fmt.Errorf("failed to save merge state: %w", err)
	}
	return nil
}

// clearMergeState removes the pending merge record.
func (r *Repository) clearMergeState() error {
	err := os.Remove(filepath.Join(r.oriDir, mergeStateFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear merge state: %w", err)
	}
	return nil
}

// ResolveConflict marks a conflicted path as resolved by the user.
func (r *Repository) ResolveConflict(path string) error {
	if err := r.Lock(); err != nil {
		return err
	}
	defer r.Unlock()

	state, err := r.MergeState()
	if err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("no merge in progress")
	}

	remaining := state.Conflicts[:0]
	found := false
	for _, c := range state.Conflicts {
		if c == path {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return fmt.Errorf("%s is not conflicted", path)
	}

	state.Conflicts = remaining
	return r.setMergeState(state)
}
