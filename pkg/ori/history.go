package ori

import (
	"github.com/pipcet/ori/internal/core/objects"
)

// HistoryEntry pairs a commit with its hash.
type HistoryEntry struct {
	Hash   objects.ObjectHash
	Commit *objects.Commit
}

// History walks first-parent ancestry from the head, newest first. A limit
// of 0 walks the full history.
func (r *Repository) History(limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry

	current, err := r.Head()
	if err != nil {
		return nil, err
	}

	for !current.IsEmpty() {
		if limit > 0 && len(entries) >= limit {
			break
		}

		c, err := r.GetCommit(current)
		if err != nil {
			return nil, err
		}
		entries = append(entries, HistoryEntry{Hash: current, Commit: c})
		current = c.Parent1
	}

	return entries, nil
}
