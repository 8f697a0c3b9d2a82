package repo

import (
	"fmt"
	"iter"

	"github.com/odvcencio/folio/pkg/object"
)

// History walks first-parent ancestry from start, yielding each commit
// hash newest first and stopping after a commit with no parents. An empty
// start yields nothing. A read failure is yielded once and ends the walk.
func (r *Repository) History(start object.Hash) iter.Seq2[object.Hash, error] {
	return func(yield func(object.Hash, error) bool) {
		current := start
		for current != "" {
			c, err := r.Objects.ReadCommit(current)
			if err != nil {
				yield("", fmt.Errorf("history: read commit %s: %w", current, err))
				return
			}
			if !yield(current, nil) {
				return
			}
			if len(c.Parents) == 0 {
				return
			}
			current = c.Parents[0]
		}
	}
}

// LogEntry is a commit together with its hash.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// Log returns up to limit commits following first parents from start,
// newest first. limit <= 0 means no limit.
func (r *Repository) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	for h, err := range r.History(start) {
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		c, err := r.Objects.ReadCommit(h)
		if err != nil {
			return nil, fmt.Errorf("log: read commit %s: %w", h, err)
		}
		entries = append(entries, LogEntry{Hash: h, Commit: c})
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}
