package repo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/odvcencio/folio/pkg/object"
)

const zeroHash = "0000000000000000000000000000000000000000"

// ReflogEntry is one line of a ref's log.
type ReflogEntry struct {
	Ref       string
	OldHash   object.Hash // "" when the ref was created
	NewHash   object.Hash
	Who       string
	Timestamp int64
	Timezone  string
	Reason    string
}

// appendReflog writes a line in Git's reflog format:
//
//	<old> <new> Name <email> <unix> <tz>\t<reason>
func (s *FileRefStore) appendReflog(ref string, oldHash, newHash object.Hash, reason string) error {
	s.mu.RLock()
	who := s.identity
	now := s.now()
	s.mu.RUnlock()

	logPath := filepath.Join(s.root, "logs", filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("reflog mkdir: %w", err)
	}

	old := string(oldHash)
	if old == "" {
		old = zeroHash
	}
	line := fmt.Sprintf("%s %s %s %d %s\t%s\n",
		old, newHash, who.Identity(), now.Unix(), now.Format("-0700"), reason)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reflog open: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("reflog write: %w", err)
	}
	return nil
}

// ReadReflog returns the log of ref, newest first. limit <= 0 means all.
func (s *FileRefStore) ReadReflog(ref string, limit int) ([]ReflogEntry, error) {
	if err := CheckRefName(ref); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, "logs", filepath.FromSlash(ref)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog: %w", err)
	}
	defer f.Close()

	var entries []ReflogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry, ok := parseReflogLine(ref, scanner.Text())
		if ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reflog: %w", err)
	}

	// Return newest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func parseReflogLine(ref, line string) (ReflogEntry, bool) {
	head, reason, _ := strings.Cut(line, "\t")
	parts := strings.SplitN(head, " ", 3)
	if len(parts) < 3 {
		return ReflogEntry{}, false
	}
	rest := parts[2]
	closing := strings.LastIndex(rest, ">")
	if closing < 0 {
		return ReflogEntry{}, false
	}
	fields := strings.Fields(rest[closing+1:])
	if len(fields) != 2 {
		return ReflogEntry{}, false
	}
	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return ReflogEntry{}, false
	}
	old := object.Hash(parts[0])
	if old == zeroHash {
		old = ""
	}
	return ReflogEntry{
		Ref:       ref,
		OldHash:   old,
		NewHash:   object.Hash(parts[1]),
		Who:       rest[:closing+1],
		Timestamp: ts,
		Timezone:  fields[1],
		Reason:    reason,
	}, true
}
