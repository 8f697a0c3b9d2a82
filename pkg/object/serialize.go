package object

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj in Git's binary tree format:
//
//	<mode> <name>\0<20 raw hash bytes>
//
// repeated for every entry, in Git order.
func MarshalTree(tr *TreeObj) ([]byte, error) {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sortEntries(sorted)

	var buf bytes.Buffer
	for _, e := range sorted {
		if e.Name == "" || strings.ContainsAny(e.Name, "/\x00") {
			return nil, fmt.Errorf("marshal tree: invalid entry name %q", e.Name)
		}
		raw, err := hex.DecodeString(string(e.Hash))
		if err != nil || len(raw) != 20 {
			return nil, fmt.Errorf("marshal tree: entry %q: invalid hash %q", e.Name, e.Hash)
		}
		buf.WriteString(treeModeOrDefault(e.Mode))
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a TreeObj from Git's binary tree format.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("unmarshal tree: missing mode separator")
		}
		mode, err := parseTreeMode(string(data[:sp]))
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		data = data[sp+1:]

		nul := bytes.IndexByte(data, 0)
		if nul < 0 {
			return nil, fmt.Errorf("unmarshal tree: missing name terminator")
		}
		name := string(data[:nul])
		data = data[nul+1:]

		if len(data) < 20 {
			return nil, fmt.Errorf("unmarshal tree: truncated hash for %q", name)
		}
		tr.Entries = append(tr.Entries, TreeEntry{
			Name: name,
			Mode: mode,
			Hash: Hash(hex.EncodeToString(data[:20])),
		})
		data = data[20:]
	}
	return tr, nil
}

// sortEntries orders entries the way Git does: byte-wise by name, where a
// directory sorts as if its name carried a trailing slash.
func sortEntries(entries []TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return sortKey(entries[i]) < sortKey(entries[j])
	})
}

func sortKey(e TreeEntry) string {
	if e.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

func treeModeOrDefault(mode string) string {
	if strings.TrimSpace(mode) == "" {
		return TreeModeFile
	}
	return mode
}

func parseTreeMode(mode string) (string, error) {
	switch mode {
	case TreeModeDir, "040000":
		return TreeModeDir, nil
	case TreeModeFile, "100664":
		return TreeModeFile, nil
	case TreeModeExecutable:
		return TreeModeExecutable, nil
	case "120000", "160000":
		// Symlinks and gitlinks written by other tools are kept verbatim.
		return mode, nil
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj in Git's commit format:
//
//	tree H
//	parent H     (zero or more)
//	author NAME <EMAIL> UNIX TZ
//	committer NAME <EMAIL> UNIX TZ
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s\n", formatSignature(c.Author))
	fmt.Fprintf(&buf, "committer %s\n", formatSignature(c.Committer))
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form. Headers this
// package does not model (gpgsig, encoding, ...) are skipped.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator")
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &CommitObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		if strings.HasPrefix(line, " ") {
			// Continuation of a multi-line header.
			continue
		}
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
		case "parent":
			c.Parents = append(c.Parents, Hash(val))
		case "author":
			sig, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author = sig
		case "committer":
			sig, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer = sig
		}
	}
	if c.TreeHash == "" {
		return nil, fmt.Errorf("unmarshal commit: missing tree header")
	}
	return c, nil
}

func formatSignature(s Signature) string {
	tz := s.Timezone
	if tz == "" {
		tz = "+0000"
	}
	return fmt.Sprintf("%s %d %s", s.Identity(), s.When, tz)
}

func parseSignature(val string) (Signature, error) {
	open := strings.LastIndex(val, "<")
	closing := strings.LastIndex(val, ">")
	if open < 0 || closing < open {
		return Signature{}, fmt.Errorf("malformed signature %q", val)
	}
	sig := Signature{
		Name:  strings.TrimSpace(val[:open]),
		Email: val[open+1 : closing],
	}
	fields := strings.Fields(val[closing+1:])
	if len(fields) >= 1 {
		ts, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return Signature{}, fmt.Errorf("bad timestamp %q: %w", fields[0], err)
		}
		sig.When = ts
	}
	if len(fields) >= 2 {
		sig.Timezone = fields[1]
	}
	return sig, nil
}
