// Package diff computes line diffs between two versions of a document
// resource and formats them as unified diffs.
package diff

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

// SplitLines splits data on "\n". A final newline does not produce an
// extra empty line.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	s := strings.TrimSuffix(string(data), "\n")
	return strings.Split(s, "\n")
}

// Bytes diffs two blobs line by line.
func Bytes(a, b []byte) []Line {
	return Lines(SplitLines(a), SplitLines(b))
}

// Hunk is a run of changes with surrounding context.
type Hunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
	Lines              []Line
}

// Header returns the "@@ -a,b +c,d @@" line of h.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%s +%s @@", span(h.OldStart, h.OldLines), span(h.NewStart, h.NewLines))
}

func span(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// Hunks groups an edit script into hunks, keeping context unchanged lines
// around each change. Changes closer than 2*context lines share a hunk.
func Hunks(lines []Line, context int) []Hunk {
	if context < 0 {
		context = 0
	}
	var hunks []Hunk
	i := 0
	for i < len(lines) {
		for i < len(lines) && lines[i].Op == Equal {
			i++
		}
		if i == len(lines) {
			break
		}

		start := max(i-context, 0)
		end := i
		for end < len(lines) {
			if lines[end].Op != Equal {
				end++
				continue
			}
			run := end
			for run < len(lines) && lines[run].Op == Equal {
				run++
			}
			if run == len(lines) || run-end > 2*context {
				end = min(end+context, len(lines))
				break
			}
			end = run
		}
		hunks = append(hunks, newHunk(lines, start, end))
		i = end
	}
	return hunks
}

func newHunk(all []Line, start, end int) Hunk {
	lines := all[start:end]
	h := Hunk{Lines: lines}
	for _, l := range lines {
		if l.Op != Insert {
			if h.OldStart == 0 {
				h.OldStart = l.OldLine
			}
			h.OldLines++
		}
		if l.Op != Delete {
			if h.NewStart == 0 {
				h.NewStart = l.NewLine
			}
			h.NewLines++
		}
	}
	// An empty side starts at the line before the hunk, as in diff -u.
	if h.OldLines == 0 {
		h.OldStart = lastPosition(all[:start], func(l Line) int { return l.OldLine })
	}
	if h.NewLines == 0 {
		h.NewStart = lastPosition(all[:start], func(l Line) int { return l.NewLine })
	}
	return h
}

func lastPosition(lines []Line, pos func(Line) int) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if p := pos(lines[i]); p > 0 {
			return p
		}
	}
	return 0
}

// Stats counts inserted and deleted lines.
type Stats struct {
	Added   int
	Removed int
}

// Stat summarizes lines.
func Stat(lines []Line) Stats {
	var s Stats
	for _, l := range lines {
		switch l.Op {
		case Insert:
			s.Added++
		case Delete:
			s.Removed++
		}
	}
	return s
}

// WriteUnified writes a unified diff of a and b to w. Nothing is written
// when the contents are equal.
func WriteUnified(w io.Writer, fromName, toName string, a, b []byte, context int) error {
	hunks := Hunks(Bytes(a, b), context)
	if len(hunks) == 0 {
		return nil
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s\n+++ %s\n", fromName, toName)
	for _, h := range hunks {
		buf.WriteString(h.Header())
		buf.WriteByte('\n')
		for _, l := range h.Lines {
			buf.WriteString(l.Op.String())
			buf.WriteString(l.Text)
			buf.WriteByte('\n')
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Unified returns the unified diff of a and b as a string.
func Unified(fromName, toName string, a, b []byte, context int) string {
	var sb strings.Builder
	_ = WriteUnified(&sb, fromName, toName, a, b, context)
	return sb.String()
}
