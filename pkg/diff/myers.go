package diff

// Op classifies a line of an edit script.
type Op int

const (
	Equal  Op = iota // present in both versions
	Insert           // present only in the newer version
	Delete           // present only in the older version
)

func (o Op) String() string {
	switch o {
	case Insert:
		return "+"
	case Delete:
		return "-"
	default:
		return " "
	}
}

// Line is one line of an edit script. OldLine and NewLine are 1-based
// positions in the respective version, 0 when the line is absent there.
type Line struct {
	Op      Op
	Text    string
	OldLine int
	NewLine int
}

// Lines returns the shortest edit script turning a into b (Myers, O((N+M)D)).
func Lines(a, b []string) []Line {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return nil
	}

	// Strip the common prefix and suffix; the search only sees the middle.
	pre := 0
	for pre < n && pre < m && a[pre] == b[pre] {
		pre++
	}
	suf := 0
	for suf < n-pre && suf < m-pre && a[n-1-suf] == b[m-1-suf] {
		suf++
	}

	out := make([]Line, 0, n+m-pre-suf)
	for i := 0; i < pre; i++ {
		out = append(out, Line{Op: Equal, Text: a[i], OldLine: i + 1, NewLine: i + 1})
	}
	out = append(out, middle(a[pre:n-suf], b[pre:m-suf], pre)...)
	for i := 0; i < suf; i++ {
		ai, bi := n-suf+i, m-suf+i
		out = append(out, Line{Op: Equal, Text: a[ai], OldLine: ai + 1, NewLine: bi + 1})
	}
	return out
}

// middle diffs a and b, numbering lines from offset+1.
func middle(a, b []string, offset int) []Line {
	n, m := len(a), len(b)
	switch {
	case n == 0 && m == 0:
		return nil
	case n == 0:
		out := make([]Line, m)
		for i, s := range b {
			out[i] = Line{Op: Insert, Text: s, NewLine: offset + i + 1}
		}
		return out
	case m == 0:
		out := make([]Line, n)
		for i, s := range a {
			out[i] = Line{Op: Delete, Text: s, OldLine: offset + i + 1}
		}
		return out
	}

	limit := n + m
	v := make([]int, 2*limit+2)
	// frontiers[d] is the furthest x per diagonal k after d edits,
	// indexed k+d.
	var frontiers [][]int

	for d := 0; d <= limit; d++ {
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[limit+k-1] < v[limit+k+1]) {
				x = v[limit+k+1]
			} else {
				x = v[limit+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[limit+k] = x
			if x >= n && y >= m {
				frontiers = append(frontiers, snapshot(v, limit, d))
				return walkBack(frontiers, a, b, offset)
			}
		}
		frontiers = append(frontiers, snapshot(v, limit, d))
	}
	return nil
}

func snapshot(v []int, limit, d int) []int {
	s := make([]int, 2*d+1)
	copy(s, v[limit-d:limit+d+1])
	return s
}

// furthest reads diagonal k from the frontier recorded after d edits.
func furthest(frontiers [][]int, d, k int) int {
	return frontiers[d][k+d]
}

func walkBack(frontiers [][]int, a, b []string, offset int) []Line {
	x, y := len(a), len(b)
	rev := make([]Line, 0, x+y)
	equal := func() {
		x--
		y--
		rev = append(rev, Line{Op: Equal, Text: a[x], OldLine: offset + x + 1, NewLine: offset + y + 1})
	}

	for d := len(frontiers) - 1; d > 0; d-- {
		k := x - y
		var prevK int
		if k == -d || (k != d && furthest(frontiers, d-1, k-1) < furthest(frontiers, d-1, k+1)) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := furthest(frontiers, d-1, prevK)
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			equal()
		}
		if prevK == k-1 {
			x--
			rev = append(rev, Line{Op: Delete, Text: a[x], OldLine: offset + x + 1})
		} else {
			y--
			rev = append(rev, Line{Op: Insert, Text: b[y], NewLine: offset + y + 1})
		}
	}
	for x > 0 && y > 0 {
		equal()
	}

	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
