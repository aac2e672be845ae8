package sexy

import (
	"fmt"
	"strings"
)

// Match checks value against pattern. Atoms must be equal; lists match
// item by item, and an ellipsis inside a pattern list matches any run of
// items, including none. A bare ellipsis pattern matches anything.
//
// The returned error names the path of the first mismatch.
func Match(pattern, value *Node) error {
	return match(pattern, value, "root")
}

func match(pattern, value *Node, path string) error {
	if pattern.Type == NodeEllipsis {
		return nil
	}
	if pattern.Type != value.Type {
		return fmt.Errorf("at %s: expected %s %s but got %s %s", path, pattern.Type, pattern, value.Type, value)
	}
	if pattern.Type != NodeList {
		if pattern.Text != value.Text {
			return fmt.Errorf("at %s: expected %s but got %s", path, pattern, value)
		}
		return nil
	}
	if !matchItems(pattern.Items, value.Items, path) {
		// Report the first position-wise difference for a readable message.
		for i, p := range pattern.Items {
			if p.Type == NodeEllipsis {
				break
			}
			if i >= len(value.Items) {
				return fmt.Errorf("at %s: expected %s but list ended", path, p)
			}
			if err := match(p, value.Items[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return fmt.Errorf("at %s: expected %s but got %s", path, pattern, value)
	}
	return nil
}

func matchItems(patterns, values []*Node, path string) bool {
	if len(patterns) == 0 {
		return len(values) == 0
	}
	if patterns[0].Type == NodeEllipsis {
		for skip := 0; skip <= len(values); skip++ {
			if matchItems(patterns[1:], values[skip:], path) {
				return true
			}
		}
		return false
	}
	if len(values) == 0 {
		return false
	}
	if match(patterns[0], values[0], path) != nil {
		return false
	}
	return matchItems(patterns[1:], values[1:], path)
}

// MatchLines checks text against a line pattern: each non-blank pattern
// line must equal a line of text, in order and contiguously, except that a
// "..." line skips any number of text lines. The pattern may start
// anywhere in the text. Lines are compared with surrounding whitespace
// trimmed.
func MatchLines(pattern, text string) error {
	want := splitLines(pattern)
	got := splitLines(text)
	if len(want) == 0 {
		return nil
	}
	// An implicit leading "..." lets the pattern start anywhere.
	if want[0] != "..." {
		want = append([]string{"..."}, want...)
	}
	if matchLineRun(want, got) {
		return nil
	}
	// Find the longest matched prefix to point at the failing line.
	for n := len(want) - 1; n > 0; n-- {
		if matchLinePrefix(want[:n], got) {
			return fmt.Errorf("pattern line %q not found after %q", want[n], want[n-1])
		}
	}
	return fmt.Errorf("pattern not found")
}

func matchLineRun(want, got []string) bool {
	if len(want) == 0 {
		return true
	}
	if want[0] == "..." {
		for skip := 0; skip <= len(got); skip++ {
			if matchLineRun(want[1:], got[skip:]) {
				return true
			}
		}
		return false
	}
	if len(got) == 0 || got[0] != want[0] {
		return false
	}
	return matchLineRun(want[1:], got[1:])
}

// matchLinePrefix is matchLineRun where the pattern may stop before the
// text does.
func matchLinePrefix(want, got []string) bool {
	return matchLineRun(append(append([]string{}, want...), "..."), got)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			line := strings.TrimSpace(s[start:i])
			if line != "" {
				lines = append(lines, line)
			}
			start = i + 1
		}
	}
	return lines
}
