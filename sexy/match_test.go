package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func mustParse(t *testing.T, s string) *Node {
	t.Helper()
	n, err := Parse(s)
	be.Err(t, err, nil)
	return n
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		ok      bool
	}{
		{"x", "x", true},
		{"x", "y", false},
		{"1", "1", true},
		{"1", "1.0", false},
		{"...", "(a b c)", true},
		{"(a ...)", "(a b c)", true},
		{"(a ...)", "(a)", true},
		{"(... c)", "(a b c)", true},
		{"(a ... c)", "(a b d)", false},
		{"(a b)", "(a b c)", false},
		{"(a (b ...) ...)", "(a (b 1 2) (c))", true},
		{`(string "hi")`, `(string "hi")`, true},
		{`(string "hi")`, `(string "ho")`, false},
	}

	for _, test := range tests {
		err := Match(mustParse(t, test.pattern), mustParse(t, test.value))
		be.Equal(t, err == nil, test.ok)
	}
}

func TestMatchReportsPath(t *testing.T) {
	err := Match(mustParse(t, "(block (integer 1) (integer 2))"), mustParse(t, "(block (integer 1) (integer 3))"))
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "root[2]"))
}

func TestMatchLines(t *testing.T) {
	text := `push 1
push 2
pop ebx
pop eax
add eax, ebx
push eax`

	tests := []struct {
		pattern string
		ok      bool
	}{
		{"pop ebx\npop eax", true},
		{"  pop ebx  \n\n  pop eax", true},
		{"push 1\n...\npush eax", true},
		{"push 2\npop eax", false},
		{"push 1\n...\nsub eax, ebx", false},
		{"", true},
	}

	for _, test := range tests {
		err := MatchLines(test.pattern, text)
		be.Equal(t, err == nil, test.ok)
	}
}

func TestMatchLinesNamesMissingLine(t *testing.T) {
	err := MatchLines("push 1\nmul eax", "push 1\npush 2")
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), `"mul eax"`))
}
