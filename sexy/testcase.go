package sexy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType is the language tag of a test's input fence.
type InputType string

const (
	InputTypeExpr    InputType = "pascal-expr"
	InputTypeProgram InputType = "pascal-program"
)

// AssertionType is the language tag of an assertion fence.
type AssertionType string

const (
	AssertionTypeAST          AssertionType = "ast"
	AssertionTypeOptimized    AssertionType = "optimized"
	AssertionTypeAsm          AssertionType = "asm"
	AssertionTypeCompileError AssertionType = "compile-error"
)

// IsSexy reports whether the assertion body is an s-expression pattern
// rather than plain text.
func (a AssertionType) IsSexy() bool {
	return a == AssertionTypeAST || a == AssertionTypeOptimized
}

// Assertion represents a single assertion in a Sexy test
type Assertion struct {
	Type       AssertionType
	Content    string // fence body without the trailing newline
	ParsedSexy *Node  // set for s-expression assertions
}

// TestCase represents a complete Sexy test case extracted from Markdown
type TestCase struct {
	Name       string // heading text after "Test: "
	Input      string
	InputType  InputType
	Line       int // line of the input fence
	Assertions []Assertion
}

const testHeadingPrefix = "Test: "

// ExtractTestCases reads every "Test: <name>" section of a Markdown
// document. Each section needs exactly one input fence and at least one
// assertion fence; tagged fences outside of a section are errors.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	source := []byte(markdownContent)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	x := &extractor{source: source}
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var err error
		switch n := node.(type) {
		case *ast.Heading:
			err = x.heading(n)
		case *ast.FencedCodeBlock:
			err = x.fence(n)
		}
		if err != nil {
			return ast.WalkStop, err
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}
	if err := x.flush(); err != nil {
		return nil, err
	}
	return x.cases, nil
}

type extractor struct {
	source  []byte
	cases   []TestCase
	current *TestCase
}

func (x *extractor) heading(n *ast.Heading) error {
	title := nodeText(n, x.source)
	if !strings.HasPrefix(title, testHeadingPrefix) {
		return nil
	}
	if err := x.flush(); err != nil {
		return err
	}
	x.current = &TestCase{Name: strings.TrimPrefix(title, testHeadingPrefix)}
	return nil
}

func (x *extractor) fence(n *ast.FencedCodeBlock) error {
	language := string(n.Language(x.source))
	line := lineOf(n, x.source)
	known := isInputFence(language) || isAssertionFence(language)

	if x.current == nil {
		switch {
		case language == "":
			return nil
		case known:
			return fmt.Errorf("line %d: %s fence found outside of test case", line, language)
		default:
			return fmt.Errorf("line %d: unknown fence language '%s' found outside of test case", line, language)
		}
	}
	if language == "" {
		return nil
	}
	if !known {
		return fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, language, x.current.Name)
	}

	content := strings.TrimRight(fenceBody(n, x.source), "\n")
	if isInputFence(language) {
		if x.current.Input != "" {
			return fmt.Errorf("line %d: multiple input fences found in test '%s'", line, x.current.Name)
		}
		x.current.Input = content
		x.current.InputType = InputType(language)
		x.current.Line = line
		return nil
	}

	assertion := Assertion{Type: AssertionType(language), Content: content}
	if assertion.Type.IsSexy() {
		parsed, err := Parse(content)
		if err != nil {
			return fmt.Errorf("line %d: failed to parse Sexy assertion in test '%s': %w", line, x.current.Name, err)
		}
		assertion.ParsedSexy = parsed
	}
	x.current.Assertions = append(x.current.Assertions, assertion)
	return nil
}

// flush validates and records the test case being read, if any.
func (x *extractor) flush() error {
	tc := x.current
	if tc == nil {
		return nil
	}
	x.current = nil
	if tc.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", tc.Name)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	x.cases = append(x.cases, *tc)
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceBody(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := codeBlock.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	return buf.String()
}

func isInputFence(language string) bool {
	switch InputType(language) {
	case InputTypeExpr, InputTypeProgram:
		return true
	default:
		return false
	}
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionTypeAST, AssertionTypeOptimized, AssertionTypeAsm, AssertionTypeCompileError:
		return true
	default:
		return false
	}
}

// lineOf returns the 1-based line of a block's first content line.
func lineOf(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(source[:min(start, len(source))], []byte{'\n'}) + 1
}
