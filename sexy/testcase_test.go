package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const fence = "```"

func TestExtractTestCases_Basic(t *testing.T) {
	markdown := `# Folding

## Test: add
` + fence + `pascal-expr
(+ 1 2)
` + fence + `
` + fence + `ast
(integer 3)
` + fence + `

## Test: divide
` + fence + `pascal-expr
(/ 1 2)
` + fence + `
` + fence + `ast
(real 0.5)
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	tc1 := testCases[0]
	be.Equal(t, tc1.Name, "add")
	be.Equal(t, tc1.Input, "(+ 1 2)")
	be.Equal(t, tc1.InputType, InputTypeExpr)
	be.Equal(t, tc1.Line, 5)
	be.Equal(t, len(tc1.Assertions), 1)
	be.Equal(t, tc1.Assertions[0].Type, AssertionTypeAST)
	be.Equal(t, tc1.Assertions[0].ParsedSexy.String(), "(integer 3)")

	tc2 := testCases[1]
	be.Equal(t, tc2.Name, "divide")
	be.Equal(t, tc2.Assertions[0].ParsedSexy.String(), "(real 0.5)")
}

func TestExtractTestCases_TextAssertionsAreNotParsed(t *testing.T) {
	markdown := `## Test: program
` + fence + `pascal-program
(program p (begin (write 1)))
` + fence + `
` + fence + `optimized
(block ...)
` + fence + `
` + fence + `asm
push 1
...
call crt_printf
` + fence + `
` + fence + `compile-error
(1, 2) error: unbalanced (
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	tc := testCases[0]
	be.Equal(t, tc.InputType, InputTypeProgram)
	be.Equal(t, len(tc.Assertions), 3)
	be.Equal(t, tc.Assertions[0].Type, AssertionTypeOptimized)
	be.True(t, tc.Assertions[0].ParsedSexy != nil)
	be.Equal(t, tc.Assertions[1].Type, AssertionTypeAsm)
	be.True(t, tc.Assertions[1].ParsedSexy == nil)
	be.Equal(t, tc.Assertions[1].Content, "push 1\n...\ncall crt_printf")
	be.Equal(t, tc.Assertions[2].Type, AssertionTypeCompileError)
	be.True(t, tc.Assertions[2].ParsedSexy == nil)
}

func TestExtractTestCases_EmptyAndPlainDocuments(t *testing.T) {
	testCases, err := ExtractTestCases("")
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)

	testCases, err = ExtractTestCases("# Notes\n\nNo tests here.\n\n" + fence + "\nuntagged\n" + fence + "\n")
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_Errors(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		message  string
	}{
		{
			"input fence outside test",
			"# Doc\n\n" + fence + "pascal-expr\n1\n" + fence + "\n",
			"pascal-expr fence found outside of test case",
		},
		{
			"assertion fence outside test",
			"# Doc\n\n" + fence + "asm\npush 1\n" + fence + "\n",
			"asm fence found outside of test case",
		},
		{
			"unknown fence outside test",
			"# Doc\n\n" + fence + "go\nfunc main() {}\n" + fence + "\n",
			"unknown fence language 'go' found outside of test case",
		},
		{
			"unknown fence in test",
			"## Test: t\n" + fence + "python\nprint(1)\n" + fence + "\n",
			"unknown fence language 'python' in test 't'",
		},
		{
			"missing input",
			"## Test: no input\n" + fence + "ast\n(integer 1)\n" + fence + "\n",
			"test 'no input' has no input fence",
		},
		{
			"missing assertions",
			"## Test: no assertions\n" + fence + "pascal-expr\n1\n" + fence + "\n",
			"test 'no assertions' has no assertion fences",
		},
		{
			"multiple inputs",
			"## Test: twice\n" + fence + "pascal-expr\n1\n" + fence + "\n" + fence + "pascal-expr\n2\n" + fence + "\n",
			"multiple input fences found in test 'twice'",
		},
		{
			"invalid sexy",
			"## Test: bad\n" + fence + "pascal-expr\n1\n" + fence + "\n" + fence + "ast\n(unclosed\n" + fence + "\n",
			"failed to parse Sexy assertion in test 'bad'",
		},
		{
			"error in second test",
			"## Test: ok\n" + fence + "pascal-expr\n1\n" + fence + "\n" + fence + "ast\n(integer 1)\n" + fence +
				"\n\n## Test: second\n" + fence + "ast\n(integer 2)\n" + fence + "\n",
			"test 'second' has no input fence",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ExtractTestCases(test.markdown)
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), test.message))
		})
	}
}

func TestExtractTestCases_LineNumbers(t *testing.T) {
	markdown := "# Title\nLine 2\nLine 3\n\n" + fence + "asm\npush 1\n" + fence + "\n"

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "line 6:"))
}

func TestExtractTestCases_MultilineSexy(t *testing.T) {
	markdown := `## Test: nested
` + fence + `pascal-expr
(+ x (* y 2))
` + fence + `
` + fence + `ast
(binary "+"
 (ident "x")
 (binary "*"
  (ident "y")
  (integer 2)))
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)

	pattern := testCases[0].Assertions[0].ParsedSexy
	be.Equal(t, pattern.Type, NodeList)
	be.Equal(t, len(pattern.Items), 4)
	be.Equal(t, pattern.Head(), "binary")
	be.Equal(t, pattern.Items[1].Type, NodeString)
	be.Equal(t, pattern.Items[3].Head(), "binary")
	be.Equal(t, pattern.String(), `(binary "+" (ident "x") (binary "*" (ident "y") (integer 2)))`)
}
