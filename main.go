package main

import (
	"fmt"
	"io"

	"github.com/pasc-lang/pasc/compiler"
)

// options control one run of the compiler pipeline.
type options struct {
	optimize bool
	verbose  bool
	log      io.Writer // progress output when verbose
}

func (o options) logf(format string, args ...any) {
	if o.verbose && o.log != nil {
		fmt.Fprintf(o.log, format, args...)
	}
}

// readProgram parses and type-checks a source text, optimizing it when
// asked.
func readProgram(src string, opts options) (*compiler.Program, error) {
	program, err := compiler.ReadProgram(src)
	if err != nil {
		return nil, err
	}
	opts.logf("AST: %s\n", compiler.ToSExpr(program.Body))
	if opts.optimize {
		compiler.OptimizeProgram(program)
		opts.logf("Optimized: %s\n", compiler.ToSExpr(program.Body))
	}
	return program, nil
}

// compileSource runs the whole pipeline and returns MASM32 source text.
func compileSource(src string, opts options) (string, error) {
	program, err := readProgram(src, opts)
	if err != nil {
		return "", err
	}
	out := compiler.Generate(program)
	opts.logf("Generated %d bytes of assembly\n", len(out))
	return out, nil
}

// dumpSource renders the checked tree of the program and of every
// function it declares.
func dumpSource(src string, opts options) (string, error) {
	program, err := readProgram(src, opts)
	if err != nil {
		return "", err
	}
	var out string
	var walk func(scope *compiler.SymbolTable, prefix string)
	walk = func(scope *compiler.SymbolTable, prefix string) {
		for _, s := range scope.Entries() {
			if s.Type.Category != compiler.CategoryFunction || s.Value == nil {
				continue
			}
			walk(s.Type.Locals, prefix+s.Name+".")
			out += prefix + s.Name + ": " + compiler.ToSExpr(s.Value) + "\n"
		}
	}
	walk(program.Main.Locals, "")
	out += program.Name + ": " + compiler.ToSExpr(program.Body) + "\n"
	return out, nil
}
