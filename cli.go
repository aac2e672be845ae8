package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `pasc - A Pascal compiler back end that emits MASM32 assembly

Usage:
    pasc <command> [arguments]

Commands:
    build <file>    Compile a program to a .asm file
    check <file>    Parse and type-check a program
    dump <file>     Print the checked tree of a program
    help            Show this help message

Examples:
    pasc build -o hello.asm hello.pas
    pasc check hello.pas
    pasc dump -O=false hello.pas

Environment:
    PASC_VERBOSE    Default for -v
    PASC_NO_OPT     Disable the optimizer by default
    PASC_OUTPUT     Default output directory for build

Use "pasc <command> -h" for more information about a command.
`)
}

// defaultOptions reads flag defaults from the environment.
func defaultOptions() options {
	return options{
		optimize: !env.Bool("PASC_NO_OPT"),
		verbose:  env.Bool("PASC_VERBOSE"),
		log:      os.Stderr,
	}
}

// parseFileArgs parses flags common to all commands and returns the one
// file argument.
func parseFileArgs(fs *flag.FlagSet, args []string, opts *options) string {
	fs.BoolVar(&opts.verbose, "v", opts.verbose, "Show verbose compilation details")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func readSource(filename string) string {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return string(source)
}

// outputPath is where build writes the assembly for filename.
func outputPath(filename, output, dir string) string {
	if output != "" {
		return output
	}
	base := strings.TrimSuffix(filename, ".pas") + ".asm"
	if dir == "" {
		return base
	}
	return filepath.Join(dir, filepath.Base(base))
}

func buildCommand(args []string) {
	opts := defaultOptions()
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <filename>.asm)")
	fs.BoolVar(&opts.optimize, "O", opts.optimize, "Remove statements decided by constants")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pasc build [-o output] [-O] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile a program to MASM32 assembly\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	filename := parseFileArgs(fs, args, &opts)
	outputFile := outputPath(filename, *output, env.Str("PASC_OUTPUT"))

	opts.logf("Compiling %s to %s...\n", filename, outputFile)
	asm, err := compileSource(readSource(filename), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputFile, []byte(asm), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing assembly file %s: %v\n", outputFile, err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s (%d bytes)\n", outputFile, len(asm))
}

func checkCommand(args []string) {
	opts := defaultOptions()
	opts.optimize = false
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pasc check [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Parse and type-check a program\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	filename := parseFileArgs(fs, args, &opts)

	opts.logf("Checking %s...\n", filename)
	if _, err := readProgram(readSource(filename), opts); err != nil {
		fmt.Printf("Errors in %s:\n%v\n", filename, err)
		os.Exit(1)
	}
	fmt.Printf("%s: no errors found\n", filename)
}

func dumpCommand(args []string) {
	opts := defaultOptions()
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.BoolVar(&opts.optimize, "O", opts.optimize, "Dump the optimized tree")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pasc dump [-O] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Print the checked tree of a program\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	filename := parseFileArgs(fs, args, &opts)

	out, err := dumpSource(readSource(filename), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(out)
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "check":
		checkCommand(args)
	case "dump":
		dumpCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
