package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sysyc/sysyc/lower"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `sysyc - lowers SysY syntax trees to Koopa IR

Usage:
    sysyc <command> [arguments]

Commands:
    build <file>    Lower an AST file and write Koopa IR or LLVM IR
    check <file>    Lower and verify an AST file without writing output
    run <file>      Lower an AST file and interpret @main
    watch <file>    Rebuild an AST file every time it changes
    help            Show this help message

Examples:
    sysyc build -o prog.koopa prog.sexp
    sysyc build -emit llvm prog.sexp
    sysyc run -v block,scope prog.sexp

Use "sysyc <command> -h" for more information about a command.
`)
}

// newFlagSet creates the flag set shared by all commands.
func newFlagSet(name, usage, about string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	verbose := fs.String("v", "", "Comma separated trace topics (scope, block, alloc, ir) or \"all\"")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sysyc %s\n", usage)
		fmt.Fprintf(os.Stderr, "%s\n\n", about)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	return fs, verbose
}

// parseFile parses args and returns the single file argument.
func parseFile(fs *flag.FlagSet, args []string) string {
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

// reportError prints a compilation failure. With tracing enabled the
// lowering call site that raised the error is shown too.
func reportError(err error, verbose bool) {
	fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)

	var lerr *lower.Error
	if verbose && errors.As(err, &lerr) {
		fmt.Fprintf(os.Stderr, "    kind %v, raised at %v\n", lerr.Kind, lerr.From)
	}
}

func buildCommand(ctx context.Context, args []string) {
	fs, verbose := newFlagSet("build", "build [-o output] [-emit koopa|llvm] [-v topics] <file>", "Lower an AST file and write Koopa IR or LLVM IR")
	output := fs.String("o", "", "Output file path (default: stdout)")
	emit := fs.String("emit", emitKoopa, "Output format: koopa or llvm")

	filename := parseFile(fs, args)
	setupLogging(*verbose)

	prog, err := compileFile(ctx, filename)
	if err != nil {
		reportError(err, *verbose != "")
		os.Exit(1)
	}

	text, err := render(ctx, prog, *emit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *output == "" {
		fmt.Print(text)
		return
	}

	if err = os.WriteFile(*output, []byte(text), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *output, err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Generated %s (%d functions)\n", *output, len(prog.Funcs))
}

func checkCommand(ctx context.Context, args []string) {
	fs, verbose := newFlagSet("check", "check [-v topics] <file>", "Lower and verify an AST file without writing output")

	filename := parseFile(fs, args)
	setupLogging(*verbose)

	if _, err := compileFile(ctx, filename); err != nil {
		reportError(err, *verbose != "")
		os.Exit(1)
	}

	fmt.Printf("%s: no errors found\n", filename)
}

func runCommand(ctx context.Context, args []string) {
	fs, verbose := newFlagSet("run", "run [-v topics] <file>", "Lower an AST file and interpret @main")

	filename := parseFile(fs, args)
	setupLogging(*verbose)

	prog, err := compileFile(ctx, filename)
	if err != nil {
		reportError(err, *verbose != "")
		os.Exit(1)
	}

	res, err := execute(ctx, prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Execution failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(res)
}

func watchCommand(ctx context.Context, args []string) {
	fs, verbose := newFlagSet("watch", "watch [-emit koopa|llvm] [-v topics] <file>", "Rebuild an AST file every time it changes")
	emit := fs.String("emit", emitKoopa, "Output format: koopa or llvm")

	filename := parseFile(fs, args)
	setupLogging(*verbose)

	rebuild := func() {
		prog, err := compileFile(ctx, filename)
		if err != nil {
			reportError(err, *verbose != "")
			return
		}

		text, err := render(ctx, prog, *emit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}

		fmt.Printf("%s\n%s", strings.Repeat("-", 40), text)
	}

	if err := watch(ctx, filename, rebuild); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Watch failed: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(ctx, args)
	case "check":
		checkCommand(ctx, args)
	case "run":
		runCommand(ctx, args)
	case "watch":
		watchCommand(ctx, args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
