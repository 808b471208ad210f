package main

import (
	"context"
	"os"

	"github.com/nikandfor/errors"
	"github.com/nikandfor/tlog"

	"github.com/sysyc/sysyc/ast"
	"github.com/sysyc/sysyc/interp"
	"github.com/sysyc/sysyc/koopa"
	"github.com/sysyc/sysyc/llvmgen"
	"github.com/sysyc/sysyc/lower"
)

// Output formats of build and watch.
const (
	emitKoopa = "koopa"
	emitLLVM  = "llvm"
)

// compileSource decodes an S-expression AST document, lowers it and
// verifies the result.
func compileSource(ctx context.Context, src string) (*koopa.Program, error) {
	p, err := ast.Parse(src)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	prog, err := lower.Lower(ctx, p)
	if err != nil {
		return nil, err
	}

	if err = koopa.Verify(prog); err != nil {
		return nil, errors.Wrap(err, "verify")
	}

	if tlog.If("ir") {
		tlog.SpanFromContext(ctx).Printw("koopa", "text", prog.String())
	}

	return prog, nil
}

func compileFile(ctx context.Context, filename string) (*koopa.Program, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read source")
	}

	return compileSource(ctx, string(src))
}

// render prints prog in the requested output format.
func render(ctx context.Context, prog *koopa.Program, emit string) (string, error) {
	switch emit {
	case emitKoopa:
		return prog.String(), nil
	case emitLLVM:
		return llvmgen.Emit(ctx, prog)
	}

	return "", errors.New("unknown output format: %q", emit)
}

func execute(ctx context.Context, prog *koopa.Program) (int32, error) {
	return interp.Run(ctx, prog)
}

// setupLogging installs a console logger on stderr when verbose topics are
// requested and silences tracing otherwise.
func setupLogging(topics string) {
	if topics == "" {
		tlog.DefaultLogger = nil
		return
	}

	tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(os.Stderr, tlog.LstdFlags))
	tlog.SetVerbosity(topics)
}
