package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const answer = `(program (func "main" int (block (return (binary "*" 6 7)))))`

func TestCompileFile(t *testing.T) {
	ctx := context.Background()

	file := filepath.Join(t.TempDir(), "answer.sexp")
	be.Err(t, os.WriteFile(file, []byte(answer), 0644), nil)

	prog, err := compileFile(ctx, file)
	be.Err(t, err, nil)

	text, err := render(ctx, prog, emitKoopa)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(text, "%2 = mul %0, %1"))

	text, err = render(ctx, prog, emitLLVM)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(text, "define i32 @main()"))

	_, err = render(ctx, prog, "wasm")
	be.Err(t, err, "unknown output format")

	res, err := execute(ctx, prog)
	be.Err(t, err, nil)
	be.Equal(t, res, int32(42))
}

func TestCompileSourceErrors(t *testing.T) {
	ctx := context.Background()

	_, err := compileSource(ctx, `(program`)
	be.Err(t, err, "parse")

	_, err = compileSource(ctx, `(program (func "main" int (block)))`)
	be.Err(t, err, "L0005")

	_, err = compileFile(ctx, filepath.Join(t.TempDir(), "missing.sexp"))
	be.Err(t, err, "read source")
}
