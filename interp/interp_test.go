package interp

import (
	"context"
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/sysyc/sysyc/ast"
	"github.com/sysyc/sysyc/koopa"
	"github.com/sysyc/sysyc/lower"
)

func compile(t *testing.T, src string) *koopa.Program {
	t.Helper()

	p, err := ast.Parse(src)
	be.Err(t, err, nil)

	prog, err := lower.Lower(context.Background(), p)
	be.Err(t, err, nil)

	return prog
}

func run(t *testing.T, src string) int32 {
	t.Helper()

	res, err := Run(context.Background(), compile(t, src))
	be.Err(t, err, nil)

	return res
}

func TestRunPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int32
	}{
		{"const", `(program (func "main" int (block (return 42))))`, 42},
		{"arith", `(program (func "main" int (block (return (binary "-" (binary "*" 6 7) (binary "%" 9 4))))))`, 41},
		{"loop", `(program (func "main" int (block
			(var-decl ("i" 0) ("s" 0))
			(while (binary "<" (var "i") 10)
				(block
					(assign "i" (binary "+" (var "i") 1))
					(if (binary "==" (binary "%" (var "i") 2) 0) (continue))
					(assign "s" (binary "+" (var "s") (var "i")))))
			(return (var "s")))))`, 25},
		{"break", `(program (func "main" int (block
			(var-decl ("a" 0))
			(while (binary "<" (var "a") 10)
				(block
					(assign "a" (binary "+" (var "a") 1))
					(if (binary "==" (var "a") 5) (break))))
			(return (var "a")))))`, 5},
		{"globals and calls", `(program
			(var-decl ("n" 3))
			(func "bump" void (block (assign "n" (binary "+" (var "n") 1))))
			(func "main" int (block
				(expr (call "bump"))
				(expr (call "bump"))
				(return (var "n")))))`, 5},
		{"eager logic", `(program
			(var-decl ("hits" 0))
			(func "t" int (block (assign "hits" (binary "+" (var "hits") 1)) (return 0)))
			(func "main" int (block
				(var-decl ("r" (binary "&&" (call "t") (call "t"))))
				(return (binary "+" (binary "*" (var "hits") 10) (var "r"))))))`, 20},
		{"negative division", `(program (func "main" int (block (return (binary "/" -7 2)))))`, -3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			be.Equal(t, run(t, tc.src), tc.want)
		})
	}
}

func TestRunRecursionDepth(t *testing.T) {
	prog := compile(t, `(program (func "main" int (block (return (call "main")))))`)

	m := New(prog)
	m.MaxDepth = 50

	_, err := m.Call(context.Background(), "main")
	be.True(t, errors.Is(err, ErrStackOverflow))
}

func TestRunStepLimit(t *testing.T) {
	prog := compile(t, `(program (func "main" int (block (while 1 (empty)) (return 0))))`)

	m := New(prog)
	m.MaxSteps = 1000

	_, err := m.Call(context.Background(), "main")
	be.True(t, errors.Is(err, ErrStepLimit))
	be.Equal(t, m.Steps(), 1001)
}

func TestRunCanceled(t *testing.T) {
	prog := compile(t, `(program (func "main" int (block (while 1 (empty)) (return 0))))`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, prog)
	be.True(t, errors.Is(err, context.Canceled))
}

func TestRunDivisionByZero(t *testing.T) {
	prog := compile(t, `(program (func "main" int (block
		(var-decl ("z" 0))
		(return (binary "/" 1 (var "z"))))))`)

	_, err := Run(context.Background(), prog)
	be.True(t, errors.Is(err, ErrDivisionByZero))
}

func TestRunMalformed(t *testing.T) {
	prog := &koopa.Program{
		Funcs: []*koopa.Function{{
			Name:    "main",
			Returns: true,
			Blocks: []*koopa.Block{
				{Label: koopa.EntryLabel, Term: &koopa.Jump{Target: "nowhere"}},
			},
		}},
	}

	_, err := Run(context.Background(), prog)
	be.Err(t, err, "jump to unknown block %nowhere")

	_, err = Run(context.Background(), &koopa.Program{})
	be.Err(t, err, "call of unknown function @main")
}

func TestVoidResultIsZero(t *testing.T) {
	prog := compile(t, `(program (func "main" void (block)))`)

	res, err := Run(context.Background(), prog)
	be.Err(t, err, nil)
	be.Equal(t, res, int32(0))
}
