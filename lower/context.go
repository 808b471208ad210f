// Package lower turns a SysY syntax tree into Koopa IR.
//
// All mutable lowering state (scope stack, allocated slots, counters for
// temporaries and block labels, the function signature table, the loop
// stack and the basic-block cursor) lives in a Context. A Context lowers
// exactly one program.
package lower

import (
	"context"

	"github.com/nikandfor/errors"
	"github.com/nikandfor/tlog"

	"github.com/sysyc/sysyc/ast"
	"github.com/sysyc/sysyc/koopa"
)

type (
	Context struct {
		scopes    []map[string]*Symbol
		declared  map[string]int  // declarations per name__depth
		reserved  map[string]bool // function names
		sites     map[site]string
		allocated map[string]bool

		funcs map[string]ast.FuncType

		temps  int
		labels int

		prog *koopa.Program

		fn *function
	}

	// function holds the block cursor of the function being lowered.
	function struct {
		ir  *koopa.Function
		ret ast.FuncType

		cur  *koopa.Block
		live bool // cur is part of ir

		blockOpen      bool
		justTerminated bool

		reachable map[string]bool
		loops     []loopTargets
	}

	// site identifies a decoded variable declaration.
	site struct {
		name  string
		depth int
		pos   ast.Pos
	}

	loopTargets struct {
		cont string
		brk  string
	}
)

// NewContext returns a fresh Context with the global scope in place.
func NewContext() *Context {
	c := &Context{
		declared:  map[string]int{},
		reserved:  map[string]bool{},
		sites:     map[site]string{},
		allocated: map[string]bool{},
		funcs:     map[string]ast.FuncType{},
		prog:      &koopa.Program{},
	}

	c.EnterScope()

	return c
}

// Lower lowers p with a fresh Context.
func Lower(ctx context.Context, p *ast.Program) (*koopa.Program, error) {
	return NewContext().LowerProgram(ctx, p)
}

// LowerProgram lowers the items of p in order and returns the IR.
// The first error aborts lowering and no IR is returned.
func (c *Context) LowerProgram(ctx context.Context, p *ast.Program) (_ *koopa.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "lower program", "items", len(p.Items))
	defer tr.Finish("err", &err)

	for _, it := range p.Items {
		if f, ok := it.(*ast.FuncDef); ok {
			c.ReserveFunction(f.Name)
		}
	}

	for _, it := range p.Items {
		switch it := it.(type) {
		case *ast.FuncDef:
			err = c.lowerFunc(ctx, it)
		case *ast.VarDecl:
			err = c.lowerGlobalVars(it)
		case *ast.ConstDecl:
			err = c.declareConsts(it)
		default:
			panic(errors.New("unexpected item %T", it))
		}
		if err != nil {
			return nil, err
		}
	}

	if tlog.If("ir") {
		tr.Printw("lowered", "globals", len(c.prog.Globals), "funcs", len(c.prog.Funcs), "temps", c.temps, "labels", c.labels)
	}

	return c.prog, nil
}

func (c *Context) newTemp() int {
	id := c.temps
	c.temps++
	return id
}
