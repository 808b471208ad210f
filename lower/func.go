package lower

import (
	"context"

	"github.com/nikandfor/errors"
	"github.com/nikandfor/tlog"

	"github.com/sysyc/sysyc/ast"
	"github.com/sysyc/sysyc/koopa"
)

// lowerFunc registers the signature of f, so the body may call f itself,
// then lowers the body starting at %entry.
//
// A void function that falls off its end gets a bare ret. An int function
// that falls off its end is an error.
func (c *Context) lowerFunc(ctx context.Context, f *ast.FuncDef) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "lower function", "name", f.Name, "ret", f.Ret)
	defer tr.Finish("err", &err)

	if _, dup := c.funcs[f.Name]; dup {
		return newError(DuplicateFunction, f.Name, f.Pos)
	}

	c.funcs[f.Name] = f.Ret

	ir := &koopa.Function{Name: f.Name, Returns: f.Ret == ast.Int}

	c.fn = &function{
		ir:        ir,
		ret:       f.Ret,
		reachable: map[string]bool{},
	}
	defer func() { c.fn = nil }()

	c.openBlock(koopa.EntryLabel)

	if err = c.lowerBlock(ctx, f.Body); err != nil {
		return errors.Wrap(err, "function %v", f.Name)
	}

	if c.fallsThrough() {
		if f.Ret != ast.Void {
			return newError(MissingReturn, f.Name, f.Pos)
		}

		c.terminate(&koopa.Ret{})
	}

	tr.Printw("function lowered", "blocks", len(ir.Blocks))

	c.prog.Funcs = append(c.prog.Funcs, ir)

	return nil
}
