package lower

import (
	"github.com/nikandfor/errors"

	"github.com/sysyc/sysyc/ast"
	"github.com/sysyc/sysyc/koopa"
)

// declareConsts folds every initializer and binds the names. No IR is
// emitted for constants.
func (c *Context) declareConsts(d *ast.ConstDecl) error {
	for _, def := range d.Defs {
		v, err := c.EvalConst(def.Init)
		if err != nil {
			return errors.Wrap(err, "const %v", def.Name)
		}

		if err = c.DeclareConstant(def.Name, v, def.Pos); err != nil {
			return err
		}
	}

	return nil
}

// lowerLocalVars emits, per declarator, the initializer, the slot
// allocation and the initializing store. The initializer is lowered
// before the name is bound, so it sees the enclosing declaration.
func (c *Context) lowerLocalVars(d *ast.VarDecl) error {
	c.ensureOpen()

	for _, def := range d.Defs {
		var init koopa.Value
		var err error

		if def.Init != nil {
			init, err = c.lowerExpr(def.Init)
			if err != nil {
				return errors.Wrap(err, "var %v", def.Name)
			}
		}

		slot, allocated, err := c.DeclareVariable(def.Name, def.Pos)
		if err != nil {
			return err
		}

		if !allocated {
			c.emit(&koopa.Alloc{Slot: slot})
		}

		if def.Init != nil {
			c.emit(&koopa.Store{Value: init, Slot: slot})
		}
	}

	return nil
}

// lowerGlobalVars declares module-level slots. Their initializers must be
// constant expressions.
func (c *Context) lowerGlobalVars(d *ast.VarDecl) error {
	for _, def := range d.Defs {
		g := &koopa.Global{}

		if def.Init != nil {
			v, err := c.EvalConst(def.Init)
			if err != nil {
				return errors.Wrap(err, "global %v", def.Name)
			}

			g.Init, g.HasInit = v, true
		}

		// The global scope is never left, so a site cannot be declared
		// twice here.
		slot, _, err := c.DeclareVariable(def.Name, def.Pos)
		if err != nil {
			return err
		}

		g.Name = slot
		c.prog.Globals = append(c.prog.Globals, g)
	}

	return nil
}
