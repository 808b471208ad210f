package lower

import (
	"github.com/sysyc/sysyc/ast"
	"github.com/sysyc/sysyc/koopa"
)

var binaryOps = map[ast.BinaryOp]koopa.Op{
	ast.Add: koopa.Add,
	ast.Sub: koopa.Sub,
	ast.Mul: koopa.Mul,
	ast.Div: koopa.Div,
	ast.Mod: koopa.Mod,
	ast.Lt:  koopa.Lt,
	ast.Gt:  koopa.Gt,
	ast.Le:  koopa.Le,
	ast.Ge:  koopa.Ge,
	ast.Eq:  koopa.Eq,
	ast.Ne:  koopa.Ne,
	ast.And: koopa.And,
	ast.Or:  koopa.Or,
}

func (c *Context) binary(op koopa.Op, x, y koopa.Value) koopa.Value {
	dst := c.newTemp()
	c.emit(&koopa.Binary{Dst: dst, Op: op, X: x, Y: y})
	return koopa.Temp(dst)
}

// materialize binds an integer to a fresh temporary so every expression
// yields one.
func (c *Context) materialize(n int32) koopa.Value {
	return c.binary(koopa.Add, koopa.Imm(0), koopa.Imm(n))
}

// lowerExpr emits the instructions computing e and returns the temporary
// holding its value. Operands are lowered left to right.
func (c *Context) lowerExpr(e ast.Expr) (koopa.Value, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		return c.materialize(e.Value), nil

	case *ast.Ident:
		s, err := c.Resolve(e.Name, e.Pos)
		if err != nil {
			return koopa.Value{}, err
		}

		if s.Kind == Const {
			return c.materialize(s.Value), nil
		}

		dst := c.newTemp()
		c.emit(&koopa.Load{Dst: dst, Slot: s.Storage})

		return koopa.Temp(dst), nil

	case *ast.Unary:
		x, err := c.lowerExpr(e.X)
		if err != nil {
			return koopa.Value{}, err
		}

		switch e.Op {
		case ast.Plus:
			return x, nil
		case ast.Neg:
			return c.binary(koopa.Sub, koopa.Imm(0), x), nil
		case ast.Not:
			return c.binary(koopa.Eq, koopa.Imm(0), x), nil
		}

	case *ast.Binary:
		x, err := c.lowerExpr(e.X)
		if err != nil {
			return koopa.Value{}, err
		}

		y, err := c.lowerExpr(e.Y)
		if err != nil {
			return koopa.Value{}, err
		}

		// && and || evaluate both sides, normalize them to 0/1 and
		// combine bitwise. There is no short-circuit branching.
		if e.Op == ast.And || e.Op == ast.Or {
			x = c.binary(koopa.Ne, koopa.Imm(0), x)
			y = c.binary(koopa.Ne, koopa.Imm(0), y)
		}

		return c.binary(binaryOps[e.Op], x, y), nil

	case *ast.Call:
		v, ok, err := c.lowerCall(e)
		if err != nil {
			return koopa.Value{}, err
		}
		if !ok {
			return koopa.Value{}, newError(VoidValueUsed, e.Func+"()", e.Pos)
		}

		return v, nil
	}

	panic("unexpected expression " + ast.ToSExpr(e))
}

// lowerCall emits a call. ok is false for a void callee, which binds no
// temporary.
func (c *Context) lowerCall(e *ast.Call) (v koopa.Value, ok bool, err error) {
	ret, declared := c.funcs[e.Func]
	if !declared {
		return koopa.Value{}, false, newError(UnknownCallee, e.Func, e.Pos)
	}

	if ret == ast.Void {
		c.emit(&koopa.Call{Func: e.Func})
		return koopa.Value{}, false, nil
	}

	dst := c.newTemp()
	c.emit(&koopa.Call{Dst: dst, HasResult: true, Func: e.Func})

	return koopa.Temp(dst), true, nil
}
