package lower

import (
	"github.com/sysyc/sysyc/ast"
	"github.com/sysyc/sysyc/koopa"
)

// EvalConst computes the value of a constant expression with 32-bit
// wrapping arithmetic. Division and modulo truncate toward zero.
func (c *Context) EvalConst(e ast.Expr) (int32, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		return e.Value, nil
	case *ast.Ident:
		s, err := c.Resolve(e.Name, e.Pos)
		if err != nil {
			return 0, err
		}
		if s.Kind != Const {
			return 0, newError(ConstantExpressionNotConstant, e.Name, e.Pos)
		}
		return s.Value, nil
	case *ast.Call:
		return 0, newError(ConstantExpressionNotConstant, e.Func+"()", e.Pos)
	case *ast.Unary:
		x, err := c.EvalConst(e.X)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case ast.Plus:
			return x, nil
		case ast.Neg:
			return -x, nil
		case ast.Not:
			return b2i(x == 0), nil
		}
	case *ast.Binary:
		x, err := c.EvalConst(e.X)
		if err != nil {
			return 0, err
		}
		y, err := c.EvalConst(e.Y)
		if err != nil {
			return 0, err
		}
		if (e.Op == ast.Div || e.Op == ast.Mod) && y == 0 {
			return 0, newError(DivisionByZero, string(e.Op), e.Pos)
		}
		if e.Op == ast.And || e.Op == ast.Or {
			x, y = b2i(x != 0), b2i(y != 0)
		}
		return koopa.Fold(binaryOps[e.Op], x, y), nil
	}

	panic("unexpected constant expression " + ast.ToSExpr(e))
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
