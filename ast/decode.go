package ast

import (
	"math"
	"strconv"

	"github.com/nikandfor/errors"

	"github.com/sysyc/sysyc/sexy"
)

// Parse reads an S-expression document and decodes it into a Program.
func Parse(src string) (*Program, error) {
	n, err := sexy.Parse(src)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}

	return Decode(n)
}

// ParseExpr reads a single expression datum.
func ParseExpr(src string) (Expr, error) {
	n, err := sexy.Parse(src)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}

	return decodeExpr(n)
}

// Decode converts a (program ...) datum into a Program.
func Decode(n *sexy.Node) (*Program, error) {
	if n.Head() != "program" {
		return nil, malformed(n, "expected (program ...)")
	}

	p := &Program{Pos: Pos(n.Pos)}

	for _, x := range n.Args() {
		var it Item
		var err error

		switch x.Head() {
		case "func":
			it, err = decodeFunc(x)
		case "var-decl":
			it, err = decodeVarDecl(x)
		case "const-decl":
			it, err = decodeConstDecl(x)
		default:
			err = malformed(x, "expected func, var-decl or const-decl")
		}
		if err != nil {
			return nil, err
		}

		p.Items = append(p.Items, it)
	}

	return p, nil
}

func malformed(n *sexy.Node, msg string) error {
	return errors.New("offset %d: %s, got %v", n.Pos, msg, n)
}

func stringArg(n *sexy.Node, i int) (string, bool) {
	args := n.Args()
	if i >= len(args) || args[i].Type != sexy.NodeString {
		return "", false
	}
	return args[i].Text, true
}

func decodeFunc(n *sexy.Node) (*FuncDef, error) {
	args := n.Args()
	name, ok := stringArg(n, 0)
	if !ok || len(args) != 3 || args[1].Type != sexy.NodeSymbol || args[2].Head() != "block" {
		return nil, malformed(n, `expected (func "name" int|void (block ...))`)
	}

	f := &FuncDef{Name: name, Pos: Pos(n.Pos)}

	switch args[1].Text {
	case "int":
		f.Ret = Int
	case "void":
		f.Ret = Void
	default:
		return nil, malformed(args[1], "expected int or void")
	}

	body, err := decodeBlock(args[2])
	if err != nil {
		return nil, errors.Wrap(err, "func %v", name)
	}
	f.Body = body

	return f, nil
}

func decodeBlock(n *sexy.Node) (*Block, error) {
	b := &Block{Pos: Pos(n.Pos)}

	for _, x := range n.Args() {
		s, err := decodeStmt(x)
		if err != nil {
			return nil, err
		}
		b.Items = append(b.Items, s)
	}

	return b, nil
}

func decodeDefs(n *sexy.Node, needInit bool) ([]*Def, error) {
	var defs []*Def

	for _, x := range n.Args() {
		if x.Type != sexy.NodeList || len(x.Items) == 0 || len(x.Items) > 2 || x.Items[0].Type != sexy.NodeString {
			return nil, malformed(x, `expected ("name" [init])`)
		}

		d := &Def{Name: x.Items[0].Text, Pos: Pos(x.Pos)}

		if len(x.Items) == 2 {
			init, err := decodeExpr(x.Items[1])
			if err != nil {
				return nil, err
			}
			d.Init = init
		} else if needInit {
			return nil, malformed(x, "constant without initializer")
		}

		defs = append(defs, d)
	}

	if len(defs) == 0 {
		return nil, malformed(n, "empty declaration")
	}

	return defs, nil
}

func decodeVarDecl(n *sexy.Node) (*VarDecl, error) {
	defs, err := decodeDefs(n, false)
	if err != nil {
		return nil, err
	}

	return &VarDecl{Defs: defs, Pos: Pos(n.Pos)}, nil
}

func decodeConstDecl(n *sexy.Node) (*ConstDecl, error) {
	defs, err := decodeDefs(n, true)
	if err != nil {
		return nil, err
	}

	return &ConstDecl{Defs: defs, Pos: Pos(n.Pos)}, nil
}

func decodeStmt(n *sexy.Node) (Stmt, error) {
	args := n.Args()
	pos := Pos(n.Pos)

	switch n.Head() {
	case "block":
		return decodeBlock(n)
	case "var-decl":
		return decodeVarDecl(n)
	case "const-decl":
		return decodeConstDecl(n)
	case "return":
		switch len(args) {
		case 0:
			return &Return{Pos: pos}, nil
		case 1:
			x, err := decodeExpr(args[0])
			if err != nil {
				return nil, err
			}
			return &Return{Value: x, Pos: pos}, nil
		}
	case "assign":
		name, ok := stringArg(n, 0)
		if !ok || len(args) != 2 {
			break
		}
		x, err := decodeExpr(args[1])
		if err != nil {
			return nil, err
		}
		return &Assign{Name: name, Value: x, Pos: pos}, nil
	case "expr":
		if len(args) != 1 {
			break
		}
		x, err := decodeExpr(args[0])
		if err != nil {
			return nil, err
		}
		return &ExprStmt{X: x, Pos: pos}, nil
	case "empty":
		if len(args) == 0 {
			return &Empty{Pos: pos}, nil
		}
	case "if":
		if len(args) != 2 && len(args) != 3 {
			break
		}
		s := &If{Pos: pos}
		var err error
		if s.Cond, err = decodeExpr(args[0]); err != nil {
			return nil, err
		}
		if s.Then, err = decodeStmt(args[1]); err != nil {
			return nil, err
		}
		if len(args) == 3 {
			if s.Else, err = decodeStmt(args[2]); err != nil {
				return nil, err
			}
		}
		return s, nil
	case "while":
		if len(args) != 2 {
			break
		}
		s := &While{Pos: pos}
		var err error
		if s.Cond, err = decodeExpr(args[0]); err != nil {
			return nil, err
		}
		if s.Body, err = decodeStmt(args[1]); err != nil {
			return nil, err
		}
		return s, nil
	case "break":
		if len(args) == 0 {
			return &Break{Pos: pos}, nil
		}
	case "continue":
		if len(args) == 0 {
			return &Continue{Pos: pos}, nil
		}
	default:
		return nil, malformed(n, "expected statement")
	}

	return nil, malformed(n, "malformed "+n.Head())
}

var binaryOps = map[string]BinaryOp{}

func init() {
	for _, op := range []BinaryOp{Add, Sub, Mul, Div, Mod, Lt, Gt, Le, Ge, Eq, Ne, And, Or} {
		binaryOps[string(op)] = op
	}
}

func decodeExpr(n *sexy.Node) (Expr, error) {
	pos := Pos(n.Pos)

	if n.Type == sexy.NodeInteger {
		v, err := strconv.ParseInt(n.Text, 10, 64)
		if err != nil || v < math.MinInt32 || v > math.MaxUint32 {
			return nil, malformed(n, "integer literal out of range")
		}
		return &IntLit{Value: int32(v), Pos: pos}, nil
	}

	args := n.Args()

	switch n.Head() {
	case "var":
		if name, ok := stringArg(n, 0); ok && len(args) == 1 {
			return &Ident{Name: name, Pos: pos}, nil
		}
	case "call":
		if name, ok := stringArg(n, 0); ok && len(args) == 1 {
			return &Call{Func: name, Pos: pos}, nil
		}
	case "unary":
		op, ok := stringArg(n, 0)
		if !ok || len(args) != 2 {
			break
		}
		switch UnaryOp(op) {
		case Plus, Neg, Not:
		default:
			return nil, malformed(args[0], "unknown unary operator")
		}
		x, err := decodeExpr(args[1])
		if err != nil {
			return nil, err
		}
		return &Unary{Op: UnaryOp(op), X: x, Pos: pos}, nil
	case "binary":
		op, ok := stringArg(n, 0)
		if !ok || len(args) != 3 {
			break
		}
		bop, ok := binaryOps[op]
		if !ok {
			return nil, malformed(args[0], "unknown binary operator")
		}
		x, err := decodeExpr(args[1])
		if err != nil {
			return nil, err
		}
		y, err := decodeExpr(args[2])
		if err != nil {
			return nil, err
		}
		return &Binary{Op: bop, X: x, Y: y, Pos: pos}, nil
	default:
		return nil, malformed(n, "expected expression")
	}

	return nil, malformed(n, "malformed "+n.Head())
}
