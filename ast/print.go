package ast

import (
	"strconv"

	"github.com/sysyc/sysyc/sexy"
)

// ToSExpr renders a node back into the S-expression form Decode accepts.
func ToSExpr(n Node) string {
	return encode(n).String()
}

func sym(s string) *sexy.Node { return sexy.NewSymbol(s) }
func str(s string) *sexy.Node { return sexy.NewString(s) }

func form(head string, items ...*sexy.Node) *sexy.Node {
	return sexy.NewList(append([]*sexy.Node{sym(head)}, items...)...)
}

func encodeDefs(head string, defs []*Def) *sexy.Node {
	l := form(head)
	for _, d := range defs {
		def := sexy.NewList(str(d.Name))
		if d.Init != nil {
			def.Items = append(def.Items, encode(d.Init))
		}
		l.Items = append(l.Items, def)
	}
	return l
}

func encode(n Node) *sexy.Node {
	switch n := n.(type) {
	case *Program:
		l := form("program")
		for _, it := range n.Items {
			l.Items = append(l.Items, encode(it))
		}
		return l
	case *FuncDef:
		return form("func", str(n.Name), sym(n.Ret.String()), encode(n.Body))
	case *Block:
		l := form("block")
		for _, s := range n.Items {
			l.Items = append(l.Items, encode(s))
		}
		return l
	case *VarDecl:
		return encodeDefs("var-decl", n.Defs)
	case *ConstDecl:
		return encodeDefs("const-decl", n.Defs)
	case *Return:
		if n.Value == nil {
			return form("return")
		}
		return form("return", encode(n.Value))
	case *Assign:
		return form("assign", str(n.Name), encode(n.Value))
	case *ExprStmt:
		return form("expr", encode(n.X))
	case *Empty:
		return form("empty")
	case *If:
		l := form("if", encode(n.Cond), encode(n.Then))
		if n.Else != nil {
			l.Items = append(l.Items, encode(n.Else))
		}
		return l
	case *While:
		return form("while", encode(n.Cond), encode(n.Body))
	case *Break:
		return form("break")
	case *Continue:
		return form("continue")
	case *IntLit:
		return sexy.NewInteger(strconv.FormatInt(int64(n.Value), 10))
	case *Ident:
		return form("var", str(n.Name))
	case *Binary:
		return form("binary", str(string(n.Op)), encode(n.X), encode(n.Y))
	case *Unary:
		return form("unary", str(string(n.Op)), encode(n.X))
	case *Call:
		return form("call", str(n.Func))
	default:
		panic(n)
	}
}
