// Package ast defines the SysY syntax tree handed over by the parser.
package ast

import "strconv"

// Pos is a byte offset into the document the tree was decoded from.
type Pos int

// NoPos marks nodes built in code rather than decoded.
const NoPos Pos = -1

func (p Pos) String() string {
	if p < 0 {
		return "-"
	}
	return strconv.Itoa(int(p))
}

// Node is implemented by every AST node.
type Node interface {
	GetPos() Pos
}

// Item is a top-level program element: a function or a global declaration.
type Item interface {
	Node
	itemNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

type Program struct {
	Items []Item
	Pos   Pos
}

func (n *Program) GetPos() Pos { return n.Pos }

// Funcs returns the function definitions in declaration order.
func (n *Program) Funcs() []*FuncDef {
	var fs []*FuncDef
	for _, it := range n.Items {
		if f, ok := it.(*FuncDef); ok {
			fs = append(fs, f)
		}
	}
	return fs
}

// FuncType is the return type tag of a function.
type FuncType int

const (
	Int FuncType = iota
	Void
)

func (t FuncType) String() string {
	if t == Void {
		return "void"
	}
	return "int"
}

type FuncDef struct {
	Name string
	Ret  FuncType
	Body *Block
	Pos  Pos
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

type Block struct {
	Items []Stmt
	Pos   Pos
}

// Def is one declarator of a var or const declaration. Init is nil for
// an uninitialized variable.
type Def struct {
	Name string
	Init Expr
	Pos  Pos
}

type VarDecl struct {
	Defs []*Def
	Pos  Pos
}

type ConstDecl struct {
	Defs []*Def
	Pos  Pos
}

// Return carries a nil Value for a bare "return;".
type Return struct {
	Value Expr
	Pos   Pos
}

type Assign struct {
	Name  string
	Value Expr
	Pos   Pos
}

type ExprStmt struct {
	X   Expr
	Pos Pos
}

type Empty struct {
	Pos Pos
}

// If covers both the matched and the open statement forms; the parser has
// already attached every else to its if, so Else is nil when absent.
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt
	Pos  Pos
}

type While struct {
	Cond Expr
	Body Stmt
	Pos  Pos
}

type Break struct {
	Pos Pos
}

type Continue struct {
	Pos Pos
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

type IntLit struct {
	Value int32
	Pos   Pos
}

type Ident struct {
	Name string
	Pos  Pos
}

type BinaryOp string

const (
	Add BinaryOp = "+"
	Sub BinaryOp = "-"
	Mul BinaryOp = "*"
	Div BinaryOp = "/"
	Mod BinaryOp = "%"
	Lt  BinaryOp = "<"
	Gt  BinaryOp = ">"
	Le  BinaryOp = "<="
	Ge  BinaryOp = ">="
	Eq  BinaryOp = "=="
	Ne  BinaryOp = "!="
	And BinaryOp = "&&"
	Or  BinaryOp = "||"
)

type Binary struct {
	Op   BinaryOp
	X, Y Expr
	Pos  Pos
}

type UnaryOp string

const (
	Plus UnaryOp = "+"
	Neg  UnaryOp = "-"
	Not  UnaryOp = "!"
)

type Unary struct {
	Op  UnaryOp
	X   Expr
	Pos Pos
}

// Call is a call of a no-argument function.
type Call struct {
	Func string
	Pos  Pos
}

func (n *FuncDef) GetPos() Pos   { return n.Pos }
func (n *Block) GetPos() Pos     { return n.Pos }
func (n *Def) GetPos() Pos       { return n.Pos }
func (n *VarDecl) GetPos() Pos   { return n.Pos }
func (n *ConstDecl) GetPos() Pos { return n.Pos }
func (n *Return) GetPos() Pos    { return n.Pos }
func (n *Assign) GetPos() Pos    { return n.Pos }
func (n *ExprStmt) GetPos() Pos  { return n.Pos }
func (n *Empty) GetPos() Pos     { return n.Pos }
func (n *If) GetPos() Pos        { return n.Pos }
func (n *While) GetPos() Pos     { return n.Pos }
func (n *Break) GetPos() Pos     { return n.Pos }
func (n *Continue) GetPos() Pos  { return n.Pos }
func (n *IntLit) GetPos() Pos    { return n.Pos }
func (n *Ident) GetPos() Pos     { return n.Pos }
func (n *Binary) GetPos() Pos    { return n.Pos }
func (n *Unary) GetPos() Pos     { return n.Pos }
func (n *Call) GetPos() Pos      { return n.Pos }

func (*FuncDef) itemNode()   {}
func (*VarDecl) itemNode()   {}
func (*ConstDecl) itemNode() {}

func (*Block) stmtNode()     {}
func (*VarDecl) stmtNode()   {}
func (*ConstDecl) stmtNode() {}
func (*Return) stmtNode()    {}
func (*Assign) stmtNode()    {}
func (*ExprStmt) stmtNode()  {}
func (*Empty) stmtNode()     {}
func (*If) stmtNode()        {}
func (*While) stmtNode()     {}
func (*Break) stmtNode()     {}
func (*Continue) stmtNode()  {}

func (*IntLit) exprNode() {}
func (*Ident) exprNode()  {}
func (*Binary) exprNode() {}
func (*Unary) exprNode()  {}
func (*Call) exprNode()   {}
