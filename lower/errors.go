package lower

import (
	"fmt"

	"github.com/nikandfor/loc"

	"github.com/sysyc/sysyc/ast"
)

// Kind classifies a lowering error.
type Kind int

const (
	UnresolvedName Kind = iota + 1
	AssignToConstant
	ConstantExpressionNotConstant
	BreakOrContinueOutsideLoop
	MissingReturn
	UnknownCallee
	VoidValueUsed
	InvalidReturn
	Redeclared
	DuplicateFunction
	DivisionByZero
)

var kinds = [...]struct {
	name string
	code string
	msg  string
}{
	UnresolvedName:                {"UnresolvedName", "L0001", "unresolved name"},
	AssignToConstant:              {"AssignToConstant", "L0002", "assignment to constant"},
	ConstantExpressionNotConstant: {"ConstantExpressionNotConstant", "L0003", "constant initializer is not constant"},
	BreakOrContinueOutsideLoop:    {"BreakOrContinueOutsideLoop", "L0004", "outside of a loop"},
	MissingReturn:                 {"MissingReturn", "L0005", "control reaches end of non-void function"},
	UnknownCallee:                 {"UnknownCallee", "L0006", "call of undeclared function"},
	VoidValueUsed:                 {"VoidValueUsed", "L0007", "void value used"},
	InvalidReturn:                 {"InvalidReturn", "L0008", "return does not match function type"},
	Redeclared:                    {"Redeclared", "L0009", "redeclared in this scope"},
	DuplicateFunction:             {"DuplicateFunction", "L0010", "function redefined"},
	DivisionByZero:                {"DivisionByZero", "L0011", "division by zero in constant expression"},
}

func (k Kind) String() string {
	if k <= 0 || int(k) >= len(kinds) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].name
}

// Code is the stable diagnostic code of the kind.
func (k Kind) Code() string {
	if k <= 0 || int(k) >= len(kinds) {
		return "L0000"
	}
	return kinds[k].code
}

// Error is a fatal lowering error.
type Error struct {
	Kind Kind
	Name string // offending name or statement
	Pos  ast.Pos

	From loc.PC // lowering code that raised it
}

func newError(kind Kind, name string, pos ast.Pos) *Error {
	return &Error{
		Kind: kind,
		Name: name,
		Pos:  pos,
		From: loc.Caller(1),
	}
}

func (e *Error) Error() string {
	msg := kinds[0].msg
	if e.Kind > 0 && int(e.Kind) < len(kinds) {
		msg = kinds[e.Kind].msg
	}

	if e.Name == "" {
		return fmt.Sprintf("%s: %s (at %v)", e.Kind.Code(), msg, e.Pos)
	}

	return fmt.Sprintf("%s: %s: %s (at %v)", e.Kind.Code(), msg, e.Name, e.Pos)
}
