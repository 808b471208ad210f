// Package koopa models the Koopa IR subset the lowering pass emits.
package koopa

import (
	"strconv"
)

// EntryLabel names the first block of every function.
const EntryLabel = "entry"

// Program is a whole compilation: globals first, then functions.
type Program struct {
	Globals []*Global
	Funcs   []*Function
}

// Global is a module-level i32 slot.
type Global struct {
	Name    string // without '@'
	Init    int32
	HasInit bool // zeroinit otherwise
}

// Function is a function definition. Blocks[0] is the entry block.
type Function struct {
	Name    string // without '@'
	Returns bool   // i32 result, void otherwise
	Blocks  []*Block
}

// Block is a basic block. Term is nil only while the block is being built.
type Block struct {
	Label string // without '%'
	Insts []Inst
	Term  Term
}

// Func looks a function up by name.
func (p *Program) Func(name string) *Function {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Block looks a block up by label.
func (f *Function) Block(label string) *Block {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// ValueKind tells what a Value operand refers to.
type ValueKind uint8

const (
	ValueImm ValueKind = iota
	ValueTemp
)

// Value is an instruction operand: an integer immediate or a temporary.
type Value struct {
	Kind ValueKind
	N    int32 // immediate
	ID   int   // temporary
}

// Imm returns an immediate operand.
func Imm(n int32) Value { return Value{Kind: ValueImm, N: n} }

// Temp returns a reference to temporary %id.
func Temp(id int) Value { return Value{Kind: ValueTemp, ID: id} }

func (v Value) String() string {
	if v.Kind == ValueTemp {
		return "%" + strconv.Itoa(v.ID)
	}
	return strconv.FormatInt(int64(v.N), 10)
}

// Op is a binary operator.
type Op uint8

const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
	Lt
	Gt
	Le
	Ge
	Eq
	Ne
	And
	Or
)

var opNames = [...]string{
	Add: "add",
	Sub: "sub",
	Mul: "mul",
	Div: "div",
	Mod: "mod",
	Lt:  "lt",
	Gt:  "gt",
	Le:  "le",
	Ge:  "ge",
	Eq:  "eq",
	Ne:  "ne",
	And: "and",
	Or:  "or",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// Inst is a non-terminating instruction.
type Inst interface {
	inst()
}

// Binary is %Dst = op X, Y.
type Binary struct {
	Dst  int
	Op   Op
	X, Y Value
}

// Alloc is @Slot = alloc i32.
type Alloc struct {
	Slot string
}

// Load is %Dst = load @Slot.
type Load struct {
	Dst  int
	Slot string
}

// Store is store Value, @Slot.
type Store struct {
	Value Value
	Slot  string
}

// Call is call @Func() or, with HasResult, %Dst = call @Func().
type Call struct {
	Dst       int
	HasResult bool
	Func      string
}

func (*Binary) inst() {}
func (*Alloc) inst()  {}
func (*Load) inst()   {}
func (*Store) inst()  {}
func (*Call) inst()   {}

// Def returns the temporary an instruction binds.
func Def(i Inst) (int, bool) {
	switch i := i.(type) {
	case *Binary:
		return i.Dst, true
	case *Load:
		return i.Dst, true
	case *Call:
		return i.Dst, i.HasResult
	}
	return 0, false
}

// Uses returns the operands an instruction reads.
func Uses(i Inst) []Value {
	switch i := i.(type) {
	case *Binary:
		return []Value{i.X, i.Y}
	case *Store:
		return []Value{i.Value}
	}
	return nil
}

// Term is a block terminator.
type Term interface {
	term()
	Targets() []string
}

// Ret returns from the function; Value is nil for a bare ret.
type Ret struct {
	Value *Value
}

// Jump transfers control to Target unconditionally.
type Jump struct {
	Target string
}

// Branch goes to Then when Cond is non-zero and to Else otherwise.
type Branch struct {
	Cond       Value
	Then, Else string
}

func (*Ret) term()    {}
func (*Jump) term()   {}
func (*Branch) term() {}

func (*Ret) Targets() []string    { return nil }
func (t *Jump) Targets() []string { return []string{t.Target} }
func (t *Branch) Targets() []string {
	return []string{t.Then, t.Else}
}
