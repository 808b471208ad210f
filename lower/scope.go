package lower

import (
	"strconv"

	"github.com/nikandfor/loc"
	"github.com/nikandfor/tlog"

	"github.com/sysyc/sysyc/ast"
)

// SymbolKind tells a compile-time constant from a variable with storage.
type SymbolKind int

const (
	Const SymbolKind = iota
	Variable
)

func (k SymbolKind) String() string {
	if k == Const {
		return "const"
	}
	return "var"
}

// Symbol is a declared name. Symbols are never mutated after insertion;
// shadowing inserts a new Symbol in an inner scope.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Depth int

	Value   int32  // Const
	Storage string // Variable, slot name without '@'
}

// Depth is the number of scopes on the stack. The global scope is depth 1.
func (c *Context) Depth() int { return len(c.scopes) }

// EnterScope pushes an empty innermost scope.
func (c *Context) EnterScope() {
	c.scopes = append(c.scopes, map[string]*Symbol{})

	tlog.V("scope").Printw("enter scope", "depth", len(c.scopes), "from", loc.Callers(1, 2))
}

// ExitScope pops the innermost scope. The global scope is never popped.
func (c *Context) ExitScope() {
	if len(c.scopes) <= 1 {
		panic("exit of the global scope")
	}

	c.scopes = c.scopes[:len(c.scopes)-1]

	tlog.V("scope").Printw("exit scope", "depth", len(c.scopes), "from", loc.Callers(1, 2))
}

func (c *Context) insert(s *Symbol, pos ast.Pos) error {
	top := c.scopes[len(c.scopes)-1]
	if _, ok := top[s.Name]; ok {
		return newError(Redeclared, s.Name, pos)
	}

	top[s.Name] = s

	return nil
}

// DeclareConstant binds name to a compile-time value in the innermost scope.
func (c *Context) DeclareConstant(name string, value int32, pos ast.Pos) error {
	return c.insert(&Symbol{Name: name, Kind: Const, Depth: c.Depth(), Value: value}, pos)
}

// DeclareVariable binds name to a new memory slot in the innermost scope.
//
// The slot is name__depth for the first declaration of that pair in the
// compilation and name__depth_N for the following ones. Suffixes that
// would spell a reserved function name are skipped.
//
// Declaring the same decoded site again (same name, depth and pos) binds
// the slot it got the first time, and allocatedBefore is true: the caller
// must not allocate it again. Nodes at ast.NoPos always get a fresh slot.
func (c *Context) DeclareVariable(name string, pos ast.Pos) (storage string, allocatedBefore bool, err error) {
	depth := c.Depth()
	at := site{name: name, depth: depth, pos: pos}

	base := name + "__" + strconv.Itoa(depth)
	n := c.declared[base]

	storage, reused := c.sites[at]
	if !reused {
		storage = slotName(base, n)
		for c.reserved[storage] {
			n++
			storage = slotName(base, n)
		}
	}

	err = c.insert(&Symbol{Name: name, Kind: Variable, Depth: depth, Storage: storage}, pos)
	if err != nil {
		return "", false, err
	}

	if !reused {
		c.declared[base] = n + 1
	}

	if pos != ast.NoPos {
		c.sites[at] = storage
	}

	allocatedBefore = c.allocated[storage]
	c.allocated[storage] = true

	tlog.V("alloc").Printw("declare variable", "name", name, "storage", storage, "allocated_before", allocatedBefore)

	return storage, allocatedBefore, nil
}

// ReserveFunction keeps name out of the slot namespace. Functions and
// slots share the '@' namespace of the IR.
func (c *Context) ReserveFunction(name string) {
	c.reserved[name] = true
}

func slotName(base string, n int) string {
	if n == 0 {
		return base
	}

	return base + "_" + strconv.Itoa(n)
}

// Resolve finds the innermost declaration of name.
func (c *Context) Resolve(name string, pos ast.Pos) (*Symbol, error) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if s, ok := c.scopes[i][name]; ok {
			return s, nil
		}
	}

	return nil, newError(UnresolvedName, name, pos)
}
