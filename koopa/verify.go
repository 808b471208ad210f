package koopa

import (
	"github.com/nikandfor/errors"
)

// Verify checks the structural invariants the backend relies on:
// every block ends with exactly one terminator, labels are unique within
// a function, every jump and branch target exists, every temporary is
// bound once per program and before it is read, memory and call
// operands name slots and functions that exist, and no slot shares its
// name with a function.
func Verify(p *Program) error {
	globals := map[string]bool{}
	for _, g := range p.Globals {
		if globals[g.Name] {
			return errors.New("global @%s defined twice", g.Name)
		}
		globals[g.Name] = true
	}

	funcs := map[string]*Function{}
	for _, f := range p.Funcs {
		if funcs[f.Name] != nil {
			return errors.New("function @%s defined twice", f.Name)
		}
		funcs[f.Name] = f
	}

	for _, g := range p.Globals {
		if funcs[g.Name] != nil {
			return errors.New("global @%s clashes with function @%s", g.Name, g.Name)
		}
	}

	temps := map[int]string{}

	for _, f := range p.Funcs {
		if err := verifyFunc(f, funcs, globals, temps); err != nil {
			return errors.Wrap(err, "@%s", f.Name)
		}
	}

	return nil
}

func verifyFunc(f *Function, funcs map[string]*Function, globals map[string]bool, temps map[int]string) error {
	if len(f.Blocks) == 0 {
		return errors.New("no blocks")
	}
	if f.Blocks[0].Label != EntryLabel {
		return errors.New("first block is %%%s, want %%%s", f.Blocks[0].Label, EntryLabel)
	}

	labels := map[string]bool{}
	slots := map[string]bool{}

	for _, b := range f.Blocks {
		if labels[b.Label] {
			return errors.New("duplicate label %%%s", b.Label)
		}
		labels[b.Label] = true

		for _, in := range b.Insts {
			if a, ok := in.(*Alloc); ok {
				if slots[a.Slot] || globals[a.Slot] {
					return errors.New("%%%s: slot @%s allocated twice", b.Label, a.Slot)
				}
				if funcs[a.Slot] != nil {
					return errors.New("%%%s: slot @%s clashes with function @%s", b.Label, a.Slot, a.Slot)
				}
				slots[a.Slot] = true
			}
		}
	}

	defined := map[int]bool{}

	use := func(b *Block, v Value) error {
		if v.Kind == ValueTemp && !defined[v.ID] {
			return errors.New("%%%s: %v used before definition", b.Label, v)
		}
		return nil
	}

	for _, b := range f.Blocks {
		for _, in := range b.Insts {
			for _, v := range Uses(in) {
				if err := use(b, v); err != nil {
					return err
				}
			}

			switch in := in.(type) {
			case *Load:
				if !slots[in.Slot] && !globals[in.Slot] {
					return errors.New("%%%s: load from unknown slot @%s", b.Label, in.Slot)
				}
			case *Store:
				if !slots[in.Slot] && !globals[in.Slot] {
					return errors.New("%%%s: store to unknown slot @%s", b.Label, in.Slot)
				}
			case *Call:
				callee := funcs[in.Func]
				if callee == nil {
					return errors.New("%%%s: call of unknown function @%s", b.Label, in.Func)
				}
				if in.HasResult && !callee.Returns {
					return errors.New("%%%s: result of void function @%s bound", b.Label, in.Func)
				}
			}

			if id, ok := Def(in); ok {
				if prev, dup := temps[id]; dup {
					return errors.New("%%%s: %%%d already bound in @%s", b.Label, id, prev)
				}
				temps[id] = f.Name
				defined[id] = true
			}
		}

		switch t := b.Term.(type) {
		case nil:
			return errors.New("%%%s: missing terminator", b.Label)
		case *Ret:
			if (t.Value != nil) != f.Returns {
				return errors.New("%%%s: %s does not match function type", b.Label, FormatTerm(t))
			}
			if t.Value != nil {
				if err := use(b, *t.Value); err != nil {
					return err
				}
			}
		case *Branch:
			if err := use(b, t.Cond); err != nil {
				return err
			}
		}

		for _, target := range b.Term.Targets() {
			if !labels[target] {
				return errors.New("%%%s: jump to unknown block %%%s", b.Label, target)
			}
		}
	}

	return nil
}
