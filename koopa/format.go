package koopa

import (
	"fmt"
	"strings"
)

const indent = "   "

// String renders the program as Koopa IR text.
func (p *Program) String() string {
	var b strings.Builder

	for _, g := range p.Globals {
		writeGlobal(&b, g)
	}

	for i, f := range p.Funcs {
		if i > 0 || len(p.Globals) != 0 {
			b.WriteString("\n")
		}
		writeFunction(&b, f)
	}

	return b.String()
}

func (f *Function) String() string {
	var b strings.Builder
	writeFunction(&b, f)
	return b.String()
}

func writeGlobal(b *strings.Builder, g *Global) {
	if g.HasInit {
		fmt.Fprintf(b, "global @%s = alloc i32, %d\n", g.Name, g.Init)
	} else {
		fmt.Fprintf(b, "global @%s = alloc i32, zeroinit\n", g.Name)
	}
}

func writeFunction(b *strings.Builder, f *Function) {
	if f.Returns {
		fmt.Fprintf(b, "fun @%s(): i32 {\n", f.Name)
	} else {
		fmt.Fprintf(b, "fun @%s() {\n", f.Name)
	}

	for _, blk := range f.Blocks {
		fmt.Fprintf(b, "%%%s:\n", blk.Label)

		for _, in := range blk.Insts {
			b.WriteString(indent)
			b.WriteString(FormatInst(in))
			b.WriteString("\n")
		}

		if blk.Term != nil {
			b.WriteString(indent)
			b.WriteString(FormatTerm(blk.Term))
			b.WriteString("\n")
		}
	}

	b.WriteString("}\n")
}

// FormatInst renders one instruction without indentation.
func FormatInst(in Inst) string {
	switch in := in.(type) {
	case *Binary:
		return fmt.Sprintf("%%%d = %s %s, %s", in.Dst, in.Op, in.X, in.Y)
	case *Alloc:
		return fmt.Sprintf("@%s = alloc i32", in.Slot)
	case *Load:
		return fmt.Sprintf("%%%d = load @%s", in.Dst, in.Slot)
	case *Store:
		return fmt.Sprintf("store %s, @%s", in.Value, in.Slot)
	case *Call:
		if in.HasResult {
			return fmt.Sprintf("%%%d = call @%s()", in.Dst, in.Func)
		}
		return fmt.Sprintf("call @%s()", in.Func)
	default:
		return fmt.Sprintf("<unknown %T>", in)
	}
}

// FormatTerm renders one terminator without indentation.
func FormatTerm(t Term) string {
	switch t := t.(type) {
	case *Ret:
		if t.Value == nil {
			return "ret"
		}
		return "ret " + t.Value.String()
	case *Jump:
		return "jump %" + t.Target
	case *Branch:
		return fmt.Sprintf("br %s, %%%s, %%%s", t.Cond, t.Then, t.Else)
	default:
		return fmt.Sprintf("<unknown %T>", t)
	}
}
