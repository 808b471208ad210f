package koopa

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func ret(v Value) *Ret { return &Ret{Value: &v} }

func sampleProgram() *Program {
	return &Program{
		Globals: []*Global{
			{Name: "g__1"},
			{Name: "h__1", Init: -3, HasInit: true},
		},
		Funcs: []*Function{
			{
				Name: "f",
				Blocks: []*Block{
					{Label: EntryLabel, Term: &Ret{}},
				},
			},
			{
				Name:    "main",
				Returns: true,
				Blocks: []*Block{
					{
						Label: EntryLabel,
						Insts: []Inst{
							&Alloc{Slot: "x__2"},
							&Binary{Dst: 0, Op: Add, X: Imm(0), Y: Imm(1)},
							&Store{Value: Temp(0), Slot: "x__2"},
							&Call{Func: "f"},
							&Load{Dst: 1, Slot: "x__2"},
						},
						Term: &Branch{Cond: Temp(1), Then: "block_0", Else: "block_1"},
					},
					{
						Label: "block_0",
						Insts: []Inst{&Load{Dst: 2, Slot: "g__1"}},
						Term:  ret(Temp(2)),
					},
					{
						Label: "block_1",
						Term:  &Jump{Target: "block_0"},
					},
				},
			},
		},
	}
}

func TestFormatProgram(t *testing.T) {
	want := `global @g__1 = alloc i32, zeroinit
global @h__1 = alloc i32, -3

fun @f() {
%entry:
   ret
}

fun @main(): i32 {
%entry:
   @x__2 = alloc i32
   %0 = add 0, 1
   store %0, @x__2
   call @f()
   %1 = load @x__2
   br %1, %block_0, %block_1
%block_0:
   %2 = load @g__1
   ret %2
%block_1:
   jump %block_0
}
`
	be.Equal(t, sampleProgram().String(), want)
}

func TestFormatInstructions(t *testing.T) {
	tests := []struct {
		in   Inst
		want string
	}{
		{&Binary{Dst: 3, Op: Sub, X: Imm(0), Y: Temp(2)}, "%3 = sub 0, %2"},
		{&Binary{Dst: 4, Op: Ne, X: Imm(0), Y: Temp(3)}, "%4 = ne 0, %3"},
		{&Binary{Dst: 5, Op: Mod, X: Temp(1), Y: Imm(-7)}, "%5 = mod %1, -7"},
		{&Call{Dst: 6, HasResult: true, Func: "g"}, "%6 = call @g()"},
		{&Store{Value: Imm(5), Slot: "a__3_1"}, "store 5, @a__3_1"},
	}

	for _, test := range tests {
		be.Equal(t, FormatInst(test.in), test.want)
	}

	for op := Add; op <= Or; op++ {
		be.True(t, op.String() != "")
	}
	be.Equal(t, Ge.String(), "ge")
	be.Equal(t, Op(99).String(), "op(99)")
}

func TestFormatNoGlobals(t *testing.T) {
	p := &Program{Funcs: []*Function{
		{Name: "a", Blocks: []*Block{{Label: EntryLabel, Term: &Ret{}}}},
		{Name: "b", Blocks: []*Block{{Label: EntryLabel, Term: &Ret{}}}},
	}}

	be.Equal(t, p.String(), "fun @a() {\n%entry:\n   ret\n}\n\nfun @b() {\n%entry:\n   ret\n}\n")
}

func TestLookups(t *testing.T) {
	p := sampleProgram()
	main := p.Func("main")
	be.True(t, main != nil)
	be.True(t, p.Func("nope") == nil)
	be.Equal(t, main.Block("block_1").Term.Targets(), []string{"block_0"})
	be.True(t, main.Block("block_9") == nil)
}

func TestVerifyAccepts(t *testing.T) {
	be.Err(t, Verify(sampleProgram()), nil)
}

func TestVerifyRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Program)
		want   string
	}{
		{"missing terminator", func(p *Program) {
			p.Funcs[1].Blocks[2].Term = nil
		}, "%block_1: missing terminator"},
		{"unknown target", func(p *Program) {
			p.Funcs[1].Blocks[2].Term = &Jump{Target: "block_7"}
		}, "jump to unknown block %block_7"},
		{"duplicate label", func(p *Program) {
			p.Funcs[1].Blocks[2].Label = "block_0"
		}, "duplicate label %block_0"},
		{"entry first", func(p *Program) {
			p.Funcs[0].Blocks[0].Label = "start"
		}, "first block is %start"},
		{"temp rebound", func(p *Program) {
			b := p.Funcs[1].Blocks[1]
			b.Insts = append(b.Insts, &Binary{Dst: 0, Op: Add, X: Imm(0), Y: Imm(0)})
		}, "%0 already bound"},
		{"temp undefined", func(p *Program) {
			p.Funcs[1].Blocks[1].Term = ret(Temp(42))
		}, "%42 used before definition"},
		{"unknown slot", func(p *Program) {
			p.Funcs[1].Blocks[1].Insts[0] = &Load{Dst: 2, Slot: "y__2"}
		}, "load from unknown slot @y__2"},
		{"double alloc", func(p *Program) {
			b := p.Funcs[1].Blocks[2]
			b.Insts = append(b.Insts, &Alloc{Slot: "x__2"})
		}, "slot @x__2 allocated twice"},
		{"global named as function", func(p *Program) {
			p.Globals[0].Name = "f"
		}, "global @f clashes with function @f"},
		{"alloc named as function", func(p *Program) {
			p.Funcs[1].Blocks[0].Insts[0] = &Alloc{Slot: "f"}
		}, "slot @f clashes with function @f"},
		{"void result", func(p *Program) {
			p.Funcs[1].Blocks[0].Insts[3] = &Call{Dst: 9, HasResult: true, Func: "f"}
		}, "result of void function @f bound"},
		{"ret value in void", func(p *Program) {
			p.Funcs[0].Blocks[0].Term = ret(Imm(1))
		}, "ret 1 does not match function type"},
		{"unknown callee", func(p *Program) {
			p.Funcs[1].Blocks[0].Insts[3] = &Call{Func: "nope"}
		}, "call of unknown function @nope"},
		{"duplicate function", func(p *Program) {
			p.Funcs[0].Name = "main"
		}, "function @main defined twice"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := sampleProgram()
			test.mutate(p)

			err := Verify(p)
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), test.want))
		})
	}
}
