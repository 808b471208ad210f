// Package interp executes Koopa IR directly.
//
// It backs the execute assertions of the golden suite and `sysyc run`.
// Arithmetic matches the constant folder; division by zero, a runaway
// loop or unbounded recursion stop the machine with an error.
package interp

import (
	"context"

	"github.com/nikandfor/errors"
	"github.com/nikandfor/tlog"

	"github.com/sysyc/sysyc/koopa"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrStackOverflow  = errors.New("call stack overflow")
)

const (
	DefaultMaxSteps = 10_000_000
	DefaultMaxDepth = 1000
)

type (
	Machine struct {
		MaxSteps int
		MaxDepth int

		funcs   map[string]*koopa.Function
		globals map[string]int32

		steps int
		depth int
	}

	frame struct {
		fn    *koopa.Function
		slots map[string]int32
		temps map[int]int32
	}
)

// New prepares a machine with the globals of p initialized.
func New(p *koopa.Program) *Machine {
	m := &Machine{
		MaxSteps: DefaultMaxSteps,
		MaxDepth: DefaultMaxDepth,
		funcs:    map[string]*koopa.Function{},
		globals:  map[string]int32{},
	}

	for _, f := range p.Funcs {
		m.funcs[f.Name] = f
	}

	for _, g := range p.Globals {
		m.globals[g.Name] = g.Init
	}

	return m
}

// Run executes @main of p on a new machine and returns its result.
func Run(ctx context.Context, p *koopa.Program) (int32, error) {
	return New(p).Call(ctx, "main")
}

// Call executes the named function. The result of a void function is 0.
func (m *Machine) Call(ctx context.Context, name string) (res int32, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "interpret", "entry", name)
	defer tr.Finish("err", &err)

	res, err = m.call(ctx, name)
	if err != nil {
		return 0, err
	}

	tr.Printw("finished", "result", res, "steps", m.steps)

	return res, nil
}

// Steps is the number of instructions and terminators executed so far.
func (m *Machine) Steps() int { return m.steps }

func (m *Machine) call(ctx context.Context, name string) (int32, error) {
	f := m.funcs[name]
	if f == nil {
		return 0, errors.New("call of unknown function @%s", name)
	}
	if len(f.Blocks) == 0 {
		return 0, errors.New("@%s has no blocks", name)
	}

	m.depth++
	defer func() { m.depth-- }()

	if m.depth > m.MaxDepth {
		return 0, errors.Wrap(ErrStackOverflow, "@%s", name)
	}

	fr := &frame{
		fn:    f,
		slots: map[string]int32{},
		temps: map[int]int32{},
	}

	b := f.Blocks[0]

	for {
		for _, in := range b.Insts {
			if err := m.step(ctx); err != nil {
				return 0, err
			}

			if err := m.exec(ctx, fr, in); err != nil {
				return 0, errors.Wrap(err, "@%s: %%%s: %s", name, b.Label, koopa.FormatInst(in))
			}
		}

		if err := m.step(ctx); err != nil {
			return 0, err
		}

		var next string

		switch t := b.Term.(type) {
		case *koopa.Ret:
			if t.Value == nil {
				return 0, nil
			}
			return fr.value(*t.Value), nil
		case *koopa.Jump:
			next = t.Target
		case *koopa.Branch:
			next = t.Else
			if fr.value(t.Cond) != 0 {
				next = t.Then
			}
		case nil:
			return 0, errors.New("@%s: %%%s: missing terminator", name, b.Label)
		default:
			panic(errors.New("unexpected terminator %T", t))
		}

		if b = f.Block(next); b == nil {
			return 0, errors.New("@%s: jump to unknown block %%%s", name, next)
		}
	}
}

func (m *Machine) step(ctx context.Context) error {
	m.steps++

	if m.MaxSteps > 0 && m.steps > m.MaxSteps {
		return ErrStepLimit
	}

	if m.steps%4096 == 0 {
		return ctx.Err()
	}

	return nil
}

func (m *Machine) exec(ctx context.Context, fr *frame, in koopa.Inst) error {
	switch in := in.(type) {
	case *koopa.Binary:
		x, y := fr.value(in.X), fr.value(in.Y)

		if (in.Op == koopa.Div || in.Op == koopa.Mod) && y == 0 {
			return ErrDivisionByZero
		}

		fr.temps[in.Dst] = koopa.Fold(in.Op, x, y)
	case *koopa.Alloc:
		// A slot allocated in a loop body keeps its value between
		// iterations, as it would with allocas hoisted to the entry.
		if _, ok := fr.slots[in.Slot]; !ok {
			fr.slots[in.Slot] = 0
		}
	case *koopa.Load:
		v, err := m.load(fr, in.Slot)
		if err != nil {
			return err
		}

		fr.temps[in.Dst] = v
	case *koopa.Store:
		return m.store(fr, in.Slot, fr.value(in.Value))
	case *koopa.Call:
		v, err := m.call(ctx, in.Func)
		if err != nil {
			return err
		}

		if in.HasResult {
			fr.temps[in.Dst] = v
		}
	default:
		panic(errors.New("unexpected instruction %T", in))
	}

	return nil
}

func (m *Machine) load(fr *frame, slot string) (int32, error) {
	if v, ok := fr.slots[slot]; ok {
		return v, nil
	}

	if v, ok := m.globals[slot]; ok {
		return v, nil
	}

	return 0, errors.New("load from unknown slot @%s", slot)
}

func (m *Machine) store(fr *frame, slot string, v int32) error {
	if _, ok := fr.slots[slot]; ok {
		fr.slots[slot] = v
		return nil
	}

	if _, ok := m.globals[slot]; ok {
		m.globals[slot] = v
		return nil
	}

	return errors.New("store to unknown slot @%s", slot)
}

func (fr *frame) value(v koopa.Value) int32 {
	if v.Kind == koopa.ValueImm {
		return v.N
	}

	return fr.temps[v.ID]
}
