// Package llvmgen translates Koopa IR into an LLVM IR module.
package llvmgen

import (
	"context"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/nikandfor/errors"
	"github.com/nikandfor/tlog"

	"github.com/sysyc/sysyc/koopa"
)

type (
	gen struct {
		m *ir.Module

		funcs   map[string]*ir.Func
		globals map[string]*ir.Global
	}

	funcGen struct {
		*gen

		src *koopa.Function
		f   *ir.Func

		blocks map[string]*ir.Block
		slots  map[string]*ir.InstAlloca
		temps  map[int]value.Value
	}
)

var (
	zero = constant.NewInt(types.I32, 0)

	arith = map[koopa.Op]func(b *ir.Block, x, y value.Value) value.Value{
		koopa.Add: func(b *ir.Block, x, y value.Value) value.Value { return b.NewAdd(x, y) },
		koopa.Sub: func(b *ir.Block, x, y value.Value) value.Value { return b.NewSub(x, y) },
		koopa.Mul: func(b *ir.Block, x, y value.Value) value.Value { return b.NewMul(x, y) },
		koopa.Div: func(b *ir.Block, x, y value.Value) value.Value { return b.NewSDiv(x, y) },
		koopa.Mod: func(b *ir.Block, x, y value.Value) value.Value { return b.NewSRem(x, y) },
		koopa.And: func(b *ir.Block, x, y value.Value) value.Value { return b.NewAnd(x, y) },
		koopa.Or:  func(b *ir.Block, x, y value.Value) value.Value { return b.NewOr(x, y) },
	}

	preds = map[koopa.Op]enum.IPred{
		koopa.Lt: enum.IPredSLT,
		koopa.Gt: enum.IPredSGT,
		koopa.Le: enum.IPredSLE,
		koopa.Ge: enum.IPredSGE,
		koopa.Eq: enum.IPredEQ,
		koopa.Ne: enum.IPredNE,
	}
)

// Translate builds an LLVM module equivalent to p.
//
// Every slot becomes an alloca at the top of the entry block, comparison
// results are widened back to i32 and branch conditions are tested
// against zero.
func Translate(ctx context.Context, p *koopa.Program) (_ *ir.Module, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "llvm translate", "funcs", len(p.Funcs), "globals", len(p.Globals))
	defer tr.Finish("err", &err)

	if err = koopa.Verify(p); err != nil {
		return nil, errors.Wrap(err, "verify")
	}

	g := &gen{
		m:       ir.NewModule(),
		funcs:   map[string]*ir.Func{},
		globals: map[string]*ir.Global{},
	}

	for _, gl := range p.Globals {
		var init constant.Constant = constant.NewZeroInitializer(types.I32)
		if gl.HasInit {
			init = constant.NewInt(types.I32, int64(gl.Init))
		}

		g.globals[gl.Name] = g.m.NewGlobalDef(gl.Name, init)
	}

	// Declare all functions first so calls may refer to later ones.
	for _, f := range p.Funcs {
		var ret types.Type = types.Void
		if f.Returns {
			ret = types.I32
		}

		g.funcs[f.Name] = g.m.NewFunc(f.Name, ret)
	}

	for _, f := range p.Funcs {
		if err = g.translateFunc(f); err != nil {
			return nil, errors.Wrap(err, "@%s", f.Name)
		}
	}

	return g.m, nil
}

// Emit translates p and renders the module as LLVM assembly.
func Emit(ctx context.Context, p *koopa.Program) (string, error) {
	m, err := Translate(ctx, p)
	if err != nil {
		return "", err
	}

	return m.String(), nil
}

func (g *gen) translateFunc(src *koopa.Function) error {
	if len(src.Blocks) == 0 {
		return errors.New("no blocks")
	}

	fg := &funcGen{
		gen:    g,
		src:    src,
		f:      g.funcs[src.Name],
		blocks: map[string]*ir.Block{},
		slots:  map[string]*ir.InstAlloca{},
		temps:  map[int]value.Value{},
	}

	for _, b := range src.Blocks {
		fg.blocks[b.Label] = fg.f.NewBlock(b.Label)
	}

	entry := fg.blocks[src.Blocks[0].Label]

	for _, b := range src.Blocks {
		for _, in := range b.Insts {
			a, ok := in.(*koopa.Alloc)
			if !ok {
				continue
			}

			slot := entry.NewAlloca(types.I32)
			slot.SetName(a.Slot)
			fg.slots[a.Slot] = slot
		}
	}

	for _, b := range src.Blocks {
		if err := fg.translateBlock(b); err != nil {
			return errors.Wrap(err, "%%%s", b.Label)
		}
	}

	return nil
}

func (fg *funcGen) translateBlock(src *koopa.Block) error {
	b := fg.blocks[src.Label]

	for _, in := range src.Insts {
		if err := fg.translateInst(b, in); err != nil {
			return errors.Wrap(err, "%s", koopa.FormatInst(in))
		}
	}

	switch t := src.Term.(type) {
	case *koopa.Ret:
		if t.Value == nil {
			b.NewRet(nil)
			break
		}

		b.NewRet(fg.value(*t.Value))
	case *koopa.Jump:
		target, err := fg.block(t.Target)
		if err != nil {
			return err
		}

		b.NewBr(target)
	case *koopa.Branch:
		then, err := fg.block(t.Then)
		if err != nil {
			return err
		}

		els, err := fg.block(t.Else)
		if err != nil {
			return err
		}

		cond := b.NewICmp(enum.IPredNE, fg.value(t.Cond), zero)
		b.NewCondBr(cond, then, els)
	case nil:
		return errors.New("missing terminator")
	default:
		panic(errors.New("unexpected terminator %T", t))
	}

	return nil
}

func (fg *funcGen) translateInst(b *ir.Block, in koopa.Inst) error {
	switch in := in.(type) {
	case *koopa.Binary:
		x, y := fg.value(in.X), fg.value(in.Y)

		if pred, ok := preds[in.Op]; ok {
			c := b.NewICmp(pred, x, y)
			fg.temps[in.Dst] = b.NewZExt(c, types.I32)
			return nil
		}

		op, ok := arith[in.Op]
		if !ok {
			return errors.New("unsupported operator %v", in.Op)
		}

		fg.temps[in.Dst] = op(b, x, y)
	case *koopa.Alloc:
		// hoisted to the entry block
	case *koopa.Load:
		ptr, err := fg.slot(in.Slot)
		if err != nil {
			return err
		}

		fg.temps[in.Dst] = b.NewLoad(types.I32, ptr)
	case *koopa.Store:
		ptr, err := fg.slot(in.Slot)
		if err != nil {
			return err
		}

		b.NewStore(fg.value(in.Value), ptr)
	case *koopa.Call:
		callee := fg.funcs[in.Func]
		if callee == nil {
			return errors.New("call of unknown function @%s", in.Func)
		}

		res := b.NewCall(callee)
		if in.HasResult {
			fg.temps[in.Dst] = res
		}
	default:
		panic(errors.New("unexpected instruction %T", in))
	}

	return nil
}

func (fg *funcGen) value(v koopa.Value) value.Value {
	if v.Kind == koopa.ValueImm {
		return constant.NewInt(types.I32, int64(v.N))
	}

	if x, ok := fg.temps[v.ID]; ok {
		return x
	}

	panic(errors.New("%v used before definition", v))
}

func (fg *funcGen) slot(name string) (value.Value, error) {
	if s, ok := fg.slots[name]; ok {
		return s, nil
	}

	if g, ok := fg.globals[name]; ok {
		return g, nil
	}

	return nil, errors.New("unknown slot @%s", name)
}

func (fg *funcGen) block(label string) (*ir.Block, error) {
	if b, ok := fg.blocks[label]; ok {
		return b, nil
	}

	return nil, errors.New("jump to unknown block %%%s", label)
}
