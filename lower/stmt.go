package lower

import (
	"context"
	"strconv"

	"github.com/nikandfor/errors"
	"github.com/nikandfor/tlog"

	"github.com/sysyc/sysyc/ast"
	"github.com/sysyc/sysyc/koopa"
)

// Block linearization.
//
// A label is reachable once a terminator of a live block names it. Only
// %entry and reachable labels become blocks of the function. Code that
// follows a terminator, or that starts at a label nothing jumps to, is
// still lowered (its errors are reported) into a detached block that is
// dropped, so the emitted function never contains unreachable blocks.

func (c *Context) newLabel() string {
	l := "block_" + strconv.Itoa(c.labels)
	c.labels++
	return l
}

// openBlock starts the block named label. The previous block must have
// been terminated.
func (c *Context) openBlock(label string) {
	f := c.fn

	f.cur = &koopa.Block{Label: label}
	f.live = label == koopa.EntryLabel || f.reachable[label]
	if f.live {
		f.ir.Blocks = append(f.ir.Blocks, f.cur)
	}

	f.blockOpen = true
	f.justTerminated = false

	tlog.V("block").Printw("open block", "label", label, "live", f.live)
}

func (c *Context) ensureOpen() {
	if !c.fn.blockOpen {
		c.openBlock(c.newLabel())
	}
}

func (c *Context) emit(in koopa.Inst) {
	c.ensureOpen()
	c.fn.cur.Insts = append(c.fn.cur.Insts, in)
}

func (c *Context) terminate(t koopa.Term) {
	c.ensureOpen()

	f := c.fn
	f.cur.Term = t

	if f.live {
		for _, l := range t.Targets() {
			f.reachable[l] = true
		}
	}

	f.blockOpen = false
	f.justTerminated = true
}

// jumpUnlessTerminated closes a fall-through path with a jump to target.
func (c *Context) jumpUnlessTerminated(target string) {
	if !c.fn.justTerminated {
		c.terminate(&koopa.Jump{Target: target})
	}
}

// openIfReachable opens a join or exit block when some live path leads
// there. Otherwise the cursor stays terminated.
func (c *Context) openIfReachable(label string) {
	if c.fn.reachable[label] {
		c.openBlock(label)
	}
}

// fallsThrough reports whether control can reach the end of the current
// position without a terminator.
func (c *Context) fallsThrough() bool {
	f := c.fn
	return f.blockOpen && f.live && !f.justTerminated
}

func (c *Context) pushLoop(cont, brk string) {
	c.fn.loops = append(c.fn.loops, loopTargets{cont: cont, brk: brk})
}

func (c *Context) popLoop() {
	c.fn.loops = c.fn.loops[:len(c.fn.loops)-1]
}

func (c *Context) currentLoop() (loopTargets, bool) {
	if len(c.fn.loops) == 0 {
		return loopTargets{}, false
	}
	return c.fn.loops[len(c.fn.loops)-1], true
}

func (c *Context) lowerBlock(ctx context.Context, b *ast.Block) error {
	c.EnterScope()
	defer c.ExitScope()

	for _, s := range b.Items {
		if err := c.lowerStmt(ctx, s); err != nil {
			return err
		}
	}

	return nil
}

// lowerSubStmt lowers the body of an if or while. A bare declaration gets
// a scope of its own.
func (c *Context) lowerSubStmt(ctx context.Context, s ast.Stmt) error {
	switch s.(type) {
	case *ast.VarDecl, *ast.ConstDecl:
		c.EnterScope()
		defer c.ExitScope()
	}

	return c.lowerStmt(ctx, s)
}

func (c *Context) lowerStmt(ctx context.Context, s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.Block:
		return c.lowerBlock(ctx, s)
	case *ast.VarDecl:
		return c.lowerLocalVars(s)
	case *ast.ConstDecl:
		return c.declareConsts(s)
	case *ast.Return:
		return c.lowerReturn(s)
	case *ast.Assign:
		return c.lowerAssign(s)
	case *ast.ExprStmt:
		return c.lowerExprStmt(s)
	case *ast.Empty:
		return nil
	case *ast.If:
		return c.lowerIf(ctx, s)
	case *ast.While:
		return c.lowerWhile(ctx, s)
	case *ast.Break:
		loop, ok := c.currentLoop()
		if !ok {
			return newError(BreakOrContinueOutsideLoop, "break", s.Pos)
		}
		c.terminate(&koopa.Jump{Target: loop.brk})
		return nil
	case *ast.Continue:
		loop, ok := c.currentLoop()
		if !ok {
			return newError(BreakOrContinueOutsideLoop, "continue", s.Pos)
		}
		c.terminate(&koopa.Jump{Target: loop.cont})
		return nil
	}

	panic(errors.New("unexpected statement %T", s))
}

func (c *Context) lowerReturn(s *ast.Return) error {
	if s.Value == nil {
		if c.fn.ret != ast.Void {
			return newError(InvalidReturn, "return", s.Pos)
		}

		c.terminate(&koopa.Ret{})
		return nil
	}

	if c.fn.ret == ast.Void {
		return newError(InvalidReturn, "return "+ast.ToSExpr(s.Value), s.Pos)
	}

	v, err := c.lowerExpr(s.Value)
	if err != nil {
		return errors.Wrap(err, "return value")
	}

	c.terminate(&koopa.Ret{Value: &v})

	return nil
}

func (c *Context) lowerAssign(s *ast.Assign) error {
	v, err := c.lowerExpr(s.Value)
	if err != nil {
		return errors.Wrap(err, "assignment rhs")
	}

	sym, err := c.Resolve(s.Name, s.Pos)
	if err != nil {
		return err
	}
	if sym.Kind == Const {
		return newError(AssignToConstant, s.Name, s.Pos)
	}

	c.emit(&koopa.Store{Value: v, Slot: sym.Storage})

	return nil
}

func (c *Context) lowerExprStmt(s *ast.ExprStmt) error {
	if call, ok := s.X.(*ast.Call); ok {
		_, _, err := c.lowerCall(call)
		return err
	}

	_, err := c.lowerExpr(s.X)

	return err
}

func (c *Context) lowerIf(ctx context.Context, s *ast.If) error {
	cond, err := c.lowerExpr(s.Cond)
	if err != nil {
		return errors.Wrap(err, "if cond")
	}

	then := c.newLabel()
	els := ""
	if s.Else != nil {
		els = c.newLabel()
	}
	join := c.newLabel()

	if s.Else == nil {
		els = join
	}

	if tlog.If("block") {
		tlog.SpanFromContext(ctx).Printw("if", "then", then, "else", els, "join", join)
	}

	c.terminate(&koopa.Branch{Cond: cond, Then: then, Else: els})

	c.openBlock(then)

	if err = c.lowerSubStmt(ctx, s.Then); err != nil {
		return errors.Wrap(err, "then")
	}

	c.jumpUnlessTerminated(join)

	if s.Else != nil {
		c.openBlock(els)

		if err = c.lowerSubStmt(ctx, s.Else); err != nil {
			return errors.Wrap(err, "else")
		}

		c.jumpUnlessTerminated(join)
	}

	c.openIfReachable(join)

	return nil
}

func (c *Context) lowerWhile(ctx context.Context, s *ast.While) error {
	head, body, exit := c.newLabel(), c.newLabel(), c.newLabel()

	if tlog.If("block") {
		tlog.SpanFromContext(ctx).Printw("while", "head", head, "body", body, "exit", exit)
	}

	c.pushLoop(head, exit)
	defer c.popLoop()

	c.terminate(&koopa.Jump{Target: head})

	c.openBlock(head)

	cond, err := c.lowerExpr(s.Cond)
	if err != nil {
		return errors.Wrap(err, "while cond")
	}

	c.terminate(&koopa.Branch{Cond: cond, Then: body, Else: exit})

	c.openBlock(body)

	if err = c.lowerSubStmt(ctx, s.Body); err != nil {
		return errors.Wrap(err, "while body")
	}

	c.jumpUnlessTerminated(head)

	c.openIfReachable(exit)

	return nil
}
