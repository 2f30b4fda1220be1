package dfruntime

import (
	"fmt"

	"github.com/lemonberrylabs/lunarc/pkg/ast"
	"github.com/lemonberrylabs/lunarc/pkg/translator"
)

// Runtime wires a Registry and Pool together with a Natives table and drives
// a translator.Program's root Block directly — the Go-native execution mode
// SPEC_FULL.md §4.3 describes as "Go closures instead of emitted C
// functions over structs." The cgo/dlopen path does not use these types;
// it runs on the C registry and pool in pkg/emit/c/runtime.c.
type Runtime struct {
	Registry *Registry
	Pool     *Pool
	Natives  Natives

	errCh chan error
}

// NewRuntime returns a Runtime with workers goroutines in its pool.
func NewRuntime(workers int, natives Natives) *Runtime {
	return &Runtime{
		Registry: NewRegistry(),
		Pool:     NewPool(workers),
		Natives:  natives,
		errCh:    make(chan error, 1),
	}
}

// ctxFrame is one coroutine's captured context: dataflow entries hold a
// DFHandle until a wait-prologue resolves them to a float64 in place;
// scalar entries (for-loop indices, scalar parameters) are always float64.
type ctxFrame map[string]any

// Spawn enqueues block to run with the given ctx on the pool, the
// interpreter analogue of the ABI's spawn(self, block, context). A panic
// inside the coroutine (e.g. a DoubleAssign from Registry.Submit) is
// recovered and reported through Run's returned error rather than crashing
// the worker goroutine.
func (rt *Runtime) Spawn(block *translator.Block, ctx ctxFrame) {
	rt.Pool.Spawn(rt.Pool.Recover(func() { rt.execBlock(block, ctx) }, rt.errCh))
}

// execBlock runs one coroutine invocation of block, exactly mirroring the
// structure pkg/emit's emitBlock gives the generated C function: a
// wait-prologue, the kind-specific body, then a submit epilogue.
func (rt *Runtime) execBlock(block *translator.Block, ctx ctxFrame) {
	for _, name := range block.WaitNames() {
		handle, unresolved := ctx[name].(DFHandle)
		if !unresolved {
			continue // already resolved by a previous invocation
		}
		val, ok := rt.Registry.Request(uint64(handle), func(v float64) {
			ctx[name] = v
			rt.Spawn(block, ctx)
		})
		if !ok {
			return // suspended: Request registered our resume callback
		}
		ctx[name] = val
	}

	outputs := make(map[string]*Output)

	switch block.Kind {
	case translator.Fork:
		for _, name := range block.Decls {
			ctx[name] = DFHandle(rt.Registry.Create())
		}
		for _, child := range block.Children {
			childCtx := make(ctxFrame, len(child.CtxNames()))
			for _, name := range child.CtxNames() {
				childCtx[name] = ctx[name]
			}
			rt.Spawn(child, childCtx)
		}

	case translator.For:
		lower, err := rt.evalExpr(block.Lower, ctx)
		if err != nil {
			panic(err)
		}
		upper, err := rt.evalExpr(block.Upper, ctx)
		if err != nil {
			panic(err)
		}
		for i := int64(lower); i < int64(upper); i++ {
			childCtx := make(ctxFrame, len(block.Child.CtxNames()))
			for _, name := range block.Child.CtxNames() {
				if name == block.Index {
					childCtx[name] = float64(i)
					continue
				}
				childCtx[name] = ctx[name]
			}
			rt.Spawn(block.Child, childCtx)
		}

	case translator.If:
		cond, err := rt.evalCond(block.Cond, ctx)
		if err != nil {
			panic(err)
		}
		var branch *translator.Block
		if cond {
			branch = block.Then
		} else if block.HasElse {
			branch = block.Else
		}
		if branch != nil {
			childCtx := make(ctxFrame, len(branch.CtxNames()))
			for _, name := range branch.CtxNames() {
				childCtx[name] = ctx[name]
			}
			rt.Spawn(branch, childCtx)
		}

	case translator.ExternCall:
		fn, ok := rt.Natives[block.Symbol]
		if !ok {
			panic(fmt.Sprintf("dfruntime: no native registered for %q", block.Symbol))
		}
		args := make([]any, len(block.Args))
		for i, arg := range block.Args {
			param := block.Params[i]
			if param.Type == ast.TypeName {
				ident, ok := arg.(ast.ExprIdent)
				if !ok {
					panic(fmt.Sprintf("dfruntime: name argument to %q must be a bare identifier", block.Symbol))
				}
				out := &Output{}
				outputs[ident.Ident.Name] = out
				args[i] = out
				continue
			}
			val, err := rt.evalExpr(arg, ctx)
			if err != nil {
				panic(err)
			}
			args[i] = val
		}
		if err := fn(args); err != nil {
			panic(err)
		}
	}

	for _, name := range block.SubmitNames() {
		handle := ctx[name].(DFHandle)
		out, ok := outputs[name]
		if !ok || !out.set {
			panic(fmt.Sprintf("dfruntime: %q left unsubmitted", name))
		}
		rt.Registry.Submit(uint64(handle), out.value)
	}
}

// evalExpr evaluates an arithmetic expression against ctx, mirroring
// pkg/emit's codegenExpr but producing a value instead of C text.
func (rt *Runtime) evalExpr(e ast.Expr, ctx ctxFrame) (float64, error) {
	switch x := e.(type) {
	case ast.ExprIdent:
		v, ok := ctx[x.Ident.Name]
		if !ok {
			return 0, fmt.Errorf("dfruntime: identifier %q missing from context", x.Ident.Name)
		}
		if f, ok := v.(float64); ok {
			return f, nil
		}
		return 0, fmt.Errorf("dfruntime: identifier %q used before its wait-prologue resolved it", x.Ident.Name)
	case ast.ExprLit:
		switch lit := x.Lit.(type) {
		case ast.LitInt:
			return float64(lit.Value), nil
		case ast.LitFloat:
			return lit.Value, nil
		}
		return 0, fmt.Errorf("dfruntime: unknown literal kind")
	case ast.ExprNeg:
		v, err := rt.evalExpr(x.Expr, ctx)
		if err != nil {
			return 0, err
		}
		return -v, nil
	case ast.ExprBinOp:
		lhs, err := rt.evalExpr(x.Lhs, ctx)
		if err != nil {
			return 0, err
		}
		rhs, err := rt.evalExpr(x.Rhs, ctx)
		if err != nil {
			return 0, err
		}
		switch x.Op {
		case ast.OpAdd:
			return lhs + rhs, nil
		case ast.OpSub:
			return lhs - rhs, nil
		case ast.OpMul:
			return lhs * rhs, nil
		case ast.OpDiv:
			return lhs / rhs, nil
		}
		return 0, fmt.Errorf("dfruntime: unknown operator")
	default:
		return 0, fmt.Errorf("dfruntime: unknown expression kind %T", e)
	}
}

// evalCond evaluates a boolean condition against ctx, mirroring pkg/emit's
// codegenCond/codegenRelation.
func (rt *Runtime) evalCond(c ast.Cond, ctx ctxFrame) (bool, error) {
	switch x := c.(type) {
	case ast.CondNot:
		inner, err := rt.evalCond(x.Cond, ctx)
		if err != nil {
			return false, err
		}
		return !inner, nil
	case ast.CondAnd:
		lhs, err := rt.evalCond(x.Lhs, ctx)
		if err != nil {
			return false, err
		}
		rhs, err := rt.evalCond(x.Rhs, ctx)
		if err != nil {
			return false, err
		}
		return lhs && rhs, nil
	case ast.CondOr:
		lhs, err := rt.evalCond(x.Lhs, ctx)
		if err != nil {
			return false, err
		}
		rhs, err := rt.evalCond(x.Rhs, ctx)
		if err != nil {
			return false, err
		}
		return lhs || rhs, nil
	case ast.CondRelation:
		rel := x.Relation.(ast.RelExpr)
		lhs, err := rt.evalExpr(rel.Lhs, ctx)
		if err != nil {
			return false, err
		}
		rhs, err := rt.evalExpr(rel.Rhs, ctx)
		if err != nil {
			return false, err
		}
		switch rel.Kind {
		case ast.RelEqual:
			return lhs == rhs, nil
		case ast.RelNotEqual:
			return lhs != rhs, nil
		case ast.RelLess:
			return lhs < rhs, nil
		case ast.RelLessOrEqual:
			return lhs <= rhs, nil
		case ast.RelGreater:
			return lhs > rhs, nil
		case ast.RelGreaterOrEqual:
			return lhs >= rhs, nil
		}
		return false, fmt.Errorf("dfruntime: unknown relation kind")
	default:
		return false, fmt.Errorf("dfruntime: unknown condition kind %T", c)
	}
}
