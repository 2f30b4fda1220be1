// Package emit walks a translator.Program's block tree and produces the
// self-contained C translation unit described in spec.md §4.2: the runtime
// header verbatim, forward declarations for every import, the entry
// binding, and one context struct + function pair per block in
// depth-first order. Grounded on original_source/src/translator/imp.rs's
// Block::args_struct/signature/prelude/code and Translator::finish.
package emit

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/lemonberrylabs/lunarc/pkg/ast"
	"github.com/lemonberrylabs/lunarc/pkg/diag"
	"github.com/lemonberrylabs/lunarc/pkg/translator"
)

//go:embed c/runtime.h
var runtimeHeader string

//go:embed c/runtime.c
var runtimeSource string

// RuntimeHeader returns the literal contents of runtime.h.
func RuntimeHeader() string { return runtimeHeader }

// RuntimeSource returns the literal contents of runtime.c, the link-time
// companion to the emitted translation unit (compiled and linked alongside
// main.o by the driver, not embedded into main.c itself).
func RuntimeSource() string { return runtimeSource }

// cType maps a DSL parameter type to its C spelling, spec.md §4.2 step 2
// extended with the Long/Double supplement.
func cType(t ast.Type) string {
	switch t {
	case ast.TypeInt:
		return "int"
	case ast.TypeLong:
		return "long"
	case ast.TypeFloat:
		return "float"
	case ast.TypeDouble:
		return "double"
	case ast.TypeValue, ast.TypeName:
		return "DF"
	default:
		return "int"
	}
}

// importParamCType is cType's counterpart for native import forward
// declarations: Value/Name params are passed by pointer (`DF*`), not by
// value, so a native can write the handle's slot in place before the
// ExternCall epilogue calls submit on it (original_source's
// Translator::finish emits `DF*` for both kinds, never plain `DF`).
func importParamCType(t ast.Type) string {
	if t == ast.TypeValue || t == ast.TypeName {
		return "DF*"
	}
	return cType(t)
}

func castFn(t ast.Type) string {
	switch t {
	case ast.TypeLong:
		return "cast_long"
	case ast.TypeFloat:
		return "cast_float"
	case ast.TypeDouble:
		return "cast_double"
	default:
		return "cast_int"
	}
}

// Emit produces the full main.c text for prog, with mainSub naming the
// subroutine whose root block becomes the exported entry point.
func Emit(prog *translator.Program, mainSub string) (string, error) {
	root, ok := prog.Subs[mainSub]
	if !ok {
		return "", diag.NewNamed(diag.KindEmit, "no such subroutine", mainSub)
	}

	var out strings.Builder
	out.WriteString(runtimeHeader)
	out.WriteString("\n")

	for _, name := range sortedImportNames(prog.Imports) {
		params := prog.Imports[name]
		out.WriteString(fmt.Sprintf("void %s(", name))
		for i, p := range params {
			if i > 0 {
				out.WriteString(",")
			}
			out.WriteString(importParamCType(p.Type))
		}
		out.WriteString(");\n")
	}

	out.WriteString(fmt.Sprintf("void *entry = block_%d;\n", root.ID))

	for _, sub := range sortedSubNames(prog.Subs) {
		code, err := emitBlock(prog.Subs[sub])
		if err != nil {
			return "", err
		}
		out.WriteString(code)
	}

	return out.String(), nil
}

func sortedImportNames(m map[string][]translator.Param) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func sortedSubNames(m map[string]*translator.Block) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// emitBlock emits b and every descendant, depth-first, exactly mirroring
// Block::code() in original_source/src/translator/imp.rs but with the
// fuller wait/submit split spec.md §4.2 describes (the original never
// emits a submit epilogue at all).
func emitBlock(b *translator.Block) (string, error) {
	var out strings.Builder

	out.WriteString(argsStruct(b))
	out.WriteString(signature(b))
	out.WriteString("{\n")
	out.WriteString(prelude(b))

	for _, name := range b.WaitNames() {
		out.WriteString(fmt.Sprintf("if (request(self, &ctx->%s)) { return WAIT; }\n", name))
	}

	var children []*translator.Block

	switch b.Kind {
	case translator.Fork:
		for _, name := range b.Decls {
			out.WriteString(fmt.Sprintf("DF %s = df_create();\n", name))
		}
		for _, child := range b.Children {
			children = append(children, child)
			out.WriteString(emitSpawn(b, child))
		}

	case translator.For:
		children = append(children, b.Child)
		lowerCode, err := codegenExpr(b.Lower, b.Ctx)
		if err != nil {
			return "", err
		}
		upperCode, err := codegenExpr(b.Upper, b.Ctx)
		if err != nil {
			return "", err
		}
		out.WriteString(fmt.Sprintf("for (int %s = %s; %s < %s; %s++) {\n",
			b.Index, lowerCode, b.Index, upperCode, b.Index))
		out.WriteString(emitSpawn(b, b.Child))
		out.WriteString("}\n")

	case translator.If:
		children = append(children, b.Then)
		condCode, err := codegenCond(b.Cond, b.Ctx)
		if err != nil {
			return "", err
		}
		out.WriteString(fmt.Sprintf("if (%s) {\n", condCode))
		out.WriteString(emitSpawn(b, b.Then))
		out.WriteString("}\n")
		if b.HasElse {
			children = append(children, b.Else)
			out.WriteString("else {\n")
			out.WriteString(emitSpawn(b, b.Else))
			out.WriteString("}\n")
		}

	case translator.ExternCall:
		out.WriteString(b.Symbol + "(")
		for i, arg := range b.Args {
			code, err := codegenArg(arg, b.Params[i], b.Ctx)
			if err != nil {
				return "", err
			}
			if i > 0 {
				out.WriteString(",")
			}
			out.WriteString(code)
		}
		out.WriteString(");\n")
	}

	for _, name := range b.SubmitNames() {
		out.WriteString(fmt.Sprintf("submit(ctx->%s);\n", name))
	}

	out.WriteString("dealloc(ctx);\n")
	out.WriteString("return EXIT;\n")
	out.WriteString("}\n")

	for _, child := range children {
		code, err := emitBlock(child)
		if err != nil {
			return "", err
		}
		out.WriteString(code)
	}

	return out.String(), nil
}

func argsStruct(b *translator.Block) string {
	var out strings.Builder
	out.WriteString("typedef struct {")
	for _, name := range b.CtxNames() {
		out.WriteString(fmt.Sprintf("%s %s;", cType(b.Ctx[name]), name))
	}
	out.WriteString(fmt.Sprintf("} block_%d_context;\n", b.ID))
	return out.String()
}

func signature(b *translator.Block) string {
	return fmt.Sprintf("Action block_%d(CF *self)\n", b.ID)
}

func prelude(b *translator.Block) string {
	return fmt.Sprintf("block_%d_context *ctx = self->context;\n", b.ID)
}

// emitSpawn allocates a child's context struct and copies every ctx-entry
// the child needs from the current frame: a just-created local variable
// when the child reads a handle this Fork declared, the C loop variable
// when the parent is a For and the child reads its index, otherwise the
// parent's own captured ctx->name field (spec.md §4.2 step 4.a's Fork rule).
func emitSpawn(parent *translator.Block, child *translator.Block) string {
	var out strings.Builder
	out.WriteString(fmt.Sprintf("block_%d_context *child_%d = alloc(sizeof(block_%d_context));\n",
		child.ID, child.ID, child.ID))
	decls := declSet(parent)
	for _, name := range child.CtxNames() {
		_, declaredHere := decls[name]
		if parent.Kind == translator.For && name == parent.Index {
			declaredHere = true
		}
		if declaredHere {
			out.WriteString(fmt.Sprintf("child_%d->%s = %s;\n", child.ID, name, name))
		} else {
			out.WriteString(fmt.Sprintf("child_%d->%s = ctx->%s;\n", child.ID, name, name))
		}
	}
	out.WriteString(fmt.Sprintf("spawn(self, block_%d, child_%d);\n", child.ID, child.ID))
	return out.String()
}

func declSet(b *translator.Block) map[string]struct{} {
	if b.Kind != translator.Fork {
		return nil
	}
	set := make(map[string]struct{}, len(b.Decls))
	for _, d := range b.Decls {
		set[d] = struct{}{}
	}
	return set
}

// codegenArg emits a call argument, aliasing the handle directly when the
// argument is a bare Value/Name-typed identifier, or requesting+computing a
// scalar when it's an arithmetic expression (spec.md §4.1's invariant on
// ExternCall wait/submit classification, §4.2's expression emission rules).
func codegenArg(arg ast.Expr, param translator.Param, ctx map[string]ast.Type) (string, error) {
	if ident, ok := arg.(ast.ExprIdent); ok {
		if ty, known := ctx[ident.Ident.Name]; known && ty.IsDataflow() {
			return fmt.Sprintf("&ctx->%s", ident.Ident.Name), nil
		}
	}
	return codegenExpr(arg, ctx)
}

// codegenExpr emits an arithmetic expression. Dataflow-typed identifiers in
// scalar position are routed through the matching cast helper; scalar
// identifiers emit the in-struct field directly.
func codegenExpr(e ast.Expr, ctx map[string]ast.Type) (string, error) {
	switch x := e.(type) {
	case ast.ExprIdent:
		ty, ok := ctx[x.Ident.Name]
		if !ok {
			return "", diag.NewNamed(diag.KindEmit, "identifier missing from context during emission", x.Ident.Name)
		}
		if ty.IsDataflow() {
			return fmt.Sprintf("%s(ctx->%s)", castFn(ty), x.Ident.Name), nil
		}
		return fmt.Sprintf("((%s)ctx->%s)", cType(ty), x.Ident.Name), nil
	case ast.ExprLit:
		switch lit := x.Lit.(type) {
		case ast.LitInt:
			return fmt.Sprintf("%d", lit.Value), nil
		case ast.LitFloat:
			return fmt.Sprintf("%g", lit.Value), nil
		}
		return "", diag.New(diag.KindEmit, "unknown literal kind")
	case ast.ExprNeg:
		inner, err := codegenExpr(x.Expr, ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(-%s)", inner), nil
	case ast.ExprBinOp:
		lhs, err := codegenExpr(x.Lhs, ctx)
		if err != nil {
			return "", err
		}
		rhs, err := codegenExpr(x.Rhs, ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s%s%s)", lhs, opSym(x.Op), rhs), nil
	default:
		return "", diag.New(diag.KindEmit, "unknown expression kind")
	}
}

func opSym(op ast.Op) string {
	switch op {
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	default:
		return "?"
	}
}

// codegenCond emits the supplemented relational/logical condition grammar
// (SPEC_FULL.md §3), mirroring original_source's codegen_cond/codegen_relation.
func codegenCond(c ast.Cond, ctx map[string]ast.Type) (string, error) {
	switch x := c.(type) {
	case ast.CondNot:
		inner, err := codegenCond(x.Cond, ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(!%s)", inner), nil
	case ast.CondAnd:
		lhs, err := codegenCond(x.Lhs, ctx)
		if err != nil {
			return "", err
		}
		rhs, err := codegenCond(x.Rhs, ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s&&%s)", lhs, rhs), nil
	case ast.CondOr:
		lhs, err := codegenCond(x.Lhs, ctx)
		if err != nil {
			return "", err
		}
		rhs, err := codegenCond(x.Rhs, ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s||%s)", lhs, rhs), nil
	case ast.CondRelation:
		rel := x.Relation.(ast.RelExpr)
		lhs, err := codegenExpr(rel.Lhs, ctx)
		if err != nil {
			return "", err
		}
		rhs, err := codegenExpr(rel.Rhs, ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s%s%s)", lhs, relSym(rel.Kind), rhs), nil
	default:
		return "", diag.New(diag.KindEmit, "unknown condition kind")
	}
}

func relSym(k ast.RelKind) string {
	switch k {
	case ast.RelEqual:
		return "=="
	case ast.RelNotEqual:
		return "!="
	case ast.RelLess:
		return "<"
	case ast.RelLessOrEqual:
		return "<="
	case ast.RelGreater:
		return ">"
	case ast.RelGreaterOrEqual:
		return ">="
	default:
		return "?"
	}
}
