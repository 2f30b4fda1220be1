package translator

import (
	"fmt"

	"github.com/lemonberrylabs/lunarc/pkg/ast"
	"github.com/lemonberrylabs/lunarc/pkg/diag"
)

// blockTranslator folds one subroutine body into a tree of Blocks. It holds
// a typing environment that grows as Decls/for-indices/params are bound and
// shrinks implicitly via cloning at scope boundaries (If/For bodies get
// their own copy so sibling scopes don't see each other's locals), mirroring
// original_source's BlockTranslator.
type blockTranslator struct {
	t     *Translator
	types map[string]ast.Type
}

func newBlockTranslator(t *Translator) *blockTranslator {
	return &blockTranslator{t: t, types: make(map[string]ast.Type)}
}

// clone returns a blockTranslator sharing the same Translator but with an
// independent copy of the typing environment, for entering a child scope
// (for-body, if-branch) without leaking its locals back to the parent.
func (bt *blockTranslator) clone() *blockTranslator {
	types := make(map[string]ast.Type, len(bt.types))
	for k, v := range bt.types {
		types[k] = v
	}
	return &blockTranslator{t: bt.t, types: types}
}

func (bt *blockTranslator) lookup(name string) (ast.Type, bool) {
	ty, ok := bt.types[name]
	return ty, ok
}

func (bt *blockTranslator) fail(kind diag.Kind, msg, name string) error {
	d := diag.NewNamed(kind, msg, name)
	bt.t.bag.Add(d)
	return d
}

// foldBlock lowers an ast.Block into a Fork Block whose children are the
// lowered statements, per spec §4.1 step 3. Decl names become the Fork's
// local set. The Fork's own ctx is the union of every child's ctx minus
// those locals: a Fork only captures what its children read from an
// enclosing scope (an If/For body referencing a variable declared by an
// ancestor Fork, say), never what it declares itself — satisfying both the
// ctx-closure invariant and ctx ∩ local = ∅ (spec §8).
func (bt *blockTranslator) foldBlock(block *ast.Block) (*Block, error) {
	var children []*Block
	var decls []string
	declaredHere := make(map[string]struct{})

	for _, stmt := range block.Stmts {
		switch s := stmt.(type) {
		case ast.Decl:
			for _, v := range s.Vars {
				if _, dup := declaredHere[v.Name]; dup {
					return nil, bt.fail(diag.KindRedeclaration, "variable declared more than once in this block", v.Name)
				}
				declaredHere[v.Name] = struct{}{}
				bt.types[v.Name] = ast.TypeValue
				decls = append(decls, v.Name)
			}
		case ast.Call:
			child, err := bt.foldCall(&s)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		case ast.If:
			child, err := bt.foldIf(&s)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		case ast.For:
			child, err := bt.foldFor(&s)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		default:
			return nil, fmt.Errorf("translator: unknown statement type %T", stmt)
		}
	}

	local := make(map[string]struct{}, len(decls))
	for _, d := range decls {
		local[d] = struct{}{}
	}

	ctx := make(map[string]ast.Type)
	for _, child := range children {
		for name, ty := range child.Ctx {
			if _, isLocal := local[name]; isLocal {
				continue
			}
			ctx[name] = ty
		}
	}

	return &Block{
		ID:     bt.t.nextID(),
		Ctx:    ctx,
		Local:  local,
		Wait:   make(map[string]struct{}),
		Submit: make(map[string]struct{}),
		Kind:   Fork,
		Children: children,
		Decls:    decls,
	}, nil
}

func (bt *blockTranslator) foldFor(f *ast.For) (*Block, error) {
	vars := mergeVarSets(exprVariables(f.Lower), exprVariables(f.Upper))
	ctxMap, waitSet, err := bt.classifyRead(vars)
	if err != nil {
		return nil, err
	}

	child := bt.clone()
	child.types[f.Index.Name] = ast.TypeInt
	body, err := child.foldBlock(&f.Body)
	if err != nil {
		return nil, err
	}

	for name, ty := range body.Ctx {
		if name == f.Index.Name {
			continue
		}
		ctxMap[name] = ty
	}

	return &Block{
		ID:     bt.t.nextID(),
		Ctx:    ctxMap,
		Local:  map[string]struct{}{f.Index.Name: {}},
		Wait:   waitSet,
		Submit: make(map[string]struct{}),
		Kind:   For,
		Index:  f.Index.Name,
		Lower:  f.Lower,
		Upper:  f.Upper,
		Child:  body,
	}, nil
}

func (bt *blockTranslator) foldIf(i *ast.If) (*Block, error) {
	vars := conditionVariables(i.Cond)
	ctxMap, waitSet, err := bt.classifyRead(vars)
	if err != nil {
		return nil, err
	}

	thenChild, err := bt.clone().foldBlock(&i.Then)
	if err != nil {
		return nil, err
	}
	for name, ty := range thenChild.Ctx {
		ctxMap[name] = ty
	}

	b := &Block{
		ID:     bt.t.nextID(),
		Ctx:    ctxMap,
		Local:  make(map[string]struct{}),
		Wait:   waitSet,
		Submit: make(map[string]struct{}),
		Kind:   If,
		Cond:   i.Cond,
		Then:   thenChild,
	}

	if i.HasElse {
		elseChild, err := bt.clone().foldBlock(&i.Else)
		if err != nil {
			return nil, err
		}
		for name, ty := range elseChild.Ctx {
			ctxMap[name] = ty
		}
		b.Else = elseChild
		b.HasElse = true
	}

	return b, nil
}

func (bt *blockTranslator) foldCall(c *ast.Call) (*Block, error) {
	sym, ok := bt.t.imports[c.Ident.Name]
	if !ok {
		if _, isSub := bt.t.subNames[c.Ident.Name]; isSub {
			return nil, bt.fail(diag.KindNestedSubCall, "subroutine calls are not yet supported", c.Ident.Name)
		}
		return nil, bt.fail(diag.KindUnknownSymbol, "call to undeclared import", c.Ident.Name)
	}
	if len(sym.params) != len(c.Args) {
		return nil, bt.fail(diag.KindArityMismatch,
			fmt.Sprintf("expected %d argument(s), got %d", len(sym.params), len(c.Args)), c.Ident.Name)
	}

	ctx := make(map[string]ast.Type)
	wait := make(map[string]struct{})
	submit := make(map[string]struct{})

	for i, arg := range c.Args {
		param := sym.params[i]
		for name := range exprVariables(arg) {
			ty, ok := bt.lookup(name)
			if !ok {
				return nil, bt.fail(diag.KindUntypedIdent, "identifier has no known type in this scope", name)
			}
			ctx[name] = ty
			if !ty.IsDataflow() {
				continue
			}
			if param.Type == ast.TypeName {
				submit[name] = struct{}{}
			} else {
				wait[name] = struct{}{}
			}
		}
	}

	return &Block{
		ID:     bt.t.nextID(),
		Ctx:    ctx,
		Local:  make(map[string]struct{}),
		Wait:   wait,
		Submit: submit,
		Kind:   ExternCall,
		Symbol: c.Ident.Name,
		Args:   c.Args,
		Params: sym.params,
	}, nil
}

// classifyRead resolves a set of free-variable names against the typing
// environment, producing a ctx map and a wait-set. Used by For/If, whose
// condition/bound expressions are always read (never aliased as a Name
// output): a name lands in wait only when its resolved type is itself a
// dataflow handle (Value/Name) — a scalar bound/condition variable (e.g. a
// plain int) is captured in ctx but never waited on, mirroring foldCall's
// same distinction and original_source's Block::code(), which emits a
// request() only for Type::Value dependencies.
func (bt *blockTranslator) classifyRead(vars map[string]struct{}) (map[string]ast.Type, map[string]struct{}, error) {
	ctx := make(map[string]ast.Type, len(vars))
	wait := make(map[string]struct{}, len(vars))
	for name := range vars {
		ty, ok := bt.lookup(name)
		if !ok {
			return nil, nil, bt.fail(diag.KindUntypedIdent, "identifier has no known type in this scope", name)
		}
		ctx[name] = ty
		if ty.IsDataflow() {
			wait[name] = struct{}{}
		}
	}
	return ctx, wait, nil
}
