// Package translator lowers an ast.File into independent coroutine Blocks:
// a flat tree per subroutine with each Block's captured context, wait-set
// and submit-set computed from free-variable analysis. This is the core of
// the compiler (spec §4.1), grounded on original_source's
// src/translator/mod.rs + imp.rs Translator/BlockTranslator design.
package translator

import (
	"fmt"
	"sort"

	"github.com/lemonberrylabs/lunarc/pkg/ast"
	"github.com/lemonberrylabs/lunarc/pkg/diag"
	"github.com/lemonberrylabs/lunarc/pkg/ids"
)

// Kind tags a lowered Block's structural body, per spec §3.
type Kind int

const (
	Fork Kind = iota
	For
	If
	ExternCall
)

func (k Kind) String() string {
	switch k {
	case Fork:
		return "Fork"
	case For:
		return "For"
	case If:
		return "If"
	case ExternCall:
		return "ExternCall"
	default:
		return "?"
	}
}

// Block is the central artifact of the translator: one coroutine body with
// its captured context, wait-set, and submit-set, per spec §3.
type Block struct {
	ID   uint64
	Ctx  map[string]ast.Type
	Local map[string]struct{}
	Wait  map[string]struct{}
	Submit map[string]struct{}
	Kind Kind

	// Fork
	Children []*Block
	Decls    []string // dataflow handles declared at this Fork level

	// For
	Index      string
	Lower, Upper ast.Expr
	Child        *Block

	// If
	Cond Cond
	Then *Block
	Else *Block
	HasElse bool

	// ExternCall
	Symbol string
	Args   []ast.Expr
	Params []Param
}

// Cond is re-exported from ast for readability at translator call sites.
type Cond = ast.Cond

// Param is a native symbol's or subroutine's parameter after name synthesis.
type Param struct {
	Name string
	Type ast.Type
}

// CtxNames returns the Ctx keys in stable (lexicographic) order, satisfying
// the "Determinism of emission" testable property (spec §8).
func (b *Block) CtxNames() []string {
	names := make([]string, 0, len(b.Ctx))
	for name := range b.Ctx {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WaitNames returns Wait in stable order.
func (b *Block) WaitNames() []string {
	return sortedKeys(b.Wait)
}

// SubmitNames returns Submit in stable order.
func (b *Block) SubmitNames() []string {
	return sortedKeys(b.Submit)
}

func sortedKeys(m map[string]struct{}) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Program is the translator's output: every subroutine's root Block, keyed
// by subroutine name.
type Program struct {
	Subs    map[string]*Block
	Imports map[string][]Param
}

// symbol is a declared import or sub signature, used for arity/kind lookup.
type symbol struct {
	params []Param
}

// Translator accumulates declared imports/subs while visiting a File and
// lowers each Sub's body into a Block tree. Mirrors
// original_source/src/translator/imp.rs's Translator.
type Translator struct {
	bag     diag.Bag
	imports map[string]symbol
	subNames map[string]struct{}
	idGen   *ids.Generator
	blocks  map[string]*Block
}

// New returns a Translator ready to lower a File.
func New() *Translator {
	return &Translator{
		imports:  make(map[string]symbol),
		subNames: make(map[string]struct{}),
		idGen:    ids.NewGenerator(),
		blocks:   make(map[string]*Block),
	}
}

// Translate lowers every Sub in the file into a Program. It runs two passes
// (mirroring the original's visit_import/visit_sub order): first collect
// every import and sub signature so forward references resolve, then fold
// each sub's body.
func (t *Translator) Translate(file *ast.File) (*Program, error) {
	for _, item := range file.Items {
		if imp, ok := item.(ast.ItemImport); ok {
			name := imp.Signature.Ident.Name
			if imp.HasAlias {
				name = imp.Alias.Name
			}
			t.imports[name] = symbol{params: transformParams(imp.Signature.Params)}
		}
	}
	for _, item := range file.Items {
		if sub, ok := item.(ast.ItemSub); ok {
			t.subNames[sub.Signature.Ident.Name] = struct{}{}
		}
	}

	for _, item := range file.Items {
		sub, ok := item.(ast.ItemSub)
		if !ok {
			continue
		}
		bt := newBlockTranslator(t)
		for _, p := range transformParams(sub.Signature.Params) {
			bt.types[p.Name] = p.Type
		}
		root, err := bt.foldBlock(&sub.Block)
		if err != nil {
			continue // diagnostic already recorded in t.bag
		}
		t.blocks[sub.Signature.Ident.Name] = root
	}

	if err := t.bag.AsError(); err != nil {
		return nil, err
	}

	imports := make(map[string][]Param, len(t.imports))
	for name, sym := range t.imports {
		imports[name] = sym.params
	}
	return &Program{Subs: t.blocks, Imports: imports}, nil
}

// transformParams synthesizes positional names ("_0", "_1", ...) for any
// param whose declaration omitted a name, per SPEC_FULL.md §4.1.
func transformParams(params []ast.Param) []Param {
	out := make([]Param, len(params))
	counter := 0
	for i, p := range params {
		name := p.Name.Name
		if !p.HasName {
			name = fmt.Sprintf("_%d", counter)
			counter++
		}
		out[i] = Param{Name: name, Type: p.Type}
	}
	return out
}

func (t *Translator) nextID() uint64 {
	return t.idGen.Next()
}
