package parser

import (
	"testing"

	"github.com/lemonberrylabs/lunarc/pkg/ast"
)

func TestParseImportWithAlias(t *testing.T) {
	src := `import produce(name x) as producer;`
	f, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(f.Items))
	}
	imp, ok := f.Items[0].(ast.ItemImport)
	if !ok {
		t.Fatalf("expected ItemImport, got %T", f.Items[0])
	}
	if imp.Signature.Ident.Name != "produce" {
		t.Errorf("expected signature name produce, got %q", imp.Signature.Ident.Name)
	}
	if !imp.HasAlias || imp.Alias.Name != "producer" {
		t.Errorf("expected alias producer, got %+v", imp.Alias)
	}
	if len(imp.Signature.Params) != 1 || !imp.Signature.Params[0].HasName {
		t.Fatalf("expected one named param, got %+v", imp.Signature.Params)
	}
	if imp.Signature.Params[0].Type != ast.TypeName {
		t.Errorf("expected TypeName, got %v", imp.Signature.Params[0].Type)
	}
}

func TestParseImportUnnamedParam(t *testing.T) {
	src := `import consume(value);`
	f, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	imp := f.Items[0].(ast.ItemImport)
	if len(imp.Signature.Params) != 1 {
		t.Fatalf("expected 1 param, got %d", len(imp.Signature.Params))
	}
	if imp.Signature.Params[0].HasName {
		t.Errorf("expected unnamed param, got %+v", imp.Signature.Params[0])
	}
}

func TestParseSubWithDeclAndCalls(t *testing.T) {
	src := `
sub main() {
	df x;
	produce(x);
	consume(x);
}
`
	f, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(f.Items))
	}
	sub, ok := f.Items[0].(ast.ItemSub)
	if !ok {
		t.Fatalf("expected ItemSub, got %T", f.Items[0])
	}
	if sub.Signature.Ident.Name != "main" {
		t.Errorf("expected sub name main, got %q", sub.Signature.Ident.Name)
	}
	if len(sub.Block.Stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(sub.Block.Stmts))
	}
	if _, ok := sub.Block.Stmts[0].(ast.Decl); !ok {
		t.Errorf("expected first statement to be Decl, got %T", sub.Block.Stmts[0])
	}
	if _, ok := sub.Block.Stmts[1].(ast.Call); !ok {
		t.Errorf("expected second statement to be Call, got %T", sub.Block.Stmts[1])
	}
}

func TestParseForLoop(t *testing.T) {
	src := `
sub main() {
	df s;
	for i in 0..10 {
		step(s, i);
	}
}
`
	f, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub := f.Items[0].(ast.ItemSub)
	forStmt, ok := sub.Block.Stmts[1].(ast.For)
	if !ok {
		t.Fatalf("expected For, got %T", sub.Block.Stmts[1])
	}
	if forStmt.Index.Name != "i" {
		t.Errorf("expected index i, got %q", forStmt.Index.Name)
	}
	lit, ok := forStmt.Lower.(ast.ExprLit)
	if !ok {
		t.Fatalf("expected ExprLit lower bound, got %T", forStmt.Lower)
	}
	if lit.Lit.(ast.LitInt).Value != 0 {
		t.Errorf("expected lower bound 0, got %+v", lit.Lit)
	}
}

func TestParseIfElseWithLogicalCond(t *testing.T) {
	src := `
sub main() {
	df x, y;
	produce(x);
	produce(y);
	if x == y && !(x < 1) {
		sink(x);
	} else {
		sink(y);
	}
}
`
	f, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub := f.Items[0].(ast.ItemSub)
	ifStmt, ok := sub.Block.Stmts[3].(ast.If)
	if !ok {
		t.Fatalf("expected If, got %T", sub.Block.Stmts[3])
	}
	if !ifStmt.HasElse {
		t.Fatal("expected an else branch")
	}
	and, ok := ifStmt.Cond.(ast.CondAnd)
	if !ok {
		t.Fatalf("expected top-level CondAnd, got %T", ifStmt.Cond)
	}
	if _, ok := and.Lhs.(ast.CondRelation); !ok {
		t.Errorf("expected relation on lhs, got %T", and.Lhs)
	}
	if _, ok := and.Rhs.(ast.CondNot); !ok {
		t.Errorf("expected negation on rhs, got %T", and.Rhs)
	}
}

func TestParseArithmeticPrecedence(t *testing.T) {
	src := `
sub main() {
	df x;
	produce(x);
	consume(1 + 2 * 3 - -4);
}
`
	f, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub := f.Items[0].(ast.ItemSub)
	call := sub.Block.Stmts[2].(ast.Call)
	top, ok := call.Args[0].(ast.ExprBinOp)
	if !ok {
		t.Fatalf("expected top-level ExprBinOp, got %T", call.Args[0])
	}
	if top.Op != ast.OpSub {
		t.Errorf("expected top-level op to be subtraction (lowest precedence, left-assoc), got %v", top.Op)
	}
	if _, ok := top.Rhs.(ast.ExprNeg); !ok {
		t.Errorf("expected rhs to be a negation, got %T", top.Rhs)
	}
	lhs, ok := top.Lhs.(ast.ExprBinOp)
	if !ok {
		t.Fatalf("expected lhs to be ExprBinOp (1 + 2*3), got %T", top.Lhs)
	}
	if lhs.Op != ast.OpAdd {
		t.Errorf("expected lhs op to be addition, got %v", lhs.Op)
	}
	if _, ok := lhs.Rhs.(ast.ExprBinOp); !ok {
		t.Errorf("expected rhs of addition to be the product 2*3, got %T", lhs.Rhs)
	}
}

func TestParseUnexpectedTokenError(t *testing.T) {
	_, err := Parse(`sub main() { ) }`)
	if err == nil {
		t.Fatal("expected a parse error")
	}
}
