// Package parser implements a recursive-descent parser over the token
// stream produced by pkg/lexer, building a pkg/ast.File. The grammar
// mirrors original_source's parser combinator productions one production
// at a time; Go has no widely used parser-combinator library in this
// codebase's dependency pack, so the productions are written out directly
// instead of composed from combinators.
package parser

import (
	"fmt"

	"github.com/lemonberrylabs/lunarc/pkg/ast"
	"github.com/lemonberrylabs/lunarc/pkg/diag"
	"github.com/lemonberrylabs/lunarc/pkg/lexer"
)

// Parse lexes and parses a complete source file into an ast.File.
func Parse(src string) (*ast.File, error) {
	tokens, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	f, err := p.parseFile()
	if err != nil {
		return nil, err
	}
	if p.current().Kind != lexer.EOF {
		return nil, diag.NewAt(diag.KindParse,
			fmt.Sprintf("unexpected token %s", p.current().Kind), p.current().Pos)
	}
	return f, nil
}

// Parser is a recursive descent parser over a lexer.Token stream.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	p.pos++
	return tok
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	tok := p.current()
	if tok.Kind != k {
		return tok, diag.NewAt(diag.KindParse,
			fmt.Sprintf("expected %s, got %s", k, tok.Kind), tok.Pos)
	}
	p.advance()
	return tok, nil
}

func (p *Parser) at(k lexer.Kind) bool {
	return p.current().Kind == k
}

func (p *Parser) parseFile() (*ast.File, error) {
	var items []ast.Item
	for !p.at(lexer.EOF) {
		var item ast.Item
		var err error
		switch p.current().Kind {
		case lexer.KwImport:
			item, err = p.parseImport()
		case lexer.KwSub:
			item, err = p.parseSub()
		default:
			return nil, diag.NewAt(diag.KindParse,
				fmt.Sprintf("expected import or sub, got %s", p.current().Kind), p.current().Pos)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &ast.File{Items: items}, nil
}

func (p *Parser) parseIdent() (ast.Ident, error) {
	tok, err := p.expect(lexer.Ident)
	if err != nil {
		return ast.Ident{}, err
	}
	return ast.Ident{Name: tok.Text}, nil
}

func (p *Parser) parseType() (ast.Type, error) {
	tok := p.current()
	var t ast.Type
	switch tok.Kind {
	case lexer.TyInt:
		t = ast.TypeInt
	case lexer.TyLong:
		t = ast.TypeLong
	case lexer.TyFloat:
		t = ast.TypeFloat
	case lexer.TyDouble:
		t = ast.TypeDouble
	case lexer.TyValue:
		t = ast.TypeValue
	case lexer.TyName:
		t = ast.TypeName
	default:
		return 0, diag.NewAt(diag.KindParse,
			fmt.Sprintf("expected a type keyword, got %s", tok.Kind), tok.Pos)
	}
	p.advance()
	return t, nil
}

// parseParam parses `type [ident]`. The identifier is optional: an import
// signature may declare a bare type with no parameter name.
func (p *Parser) parseParam() (ast.Param, error) {
	ty, err := p.parseType()
	if err != nil {
		return ast.Param{}, err
	}
	if p.at(lexer.Ident) {
		name, err := p.parseIdent()
		if err != nil {
			return ast.Param{}, err
		}
		return ast.Param{Name: name, HasName: true, Type: ty}, nil
	}
	return ast.Param{Type: ty}, nil
}

func (p *Parser) parseSignature() (ast.Signature, error) {
	ident, err := p.parseIdent()
	if err != nil {
		return ast.Signature{}, err
	}
	if _, err := p.expect(lexer.Lparen); err != nil {
		return ast.Signature{}, err
	}
	var params []ast.Param
	for !p.at(lexer.Rparen) {
		if len(params) > 0 {
			if _, err := p.expect(lexer.Comma); err != nil {
				return ast.Signature{}, err
			}
		}
		param, err := p.parseParam()
		if err != nil {
			return ast.Signature{}, err
		}
		params = append(params, param)
	}
	if _, err := p.expect(lexer.Rparen); err != nil {
		return ast.Signature{}, err
	}
	return ast.Signature{Ident: ident, Params: params}, nil
}

func (p *Parser) parseImport() (ast.ItemImport, error) {
	if _, err := p.expect(lexer.KwImport); err != nil {
		return ast.ItemImport{}, err
	}
	sig, err := p.parseSignature()
	if err != nil {
		return ast.ItemImport{}, err
	}
	item := ast.ItemImport{Signature: sig}
	if p.at(lexer.KwAs) {
		p.advance()
		alias, err := p.parseIdent()
		if err != nil {
			return ast.ItemImport{}, err
		}
		item.Alias = alias
		item.HasAlias = true
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return ast.ItemImport{}, err
	}
	return item, nil
}

func (p *Parser) parseSub() (ast.ItemSub, error) {
	if _, err := p.expect(lexer.KwSub); err != nil {
		return ast.ItemSub{}, err
	}
	sig, err := p.parseSignature()
	if err != nil {
		return ast.ItemSub{}, err
	}
	block, err := p.parseBlock()
	if err != nil {
		return ast.ItemSub{}, err
	}
	return ast.ItemSub{Signature: sig, Block: block}, nil
}

func (p *Parser) parseBlock() (ast.Block, error) {
	if _, err := p.expect(lexer.Lbrace); err != nil {
		return ast.Block{}, err
	}
	var stmts []ast.Stmt
	for !p.at(lexer.Rbrace) {
		stmt, err := p.parseStmt()
		if err != nil {
			return ast.Block{}, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(lexer.Rbrace); err != nil {
		return ast.Block{}, err
	}
	return ast.Block{Stmts: stmts}, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.current().Kind {
	case lexer.KwDf:
		return p.parseDecl()
	case lexer.KwFor:
		return p.parseFor()
	case lexer.KwIf:
		return p.parseIf()
	case lexer.Ident:
		return p.parseCall()
	default:
		return nil, diag.NewAt(diag.KindParse,
			fmt.Sprintf("unexpected token %s in statement position", p.current().Kind), p.current().Pos)
	}
}

func (p *Parser) parseDecl() (ast.Decl, error) {
	if _, err := p.expect(lexer.KwDf); err != nil {
		return ast.Decl{}, err
	}
	var vars []ast.Ident
	for {
		name, err := p.parseIdent()
		if err != nil {
			return ast.Decl{}, err
		}
		vars = append(vars, name)
		if !p.at(lexer.Comma) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return ast.Decl{}, err
	}
	return ast.Decl{Vars: vars}, nil
}

func (p *Parser) parseCall() (ast.Call, error) {
	ident, err := p.parseIdent()
	if err != nil {
		return ast.Call{}, err
	}
	if _, err := p.expect(lexer.Lparen); err != nil {
		return ast.Call{}, err
	}
	var args []ast.Expr
	for !p.at(lexer.Rparen) {
		if len(args) > 0 {
			if _, err := p.expect(lexer.Comma); err != nil {
				return ast.Call{}, err
			}
		}
		arg, err := p.parseExpr()
		if err != nil {
			return ast.Call{}, err
		}
		args = append(args, arg)
	}
	if _, err := p.expect(lexer.Rparen); err != nil {
		return ast.Call{}, err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return ast.Call{}, err
	}
	return ast.Call{Ident: ident, Args: args}, nil
}

func (p *Parser) parseFor() (ast.For, error) {
	if _, err := p.expect(lexer.KwFor); err != nil {
		return ast.For{}, err
	}
	index, err := p.parseIdent()
	if err != nil {
		return ast.For{}, err
	}
	if _, err := p.expect(lexer.KwIn); err != nil {
		return ast.For{}, err
	}
	lower, err := p.parseExpr()
	if err != nil {
		return ast.For{}, err
	}
	if _, err := p.expect(lexer.Dots); err != nil {
		return ast.For{}, err
	}
	upper, err := p.parseExpr()
	if err != nil {
		return ast.For{}, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return ast.For{}, err
	}
	return ast.For{Index: index, Lower: lower, Upper: upper, Body: body}, nil
}

func (p *Parser) parseIf() (ast.If, error) {
	if _, err := p.expect(lexer.KwIf); err != nil {
		return ast.If{}, err
	}
	cond, err := p.parseCond()
	if err != nil {
		return ast.If{}, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return ast.If{}, err
	}
	node := ast.If{Cond: cond, Then: then}
	if p.at(lexer.KwElse) {
		p.advance()
		els, err := p.parseBlock()
		if err != nil {
			return ast.If{}, err
		}
		node.Else = els
		node.HasElse = true
	}
	return node, nil
}

// parseCond implements the precedence-climbing grammar supplemented from
// original_source's cond() combinator: or_cond := and_cond ('||' and_cond)*,
// and_cond := unary_cond ('&&' unary_cond)*, unary_cond := '!' unary_cond |
// '(' cond ')' | relation.
func (p *Parser) parseCond() (ast.Cond, error) {
	return p.parseCondOr()
}

func (p *Parser) parseCondOr() (ast.Cond, error) {
	left, err := p.parseCondAnd()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Or) {
		p.advance()
		right, err := p.parseCondAnd()
		if err != nil {
			return nil, err
		}
		left = ast.CondOr{Lhs: left, Rhs: right}
	}
	return left, nil
}

func (p *Parser) parseCondAnd() (ast.Cond, error) {
	left, err := p.parseCondUnary()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.And) {
		p.advance()
		right, err := p.parseCondUnary()
		if err != nil {
			return nil, err
		}
		left = ast.CondAnd{Lhs: left, Rhs: right}
	}
	return left, nil
}

func (p *Parser) parseCondUnary() (ast.Cond, error) {
	if p.at(lexer.Not) {
		p.advance()
		inner, err := p.parseCondUnary()
		if err != nil {
			return nil, err
		}
		return ast.CondNot{Cond: inner}, nil
	}
	if p.at(lexer.Lparen) {
		p.advance()
		inner, err := p.parseCond()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Rparen); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parseRelation()
}

func (p *Parser) parseRelation() (ast.Cond, error) {
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var kind ast.RelKind
	switch p.current().Kind {
	case lexer.Eq:
		kind = ast.RelEqual
	case lexer.Neq:
		kind = ast.RelNotEqual
	case lexer.Lt:
		kind = ast.RelLess
	case lexer.Leq:
		kind = ast.RelLessOrEqual
	case lexer.Gt:
		kind = ast.RelGreater
	case lexer.Geq:
		kind = ast.RelGreaterOrEqual
	default:
		return nil, diag.NewAt(diag.KindParse,
			fmt.Sprintf("expected a comparison operator, got %s", p.current().Kind), p.current().Pos)
	}
	p.advance()
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.CondRelation{Relation: ast.RelExpr{Kind: kind, Lhs: lhs, Rhs: rhs}}, nil
}

// parseExpr implements the arithmetic grammar: sum := product (('+'|'-') product)*,
// product := unary (('*'|'/') unary)*, unary := '-' unary | atom,
// atom := ident | number | '(' expr ')'.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseSum()
}

func (p *Parser) parseSum() (ast.Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Add) || p.at(lexer.Sub) {
		op := ast.OpAdd
		if p.current().Kind == lexer.Sub {
			op = ast.OpSub
		}
		p.advance()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = ast.ExprBinOp{Lhs: left, Op: op, Rhs: right}
	}
	return left, nil
}

func (p *Parser) parseProduct() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Mul) || p.at(lexer.Div) {
		op := ast.OpMul
		if p.current().Kind == lexer.Div {
			op = ast.OpDiv
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.ExprBinOp{Lhs: left, Op: op, Rhs: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.at(lexer.Sub) {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.ExprNeg{Expr: inner}, nil
	}
	return p.parseAtom()
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	tok := p.current()
	switch tok.Kind {
	case lexer.Ident:
		p.advance()
		return ast.ExprIdent{Ident: ast.Ident{Name: tok.Text}}, nil
	case lexer.Integer:
		p.advance()
		return ast.ExprLit{Lit: ast.LitInt{Value: tok.Int}}, nil
	case lexer.Float:
		p.advance()
		return ast.ExprLit{Lit: ast.LitFloat{Value: tok.Real}}, nil
	case lexer.Lparen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Rparen); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, diag.NewAt(diag.KindParse,
			fmt.Sprintf("expected an expression, got %s", tok.Kind), tok.Pos)
	}
}
