// Package lexer tokenizes lunarc DSL source text. Lexing and parsing are
// thin, external collaborators to the translator by design (see §1 of the
// spec this module implements): this package's only job is to turn bytes
// into the token stream §6 describes, with a single diagnostic naming the
// first unlexable byte on failure.
package lexer

import (
	"strconv"

	"github.com/lemonberrylabs/lunarc/pkg/diag"
)

// Kind identifies a token's lexical category.
type Kind int

const (
	KwImport Kind = iota
	KwSub
	KwFor
	KwIn
	KwIf
	KwElse
	KwAs
	KwDf

	TyInt
	TyLong
	TyFloat
	TyDouble
	TyValue
	TyName

	Lparen
	Rparen
	Lbrace
	Rbrace
	Comma
	Dots
	Semi

	Add
	Sub
	Mul
	Div

	Eq
	Neq
	Lt
	Leq
	Gt
	Geq
	Not
	And
	Or

	Ident
	Integer
	Float

	EOF
)

var keywords = map[string]Kind{
	"import": KwImport,
	"sub":    KwSub,
	"for":    KwFor,
	"in":     KwIn,
	"if":     KwIf,
	"else":   KwElse,
	"as":     KwAs,
	"df":     KwDf,
	"int":    TyInt,
	"long":   TyLong,
	"float":  TyFloat,
	"double": TyDouble,
	"value":  TyValue,
	"name":   TyName,
}

// Token is one lexed unit: its Kind plus the literal text it was lexed
// from, the byte offset it starts at, and its parsed literal value (Int,
// Float) when applicable.
type Token struct {
	Kind Kind
	Text string
	Pos  int
	Int  int64
	Real float64
}

// Lex tokenizes the entire input, returning a LexError diagnostic naming
// the position of the first byte that matches no token rule.
func Lex(src string) ([]Token, error) {
	l := &lexerState{src: src}
	var out []Token

	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			out = append(out, Token{Kind: EOF, Pos: l.pos})
			return out, nil
		}

		start := l.pos
		tok, ok := l.next()
		if !ok {
			return nil, diag.NewAt(diag.KindLex, "unrecognized character", start)
		}
		out = append(out, tok)
	}
}

type lexerState struct {
	src string
	pos int
}

func (l *lexerState) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexerState) peek(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

// next lexes exactly one token starting at l.pos, advancing l.pos past it.
func (l *lexerState) next() (Token, bool) {
	start := l.pos
	c := l.src[l.pos]

	two := func(second byte, k Kind, text string) (Token, bool) {
		if l.peek(1) == second {
			l.pos += 2
			return Token{Kind: k, Text: text, Pos: start}, true
		}
		return Token{}, false
	}

	switch c {
	case '(':
		l.pos++
		return Token{Kind: Lparen, Text: "(", Pos: start}, true
	case ')':
		l.pos++
		return Token{Kind: Rparen, Text: ")", Pos: start}, true
	case '{':
		l.pos++
		return Token{Kind: Lbrace, Text: "{", Pos: start}, true
	case '}':
		l.pos++
		return Token{Kind: Rbrace, Text: "}", Pos: start}, true
	case ',':
		l.pos++
		return Token{Kind: Comma, Text: ",", Pos: start}, true
	case ';':
		l.pos++
		return Token{Kind: Semi, Text: ";", Pos: start}, true
	case '+':
		l.pos++
		return Token{Kind: Add, Text: "+", Pos: start}, true
	case '-':
		l.pos++
		return Token{Kind: Sub, Text: "-", Pos: start}, true
	case '*':
		l.pos++
		return Token{Kind: Mul, Text: "*", Pos: start}, true
	case '/':
		l.pos++
		return Token{Kind: Div, Text: "/", Pos: start}, true
	case '.':
		if l.peek(1) == '.' {
			l.pos += 2
			return Token{Kind: Dots, Text: "..", Pos: start}, true
		}
		return Token{}, false
	case '=':
		if tok, ok := two('=', Eq, "=="); ok {
			return tok, true
		}
		return Token{}, false
	case '!':
		if tok, ok := two('=', Neq, "!="); ok {
			return tok, true
		}
		l.pos++
		return Token{Kind: Not, Text: "!", Pos: start}, true
	case '<':
		if tok, ok := two('=', Leq, "<="); ok {
			return tok, true
		}
		l.pos++
		return Token{Kind: Lt, Text: "<", Pos: start}, true
	case '>':
		if tok, ok := two('=', Geq, ">="); ok {
			return tok, true
		}
		l.pos++
		return Token{Kind: Gt, Text: ">", Pos: start}, true
	case '&':
		if tok, ok := two('&', And, "&&"); ok {
			return tok, true
		}
		return Token{}, false
	case '|':
		if tok, ok := two('|', Or, "||"); ok {
			return tok, true
		}
		return Token{}, false
	}

	if isDigit(c) {
		return l.lexNumber(start), true
	}

	if isIdentStart(c) {
		return l.lexIdent(start), true
	}

	return Token{}, false
}

func (l *lexerState) lexIdent(start int) Token {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	if kind, ok := keywords[text]; ok {
		return Token{Kind: kind, Text: text, Pos: start}
	}
	return Token{Kind: Ident, Text: text, Pos: start}
}

func (l *lexerState) lexNumber(start int) Token {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' && isDigit(l.peek(1)) {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		text := l.src[start:l.pos]
		real, _ := strconv.ParseFloat(text, 64)
		return Token{Kind: Float, Text: text, Pos: start, Real: real}
	}

	text := l.src[start:l.pos]
	integer, _ := strconv.ParseInt(text, 10, 64)
	return Token{Kind: Integer, Text: text, Pos: start, Int: integer}
}

// Kind.String is used in parser error messages.
func (k Kind) String() string {
	switch k {
	case KwImport:
		return "import"
	case KwSub:
		return "sub"
	case KwFor:
		return "for"
	case KwIn:
		return "in"
	case KwIf:
		return "if"
	case KwElse:
		return "else"
	case KwAs:
		return "as"
	case KwDf:
		return "df"
	case TyInt:
		return "int"
	case TyLong:
		return "long"
	case TyFloat:
		return "float"
	case TyDouble:
		return "double"
	case TyValue:
		return "value"
	case TyName:
		return "name"
	case Lparen:
		return "("
	case Rparen:
		return ")"
	case Lbrace:
		return "{"
	case Rbrace:
		return "}"
	case Comma:
		return ","
	case Dots:
		return ".."
	case Semi:
		return ";"
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Eq:
		return "=="
	case Neq:
		return "!="
	case Lt:
		return "<"
	case Leq:
		return "<="
	case Gt:
		return ">"
	case Geq:
		return ">="
	case Not:
		return "!"
	case And:
		return "&&"
	case Or:
		return "||"
	case Ident:
		return "identifier"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case EOF:
		return "end of file"
	default:
		return "?"
	}
}
