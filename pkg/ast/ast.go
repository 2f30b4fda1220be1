// Package ast defines the Abstract Syntax Tree for the lunarc dataflow DSL.
// These types represent the structure of a source file after lexing and
// parsing and before block lowering. The tree is immutable once built: the
// translator never mutates it, only folds over it.
package ast

// File is an ordered sequence of top-level items: native imports and
// subroutine definitions.
type File struct {
	Items []Item
}

// Item is either an ItemImport or an ItemSub.
type Item interface {
	itemNode()
}

// ItemImport declares the signature of a native symbol the translator may
// reference from a Call statement. Imports carry no body.
type ItemImport struct {
	Signature Signature
	// Alias renames the imported symbol within the DSL; the zero value
	// means the DSL name matches the native symbol name.
	Alias Ident
	HasAlias bool
}

func (ItemImport) itemNode() {}

// ItemSub is a subroutine definition: a signature plus its body block.
type ItemSub struct {
	Signature Signature
	Block     Block
}

func (ItemSub) itemNode() {}

// Signature is a name plus an ordered parameter list.
type Signature struct {
	Ident  Ident
	Params []Param
}

// Param is one parameter of a Signature. Name may be empty for imports whose
// native declaration omits a parameter name; the translator then synthesizes
// one (see translator.transformParams).
type Param struct {
	Name Ident
	HasName bool
	Type Type
}

// Ident is a bare identifier, naming a variable, subroutine, or native
// symbol.
type Ident struct {
	Name string
}

// Type tags a Param's kind. Int/Long/Float/Double are scalar value-
// parameters; Value denotes an input dataflow handle and Name denotes an
// output dataflow handle the callee will submit.
type Type int

const (
	TypeInt Type = iota
	TypeLong
	TypeFloat
	TypeDouble
	TypeValue
	TypeName
)

// String renders the type the way it appears in DSL source and diagnostics.
func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeValue:
		return "value"
	case TypeName:
		return "name"
	default:
		return "unknown"
	}
}

// IsDataflow reports whether the type denotes a dataflow handle (as opposed
// to a scalar value-parameter).
func (t Type) IsDataflow() bool {
	return t == TypeValue || t == TypeName
}

// Block is an ordered list of statements, the body of a Sub, For, or If.
type Block struct {
	Stmts []Stmt
}

// Stmt is one of Decl, Call, For, or If.
type Stmt interface {
	stmtNode()
}

// Decl introduces one or more dataflow handles into the enclosing block's
// local scope. A Decl emits no child block by itself; it only extends the
// typing environment and the enclosing Fork's decl set.
type Decl struct {
	Vars []Ident
}

func (Decl) stmtNode() {}

// Call invokes an imported native symbol (or, in a future revision, a
// subroutine) with an ordered list of argument expressions.
type Call struct {
	Ident Ident
	Args  []Expr
}

func (Call) stmtNode() {}

// For iterates Index over the half-open range [Lower, Upper), running Body
// once per iteration with Index bound as an Int.
type For struct {
	Index Ident
	Lower Expr
	Upper Expr
	Body  Block
}

func (For) stmtNode() {}

// If runs Then when Cond evaluates truthy; Else is optional.
type If struct {
	Cond  Cond
	Then  Block
	Else  Block
	HasElse bool
}

func (If) stmtNode() {}

// Expr is an arithmetic expression: ExprIdent, ExprLit, or ExprBinOp.
type Expr interface {
	exprNode()
}

// ExprIdent references a bound identifier: a scalar parameter, a dataflow
// handle, or a for-index.
type ExprIdent struct {
	Ident Ident
}

func (ExprIdent) exprNode() {}

// ExprLit is an integer or float literal.
type ExprLit struct {
	Lit Lit
}

func (ExprLit) exprNode() {}

// ExprBinOp is a binary arithmetic operation; the AST already encodes
// operator precedence via nesting, so emission never needs to reconstruct
// it.
type ExprBinOp struct {
	Lhs Expr
	Op  Op
	Rhs Expr
}

func (ExprBinOp) exprNode() {}

// ExprNeg is unary negation.
type ExprNeg struct {
	Expr Expr
}

func (ExprNeg) exprNode() {}

// Op is one of the four arithmetic binary operators.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

// Lit is an integer or float literal value.
type Lit interface {
	litNode()
}

// LitInt is an integer literal.
type LitInt struct {
	Value int64
}

func (LitInt) litNode() {}

// LitFloat is a float literal.
type LitFloat struct {
	Value float64
}

func (LitFloat) litNode() {}

// Cond is a boolean condition used by If; it is a separate grammar from
// Expr (conditions never appear where a value is expected and vice versa).
type Cond interface {
	condNode()
}

// CondNot negates a condition.
type CondNot struct {
	Cond Cond
}

func (CondNot) condNode() {}

// CondAnd is a short-circuiting conjunction.
type CondAnd struct {
	Lhs, Rhs Cond
}

func (CondAnd) condNode() {}

// CondOr is a short-circuiting disjunction.
type CondOr struct {
	Lhs, Rhs Cond
}

func (CondOr) condNode() {}

// CondRelation compares two expressions.
type CondRelation struct {
	Relation Relation
}

func (CondRelation) condNode() {}

// Relation is one of the six comparison operators applied to a pair of
// expressions.
type Relation interface {
	relationNode()
}

// RelKind distinguishes the six comparison operators carried by a Relation
// implementation below.
type RelKind int

const (
	RelEqual RelKind = iota
	RelNotEqual
	RelLess
	RelLessOrEqual
	RelGreater
	RelGreaterOrEqual
)

// RelExpr is a Relation: Kind compares Lhs against Rhs.
type RelExpr struct {
	Kind     RelKind
	Lhs, Rhs Expr
}

func (RelExpr) relationNode() {}
