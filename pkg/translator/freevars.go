package translator

import "github.com/lemonberrylabs/lunarc/pkg/ast"

// exprVariables is a pure fold over an expression tree collecting identifier
// occurrences. No operator desugaring; literals contribute nothing.
// Grounded on original_source/src/translator/imp.rs's expr_variables.
func exprVariables(e ast.Expr) map[string]struct{} {
	switch x := e.(type) {
	case ast.ExprIdent:
		return map[string]struct{}{x.Ident.Name: {}}
	case ast.ExprLit:
		return map[string]struct{}{}
	case ast.ExprNeg:
		return exprVariables(x.Expr)
	case ast.ExprBinOp:
		return mergeVarSets(exprVariables(x.Lhs), exprVariables(x.Rhs))
	default:
		return map[string]struct{}{}
	}
}

// conditionVariables folds through Not/And/Or and relation operands exactly
// as exprVariables folds over expressions; both relation operands
// contribute to the same set. Grounded on
// original_source/src/translator/imp.rs's condition_variables, extended to
// the supplemented relational/logical grammar (SPEC_FULL.md §3).
func conditionVariables(c ast.Cond) map[string]struct{} {
	switch x := c.(type) {
	case ast.CondNot:
		return conditionVariables(x.Cond)
	case ast.CondAnd:
		return mergeVarSets(conditionVariables(x.Lhs), conditionVariables(x.Rhs))
	case ast.CondOr:
		return mergeVarSets(conditionVariables(x.Lhs), conditionVariables(x.Rhs))
	case ast.CondRelation:
		rel := x.Relation.(ast.RelExpr)
		return mergeVarSets(exprVariables(rel.Lhs), exprVariables(rel.Rhs))
	default:
		return map[string]struct{}{}
	}
}

func mergeVarSets(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}
