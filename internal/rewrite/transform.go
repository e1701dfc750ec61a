package rewrite

import (
	"go/ast"
	"go/token"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"
)

// DefaultQualifier is the package qualifier of the injected Name option.
const DefaultQualifier = "rv"

// AutoName rewrites qualifying assignment statements so that the called
// constructor receives the assignment target's identifier as an explicit
// Name option: `x := rv.Normal(0, 1)` becomes
// `x := rv.Normal(0, 1, rv.Name("x"))`.
//
// Only single-target assignments of a plain, non-blank identifier whose
// sole right-hand side is a call expression qualify. Multi-target,
// destructuring, selector, and index targets are left alone, as are calls
// that already pass an explicit Name option and calls spreading a slice
// into a variadic parameter.
type AutoName struct {
	// Qual is the package qualifier of the injected option; DefaultQualifier
	// if empty.
	Qual string

	// Only restricts rewriting to calls whose function is selected from one
	// of these package qualifiers. Empty means every qualifying call is
	// rewritten.
	Only []string
}

func (t *AutoName) qualifier() string {
	if t.Qual == "" {
		return DefaultQualifier
	}
	return t.Qual
}

// Transform applies the rewrite below node and reports whether anything
// changed.
func (t *AutoName) Transform(node ast.Node) bool {
	changed := false
	astutil.Apply(node, func(c *astutil.Cursor) bool {
		stmt, ok := c.Node().(*ast.AssignStmt)
		if !ok {
			return true
		}
		if len(stmt.Lhs) != 1 || len(stmt.Rhs) != 1 {
			return true
		}
		target, ok := stmt.Lhs[0].(*ast.Ident)
		if !ok || target.Name == "_" {
			return true
		}
		call, ok := stmt.Rhs[0].(*ast.CallExpr)
		if !ok || call.Ellipsis.IsValid() {
			return true
		}
		if !t.eligible(call) || hasNameOption(call) {
			return true
		}
		call.Args = append(call.Args, t.nameOption(target.Name, call.Rparen))
		changed = true
		return true
	}, nil)
	return changed
}

func (t *AutoName) eligible(call *ast.CallExpr) bool {
	if len(t.Only) == 0 {
		return true
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	qual, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}
	for _, name := range t.Only {
		if qual.Name == name {
			return true
		}
	}
	return false
}

// hasNameOption reports whether an explicit Name option is already among
// the call's arguments.
func hasNameOption(call *ast.CallExpr) bool {
	for _, arg := range call.Args {
		inner, ok := arg.(*ast.CallExpr)
		if !ok {
			continue
		}
		switch fun := inner.Fun.(type) {
		case *ast.Ident:
			if fun.Name == "Name" {
				return true
			}
		case *ast.SelectorExpr:
			if fun.Sel.Name == "Name" {
				return true
			}
		}
	}
	return false
}

// nameOption builds `<qual>.Name("<target>")`. Injected nodes are anchored
// to the enclosing call's closing parenthesis so the printer keeps the
// rewritten call coherent.
func (t *AutoName) nameOption(target string, anchor token.Pos) *ast.CallExpr {
	return &ast.CallExpr{
		Fun: &ast.SelectorExpr{
			X:   &ast.Ident{Name: t.qualifier(), NamePos: anchor},
			Sel: &ast.Ident{Name: "Name", NamePos: anchor},
		},
		Lparen: anchor,
		Args: []ast.Expr{
			&ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(target), ValuePos: anchor},
		},
		Rparen: anchor,
	}
}
