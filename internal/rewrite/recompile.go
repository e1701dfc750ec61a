package rewrite

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Recompile turns a (possibly transformed) tree back into an executable
// function. The declaration and the imports its body still references are
// evaluated in a fresh interpreter seeded with the Go standard library and
// the caller's symbol tables; the function is then looked up by name. A
// tree that no longer yields a function of the original name and signature
// fails with ErrMalformed.
func Recompile(tree *Tree, exports ...interp.Exports) (reflect.Value, error) {
	var none reflect.Value

	// The transform may have edited the tree in place; make sure it still
	// contains the declaration the pipeline started from.
	decl := findDecl(tree.File, tree.snippet.FuncName)
	if decl == nil {
		return none, fmt.Errorf("%w: tree no longer declares %s", ErrMalformed, tree.snippet.FuncName)
	}

	src, err := render(tree, decl)
	if err != nil {
		return none, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return none, fmt.Errorf("seeding interpreter: %w", err)
	}
	for _, e := range exports {
		if err := i.Use(e); err != nil {
			return none, fmt.Errorf("seeding interpreter: %w", err)
		}
	}

	if _, err := i.Eval(src); err != nil {
		return none, fmt.Errorf("%w: recompiling %s: %v", ErrMalformed, tree.snippet.FuncName, err)
	}
	v, err := i.Eval(tree.snippet.FuncName)
	if err != nil {
		return none, fmt.Errorf("%w: function %s not found after recompile: %v",
			ErrMalformed, tree.snippet.FuncName, err)
	}
	if !v.IsValid() || v.Kind() != reflect.Func {
		return none, fmt.Errorf("%w: %s recompiled to %s, want func", ErrMalformed, tree.snippet.FuncName, v.Kind())
	}
	if want := tree.snippet.Type; want != nil && v.Type() != want {
		return none, fmt.Errorf("%w: %s recompiled to %s, want %s",
			ErrMalformed, tree.snippet.FuncName, v.Type(), want)
	}
	return v, nil
}

// render prints the declaration preceded by the imports its body actually
// references. The synthetic package clause is discarded: the interpreter
// evaluates imports and declarations at its top level.
func render(tree *Tree, decl *ast.FuncDecl) (string, error) {
	var b bytes.Buffer
	used := usedQualifiers(decl)
	for _, imp := range tree.snippet.Imports {
		if !used[importName(imp)] {
			continue
		}
		if imp.Alias != "" {
			fmt.Fprintf(&b, "import %s %s\n", imp.Alias, strconv.Quote(imp.Path))
		} else {
			fmt.Fprintf(&b, "import %s\n", strconv.Quote(imp.Path))
		}
	}
	b.WriteString("\n")
	if err := printer.Fprint(&b, tree.Fset, decl); err != nil {
		return "", fmt.Errorf("printing %s: %w", tree.snippet.FuncName, err)
	}
	b.WriteString("\n")
	return b.String(), nil
}

// usedQualifiers collects the package qualifiers referenced by selector
// expressions in the declaration.
func usedQualifiers(decl *ast.FuncDecl) map[string]bool {
	used := make(map[string]bool)
	ast.Inspect(decl, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok {
			used[id.Name] = true
		}
		return true
	})
	return used
}

var versionSuffixRe = regexp.MustCompile(`^v\d+$`)

// importName returns the qualifier an import binds: its alias, or the last
// import-path element with a trailing major-version element skipped.
func importName(imp Import) string {
	if imp.Alias != "" {
		return imp.Alias
	}
	parts := strings.Split(imp.Path, "/")
	name := parts[len(parts)-1]
	if versionSuffixRe.MatchString(name) && len(parts) > 1 {
		name = parts[len(parts)-2]
	}
	return name
}
