package rewrite

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// Tree is the parsed form of a snippet: a throwaway single-file package
// wrapping the one function declaration the pipeline operates on.
type Tree struct {
	Fset *token.FileSet
	File *ast.File
	Decl *ast.FuncDecl

	snippet *Snippet
}

// ParseSnippet parses a snippet into a Tree. The declaration text is
// wrapped in a synthetic package clause (discarded at recompile time) and
// prefixed with a line directive so adjusted positions map back to the
// originating file. The wrapper must yield exactly one declaration of the
// snippet's function; anything else is ErrMalformed.
func ParseSnippet(sn *Snippet) (*Tree, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\n", sn.PkgName)
	for _, imp := range sn.Imports {
		if imp.Alias != "" {
			fmt.Fprintf(&b, "import %s %s\n", imp.Alias, strconv.Quote(imp.Path))
		} else {
			fmt.Fprintf(&b, "import %s\n", strconv.Quote(imp.Path))
		}
	}
	fmt.Fprintf(&b, "//line %s:%d\n", sn.Filename, sn.Line)
	b.WriteString(sn.Source)
	b.WriteString("\n")

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, sn.Filename, b.String(), parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing snippet of %s: %v", ErrMalformed, sn.FuncName, err)
	}

	var decl *ast.FuncDecl
	for _, d := range file.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if fd.Name.Name != sn.FuncName || decl != nil {
			return nil, fmt.Errorf("%w: snippet of %s yields extra declaration %s",
				ErrMalformed, sn.FuncName, fd.Name.Name)
		}
		decl = fd
	}
	if decl == nil {
		return nil, fmt.Errorf("%w: snippet of %s yields no function declaration", ErrMalformed, sn.FuncName)
	}

	return &Tree{Fset: fset, File: file, Decl: decl, snippet: sn}, nil
}

// Position resolves a node position against the snippet's line directive,
// reporting the location in the originating file.
func (t *Tree) Position(pos token.Pos) token.Position {
	return t.Fset.PositionFor(pos, true)
}
