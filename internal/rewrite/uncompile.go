// Package rewrite recovers the source of a compiled Go function, applies
// the auto-name transform to its syntax tree, and recompiles the result
// into an executable function via an embedded interpreter.
//
// The pipeline is four stages run in order, with no branching back:
// uncompile, parse, transform, recompile. Each stage either fully succeeds
// or fails with one of the package's sentinel errors; there is no partial
// output.
package rewrite

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

// Import is one import of the originating source file. An empty Alias means
// the package's default name is used.
type Import struct {
	Alias string
	Path  string
}

// Snippet is the uncompiled form of a function: its declaration text plus
// the metadata needed to parse, relocate, and recompile it.
type Snippet struct {
	Source   string // text of the function declaration
	Filename string // originating source file
	Line     int    // first line of the declaration in Filename
	FuncName string
	PkgName  string
	Imports  []Import     // the originating file's imports
	Type     reflect.Type // signature of the original function
}

// funcLiteralRe matches the symbol segments the runtime appends for
// function literals (closures and anonymous functions).
var funcLiteralRe = regexp.MustCompile(`^func\d+(\.\d+)*$`)

// Uncompile recovers the source of a compiled top-level function. Closures,
// anonymous functions, methods, and generic functions are rejected with
// ErrUnsupported; functions without a readable source file fail with
// ErrNoSource. The input function is never modified.
func Uncompile(fn any) (*Snippet, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T is not a function", ErrUnsupported, fn)
	}
	if v.IsNil() {
		return nil, fmt.Errorf("%w: nil function", ErrUnsupported)
	}

	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return nil, fmt.Errorf("%w: no runtime symbol for function", ErrNoSource)
	}

	_, funcName, err := splitSymbol(rf.Name())
	if err != nil {
		return nil, err
	}

	file, line := rf.FileLine(rf.Entry())
	if file == "" || strings.HasPrefix(file, "<") {
		return nil, fmt.Errorf("%w: function %s has no source file", ErrNoSource, funcName)
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrNoSource, file, err)
	}

	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, file, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrNoSource, file, err)
	}

	decl := findDecl(parsed, funcName)
	if decl == nil {
		return nil, fmt.Errorf("%w: declaration of %s not found in %s", ErrNoSource, funcName, file)
	}
	if decl.Type.TypeParams != nil {
		return nil, fmt.Errorf("%w: generic function %s", ErrUnsupported, funcName)
	}
	declStart := fset.Position(decl.Pos())
	declEnd := fset.Position(decl.End())
	if line < declStart.Line || line > declEnd.Line {
		return nil, fmt.Errorf("%w: declaration of %s moved since compilation (entry line %d outside %d..%d)",
			ErrNoSource, funcName, line, declStart.Line, declEnd.Line)
	}

	imports := make([]Import, 0, len(parsed.Imports))
	for _, spec := range parsed.Imports {
		imp := Import{Path: strings.Trim(spec.Path.Value, `"`)}
		if spec.Name != nil {
			imp.Alias = spec.Name.Name
		}
		imports = append(imports, imp)
	}

	return &Snippet{
		Source:   string(src[declStart.Offset:declEnd.Offset]),
		Filename: file,
		Line:     declStart.Line,
		FuncName: funcName,
		PkgName:  parsed.Name.Name,
		Imports:  imports,
		Type:     v.Type(),
	}, nil
}

// splitSymbol decomposes a runtime symbol name like
// "github.com/x/pkg.Fn", "pkg.(*T).M", or "pkg.Fn.func1" into package and
// function name, rejecting the shapes the pipeline cannot recompile.
func splitSymbol(sym string) (pkgName, funcName string, err error) {
	base := sym
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	parts := strings.Split(base, ".")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("%w: unrecognized symbol %q", ErrUnsupported, sym)
	}
	for _, p := range parts[1:] {
		if funcLiteralRe.MatchString(p) {
			return "", "", fmt.Errorf("%w: anonymous or closure function %q", ErrUnsupported, sym)
		}
	}
	if len(parts) > 2 {
		// pkg.(*T).M, pkg.T.M, or a deeper nesting.
		return "", "", fmt.Errorf("%w: method or nested function %q", ErrUnsupported, sym)
	}
	return parts[0], parts[1], nil
}

// findDecl returns the plain top-level function declaration named name.
func findDecl(file *ast.File, name string) *ast.FuncDecl {
	for _, d := range file.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok || fd.Recv != nil {
			continue
		}
		if fd.Name.Name == name {
			return fd
		}
	}
	return nil
}
