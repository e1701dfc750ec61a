package rewrite

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// RewriteSource applies the auto-name transform to a whole source file,
// the build-time alternative to runtime recompilation. It returns the
// formatted result and whether anything changed; unchanged input is
// returned as-is.
func RewriteSource(filename string, src []byte, cfg *Config) ([]byte, bool, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, false, fmt.Errorf("parsing %s: %w", filename, err)
	}

	t := cfg.transformer()
	changed := false
	for _, d := range file.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok || fd.Body == nil || !cfg.wantsFunc(fd.Name.Name) {
			continue
		}
		if t.Transform(fd.Body) {
			changed = true
		}
	}
	if !changed {
		return src, false, nil
	}

	// A rewritten file must import the package qualifying the injected
	// option; add it when the config names its path and the file lacks it.
	if cfg.OptionImport != "" && !hasImport(file, cfg.OptionImport) {
		if importName(Import{Path: cfg.OptionImport}) == t.qualifier() {
			astutil.AddImport(fset, file, cfg.OptionImport)
		} else {
			astutil.AddNamedImport(fset, file, t.qualifier(), cfg.OptionImport)
		}
	}

	var b bytes.Buffer
	if err := format.Node(&b, fset, file); err != nil {
		return nil, false, fmt.Errorf("formatting %s: %w", filename, err)
	}
	return b.Bytes(), true, nil
}

func hasImport(file *ast.File, path string) bool {
	for _, spec := range file.Imports {
		if spec.Path.Value == fmt.Sprintf("%q", path) {
			return true
		}
	}
	return false
}
