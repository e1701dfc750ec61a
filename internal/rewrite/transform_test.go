package rewrite

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strings"
	"testing"
)

func parseFunc(t *testing.T, body string) (*token.FileSet, *ast.File, *ast.FuncDecl) {
	t.Helper()
	src := "package p\n\nfunc target() {\n" + body + "\n}\n"
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "target.go", src, parser.SkipObjectResolution)
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return fset, file, file.Decls[0].(*ast.FuncDecl)
}

func printDecl(t *testing.T, fset *token.FileSet, decl *ast.FuncDecl) string {
	t.Helper()
	var b bytes.Buffer
	if err := format.Node(&b, fset, decl); err != nil {
		t.Fatalf("printing fixture: %v", err)
	}
	return b.String()
}

func TestAutoNameInjectsTarget(t *testing.T) {
	fset, _, decl := parseFunc(t, `x := rv.Normal(5, 1)`)
	tr := &AutoName{}
	if !tr.Transform(decl) {
		t.Fatal("transform reported no change")
	}
	got := printDecl(t, fset, decl)
	if !strings.Contains(got, `rv.Normal(5, 1, rv.Name("x"))`) {
		t.Fatalf("transformed source missing injected name:\n%s", got)
	}
}

func TestAutoNamePlainAssignment(t *testing.T) {
	fset, _, decl := parseFunc(t, "var y any\n\ty = rv.Uniform(0, 1)\n\t_ = y")
	if !(&AutoName{}).Transform(decl) {
		t.Fatal("transform reported no change")
	}
	got := printDecl(t, fset, decl)
	if !strings.Contains(got, `rv.Uniform(0, 1, rv.Name("y"))`) {
		t.Fatalf("plain assignment not rewritten:\n%s", got)
	}
}

func TestAutoNameSkipsExplicitName(t *testing.T) {
	fset, _, decl := parseFunc(t, `x := rv.Normal(5, 1, rv.Name("chosen"))`)
	if (&AutoName{}).Transform(decl) {
		t.Fatal("transform changed a call with an explicit name")
	}
	got := printDecl(t, fset, decl)
	if strings.Contains(got, `rv.Name("x")`) {
		t.Fatalf("explicit name overridden:\n%s", got)
	}
}

func TestAutoNameSkipsNonQualifyingTargets(t *testing.T) {
	cases := map[string]string{
		"multi target": "a, b := rv.Pair(), 1\n\t_, _ = a, b",
		"blank target": "_ = rv.Normal(0, 1)",
		"selector":     "s.field = rv.Normal(0, 1)",
		"index":        "m[0] = rv.Normal(0, 1)",
		"non-call rhs": "x := 5\n\t_ = x",
		"spread call":  "x := rv.Normal(args...)\n\t_ = x",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, decl := parseFunc(t, body)
			if (&AutoName{}).Transform(decl) {
				t.Fatalf("transform changed %s statement", name)
			}
		})
	}
}

func TestAutoNameNestedControlFlow(t *testing.T) {
	fset, _, decl := parseFunc(t, "if true {\n\t\tz := rv.Normal(0, 1)\n\t\t_ = z\n\t}")
	if !(&AutoName{}).Transform(decl) {
		t.Fatal("transform reported no change")
	}
	got := printDecl(t, fset, decl)
	if !strings.Contains(got, `rv.Name("z")`) {
		t.Fatalf("assignment in branch not rewritten:\n%s", got)
	}
}

func TestAutoNameQualifierOverride(t *testing.T) {
	fset, _, decl := parseFunc(t, `x := dist.Normal(0, 1)`)
	if !(&AutoName{Qual: "dist"}).Transform(decl) {
		t.Fatal("transform reported no change")
	}
	got := printDecl(t, fset, decl)
	if !strings.Contains(got, `dist.Name("x")`) {
		t.Fatalf("qualifier override ignored:\n%s", got)
	}
}

func TestAutoNameOnlyFilter(t *testing.T) {
	fset, _, decl := parseFunc(t, "x := rv.Normal(0, 1)\n\ty := other.Make()\n\t_, _ = x, y")
	tr := &AutoName{Only: []string{"rv"}}
	if !tr.Transform(decl) {
		t.Fatal("transform reported no change")
	}
	got := printDecl(t, fset, decl)
	if !strings.Contains(got, `rv.Name("x")`) {
		t.Errorf("rv call not rewritten:\n%s", got)
	}
	if strings.Contains(got, `rv.Name("y")`) {
		t.Errorf("filtered qualifier rewritten:\n%s", got)
	}
}
