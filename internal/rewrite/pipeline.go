package rewrite

import (
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
)

// job carries one function through the pipeline stages.
type job struct {
	fn          any
	transformer *AutoName
	exports     []interp.Exports

	snippet *Snippet
	tree    *Tree
	result  reflect.Value
}

type stage struct {
	name string
	run  func(*job) error
}

// stages run in order; a stage failure aborts the pipeline with no partial
// output and leaves the input function untouched.
var stages = []stage{
	{"uncompile", func(j *job) error {
		sn, err := Uncompile(j.fn)
		j.snippet = sn
		return err
	}},
	{"parse", func(j *job) error {
		tree, err := ParseSnippet(j.snippet)
		j.tree = tree
		return err
	}},
	{"transform", func(j *job) error {
		if j.transformer != nil {
			j.transformer.Transform(j.tree.Decl)
		}
		return nil
	}},
	{"recompile", func(j *job) error {
		v, err := Recompile(j.tree, j.exports...)
		j.result = v
		return err
	}},
}

// Rewrite runs the full pipeline on fn: uncompile, parse, apply t, and
// recompile against the supplied symbol tables. A nil transformer
// round-trips the function unchanged. The returned value is an executable
// function with fn's exact signature.
func Rewrite(fn any, t *AutoName, exports ...interp.Exports) (reflect.Value, error) {
	j := &job{fn: fn, transformer: t, exports: exports}
	for _, s := range stages {
		if err := s.run(j); err != nil {
			return reflect.Value{}, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return j.result, nil
}
