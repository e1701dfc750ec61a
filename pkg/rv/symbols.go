package rv

import "reflect"

// Symbols exposes this package to interpreter-recompiled model functions,
// keyed the way yaegi expects (import path plus package name). Pass it to
// model.AutoName so rewritten functions can resolve their rv.* references.
var Symbols = map[string]map[string]reflect.Value{
	"github.com/probkit/probkit/pkg/rv/rv": {
		"Active":   reflect.ValueOf(Active),
		"Apply":    reflect.ValueOf(Apply),
		"Name":     reflect.ValueOf(Name),
		"Normal":   reflect.ValueOf(Normal),
		"Register": reflect.ValueOf(Register),
		"Uniform":  reflect.ValueOf(Uniform),
		"WithRand": reflect.ValueOf(WithRand),

		"Flat":     reflect.ValueOf((*Flat)(nil)),
		"Gaussian": reflect.ValueOf((*Gaussian)(nil)),
		"Option":   reflect.ValueOf((*Option)(nil)),
		"Settings": reflect.ValueOf((*Settings)(nil)),
		"Var":      reflect.ValueOf((*Var)(nil)),
	},
}
