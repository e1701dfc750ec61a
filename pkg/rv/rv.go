// Package rv defines the random-variable contract the model core consumes,
// plus a minimal reference backend used by tests and examples. It is not a
// distribution library: a real numerical backend supplies its own variable
// types and only needs to satisfy Var and call Register at construction.
package rv

import (
	"math/rand/v2"

	"github.com/probkit/probkit/internal/capture"
)

// Var is the contract between the model core and a random-variable backend.
type Var = capture.Var

// Register records v with the currently active capture context. Backends
// call this from their constructors; registration is a side effect of
// construction, never an explicit user step. It reports whether a context
// consumed the variable.
func Register(v Var) bool { return capture.Register(v) }

// Active reports whether a capture context is currently active. Backends
// that treat construction outside a model as an error check this.
func Active() bool { return capture.Active() }

// Option configures a variable at construction.
type Option func(*Settings)

// Settings holds the construction options common to all variables.
type Settings struct {
	Name string
	Rand *rand.Rand
}

// Name sets the variable's name. The auto-name transform injects this
// option with the identifier the variable is assigned to.
func Name(name string) Option {
	return func(s *Settings) { s.Name = name }
}

// WithRand sets the random source used for sampling, for reproducible
// forward runs.
func WithRand(r *rand.Rand) Option {
	return func(s *Settings) { s.Rand = r }
}

// Apply folds opts into a Settings value.
func Apply(opts []Option) Settings {
	var s Settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s Settings) randNorm() float64 {
	if s.Rand != nil {
		return s.Rand.NormFloat64()
	}
	return rand.NormFloat64()
}

func (s Settings) rand01() float64 {
	if s.Rand != nil {
		return s.Rand.Float64()
	}
	return rand.Float64()
}
