// Package model turns an ordinary function that constructs random
// variables into a reusable probabilistic model object supporting forward
// simulation and log-probability evaluation.
//
// A function becomes a Template via Define, optionally routed through the
// auto-name rewrite so each variable carries the identifier it is assigned
// to. Configuring a template evaluates it once under a forward capture
// context, discovering its variable structure; the resulting Model can
// read forward samples, derive observed variants, and produce a log-prob
// function for external inference drivers.
package model

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/traefik/yaegi/interp"

	"github.com/probkit/probkit/internal/capture"
	"github.com/probkit/probkit/internal/rewrite"
)

// ErrContextMismatch reports a log-prob call whose value tuple does not
// match the model's captured variables in length.
var ErrContextMismatch = capture.ErrContextMismatch

// Decoration-time failures of the auto-name rewrite, re-exported so
// callers need not import the pipeline package.
var (
	ErrUnsupported = rewrite.ErrUnsupported
	ErrNoSource    = rewrite.ErrNoSource
	ErrMalformed   = rewrite.ErrMalformed
)

var errNotFunc = errors.New("model: not a function")

// Option configures Define.
type Option func(*defineOptions)

type defineOptions struct {
	autoName  bool
	qualifier string
	symbols   []interp.Exports
}

// AutoName runs the source rewrite pipeline on the function before
// wrapping it, so every variable assigned to a plain identifier receives
// that identifier as its name. The symbol tables resolve the rewritten
// function's package references in the interpreter (e.g. rv.Symbols).
func AutoName(syms ...interp.Exports) Option {
	return func(o *defineOptions) {
		o.autoName = true
		o.symbols = syms
	}
}

// NameQualifier overrides the package qualifier of the injected name
// option when the model function imports its variable backend under a
// different name.
func NameQualifier(q string) Option {
	return func(o *defineOptions) { o.qualifier = q }
}

// Template is an inert, reusable wrapper around a model function. It is
// immutable after Define; configuration never mutates it.
type Template struct {
	fn        reflect.Value
	autoNamed bool
}

// Define wraps a model function as a Template. fn must be a function; with
// AutoName it must additionally be a plain top-level function whose source
// is available, or Define fails at decoration time with the pipeline's
// error.
func Define(fn any, opts ...Option) (*Template, error) {
	var o defineOptions
	for _, opt := range opts {
		opt(&o)
	}

	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T", errNotFunc, fn)
	}

	if o.autoName {
		rewritten, err := rewrite.Rewrite(fn, &rewrite.AutoName{Qual: o.qualifier}, o.symbols...)
		if err != nil {
			return nil, fmt.Errorf("auto-naming: %w", err)
		}
		v = rewritten
	}
	return &Template{fn: v, autoNamed: o.autoName}, nil
}

// MustDefine is Define for package-level templates; it panics on error.
func MustDefine(fn any, opts ...Option) *Template {
	t, err := Define(fn, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// AutoNamed reports whether the rewrite pipeline was applied.
func (t *Template) AutoNamed() bool { return t.autoNamed }

// Configure evaluates the template function once with args under a fresh
// forward capture context and returns the resulting Model. This is the
// only point where a template's variable structure is discovered, and the
// structure may legitimately differ between calls with different
// arguments, so the Model keeps its own context snapshot.
func (t *Template) Configure(args ...any) (*Model, error) {
	fwd := capture.NewForward()
	m := &Model{
		template:     t,
		args:         args,
		forward:      fwd,
		observations: map[string]float64{},
		id:           uuid.New(),
	}
	if err := capture.With(fwd, m.evaluate); err != nil {
		return nil, fmt.Errorf("configuring model: %w", err)
	}
	return m, nil
}

// Model is one configured instantiation of a Template: the template, the
// arguments it was configured with, the forward context populated during
// configuration, and an observation map.
type Model struct {
	template     *Template
	args         []any
	forward      *capture.Forward
	observations map[string]float64
	id           uuid.UUID
}

// ID identifies this model branch, e.g. as a trace-store key. Observe
// derivatives get fresh IDs.
func (m *Model) ID() uuid.UUID { return m.id }

// evaluate calls the template function with the configured arguments under
// whatever capture context is current. A trailing error result is
// propagated; other results are discarded, since the model's output is the
// set of variables it registers.
func (m *Model) evaluate() error {
	ft := m.template.fn.Type()
	if ft.IsVariadic() {
		if len(m.args) < ft.NumIn()-1 {
			return fmt.Errorf("model takes at least %d arguments, got %d", ft.NumIn()-1, len(m.args))
		}
	} else if len(m.args) != ft.NumIn() {
		return fmt.Errorf("model takes %d arguments, got %d", ft.NumIn(), len(m.args))
	}

	in := make([]reflect.Value, len(m.args))
	for i, arg := range m.args {
		want := ft.In(min(i, ft.NumIn()-1))
		if ft.IsVariadic() && i >= ft.NumIn()-1 {
			want = want.Elem()
		}
		if arg == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(want) {
			if !v.Type().ConvertibleTo(want) {
				return fmt.Errorf("argument %d: cannot use %s as %s", i, v.Type(), want)
			}
			v = v.Convert(want)
		}
		in[i] = v
	}

	out := m.template.fn.Call(in)
	if n := len(out); n > 0 {
		if err, ok := out[n-1].Interface().(error); ok && err != nil {
			return err
		}
	}
	return nil
}

// ForwardSample reads the realized value of every variable captured at
// Configure time into a name-to-value map. It never re-executes the
// template; fresh samples come from configuring the template again.
func (m *Model) ForwardSample() map[string]float64 {
	vars := m.forward.Vars()
	samples := make(map[string]float64, len(vars))
	for _, v := range vars {
		samples[v.Name()] = v.Value()
	}
	return samples
}

// LogProbFunc returns the integration point for external inference
// routines: a function taking a value for each captured variable, in
// capture order, and returning the summed log-probability of the model at
// those values.
//
// Each call is self-contained: it opens a fresh inference context binding
// the forward capture order to the provided values, re-evaluates the
// template (re-running all control flow), and sums the captured variables'
// log-probabilities. A tuple of the wrong length fails eagerly with
// ErrContextMismatch.
func (m *Model) LogProbFunc() func(values ...float64) (float64, error) {
	expected := m.forward.Names()
	return func(values ...float64) (float64, error) {
		inf, err := capture.NewInference(expected, values)
		if err != nil {
			return 0, err
		}
		if err := capture.With(inf, m.evaluate); err != nil {
			return 0, fmt.Errorf("evaluating model: %w", err)
		}
		return inf.LogProb(), nil
	}
}

// Observe derives a conditioned variant: a new Model sharing this one's
// template, arguments, and forward context, with an independent
// observation map extended by obs. The receiver is never mutated, so one
// base model can branch into several conditioned variants.
//
// Observations are state for external inference drivers to consult; the
// core does not enforce them during log-prob evaluation.
func (m *Model) Observe(obs map[string]float64) *Model {
	derived := *m
	derived.id = uuid.New()
	derived.observations = make(map[string]float64, len(m.observations)+len(obs))
	for name, value := range m.observations {
		derived.observations[name] = value
	}
	for name, value := range obs {
		derived.observations[name] = value
	}
	return &derived
}

// Observations returns a copy of the observation map.
func (m *Model) Observations() map[string]float64 {
	obs := make(map[string]float64, len(m.observations))
	for name, value := range m.observations {
		obs[name] = value
	}
	return obs
}

// Vars returns the names of the captured variables in construction order,
// which is also the positional order LogProbFunc expects.
func (m *Model) Vars() []string { return m.forward.Names() }
