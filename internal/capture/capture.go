// Package capture implements the dynamically scoped context stack that
// intercepts random-variable construction during model evaluation.
//
// A model function never sees the context it runs under: variable
// constructors call Register, which routes the new variable to the top
// frame of the stack. Forward contexts record variables in construction
// order; Inference contexts additionally rebind named variables to
// externally supplied values before any log-probability is read.
package capture

import (
	"errors"
	"fmt"
	"sync"
)

// ErrContextMismatch reports an inference context whose expected variable
// names and provided values disagree in length.
var ErrContextMismatch = errors.New("expected variables and provided values mismatch")

// Var is the contract a random-variable backend must satisfy. The core
// consumes variables, it never creates them: construction happens in the
// backend, registration is a side effect of construction.
type Var interface {
	// Name identifies the variable. Inference binding matches on it.
	Name() string

	// Value returns the realized value.
	Value() float64

	// LogProb returns the log-probability at the current realized value,
	// already reduced to a scalar by the backend.
	LogProb() float64

	// SetValue forces the realized value, discarding whatever was sampled.
	SetValue(v float64)
}

// Context is one frame of the capture stack.
type Context interface {
	// Register records a newly constructed variable with this frame.
	Register(v Var)

	// Vars returns the captured variables in construction order.
	Vars() []Var
}

// Stack is a LIFO of capture contexts. Structural operations are
// mutex-guarded, but evaluation of a single model is assumed to run on one
// goroutine at a time; the mutex does not make concurrent evaluations of
// the same stack meaningful.
type Stack struct {
	mu     sync.Mutex
	frames []Context
}

// Push makes ctx the current frame.
func (s *Stack) Push(ctx Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, ctx)
}

// Pop removes the current frame, restoring the previous one. Popping an
// empty stack is a programming error and panics.
func (s *Stack) Pop() Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		panic("capture: pop of empty context stack")
	}
	top := s.frames[len(s.frames)-1]
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
	return top
}

// Current returns the top frame, or false if no context is active.
func (s *Stack) Current() (Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil, false
	}
	return s.frames[len(s.frames)-1], true
}

// Active reports whether any context is on the stack.
func (s *Stack) Active() bool {
	_, ok := s.Current()
	return ok
}

// Depth returns the number of frames on the stack.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// With runs fn with ctx pushed as the current frame. The frame is popped on
// every exit path, including a panic inside fn, so nested evaluations can
// never leak captures into an outer frame.
func (s *Stack) With(ctx Context, fn func() error) error {
	s.Push(ctx)
	defer s.Pop()
	return fn()
}

// Register records v with the current frame, if any. Construction outside
// any context is the backend's concern; the stack just reports whether a
// frame consumed the variable.
func (s *Stack) Register(v Var) bool {
	ctx, ok := s.Current()
	if !ok {
		return false
	}
	ctx.Register(v)
	return true
}

// defaultStack is the process-wide stack used by ambient registration.
var defaultStack = &Stack{}

// Default returns the process-wide stack.
func Default() *Stack { return defaultStack }

// With runs fn with ctx pushed on the process-wide stack.
func With(ctx Context, fn func() error) error { return defaultStack.With(ctx, fn) }

// Register records v with the current frame of the process-wide stack.
func Register(v Var) bool { return defaultStack.Register(v) }

// Current returns the top frame of the process-wide stack.
func Current() (Context, bool) { return defaultStack.Current() }

// Active reports whether the process-wide stack has a current frame.
func Active() bool { return defaultStack.Active() }

// Forward records every registered variable in construction order and lets
// values stand as sampled. The order is deterministic for fixed control
// flow, and inference relies on it: the capture order of a configured model
// defines the positional layout of a log-prob argument tuple.
type Forward struct {
	vars []Var
}

// NewForward returns an empty forward context.
func NewForward() *Forward { return &Forward{} }

func (f *Forward) Register(v Var) {
	f.vars = append(f.vars, v)
}

func (f *Forward) Vars() []Var { return f.vars }

// Names returns the captured variable names in construction order.
func (f *Forward) Names() []string {
	names := make([]string, len(f.vars))
	for i, v := range f.vars {
		names[i] = v.Name()
	}
	return names
}

// Inference rebinds registered variables to provided values by name.
// Matching is lenient: a variable whose name is not in the expected list is
// captured unbound rather than rejected, so models with data-dependent
// control flow may construct variables the original forward run never saw.
type Inference struct {
	expected []string
	values   []float64
	vars     []Var
}

// NewInference builds an inference context binding each name in expected to
// the value at the same position. The two slices must correspond; a length
// mismatch fails immediately with ErrContextMismatch rather than producing
// silently wrong bindings downstream.
func NewInference(expected []string, values []float64) (*Inference, error) {
	if len(expected) != len(values) {
		return nil, fmt.Errorf("%w: %d expected variables, %d provided values",
			ErrContextMismatch, len(expected), len(values))
	}
	return &Inference{expected: expected, values: values}, nil
}

func (c *Inference) Register(v Var) {
	for i, name := range c.expected {
		if name == v.Name() {
			v.SetValue(c.values[i])
			break
		}
	}
	c.vars = append(c.vars, v)
}

func (c *Inference) Vars() []Var { return c.vars }

// LogProb sums the log-probabilities of every captured variable.
func (c *Inference) LogProb() float64 {
	var sum float64
	for _, v := range c.vars {
		sum += v.LogProb()
	}
	return sum
}
