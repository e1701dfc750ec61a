package model_test

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/probkit/probkit/pkg/model"
	"github.com/probkit/probkit/pkg/rv"
)

const logSqrtTwoPi = 0.9189385332046727

func stdNormalLogProb(x float64) float64 { return -logSqrtTwoPi - 0.5*x*x }

func pairModel() {
	a := rv.Normal(0, 1, rv.Name("a"))
	b := rv.Normal(0, 1, rv.Name("b"))
	_, _ = a, b
}

func tripleModel() {
	rv.Normal(0, 1, rv.Name("a"))
	rv.Normal(0, 1, rv.Name("b"))
	rv.Normal(0, 1, rv.Name("c"))
}

func chainModel(n int) {
	for i := 0; i < n; i++ {
		rv.Normal(0, 1, rv.Name(fmt.Sprintf("step_%d", i)))
	}
}

var evaluations int

func countingModel() {
	evaluations++
	rv.Normal(0, 1, rv.Name("x"))
}

func failingModel() error {
	rv.Normal(0, 1, rv.Name("x"))
	return errors.New("bad model")
}

func TestConfigureCapturesInOrder(t *testing.T) {
	tpl, err := model.Define(tripleModel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		m, err := tpl.Configure()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := m.Vars()
		if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
			t.Fatalf("run %d captured %v, want [a b c]", i, got)
		}
	}
}

func TestConfigureDataDependentStructure(t *testing.T) {
	tpl := model.MustDefine(chainModel)

	short, err := tpl.Configure(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	long, err := tpl.Configure(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(short.Vars()); got != 2 {
		t.Errorf("short model captured %d vars, want 2", got)
	}
	if got := len(long.Vars()); got != 4 {
		t.Errorf("long model captured %d vars, want 4", got)
	}
	if got := short.Vars()[0]; got != "step_0" {
		t.Errorf("first var = %q, want step_0", got)
	}
}

func TestForwardSampleReadsWithoutReexecution(t *testing.T) {
	evaluations = 0
	m, err := model.MustDefine(countingModel).Configure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evaluations != 1 {
		t.Fatalf("configure ran the template %d times, want 1", evaluations)
	}

	first := m.ForwardSample()
	second := m.ForwardSample()
	if evaluations != 1 {
		t.Errorf("forward sampling re-ran the template (%d evaluations)", evaluations)
	}
	if first["x"] != second["x"] {
		t.Errorf("repeated reads differ: %v vs %v", first["x"], second["x"])
	}
	if _, ok := first["x"]; !ok {
		t.Errorf("sample map %v missing x", first)
	}
}

func TestLogProbSumsBoundVariables(t *testing.T) {
	m, err := model.MustDefine(pairModel).Configure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logProb := m.LogProbFunc()
	got, err := logProb(2.0, 5.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := stdNormalLogProb(2.0) + stdNormalLogProb(5.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("log prob = %v, want %v", got, want)
	}

	// Each call opens a fresh context; repeated calls are independent.
	again, err := logProb(2.0, 5.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != got {
		t.Errorf("repeated call = %v, want %v", again, got)
	}
}

func TestLogProbMismatchedTuple(t *testing.T) {
	m, err := model.MustDefine(pairModel).Configure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = m.LogProbFunc()(1.0, 2.0, 3.0)
	if !errors.Is(err, model.ErrContextMismatch) {
		t.Fatalf("error = %v, want ErrContextMismatch", err)
	}
}

func TestObserveCopyOnWrite(t *testing.T) {
	base, err := model.MustDefine(pairModel).Configure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	observed := base.Observe(map[string]float64{"a": 1.0})
	if observed == base {
		t.Fatal("observe returned the receiver")
	}
	if len(base.Observations()) != 0 {
		t.Errorf("base observations mutated: %v", base.Observations())
	}
	if got := observed.Observations(); got["a"] != 1.0 {
		t.Errorf("observed map = %v, want a=1", got)
	}
	if observed.ID() == base.ID() {
		t.Error("derived model shares the base model's ID")
	}

	// Branching twice from the same base keeps the branches independent.
	other := base.Observe(map[string]float64{"b": 2.0})
	if _, ok := other.Observations()["a"]; ok {
		t.Errorf("sibling branch sees unrelated observation: %v", other.Observations())
	}
}

func TestConfigurePropagatesModelError(t *testing.T) {
	_, err := model.MustDefine(failingModel).Configure()
	if err == nil || !strings.Contains(err.Error(), "bad model") {
		t.Fatalf("error = %v, want wrapped model error", err)
	}
}

func TestConfigureArityMismatch(t *testing.T) {
	_, err := model.MustDefine(chainModel).Configure()
	if err == nil {
		t.Fatal("missing argument accepted")
	}
	_, err = model.MustDefine(chainModel).Configure(1, 2)
	if err == nil {
		t.Fatal("extra argument accepted")
	}
}

func TestDefineRejectsNonFunc(t *testing.T) {
	if _, err := model.Define(42); err == nil {
		t.Fatal("non-function accepted")
	}
	if _, err := model.Define(nil); err == nil {
		t.Fatal("nil accepted")
	}
}
