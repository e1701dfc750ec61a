package rv

import "math"

const logSqrtTwoPi = 0.5 * 1.8378770664093453 // 0.5*log(2*pi)

// Gaussian is a normally distributed reference variable. It samples once at
// construction; SetValue rebinds the realized value and LogProb is always
// evaluated at the current value.
type Gaussian struct {
	name      string
	mu, sigma float64
	value     float64
}

// Normal constructs a Gaussian variable, samples it, and registers it with
// the active capture context.
func Normal(mu, sigma float64, opts ...Option) *Gaussian {
	s := Apply(opts)
	g := &Gaussian{
		name:  s.Name,
		mu:    mu,
		sigma: sigma,
		value: mu + sigma*s.randNorm(),
	}
	Register(g)
	return g
}

func (g *Gaussian) Name() string   { return g.name }
func (g *Gaussian) Value() float64 { return g.value }

func (g *Gaussian) SetValue(v float64) { g.value = v }

func (g *Gaussian) LogProb() float64 {
	z := (g.value - g.mu) / g.sigma
	return -logSqrtTwoPi - math.Log(g.sigma) - 0.5*z*z
}

// Flat is a uniformly distributed reference variable on [lo, hi).
type Flat struct {
	name   string
	lo, hi float64
	value  float64
}

// Uniform constructs a Flat variable, samples it, and registers it with the
// active capture context.
func Uniform(lo, hi float64, opts ...Option) *Flat {
	s := Apply(opts)
	f := &Flat{
		name:  s.Name,
		lo:    lo,
		hi:    hi,
		value: lo + (hi-lo)*s.rand01(),
	}
	Register(f)
	return f
}

func (f *Flat) Name() string   { return f.name }
func (f *Flat) Value() float64 { return f.value }

func (f *Flat) SetValue(v float64) { f.value = v }

func (f *Flat) LogProb() float64 {
	if f.value < f.lo || f.value >= f.hi {
		return math.Inf(-1)
	}
	return -math.Log(f.hi - f.lo)
}
