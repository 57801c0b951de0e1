package stat

import "strings"

// Accumulator is the *minimal* contract each online statistic must fulfil.
// The interface is tiny on purpose so the chain engine and serializers
// can depend on it without pulling in estimator-specific APIs.
type Accumulator interface {
	Name() string        // canonical name e.g. "Mean", "Variance"
	Fit(x float64) error // absorb one sample
	Value() float64      // current reduction; purely functional w.r.t. state
	N() uint64           // number of samples absorbed so far
}

// VectorAccumulator is an optional extension for accumulators that accept
// an ordered sample vector in one call (fan-in targets). The engine falls
// back to element-wise Fit when a target does not implement it.
type VectorAccumulator interface {
	Accumulator
	FitVector(xs []float64) error
}

// Factory returns a fresh accumulator by many common aliases.
//
//	s, _ := stat.Factory("var")  // -> same as NewVariance()
func Factory(name string) (Accumulator, error) {
	switch norm(name) {
	case "mean", "avg", "average":
		return NewMean(), nil
	case "variance", "var":
		return NewVariance(), nil
	case "sum":
		return NewSum(), nil
	case "min":
		return NewMin(), nil
	case "max":
		return NewMax(), nil
	case "extrema", "range":
		return NewExtrema(), nil
	case "count", "counter", "n":
		return NewCounter(), nil
	case "ewma":
		return NewEWMA(DefaultEWMAAlpha), nil
	case "median", "p50":
		return NewQuantile(0.5), nil
	case "p90":
		return NewQuantile(0.9), nil
	case "p99":
		return NewQuantile(0.99), nil
	}
	return nil, ErrUnknownStat{name}
}

// ErrUnknownStat is returned by Factory when the label isn't recognised.
type ErrUnknownStat struct{ Name string }

func (e ErrUnknownStat) Error() string { return "stat: unknown accumulator " + e.Name }

// helpers --------------------------------------------------------------

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
