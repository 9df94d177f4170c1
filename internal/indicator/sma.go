// Package indicator provides the rolling indicators consumed by the signal
// evaluators. Indicators own the bar-to-bar history the evaluators depend
// on; evaluators themselves stay pure reads over current indicator state.
package indicator

// SMA is a simple moving average over a fixed window. It keeps a ring buffer
// of the last period observations and a running sum, so each update is O(1)
// with no allocations.
type SMA struct {
	period int
	prices []float64
	head   int // next write position
	count  int
	sum    float64
}

// NewSMA creates an SMA with the given window length. period must be at
// least 1.
func NewSMA(period int) *SMA {
	if period < 1 {
		panic("indicator: SMA period must be at least 1")
	}
	return &SMA{
		period: period,
		prices: make([]float64, period),
	}
}

// Observe pushes one price into the window, evicting the oldest observation
// once the window is full.
func (s *SMA) Observe(price float64) {
	if s.count == s.period {
		s.sum -= s.prices[s.head] // head points at the oldest value when full
	}
	s.prices[s.head] = price
	s.sum += price
	s.head = (s.head + 1) % s.period
	if s.count < s.period {
		s.count++
	}
}

// Ready reports whether the window has filled. Value is meaningless before
// Ready returns true.
func (s *SMA) Ready() bool {
	return s.count == s.period
}

// Value returns the current average over the window.
func (s *SMA) Value() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}
