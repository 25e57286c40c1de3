package random

// Fixed replays a scripted list of Float64 values, cycling when exhausted.
// Tests use it to force coin flips.
type Fixed struct {
	Values []float64
	next   int
}

var _ Source = (*Fixed)(nil)

func NewFixed(values ...float64) *Fixed {
	return &Fixed{Values: values}
}

func (f *Fixed) Float64() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.next%len(f.Values)]
	f.next++
	return v
}

func (f *Fixed) IntN(n int) int {
	i := int(f.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Draws reports how many values have been consumed.
func (f *Fixed) Draws() int { return f.next }
