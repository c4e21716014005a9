package pitch

// Correlator computes lag products for the period search.
type Correlator interface {
	// Correlate stores sum(x[i]*x[i+p]) over i in [0, len(x)-p) into
	// dst[p-minLag] for every p in [minLag, maxLag].
	Correlate(dst, x []float64, minLag, maxLag int)
}

// Direct evaluates every lag in the time domain. It does not allocate and is
// safe to call from an audio callback.
type Direct struct{}

// Correlate implements Correlator.
func (Direct) Correlate(dst, x []float64, minLag, maxLag int) {
	n := len(x)
	for p := minLag; p <= maxLag; p++ {
		sum := 0.0
		head := x[:n-p]
		tail := x[p:]
		for i, v := range head {
			sum += v * tail[i]
		}
		dst[p-minLag] = sum
	}
}
