package pitch

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT computes all lag products at once through the spectrum: the inverse
// transform of |X|^2 is the autocorrelation of x. The window is zero padded
// to at least twice its length so the circular result equals the linear one.
//
// FFT allocates on every call and go-dsp spreads large transforms over
// goroutines, so it is meant for offline analysis rather than the audio
// callback.
type FFT struct{}

// Correlate implements Correlator.
func (FFT) Correlate(dst, x []float64, minLag, maxLag int) {
	size := nextPowerOfTwo(2 * len(x))

	padded := make([]float64, size)
	copy(padded, x)

	spectrum := fft.FFTReal(padded)

	// Multiply each bin by its complex conjugate
	for i, c := range spectrum {
		re, im := real(c), imag(c)
		spectrum[i] = complex(re*re+im*im, 0)
	}

	acf := fft.IFFT(spectrum)
	for p := minLag; p <= maxLag; p++ {
		dst[p-minLag] = real(acf[p])
	}
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
