package forecast

import "math"

// normalQuantile returns the z-value for probability p using the
// Abramowitz-Stegun rational approximation.
func normalQuantile(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	if p < 0.5 {
		return -normalQuantile(1 - p)
	}

	t := math.Sqrt(-2 * math.Log(1-p))
	c0, c1, c2 := 2.515517, 0.802853, 0.010328
	d1, d2, d3 := 1.432788, 0.189269, 0.001308

	return t - (c0+c1*t+c2*t*t)/(1+d1*t+d2*t*t+d3*t*t*t)
}

// difference returns y[t] - y[t-lag].
func difference(y []float64, lag int) []float64 {
	if len(y) <= lag {
		return nil
	}
	out := make([]float64, len(y)-lag)
	for t := lag; t < len(y); t++ {
		out[t-lag] = y[t] - y[t-lag]
	}
	return out
}

// undifference inverts one lag-differencing step for values following history.
func undifference(history, diffs []float64, lag int) []float64 {
	n := len(history)
	ext := make([]float64, n+len(diffs))
	copy(ext, history)
	for i, v := range diffs {
		ext[n+i] = v
		if n+i-lag >= 0 {
			ext[n+i] += ext[n+i-lag]
		}
	}
	return ext[n:]
}

func sumSquares(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x * x
	}
	return s
}

// lagPoly returns 1 + sign*(c[0] L^step + c[1] L^(2*step) + ...) as dense
// coefficients indexed by lag.
func lagPoly(coef []float64, step int, sign float64) []float64 {
	if step < 1 || len(coef) == 0 {
		return []float64{1}
	}
	out := make([]float64, len(coef)*step+1)
	out[0] = 1
	for i, c := range coef {
		out[(i+1)*step] = sign * c
	}
	return out
}

// polyMul multiplies two lag polynomials.
func polyMul(a, b []float64) []float64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// psiWeights returns the first n coefficients of ma(L)/ar(L). Both
// polynomials carry a leading 1.
func psiWeights(ar, ma []float64, n int) []float64 {
	psi := make([]float64, n)
	for j := 0; j < n; j++ {
		v := 0.0
		switch {
		case j == 0:
			v = 1
		case j < len(ma):
			v = ma[j]
		}
		for k := 1; k < len(ar) && k <= j; k++ {
			v -= ar[k] * psi[j-k]
		}
		psi[j] = v
	}
	return psi
}
