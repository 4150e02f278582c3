// Package forecast projects soil humidity forward: an ARIMA model over a
// regularly resampled series, and a linear drying trend.
package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// MinPoints is the smallest series Fit accepts.
const MinPoints = 20

// InsufficientDataError is returned when a series is too short to model.
type InsufficientDataError struct {
	Stage string
	Have  int
	Need  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data (have %d points, need %d)", e.Stage, e.Have, e.Need)
}

// Order holds the ARIMA(p,d,q) orders.
type Order struct {
	P int `mapstructure:"p" json:"p"`
	D int `mapstructure:"d" json:"d"`
	Q int `mapstructure:"q" json:"q"`
}

// Validate rejects negative or unreasonably large orders.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return fmt.Errorf("arima order (%d,%d,%d): components must be non-negative", o.P, o.D, o.Q)
	}
	if o.P > 10 || o.Q > 10 || o.D > 2 {
		return fmt.Errorf("arima order (%d,%d,%d): want p,q <= 10 and d <= 2", o.P, o.D, o.Q)
	}
	return nil
}

func (o Order) String() string { return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q) }

// Model is a fitted ARIMA model.
type Model struct {
	Order Order
	AR    []float64
	MA    []float64
	// Mean of the differenced series; always 0 when D > 0.
	Mean   float64
	Sigma2 float64

	levels    [][]float64 // series differenced 0..D times
	residuals []float64
}

// Fit estimates an ARIMA model by conditional sum of squares. AR and MA
// coefficients are kept inside (-1, 1). When D > 0 no constant is fitted.
// The optimizer's best point is used even when it did not converge.
func Fit(series []float64, order Order) (*Model, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	need := MinPoints
	if floor := order.D + order.P + order.Q + 2; floor > need {
		need = floor
	}
	if len(series) < need {
		return nil, &InsufficientDataError{Stage: "arima fit", Have: len(series), Need: need}
	}

	levels := make([][]float64, order.D+1)
	levels[0] = append([]float64(nil), series...)
	for k := 1; k <= order.D; k++ {
		levels[k] = diff(levels[k-1])
	}
	y := levels[order.D]

	m := &Model{Order: order, levels: levels}
	withMean := order.D == 0

	dim := order.P + order.Q
	if withMean {
		dim++
	}
	x0 := make([]float64, dim)
	if withMean {
		x0[dim-1] = stat.Mean(y, nil)
	}

	if dim > 0 {
		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				ar, ma, mu := unpack(x, order, withMean)
				sse, _ := css(y, ar, ma, mu)
				if math.IsNaN(sse) || math.IsInf(sse, 0) {
					return math.MaxFloat64
				}
				return sse
			},
		}
		settings := &optimize.Settings{
			MajorIterations: 5000,
			Converger:       &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 200},
		}
		result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
		if result != nil && (err == nil || result.F < problem.Func(x0)) {
			x0 = result.X
		}
	}

	m.AR, m.MA, m.Mean = unpack(x0, order, withMean)
	sse, res := css(y, m.AR, m.MA, m.Mean)
	m.residuals = res
	if n := len(y) - order.P; n > 0 {
		m.Sigma2 = sse / float64(n)
	}
	return m, nil
}

// Forecast projects steps values past the end of the fitted series, on
// the original (undifferenced) scale. Future shocks are taken as zero.
func (m *Model) Forecast(steps int) []float64 {
	if steps <= 0 {
		return []float64{}
	}
	p, q := m.Order.P, m.Order.Q
	y := append([]float64(nil), m.levels[m.Order.D]...)
	e := append([]float64(nil), m.residuals...)

	out := make([]float64, steps)
	for h := 0; h < steps; h++ {
		t := len(y)
		v := m.Mean
		for i := 1; i <= p; i++ {
			if t-i >= 0 {
				v += m.AR[i-1] * (y[t-i] - m.Mean)
			}
		}
		for j := 1; j <= q; j++ {
			if t-j >= 0 {
				v += m.MA[j-1] * e[t-j]
			}
		}
		y = append(y, v)
		e = append(e, 0)
		out[h] = v
	}

	// Integrate back one differencing level at a time.
	for k := m.Order.D - 1; k >= 0; k-- {
		prev := m.levels[k][len(m.levels[k])-1]
		for h := range out {
			prev += out[h]
			out[h] = prev
		}
	}
	return out
}

func unpack(x []float64, o Order, withMean bool) (ar, ma []float64, mu float64) {
	ar = make([]float64, o.P)
	ma = make([]float64, o.Q)
	for i := range ar {
		ar[i] = math.Tanh(x[i])
	}
	for j := range ma {
		ma[j] = math.Tanh(x[o.P+j])
	}
	if withMean {
		mu = x[o.P+o.Q]
	}
	return ar, ma, mu
}

// css returns the conditional sum of squared residuals, treating
// residuals before the first P observations as zero.
func css(y, ar, ma []float64, mu float64) (float64, []float64) {
	p := len(ar)
	e := make([]float64, len(y))
	var sse float64
	for t := p; t < len(y); t++ {
		pred := mu
		for i := 1; i <= p; i++ {
			pred += ar[i-1] * (y[t-i] - mu)
		}
		for j := 1; j <= len(ma); j++ {
			if t-j >= 0 {
				pred += ma[j-1] * e[t-j]
			}
		}
		e[t] = y[t] - pred
		sse += e[t] * e[t]
	}
	return sse, e
}

func diff(x []float64) []float64 {
	if len(x) < 2 {
		return []float64{}
	}
	out := make([]float64, len(x)-1)
	for i := range out {
		out[i] = x[i+1] - x[i]
	}
	return out
}
