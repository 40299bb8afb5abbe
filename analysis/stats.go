// Package analysis holds the descriptive statistics behind the overview pages.
package analysis

import (
	"encoding/json"
	"math"
	"sort"
)

// Float is a float64 that encodes NaN and ±Inf as JSON null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Box 箱线图统计
type Box struct {
	Count  int   `json:"count"`
	Min    Float `json:"min"`
	Q1     Float `json:"q1"`
	Median Float `json:"median"`
	Q3     Float `json:"q3"`
	Max    Float `json:"max"`
	Mean   Float `json:"mean"`
}

// BoxStats summarises values, ignoring NaN. Quantiles interpolate linearly
// between closest ranks.
func BoxStats(values []float64) Box {
	clean := dropNaN(values)
	if len(clean) == 0 {
		nan := Float(math.NaN())
		return Box{Min: nan, Q1: nan, Median: nan, Q3: nan, Max: nan, Mean: nan}
	}
	sort.Float64s(clean)
	return Box{
		Count:  len(clean),
		Min:    Float(clean[0]),
		Q1:     Float(quantile(clean, 0.25)),
		Median: Float(quantile(clean, 0.5)),
		Q3:     Float(quantile(clean, 0.75)),
		Max:    Float(clean[len(clean)-1]),
		Mean:   Float(Mean(clean)),
	}
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Mean returns the mean of the non-NaN values, or NaN if there are none.
func Mean(values []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Pearson returns the correlation of x and y over the positions where both
// are present. It is NaN with fewer than two pairs or zero variance.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	var xs, ys []float64
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}

	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r))
}

// Matrix 相关系数矩阵
type Matrix struct {
	Columns []string  `json:"columns"`
	Values  [][]Float `json:"values"`
}

// CorrelationMatrix computes pairwise Pearson correlations. columns[i] names
// series[i].
func CorrelationMatrix(columns []string, series [][]float64) Matrix {
	n := len(columns)
	values := make([][]Float, n)
	for i := range values {
		values[i] = make([]Float, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := Pearson(series[i], series[j])
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			values[i][j] = Float(r)
			values[j][i] = Float(r)
		}
	}
	out := make([]string, n)
	copy(out, columns)
	return Matrix{Columns: out, Values: values}
}

// At returns the correlation between two named columns.
func (m Matrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return float64(m.Values[i][j]), true
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
