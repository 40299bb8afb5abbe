package analysis

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Line is a fitted y = Slope*x + Intercept.
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Point 坐标点
type Point struct {
	X float64 `json:"x"`
	Y Float   `json:"y"`
}

// ErrTooFewPoints is returned when a fit has fewer than two usable points.
var ErrTooFewPoints = errors.New("need at least two points with distinct x")

// LinearRegression fits ordinary least squares over the pairs where both x
// and y are present.
func LinearRegression(x, y []float64) (Line, error) {
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
		return Line{}, ErrTooFewPoints
	}

	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - mx
		sxy += dx * (ys[i] - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return Line{}, ErrTooFewPoints
	}
	slope := sxy / sxx
	return Line{Slope: slope, Intercept: my - slope*mx}, nil
}

// Predict evaluates the line at x.
func (l Line) Predict(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// Forecast evaluates the line at every integer from..to inclusive.
func (l Line) Forecast(from, to int) []Point {
	if to < from {
		return nil
	}
	out := make([]Point, 0, to-from+1)
	for x := from; x <= to; x++ {
		out = append(out, Point{X: float64(x), Y: Float(l.Predict(float64(x)))})
	}
	return out
}

// YearOverYear returns values[i] - values[i-1] for i >= 1.
func YearOverYear(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}

// MovingAverage returns the trailing simple average over period values. The
// first period-1 entries are NaN.
func MovingAverage(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// YearColumn is a header of the form "<year><suffix>", e.g. "1995-07".
type YearColumn struct {
	Year   int    `json:"year"`
	Column string `json:"column"`
}

// YearColumns picks the headers ending in suffix whose leading year lies in
// [from, to], sorted by year. A zero bound is open.
func YearColumns(columns []string, suffix string, from, to int) []YearColumn {
	var out []YearColumn
	for _, col := range columns {
		if !strings.HasSuffix(col, suffix) {
			continue
		}
		head := strings.TrimSuffix(col, suffix)
		if i := strings.Index(head, "-"); i >= 0 {
			head = head[:i]
		}
		year, err := strconv.Atoi(head)
		if err != nil {
			continue
		}
		if from != 0 && year < from {
			continue
		}
		if to != 0 && year > to {
			continue
		}
		out = append(out, YearColumn{Year: year, Column: col})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
