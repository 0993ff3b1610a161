package variable

import (
	"math"
	"sort"
	"strings"
)

// Interpolation selects the kernel used between tabulated samples.
type Interpolation int

const (
	Linear Interpolation = iota
	// Polynomial fits a local cubic through the four nearest samples.
	Polynomial
)

func (k Interpolation) String() string {
	if k == Polynomial {
		return "polynomial"
	}
	return "linear"
}

func ParseInterpolation(s string) (Interpolation, bool) {
	switch strings.ToLower(s) {
	case "linear":
		return Linear, true
	case "polynomial", "cubic":
		return Polynomial, true
	}
	return Linear, false
}

// Sample is one tabulated point.
type Sample struct {
	X, V float64
}

// Curve is a 1D table at a fixed y.
type Curve struct {
	Y       float64
	Samples []Sample
}

// Surface is a 2D table at a fixed z.
type Surface struct {
	Z      float64
	Curves []Curve
}

// Table is the payload of a function Variable: a constant and up to three
// axes of samples. Repeating an abscissa encodes a discontinuity; a query
// exactly at the jump returns the value after it. Queries outside the table
// clamp to the nearest end.
type Table struct {
	Constant      float64
	Interpolation Interpolation
	Data1D        []Sample
	Data2D        []Curve
	Data3D        []Surface
}

// Dimensions is the number of axes carrying samples.
func (f *Table) Dimensions() int {
	switch {
	case len(f.Data3D) > 0:
		return 3
	case len(f.Data2D) > 0:
		return 2
	case len(f.Data1D) > 0:
		return 1
	}
	return 0
}

func (f Table) clone() Table {
	out := f
	out.Data1D = append([]Sample(nil), f.Data1D...)
	out.Data2D = cloneCurves(f.Data2D)
	out.Data3D = make([]Surface, len(f.Data3D))
	for i, s := range f.Data3D {
		out.Data3D[i] = Surface{Z: s.Z, Curves: cloneCurves(s.Curves)}
	}
	if f.Data3D == nil {
		out.Data3D = nil
	}
	return out
}

func cloneCurves(cs []Curve) []Curve {
	if cs == nil {
		return nil
	}
	out := make([]Curve, len(cs))
	for i, c := range cs {
		out[i] = Curve{Y: c.Y, Samples: append([]Sample(nil), c.Samples...)}
	}
	return out
}

func sortSamples(s []Sample) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].X < s[j].X })
}

func sortCurves(cs []Curve) {
	for _, c := range cs {
		sortSamples(c.Samples)
	}
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Y < cs[j].Y })
}

func (f *Table) sort() {
	sortSamples(f.Data1D)
	sortCurves(f.Data2D)
	for _, s := range f.Data3D {
		sortCurves(s.Curves)
	}
	sort.SliceStable(f.Data3D, func(i, j int) bool { return f.Data3D[i].Z < f.Data3D[j].Z })
}

func (f *Table) value(x, y, z float64, k Interpolation) float64 {
	switch f.Dimensions() {
	case 3:
		keys := make([]float64, len(f.Data3D))
		vals := make([]float64, len(f.Data3D))
		for i, s := range f.Data3D {
			keys[i] = s.Z
			vals[i] = curvesAt(s.Curves, x, y, k)
		}
		return interpolate(keys, vals, z, k)
	case 2:
		return curvesAt(f.Data2D, x, y, k)
	case 1:
		return samplesAt(f.Data1D, x, k)
	}
	return f.Constant
}

func curvesAt(cs []Curve, x, y float64, k Interpolation) float64 {
	keys := make([]float64, len(cs))
	vals := make([]float64, len(cs))
	for i, c := range cs {
		keys[i] = c.Y
		vals[i] = samplesAt(c.Samples, x, k)
	}
	return interpolate(keys, vals, y, k)
}

func samplesAt(s []Sample, x float64, k Interpolation) float64 {
	keys := make([]float64, len(s))
	vals := make([]float64, len(s))
	for i, p := range s {
		keys[i], vals[i] = p.X, p.V
	}
	return interpolate(keys, vals, x, k)
}

// interpolate evaluates sorted (xs, vs) at x.
func interpolate(xs, vs []float64, x float64, k Interpolation) float64 {
	n := len(xs)
	switch {
	case n == 0:
		return 0
	case math.IsNaN(x):
		return math.NaN()
	case x < xs[0]:
		return vs[0]
	case x >= xs[n-1]:
		return vs[n-1]
	}
	// First sample strictly right of x; duplicates before it act as a jump.
	i := sort.Search(n, func(i int) bool { return xs[i] > x })
	if k == Polynomial {
		if v, ok := lagrange(xs, vs, i, x); ok {
			return v
		}
	}
	x0, x1 := xs[i-1], xs[i]
	if x1 == x0 {
		return vs[i]
	}
	t := (x - x0) / (x1 - x0)
	return vs[i-1] + t*(vs[i]-vs[i-1])
}

// lagrange fits through up to four samples around segment [i-1, i]. It gives
// up when the window straddles a discontinuity.
func lagrange(xs, vs []float64, i int, x float64) (float64, bool) {
	n := len(xs)
	if n < 3 {
		return 0, false
	}
	w := 4
	if n < w {
		w = n
	}
	lo := i - w/2
	if lo < 0 {
		lo = 0
	}
	if lo+w > n {
		lo = n - w
	}
	for j := lo + 1; j < lo+w; j++ {
		if xs[j] == xs[j-1] {
			return 0, false
		}
	}
	var sum float64
	for j := lo; j < lo+w; j++ {
		term := vs[j]
		for m := lo; m < lo+w; m++ {
			if m != j {
				term *= (x - xs[m]) / (xs[j] - xs[m])
			}
		}
		sum += term
	}
	return sum, true
}
