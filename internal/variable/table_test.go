package variable

import (
	"math"
	"testing"
)

func TestConstantFunction(t *testing.T) {
	v := New("density", Function)
	v.SetReal(1.429)
	got, err := v.Evaluate(123, 0, 0)
	if err != nil || got != 1.429 {
		t.Errorf("Evaluate = %g, %v", got, err)
	}
}

func TestLinear1D(t *testing.T) {
	v := New("cp", Function)
	v.SetTable(Table{Data1D: []Sample{{300, 2}, {100, 0}, {200, 1}}})
	tests := []struct {
		x, want float64
	}{
		{150, 0.5},
		{250, 1.5},
		{50, 0},
		{1000, 2},
		{200, 1},
	}
	for _, tt := range tests {
		got, _ := v.Evaluate(tt.x, 0, 0)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("f(%g) = %g, want %g", tt.x, got, tt.want)
		}
	}
}

func TestNaNQuery(t *testing.T) {
	line := New("cp", Function)
	line.SetTable(Table{Data1D: []Sample{{0, 0}, {1, 1}, {2, 4}}})
	grid := New("grid", Function)
	grid.SetTable(Table{Data2D: []Curve{
		{Y: 0, Samples: []Sample{{0, 0}, {1, 1}}},
		{Y: 1, Samples: []Sample{{0, 1}, {1, 2}}},
	}})
	nan := math.NaN()
	tests := []struct {
		name string
		v    *Variable
		x, y float64
	}{
		{"1d x", line, nan, 0},
		{"2d x", grid, nan, 0.5},
		{"2d y", grid, 0.5, nan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.v.Evaluate(tt.x, tt.y, 0)
			if err != nil {
				t.Fatal(err)
			}
			if !math.IsNaN(got) {
				t.Errorf("f(%g, %g) = %g, want NaN", tt.x, tt.y, got)
			}
		})
	}
}

func TestDiscontinuity(t *testing.T) {
	v := New("density", Function)
	v.SetTable(Table{Data1D: []Sample{{80, 1200}, {90.2, 1141}, {90.2, 4.5}, {120, 3.3}}})
	tests := []struct {
		x, want float64
	}{
		{90.2, 4.5},
		{90.1999999, 1141},
		{85.1, 1170.5},
	}
	for _, tt := range tests {
		got, _ := v.Evaluate(tt.x, 0, 0)
		if math.Abs(got-tt.want) > 1e-3 {
			t.Errorf("f(%g) = %g, want %g", tt.x, got, tt.want)
		}
	}
}

func TestPolynomialReproducesCubic(t *testing.T) {
	cubic := func(x float64) float64 { return 0.5*x*x*x - x*x + 2*x - 3 }
	var s []Sample
	for x := -3.0; x <= 3; x++ {
		s = append(s, Sample{x, cubic(x)})
	}
	v := New("f", Function)
	v.SetTable(Table{Interpolation: Polynomial, Data1D: s})
	for _, x := range []float64{-2.5, -0.3, 0.75, 2.2} {
		got, _ := v.Evaluate(x, 0, 0)
		if math.Abs(got-cubic(x)) > 1e-9 {
			t.Errorf("poly(%g) = %g, want %g", x, got, cubic(x))
		}
	}

	// The same table under the linear kernel is not exact between samples.
	v.SetInterpolation(Linear)
	if got, _ := v.Evaluate(0.5, 0, 0); math.Abs(got-cubic(0.5)) < 1e-6 {
		t.Error("linear kernel unexpectedly exact")
	}
}

func TestInterpolationAttributeOverrides(t *testing.T) {
	v := New("f", Function)
	v.SetTable(Table{Data1D: []Sample{{0, 0}, {1, 1}, {2, 8}, {3, 27}}})
	a, _ := v.AddAttribute("interpolation", String)
	a.SetText("polynomial")
	got, _ := v.Evaluate(1.5, 0, 0)
	if math.Abs(got-3.375) > 1e-12 {
		t.Errorf("attribute kernel ignored: %g", got)
	}
}

func TestBilinearAndTrilinear(t *testing.T) {
	plane := func(x, y, z float64) float64 { return 2*x + 3*y - z }
	curve := func(y, z float64) Curve {
		return Curve{Y: y, Samples: []Sample{{0, plane(0, y, z)}, {1, plane(1, y, z)}, {2, plane(2, y, z)}}}
	}
	v2 := New("cd", Function)
	v2.SetTable(Table{Data2D: []Curve{curve(0, 0), curve(1, 0)}})
	if got, _ := v2.Evaluate(1.5, 0.25, 0); math.Abs(got-plane(1.5, 0.25, 0)) > 1e-12 {
		t.Errorf("2D = %g", got)
	}

	v3 := New("cd3", Function)
	v3.SetTable(Table{Data3D: []Surface{
		{Z: 0, Curves: []Curve{curve(0, 0), curve(1, 0)}},
		{Z: 2, Curves: []Curve{curve(0, 2), curve(1, 2)}},
	}})
	if got, _ := v3.Evaluate(0.5, 0.5, 1); math.Abs(got-plane(0.5, 0.5, 1)) > 1e-12 {
		t.Errorf("3D = %g", got)
	}
	tbl, _ := v3.Table()
	if tbl.Dimensions() != 3 {
		t.Errorf("dimensions = %d", tbl.Dimensions())
	}
}
