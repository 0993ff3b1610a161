package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/vessim/internal/storage"
)

type Point struct{ X, Y float64 }

// Projection2D is a trajectory projected on a coordinate plane.
type Projection2D struct {
	Plane  string
	Points []Point
}

func axisIndex(c byte) (int, bool) {
	switch c {
	case 'x':
		return 0, true
	case 'y':
		return 1, true
	case 'z':
		return 2, true
	}
	return 0, false
}

// Project drops one coordinate of every position. plane is two of x, y, z,
// e.g. "xy" or "xz".
func Project(samples []storage.Sample, plane string) (*Projection2D, error) {
	if len(plane) != 2 || plane[0] == plane[1] {
		return nil, fmt.Errorf("invalid plane %q", plane)
	}
	xi, ok1 := axisIndex(plane[0])
	yi, ok2 := axisIndex(plane[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("invalid plane %q", plane)
	}

	p := &Projection2D{Plane: plane, Points: make([]Point, 0, len(samples))}
	for _, s := range samples {
		p.Points = append(p.Points, Point{X: s.Position[xi], Y: s.Position[yi]})
	}
	return p, nil
}

// Bounds returns the extent of the points padded by a tenth on every side.
func Bounds(points []Point) (minX, maxX, minY, maxY float64) {
	minX, maxX = points[0].X, points[0].X
	minY, maxY = points[0].Y, points[0].Y

	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return minX - rangeX*0.1, maxX + rangeX*0.1, minY - rangeY*0.1, maxY + rangeY*0.1
}

// ProjectionToASCII draws the projection with the origin axes when visible.
func ProjectionToASCII(p *Projection2D, width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := Bounds(p.Points)
	rangeX := maxX - minX
	rangeY := maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	// axes first so the trajectory draws over them
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == '│' {
				canvas[row][col] = '┼'
			} else {
				canvas[row][col] = '─'
			}
		}
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Crossings returns the interpolated times at which coordinate axis (0..2)
// rises through threshold.
func Crossings(samples []storage.Sample, axis int, threshold float64) []float64 {
	if axis < 0 || axis > 2 {
		return nil
	}
	var out []float64
	for i := 1; i < len(samples); i++ {
		prev := samples[i-1].Position[axis]
		cur := samples[i].Position[axis]
		if prev < threshold && cur >= threshold {
			frac := (threshold - prev) / (cur - prev)
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 0.5
			}
			t0, t1 := samples[i-1].Time, samples[i].Time
			out = append(out, t0+frac*(t1-t0))
		}
	}
	return out
}
