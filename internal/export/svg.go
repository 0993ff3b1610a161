// Package export renders stored trajectories for use outside the terminal.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/vessim/internal/analysis"
	"github.com/san-kum/vessim/internal/storage"
)

// Palette cycles through track colors.
var Palette = []string{"#00ffff", "#ff00ff", "#ffcc00", "#00ff88", "#ff4444", "#8888ff"}

// Path is one polyline of a plot.
type Path struct {
	Label  string
	Color  string
	Points []analysis.Point
}

// TrajectoryToSVG draws paths on a shared scale with a legend.
func TrajectoryToSVG(paths []Path, width, height int) string {
	var all []analysis.Point
	for _, p := range paths {
		if len(p.Points) >= 2 {
			all = append(all, p.Points...)
		}
	}
	if len(all) == 0 {
		return ""
	}

	minX, maxX, minY, maxY := analysis.Bounds(all)
	rangeX := maxX - minX
	rangeY := maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	legend := 0
	for _, p := range paths {
		if len(p.Points) < 2 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, p.Color))
		for i, pt := range p.Points {
			x := (pt.X - minX) / rangeX * float64(width)
			y := float64(height) - (pt.Y-minY)/rangeY*float64(height)

			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")

		legend++
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16*legend, p.Color, escape(p.Label)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// SamplesToSVG projects every track of a run on plane ("xy", "xz", ...) and
// draws them. Tracks are ordered by name.
func SamplesToSVG(samples []storage.Sample, plane string, width, height int) (string, error) {
	byTrack := make(map[string][]storage.Sample)
	for _, s := range samples {
		byTrack[s.Track] = append(byTrack[s.Track], s)
	}
	tracks := make([]string, 0, len(byTrack))
	for t := range byTrack {
		tracks = append(tracks, t)
	}
	sort.Strings(tracks)

	paths := make([]Path, 0, len(tracks))
	for i, t := range tracks {
		proj, err := analysis.Project(byTrack[t], plane)
		if err != nil {
			return "", err
		}
		paths = append(paths, Path{Label: t, Color: Palette[i%len(Palette)], Points: proj.Points})
	}
	svg := TrajectoryToSVG(paths, width, height)
	if svg == "" {
		return "", fmt.Errorf("nothing to draw: no track has two samples")
	}
	return svg, nil
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }
