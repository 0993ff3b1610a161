package viz

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/san-kum/vessim/internal/description"
	"github.com/san-kum/vessim/internal/logging"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/storage"
)

const scene = `
version: 1
objects:
  - name: earth
    type: planet
    uid: 3
    variables:
      - {name: mu, real: 3.986e14}
  - name: main
    type: propagator
    children:
      - name: sat
        type: point_mass
        variables:
          - name: bus
            nested:
              - {name: mass, real: 12}
`

func TestObjectTree(t *testing.T) {
	sys := sim.New(sim.WithLogger(logging.Discard()))
	defer sys.Close()
	if _, err := description.LoadString(sys, nil, scene, description.LoadOptions{Flags: description.BlockingInitialize}); err != nil {
		t.Fatal(err)
	}

	plain, err := ObjectTree(sys.Root(), TreeOptions{Styles: ThemeMinimal.Styles()})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"root", "earth", "[planet]", "#3", "main", "sat", "[point_mass]"} {
		if !strings.Contains(plain, want) {
			t.Errorf("tree missing %q:\n%s", want, plain)
		}
	}
	if strings.Contains(plain, "mu") {
		t.Errorf("variables listed without the option:\n%s", plain)
	}
	if strings.Index(plain, "main") > strings.Index(plain, "sat") {
		t.Error("child rendered before parent")
	}

	full, err := ObjectTree(sys.Root(), TreeOptions{Variables: true, Styles: ThemeMinimal.Styles()})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"mu = 3.986e+14", "bus", "mass = 12"} {
		if !strings.Contains(full, want) {
			t.Errorf("tree missing %q:\n%s", want, full)
		}
	}
}

func samples(n int) []storage.Sample {
	out := make([]storage.Sample, n)
	for i := range out {
		a := float64(i) / float64(n) * 2 * math.Pi
		out[i] = storage.Sample{
			Track:    "main/sat",
			Time:     float64(i) * 10,
			Position: [3]float64{3 * math.Cos(a), 4 * math.Sin(a), 0},
			Velocity: [3]float64{3, 4, 12},
		}
	}
	return out
}

func TestSeries(t *testing.T) {
	s := samples(4)
	tests := []struct {
		component string
		want      float64
	}{
		{"r", 3},
		{"x", 3},
		{"y", 0},
		{"z", 0},
		{"speed", 13},
		{"vx", 3},
		{"vy", 4},
		{"vz", 12},
	}
	for _, tt := range tests {
		t.Run(tt.component, func(t *testing.T) {
			got, err := Series(s, tt.component)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 4 || math.Abs(got[0]-tt.want) > 1e-12 {
				t.Errorf("series = %v, want first %g", got, tt.want)
			}
		})
	}
	if _, err := Series(s, "w"); err == nil {
		t.Error("expected error for unknown component")
	}
}

func TestPlot(t *testing.T) {
	out, err := Plot(samples(50), "y", 40, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "y of main/sat over 490s") {
		t.Errorf("caption missing:\n%s", out)
	}
	if _, err := Plot(nil, "r", 40, 8); err == nil {
		t.Error("expected error for empty track")
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 100, ThemeMinimal.Styles())
	for _, ts := range []float64{0, 0.2, 0.5, 50, 50.4, 99} {
		p.OnStep(nil, ts)
	}
	// 0, 0.2 and 0.5 share a percent as do 50 and 50.4
	if n := strings.Count(buf.String(), "\r"); n != 3 {
		t.Errorf("redraws = %d, want 3", n)
	}
	p.Done()
	if !strings.HasSuffix(buf.String(), "100.0%\n") {
		t.Errorf("final line = %q", buf.String())
	}
}

func TestSparkline(t *testing.T) {
	s := ThemeMinimal.Styles()
	line := s.Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 8)
	if !strings.Contains(line, "▁") || !strings.Contains(line, "█") {
		t.Errorf("sparkline = %q", line)
	}
	if got := s.Sparkline(nil, 5); got != "─────" {
		t.Errorf("empty sparkline = %q", got)
	}
	if n := utf8.RuneCountInString(s.ProgressBar(0.5, 10)); n < 10 {
		t.Errorf("progress bar has %d runes", n)
	}
}

func TestKeyValues(t *testing.T) {
	out := ThemeMinimal.Styles().KeyValues("run", map[string]string{"steps": "60", "integrator": "rk4"})
	if !strings.Contains(out, "run") || !strings.Contains(out, "steps") || !strings.Contains(out, "rk4") {
		t.Errorf("panel = %s", out)
	}
	if strings.Index(out, "integrator") > strings.Index(out, "steps") {
		t.Error("keys not sorted")
	}
}

func TestGetTheme(t *testing.T) {
	if GetTheme("ocean").Name != "ocean" {
		t.Error("ocean not found")
	}
	if GetTheme("nope").Name != "cyberpunk" {
		t.Error("unknown theme should fall back to cyberpunk")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}
}
