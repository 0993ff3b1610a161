package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles is the set of lipgloss styles derived from a Theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Muted  lipgloss.Style
	High   lipgloss.Style
	Mid    lipgloss.Style
	Low    lipgloss.Style
	Panel  lipgloss.Style
	Header lipgloss.Style
}

func (t Theme) Styles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Foreground(t.Muted),
		Value: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Muted: lipgloss.NewStyle().Foreground(t.Muted),
		High:  lipgloss.NewStyle().Foreground(t.Success),
		Mid:   lipgloss.NewStyle().Foreground(t.Warning),
		Low:   lipgloss.NewStyle().Foreground(t.Error),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
	}
}

// ProgressBar renders fraction (0..1) as a bar width cells wide.
func (s Styles) ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if fraction > 0.8 {
		return s.High.Render(bar)
	} else if fraction > 0.4 {
		return s.Mid.Render(bar)
	}
	return s.Low.Render(bar)
}

// Sparkline renders a mini chart of values, sampled to fit width.
func (s Styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			result.WriteString(s.High.Render(c))
		case norm > 0.3:
			result.WriteString(s.Mid.Render(c))
		default:
			result.WriteString(s.Low.Render(c))
		}
	}
	return result.String()
}

// KeyValues renders label/value pairs as an aligned panel under a title.
// Keys are sorted.
func (s Styles) KeyValues(title string, values map[string]string) string {
	keys := make([]string, 0, len(values))
	width := 0
	for k := range values {
		keys = append(keys, k)
		width = max(width, lipgloss.Width(k))
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		pad := strings.Repeat(" ", width-lipgloss.Width(k))
		lines = append(lines, fmt.Sprintf("%s%s  %s", s.Label.Render(k), pad, s.Value.Render(values[k])))
	}
	return s.Header.Render(title) + "\n" + s.Panel.Render(strings.Join(lines, "\n"))
}
