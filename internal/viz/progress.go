package viz

import (
	"fmt"
	"io"

	"github.com/san-kum/vessim/internal/sim"
)

// Progress is a simulator observer that redraws a progress bar whenever the
// run advances by another percent.
type Progress struct {
	w        io.Writer
	styles   Styles
	duration float64
	width    int
	last     int
}

func NewProgress(w io.Writer, duration float64, styles Styles) *Progress {
	return &Progress{w: w, styles: styles, duration: duration, width: 40, last: -1}
}

func (p *Progress) OnStep(_ *sim.System, t float64) {
	if p.duration <= 0 {
		return
	}
	pct := int(100 * t / p.duration)
	if pct == p.last {
		return
	}
	p.last = pct
	p.draw(t / p.duration)
}

// Done draws the full bar and ends the line.
func (p *Progress) Done() {
	p.draw(1)
	fmt.Fprintln(p.w)
}

func (p *Progress) draw(fraction float64) {
	fmt.Fprintf(p.w, "\r%s %5.1f%%", p.styles.ProgressBar(fraction, p.width), 100*fraction)
}
