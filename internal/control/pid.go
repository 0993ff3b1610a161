package control

import "math"

type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64
	// Limit clamps the output to [-Limit, Limit]; zero disables clamping.
	Limit float64

	integral float64
	prevErr  float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		first:  true,
	}
}

// Update returns the control output for a measurement taken dt seconds after
// the previous one. The first update has no derivative term.
func (p *PID) Update(measured, dt float64) float64 {
	err := p.Target - measured

	if p.first || dt <= 0 {
		p.prevErr = err
		p.first = false
		return p.clamp(p.Kp * err)
	}

	integral := p.integral + err*dt
	derivative := (err - p.prevErr) / dt
	p.prevErr = err

	u := p.Kp*err + p.Ki*integral + p.Kd*derivative
	// integrate only while the output is not saturated
	if clamped := p.clamp(u); clamped != u {
		return clamped
	}
	p.integral = integral
	return u
}

func (p *PID) clamp(u float64) float64 {
	if p.Limit <= 0 {
		return u
	}
	return math.Max(-p.Limit, math.Min(p.Limit, u))
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// Params returns the tunable parameters.
func (p *PID) Params() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
		"Limit":  p.Limit,
	}
}

// SetParam adjusts a PID parameter and reports whether name is known.
func (p *PID) SetParam(name string, value float64) bool {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	case "Limit":
		p.Limit = value
	default:
		return false
	}
	return true
}
