// Package control provides feedback controllers for solvers that steer a
// vessel.
//
//   - [PID]: Proportional-Integral-Derivative controller with output limit
//
// # Usage
//
//	pid := control.NewPID(1.0, 0.1, 0.01, 6778137) // Kp, Ki, Kd, setpoint
//	u := pid.Update(measured, dt)                   // once per solve step
//
// The gains and the setpoint are tunable between updates through
// [PID.Params] and [PID.SetParam].
package control
