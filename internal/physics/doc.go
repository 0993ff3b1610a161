// Package physics provides the stock solvers of a vessim System.
//
// Each solver claims objects of one type and drives them either through an
// integrate callback, advanced by a propagator, or through a solve callback
// that mutates the object directly:
//
//   - [Planet]: "planet" bodies in uniform motion with constant spin
//   - [PointMass]: "point_mass" bodies falling in the gravity of all planets
//   - [FuelTank]: "fuel_tank" objects draining fuel at a fixed rate
//   - [Antenna]: "antenna" objects that derive their size and geometry
//   - [Thruster]: "thruster" children that hold their vessel at a radius
//
// Solvers read their parameters from object variables, so a description
// file fully configures them:
//
//	sys.Register(physics.NewPlanet())
//	earth, _ := sys.CreateNamed(prop, "planet", "earth")
//	earth.AddRealVariable("mu", 3.986004418e14)
package physics
