// Package metrics provides scalar metrics observed by the simulation driver.
// Each metric follows one object, named by a slash reference resolved on the
// first observation.
package metrics
