package vecmath

const (
	// Realtime is the MJD sentinel meaning "follow the wall clock".
	Realtime = -1.0

	Eps = 1e-15

	// G0 is standard gravity in m/s².
	G0 = 9.80665

	// GravitationalConstant in m³/(kg·s²).
	GravitationalConstant = 6.6738480e-11

	SecondsPerDay = 86400.0

	// MJD of the Unix epoch.
	UnixEpochMJD = 40587.0
)
