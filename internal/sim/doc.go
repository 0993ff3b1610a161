// Package sim implements the object graph, the solver claim protocol and the
// propagation dispatch of a vessim simulation.
//
// A [System] owns everything: the root inertial frame, the ordered solver
// registry, the global callbacks, global time and the database trees. Several
// Systems can coexist; nothing is process-global.
//
//   - [Object]: a handle to a node of the object graph. Every node is the
//     coordinate frame of its children.
//   - [Solver]: a plugin that claims objects during initialization and drives
//     them through Solve or Integrate.
//   - [Simulator]: steps a System through time and records tracked objects.
//
// # Lifecycle
//
// Objects move through Created, Initializing, Initialized,
// MarkedForDestruction and Finalized. Destroy only tombstones a node; memory
// and frame resolution stay valid until CleanupObjects finalizes nodes whose
// Store/Release pin count is zero. Applications running several goroutines
// must call CleanupObjects periodically.
//
// # Initialization ownership
//
// Until an object is Initialized only the owner of its initialization may
// query or modify it. Ownership is carried by handles: the handle returned
// from Create owns the new object (and children created through it), handles
// obtained from queries do not. TransferInitialization hands ownership to a
// new handle; a non-blocking Initialize hands it to the worker goroutine.
//
// # Example
//
//	sys := sim.New()
//	sys.Register(integrators.NewPropagator(integrators.NewRK4()))
//	prop, _ := sys.CreateNamed(nil, "propagator_rk4", "main")
//	sat, _ := sys.CreateNamed(prop, "point_mass", "sat")
//	prop.Initialize(true)
//	prop.Solve(10)
package sim
