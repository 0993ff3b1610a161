// Package vecmath implements the coordinate-aware vector algebra used by the
// object graph.
//
// Every Vector and Quaternion carries a Frame: a weak, generation-checked handle
// to the object whose coordinate system the components are expressed in. A Frame
// never keeps its object alive; it resolves through the Tree that issued it and
// reports Alive() == false once the object has been finalized.
//
// Binary operations convert the second operand into the frame of the first and
// return results expressed in the first operand's frame. Conversion walks the
// parent chain between two frames, composing every hop's translation and
// rotation and, depending on the vector Kind, the frame's linear and angular
// motion (Coriolis, centrifugal and Euler terms).
//
// Orientation convention: an object's orientation quaternion q is expressed in
// its parent's frame and maps child coordinates to parent coordinates,
// v_parent = q ⊗ v_child ⊗ q*. Angular velocities are expressed in the parent's
// frame.
//
// All operations take values and return values, so assigning the result back
// to one of the operands is always safe.
//
// Frame mismatches and unnormalized quaternions are caller errors. Builds with
// the vessim_debug tag report them through the assertion handler (see
// SetAssertHandler); release builds skip the checks.
package vecmath
