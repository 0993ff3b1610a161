//go:build !vessim_debug

package vecmath

const debug = false
