// Package description reads and writes YAML descriptions of object trees and
// databases.
//
// A document has a version, a list of databases and a list of objects:
//
//	version: 1
//	databases:
//	  - name: material
//	    nested:
//	      - name: aluminium
//	        nested:
//	          - {name: density, real: 2700}
//	objects:
//	  - name: earth
//	    type: planet
//	    variables:
//	      - {name: mu, real: 3.986004418e14}
//	    children:
//	      - name: station
//	        type: point_mass
//	        state:
//	          position: [6.8e6, 0, 0]
//	          velocity: [0, 7656, 0]
//
// A variable carries its name and exactly one payload: real, string, vector
// (with an optional kind), quaternion, nested, or function. Function payloads
// hold a constant, an interpolation kernel and data1d, data2d or data3d
// tables. Attributes use the same shape.
//
// Objects of type "modifier" replicate their children along an offset
// when loaded; objects of type "metadata" are ignored unless requested.
package description
