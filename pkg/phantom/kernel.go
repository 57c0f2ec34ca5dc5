// Package phantom builds synthetic vessel surfaces: trees of truncated tube
// branches, optionally ending in an aneurysm sac, tessellated by a solid
// modeling kernel. The flat truncation ends give the crease rings that
// automatic inlet detection looks for.
package phantom

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// Bounds returns the axis-aligned bounding box.
	Bounds() r3.Box
}

// Kernel is the solid modeling backend behind Tessellate.
type Kernel interface {
	// Cylinder returns a closed tube along +Z from z=0 to z=length.
	Cylinder(length, radius float64) (Solid, error)
	// Sphere returns a ball centered at the origin.
	Sphere(radius float64) (Solid, error)

	// Union joins parts. A positive blend rounds the junctions over
	// roughly that distance.
	Union(blend float64, parts ...Solid) Solid

	Translate(s Solid, v r3.Vec) Solid
	// Rotate turns s by Euler angles in degrees, about X first, then Y,
	// then Z.
	Rotate(s Solid, euler r3.Vec) Solid

	// Triangles samples the surface of s on a grid with cells cells along
	// its longest side and returns the triangle soup.
	Triangles(s Solid, cells int) ([][3]r3.Vec, error)
}
