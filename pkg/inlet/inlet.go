// Package inlet finds the flow boundary patches of a vessel surface and
// carries their boundary-condition metadata. Three strategies produce
// inlets: automatic detection from crease clusters, manual region growing
// from a picked vertex, and capping of open boundary loops.
package inlet

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/plane"
)

// Type is the role of a patch in the flow problem.
type Type int

const (
	TypeInlet Type = iota
	TypeOutlet
	TypeWall
)

var typeNames = []string{"inlet", "outlet", "wall"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType maps a type name to a Type.
func ParseType(s string) (Type, error) {
	for i, n := range typeNames {
		if strings.EqualFold(s, n) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("inlet: unknown type %q: %w", s, geometry.ErrInvalidArgument)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ConditionKind says how the boundary value is imposed.
type ConditionKind int

const (
	ZeroGradient ConditionKind = iota // no value
	FixedValue                        // Vector, e.g. a velocity
	FlowRate                          // Value, volumetric
	Pressure                          // Value
)

var conditionNames = []string{"zero-gradient", "fixed-value", "flow-rate", "pressure"}

func (k ConditionKind) String() string {
	if k < 0 || int(k) >= len(conditionNames) {
		return fmt.Sprintf("ConditionKind(%d)", int(k))
	}
	return conditionNames[k]
}

// ParseConditionKind maps a condition name to a ConditionKind. Underscores
// and dashes are interchangeable.
func ParseConditionKind(s string) (ConditionKind, error) {
	norm := strings.ReplaceAll(strings.ToLower(s), "_", "-")
	for i, n := range conditionNames {
		if norm == n {
			return ConditionKind(i), nil
		}
	}
	return 0, fmt.Errorf("inlet: unknown condition %q: %w", s, geometry.ErrInvalidArgument)
}

// MarshalText implements encoding.TextMarshaler.
func (k ConditionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ConditionKind) UnmarshalText(b []byte) error {
	v, err := ParseConditionKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Condition is the boundary-condition metadata of a patch. Which value
// field applies depends on Kind.
type Condition struct {
	Kind   ConditionKind `json:"kind"`
	Value  float64       `json:"value,omitempty"`
	Vector r3.Vec        `json:"vector"`
}

// Inlet is a named boundary patch of a surface mesh.
type Inlet struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Type      Type        `json:"type"`
	Condition Condition   `json:"condition"`
	Plane     plane.Plane `json:"plane"`
	Radius    float64     `json:"radius"` // max distance from the plane center to the patch boundary
	Color     string      `json:"color"`
	Indices   []uint32    `json:"indices"` // triangles, as vertex triples of the owning mesh
}

// TriangleCount returns the number of triangles in the patch.
func (in *Inlet) TriangleCount() int {
	return len(in.Indices) / 3
}

// View returns the patch as a view over its owning mesh.
func (in *Inlet) View(base *geometry.Geometry) geometry.View {
	return geometry.NewView(base, in.Indices)
}

// newInlet returns an inlet with a fresh identity over the given faces.
func newInlet(p plane.Plane, radius float64, indices []uint32) Inlet {
	return Inlet{
		ID:      uuid.New(),
		Type:    TypeInlet,
		Plane:   p,
		Radius:  radius,
		Indices: indices,
	}
}

// patchRadius returns the largest distance from center to a vertex on the
// boundary of the patch made of the given faces of g. A patch without a
// boundary measures all of its vertices.
func patchRadius(g *geometry.Geometry, indices []uint32, center r3.Vec) float64 {
	edges := make(map[[2]uint32]int, len(indices))
	for f := 0; f+2 < len(indices); f += 3 {
		for c := 0; c < 3; c++ {
			a, b := indices[f+c], indices[f+(c+1)%3]
			if a > b {
				a, b = b, a
			}
			edges[[2]uint32{a, b}]++
		}
	}
	var rim []r3.Vec
	for e, n := range edges {
		if n == 1 {
			rim = append(rim, g.Vertices[e[0]], g.Vertices[e[1]])
		}
	}
	if len(rim) == 0 {
		rim = geometry.NewView(g, indices).Positions()
	}
	return plane.Plane{Center: center}.Radius(rim)
}
