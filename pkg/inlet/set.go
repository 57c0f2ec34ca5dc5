package inlet

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
)

// Palette assigns display colors to patches in insertion order.
var Palette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// Set is the active collection of inlets of one mesh. Names are unique.
// Set is not safe for concurrent use.
type Set struct {
	inlets []Inlet
	added  int
}

// NewSet returns a set holding the given inlets, as if added in order.
func NewSet(inlets ...Inlet) (*Set, error) {
	s := &Set{}
	for _, in := range inlets {
		if _, err := s.Add(in); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add stores in and returns the stored copy. A missing ID, name or color is
// filled in: names default to "inlet_<n>" and colors cycle through Palette.
// A name already in the set is an error.
func (s *Set) Add(in Inlet) (Inlet, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	if in.Name == "" {
		in.Name = s.freeName()
	} else if _, ok := s.index(in.Name); ok {
		return Inlet{}, fmt.Errorf("inlet: name %q already used: %w", in.Name, geometry.ErrInvalidArgument)
	}
	if in.Color == "" {
		in.Color = Palette[s.added%len(Palette)]
	}
	s.added++
	s.inlets = append(s.inlets, in)
	return in, nil
}

func (s *Set) freeName() string {
	for n := s.added; ; n++ {
		name := fmt.Sprintf("inlet_%d", n)
		if _, ok := s.index(name); !ok {
			return name
		}
	}
}

func (s *Set) index(name string) (int, bool) {
	_, i, ok := lo.FindIndexOf(s.inlets, func(in Inlet) bool { return in.Name == name })
	return i, ok
}

// Len returns the number of inlets.
func (s *Set) Len() int { return len(s.inlets) }

// All returns the inlets in insertion order. The slice must not be modified.
func (s *Set) All() []Inlet { return s.inlets }

// ByName returns the inlet called name.
func (s *Set) ByName(name string) (Inlet, bool) {
	i, ok := s.index(name)
	if !ok {
		return Inlet{}, false
	}
	return s.inlets[i], true
}

// ByID returns the inlet with the given id.
func (s *Set) ByID(id uuid.UUID) (Inlet, bool) {
	return lo.Find(s.inlets, func(in Inlet) bool { return in.ID == id })
}

// Remove deletes the inlet called name and reports whether it existed.
func (s *Set) Remove(name string) bool {
	i, ok := s.index(name)
	if !ok {
		return false
	}
	s.inlets = append(s.inlets[:i], s.inlets[i+1:]...)
	return true
}

// Rename changes an inlet's name.
func (s *Set) Rename(from, to string) error {
	i, err := s.mustIndex(from)
	if err != nil {
		return err
	}
	if to == "" {
		return fmt.Errorf("inlet: empty name: %w", geometry.ErrInvalidArgument)
	}
	if j, ok := s.index(to); ok && j != i {
		return fmt.Errorf("inlet: name %q already used: %w", to, geometry.ErrInvalidArgument)
	}
	s.inlets[i].Name = to
	return nil
}

// SetType changes an inlet's role.
func (s *Set) SetType(name string, t Type) error {
	i, err := s.mustIndex(name)
	if err != nil {
		return err
	}
	s.inlets[i].Type = t
	return nil
}

// SetCondition replaces an inlet's boundary condition.
func (s *Set) SetCondition(name string, c Condition) error {
	i, err := s.mustIndex(name)
	if err != nil {
		return err
	}
	s.inlets[i].Condition = c
	return nil
}

func (s *Set) mustIndex(name string) (int, error) {
	i, ok := s.index(name)
	if !ok {
		return 0, fmt.Errorf("inlet: no inlet named %q: %w", name, geometry.ErrInvalidArgument)
	}
	return i, nil
}

// WallIndices returns the triangles of g that belong to no inlet, in face
// order. Inlet faces are matched by their vertex triple regardless of
// rotation.
func (s *Set) WallIndices(g *geometry.Geometry) []uint32 {
	claimed := make(map[[3]uint32]struct{})
	for _, in := range s.inlets {
		for f := 0; f+2 < len(in.Indices); f += 3 {
			claimed[triKey(in.Indices[f], in.Indices[f+1], in.Indices[f+2])] = struct{}{}
		}
	}
	var out []uint32
	for f := 0; f < g.TriangleCount(); f++ {
		t := g.Triangle(f)
		if _, ok := claimed[triKey(t[0], t[1], t[2])]; ok {
			continue
		}
		out = append(out, t[:]...)
	}
	return out
}

func triKey(a, b, c uint32) [3]uint32 {
	k := [3]uint32{a, b, c}
	sort.Slice(k[:], func(i, j int) bool { return k[i] < k[j] })
	return k
}
