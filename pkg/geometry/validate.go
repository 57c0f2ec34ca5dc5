package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Severity classifies a validation finding.
type Severity int

const (
	SeverityError   Severity = iota // blocks topology construction
	SeverityWarning                 // advisory; downstream code tolerates it
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Finding is a single validation message, optionally tied to a face.
type Finding struct {
	Face     int      `json:"face"` // -1 when not tied to a face
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationResult separates blocking errors from advisory warnings.
type ValidationResult struct {
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// OK returns true if there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks the buffers of g. Structural problems (index count, index
// range, attribute lengths) are errors; degenerate faces are warnings,
// since CFD surface meshes routinely carry a handful of them.
func Validate(g *Geometry) ValidationResult {
	result := ValidationResult{
		Errors:   []Finding{},
		Warnings: []Finding{},
	}

	result.Errors = append(result.Errors, validateBuffers(g)...)
	if !result.OK() {
		return result
	}
	result.Warnings = append(result.Warnings, validateFaces(g)...)
	return result
}

// validateBuffers checks index count, index range and attribute lengths.
func validateBuffers(g *Geometry) []Finding {
	var errs []Finding

	if len(g.Indices)%3 != 0 {
		errs = append(errs, Finding{
			Face:     -1,
			Message:  fmt.Sprintf("index count %d is not a multiple of 3", len(g.Indices)),
			Severity: SeverityError,
		})
	}
	if len(g.Normals) != 0 && len(g.Normals) != len(g.Vertices) {
		errs = append(errs, Finding{
			Face:     -1,
			Message:  fmt.Sprintf("normal count %d does not match vertex count %d", len(g.Normals), len(g.Vertices)),
			Severity: SeverityError,
		})
	}
	if len(g.UVs) != 0 && len(g.UVs) != len(g.Vertices) {
		errs = append(errs, Finding{
			Face:     -1,
			Message:  fmt.Sprintf("uv count %d does not match vertex count %d", len(g.UVs), len(g.Vertices)),
			Severity: SeverityError,
		})
	}
	for i, idx := range g.Indices {
		if int(idx) >= len(g.Vertices) {
			errs = append(errs, Finding{
				Face:     i / 3,
				Message:  fmt.Sprintf("index %d refers to vertex %d of %d", i, idx, len(g.Vertices)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateFaces reports triangles that repeat a vertex or have zero area.
func validateFaces(g *Geometry) []Finding {
	var warnings []Finding

	for f := 0; f < g.TriangleCount(); f++ {
		t := g.Triangle(f)
		if t[0] == t[1] || t[1] == t[2] || t[2] == t[0] {
			warnings = append(warnings, Finding{
				Face:     f,
				Message:  fmt.Sprintf("face %d repeats a vertex (%d %d %d)", f, t[0], t[1], t[2]),
				Severity: SeverityWarning,
			})
			continue
		}
		c := g.Corners(f)
		if r3.Norm(r3.Cross(r3.Sub(c[1], c[0]), r3.Sub(c[2], c[0]))) == 0 {
			warnings = append(warnings, Finding{
				Face:     f,
				Message:  fmt.Sprintf("face %d has zero area", f),
				Severity: SeverityWarning,
			})
		}
	}

	return warnings
}
