package inlet

import (
	"fmt"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
)

// Options tunes the detection strategies.
type Options struct {
	PlaneCount    int     // automatic: number of crease clusters
	MaxIterations int     // automatic: Lloyd rounds per attempt
	MaxRetries    int     // automatic: re-seeded attempts after the first
	NormalDot     float64 // minimum dot of face and plane normals (0.9 is about 25 degrees)
	SpreadFactor  float64 // automatic: reach in cluster standard deviations
	DistanceBand  float64 // automatic: plane distance band in cluster standard deviations

	// ManualDistance is the plane distance tolerance of manual selection.
	// Zero uses half the mean edge length of the mesh.
	ManualDistance float64
}

// DefaultOptions returns the detection defaults.
func DefaultOptions() Options {
	return Options{
		PlaneCount:    3,
		MaxIterations: 20,
		MaxRetries:    16,
		NormalDot:     0.9,
		SpreadFactor:  4,
		DistanceBand:  0.1,
	}
}

// Validate reports the first out-of-range option.
func (o Options) Validate() error {
	switch {
	case o.PlaneCount < 1:
		return fmt.Errorf("inlet: plane count %d: %w", o.PlaneCount, geometry.ErrInvalidArgument)
	case o.MaxIterations < 0:
		return fmt.Errorf("inlet: max iterations %d: %w", o.MaxIterations, geometry.ErrInvalidArgument)
	case o.MaxRetries < 0:
		return fmt.Errorf("inlet: max retries %d: %w", o.MaxRetries, geometry.ErrInvalidArgument)
	case o.NormalDot < -1 || o.NormalDot > 1:
		return fmt.Errorf("inlet: normal dot %g: %w", o.NormalDot, geometry.ErrInvalidArgument)
	case o.SpreadFactor <= 0:
		return fmt.Errorf("inlet: spread factor %g: %w", o.SpreadFactor, geometry.ErrInvalidArgument)
	case o.DistanceBand < 0:
		return fmt.Errorf("inlet: distance band %g: %w", o.DistanceBand, geometry.ErrInvalidArgument)
	case o.ManualDistance < 0:
		return fmt.Errorf("inlet: manual distance %g: %w", o.ManualDistance, geometry.ErrInvalidArgument)
	}
	return nil
}
