package geometry

import "errors"

// Error taxonomy shared by every package of the mesh core. Callers match with
// errors.Is; packages wrap these with their own context.
var (
	// ErrInvalidArgument reports a caller error such as requesting more
	// k-means seeds than there are points.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIndexOutOfRange reports a vertex, face, half-edge or cell id that
	// does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrDegenerateInput reports zero-length edges or normals, or point sets
	// too small or collinear to define a plane.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrDetectionFailure reports that inlet detection found no valid patch.
	ErrDetectionFailure = errors.New("detection failure")
)
