package nurbs

import "errors"

// Construction errors. Validation wraps these with detail, test with errors.Is.
var (
	ErrInvalidDegree       = errors.New("degree must be at least 1")
	ErrTooFewControlPoints = errors.New("too few control points for degree")
	ErrKnotCount           = errors.New("knot count must equal control points + degree + 1")
	ErrKnotOrder           = errors.New("knots must be non-decreasing")
	ErrKnotMultiplicity    = errors.New("interior knot multiplicity exceeds degree")
	ErrEmptyDomain         = errors.New("parametric domain is empty")
	ErrWeightCount         = errors.New("weight count does not match control points")
	ErrNonPositiveWeight   = errors.New("weights must be positive")
	ErrNonFinite           = errors.New("non-finite value")
	ErrGridShape           = errors.New("control point grid is not rectangular")
	ErrIncompatibleCurves  = errors.New("curves do not share degree and knots")
	ErrSingularSystem      = errors.New("interpolation system is singular")
)
