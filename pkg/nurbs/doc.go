// Package nurbs evaluates non-uniform rational B-spline curves and surfaces.
//
// Curves and surfaces are plain value records. They are validated once, either
// by the New* constructors or by an explicit Validate call, and every
// evaluation afterwards is a pure function of the record and the parameter.
// Rational geometry is evaluated in homogeneous coordinates so derivatives,
// tangents and normals stay exact under weighting.
//
// Basis functions follow Piegl & Tiller, The NURBS Book: the Cox–de Boor
// recursion is computed bottom-up in a triangular table (A2.2) and derivatives
// with A2.3, so no evaluation recurses.
package nurbs
