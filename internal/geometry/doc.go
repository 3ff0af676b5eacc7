// Package geometry provides the circle primitives behind keypoint markers.
//
// A marker is rendered as a closed polygon approximating a circle. This package
// generates such polygons and recovers the center of a circle from the vertices
// of a polygon that may have been dragged around by the user.
//
// # Coordinate System
//
// Points are real-valued and use the image convention:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Circle Fitting
//
// CircleCenter implements the algebraic (non-iterative) least-squares circle
// regression described by Jacquelin, "Régressions coniques, quadriques",
// 2009, eqns. 1 and 2 pp. 12-13. It needs no initial guess and no iteration,
// which makes it cheap enough to run on every resize and save.
//
// # Wire Format
//
// Paths travel to and from the drawing surface as SVG path strings:
//
//	M 22,10 L 21.9,11.5 L ... Z
//
// Path.String encodes this format and ParsePath decodes it.
//
// # Error Handling
//
// Fitting a circle to (near-)collinear points is ill-posed. CircleCenter
// returns ErrDegenerate instead of a center at infinity or NaN.
package geometry
