package geometry

import (
	"errors"
	"fmt"
	"math"
)

// DefaultPoints is the number of vertices used to approximate a marker circle.
const DefaultPoints = 50

// degenerateEpsilon is the relative threshold below which the fit
// denominator is treated as zero.
const degenerateEpsilon = 1e-12

var (
	// ErrDegenerate is returned when a circle cannot be fitted because the
	// points are (near-)collinear or coincident.
	ErrDegenerate = errors.New("degenerate circle fit")

	// ErrTooFewPoints is returned when a path has fewer than 3 distinct vertices.
	ErrTooFewPoints = errors.New("path needs at least 3 distinct points")
)

// Point represents a real-valued 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// DrawCircle returns a closed path approximating a circle.
//
// Parameters:
//   - center: Center of the circle.
//   - radius: Circle radius. Must be finite and > 0.
//   - nPoints: Number of distinct vertices, sampled at uniform angles over
//     [0, 2π). Values below 3 are raised to 3.
//
// The returned path has nPoints+1 vertices: the first vertex is repeated at
// the end to close it. Every vertex lies at distance radius from center.
func DrawCircle(center Point, radius float64, nPoints int) Path {
	if nPoints < 3 {
		nPoints = 3
	}

	path := make(Path, 0, nPoints+1)
	step := 2 * math.Pi / float64(nPoints)
	for k := 0; k < nPoints; k++ {
		theta := float64(k) * step
		path = append(path, Point{
			X: center.X + radius*math.Cos(theta),
			Y: center.Y + radius*math.Sin(theta),
		})
	}
	return append(path, path[0])
}

// CircleCenter fits a circle to the vertices of path and returns its center.
//
// The closing repeat vertex is ignored so that it does not weigh the first
// vertex twice.
//
// # Algorithm
//
// With n vertices, let Sx = Σx, Sy = Σy, Sxx = Σx², and so on. Then
//
//	Δ11 = nΣxy - SxSy     Δ20 = nSxx - Sx²      Δ02 = nSyy - Sy²
//	Δ30 = nΣx³ - SxxSx    Δ03 = nΣy³ - SySyy
//	Δ21 = nΣx²y - SxxSy   Δ12 = nΣxy² - SxSyy
//
//	a = ((Δ30+Δ12)Δ02 - (Δ03+Δ21)Δ11) / 2(Δ20Δ02 - Δ11²)
//	b = ((Δ03+Δ21)Δ20 - (Δ30+Δ12)Δ11) / 2(Δ20Δ02 - Δ11²)
//
// # Errors
//
//   - ErrTooFewPoints if the path has fewer than 3 vertices
//   - ErrDegenerate if the denominator vanishes (collinear or coincident points)
func CircleCenter(path Path) (Point, error) {
	pts := path.Vertices()
	if len(pts) < 3 {
		return Point{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(pts))
	}

	// Shift to the centroid to keep the moments well conditioned for
	// markers far from the origin. The fit is translation invariant.
	var ox, oy float64
	for _, p := range pts {
		ox += p.X
		oy += p.Y
	}
	n := float64(len(pts))
	ox /= n
	oy /= n

	var sx, sy, sxx, syy, sxy, sxxx, syyy, sxxy, sxyy float64
	for _, p := range pts {
		x, y := p.X-ox, p.Y-oy
		sx += x
		sy += y
		sxx += x * x
		syy += y * y
		sxy += x * y
		sxxx += x * x * x
		syyy += y * y * y
		sxxy += x * x * y
		sxyy += x * y * y
	}

	d11 := n*sxy - sx*sy
	d20 := n*sxx - sx*sx
	d02 := n*syy - sy*sy
	d30 := n*sxxx - sxx*sx
	d03 := n*syyy - sy*syy
	d21 := n*sxxy - sxx*sy
	d12 := n*sxyy - sx*syy

	den := 2 * (d20*d02 - d11*d11)
	scale := 2 * d20 * d02
	if math.IsNaN(den) || math.Abs(den) <= degenerateEpsilon*math.Max(scale, 1e-300) {
		return Point{}, ErrDegenerate
	}

	a := ((d30+d12)*d02 - (d03+d21)*d11) / den
	b := ((d03+d21)*d20 - (d30+d12)*d11) / den
	if math.IsInf(a, 0) || math.IsInf(b, 0) || math.IsNaN(a) || math.IsNaN(b) {
		return Point{}, ErrDegenerate
	}

	return Point{X: a + ox, Y: b + oy}, nil
}

// MeanRadius returns the mean distance from center to the vertices of path.
func MeanRadius(path Path, center Point) float64 {
	pts := path.Vertices()
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		sum += p.Distance(center)
	}
	return sum / float64(len(pts))
}
