package blob

import "math"

// WrapAngle wraps an angle to [-π, π] through the two-argument
// arctangent of its sine and cosine
func WrapAngle(theta float64) float64 {
	return math.Atan2(math.Sin(theta), math.Cos(theta))
}

// WrapCoord wraps a coordinate onto [0, mapSize). The double modulo
// keeps the result non-negative for negative inputs.
func WrapCoord(x, mapSize float64) float64 {
	return math.Mod(math.Mod(x, mapSize)+mapSize, mapSize)
}

// Distance returns the straight-line distance between two points.
// Distances are measured in the wrapped coordinate frame as drawn,
// never across the torus seam.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// RelativeBearing returns the angle an agent at (x, y) with the given
// heading must turn through to face (targetX, targetY), wrapped to
// [-π, π]. Positive bearings are to the left.
func RelativeBearing(x, y, heading, targetX, targetY float64) float64 {
	return WrapAngle(math.Atan2(targetY-y, targetX-x) - heading)
}
