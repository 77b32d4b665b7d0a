package blob

import "math"

// Blob is a single circular agent: a position on the torus, a heading,
// and a mass. Pickups counts the pellets consumed since the episode
// began.
type Blob struct {
	X       float64
	Y       float64
	Heading float64
	Mass    float64
	Pickups int
}

// Steer turns the blob by turnRate radians, left for SteerLeft and
// right for SteerRight, re-wrapping the heading to [-π, π]
func (b *Blob) Steer(action int, turnRate float64) {
	if action == SteerLeft {
		b.Heading += turnRate
	} else {
		b.Heading -= turnRate
	}
	b.Heading = WrapAngle(b.Heading)
}

// Advance moves the blob forward by speed along its heading, wrapping
// the position back onto the torus
func (b *Blob) Advance(speed, mapSize float64) {
	b.X = WrapCoord(b.X+speed*math.Cos(b.Heading), mapSize)
	b.Y = WrapCoord(b.Y+speed*math.Sin(b.Heading), mapSize)
}

// Starved reports whether the blob's mass has fallen to the minimum
// mass floor
func (b *Blob) Starved(minMass float64) bool {
	return b.Mass <= minMass
}

// DistanceTo returns the straight-line distance from this blob to
// another
func (b *Blob) DistanceTo(other *Blob) float64 {
	return Distance(b.X, b.Y, other.X, other.Y)
}

// BearingTo returns the angle this blob must turn through to face
// another, wrapped to [-π, π]
func (b *Blob) BearingTo(other *Blob) float64 {
	return RelativeBearing(b.X, b.Y, b.Heading, other.X, other.Y)
}
