package blob

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// Pellets is the food field: a set of pellet positions together with
// the seeded distribution that spawns replacements. The field is kept
// at a fixed count, so every consumed pellet is replaced within the
// tick it disappears.
type Pellets struct {
	positions [][2]float64
	count     int
	spawn     *distmv.Uniform
}

// NewPellets returns an empty pellet field that spawns pellets
// uniformly in the square inset FoodInset from every map edge
func NewPellets(count int, mapSize float64, seed uint64) *Pellets {
	bounds := []r1.Interval{
		{Min: FoodInset, Max: mapSize - FoodInset},
		{Min: FoodInset, Max: mapSize - FoodInset},
	}
	source := rand.NewSource(seed)

	return &Pellets{
		positions: make([][2]float64, 0, count),
		count:     count,
		spawn:     distmv.NewUniform(bounds, source),
	}
}

// Respawn discards every pellet and spawns the configured count anew
func (p *Pellets) Respawn() {
	p.positions = p.positions[:0]
	p.Replenish()
}

// Replenish spawns pellets until the configured count is restored
func (p *Pellets) Replenish() {
	for len(p.positions) < p.count {
		pos := p.spawn.Rand(nil)
		p.positions = append(p.positions, [2]float64{pos[0], pos[1]})
	}
}

// Place replaces the pellet field with the given positions. The
// configured count is unchanged, so the field replenishes back to it
// on the next consumption.
func (p *Pellets) Place(positions [][2]float64) {
	p.positions = append(p.positions[:0], positions...)
}

// Count returns the number of pellets currently on the map
func (p *Pellets) Count() int {
	return len(p.positions)
}

// At returns the position of pellet i
func (p *Pellets) At(i int) (x, y float64) {
	return p.positions[i][0], p.positions[i][1]
}

// Nearest returns the index of and straight-line distance to the
// pellet closest to (x, y). The field is never empty, so Nearest
// always refers to a real pellet.
func (p *Pellets) Nearest(x, y float64) (int, float64) {
	nearest := 0
	minDist := math.Inf(1)
	for i, pos := range p.positions {
		if d := Distance(x, y, pos[0], pos[1]); d < minDist {
			nearest = i
			minDist = d
		}
	}
	return nearest, minDist
}

// Positions returns a copy of every pellet position
func (p *Pellets) Positions() [][2]float64 {
	out := make([][2]float64, len(p.positions))
	copy(out, p.positions)
	return out
}
