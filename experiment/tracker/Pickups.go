package tracker

// Pickups tracks and saves the number of pellets collected in each
// episode of an experiment. Pickup counts live in the world's frame
// data rather than in timesteps, so the training loop feeds this
// tracker directly at the end of every episode instead of through
// Track.
type Pickups struct {
	episodePickups []float64
	filename       string
}

// NewPickups returns a new Pickups tracker which will save its data at
// filename
func NewPickups(filename string) *Pickups {
	return &Pickups{filename: filename}
}

// Record caches the pickup count of a finished episode
func (p *Pickups) Record(count int) {
	p.episodePickups = append(p.episodePickups, float64(count))
}

// Save writes the pickup counts tracked so far to disk
func (p *Pickups) Save() {
	saveData(p.filename, p.episodePickups)
}
