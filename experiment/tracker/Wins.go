package tracker

// Wins records, for a single competitor, whether it won each episode
// of a competitive run. Each episode stores 1 for a win and 0
// otherwise, so a moving average of the data is a rolling win rate.
//
// Wins is fed by the training loop, which knows each episode's winner
// code. It does not implement Tracker since winners are episode
// outcomes, not timestep data.
type Wins struct {
	winner      int
	episodeWins []float64
	filename    string
}

// NewWins returns a Wins tracker for the competitor identified by
// winner, which is the outcome code the training loop reports when
// this competitor wins
func NewWins(filename string, winner int) *Wins {
	return &Wins{
		winner:   winner,
		filename: filename,
	}
}

// Record stores whether this competitor won the episode that just
// finished
func (w *Wins) Record(winner int) {
	if winner == w.winner {
		w.episodeWins = append(w.episodeWins, 1)
	} else {
		w.episodeWins = append(w.episodeWins, 0)
	}
}

// Save saves the recorded win indicators to disk
func (w *Wins) Save() {
	saveData(w.filename, w.episodeWins)
}
