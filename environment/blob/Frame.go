package blob

// BlobState is the pose of one blob as exposed to rendering and
// broadcasting collaborators
type BlobState struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Mass    float64 `json:"mass"`
	Pickups int     `json:"pickups"`
}

// Frame is a read-only snapshot of the world for one tick. Rendering
// and broadcasting collaborators consume frames; nothing they do with
// a frame ever feeds back into the simulation.
type Frame struct {
	MapSize float64      `json:"map_size"`
	Tick    int          `json:"tick"`
	Blobs   []BlobState  `json:"blobs"`
	Pellets [][2]float64 `json:"pellets"`
}

// Frame captures the current world state as an independent copy
func (w *World) Frame() Frame {
	blobs := make([]BlobState, len(w.blobs))
	for i, b := range w.blobs {
		blobs[i] = BlobState{
			X:       b.X,
			Y:       b.Y,
			Heading: b.Heading,
			Mass:    b.Mass,
			Pickups: b.Pickups,
		}
	}

	return Frame{
		MapSize: w.MapSize,
		Tick:    w.steps,
		Blobs:   blobs,
		Pellets: w.pellets.Positions(),
	}
}
