package expreplay

import "errors"

// Sampling failure causes
var (
	errEmptyCache          = errors.New("cannot sample from an empty buffer")
	errInsufficientSamples = errors.New("buffer holds fewer samples than " +
		"the minimum capacity")
)

// ExpReplayError describes an error that occurred during an operation
// on an ExperienceReplayer
type ExpReplayError struct {
	Op  string
	Err error
}

func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// IsEmptyBuffer returns whether err indicates that a buffer was
// sampled while empty
func IsEmptyBuffer(err error) bool {
	var expErr *ExpReplayError
	if errors.As(err, &expErr) {
		return errors.Is(expErr.Err, errEmptyCache)
	}
	return false
}

// IsInsufficientSamples returns whether err indicates that a buffer
// was sampled while holding fewer samples than its minimum capacity
func IsInsufficientSamples(err error) bool {
	var expErr *ExpReplayError
	if errors.As(err, &expErr) {
		return errors.Is(expErr.Err, errInsufficientSamples)
	}
	return false
}
