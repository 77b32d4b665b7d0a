package timestep

import "gonum.org/v1/gonum/mat"

// Transition packages together the experience generated by acting in
// an environment for one step: the state the action was taken in, the
// action itself as a one-hot vector, and the resulting reward,
// discount, and successor state. The Discount field is 0 whenever the
// successor step ended the episode.
type Transition struct {
	State     *mat.VecDense
	Action    *mat.VecDense
	Reward    float64
	Discount  float64
	NextState *mat.VecDense
}

// NewTransition packages two consecutive TimeSteps and the action
// taken between them into a Transition
func NewTransition(step TimeStep, action *mat.VecDense,
	nextStep TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		Discount:  nextStep.Discount,
		NextState: nextStep.Observation,
	}
}
