package blob

import (
	"fmt"
	"math"
)

const (
	// PelletRadius is the fixed radius of every food pellet
	PelletRadius float64 = 1.0

	// FoodInset is the margin from the map edge within which pellets
	// never spawn
	FoodInset float64 = 5.0

	// SpawnInset is the margin from the map edge within which blobs
	// are never placed at reset
	SpawnInset float64 = 10.0
)

// Config holds the physical and episode parameters of the blob world.
// JSON field names follow the exported environment config file format
// read by external visualisation tooling.
type Config struct {
	// MapSize is the side length of the square toroidal map
	MapSize float64 `json:"map_size"`

	// AgentRadius is the collision radius of each blob
	AgentRadius float64 `json:"agent_radius"`

	// InitialMass is the mass each blob starts an episode with
	InitialMass float64 `json:"initial_mass"`

	// MinMass is the mass floor at which a blob starves
	MinMass float64 `json:"min_mass"`

	// MassDecayRate is the mass lost by every blob on every tick
	MassDecayRate float64 `json:"mass_decay_rate"`

	// MassStealRate is the fraction of mass transferred on blob
	// contact. Contact stealing is not resolved yet, but the knob is
	// part of the config format.
	MassStealRate float64 `json:"mass_steal_rate"`

	// FoodMassGain is the mass granted by consuming one pellet
	FoodMassGain float64 `json:"food_mass_gain"`

	// MovementSpeed is the distance a blob moves forward each tick
	MovementSpeed float64 `json:"movement_speed"`

	// TurnRate is the angle in radians a blob turns each tick
	TurnRate float64 `json:"turn_rate"`

	// MaxFoods is the number of pellets kept on the map
	MaxFoods int `json:"max_foods"`

	// MaxSteps is the tick count at which an episode times out
	MaxSteps int `json:"max_steps"`

	// Discount is the discount factor announced to agents
	Discount float64 `json:"discount"`
}

// Validate returns an error describing the first illegal parameter
// found, or nil if the config describes a world that can actually run
func (c Config) Validate() error {
	if c.MapSize <= 2.0*FoodInset {
		return fmt.Errorf("config: map size too small for pellet "+
			"placement \n\twant(>%v) \n\thave(%v)", 2.0*FoodInset, c.MapSize)
	}
	if c.AgentRadius <= 0 {
		return fmt.Errorf("config: agent radius must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.AgentRadius)
	}
	if c.MinMass <= 0 {
		return fmt.Errorf("config: minimum mass must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.MinMass)
	}
	if c.InitialMass <= c.MinMass {
		return fmt.Errorf("config: initial mass must exceed the "+
			"starvation floor \n\twant(>%v) \n\thave(%v)", c.MinMass,
			c.InitialMass)
	}
	if c.MassDecayRate <= 0 {
		return fmt.Errorf("config: mass decay rate must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.MassDecayRate)
	}
	if c.MassStealRate < 0 {
		return fmt.Errorf("config: mass steal rate cannot be negative "+
			"\n\twant(>=0) \n\thave(%v)", c.MassStealRate)
	}
	if c.FoodMassGain <= 0 {
		return fmt.Errorf("config: food mass gain must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.FoodMassGain)
	}
	if c.MovementSpeed <= 0 {
		return fmt.Errorf("config: movement speed must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.MovementSpeed)
	}
	if c.TurnRate <= 0 {
		return fmt.Errorf("config: turn rate must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.TurnRate)
	}
	if c.MaxFoods < 1 {
		return fmt.Errorf("config: at least one pellet is required "+
			"\n\twant(>=1) \n\thave(%v)", c.MaxFoods)
	}
	if max := c.maxPlaceablePellets(); c.MaxFoods > max {
		return fmt.Errorf("config: too many pellets for the map "+
			"\n\twant(<=%v) \n\thave(%v)", max, c.MaxFoods)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("config: episode length must be positive "+
			"\n\twant(>=1) \n\thave(%v)", c.MaxSteps)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("config: discount out of range \n\twant(0 to 1) "+
			"\n\thave(%v)", c.Discount)
	}
	return nil
}

// maxPlaceablePellets returns how many pellets fit in the spawn area
// without overlapping, the cap on MaxFoods
func (c Config) maxPlaceablePellets() int {
	side := c.MapSize - 2.0*FoodInset
	perRow := int(math.Floor(side / (2.0 * PelletRadius)))
	return perRow * perRow
}
