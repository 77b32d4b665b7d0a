// Package envconfig provides configuration structs for configuring
// environments with default physical parameters. Environment
// configurations in this package are JSON serializable, and the
// package also writes the flat environment description consumed by
// external visualisation tooling alongside exported model weights.
package envconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob/arena"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob/harvest"
	ts "github.com/alsterverse/labday-eat-big-screen-simulation/timestep"
)

// Variant stores the name of environments that can be configured with
// this package
type Variant string

// Environments available for configuration
const (
	// Harvest is the single-blob survival environment
	Harvest Variant = "harvest"

	// Arena is the competitive two-blob environment
	Arena Variant = "arena"
)

// Config implements a specific configuration of a specific environment
// variant
type Config struct {
	Variant Variant     `json:"variant"`
	World   blob.Config `json:"world"`
}

// DefaultHarvest returns the harvest environment configuration with
// its tuned world parameters
func DefaultHarvest() Config {
	return Config{Variant: Harvest, World: harvest.DefaultConfig()}
}

// DefaultArena returns the arena environment configuration with its
// tuned world parameters
func DefaultArena() Config {
	return Config{Variant: Arena, World: arena.DefaultConfig()}
}

// Load reads and validates a Config from the JSON file at path
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}

	return config, nil
}

// Save writes the Config as indented JSON to the file at path
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Validate returns an error if the variant is unknown or the world
// parameters are illegal
func (c Config) Validate() error {
	if c.Variant != Harvest && c.Variant != Arena {
		return fmt.Errorf("config: unknown variant \n\twant(%v or %v) "+
			"\n\thave(%v)", Harvest, Arena, c.Variant)
	}
	return c.World.Validate()
}

// StateSize returns the observation length of the configured variant
func (c Config) StateSize() int {
	if c.Variant == Arena {
		return arena.ObservationSize
	}
	return harvest.ObservationSize
}

// CreateHarvest is a factory for creating the harvest environment
// described by the Config as well as its first timestep. It is an
// error to call this on an arena config.
func (c Config) CreateHarvest(seed uint64) (*harvest.Harvest, ts.TimeStep,
	error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, err
	}
	if c.Variant != Harvest {
		return nil, ts.TimeStep{}, fmt.Errorf("createharvest: config "+
			"variant \n\twant(%v) \n\thave(%v)", Harvest, c.Variant)
	}

	return harvest.New(c.World, seed)
}

// CreateArena is a factory for creating the arena environment
// described by the Config as well as the first timestep of each blob.
// It is an error to call this on a harvest config.
func (c Config) CreateArena(seed uint64) (*arena.Arena, [2]ts.TimeStep,
	error) {
	if err := c.Validate(); err != nil {
		return nil, [2]ts.TimeStep{}, err
	}
	if c.Variant != Arena {
		return nil, [2]ts.TimeStep{}, fmt.Errorf("createarena: config "+
			"variant \n\twant(%v) \n\thave(%v)", Arena, c.Variant)
	}

	return arena.New(c.World, seed)
}

// Export is the flat environment description written next to exported
// model weights. The embedded world parameters flatten into the same
// JSON object as the derived sizes.
type Export struct {
	StateSize  int `json:"state_size"`
	ActionSize int `json:"action_size"`
	blob.Config
}

// Export returns the flat description of the configured environment
func (c Config) Export() Export {
	return Export{
		StateSize:  c.StateSize(),
		ActionSize: blob.NumActions,
		Config:     c.World,
	}
}

// Save writes the export as indented JSON to the file at path
func (e Export) Save(path string) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
