package roller

import (
	"fmt"

	"github.com/louisbranch/diceroller/internal/core/dice"
	"github.com/louisbranch/diceroller/internal/platform/config"
)

// LimitsConfig is the configurable form of dice.Limits. Environment
// variables supply the base profile; a YAML profile file may override any
// subset of it.
type LimitsConfig struct {
	MaxDice       int `env:"DICE_MAX_DICE" envDefault:"1000" yaml:"max_dice"`
	MaxSides      int `env:"DICE_MAX_SIDES" envDefault:"1000000000" yaml:"max_sides"`
	MaxExplosions int `env:"DICE_MAX_EXPLOSIONS" envDefault:"100" yaml:"max_explosions"`
	MaxRerolls    int `env:"DICE_MAX_REROLLS" envDefault:"10000" yaml:"max_rerolls"`
	MaxRecursion  int `env:"DICE_MAX_RECURSION" envDefault:"32" yaml:"max_recursion"`
}

// Limits converts the configuration to the evaluator's limits.
func (c LimitsConfig) Limits() dice.Limits {
	return dice.Limits{
		MaxDice:       c.MaxDice,
		MaxSides:      c.MaxSides,
		MaxExplosions: c.MaxExplosions,
		MaxRerolls:    c.MaxRerolls,
		MaxRecursion:  c.MaxRecursion,
	}
}

// LoadLimits reads the limits profile from the environment and, when
// profilePath is set, from that YAML file. The result is validated.
func LoadLimits(profilePath string) (dice.Limits, error) {
	var cfg LimitsConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return dice.Limits{}, fmt.Errorf("load limits: %w", err)
	}
	if profilePath != "" {
		if err := config.LoadYAML(profilePath, &cfg); err != nil {
			return dice.Limits{}, fmt.Errorf("load limits profile: %w", err)
		}
	}
	limits := cfg.Limits()
	if err := limits.Validate(); err != nil {
		return dice.Limits{}, fmt.Errorf("invalid limits: %w", err)
	}
	return limits, nil
}
