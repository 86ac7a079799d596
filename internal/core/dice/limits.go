package dice

import "fmt"

// Default safety limits.
const (
	DefaultMaxDice       = 1000
	DefaultMaxSides      = 1_000_000_000
	DefaultMaxExplosions = 100
	DefaultMaxRerolls    = 10000
	DefaultMaxRecursion  = 32
)

// Limits bounds the work one evaluation may do. Limits are passed with each
// request, so evaluations with different profiles can run side by side.
type Limits struct {
	MaxDice       int `json:"maxDice"`
	MaxSides      int `json:"maxSides"`
	MaxExplosions int `json:"maxExplosions"`
	MaxRerolls    int `json:"maxRerolls"`
	MaxRecursion  int `json:"maxRecursion"`
}

// DefaultLimits returns the standard limit profile.
func DefaultLimits() Limits {
	return Limits{
		MaxDice:       DefaultMaxDice,
		MaxSides:      DefaultMaxSides,
		MaxExplosions: DefaultMaxExplosions,
		MaxRerolls:    DefaultMaxRerolls,
		MaxRecursion:  DefaultMaxRecursion,
	}
}

// Validate reports the first non-positive limit.
func (l Limits) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"max dice", l.MaxDice},
		{"max sides", l.MaxSides},
		{"max explosions", l.MaxExplosions},
		{"max rerolls", l.MaxRerolls},
		{"max recursion", l.MaxRecursion},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", check.name, check.value)
		}
	}
	return nil
}

// orDefault returns l, or the default profile when l is the zero value.
func (l Limits) orDefault() Limits {
	if l == (Limits{}) {
		return DefaultLimits()
	}
	return l
}
