package rules

import "fmt"

// ToleranceMode selects how the screen-size floor slack is applied.
type ToleranceMode string

// Tolerance modes.
const (
	ToleranceAdditive       ToleranceMode = "additive"
	ToleranceMultiplicative ToleranceMode = "multiplicative"
)

// Tolerance is the slack allowed below a screen-size floor before a
// diagnostic is raised.
type Tolerance struct {
	Mode   ToleranceMode `yaml:"mode"`
	Amount float32       `yaml:"amount"`
}

// Limit returns the lowest acceptable value for floor.
func (t Tolerance) Limit(floor float32) float32 {
	if t.Mode == ToleranceMultiplicative {
		return floor * (1 - t.Amount)
	}
	return floor - t.Amount
}

// Below reports whether value falls under floor after slack.
func (t Tolerance) Below(value, floor float32) bool {
	return value < t.Limit(floor)
}

// Validate reports an unknown mode or an amount outside [0, 1).
func (t Tolerance) Validate() error {
	switch t.Mode {
	case ToleranceAdditive, ToleranceMultiplicative:
	default:
		return fmt.Errorf("tolerance mode %q must be %q or %q", t.Mode, ToleranceAdditive, ToleranceMultiplicative)
	}
	if t.Amount < 0 || t.Amount >= 1 {
		return fmt.Errorf("tolerance amount %.3f must be in [0, 1)", t.Amount)
	}
	return nil
}
