package rules

import (
	"fmt"

	"github.com/Faultbox/meshadvisor/internal/asset"
)

// Set holds one rule configuration per mesh kind.
type Set struct {
	Static   Config `yaml:"static"`
	Skeletal Config `yaml:"skeletal"`
}

// DefaultSet returns the default configuration of every kind.
func DefaultSet() Set {
	return Set{Static: DefaultStatic(), Skeletal: DefaultSkeletal()}
}

// For returns the configuration for kind.
func (s *Set) For(kind asset.Kind) *Config {
	if kind == asset.KindSkeletal {
		return &s.Skeletal
	}
	return &s.Static
}

// Validate validates every kind.
func (s *Set) Validate() error {
	if err := s.Static.Validate(); err != nil {
		return fmt.Errorf("static: %w", err)
	}
	if err := s.Skeletal.Validate(); err != nil {
		return fmt.Errorf("skeletal: %w", err)
	}
	return nil
}

// Normalize normalizes every kind.
func (s *Set) Normalize() bool {
	a := s.Static.Normalize()
	b := s.Skeletal.Normalize()
	return a || b
}
