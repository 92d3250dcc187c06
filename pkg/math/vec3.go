// Package math provides the float32 vector, rotation and matrix types used
// for placement transforms, bounds and projection math.
package math

import "math"

// Vec3 is a 3D vector.
type Vec3 struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// One is the unit scale vector.
var One = Vec3{1, 1, 1}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// MaxAbs returns the largest absolute component.
func (v Vec3) MaxAbs() float32 {
	m := abs32(v.X)
	if a := abs32(v.Y); a > m {
		m = a
	}
	if a := abs32(v.Z); a > m {
		m = a
	}
	return m
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
