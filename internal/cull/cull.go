// Package cull converts between a bounding sphere's on-screen size and the
// camera distance at which it reaches that size, under a fixed reference
// perspective projection.
package cull

import (
	"errors"
	"fmt"
	stdmath "math"

	"github.com/Faultbox/meshadvisor/pkg/math"
)

const (
	// smallNumber keeps the screen radius away from zero.
	smallNumber = 1e-8
	nearPlane   = 0.01
	farPlane    = 1e6
)

// Projection is a reference camera: horizontal field of view in degrees
// and the viewport resolution it renders at.
type Projection struct {
	FOV    float32 `yaml:"fov"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
}

// DefaultProjection is a 90 degree camera at 1920x1080.
func DefaultProjection() Projection {
	return Projection{FOV: 90, Width: 1920, Height: 1080}
}

// Validate reports an unusable projection.
func (p Projection) Validate() error {
	var errs []error
	if p.FOV <= 0 || p.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov %.2f must be in (0, 180)", p.FOV))
	}
	if p.Width <= 0 || p.Height <= 0 {
		errs = append(errs, fmt.Errorf("resolution %dx%d must be positive", p.Width, p.Height))
	}
	return errors.Join(errs...)
}

// Matrix returns the projection matrix. The vertical field of view is
// derived from the horizontal one and the aspect ratio.
func (p Projection) Matrix() math.Mat4 {
	aspect := float64(p.Width) / float64(p.Height)
	halfH := float64(p.FOV) * stdmath.Pi / 360
	fovY := 2 * stdmath.Atan(stdmath.Tan(halfH)/aspect)
	return math.Perspective(float32(fovY), float32(aspect), nearPlane, farPlane)
}

// ScreenMultiple is the larger of the two half projection scales.
func (p Projection) ScreenMultiple() float32 {
	m := p.Matrix()
	return max(0.5*m[0], 0.5*m[5])
}

// DrawDistance returns the distance at which a sphere of radius covers
// screenSize of the viewport. Larger screen sizes give shorter distances.
func (p Projection) DrawDistance(radius, screenSize float32) float32 {
	screenRadius := max(smallNumber, screenSize*0.5)
	return p.ScreenMultiple() * radius / screenRadius
}

// ScreenSize returns the viewport fraction a sphere of radius covers at
// distance. Distances below one unit are treated as one.
func (p Projection) ScreenSize(radius, distance float32) float32 {
	screenRadius := p.ScreenMultiple() * radius / max(1, distance)
	return screenRadius * 2
}

// DrawDistance uses DefaultProjection.
func DrawDistance(radius, screenSize float32) float32 {
	return DefaultProjection().DrawDistance(radius, screenSize)
}

// ScreenSize uses DefaultProjection.
func ScreenSize(radius, distance float32) float32 {
	return DefaultProjection().ScreenSize(radius, distance)
}
