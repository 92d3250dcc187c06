package asset

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshadvisor/pkg/math"
)

// Descriptor is the YAML form of a mesh asset.
type Descriptor struct {
	Name           string          `yaml:"name"`
	Path           string          `yaml:"path,omitempty"`
	Kind           Kind            `yaml:"kind"`
	BoundsRadius   float32         `yaml:"bounds_radius"`
	AutoScreenSize bool            `yaml:"auto_screen_size,omitempty"`
	NoImportCache  bool            `yaml:"no_import_cache,omitempty"`
	Tags           []string        `yaml:"tags,omitempty"`
	Materials      []string        `yaml:"materials"`
	LODs           []LODDescriptor `yaml:"lods"`
}

// LODDescriptor is the YAML form of one LOD slot. Source holds the authored
// geometry; a slot without it is generated from LOD 0.
type LODDescriptor struct {
	Source     *RenderStats       `yaml:"source,omitempty"`
	ScreenSize PerPlatformFloat   `yaml:"screen_size"`
	Build      BuildSettings      `yaml:"build"`
	Reduction  *ReductionSettings `yaml:"reduction,omitempty"`
	Simplified bool               `yaml:"simplified,omitempty"`
}

// Validate checks the descriptor is loadable.
func (d Descriptor) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if _, err := ParseKind(string(d.Kind)); err != nil {
		errs = append(errs, err)
	}
	if len(d.LODs) == 0 || len(d.LODs) > MaxLODs {
		errs = append(errs, fmt.Errorf("lods: need 1..%d entries, have %d", MaxLODs, len(d.LODs)))
	} else if d.LODs[0].Source == nil {
		errs = append(errs, errors.New("lods[0]: source geometry is required"))
	}
	for i, ld := range d.LODs {
		if ld.Source == nil {
			continue
		}
		for _, sec := range ld.Source.Sections {
			if sec.MaterialIndex < 0 || sec.MaterialIndex >= len(d.Materials) {
				errs = append(errs, fmt.Errorf("lods[%d]: section material %d out of range", i, sec.MaterialIndex))
			}
		}
	}
	if d.BoundsRadius < 0 {
		errs = append(errs, errors.New("bounds_radius must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidDescriptor, d.Name, errors.Join(errs...))
	}
	return nil
}

// HasTag reports whether the descriptor carries tag.
func (d Descriptor) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Placement is a mesh instance positioned in a level.
type Placement struct {
	Name string   `yaml:"name"`
	Path string   `yaml:"path,omitempty"`
	Mesh string   `yaml:"mesh"`
	Tags []string `yaml:"tags,omitempty"`

	Location math.Vec3 `yaml:"location"`
	// Rotation holds pitch, yaw and roll in degrees.
	Rotation math.Vec3 `yaml:"rotation"`
	Scale    math.Vec3 `yaml:"scale"`

	// BoundsRadius is used when the mesh cannot be resolved.
	BoundsRadius float32 `yaml:"bounds_radius,omitempty"`

	Instanced               bool `yaml:"instanced,omitempty"`
	HiddenInGame            bool `yaml:"hidden_in_game,omitempty"`
	Replicated              bool `yaml:"replicated,omitempty"`
	NeverDistanceCull       bool `yaml:"never_distance_cull,omitempty"`
	HasLODParent            bool `yaml:"has_lod_parent,omitempty"`
	AllowCullDistanceVolume bool `yaml:"allow_cull_distance_volume,omitempty"`

	CachedMaxDrawDistance  float32 `yaml:"cached_max_draw_distance,omitempty"`
	LDMaxDrawDistance      float32 `yaml:"ld_max_draw_distance,omitempty"`
	NetCullDistanceSquared float32 `yaml:"net_cull_distance_squared,omitempty"`
}

// Transform returns the placement's world matrix. A zero scale means unit.
func (p Placement) Transform() math.Mat4 {
	scale := p.Scale
	if scale.IsZero() {
		scale = math.One
	}
	rot := math.QuatFromEuler(p.Rotation.X, p.Rotation.Y, p.Rotation.Z)
	return math.TRS(p.Location, rot, scale)
}

// Document is one descriptor file: meshes plus optional placements.
type Document struct {
	Meshes     []Descriptor `yaml:"meshes"`
	Placements []Placement  `yaml:"components,omitempty"`
}

// ParseDocument decodes a descriptor file body.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	return &doc, nil
}

// LoadDocument reads and decodes a descriptor file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor file: %w", err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// MarshalDescriptor encodes a single descriptor.
func MarshalDescriptor(d Descriptor) ([]byte, error) {
	return yaml.Marshal(d)
}

// UnmarshalDescriptor decodes a single descriptor.
func UnmarshalDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	return d, nil
}
