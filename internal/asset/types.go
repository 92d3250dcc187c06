// Package asset defines the narrow accessor surface the advisor uses to read
// and write mesh assets, the value types that cross it, and an in-memory
// implementation backed by YAML descriptors.
package asset

import (
	"fmt"
	"maps"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxLODs bounds the number of LOD levels any mesh may carry.
const MaxLODs = 8

// NoPlatform selects the default channel of a PerPlatformFloat.
const NoPlatform = ""

// Kind distinguishes the two families of renderable mesh.
type Kind string

// Mesh kinds.
const (
	KindStatic   Kind = "static"
	KindSkeletal Kind = "skeletal"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindStatic || k == KindSkeletal
}

// ParseKind converts a name to a Kind, defaulting empty input to static.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindStatic, nil
	case KindStatic, KindSkeletal:
		return k, nil
	default:
		return "", fmt.Errorf("unknown mesh kind %q", s)
	}
}

// PerPlatformFloat is a float with optional overrides keyed by platform group.
type PerPlatformFloat struct {
	Default     float32            `yaml:"default"`
	PerPlatform map[string]float32 `yaml:"per_platform,omitempty"`
}

// Get returns the override for platform if one exists, otherwise the default.
func (p PerPlatformFloat) Get(platform string) float32 {
	if platform != NoPlatform {
		if v, ok := p.PerPlatform[platform]; ok {
			return v
		}
	}
	return p.Default
}

// Set writes value into the default channel or the platform override.
func (p *PerPlatformFloat) Set(platform string, value float32) {
	if platform == NoPlatform {
		p.Default = value
		return
	}
	if p.PerPlatform == nil {
		p.PerPlatform = make(map[string]float32)
	}
	p.PerPlatform[platform] = value
}

// Clone returns a deep copy.
func (p PerPlatformFloat) Clone() PerPlatformFloat {
	return PerPlatformFloat{Default: p.Default, PerPlatform: maps.Clone(p.PerPlatform)}
}

// Equal reports whether both values carry the same default and overrides.
func (p PerPlatformFloat) Equal(o PerPlatformFloat) bool {
	if p.Default != o.Default || len(p.PerPlatform) != len(o.PerPlatform) {
		return false
	}
	return maps.Equal(p.PerPlatform, o.PerPlatform)
}

// MarshalYAML writes a bare number when there are no overrides.
func (p PerPlatformFloat) MarshalYAML() (any, error) {
	if len(p.PerPlatform) == 0 {
		return p.Default, nil
	}
	type plain PerPlatformFloat
	return plain(p), nil
}

// UnmarshalYAML accepts either a bare number or a mapping.
func (p *PerPlatformFloat) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float32
		if err := node.Decode(&v); err != nil {
			return err
		}
		*p = PerPlatformFloat{Default: v}
		return nil
	}
	type plain PerPlatformFloat
	var out plain
	if err := node.Decode(&out); err != nil {
		return err
	}
	*p = PerPlatformFloat(out)
	return nil
}

// BuildSettings are passed through to the rebuild pipeline untouched.
type BuildSettings struct {
	RecomputeNormals      bool    `yaml:"recompute_normals"`
	RecomputeTangents     bool    `yaml:"recompute_tangents"`
	UseMikkTSpace         bool    `yaml:"use_mikkt_space"`
	RemoveDegenerates     bool    `yaml:"remove_degenerates"`
	GenerateLightmapUVs   bool    `yaml:"generate_lightmap_uvs"`
	MinLightmapResolution int     `yaml:"min_lightmap_resolution"`
	SrcLightmapIndex      int     `yaml:"src_lightmap_index"`
	DstLightmapIndex      int     `yaml:"dst_lightmap_index"`
	BuildScale            float32 `yaml:"build_scale"`
}

// DefaultBuildSettings returns the settings a freshly imported LOD carries.
func DefaultBuildSettings() BuildSettings {
	return BuildSettings{
		RecomputeTangents:     true,
		UseMikkTSpace:         true,
		RemoveDegenerates:     true,
		GenerateLightmapUVs:   true,
		MinLightmapResolution: 64,
		DstLightmapIndex:      1,
		BuildScale:            1,
	}
}

// ReductionSettings drive the external mesh-reduction backend. Only
// PercentTriangles is edited by the advisor.
type ReductionSettings struct {
	PercentTriangles float32 `yaml:"percent_triangles"`
	PercentVertices  float32 `yaml:"percent_vertices"`
	MaxDeviation     float32 `yaml:"max_deviation"`
	WeldingThreshold float32 `yaml:"welding_threshold"`
	RecalculateNorms bool    `yaml:"recalculate_normals"`
}

// DefaultReductionSettings returns settings that leave geometry untouched.
func DefaultReductionSettings() ReductionSettings {
	return ReductionSettings{PercentTriangles: 1, PercentVertices: 1}
}

// Active reports whether these settings ask the backend to reduce anything.
func (r ReductionSettings) Active() bool {
	return r.PercentTriangles < 1 || (r.PercentVertices > 0 && r.PercentVertices < 1) || r.MaxDeviation > 0
}

// Section is one draw section of a LOD, bound to a material slot.
type Section struct {
	MaterialIndex int `yaml:"material"`
	Triangles     int `yaml:"triangles"`
	Vertices      int `yaml:"vertices"`
}

// RenderStats describes the render data of one LOD.
type RenderStats struct {
	Triangles  int       `yaml:"triangles"`
	Vertices   int       `yaml:"vertices"`
	UVChannels int       `yaml:"uv_channels"`
	Sections   []Section `yaml:"sections"`
}

// normalize fills totals from sections when they were left out.
func (s *RenderStats) normalize() {
	if s.Triangles == 0 {
		for _, sec := range s.Sections {
			s.Triangles += sec.Triangles
		}
	}
	if s.Vertices == 0 {
		for _, sec := range s.Sections {
			s.Vertices += sec.Vertices
		}
	}
}

// Clone returns a copy that shares no slices with s.
func (s RenderStats) Clone() RenderStats {
	s.Sections = append([]Section(nil), s.Sections...)
	return s
}

// MaterialIndices lists the material index of each section in order.
func (s RenderStats) MaterialIndices() []int {
	out := make([]int, len(s.Sections))
	for i, sec := range s.Sections {
		out[i] = sec.MaterialIndex
	}
	return out
}

// MaterialSlot is a named assignment point on the mesh.
type MaterialSlot struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name"`
}

// LODParams are the durable, editable parameters of one LOD.
type LODParams struct {
	ScreenSize PerPlatformFloat  `yaml:"screen_size"`
	Build      BuildSettings     `yaml:"build"`
	Reduction  ReductionSettings `yaml:"reduction"`
}

// Clone returns a deep copy.
func (p LODParams) Clone() LODParams {
	p.ScreenSize = p.ScreenSize.Clone()
	return p
}

// RebuildOptions steer LOD regeneration.
type RebuildOptions struct {
	// RegenerateEvenIfImported lets reduction overwrite imported LODs above 0.
	RegenerateEvenIfImported bool
	// GenerateBaseLOD lets reduction overwrite an imported LOD 0.
	GenerateBaseLOD bool
}
