// Package rules holds the rule configuration the advisor evaluates meshes
// against: budgets, LOD thresholds, per-LOD curves and cull parameters.
// A Config is passed explicitly into every evaluation; nothing here is
// process-wide state.
package rules

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshadvisor/internal/asset"
	"github.com/Faultbox/meshadvisor/internal/cull"
)

// ErrThresholdOrder marks triangle thresholds that are not ascending.
var ErrThresholdOrder = errors.New("triangle LOD thresholds out of order")

// Threshold requires LODCount levels for meshes with at least Triangles
// triangles in LOD 0.
type Threshold struct {
	Triangles int `yaml:"triangles"`
	LODCount  int `yaml:"lod_count"`
}

// Config is one rule set. Each mesh kind carries its own.
type Config struct {
	MaxTriangles       int `yaml:"max_triangles"`
	MaxMaterials       int `yaml:"max_materials"`
	MaxUVChannels      int `yaml:"max_uv_channels"`
	PerLODMaxMaterials int `yaml:"per_lod_max_materials"`
	MaxLODCount        int `yaml:"max_lod_count"`
	MinTrianglesForLOD int `yaml:"min_triangles_for_lod"`

	Thresholds           []Threshold              `yaml:"triangle_lod_thresholds"`
	TrianglePercentCurve []float32                `yaml:"lod_triangle_percent_curve"`
	ScreenSizeFloor      []asset.PerPlatformFloat `yaml:"lod_screen_size_floor"`

	CullScreenSize            float32 `yaml:"cull_screen_size"`
	NeverCullSize             float32 `yaml:"never_cull_size"`
	TrianglesErrorScale       float32 `yaml:"triangles_error_scale"`
	CullDistanceErrorScale    float32 `yaml:"cull_distance_error_scale"`
	MaxNetCullDistanceSquared float32 `yaml:"max_net_cull_distance_squared"`
	MinDrawDistance           float32 `yaml:"min_draw_distance"`
	MaxDrawDistance           float32 `yaml:"max_draw_distance"`

	Tolerance                 Tolerance       `yaml:"screen_size_tolerance"`
	Checks                    Checks          `yaml:"checks"`
	TargetPlatform            string          `yaml:"target_platform"`
	SkipComponentIfMeshIsNone bool            `yaml:"skip_component_if_mesh_is_none"`
	Projection                cull.Projection `yaml:"projection"`
}

func base() Config {
	return Config{
		MaxTriangles:       30000,
		MaxMaterials:       16,
		MaxUVChannels:      4,
		PerLODMaxMaterials: 8,
		MaxLODCount:        5,
		MinTrianglesForLOD: 500,
		Thresholds: []Threshold{
			{Triangles: 5000, LODCount: 2},
			{Triangles: 10000, LODCount: 3},
			{Triangles: 20000, LODCount: 4},
			{Triangles: 30000, LODCount: 5},
		},
		TrianglePercentCurve: []float32{1, 0.5, 0.25, 0.125, 0.0625},
		ScreenSizeFloor: []asset.PerPlatformFloat{
			{Default: 1}, {Default: 0.3}, {Default: 0.1}, {Default: 0.09}, {Default: 0.07},
		},
		CullScreenSize:            0.03,
		NeverCullSize:             10000,
		TrianglesErrorScale:       1.2,
		CullDistanceErrorScale:    1.2,
		MaxNetCullDistanceSquared: 15000 * 15000,
		MinDrawDistance:           1500,
		MaxDrawDistance:           25000,
		Checks:                    AllChecks,
		SkipComponentIfMeshIsNone: true,
		Projection:                cull.DefaultProjection(),
	}
}

// DefaultStatic returns the static-mesh rule set.
func DefaultStatic() Config {
	c := base()
	c.Tolerance = Tolerance{Mode: ToleranceAdditive, Amount: 0.06}
	return c
}

// DefaultSkeletal returns the skeletal-mesh rule set.
func DefaultSkeletal() Config {
	c := base()
	c.Tolerance = Tolerance{Mode: ToleranceMultiplicative, Amount: 0.2}
	return c
}

// Default returns the rule set for kind.
func Default(kind asset.Kind) Config {
	if kind == asset.KindSkeletal {
		return DefaultSkeletal()
	}
	return DefaultStatic()
}

// RequiredLODCount scans thresholds from the largest triangle bound down
// and returns the LOD count of the first one lod0Triangles reaches.
func (c *Config) RequiredLODCount(lod0Triangles int) (int, bool) {
	for i := len(c.Thresholds) - 1; i >= 0; i-- {
		if c.Thresholds[i].Triangles <= lod0Triangles {
			return c.Thresholds[i].LODCount, true
		}
	}
	return 0, false
}

// RecommendedPercent returns the curve fraction of LOD 0 for lod, or -1
// past the end of the curve.
func (c *Config) RecommendedPercent(lod int) float32 {
	if lod < 0 || lod >= len(c.TrianglePercentCurve) {
		return -1
	}
	return c.TrianglePercentCurve[lod]
}

// RecommendedTriangles returns the triangle budget of lod given LOD 0's
// count. LOD 0 is bounded by MaxTriangles. Other LODs are a curve fraction
// of LOD 0; meshes at or under MinTrianglesForLOD, and LODs past the curve,
// get lod0Triangles back.
func (c *Config) RecommendedTriangles(lod, lod0Triangles int) int {
	if lod == 0 {
		return c.MaxTriangles
	}
	p := c.RecommendedPercent(lod)
	if lod0Triangles <= c.MinTrianglesForLOD || p < 0 {
		return lod0Triangles
	}
	return int(float64(lod0Triangles) * float64(p))
}

// ScreenSizeFloorAt returns the minimum screen size of lod on platform.
func (c *Config) ScreenSizeFloorAt(platform string, lod int) (float32, bool) {
	if lod < 0 || lod >= len(c.ScreenSizeFloor) {
		return 0, false
	}
	return c.ScreenSizeFloor[lod].Get(platform), true
}

// Validate reports every inconsistency in the rule set.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxTriangles <= 0 {
		errs = append(errs, fmt.Errorf("max_triangles %d must be positive", c.MaxTriangles))
	}
	if c.MaxMaterials < 0 || c.PerLODMaxMaterials < 0 {
		errs = append(errs, errors.New("material limits must not be negative"))
	}
	if c.MaxUVChannels < 1 {
		errs = append(errs, fmt.Errorf("max_uv_channels %d must be at least 1", c.MaxUVChannels))
	}
	if c.MaxLODCount < 1 || c.MaxLODCount > asset.MaxLODs {
		errs = append(errs, fmt.Errorf("max_lod_count %d must be in [1, %d]", c.MaxLODCount, asset.MaxLODs))
	}

	for i := 1; i < len(c.Thresholds); i++ {
		prev, cur := c.Thresholds[i-1], c.Thresholds[i]
		if cur.Triangles <= prev.Triangles {
			errs = append(errs, fmt.Errorf("%w: entry %d has %d triangles, need more than %d",
				ErrThresholdOrder, i, cur.Triangles, prev.Triangles))
		}
		if cur.LODCount < prev.LODCount {
			errs = append(errs, fmt.Errorf("%w: entry %d requires %d LODs, fewer than %d",
				ErrThresholdOrder, i, cur.LODCount, prev.LODCount))
		}
	}
	for i, t := range c.Thresholds {
		if t.LODCount < 1 || t.LODCount > asset.MaxLODs {
			errs = append(errs, fmt.Errorf("threshold %d: lod_count %d must be in [1, %d]", i, t.LODCount, asset.MaxLODs))
		}
	}

	if len(c.TrianglePercentCurve) == 0 || c.TrianglePercentCurve[0] != 1 {
		errs = append(errs, errors.New("lod_triangle_percent_curve must start at 1"))
	}
	for i, p := range c.TrianglePercentCurve {
		if p <= 0 || p > 1 {
			errs = append(errs, fmt.Errorf("lod_triangle_percent_curve[%d] = %.4f must be in (0, 1]", i, p))
		}
	}
	for i := 1; i < len(c.ScreenSizeFloor); i++ {
		if c.ScreenSizeFloor[i].Default >= c.ScreenSizeFloor[i-1].Default {
			errs = append(errs, fmt.Errorf("lod_screen_size_floor[%d] = %.4f must be below %.4f",
				i, c.ScreenSizeFloor[i].Default, c.ScreenSizeFloor[i-1].Default))
		}
	}

	if c.CullScreenSize <= 0 || c.CullScreenSize > 1 {
		errs = append(errs, fmt.Errorf("cull_screen_size %.4f must be in (0, 1]", c.CullScreenSize))
	}
	if c.NeverCullSize <= 0 {
		errs = append(errs, errors.New("never_cull_size must be positive"))
	}
	if c.TrianglesErrorScale < 1 || c.CullDistanceErrorScale < 1 {
		errs = append(errs, errors.New("error scales must be at least 1"))
	}
	if c.MaxNetCullDistanceSquared <= 0 {
		errs = append(errs, errors.New("max_net_cull_distance_squared must be positive"))
	}
	if c.MinDrawDistance < 0 || c.MinDrawDistance >= c.MaxDrawDistance {
		errs = append(errs, fmt.Errorf("draw distance window [%.0f, %.0f) is empty", c.MinDrawDistance, c.MaxDrawDistance))
	}
	if err := c.Tolerance.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Projection.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("projection: %w", err))
	}

	return errors.Join(errs...)
}

// Normalize repairs out-of-order thresholds in place: a triangle bound not
// above its predecessor becomes 1.5x the predecessor, and a LOD count below
// its predecessor becomes the predecessor plus one, capped at MaxLODCount.
// It reports whether anything changed.
func (c *Config) Normalize() bool {
	changed := false
	for i := 1; i < len(c.Thresholds); i++ {
		prev := c.Thresholds[i-1]
		cur := &c.Thresholds[i]
		if cur.Triangles <= prev.Triangles {
			cur.Triangles = int(float64(prev.Triangles) * 1.5)
			changed = true
		}
		if cur.LODCount < prev.LODCount {
			cur.LODCount = min(prev.LODCount+1, max(c.MaxLODCount, prev.LODCount))
			changed = true
		}
	}
	if len(c.TrianglePercentCurve) > 0 && c.TrianglePercentCurve[0] != 1 {
		c.TrianglePercentCurve[0] = 1
		changed = true
	}
	return changed
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	c.Thresholds = append([]Threshold(nil), c.Thresholds...)
	c.TrianglePercentCurve = append([]float32(nil), c.TrianglePercentCurve...)
	floors := make([]asset.PerPlatformFloat, len(c.ScreenSizeFloor))
	for i, f := range c.ScreenSizeFloor {
		floors[i] = f.Clone()
	}
	c.ScreenSizeFloor = floors
	return c
}
