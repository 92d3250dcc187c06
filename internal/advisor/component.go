package advisor

import (
	"github.com/Faultbox/meshadvisor/internal/asset"
	"github.com/Faultbox/meshadvisor/internal/rules"
	"github.com/Faultbox/meshadvisor/pkg/math"
)

// recommendedNetCullDistanceSquared caps the suggested net cull distance.
const recommendedNetCullDistanceSquared = 8000 * 8000

// Component is a placed instance of a mesh.
type Component struct {
	Name      string
	Mesh      asset.Mesh
	Transform math.Mat4
	// BoundsRadius is the local bounds radius used when Mesh is nil.
	BoundsRadius float32
	Tags         []string

	Instanced               bool
	HiddenInGame            bool
	Replicated              bool
	NeverDistanceCull       bool
	HasLODParent            bool
	AllowCullDistanceVolume bool

	CachedMaxDrawDistance  float32
	LDMaxDrawDistance      float32
	NetCullDistanceSquared float32
}

// ComponentFromPlacement binds a placement to its resolved mesh, which may
// be nil.
func ComponentFromPlacement(p asset.Placement, m asset.Mesh) Component {
	return Component{
		Name:                    p.Name,
		Mesh:                    m,
		Transform:               p.Transform(),
		BoundsRadius:            p.BoundsRadius,
		Tags:                    p.Tags,
		Instanced:               p.Instanced,
		HiddenInGame:            p.HiddenInGame,
		Replicated:              p.Replicated,
		NeverDistanceCull:       p.NeverDistanceCull,
		HasLODParent:            p.HasLODParent,
		AllowCullDistanceVolume: p.AllowCullDistanceVolume,
		CachedMaxDrawDistance:   p.CachedMaxDrawDistance,
		LDMaxDrawDistance:       p.LDMaxDrawDistance,
		NetCullDistanceSquared:  p.NetCullDistanceSquared,
	}
}

// Radius returns the world-space bounding sphere radius.
func (c Component) Radius() float32 {
	if c.Mesh != nil {
		return c.Mesh.BoundingSphereRadius(c.Transform)
	}
	return c.BoundsRadius * c.Transform.MaxAxisScale()
}

// MaxDrawDistance is the larger of the cached and level-designer distances.
func (c Component) MaxDrawDistance() float32 {
	return max(c.CachedMaxDrawDistance, c.LDMaxDrawDistance)
}

// HasTag reports whether the component carries tag.
func (c Component) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// skipReason explains why a component is exempt from cull checks, or "".
func (c Component) skipReason(cfg *rules.Config) string {
	switch {
	case c.Mesh == nil && cfg.SkipComponentIfMeshIsNone:
		return "no mesh"
	case c.Instanced:
		return "instanced"
	case 2*c.Radius() > cfg.NeverCullSize:
		return "larger than never-cull size"
	case c.AllowCullDistanceVolume && c.CachedMaxDrawDistance > 0:
		return "driven by cull distance volume"
	case c.HiddenInGame:
		return "hidden in game"
	}
	return ""
}

// EvaluateComponent runs the cull and net cull checks for one placed
// instance.
func EvaluateComponent(comp Component, cfg *rules.Config) []Diagnostic {
	if comp.skipReason(cfg) != "" {
		return nil
	}
	c := &collector{subject: comp.Name}
	checkCullDistance(c, comp, cfg)
	checkNetCullDistance(c, comp, cfg)
	return c.out
}

// RecommendedDrawDistance returns the distance at which comp shrinks to
// the configured cull screen size.
func RecommendedDrawDistance(comp Component, cfg *rules.Config) float32 {
	return cfg.Projection.DrawDistance(comp.Radius(), cfg.CullScreenSize)
}

func checkCullDistance(c *collector, comp Component, cfg *rules.Config) {
	if !cfg.Checks.Has(rules.CheckCullDistance) {
		return
	}
	if comp.Replicated || comp.NeverDistanceCull || comp.HasLODParent {
		return
	}

	recommended := RecommendedDrawDistance(comp, cfg)
	current := comp.MaxDrawDistance()
	switch {
	case current > 0:
		if current > recommended*cfg.CullDistanceErrorScale {
			c.add(rules.CheckCullDistance, MeshLevel,
				"cull distance %.1f is too large, recommended %.1f", current, recommended)
		}
	case recommended > 0 && recommended < cfg.MaxDrawDistance:
		recommended = max(recommended, cfg.MinDrawDistance)
		c.add(rules.CheckCullDistance, MeshLevel,
			"no cull distance set (%.1f), recommended %.1f", current, recommended)
	}
}

func checkNetCullDistance(c *collector, comp Component, cfg *rules.Config) {
	if !cfg.Checks.Has(rules.CheckNetCullDistance) || !comp.Replicated {
		return
	}
	if comp.NetCullDistanceSquared > cfg.MaxNetCullDistanceSquared {
		recommended := min(float32(recommendedNetCullDistanceSquared), cfg.MaxNetCullDistanceSquared)
		c.add(rules.CheckNetCullDistance, MeshLevel,
			"net cull distance squared %.0f is too large, recommended at most %.0f",
			comp.NetCullDistanceSquared, recommended)
	}
}
