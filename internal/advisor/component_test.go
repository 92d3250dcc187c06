package advisor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshadvisor/internal/asset"
	"github.com/Faultbox/meshadvisor/internal/rules"
	"github.com/Faultbox/meshadvisor/pkg/math"
)

func crateComponent(t *testing.T, radius float32) Component {
	t.Helper()
	m, err := asset.NewMemoryMesh(asset.Descriptor{
		Name:         "SM_Crate",
		BoundsRadius: radius,
		Materials:    []string{"M"},
		LODs: []asset.LODDescriptor{{
			Source: &asset.RenderStats{UVChannels: 1, Sections: []asset.Section{{Triangles: 800}}},
		}},
	})
	require.NoError(t, err)
	return Component{Name: "Crate_1", Mesh: m, Transform: math.Identity()}
}

func TestCullDistanceUnset(t *testing.T) {
	cfg := rules.DefaultStatic()

	diags := EvaluateComponent(crateComponent(t, 100), &cfg)
	require.Len(t, diags, 1)
	require.Equal(t, rules.CheckCullDistance, diags[0].Check)
	require.Contains(t, diags[0].Message, "no cull distance set")
	require.Contains(t, diags[0].Message, "recommended 5925.")

	// Small meshes get at least the minimum draw distance.
	diags = EvaluateComponent(crateComponent(t, 10), &cfg)
	require.Len(t, diags, 1)
	require.Contains(t, diags[0].Message, "recommended 1500.0")
}

func TestCullDistanceTooLarge(t *testing.T) {
	cfg := rules.DefaultStatic()

	comp := crateComponent(t, 100)
	comp.CachedMaxDrawDistance = 7000
	require.Empty(t, EvaluateComponent(comp, &cfg))

	comp.LDMaxDrawDistance = 10000
	diags := EvaluateComponent(comp, &cfg)
	require.Len(t, diags, 1)
	require.Contains(t, diags[0].Message, "cull distance 10000.0 is too large")
}

func TestCullDistanceUsesWorldRadius(t *testing.T) {
	cfg := rules.DefaultStatic()

	comp := crateComponent(t, 100)
	comp.Transform = math.TRS(math.Vec3{X: 500}, math.QuatFromEuler(0, 45, 0), math.Vec3{X: 2, Y: 2, Z: 2})
	require.InDelta(t, 200, comp.Radius(), 1e-3)

	comp.CachedMaxDrawDistance = 10000
	require.Empty(t, EvaluateComponent(comp, &cfg), "scaled mesh is visible further away")
}

func TestComponentGates(t *testing.T) {
	cfg := rules.DefaultStatic()

	tests := []struct {
		name   string
		mutate func(*Component)
	}{
		{"instanced", func(c *Component) { c.Instanced = true }},
		{"hidden in game", func(c *Component) { c.HiddenInGame = true }},
		{"never distance cull", func(c *Component) { c.NeverDistanceCull = true }},
		{"lod parent", func(c *Component) { c.HasLODParent = true }},
		{"cull distance volume", func(c *Component) {
			c.AllowCullDistanceVolume = true
			c.CachedMaxDrawDistance = 90000
		}},
		{"larger than never cull size", func(c *Component) { c.Transform = math.Scale(60, 60, 60) }},
		{"missing mesh", func(c *Component) { c.Mesh = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := crateComponent(t, 100)
			tt.mutate(&comp)
			require.Empty(t, EvaluateComponent(comp, &cfg))
		})
	}
}

func TestMissingMeshFallsBackToBounds(t *testing.T) {
	cfg := rules.DefaultStatic()
	cfg.SkipComponentIfMeshIsNone = false

	comp := Component{Name: "Orphan", Transform: math.Identity(), BoundsRadius: 100}
	diags := EvaluateComponent(comp, &cfg)
	require.Len(t, diags, 1)
	require.Contains(t, diags[0].Message, "recommended 5925.")
}

func TestNetCullDistance(t *testing.T) {
	cfg := rules.DefaultStatic()

	comp := crateComponent(t, 100)
	comp.Replicated = true
	comp.NetCullDistanceSquared = 15000 * 15000
	require.Empty(t, EvaluateComponent(comp, &cfg), "replicated instances skip the cull distance check")

	comp.NetCullDistanceSquared = 20000 * 20000
	diags := EvaluateComponent(comp, &cfg)
	require.Len(t, diags, 1)
	require.Equal(t, rules.CheckNetCullDistance, diags[0].Check)
	require.Contains(t, diags[0].Message, "recommended at most 64000000")

	cfg.Checks &^= rules.CheckNetCullDistance
	require.Empty(t, EvaluateComponent(comp, &cfg))
}

func TestComponentFromPlacement(t *testing.T) {
	p := asset.Placement{
		Name:                  "Lamp_3",
		Mesh:                  "SM_Lamp",
		Tags:                  []string{"NoOptimizationCheck"},
		Location:              math.Vec3{X: 1, Y: 2, Z: 3},
		Scale:                 math.Vec3{X: 3, Y: 1, Z: 1},
		BoundsRadius:          20,
		Replicated:            true,
		CachedMaxDrawDistance: 4000,
	}
	c := ComponentFromPlacement(p, nil)

	require.Equal(t, "Lamp_3", c.Name)
	require.True(t, c.HasTag("NoOptimizationCheck"))
	require.True(t, c.Replicated)
	require.InDelta(t, 60, c.Radius(), 1e-4)
	require.Equal(t, float32(4000), c.MaxDrawDistance())
}
