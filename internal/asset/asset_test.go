package asset

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshadvisor/pkg/math"
)

func rockDescriptor() Descriptor {
	return Descriptor{
		Name:         "SM_Rock",
		Kind:         KindStatic,
		BoundsRadius: 100,
		Materials:    []string{"M_Rock", "M_Moss"},
		LODs: []LODDescriptor{
			{
				Source: &RenderStats{
					Vertices:   6000,
					UVChannels: 2,
					Sections: []Section{
						{MaterialIndex: 0, Triangles: 8000},
						{MaterialIndex: 1, Triangles: 2000},
					},
				},
				ScreenSize: PerPlatformFloat{Default: 1},
			},
			{
				Source: &RenderStats{
					Triangles:  4000,
					Vertices:   2500,
					UVChannels: 2,
					Sections:   []Section{{MaterialIndex: 0, Triangles: 4000}},
				},
				ScreenSize: PerPlatformFloat{Default: 0.5},
			},
		},
	}
}

func TestPerPlatformFloat(t *testing.T) {
	var p PerPlatformFloat
	p.Set(NoPlatform, 0.5)
	p.Set("Mobile", 0.3)

	require.Equal(t, float32(0.5), p.Get(NoPlatform))
	require.Equal(t, float32(0.3), p.Get("Mobile"))
	require.Equal(t, float32(0.5), p.Get("Console"))

	c := p.Clone()
	require.True(t, c.Equal(p))
	c.Set("Mobile", 0.2)
	require.False(t, c.Equal(p))
	require.Equal(t, float32(0.3), p.Get("Mobile"))
}

func TestPerPlatformFloatYAML(t *testing.T) {
	var v struct {
		A PerPlatformFloat `yaml:"a"`
		B PerPlatformFloat `yaml:"b"`
	}
	err := yaml.Unmarshal([]byte("a: 0.25\nb:\n  default: 0.5\n  per_platform:\n    Mobile: 0.4\n"), &v)
	require.NoError(t, err)
	require.Equal(t, float32(0.25), v.A.Default)
	require.Equal(t, float32(0.5), v.B.Default)
	require.Equal(t, float32(0.4), v.B.Get("Mobile"))

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	require.Contains(t, string(out), "a: 0.25\n")
	require.Contains(t, string(out), "Mobile: 0.4")
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindStatic, false},
		{"Static", KindStatic, false},
		{" skeletal ", KindSkeletal, false},
		{"landscape", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestReductionActive(t *testing.T) {
	require.False(t, DefaultReductionSettings().Active())
	require.True(t, ReductionSettings{PercentTriangles: 0.5}.Active())
	require.True(t, ReductionSettings{PercentTriangles: 1, MaxDeviation: 2}.Active())
}

func TestDescriptorValidate(t *testing.T) {
	d := rockDescriptor()
	require.NoError(t, d.Validate())

	d.Name = ""
	d.LODs[0].Source = nil
	err := d.Validate()
	require.ErrorIs(t, err, ErrInvalidDescriptor)
	require.Contains(t, err.Error(), "name is required")
	require.Contains(t, err.Error(), "source geometry")

	d = rockDescriptor()
	d.LODs[1].Source.Sections[0].MaterialIndex = 5
	require.ErrorIs(t, d.Validate(), ErrInvalidDescriptor)
}

func TestNewMemoryMeshStats(t *testing.T) {
	m, err := NewMemoryMesh(rockDescriptor())
	require.NoError(t, err)

	require.Equal(t, 2, m.LODCount())
	require.Equal(t, 10000, m.LODRenderStats(0).Triangles)
	require.Equal(t, 4000, m.LODRenderStats(1).Triangles)
	require.False(t, m.LODSimplified(1))
	require.Equal(t, []int{0, 1}, m.LODRenderStats(0).MaterialIndices())
	require.Equal(t, RenderStats{}, m.LODRenderStats(7))
	require.Len(t, m.MaterialSlots(), 2)
}

func TestRebuildGeneratesNewLODs(t *testing.T) {
	m, err := NewMemoryMesh(rockDescriptor())
	require.NoError(t, err)

	require.NoError(t, m.SetLODCount(3))
	p := m.LODParams(2)
	p.Reduction.PercentTriangles = 0.25
	require.NoError(t, m.SetLODParams(2, p))
	require.NoError(t, m.Rebuild(RebuildOptions{}))

	require.True(t, m.LODSimplified(2))
	require.Equal(t, 2500, m.LODRenderStats(2).Triangles)
	require.Len(t, m.LODRenderStats(2).Sections, 2)

	require.ErrorIs(t, m.SetLODCount(0), ErrLODCount)
	require.ErrorIs(t, m.SetLODCount(MaxLODs+1), ErrLODCount)
	require.ErrorIs(t, m.SetLODParams(9, p), ErrInvalidLOD)
}

func TestRebuildImportedLOD(t *testing.T) {
	tests := []struct {
		name        string
		noCache     bool
		regenerate  bool
		wantTris    int
		wantRestore bool
	}{
		{name: "kept without regenerate", regenerate: false, wantTris: 4000, wantRestore: true},
		{name: "regenerated with cache", regenerate: true, wantTris: 2500, wantRestore: true},
		{name: "regenerated without cache", noCache: true, regenerate: true, wantTris: 2500, wantRestore: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := rockDescriptor()
			d.NoImportCache = tt.noCache
			m, err := NewMemoryMesh(d)
			require.NoError(t, err)

			p := m.LODParams(1)
			p.Reduction.PercentTriangles = 0.25
			require.NoError(t, m.SetLODParams(1, p))
			require.NoError(t, m.Rebuild(RebuildOptions{RegenerateEvenIfImported: tt.regenerate}))
			require.Equal(t, tt.wantTris, m.LODRenderStats(1).Triangles)

			require.Equal(t, tt.wantRestore, m.RestoreImportedLOD(1))
			if tt.wantRestore {
				require.Equal(t, 4000, m.LODRenderStats(1).Triangles)
				require.False(t, m.LODSimplified(1))
			}
		})
	}
}

func TestRebuildWithoutSource(t *testing.T) {
	m := &MemoryMesh{name: "empty", reducer: ProportionalReducer{}}
	require.ErrorIs(t, m.Rebuild(RebuildOptions{}), ErrNoSourceGeometry)
}

func TestBoundingSphereRadius(t *testing.T) {
	m, err := NewMemoryMesh(rockDescriptor())
	require.NoError(t, err)

	require.InDelta(t, 100, m.BoundingSphereRadius(math.Identity()), 1e-4)
	require.InDelta(t, 300, m.BoundingSphereRadius(math.Scale(1, 3, 2)), 1e-3)
}

func TestComputedScreenSizeDecreasing(t *testing.T) {
	d := rockDescriptor()
	d.AutoScreenSize = true
	m, err := NewMemoryMesh(d)
	require.NoError(t, err)
	require.NoError(t, m.SetLODCount(4))
	require.NoError(t, m.Rebuild(RebuildOptions{}))

	require.True(t, m.AutoScreenSize())
	require.Equal(t, float32(1), m.ComputedScreenSize(0))
	for i := 1; i < m.LODCount(); i++ {
		require.Less(t, m.ComputedScreenSize(i), m.ComputedScreenSize(i-1))
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	m, err := NewMemoryMesh(rockDescriptor())
	require.NoError(t, err)
	require.NoError(t, m.SetLODCount(3))
	require.NoError(t, m.Rebuild(RebuildOptions{}))

	data, err := MarshalDescriptor(m.Descriptor())
	require.NoError(t, err)
	d, err := UnmarshalDescriptor(data)
	require.NoError(t, err)

	again, err := NewMemoryMesh(d)
	require.NoError(t, err)
	require.Equal(t, m.LODCount(), again.LODCount())
	for i := 0; i < m.LODCount(); i++ {
		require.Equal(t, m.LODRenderStats(i).Triangles, again.LODRenderStats(i).Triangles)
		require.Equal(t, m.LODSimplified(i), again.LODSimplified(i))
		require.True(t, m.LODParams(i).ScreenSize.Equal(again.LODParams(i).ScreenSize))
	}
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(`
meshes:
  - name: SM_Crate
    kind: static
    bounds_radius: 50
    materials: [M_Wood]
    lods:
      - source:
          uv_channels: 1
          sections:
            - {material: 0, triangles: 1200, vertices: 800}
        screen_size: 1
components:
  - name: Crate_1
    mesh: SM_Crate
    location: {x: 10, y: 0, z: 0}
    scale: {x: 2, y: 2, z: 2}
`))
	require.NoError(t, err)
	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Placements, 1)

	m, err := NewMemoryMesh(doc.Meshes[0])
	require.NoError(t, err)
	require.Equal(t, 1200, m.LODRenderStats(0).Triangles)
	require.Equal(t, 800, m.LODRenderStats(0).Vertices)

	xf := doc.Placements[0].Transform()
	require.InDelta(t, 100, m.BoundingSphereRadius(xf), 1e-3)
	require.InDelta(t, 10, xf.Origin().X, 1e-5)

	_, err = ParseDocument([]byte("meshes: {"))
	require.ErrorIs(t, err, ErrInvalidDescriptor)
}
