package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshadvisor/internal/asset"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:", WithClock(func() time.Time { return time.Unix(1700000000, 0) }))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func crate(name string, kind asset.Kind) asset.Descriptor {
	return asset.Descriptor{
		Name:         name,
		Kind:         kind,
		BoundsRadius: 40,
		Materials:    []string{"M_Wood"},
		LODs: []asset.LODDescriptor{{
			Source: &asset.RenderStats{
				UVChannels: 1,
				Sections:   []asset.Section{{MaterialIndex: 0, Triangles: 6000, Vertices: 3500}},
			},
			ScreenSize: asset.PerPlatformFloat{Default: 1},
		}},
	}
}

func TestPutGetList(t *testing.T) {
	ctx := context.Background()
	st := openMemory(t)

	require.NoError(t, st.Put(ctx, crate("SM_B", asset.KindStatic)))
	require.NoError(t, st.Put(ctx, crate("SM_A", asset.KindStatic)))
	require.NoError(t, st.Put(ctx, crate("SK_Hero", asset.KindSkeletal)))

	names, err := st.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"SK_Hero", "SM_A", "SM_B"}, names)

	names, err = st.List(ctx, asset.KindSkeletal)
	require.NoError(t, err)
	require.Equal(t, []string{"SK_Hero"}, names)

	d, err := st.Get(ctx, "SM_A")
	require.NoError(t, err)
	require.Equal(t, "SM_A", d.Name)
	require.Equal(t, 6000, d.LODs[0].Source.Sections[0].Triangles)

	_, err = st.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Delete(ctx, "SM_B"))
	names, err = st.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, names, 2)
}

func TestPutRejectsInvalid(t *testing.T) {
	st := openMemory(t)
	err := st.Put(context.Background(), asset.Descriptor{Name: "bad"})
	require.ErrorIs(t, err, asset.ErrInvalidDescriptor)
}

func TestRebuildWritesThrough(t *testing.T) {
	ctx := context.Background()
	st := openMemory(t)
	require.NoError(t, st.Put(ctx, crate("SM_Crate", asset.KindStatic)))

	m, err := st.Load(ctx, "SM_Crate")
	require.NoError(t, err)
	require.NoError(t, m.SetLODCount(2))
	p := m.LODParams(1)
	p.Reduction.PercentTriangles = 0.5
	p.ScreenSize.Default = 0.4
	require.NoError(t, m.SetLODParams(1, p))
	require.NoError(t, m.Rebuild(asset.RebuildOptions{RegenerateEvenIfImported: true}))

	again, err := st.Load(ctx, "SM_Crate")
	require.NoError(t, err)
	require.Equal(t, 2, again.LODCount())
	require.Equal(t, 3000, again.LODRenderStats(1).Triangles)
	require.Equal(t, float32(0.4), again.LODParams(1).ScreenSize.Default)
	require.True(t, again.LODSimplified(1))
}

func TestEditsWaitForRebuild(t *testing.T) {
	ctx := context.Background()
	st := openMemory(t)
	require.NoError(t, st.Put(ctx, crate("SM_Crate", asset.KindStatic)))

	m, err := st.Load(ctx, "SM_Crate")
	require.NoError(t, err)
	require.NoError(t, m.SetLODCount(3))

	d, err := st.Get(ctx, "SM_Crate")
	require.NoError(t, err)
	require.Len(t, d.LODs, 1, "count edits are not written before a rebuild")
	require.Equal(t, 3, m.LODCount())
}

func TestRestoreReportsInMemoryOutcome(t *testing.T) {
	ctx := context.Background()
	st := openMemory(t)
	d := crate("SM_Crate", asset.KindStatic)
	d.LODs = append(d.LODs, asset.LODDescriptor{
		Source: &asset.RenderStats{
			UVChannels: 1,
			Sections:   []asset.Section{{MaterialIndex: 0, Triangles: 2500, Vertices: 1500}},
		},
		ScreenSize: asset.PerPlatformFloat{Default: 0.5},
	})
	require.NoError(t, st.Put(ctx, d))

	m, err := st.Load(ctx, "SM_Crate")
	require.NoError(t, err)
	p := m.LODParams(1)
	p.Reduction.PercentTriangles = 0.5
	require.NoError(t, m.SetLODParams(1, p))
	require.NoError(t, m.Rebuild(asset.RebuildOptions{RegenerateEvenIfImported: true}))
	require.True(t, m.LODSimplified(1))

	require.NoError(t, st.Close())
	require.True(t, m.RestoreImportedLOD(1), "restore happened even though the write failed")
	require.False(t, m.LODSimplified(1))
	require.Equal(t, 2500, m.LODRenderStats(1).Triangles)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meshes.db")
	st, err := Open(path, WithMkdirAll())
	require.NoError(t, err)
	require.NoError(t, st.Put(context.Background(), crate("SM_File", asset.KindStatic)))
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close()
	names, err := st.List(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, []string{"SM_File"}, names)
}
