package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshadvisor/internal/asset/sqlstore"
)

const props = `
meshes:
  - name: SM_Rock
    path: /Game/Props/SM_Rock
    bounds_radius: 100
    materials: [M_Rock]
    lods:
      - source:
          uv_channels: 1
          sections: [{material: 0, triangles: 12000, vertices: 9000}]
        screen_size: 1
      - source:
          uv_channels: 1
          sections: [{material: 0, triangles: 6000, vertices: 4500}]
        screen_size: 0.3
  - name: SM_Pebble
    path: /Game/Props/SM_Pebble
    bounds_radius: 10
    materials: [M_Rock]
    lods:
      - source:
          uv_channels: 1
          sections: [{material: 0, triangles: 200, vertices: 150}]
        screen_size: 1
components:
  - name: Rock_1
    mesh: SM_Rock
    location: {x: 100, y: 0, z: 0}
`

// isolate keeps config lookup away from the real user directories.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func writeProps(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "props.yaml")
	require.NoError(t, os.WriteFile(path, []byte(props), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCullCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "cull", "--radius", "100")
	require.NoError(t, err)
	require.Equal(t, "draw distance: 5925.9\n", out)

	out, err = run(t, "cull", "--radius", "100", "--screen-size", "0.06")
	require.NoError(t, err)
	require.Equal(t, "draw distance: 2963.0\n", out)

	out, err = run(t, "cull", "--radius", "100", "--distance", "5925.926")
	require.NoError(t, err)
	require.Equal(t, "screen size: 0.0300\n", out)

	_, err = run(t, "cull")
	require.Error(t, err)
}

func TestRulesCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "rules")
	require.NoError(t, err)
	require.Contains(t, out, "static:")
	require.Contains(t, out, "skeletal:")
	require.Contains(t, out, "max_triangles: 30000")

	out, err = run(t, "rules", "--kind", "skeletal")
	require.NoError(t, err)
	require.NotContains(t, out, "static:")
	require.Contains(t, out, "mode: multiplicative")

	_, err = run(t, "rules", "--kind", "landscape")
	require.Error(t, err)
}

func TestScanCommand(t *testing.T) {
	isolate(t)
	reports := filepath.Join(t.TempDir(), "reports")

	out, err := run(t, "scan", "--no-progress", "--report-dir", reports, writeProps(t))
	require.NoError(t, err)
	require.Contains(t, out, "1 meshes, 1 components, 1 skipped, 0 failed")
	require.Contains(t, out, "report: "+reports)

	files, err := os.ReadDir(reports)
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(filepath.Join(reports, files[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(data), "\nSM_Rock\n")
	require.Contains(t, string(data), "\nRock_1\n")
}

const mixed = `
meshes:
  - name: SM_Good
    path: /Game/Props/SM_Good
    bounds_radius: 100
    materials: [M_Rock]
    lods:
      - source:
          uv_channels: 1
          sections: [{material: 0, triangles: 4000, vertices: 3000}]
        screen_size: 1
  - name: SM_Bad
    path: /Game/Props/SM_Bad
    bounds_radius: 100
    materials: [M_Rock]
    lods:
      - screen_size: 1
`

func TestScanContinuesPastBadMesh(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "mixed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mixed), 0644))

	for _, extra := range [][]string{nil, {"--store", filepath.Join(t.TempDir(), "assets.db")}} {
		reports := filepath.Join(t.TempDir(), "reports")
		args := append([]string{"scan", "--no-progress", "--report-dir", reports, path}, extra...)
		out, err := run(t, args...)
		require.NoError(t, err)
		require.Contains(t, out, "1 meshes, 0 components, 0 skipped, 1 failed")

		files, err := os.ReadDir(reports)
		require.NoError(t, err)
		require.Len(t, files, 1)
		data, err := os.ReadFile(filepath.Join(reports, files[0].Name()))
		require.NoError(t, err)
		require.Contains(t, string(data), "\nSM_Bad\n")
		require.Contains(t, string(data), "failed to load")
	}
}

func TestScanRequiresInput(t *testing.T) {
	isolate(t)
	_, err := run(t, "scan", "--report-dir", t.TempDir())
	require.ErrorContains(t, err, "nothing to scan")
}

func TestImportAndFixThroughStore(t *testing.T) {
	isolate(t)
	db := filepath.Join(t.TempDir(), "catalog", "assets.db")

	out, err := run(t, "import", "--store", db, writeProps(t))
	require.NoError(t, err)
	require.Equal(t, "imported 2 meshes into "+db+"\n", out)

	_, err = run(t, "scan", "--fix", "--no-progress", "--store", db, "--report-dir", t.TempDir())
	require.NoError(t, err)

	st, err := sqlstore.Open(db)
	require.NoError(t, err)
	defer st.Close()
	d, err := st.Get(context.Background(), "SM_Rock")
	require.NoError(t, err)
	require.Len(t, d.LODs, 3)
	require.Equal(t, "/Game/Props/SM_Rock", d.Path)
}

func TestImportKeepsGoodMeshes(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "mixed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mixed), 0644))
	db := filepath.Join(t.TempDir(), "assets.db")

	out, err := run(t, "import", "--store", db, path)
	require.ErrorContains(t, err, "1 meshes rejected")
	require.Equal(t, "imported 1 meshes into "+db+"\n", out)

	st, err := sqlstore.Open(db)
	require.NoError(t, err)
	defer st.Close()
	names, err := st.List(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, []string{"SM_Good"}, names)
}

func TestImportRequiresStore(t *testing.T) {
	isolate(t)
	_, err := run(t, "import", writeProps(t))
	require.ErrorContains(t, err, "no catalog")
}
