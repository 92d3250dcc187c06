package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshadvisor/internal/advisor"
	"github.com/Faultbox/meshadvisor/internal/rules"
	"github.com/Faultbox/meshadvisor/internal/scan"
)

var started = time.Date(2024, 5, 17, 9, 4, 33, 0, time.UTC)

func sampleResult() *scan.Result {
	return &scan.Result{
		RunID:   uuid.MustParse("6f1c1a52-3d8e-4c7b-9e0a-2f43b8a1c9d0"),
		Started: started,
		Mode:    scan.ModeFix,
		Meshes:  2,
		Skipped: 1,
		Diagnostics: []advisor.Diagnostic{
			{Subject: "SM_Rock", Message: "LOD 1 uses 5 UV channels, limit 4", Check: rules.CheckLODUVChannelLimit, LOD: 1},
			{Subject: "SM_Tree", Message: "LOD count raised from 2 to 3", Check: rules.CheckTrianglesLODNum, LOD: -1, Fixed: true},
			{Subject: "SM_Rock", Message: "mesh uses 20 materials, limit 16", Check: rules.CheckMeshMaterialNumLimit, LOD: -1},
		},
	}
}

func TestWriterPath(t *testing.T) {
	w := NewWriter("out", "")
	require.Equal(t, filepath.Join("out", "MeshCheck_20240517_090433.txt"), w.Path(started))
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := NewWriter(dir, "Nightly")
	w.now = func() time.Time { return started }

	path, err := w.Write(sampleResult())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "Nightly_20240517_090433.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.Contains(t, text, "Run:        6f1c1a52-3d8e-4c7b-9e0a-2f43b8a1c9d0")
	require.Contains(t, text, "Mode:       fix")

	rock := strings.Index(text, "\nSM_Rock\n")
	tree := strings.Index(text, "\nSM_Tree\n")
	require.True(t, rock >= 0 && tree > rock, "subjects in first-seen order")
	require.Contains(t, text, "\tLOD 1 uses 5 UV channels, limit 4\n\tmesh uses 20 materials, limit 16\n")
	require.Contains(t, text, "\tfixed: LOD count raised from 2 to 3\n")
	require.Equal(t, 1, strings.Count(text, "SM_Rock"))
}

func TestWriteTextCanceled(t *testing.T) {
	res := sampleResult()
	res.Canceled = true
	res.Diagnostics = nil

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, res))
	require.Contains(t, buf.String(), "Canceled before completion")
	require.NotContains(t, buf.String(), "SM_")
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, sampleResult()))

	var got yamlReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, "6f1c1a52-3d8e-4c7b-9e0a-2f43b8a1c9d0", got.RunID)
	require.Equal(t, scan.ModeFix, got.Mode)
	require.Equal(t, 2, got.Meshes)
	require.Len(t, got.Diagnostics, 3)
	require.Equal(t, "lod_uv_channel_limit", got.Diagnostics[0].Check)
	require.Equal(t, 1, got.Diagnostics[0].LOD)
	require.True(t, got.Diagnostics[1].Fixed)
	require.Equal(t, "triangles_lod_num", got.Diagnostics[1].Check)
}
