package advisor

import (
	"strings"

	"github.com/Faultbox/meshadvisor/internal/lod"
	"github.com/Faultbox/meshadvisor/internal/rules"
)

// FixableChecks are the checks ApplyRecommended can resolve.
const FixableChecks = rules.CheckTrianglesLODNum | rules.CheckLODTrianglesLimit | rules.CheckLODScreenSizeLimit

// lodOnlySlotMarker marks material slots reserved for LOD overflow.
const lodOnlySlotMarker = "LOD"

// Evaluate runs every enabled check against snap and returns the
// diagnostics in check order. Rule violations are never errors.
func Evaluate(snap *lod.Snapshot, cfg *rules.Config) []Diagnostic {
	if snap.Mesh() == nil {
		return nil
	}
	c := &collector{subject: snap.Name()}
	checkTrianglesLODNum(c, snap, cfg)
	checkLODNumLimit(c, snap, cfg)
	checkLODTrianglesLimit(c, snap, cfg)
	checkLODScreenSizeLimit(c, snap, cfg)
	checkMaterialsAndUVs(c, snap, cfg)
	return c.out
}

// checkFixable runs the checks ApplyRecommended knows how to resolve.
func checkFixable(c *collector, snap *lod.Snapshot, cfg *rules.Config) {
	checkTrianglesLODNum(c, snap, cfg)
	checkLODTrianglesLimit(c, snap, cfg)
	checkLODScreenSizeLimit(c, snap, cfg)
}

// checkOperatorOnly runs the checks that are never auto-fixed.
func checkOperatorOnly(c *collector, snap *lod.Snapshot, cfg *rules.Config) {
	checkLODNumLimit(c, snap, cfg)
	checkMaterialsAndUVs(c, snap, cfg)
}

func checkMaterialsAndUVs(c *collector, snap *lod.Snapshot, cfg *rules.Config) {
	checkLODUVChannelLimit(c, snap, cfg)
	checkLODMaterialNumLimit(c, snap, cfg)
	checkLODDuplicateMaterials(c, snap, cfg)
	checkMeshMaterialNumLimit(c, snap, cfg)
}

func checkTrianglesLODNum(c *collector, snap *lod.Snapshot, cfg *rules.Config) {
	if !cfg.Checks.Has(rules.CheckTrianglesLODNum) {
		return
	}
	tris := snap.NumTriangles(0)
	if tris < 0 {
		return
	}
	required, ok := cfg.RequiredLODCount(tris)
	if ok && snap.LODCount() < required {
		c.add(rules.CheckTrianglesLODNum, MeshLevel,
			"%d triangles require at least %d LODs, found %d", tris, required, snap.LODCount())
	}
}

func checkLODNumLimit(c *collector, snap *lod.Snapshot, cfg *rules.Config) {
	if !cfg.Checks.Has(rules.CheckLODNumLimit) {
		return
	}
	if snap.LODCount() > cfg.MaxLODCount {
		c.add(rules.CheckLODNumLimit, MeshLevel,
			"LOD count exceeds the limit of %d, found %d", cfg.MaxLODCount, snap.LODCount())
	}
}

func checkLODTrianglesLimit(c *collector, snap *lod.Snapshot, cfg *rules.Config) {
	if !cfg.Checks.Has(rules.CheckLODTrianglesLimit) {
		return
	}
	lod0 := snap.NumTriangles(0)
	for i := 0; i < snap.LODCount(); i++ {
		tris := snap.NumTriangles(i)
		if tris < 0 {
			continue
		}
		recommended := cfg.RecommendedTriangles(i, lod0)
		if float64(tris) <= float64(recommended)*float64(cfg.TrianglesErrorScale) {
			continue
		}
		if i == 0 {
			c.add(rules.CheckLODTrianglesLimit, 0,
				"LOD 0 triangles must not exceed %d, found %d", recommended, tris)
			continue
		}
		c.add(rules.CheckLODTrianglesLimit, i,
			"LOD %d triangles must not exceed %d, found %d (recommended %.4f of LOD 0)",
			i, recommended, tris, cfg.RecommendedPercent(i))
	}
}

func checkLODScreenSizeLimit(c *collector, snap *lod.Snapshot, cfg *rules.Config) {
	if !cfg.Checks.Has(rules.CheckLODScreenSizeLimit) {
		return
	}
	for i := 0; i < snap.LODCount(); i++ {
		floor, ok := cfg.ScreenSizeFloorAt(cfg.TargetPlatform, i)
		if !ok {
			continue
		}
		size := snap.LODScreenSize(cfg.TargetPlatform, i)
		if cfg.Tolerance.Below(size, floor) {
			c.add(rules.CheckLODScreenSizeLimit, i,
				"LOD %d screen size must not be below %.4f, found %.4f", i, floor, size)
		}
	}
}

func checkLODUVChannelLimit(c *collector, snap *lod.Snapshot, cfg *rules.Config) {
	if !cfg.Checks.Has(rules.CheckLODUVChannelLimit) {
		return
	}
	for i := 0; i < snap.LODCount(); i++ {
		if uv := snap.NumUVChannels(i); uv > cfg.MaxUVChannels {
			c.add(rules.CheckLODUVChannelLimit, i,
				"LOD %d uses %d UV channels, limit is %d", i, uv, cfg.MaxUVChannels)
		}
	}
}

func checkLODMaterialNumLimit(c *collector, snap *lod.Snapshot, cfg *rules.Config) {
	if !cfg.Checks.Has(rules.CheckLODMaterialNumLimit) {
		return
	}
	for i := 0; i < snap.LODCount(); i++ {
		if snap.NumTriangles(i) < 0 {
			continue
		}
		if n := snap.NumMaterials(i); n > cfg.PerLODMaxMaterials {
			c.add(rules.CheckLODMaterialNumLimit, i,
				"LOD %d uses %d materials, limit is %d", i, n, cfg.PerLODMaxMaterials)
		}
	}
}

// checkLODDuplicateMaterials flags the second and later sections of a LOD
// that reuse a material index.
func checkLODDuplicateMaterials(c *collector, snap *lod.Snapshot, cfg *rules.Config) {
	if !cfg.Checks.Has(rules.CheckLODDuplicateMaterials) {
		return
	}
	for i := 0; i < snap.LODCount(); i++ {
		seen := make(map[int]bool)
		for _, idx := range snap.SectionMaterials(i) {
			if seen[idx] {
				c.add(rules.CheckLODDuplicateMaterials, i,
					"LOD %d uses material index %d more than once", i, idx)
				continue
			}
			seen[idx] = true
		}
	}
}

func checkMeshMaterialNumLimit(c *collector, snap *lod.Snapshot, cfg *rules.Config) {
	if !cfg.Checks.Has(rules.CheckMeshMaterialNumLimit) {
		return
	}
	n := 0
	for _, slot := range snap.MaterialSlots() {
		if !strings.Contains(slot.Name, lodOnlySlotMarker) {
			n++
		}
	}
	if n > cfg.MaxMaterials {
		c.add(rules.CheckMeshMaterialNumLimit, MeshLevel,
			"mesh uses %d materials, limit is %d", n, cfg.MaxMaterials)
	}
}
