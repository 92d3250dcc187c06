// Package lod holds the editable per-LOD view of one mesh asset: derived
// render statistics, screen sizes kept strictly decreasing across levels,
// and the commit path that writes edits back and rebuilds the asset.
package lod

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/meshadvisor/internal/asset"
	"github.com/Faultbox/meshadvisor/internal/logger"
)

const (
	// MaxLODs is the fixed number of LOD slots a snapshot tracks.
	MaxLODs = asset.MaxLODs
	// AllLODs asks NumMaterials for the whole-mesh slot count.
	AllLODs = -1
	// Epsilon is the minimum gap between adjacent default screen sizes.
	Epsilon float32 = 1e-4
)

// ErrNoMesh is returned by mutating calls on a snapshot without an asset.
var ErrNoMesh = errors.New("snapshot has no mesh")

// slot is the snapshot state of one LOD index.
type slot struct {
	triangles  int
	vertices   int
	uvChannels int
	materials  []int

	screenSize asset.PerPlatformFloat
	// synced is the asset's screen size as of the last read.
	synced    asset.PerPlatformFloat
	build     asset.BuildSettings
	reduction asset.ReductionSettings
}

func emptySlot() slot {
	return slot{reduction: asset.DefaultReductionSettings()}
}

// Snapshot is the editable LOD state of one mesh. It holds a non-owning
// reference to the asset; callers serialize edits to the same asset.
type Snapshot struct {
	mesh       asset.Mesh
	lodCount   int
	statCount  int
	slots      [MaxLODs]slot
	profile    Profile
	profileSet bool
	log        *zap.Logger
}

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithLogger sets the snapshot logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Snapshot) {
		if l != nil {
			s.log = l
		}
	}
}

// WithProfile overrides the kind-derived profile.
func WithProfile(p Profile) Option {
	return func(s *Snapshot) {
		s.profile = p
		s.profileSet = true
	}
}

// New returns an empty snapshot. Call Initialize before use.
func New(opts ...Option) *Snapshot {
	s := &Snapshot{log: logger.Named("lod")}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

// Initialize binds the snapshot to m and reads every derived field once.
// A nil mesh leaves the snapshot zeroed; accessors then return sentinels.
func (s *Snapshot) Initialize(m asset.Mesh) {
	s.mesh = m
	if m != nil && !s.profileSet {
		s.profile = ProfileFor(m.Kind())
	}
	s.RefreshStats()
}

// RefreshStats re-reads LOD count, statistics and parameters from the asset,
// discarding un-applied edits.
func (s *Snapshot) RefreshStats() {
	s.reset()
	if s.mesh == nil {
		return
	}

	n := min(s.mesh.LODCount(), MaxLODs)
	s.lodCount = n
	s.statCount = n
	for i := 0; i < n; i++ {
		stats := s.mesh.LODRenderStats(i)
		params := s.mesh.LODParams(i)
		s.slots[i] = slot{
			triangles:  stats.Triangles,
			vertices:   stats.Vertices,
			uvChannels: stats.UVChannels,
			materials:  stats.MaterialIndices(),
			screenSize: params.ScreenSize.Clone(),
			synced:     params.ScreenSize.Clone(),
			build:      params.Build,
			reduction:  params.Reduction,
		}
	}
	s.log.Debug("snapshot refreshed",
		zap.String("mesh", s.mesh.Name()),
		zap.Int("lods", n),
		zap.Int("triangles", s.slots[0].triangles))
}

func (s *Snapshot) reset() {
	s.lodCount = 0
	s.statCount = 0
	for i := range s.slots {
		s.slots[i] = emptySlot()
	}
}

// Mesh returns the bound asset, or nil.
func (s *Snapshot) Mesh() asset.Mesh { return s.mesh }

// Name returns the bound asset's name, or "".
func (s *Snapshot) Name() string {
	if s.mesh == nil {
		return ""
	}
	return s.mesh.Name()
}

// Profile returns the active kind profile.
func (s *Snapshot) Profile() Profile { return s.profile }

// LODCount returns the editable LOD count.
func (s *Snapshot) LODCount() int { return s.lodCount }

// SetLODCount changes the editable LOD count, clamped to [0, MaxLODs].
// The asset is untouched until ApplyChanges.
// Slots beyond the asset's LOD count inherit the build settings of the
// slot before them.
func (s *Snapshot) SetLODCount(n int) {
	n = max(0, min(n, MaxLODs))
	for i := max(s.lodCount, s.statCount, 1); i < n; i++ {
		s.slots[i].build = s.slots[i-1].build
	}
	s.lodCount = n
}

// hasStats reports whether lod indexes statistics read from the asset.
func (s *Snapshot) hasStats(lod int) bool {
	return s.mesh != nil && lod >= 0 && lod < s.lodCount && lod < s.statCount
}

// NumTriangles returns the triangle count of lod, or -1 when unknown.
func (s *Snapshot) NumTriangles(lod int) int {
	if !s.hasStats(lod) {
		return -1
	}
	return s.slots[lod].triangles
}

// NumVertices returns the vertex count of lod, or -1 when unknown.
func (s *Snapshot) NumVertices(lod int) int {
	if !s.hasStats(lod) {
		return -1
	}
	return s.slots[lod].vertices
}

// NumUVChannels returns the UV channel count of lod, or -1 when unknown.
func (s *Snapshot) NumUVChannels(lod int) int {
	if !s.hasStats(lod) {
		return -1
	}
	return s.slots[lod].uvChannels
}

// NumMaterials returns the section count of lod. Any out-of-range index,
// AllLODs included, yields the mesh's total material slot count. Without a
// mesh it returns -1.
func (s *Snapshot) NumMaterials(lod int) int {
	if s.mesh == nil {
		return -1
	}
	if !s.hasStats(lod) {
		return len(s.mesh.MaterialSlots())
	}
	return len(s.slots[lod].materials)
}

// SectionMaterials returns the material index of each section of lod.
func (s *Snapshot) SectionMaterials(lod int) []int {
	if !s.hasStats(lod) {
		return nil
	}
	return append([]int(nil), s.slots[lod].materials...)
}

// MaterialSlots returns the asset's material slots.
func (s *Snapshot) MaterialSlots() []asset.MaterialSlot {
	if s.mesh == nil {
		return nil
	}
	return s.mesh.MaterialSlots()
}

// Simplified reports whether the asset currently holds generated geometry
// for lod.
func (s *Snapshot) Simplified(lod int) bool {
	return s.mesh != nil && s.mesh.LODSimplified(lod)
}

func validSlot(lod int) bool {
	return lod >= 0 && lod < MaxLODs
}

// Reduction returns the edited reduction settings of lod.
func (s *Snapshot) Reduction(lod int) asset.ReductionSettings {
	if !validSlot(lod) {
		return asset.DefaultReductionSettings()
	}
	return s.slots[lod].reduction
}

// SetReduction replaces the reduction settings of lod.
func (s *Snapshot) SetReduction(lod int, r asset.ReductionSettings) error {
	if !validSlot(lod) {
		return asset.ErrInvalidLOD
	}
	s.slots[lod].reduction = r
	return nil
}

// SetTrianglePercent edits the one reduction field the advisor owns.
func (s *Snapshot) SetTrianglePercent(lod int, percent float32) error {
	if !validSlot(lod) {
		return asset.ErrInvalidLOD
	}
	s.slots[lod].reduction.PercentTriangles = percent
	return nil
}

// Build returns the edited build settings of lod.
func (s *Snapshot) Build(lod int) asset.BuildSettings {
	if !validSlot(lod) {
		return asset.BuildSettings{}
	}
	return s.slots[lod].build
}

// SetBuild replaces the build settings of lod.
func (s *Snapshot) SetBuild(lod int, b asset.BuildSettings) error {
	if !validSlot(lod) {
		return asset.ErrInvalidLOD
	}
	s.slots[lod].build = b
	return nil
}
