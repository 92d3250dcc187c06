package asset

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/meshadvisor/pkg/math"
)

// memoryLOD is one LOD slot of a MemoryMesh.
type memoryLOD struct {
	params     LODParams
	imported   *RenderStats // nil when the LOD has no authored geometry
	stats      RenderStats
	simplified bool
}

// MemoryMesh is an in-process Mesh. Render stats are derived from the
// imported stats of each LOD and the configured Reducer on every Rebuild.
type MemoryMesh struct {
	name           string
	path           string
	kind           Kind
	boundsRadius   float32
	autoScreenSize bool
	importCache    bool
	tags           []string
	materials      []MaterialSlot
	lods           []memoryLOD
	reducer        Reducer
}

// MemoryOption configures a MemoryMesh.
type MemoryOption func(*MemoryMesh)

// WithReducer replaces the default ProportionalReducer.
func WithReducer(r Reducer) MemoryOption {
	return func(m *MemoryMesh) {
		if r != nil {
			m.reducer = r
		}
	}
}

// NewMemoryMesh builds a mesh from a descriptor and derives its render
// stats. Imported LODs that are not marked simplified keep their authored
// geometry.
func NewMemoryMesh(d Descriptor, opts ...MemoryOption) (*MemoryMesh, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	kind, _ := ParseKind(string(d.Kind))

	m := &MemoryMesh{
		name:           d.Name,
		path:           d.Path,
		kind:           kind,
		boundsRadius:   d.BoundsRadius,
		autoScreenSize: d.AutoScreenSize,
		importCache:    !d.NoImportCache,
		tags:           append([]string(nil), d.Tags...),
		reducer:        ProportionalReducer{},
	}
	for _, opt := range opts {
		opt(m)
	}
	for i, name := range d.Materials {
		m.materials = append(m.materials, MaterialSlot{Index: i, Name: name})
	}
	for _, ld := range d.LODs {
		l := memoryLOD{
			params: LODParams{
				ScreenSize: ld.ScreenSize.Clone(),
				Build:      ld.Build,
				Reduction:  DefaultReductionSettings(),
			},
			simplified: ld.Simplified,
		}
		if ld.Reduction != nil {
			l.params.Reduction = *ld.Reduction
		}
		if ld.Source != nil {
			src := ld.Source.Clone()
			src.normalize()
			l.imported = &src
		}
		m.lods = append(m.lods, l)
	}
	if err := m.Rebuild(RebuildOptions{}); err != nil {
		return nil, err
	}
	return m, nil
}

// Name implements Mesh.
func (m *MemoryMesh) Name() string { return m.name }

// Path returns the content-tree location the mesh was loaded from.
func (m *MemoryMesh) Path() string { return m.path }

// Kind implements Mesh.
func (m *MemoryMesh) Kind() Kind { return m.kind }

// LODCount implements Mesh.
func (m *MemoryMesh) LODCount() int { return len(m.lods) }

// IsValidLOD implements Mesh.
func (m *MemoryMesh) IsValidLOD(i int) bool { return i >= 0 && i < len(m.lods) }

// LODRenderStats implements Mesh.
func (m *MemoryMesh) LODRenderStats(i int) RenderStats {
	if !m.IsValidLOD(i) {
		return RenderStats{}
	}
	return m.lods[i].stats.Clone()
}

// LODParams implements Mesh.
func (m *MemoryMesh) LODParams(i int) LODParams {
	if !m.IsValidLOD(i) {
		return LODParams{}
	}
	return m.lods[i].params.Clone()
}

// LODSimplified implements Mesh.
func (m *MemoryMesh) LODSimplified(i int) bool {
	return m.IsValidLOD(i) && m.lods[i].simplified
}

// SetLODParams implements Mesh.
func (m *MemoryMesh) SetLODParams(i int, p LODParams) error {
	if !m.IsValidLOD(i) {
		return fmt.Errorf("%s: set params on LOD %d: %w", m.name, i, ErrInvalidLOD)
	}
	m.lods[i].params = p.Clone()
	return nil
}

// SetLODCount implements Mesh. New slots inherit halved screen size and
// reduction from the last existing slot and are generated on next Rebuild.
func (m *MemoryMesh) SetLODCount(n int) error {
	if n < 1 || n > MaxLODs {
		return fmt.Errorf("%s: set LOD count %d: %w", m.name, n, ErrLODCount)
	}
	if n <= len(m.lods) {
		m.lods = m.lods[:n]
		return nil
	}
	for len(m.lods) < n {
		prev := m.lods[len(m.lods)-1].params
		next := LODParams{
			ScreenSize: PerPlatformFloat{Default: prev.ScreenSize.Default * 0.5},
			Build:      prev.Build,
			Reduction:  DefaultReductionSettings(),
		}
		next.Reduction.PercentTriangles = prev.Reduction.PercentTriangles * 0.5
		m.lods = append(m.lods, memoryLOD{params: next})
	}
	return nil
}

// Rebuild implements Mesh. LOD 0's imported geometry is the reduction source
// for every generated LOD. Regenerating over an imported LOD discards its
// authored geometry unless the mesh keeps an import cache.
func (m *MemoryMesh) Rebuild(opts RebuildOptions) error {
	if len(m.lods) == 0 || m.lods[0].imported == nil {
		return fmt.Errorf("%s: rebuild: %w", m.name, ErrNoSourceGeometry)
	}
	base := *m.lods[0].imported

	for i := range m.lods {
		l := &m.lods[i]
		regenAllowed := opts.RegenerateEvenIfImported
		if i == 0 {
			regenAllowed = opts.GenerateBaseLOD
		}
		active := l.params.Reduction.Active()

		switch {
		case l.simplified:
			l.stats = m.reducer.Reduce(base, l.params.Reduction)
		case l.imported != nil && (!active || !regenAllowed):
			l.stats = l.imported.Clone()
		default:
			if i > 0 && l.imported != nil && !m.importCache {
				l.imported = nil
			}
			l.stats = m.reducer.Reduce(base, l.params.Reduction)
			l.simplified = true
		}
	}
	return nil
}

// MaterialSlots implements Mesh.
func (m *MemoryMesh) MaterialSlots() []MaterialSlot {
	return append([]MaterialSlot(nil), m.materials...)
}

// BoundingSphereRadius implements Mesh.
func (m *MemoryMesh) BoundingSphereRadius(transform math.Mat4) float32 {
	return m.boundsRadius * transform.MaxAxisScale()
}

// RestoreImportedLOD implements Mesh.
func (m *MemoryMesh) RestoreImportedLOD(i int) bool {
	if !m.IsValidLOD(i) {
		return false
	}
	l := &m.lods[i]
	if !l.simplified {
		return l.imported != nil
	}
	if l.imported == nil {
		return false
	}
	l.stats = l.imported.Clone()
	l.simplified = false
	return true
}

// AutoScreenSize implements Mesh.
func (m *MemoryMesh) AutoScreenSize() bool { return m.autoScreenSize }

// ComputedScreenSize implements Mesh. Sizes follow the square root of the
// triangle ratio to LOD 0, kept strictly decreasing.
func (m *MemoryMesh) ComputedScreenSize(i int) float32 {
	if !m.IsValidLOD(i) {
		return 0
	}
	base := m.lods[0].stats.Triangles
	size := float32(1)
	for j := 1; j <= i; j++ {
		next := size * 0.75
		if base > 0 {
			ratio := float64(m.lods[j].stats.Triangles) / float64(base)
			next = float32(stdmath.Sqrt(ratio))
		}
		if next > size-0.01 {
			next = size - 0.01
		}
		if next < 0 {
			next = 0
		}
		size = next
	}
	return size
}

// Descriptor exports the current state of the mesh.
func (m *MemoryMesh) Descriptor() Descriptor {
	d := Descriptor{
		Name:           m.name,
		Path:           m.path,
		Kind:           m.kind,
		BoundsRadius:   m.boundsRadius,
		AutoScreenSize: m.autoScreenSize,
		NoImportCache:  !m.importCache,
		Tags:           append([]string(nil), m.tags...),
	}
	for _, slot := range m.materials {
		d.Materials = append(d.Materials, slot.Name)
	}
	for _, l := range m.lods {
		red := l.params.Reduction
		ld := LODDescriptor{
			ScreenSize: l.params.ScreenSize.Clone(),
			Build:      l.params.Build,
			Reduction:  &red,
			Simplified: l.simplified,
		}
		if l.imported != nil {
			src := l.imported.Clone()
			ld.Source = &src
		}
		d.LODs = append(d.LODs, ld)
	}
	return d
}
