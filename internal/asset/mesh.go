package asset

import (
	"errors"

	"github.com/Faultbox/meshadvisor/pkg/math"
)

// Asset errors.
var (
	ErrInvalidLOD        = errors.New("invalid LOD index")
	ErrLODCount          = errors.New("LOD count out of range")
	ErrNoSourceGeometry  = errors.New("mesh has no LOD 0 source geometry")
	ErrInvalidDescriptor = errors.New("invalid mesh descriptor")
)

// Mesh is the accessor surface over an externally owned mesh asset.
// Implementations are not safe for concurrent writers; callers serialize
// edits to the same asset.
type Mesh interface {
	Name() string
	Kind() Kind

	LODCount() int
	IsValidLOD(i int) bool
	// LODRenderStats returns the zero value for an invalid index.
	LODRenderStats(i int) RenderStats
	// LODParams returns the zero value for an invalid index.
	LODParams(i int) LODParams
	// LODSimplified reports whether LOD i currently holds generated geometry.
	LODSimplified(i int) bool

	SetLODParams(i int, p LODParams) error
	SetLODCount(n int) error
	Rebuild(opts RebuildOptions) error

	MaterialSlots() []MaterialSlot
	BoundingSphereRadius(transform math.Mat4) float32

	// RestoreImportedLOD swaps a generated LOD back to its imported geometry.
	// It returns false when no imported data is available.
	RestoreImportedLOD(i int) bool

	// AutoScreenSize reports whether the asset derives screen sizes itself.
	AutoScreenSize() bool
	ComputedScreenSize(i int) float32
}
