package lod

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshadvisor/internal/asset"
)

// SetLODScreenSize writes value into the default channel of lod, or into the
// override for platform when one is given. Default channels are then
// clamped so each LOD sits at least Epsilon below the one before it.
// Overrides are never clamped against their neighbours.
//
// It returns false and changes nothing when the snapshot has no mesh, lod
// is outside [0, MaxLODs), or the asset derives its screen sizes itself.
func (s *Snapshot) SetLODScreenSize(value float32, platform string, lod int) bool {
	if s.mesh == nil || !validSlot(lod) || s.mesh.AutoScreenSize() {
		return false
	}

	s.resyncScreenSizes()
	s.slots[lod].screenSize.Set(platform, value)

	for i := 1; i < MaxLODs; i++ {
		limit := s.slots[i-1].screenSize.Default - Epsilon
		if s.slots[i].screenSize.Default > limit {
			s.slots[i].screenSize.Default = limit
		}
	}

	s.log.Debug("screen size set",
		zap.String("mesh", s.mesh.Name()),
		zap.Int("lod", lod),
		zap.String("platform", platform),
		zap.Float32("value", value))
	return true
}

// resyncScreenSizes adopts the asset's screen size for every LOD whose
// persisted value changed since the snapshot last read it. LODs the asset
// did not change keep their local, un-applied edits.
func (s *Snapshot) resyncScreenSizes() {
	n := min(s.mesh.LODCount(), MaxLODs)
	for i := 0; i < n; i++ {
		current := s.mesh.LODParams(i).ScreenSize
		if current.Equal(s.slots[i].synced) {
			continue
		}
		s.slots[i].screenSize = current.Clone()
		s.slots[i].synced = current.Clone()
	}
}

// LODScreenSize returns the screen size lod activates at on platform. The
// index is clamped into range. Assets that compute screen sizes themselves
// report their live value.
func (s *Snapshot) LODScreenSize(platform string, lod int) float32 {
	if s.mesh == nil {
		return 0
	}
	lod = max(0, min(lod, MaxLODs-1))
	if s.mesh.AutoScreenSize() {
		return s.mesh.ComputedScreenSize(lod)
	}
	return s.slots[lod].screenSize.Get(platform)
}

// ScreenSizes returns a copy of the edited screen size of lod.
func (s *Snapshot) ScreenSizes(lod int) asset.PerPlatformFloat {
	if !validSlot(lod) {
		return asset.PerPlatformFloat{}
	}
	return s.slots[lod].screenSize.Clone()
}
