package lod

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshadvisor/internal/asset"
)

// ApplyChanges writes the edited LOD count and every active LOD's build,
// reduction and screen-size parameters to the asset, rebuilds it, and
// refreshes the snapshot. Rebuild failures are returned unchanged in kind;
// the snapshot keeps its edits in that case.
func (s *Snapshot) ApplyChanges() error {
	if s.mesh == nil {
		return ErrNoMesh
	}

	var err error
	if s.profile.RestoreImportedOnApply {
		err = s.applyRestoring()
	} else {
		err = s.applyRegenerating()
	}
	if err != nil {
		return fmt.Errorf("apply %s: %w", s.mesh.Name(), err)
	}

	s.log.Info("changes applied",
		zap.String("mesh", s.mesh.Name()),
		zap.Int("lods", s.lodCount))
	s.RefreshStats()
	return nil
}

// params builds the asset parameters for LOD i from the snapshot.
// Negative defaults left by the clamp walk are floored at zero.
func (s *Snapshot) params(i int) asset.LODParams {
	p := s.mesh.LODParams(i)
	p.Build = s.slots[i].build
	p.Reduction = s.slots[i].reduction
	p.ScreenSize = s.slots[i].screenSize.Clone()
	if p.ScreenSize.Default < 0 {
		p.ScreenSize.Default = 0
	}
	return p
}

// applyRegenerating resizes the asset, writes every active LOD and
// regenerates all reduced LODs, imported ones included.
func (s *Snapshot) applyRegenerating() error {
	if err := s.mesh.SetLODCount(s.lodCount); err != nil {
		return err
	}

	var prev float32
	for i := 0; i < s.lodCount; i++ {
		p := s.params(i)
		if s.profile.PinBaseScreenSize {
			if i == 0 {
				p.ScreenSize.Default = 1
			} else if p.ScreenSize.Default >= prev {
				p.ScreenSize.Default = max(prev-BaseScreenSizeStep, 0)
			}
		}
		prev = p.ScreenSize.Default
		if err := s.mesh.SetLODParams(i, p); err != nil {
			return err
		}
	}

	return s.mesh.Rebuild(asset.RebuildOptions{
		RegenerateEvenIfImported: true,
		GenerateBaseLOD:          true,
	})
}

// applyRestoring writes every active LOD and rebuilds without touching
// imported geometry unless an imported LOD now asks for reduction. With an
// unchanged LOD count, every other LOD is first offered a restore of its
// imported geometry.
func (s *Snapshot) applyRestoring() error {
	sameCount := s.mesh.LODCount() == s.lodCount
	if !sameCount {
		if err := s.mesh.SetLODCount(s.lodCount); err != nil {
			return err
		}
	}

	var opts asset.RebuildOptions
	for i := 0; i < s.lodCount; i++ {
		if err := s.mesh.SetLODParams(i, s.params(i)); err != nil {
			return err
		}
		active := s.mesh.LODParams(i).Reduction.Active()
		if !s.mesh.LODSimplified(i) && active {
			if i > 0 {
				opts.RegenerateEvenIfImported = true
			} else {
				opts.GenerateBaseLOD = true
			}
			continue
		}
		if sameCount {
			s.RestoreNonReducedLOD(i)
		}
	}

	return s.mesh.Rebuild(opts)
}

// RestoreNonReducedLOD restores the imported geometry of lod when the asset
// marks it generated but its reduction is no longer active. It returns true
// when a restore happened. A missing import cache is logged and the LOD
// stays generated.
func (s *Snapshot) RestoreNonReducedLOD(lod int) bool {
	if s.mesh == nil || !s.mesh.IsValidLOD(lod) {
		return false
	}
	if !s.mesh.LODSimplified(lod) || s.mesh.LODParams(lod).Reduction.Active() {
		return false
	}
	if !s.mesh.RestoreImportedLOD(lod) {
		s.log.Warn("imported LOD data unavailable, LOD stays generated",
			zap.String("mesh", s.mesh.Name()),
			zap.Int("lod", lod))
		return false
	}
	s.log.Debug("imported LOD restored",
		zap.String("mesh", s.mesh.Name()),
		zap.Int("lod", lod))
	return true
}
