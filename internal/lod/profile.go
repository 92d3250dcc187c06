package lod

import "github.com/Faultbox/meshadvisor/internal/asset"

// Profile captures how ApplyChanges treats one kind of mesh.
type Profile struct {
	// PinBaseScreenSize forces LOD 0 to 1.0 and separates overlapping
	// persisted screen sizes by BaseScreenSizeStep on apply.
	PinBaseScreenSize bool `yaml:"pin_base_screen_size"`
	// RestoreImportedOnApply restores generated LODs whose reduction was
	// switched off before regenerating, when the LOD count is unchanged.
	RestoreImportedOnApply bool `yaml:"restore_imported_on_apply"`
}

// BaseScreenSizeStep separates overlapping screen sizes on apply.
const BaseScreenSizeStep float32 = 0.01

// ProfileFor returns the profile of kind k.
func ProfileFor(k asset.Kind) Profile {
	if k == asset.KindSkeletal {
		return Profile{RestoreImportedOnApply: true}
	}
	return Profile{PinBaseScreenSize: true}
}
