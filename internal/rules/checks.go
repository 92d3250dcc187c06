package rules

import (
	"fmt"
	"math/bits"
	"strings"

	"gopkg.in/yaml.v3"
)

// Checks is a set of evaluation checks.
type Checks uint32

// Individual checks.
const (
	CheckCullDistance Checks = 1 << iota
	CheckNetCullDistance
	CheckTrianglesLODNum
	CheckLODNumLimit
	CheckLODTrianglesLimit
	CheckLODScreenSizeLimit
	CheckLODMaterialNumLimit
	CheckLODUVChannelLimit
	CheckLODDuplicateMaterials
	CheckMeshMaterialNumLimit

	// AllChecks enables every check.
	AllChecks = CheckCullDistance | CheckNetCullDistance | CheckTrianglesLODNum |
		CheckLODNumLimit | CheckLODTrianglesLimit | CheckLODScreenSizeLimit |
		CheckLODMaterialNumLimit | CheckLODUVChannelLimit | CheckLODDuplicateMaterials |
		CheckMeshMaterialNumLimit
)

var checkNames = []struct {
	check Checks
	name  string
}{
	{CheckCullDistance, "cull_distance"},
	{CheckNetCullDistance, "net_cull_distance"},
	{CheckTrianglesLODNum, "triangles_lod_num"},
	{CheckLODNumLimit, "lod_num_limit"},
	{CheckLODTrianglesLimit, "lod_triangles_limit"},
	{CheckLODScreenSizeLimit, "lod_screen_size_limit"},
	{CheckLODMaterialNumLimit, "lod_material_num_limit"},
	{CheckLODUVChannelLimit, "lod_uv_channel_limit"},
	{CheckLODDuplicateMaterials, "lod_duplicate_materials"},
	{CheckMeshMaterialNumLimit, "mesh_material_num_limit"},
}

// Has reports whether every check in f is enabled.
func (c Checks) Has(f Checks) bool {
	return c&f == f
}

// Names lists the enabled checks in declaration order.
func (c Checks) Names() []string {
	names := make([]string, 0, bits.OnesCount32(uint32(c)))
	for _, cn := range checkNames {
		if c.Has(cn.check) {
			names = append(names, cn.name)
		}
	}
	return names
}

func (c Checks) String() string {
	if c == 0 {
		return "none"
	}
	return strings.Join(c.Names(), "|")
}

// ParseCheck resolves one check name. "all" selects every check.
func ParseCheck(name string) (Checks, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "all" {
		return AllChecks, nil
	}
	for _, cn := range checkNames {
		if cn.name == name {
			return cn.check, nil
		}
	}
	return 0, fmt.Errorf("unknown check %q", name)
}

// MarshalYAML encodes the set as a list of names.
func (c Checks) MarshalYAML() (any, error) {
	return c.Names(), nil
}

// UnmarshalYAML decodes a list of check names.
func (c *Checks) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	if err := node.Decode(&names); err != nil {
		return err
	}
	var out Checks
	for _, n := range names {
		f, err := ParseCheck(n)
		if err != nil {
			return err
		}
		out |= f
	}
	*c = out
	return nil
}
