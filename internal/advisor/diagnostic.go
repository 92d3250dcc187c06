// Package advisor evaluates LOD snapshots and placed mesh instances against
// a rule set, producing diagnostics and, on request, applying the
// auto-fixable recommendations back to the asset.
package advisor

import (
	"fmt"

	"github.com/Faultbox/meshadvisor/internal/rules"
)

// MeshLevel is the LOD of a diagnostic that concerns the whole mesh.
const MeshLevel = -1

// Diagnostic is one finding about a subject.
type Diagnostic struct {
	Subject string       `yaml:"subject"`
	Message string       `yaml:"message"`
	Check   rules.Checks `yaml:"-"`
	LOD     int          `yaml:"lod"`
	// Fixed marks a record of an applied auto-fix rather than an open issue.
	Fixed bool `yaml:"fixed,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Fixed {
		return fmt.Sprintf("%s: fixed: %s", d.Subject, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Subject, d.Message)
}

// CheckName is the name of the check that produced d.
func (d Diagnostic) CheckName() string {
	return d.Check.String()
}

// collector appends diagnostics for one subject.
type collector struct {
	subject string
	out     []Diagnostic
}

func (c *collector) add(check rules.Checks, lod int, format string, args ...any) {
	c.out = append(c.out, Diagnostic{
		Subject: c.subject,
		Message: fmt.Sprintf(format, args...),
		Check:   check,
		LOD:     lod,
	})
}

func (c *collector) fixed(check rules.Checks, lod int, format string, args ...any) {
	c.add(check, lod, format, args...)
	c.out[len(c.out)-1].Fixed = true
}

// Open returns the diagnostics that still need action.
func Open(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if !d.Fixed {
			out = append(out, d)
		}
	}
	return out
}

// Filter returns the diagnostics produced by any check in mask.
func Filter(diags []Diagnostic, mask rules.Checks) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Check&mask != 0 {
			out = append(out, d)
		}
	}
	return out
}
