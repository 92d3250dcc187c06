package advisor

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshadvisor/internal/asset"
	"github.com/Faultbox/meshadvisor/internal/lod"
	"github.com/Faultbox/meshadvisor/internal/logger"
	"github.com/Faultbox/meshadvisor/internal/rules"
)

// State is a step of the per-asset evaluation state machine.
type State int

// Session states, in order.
const (
	StateInit State = iota
	StateGather
	StateEvaluate
	StateAutoFix
	StateCommit
	StateDone
)

var stateNames = [...]string{"init", "gather", "evaluate", "autofix", "commit", "done"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Session evaluates one mesh. It owns the mesh's snapshot; nothing carries
// over between sessions.
type Session struct {
	mesh  asset.Mesh
	snap  *lod.Snapshot
	state State
	log   *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The snapshot logs through a child.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSession starts a session for m.
func NewSession(m asset.Mesh, opts ...Option) *Session {
	s := &Session{mesh: m, log: logger.Named("advisor")}
	for _, opt := range opts {
		opt(s)
	}
	s.snap = lod.New(lod.WithLogger(s.log.Named("lod")))
	return s
}

// Snapshot returns the session's LOD snapshot.
func (s *Session) Snapshot() *lod.Snapshot { return s.snap }

// State returns the last state entered.
func (s *Session) State() State { return s.state }

func (s *Session) enter(st State) {
	s.state = st
	s.log.Debug("session state", zap.String("mesh", s.snap.Name()), zap.Stringer("state", st))
}

func (s *Session) gather() {
	s.enter(StateGather)
	s.snap.Initialize(s.mesh)
}

// Evaluate gathers a fresh snapshot and runs every enabled check.
func (s *Session) Evaluate(cfg *rules.Config) []Diagnostic {
	s.enter(StateInit)
	s.gather()
	s.enter(StateEvaluate)
	diags := Evaluate(s.snap, cfg)
	s.enter(StateDone)
	return diags
}

// ApplyRecommended resolves the enabled fixable rules and commits once.
// Checks that need operator action are evaluated on the snapshot as
// gathered, before any fix. Every applied fix is reported as a Fixed
// diagnostic, and fixable violations still present after the commit are
// reported as open. A rebuild failure is returned along with the
// diagnostics collected so far.
func (s *Session) ApplyRecommended(cfg *rules.Config) ([]Diagnostic, error) {
	s.enter(StateInit)
	s.gather()
	if s.snap.Mesh() == nil {
		s.enter(StateDone)
		return nil, nil
	}

	s.enter(StateEvaluate)
	c := &collector{subject: s.snap.Name()}
	checkOperatorOnly(c, s.snap, cfg)

	s.enter(StateAutoFix)
	changed := s.autoFix(c, cfg)

	if changed {
		s.enter(StateCommit)
		if err := s.snap.ApplyChanges(); err != nil {
			s.log.Error("commit failed", zap.String("mesh", s.snap.Name()), zap.Error(err))
			s.enter(StateDone)
			return c.out, err
		}
	}

	checkFixable(c, s.snap, cfg)
	s.enter(StateDone)
	return c.out, nil
}

// autoFix edits the snapshot toward the recommended settings and reports
// whether anything changed. Each step runs only when its check is enabled.
func (s *Session) autoFix(c *collector, cfg *rules.Config) bool {
	snap := s.snap
	lod0 := snap.NumTriangles(0)
	if lod0 < 0 {
		return false
	}
	changed := false
	fixTriangles := cfg.Checks.Has(rules.CheckLODTrianglesLimit)

	// Scale LOD 0 down to the triangle budget.
	budget := lod0
	p0 := snap.Reduction(0).PercentTriangles
	if fixTriangles && lod0 > cfg.MaxTriangles {
		p0 = p0 * float32(cfg.MaxTriangles) / float32(lod0)
		_ = snap.SetTrianglePercent(0, p0)
		budget = cfg.MaxTriangles
		changed = true
		c.fixed(rules.CheckLODTrianglesLimit, 0,
			"LOD 0 reduced to %.4f of source to fit %d triangles, found %d", p0, cfg.MaxTriangles, lod0)
	}

	if cfg.Checks.Has(rules.CheckTrianglesLODNum) {
		if required, ok := cfg.RequiredLODCount(budget); ok && required > snap.LODCount() {
			from := snap.LODCount()
			snap.SetLODCount(min(required, lod.MaxLODs))
			changed = true
			c.fixed(rules.CheckTrianglesLODNum, MeshLevel,
				"LOD count raised from %d to %d for %d triangles", from, snap.LODCount(), budget)
		}
	}

	for i := 1; fixTriangles && i < snap.LODCount() && i < len(cfg.TrianglePercentCurve); i++ {
		recommended := cfg.TrianglePercentCurve[i] * p0
		current := snap.Reduction(i).PercentTriangles
		if current > recommended {
			_ = snap.SetTrianglePercent(i, recommended)
			changed = true
			c.fixed(rules.CheckLODTrianglesLimit, i,
				"LOD %d triangle percent lowered from %.4f to %.4f", i, current, recommended)
		}
	}

	if cfg.Checks.Has(rules.CheckLODScreenSizeLimit) && !s.mesh.AutoScreenSize() {
		platform := cfg.TargetPlatform
		for i := 0; i < snap.LODCount(); i++ {
			floor, ok := cfg.ScreenSizeFloorAt(platform, i)
			if !ok {
				continue
			}
			current := snap.LODScreenSize(platform, i)
			if current >= floor {
				continue
			}
			channel := asset.NoPlatform
			if _, has := snap.ScreenSizes(i).PerPlatform[platform]; has && platform != asset.NoPlatform {
				channel = platform
			}
			if snap.SetLODScreenSize(floor, channel, i) {
				changed = true
				c.fixed(rules.CheckLODScreenSizeLimit, i,
					"LOD %d screen size raised from %.4f to %.4f", i, current, floor)
			}
		}
	}

	return changed
}
