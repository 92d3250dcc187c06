// Package scan drives the advisor over a batch of meshes and placed
// components. Assets are processed one at a time; cancellation is honored
// between assets only.
package scan

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/Faultbox/meshadvisor/internal/advisor"
	"github.com/Faultbox/meshadvisor/internal/asset"
	"github.com/Faultbox/meshadvisor/internal/logger"
	"github.com/Faultbox/meshadvisor/internal/rules"
)

// Mode selects what the scanner does with each mesh.
type Mode string

// Scan modes.
const (
	ModeEvaluate Mode = "evaluate"
	ModeFix      Mode = "fix"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeEvaluate || m == ModeFix
}

// Config holds the batch filters.
type Config struct {
	Mode             Mode     `yaml:"mode"`
	NeverCheckDirs   []string `yaml:"never_check_dirs"`
	GeneratedMarkers []string `yaml:"generated_markers"`
	DisableTag       string   `yaml:"disable_tag"`
	MinTriangles     int      `yaml:"min_triangles"`
	ReclaimEvery     int      `yaml:"reclaim_every"`
}

// DefaultConfig returns the default scan settings.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeEvaluate,
		NeverCheckDirs:   []string{"/Game/Developers", "/Engine"},
		GeneratedMarkers: []string{"HLOD", "SM_PROXY", "SM_LandscapeStreamingProxy"},
		DisableTag:       "DisableMeshCheck",
		MinTriangles:     500,
		ReclaimEvery:     500,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("unknown scan mode %q", c.Mode)
	}
	if c.MinTriangles < 0 {
		return fmt.Errorf("min_triangles must not be negative, got %d", c.MinTriangles)
	}
	if c.ReclaimEvery < 0 {
		return fmt.Errorf("reclaim_every must not be negative, got %d", c.ReclaimEvery)
	}
	return nil
}

// Entry is one mesh to scan. Path is its location in the content tree and
// defaults to the mesh name. An entry whose mesh could not be loaded carries
// the load error in Err and its name in Name; it is reported as failed.
type Entry struct {
	Path string
	Name string
	Mesh asset.Mesh
	Err  error
}

func (e Entry) key() string {
	if e.Path != "" {
		return e.Path
	}
	return e.name()
}

func (e Entry) name() string {
	if e.Mesh != nil {
		return e.Mesh.Name()
	}
	return e.Name
}

// ComponentEntry is one placed instance to scan.
type ComponentEntry struct {
	Path      string
	Component advisor.Component
}

func (e ComponentEntry) key() string {
	if e.Path != "" {
		return e.Path
	}
	return e.Component.Name
}

// Result is the outcome of one run.
type Result struct {
	RunID       uuid.UUID
	Started     time.Time
	Finished    time.Time
	Mode        Mode
	Diagnostics []advisor.Diagnostic

	Meshes     int
	Components int
	Skipped    int
	Failed     int
	// Canceled is set when the context ended before every asset was seen.
	Canceled bool
}

// Open returns the diagnostics that still need action.
func (r *Result) Open() []advisor.Diagnostic {
	return advisor.Open(r.Diagnostics)
}

// Scanner runs batches.
type Scanner struct {
	cfg      Config
	rules    rules.Set
	log      *zap.Logger
	reclaim  func()
	progress io.Writer
	now      func() time.Time
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the scanner logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}

// WithReclaim replaces the memory-reclaim hook run every ReclaimEvery
// assets. A nil hook disables it.
func WithReclaim(fn func()) Option {
	return func(s *Scanner) { s.reclaim = fn }
}

// WithProgress draws a progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(s *Scanner) { s.progress = w }
}

// WithClock sets the time source for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// New creates a scanner.
func New(cfg Config, set rules.Set, opts ...Option) *Scanner {
	s := &Scanner{
		cfg:     cfg,
		rules:   set,
		log:     logger.Named("scan"),
		reclaim: debug.FreeOSMemory,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans meshes, then components. A failing asset becomes a diagnostic
// and the run continues. When ctx ends the partial result is returned with
// Canceled set and the context error.
func (s *Scanner) Run(ctx context.Context, meshes []Entry, comps []ComponentEntry) (*Result, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scan config: %w", err)
	}

	res := &Result{RunID: uuid.New(), Started: s.now(), Mode: s.cfg.Mode}
	log := s.log.With(zap.Stringer("run", res.RunID))
	log.Info("scan started",
		zap.String("mode", string(s.cfg.Mode)),
		zap.Int("meshes", len(meshes)),
		zap.Int("components", len(comps)))

	var bar *progressbar.ProgressBar
	if s.progress != nil {
		bar = progressbar.NewOptions(len(meshes)+len(comps),
			progressbar.OptionSetWriter(s.progress),
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Close()
	}

	seenMeshes := make(map[string]struct{}, len(meshes))
	seenComps := make(map[string]struct{}, len(comps))
	processed := 0
	step := func() {
		processed++
		if bar != nil {
			_ = bar.Add(1)
		}
		if s.reclaim != nil && s.cfg.ReclaimEvery > 0 && processed%s.cfg.ReclaimEvery == 0 {
			log.Debug("reclaiming memory", zap.Int("processed", processed))
			s.reclaim()
		}
	}

	var err error
	for _, e := range meshes {
		if err = ctx.Err(); err != nil {
			break
		}
		s.scanMesh(log, res, seenMeshes, e)
		step()
	}
	if err == nil {
		for _, e := range comps {
			if err = ctx.Err(); err != nil {
				break
			}
			s.scanComponent(log, res, seenComps, e)
			step()
		}
	}

	res.Finished = s.now()
	if err != nil {
		res.Canceled = true
		log.Warn("scan canceled", zap.Int("processed", processed), zap.Error(err))
		return res, err
	}
	log.Info("scan finished",
		zap.Int("meshes", res.Meshes),
		zap.Int("components", res.Components),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Int("diagnostics", len(res.Diagnostics)),
		zap.Duration("elapsed", res.Finished.Sub(res.Started)))
	return res, nil
}

func (s *Scanner) scanMesh(log *zap.Logger, res *Result, seen map[string]struct{}, e Entry) {
	if e.Mesh == nil && e.Err == nil {
		res.Skipped++
		return
	}
	key := e.key()
	if _, dup := seen[key]; dup {
		return
	}
	seen[key] = struct{}{}

	if reason := s.skipPath(key); reason != "" {
		log.Debug("mesh skipped", zap.String("mesh", key), zap.String("reason", reason))
		res.Skipped++
		return
	}
	if e.Err != nil {
		res.Failed++
		log.Warn("mesh not loaded", zap.String("mesh", key), zap.Error(e.Err))
		res.Diagnostics = append(res.Diagnostics, advisor.Diagnostic{
			Subject: e.name(),
			Message: fmt.Sprintf("failed to load: %v", e.Err),
			LOD:     advisor.MeshLevel,
		})
		return
	}
	if tris := e.Mesh.LODRenderStats(0).Triangles; tris <= s.cfg.MinTriangles {
		log.Debug("mesh skipped", zap.String("mesh", key), zap.Int("triangles", tris))
		res.Skipped++
		return
	}

	cfg := s.rules.For(e.Mesh.Kind())
	sess := advisor.NewSession(e.Mesh, advisor.WithLogger(log.Named("advisor")))
	res.Meshes++

	if s.cfg.Mode == ModeEvaluate {
		res.Diagnostics = append(res.Diagnostics, sess.Evaluate(cfg)...)
		return
	}

	diags, err := sess.ApplyRecommended(cfg)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if err != nil {
		res.Failed++
		log.Error("apply failed", zap.String("mesh", key), zap.Error(err))
		res.Diagnostics = append(res.Diagnostics, advisor.Diagnostic{
			Subject: e.Mesh.Name(),
			Message: fmt.Sprintf("failed to apply recommended settings: %v", err),
			LOD:     advisor.MeshLevel,
		})
	}
}

func (s *Scanner) scanComponent(log *zap.Logger, res *Result, seen map[string]struct{}, e ComponentEntry) {
	key := e.key()
	if _, dup := seen[key]; dup {
		return
	}
	seen[key] = struct{}{}

	reason := s.skipPath(key)
	if reason == "" && s.cfg.DisableTag != "" && e.Component.HasTag(s.cfg.DisableTag) {
		reason = "disabled by tag"
	}
	if reason != "" {
		log.Debug("component skipped", zap.String("component", key), zap.String("reason", reason))
		res.Skipped++
		return
	}

	kind := asset.KindStatic
	if e.Component.Mesh != nil {
		kind = e.Component.Mesh.Kind()
	}
	res.Components++
	res.Diagnostics = append(res.Diagnostics, advisor.EvaluateComponent(e.Component, s.rules.For(kind))...)
}

// skipPath returns why an asset at path is excluded, or "".
func (s *Scanner) skipPath(path string) string {
	for _, dir := range s.cfg.NeverCheckDirs {
		dir = strings.TrimSuffix(dir, "/")
		if dir != "" && (path == dir || strings.HasPrefix(path, dir+"/")) {
			return "never-check directory " + dir
		}
	}
	for _, marker := range s.cfg.GeneratedMarkers {
		if marker != "" && strings.Contains(path, marker) {
			return "generated asset " + marker
		}
	}
	return ""
}
