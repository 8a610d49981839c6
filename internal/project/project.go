package project

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/agentx-labs/groundwork/internal/branding"
	"github.com/agentx-labs/groundwork/internal/catalog"
	"github.com/agentx-labs/groundwork/internal/discovery"
	"github.com/agentx-labs/groundwork/internal/discovery/detectors"
	"github.com/agentx-labs/groundwork/internal/facts"
	"github.com/agentx-labs/groundwork/internal/manifest"
	"github.com/agentx-labs/groundwork/internal/platform"
	"github.com/agentx-labs/groundwork/internal/scaffold"
	"github.com/agentx-labs/groundwork/internal/verify"
	"github.com/agentx-labs/groundwork/internal/workflow"
)

// Step names.
const (
	StepDiscover      = "discover"
	StepSnapshot      = "snapshot"
	StepGenerateGuide = "generate-guide"
	StepGenerateDocs  = "generate-docs"
	StepIgnore        = "ignore"
	StepVerify        = "verify"
)

// SnapshotFile is the fact snapshot name inside the state directory.
const SnapshotFile = "facts.json"

// GenerationSteps lists the steps catalog templates may be attached to.
func GenerationSteps() []string {
	return []string{StepGenerateGuide, StepGenerateDocs}
}

// SnapshotPath returns the snapshot location in the target tree.
func SnapshotPath() string {
	return path.Join("/", branding.StateDir(), SnapshotFile)
}

// Options configures a project run.
type Options struct {
	Discovery *discovery.Engine
	Catalog   *catalog.Catalog
	Workers   int
	Backup    scaffold.BackupPolicy
	// Snapshot enables writing the fact snapshot.
	Snapshot bool
	Log      *zap.Logger
}

// Project holds the in-memory state shared by the steps of one run.
type Project struct {
	fs   afero.Fs
	opts Options
	log  *zap.Logger

	store     *facts.Store
	discovery *discovery.Report
	verified  *verify.Report
}

// New returns a project over the target tree fsys, rooted at "/".
func New(fsys afero.Fs, opts Options) *Project {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Project{fs: fsys, opts: opts, log: log}
}

// Facts returns the fact store, or nil before discovery ran.
func (p *Project) Facts() *facts.Store { return p.store }

// Discovery returns the report of the last discovery, if any.
func (p *Project) Discovery() *discovery.Report { return p.discovery }

// Verification returns the report of the verify step, if it ran.
func (p *Project) Verification() *verify.Report { return p.verified }

// Steps returns the fixed step list.
func (p *Project) Steps() []workflow.Step {
	return []workflow.Step{
		{Name: StepDiscover, Blocking: true, Action: p.discover, Rehydrate: p.rediscover},
		{Name: StepSnapshot, DependsOn: []string{StepDiscover}, Action: p.snapshot},
		{Name: StepGenerateGuide, Blocking: true, DependsOn: []string{StepDiscover}, Action: p.generate},
		{Name: StepGenerateDocs, DependsOn: []string{StepDiscover}, Action: p.generate},
		{Name: StepIgnore, Action: p.ignore},
		{Name: StepVerify, DependsOn: []string{StepDiscover}, Action: p.verify},
	}
}

// Engine returns a workflow engine for this project.
func (p *Project) Engine(opts workflow.Options) (*workflow.Engine, error) {
	if opts.Log == nil {
		opts.Log = p.log
	}
	return workflow.New(p.fs, manifest.Path("/"), p.Steps(), opts)
}

func (p *Project) rediscover(ctx context.Context) error {
	p.store, p.discovery = p.opts.Discovery.Discover(ctx, p.fs)
	return nil
}

func (p *Project) discover(ctx context.Context, sc *workflow.StepContext) error {
	if err := p.rediscover(ctx); err != nil {
		return err
	}
	r := p.discovery
	sc.Log.Info("discovery finished",
		zap.Int("facts", r.Facts),
		zap.Int("ran", r.Count(discovery.StatusRan)),
		zap.Int("skipped", r.Count(discovery.StatusSkipped)),
		zap.Int("failed", r.Count(discovery.StatusFailed)))
	for _, err := range r.Errors() {
		sc.Log.Warn("detector failed", zap.Error(err))
	}

	typ := "unknown"
	if f, ok := p.store.Get(detectors.KeyLanguage); ok {
		if s, ok := f.Value.Render(); ok && s != "" {
			typ = s
		}
	}
	sc.Manifest.SetMeta("project.type", typ)
	sc.Manifest.SetMeta("tools", toolAvailability(p.store))
	sc.Note("facts", r.Facts)
	return nil
}

// toolAvailability collects tools.<name>.available facts into a map.
func toolAvailability(s *facts.Store) map[string]bool {
	out := map[string]bool{}
	for _, f := range s.Facts() {
		name, ok := strings.CutPrefix(f.Key, "tools.")
		if !ok {
			continue
		}
		name, ok = strings.CutSuffix(name, ".available")
		if !ok || strings.Contains(name, ".") {
			continue
		}
		out[name] = f.Value.BoolValue()
	}
	return out
}

func (p *Project) snapshot(_ context.Context, sc *workflow.StepContext) error {
	if !p.opts.Snapshot {
		return workflow.Skipf("snapshot disabled")
	}
	data, err := p.store.MarshalSnapshot()
	if err != nil {
		return err
	}
	if err := platform.WriteFileAtomic(p.fs, SnapshotPath(), data, platform.FilePerm); err != nil {
		return fmt.Errorf("writing fact snapshot: %w", err)
	}
	sc.Log.Debug("fact snapshot written", zap.String("path", SnapshotPath()))
	return nil
}

func (p *Project) generate(ctx context.Context, sc *workflow.StepContext) error {
	templates := p.opts.Catalog.ForStep(sc.Name())
	if len(templates) == 0 {
		return workflow.Skipf("no templates for %s", sc.Name())
	}
	g := &scaffold.Generator{
		Fs:       p.fs,
		Facts:    p.store,
		Workers:  p.opts.Workers,
		Backup:   p.opts.Backup,
		Previous: sc.Previous,
		Log:      sc.Log,
	}
	res := g.Generate(ctx, templates)
	sc.Record(res.Records()...)
	for _, f := range res.Malformed() {
		sc.Log.Warn("file left untouched: fix its region markers and run again",
			zap.String("path", f.Path), zap.Error(f.Err))
		sc.FailFile(f.Path, f.Err)
	}
	return res.Err()
}

func (p *Project) ignore(_ context.Context, sc *workflow.StepContext) error {
	changed, err := EnsureGitignore(p.fs, IgnoreLines())
	if err != nil {
		return err
	}
	if changed {
		sc.Log.Info(".gitignore updated")
	}
	return nil
}

func (p *Project) verify(_ context.Context, sc *workflow.StepContext) error {
	r := verify.Run(p.fs, sc.Manifest)
	p.verified = r
	sc.Note("verification", r.Outcome.String())
	for _, f := range r.Findings {
		sc.Log.Debug("verification finding", zap.String("finding", f.String()), zap.Stringer("level", f.Level))
	}
	if r.Outcome == verify.Failed {
		return fmt.Errorf("verification failed with %d finding(s)", r.Count(verify.Failed))
	}
	return nil
}
