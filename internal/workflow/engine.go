package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/agentx-labs/groundwork/internal/manifest"
)

// Options tunes a run.
type Options struct {
	// Retry moves a failed blocking step back to pending before running.
	Retry bool
	// Update resets every step of a finished run and runs them all again.
	Update bool
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
	Log *zap.Logger
}

// Engine executes steps against the manifest stored at Path in Fs.
type Engine struct {
	fs    afero.Fs
	path  string
	steps []Step
	opts  Options
	log   *zap.Logger
}

// New validates the step list. Dependencies must name earlier steps.
func New(fsys afero.Fs, path string, steps []Step, opts Options) (*Engine, error) {
	if err := validateSteps(steps); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{fs: fsys, path: path, steps: steps, opts: opts, log: log}, nil
}

// Definitions returns the manifest form of the step list.
func (e *Engine) Definitions() []manifest.Step {
	out := make([]manifest.Step, 0, len(e.steps))
	for _, s := range e.steps {
		out = append(out, manifest.Step{Name: s.Name, Blocking: s.Blocking, DependsOn: s.DependsOn})
	}
	return out
}

// Resume runs the workflow but requires an existing manifest.
func (e *Engine) Resume(ctx context.Context) (*Report, *manifest.Manifest, error) {
	if exists, err := afero.Exists(e.fs, e.path); err != nil {
		return nil, nil, fmt.Errorf("checking manifest: %w", err)
	} else if !exists {
		return nil, nil, fmt.Errorf("%w at %s", ErrNoManifest, e.path)
	}
	return e.Run(ctx)
}

// Run loads or creates the manifest and executes every pending step in
// order. Only blocking step failures, cancellation and manifest I/O errors
// are returned; the report describes everything else.
func (e *Engine) Run(ctx context.Context) (*Report, *manifest.Manifest, error) {
	m, err := e.load()
	if err != nil {
		return nil, nil, err
	}
	report := &Report{RunID: m.RunID, Update: e.opts.Update}

	switch {
	case e.opts.Update:
		m.Reset()
		e.log.Info("update pass: all steps reset", zap.String("run_id", m.RunID))
	case m.Finished():
		report.AlreadyFinished = true
		for _, s := range m.Steps {
			report.Steps = append(report.Steps, stepResult(s, OutcomeResumed))
		}
		e.log.Info("run already finished", zap.String("run_id", m.RunID))
		return report, m, nil
	}

	if failed := m.FailedBlocking(); failed != nil {
		if !e.opts.Retry {
			serr := &StepError{Step: failed.Name, Blocking: true, Err: errors.New(failed.Error)}
			report.Error = serr.Error()
			report.Steps = e.resultsFrom(m, 0)
			return report, m, serr
		}
		if err := m.Retry(failed.Name); err != nil {
			return nil, nil, err
		}
		e.log.Info("retrying failed step", zap.String("step", failed.Name))
	}
	if err := e.save(m); err != nil {
		return nil, nil, err
	}

	executed := map[string]bool{}
	rehydrated := map[string]bool{}
	for i, def := range e.steps {
		if err := ctx.Err(); err != nil {
			report.Steps = append(report.Steps, e.resultsFrom(m, i)...)
			report.Error = err.Error()
			if serr := e.save(m); serr != nil {
				return report, m, errors.Join(err, serr)
			}
			e.log.Warn("run cancelled", zap.String("next_step", def.Name))
			return report, m, err
		}

		ms := m.Step(def.Name)
		if ms.Status.Terminal() {
			report.Steps = append(report.Steps, stepResult(*ms, OutcomeResumed))
			continue
		}

		res, err := e.execute(ctx, m, def, executed, rehydrated, report)
		report.Steps = append(report.Steps, res)
		if err != nil {
			var serr *StepError
			if errors.As(err, &serr) && !serr.Blocking {
				continue
			}
			report.Error = err.Error()
			report.Steps = append(report.Steps, e.resultsFrom(m, i+1)...)
			return report, m, err
		}
	}

	m.Complete(e.opts.Now())
	if err := e.save(m); err != nil {
		return report, m, err
	}
	return report, m, nil
}

func (e *Engine) execute(ctx context.Context, m *manifest.Manifest, def Step, executed, rehydrated map[string]bool, report *Report) (StepResult, error) {
	log := e.log.With(zap.String("step", def.Name))
	ms := m.Step(def.Name)

	if reason := e.blockedBy(m, def); reason != "" {
		if err := e.finish(m, def.Name, manifest.StatusSkipped, ""); err != nil {
			return StepResult{}, err
		}
		log.Info("step skipped", zap.String("reason", reason))
		return stepResult(*ms, OutcomeSkipped), nil
	}

	if err := m.Begin(def.Name, e.opts.Now()); err != nil {
		return StepResult{}, err
	}
	start := time.Now()
	sc := &StepContext{Fs: e.fs, Manifest: m, Log: log, step: def.Name, report: report}

	err := e.rehydrate(ctx, def, executed, rehydrated)
	if err == nil {
		err = run(ctx, def, sc)
	}
	executed[def.Name] = true
	elapsed := time.Since(start)

	if cerr := ctx.Err(); cerr != nil && errors.Is(err, cerr) {
		ms.Files = mergeRecords(ms.Files, sc.files)
		if serr := e.save(m); serr != nil {
			return StepResult{}, errors.Join(cerr, serr)
		}
		log.Warn("step interrupted", zap.Error(err))
		return stepResult(*ms, OutcomeNotRun), cerr
	}

	var status manifest.Status
	var outcome Outcome
	msg := ""
	switch {
	case err == nil:
		status, outcome = manifest.StatusCompleted, OutcomeExecuted
		ms.Files = sc.files
	case errors.Is(err, ErrSkip):
		status, outcome = manifest.StatusSkipped, OutcomeSkipped
		ms.Files = sc.files
		log.Info("step skipped", zap.String("reason", err.Error()))
		err = nil
	default:
		status, outcome = manifest.StatusFailed, OutcomeFailed
		ms.Files = mergeRecords(ms.Files, sc.files)
		msg = err.Error()
	}
	if ferr := e.finish(m, def.Name, status, msg); ferr != nil {
		return StepResult{}, ferr
	}
	report.tally(sc.files, sc.failed)

	res := stepResult(*ms, outcome)
	res.Duration = elapsed
	res.Files = len(sc.files)
	res.Failed = sc.failed
	if err == nil {
		log.Info("step finished", zap.String("status", string(status)), zap.Duration("duration", elapsed))
		return res, nil
	}

	serr := &StepError{Step: def.Name, Blocking: def.Blocking, Err: err}
	var path interface{ FilePath() string }
	if errors.As(err, &path) {
		serr.Path = path.FilePath()
	}
	if def.Blocking {
		log.Error("blocking step failed", zap.Error(err))
	} else {
		log.Warn("step failed", zap.Error(err))
	}
	return res, serr
}

// blockedBy returns a reason when a dependency did not complete.
func (e *Engine) blockedBy(m *manifest.Manifest, def Step) string {
	for _, d := range def.DependsOn {
		dep := m.Step(d)
		if dep.Status == manifest.StatusFailed || dep.Status == manifest.StatusSkipped {
			return fmt.Sprintf("dependency %s is %s", d, dep.Status)
		}
	}
	return ""
}

func (e *Engine) rehydrate(ctx context.Context, def Step, executed, rehydrated map[string]bool) error {
	for _, d := range def.DependsOn {
		if executed[d] || rehydrated[d] {
			continue
		}
		dep := e.step(d)
		if dep.Rehydrate == nil {
			continue
		}
		e.log.Debug("rehydrating step", zap.String("step", d))
		if err := dep.Rehydrate(ctx); err != nil {
			return fmt.Errorf("rehydrating %s: %w", d, err)
		}
		rehydrated[d] = true
	}
	return nil
}

func run(ctx context.Context, def Step, sc *StepContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return def.Action(ctx, sc)
}

func (e *Engine) finish(m *manifest.Manifest, name string, to manifest.Status, msg string) error {
	if err := m.Transition(name, to, msg, e.opts.Now()); err != nil {
		return err
	}
	return e.save(m)
}

func (e *Engine) load() (*manifest.Manifest, error) {
	m, err := manifest.Load(e.fs, e.path)
	if errors.Is(err, manifest.ErrNotFound) {
		m = manifest.New(e.Definitions(), e.opts.Now())
		e.log.Info("starting new run", zap.String("run_id", m.RunID))
		return m, e.save(m)
	}
	if err != nil {
		return nil, err
	}
	if err := e.reconcile(m); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", e.path, err)
	}
	e.log.Info("resuming run", zap.String("run_id", m.RunID))
	return m, nil
}

// reconcile aligns a loaded manifest with the step list: steps the manifest
// lacks are added as pending, definitions are refreshed, and steps unknown
// to the engine are an error.
func (e *Engine) reconcile(m *manifest.Manifest) error {
	known := map[string]bool{}
	for _, s := range e.steps {
		known[s.Name] = true
	}
	for _, s := range m.Steps {
		if !known[s.Name] {
			return fmt.Errorf("%w: %s", manifest.ErrUnknownStep, s.Name)
		}
	}
	steps := make([]manifest.Step, 0, len(e.steps))
	for _, def := range e.Definitions() {
		if ms := m.Step(def.Name); ms != nil {
			ms.Blocking = def.Blocking
			ms.DependsOn = def.DependsOn
			steps = append(steps, *ms)
			continue
		}
		def.Status = manifest.StatusPending
		steps = append(steps, def)
	}
	m.Steps = steps
	return nil
}

func (e *Engine) save(m *manifest.Manifest) error {
	return manifest.Save(e.fs, e.path, m)
}

func (e *Engine) step(name string) Step {
	i := slices.IndexFunc(e.steps, func(s Step) bool { return s.Name == name })
	return e.steps[i]
}

func (e *Engine) resultsFrom(m *manifest.Manifest, from int) []StepResult {
	var out []StepResult
	for _, def := range e.steps[from:] {
		s := m.Step(def.Name)
		o := OutcomeNotRun
		if s.Status.Terminal() {
			o = OutcomeResumed
		}
		out = append(out, stepResult(*s, o))
	}
	return out
}

func stepResult(s manifest.Step, o Outcome) StepResult {
	return StepResult{Name: s.Name, Outcome: o, Status: s.Status, Blocking: s.Blocking, Error: s.Error}
}

// mergeRecords overlays fresh records on the previous ones by path.
func mergeRecords(old, fresh []manifest.FileRecord) []manifest.FileRecord {
	out := append([]manifest.FileRecord(nil), old...)
	for _, f := range fresh {
		i := slices.IndexFunc(out, func(o manifest.FileRecord) bool { return o.Path == f.Path })
		if i >= 0 {
			out[i] = f
			continue
		}
		out = append(out, f)
	}
	return out
}
