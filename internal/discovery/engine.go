package discovery

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gammazero/toposort"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentx-labs/groundwork/internal/facts"
)

// DefaultWorkers bounds detector concurrency within a wave.
const DefaultWorkers = 4

// Options configures an Engine.
type Options struct {
	Workers int
	Log     *zap.Logger
}

// Engine runs a fixed, ordered set of detectors.
type Engine struct {
	detectors []Detector
	own       []*facts.Schema
	schema    *facts.Schema
	waves     [][]int
	workers   int
	log       *zap.Logger
}

// New validates the detector set and plans its waves. Duplicate names,
// conflicting key kinds and prerequisite cycles are construction errors.
func New(detectors []Detector, opts Options) (*Engine, error) {
	e := &Engine{
		detectors: detectors,
		workers:   opts.Workers,
		log:       opts.Log,
	}
	if e.workers <= 0 {
		e.workers = DefaultWorkers
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}

	all, err := facts.NewSchema()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, d := range detectors {
		if seen[d.Name()] {
			return nil, fmt.Errorf("duplicate detector %q", d.Name())
		}
		seen[d.Name()] = true

		own, err := facts.NewSchema(d.Keys()...)
		if err != nil {
			return nil, fmt.Errorf("detector %s: %w", d.Name(), err)
		}
		if err := all.Add(d.Keys()...); err != nil {
			return nil, fmt.Errorf("detector %s: %w", d.Name(), err)
		}
		e.own = append(e.own, own)
	}
	e.schema = all

	if e.waves, err = e.plan(); err != nil {
		return nil, err
	}
	return e, nil
}

// Schema returns every key the detectors may produce.
func (e *Engine) Schema() *facts.Schema { return e.schema }

// Waves returns detector names grouped by wave.
func (e *Engine) Waves() [][]string {
	out := make([][]string, len(e.waves))
	for i, wave := range e.waves {
		for _, idx := range wave {
			out[i] = append(out[i], e.detectors[idx].Name())
		}
	}
	return out
}

// plan orders detectors so that each runs after the producers of the keys it
// requires, and groups them by depth in that order.
func (e *Engine) plan() ([][]int, error) {
	var edges []toposort.Edge
	preds := make([][]int, len(e.detectors))
	for i, d := range e.detectors {
		for _, key := range d.Requires() {
			for j := range e.detectors {
				if j == i {
					continue
				}
				if _, ok := e.own[j].Lookup(key); ok {
					edges = append(edges, toposort.Edge{j, i})
					preds[i] = append(preds[i], j)
				}
			}
		}
	}

	depth := make([]int, len(e.detectors))
	if len(edges) > 0 {
		sorted, err := toposort.Toposort(edges)
		if err != nil {
			return nil, fmt.Errorf("detector prerequisites form a cycle: %w", err)
		}
		for _, n := range sorted {
			i := n.(int)
			for _, p := range preds[i] {
				if depth[p]+1 > depth[i] {
					depth[i] = depth[p] + 1
				}
			}
		}
	}

	var waves [][]int
	for i, d := range depth {
		for len(waves) <= d {
			waves = append(waves, nil)
		}
		waves[d] = append(waves[d], i)
	}
	return waves, nil
}

type outcome struct {
	facts   []facts.Fact
	err     error
	skipped string
	dur     time.Duration
}

// Discover runs every detector against fsys and returns the frozen store.
// fsys is wrapped read-only so detectors cannot modify the target.
func (e *Engine) Discover(ctx context.Context, fsys afero.Fs) (*facts.Store, *Report) {
	start := time.Now()
	ro := afero.NewReadOnlyFs(fsys)

	results := make([]outcome, len(e.detectors))
	waveOf := make([]int, len(e.detectors))
	known := facts.NewStore()

	for w, wave := range e.waves {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for _, idx := range wave {
			waveOf[idx] = w
			d := e.detectors[idx]
			if missing := missingPrereq(d, known); missing != "" {
				results[idx] = outcome{skipped: missing}
				continue
			}
			g.Go(func() error {
				results[idx] = e.run(gctx, d, ro, known)
				return nil
			})
		}
		_ = g.Wait()

		// Barrier: later waves read what this one found.
		for _, idx := range wave {
			for _, f := range e.accept(idx, results[idx].facts, nil) {
				_, _ = known.Propose(f)
			}
		}
	}

	report := &Report{}
	store := e.fold(results, waveOf, report)
	store.Freeze()
	report.Facts = store.Len()
	report.Duration = time.Since(start)

	e.log.Debug("discovery finished",
		zap.Int("facts", report.Facts),
		zap.Int("failed", report.Count(StatusFailed)),
		zap.Duration("duration", report.Duration))
	return store, report
}

// fold merges every detector's accepted facts in registration order, so that
// confidence ties go to the earlier detector regardless of wave.
func (e *Engine) fold(results []outcome, waveOf []int, report *Report) *facts.Store {
	store := facts.NewStore()
	owner := map[string]string{}

	for idx, d := range e.detectors {
		res := results[idx]
		dr := DetectorReport{Name: d.Name(), Wave: waveOf[idx], Duration: res.dur}

		switch {
		case res.skipped != "":
			dr.Status = StatusSkipped
			report.add(Finding{Detector: d.Name(), Kind: FindingSkipped, Key: res.skipped, Message: "prerequisite not met: " + res.skipped})
		case res.err != nil:
			dr.Status = StatusFailed
			dr.Err = res.err
			report.add(Finding{Detector: d.Name(), Kind: FindingError, Message: res.err.Error()})
			e.log.Warn("detector failed", zap.String("detector", d.Name()), zap.Error(res.err))
		default:
			accepted := e.accept(idx, res.facts, report)
			dr.Status = StatusInconclusive
			if len(accepted) > 0 {
				dr.Status = StatusRan
			}
			for _, f := range accepted {
				dr.Keys = append(dr.Keys, f.Key)
				prev, had := store.Get(f.Key)
				out, err := store.Propose(f)
				if err != nil {
					report.add(Finding{Detector: d.Name(), Kind: FindingRejected, Key: f.Key, Message: err.Error()})
					continue
				}
				switch {
				case out == facts.Replaced && !prev.Value.Equal(f.Value):
					report.add(conflict(f, d.Name(), prev, owner[f.Key]))
				case out == facts.Kept && had && !prev.Value.Equal(f.Value):
					report.add(conflict(prev, owner[f.Key], f, d.Name()))
				}
				if out != facts.Kept {
					owner[f.Key] = d.Name()
				}
			}
		}
		report.Detectors = append(report.Detectors, dr)
	}
	return store
}

// accept validates facts against the detector's declarations and clamps
// their confidence. Rejections are reported when report is non-nil.
func (e *Engine) accept(idx int, found []facts.Fact, report *Report) []facts.Fact {
	d := e.detectors[idx]
	sch := e.own[idx]
	if isOpen(d) {
		sch = e.schema
	}

	var out []facts.Fact
	for _, f := range found {
		kind, ok := sch.Lookup(f.Key)
		if !ok {
			if report != nil {
				report.add(Finding{Detector: d.Name(), Kind: FindingRejected, Key: f.Key, Message: "undeclared key"})
			}
			continue
		}
		if vk := f.Value.Kind(); vk != facts.KindNull && vk != kind {
			if report != nil {
				report.add(Finding{Detector: d.Name(), Kind: FindingRejected, Key: f.Key,
					Message: fmt.Sprintf("value is %s, key is declared %s", vk, kind)})
			}
			continue
		}
		f.Confidence = facts.Min(f.Confidence, d.Ceiling())
		if f.Source == "" {
			f.Source = d.Name()
		}
		out = append(out, f)
	}
	return out
}

// run executes one detector, converting panics into DetectorErrors.
func (e *Engine) run(ctx context.Context, d Detector, fsys afero.Fs, known facts.Reader) (res outcome) {
	start := time.Now()
	defer func() {
		res.dur = time.Since(start)
		if r := recover(); r != nil {
			e.log.Error("detector panicked", zap.String("detector", d.Name()), zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			res = outcome{err: &DetectorError{Detector: d.Name(), Panic: true, Err: fmt.Errorf("%v", r)}, dur: time.Since(start)}
		}
	}()

	found, err := d.Detect(ctx, fsys, known)
	if err != nil {
		return outcome{err: &DetectorError{Detector: d.Name(), Err: err}}
	}
	return outcome{facts: found}
}

func missingPrereq(d Detector, known facts.Reader) string {
	for _, key := range d.Requires() {
		if _, ok := known.Get(key); !ok {
			return key
		}
	}
	return ""
}

func conflict(winner facts.Fact, winnerBy string, loser facts.Fact, loserBy string) Finding {
	return Finding{
		Detector: loserBy,
		Kind:     FindingConflict,
		Key:      winner.Key,
		Message: fmt.Sprintf("kept %#v from %s (%s) over %#v from %s (%s)",
			winner.Value, winnerBy, winner.Confidence, loser.Value, loserBy, loser.Confidence),
	}
}
