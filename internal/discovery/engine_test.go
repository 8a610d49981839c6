package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agentx-labs/groundwork/internal/facts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeDetector struct {
	name     string
	keys     []facts.KeySpec
	ceiling  facts.Confidence
	requires []string
	detect   func(ctx context.Context, fsys afero.Fs, known facts.Reader) ([]facts.Fact, error)
}

func (f *fakeDetector) Name() string              { return f.name }
func (f *fakeDetector) Keys() []facts.KeySpec     { return f.keys }
func (f *fakeDetector) Ceiling() facts.Confidence { return f.ceiling }
func (f *fakeDetector) Requires() []string        { return f.requires }
func (f *fakeDetector) Detect(ctx context.Context, fsys afero.Fs, known facts.Reader) ([]facts.Fact, error) {
	return f.detect(ctx, fsys, known)
}

func str(key string) facts.KeySpec { return facts.KeySpec{Key: key, Kind: facts.KindString} }

func emits(fs ...facts.Fact) func(context.Context, afero.Fs, facts.Reader) ([]facts.Fact, error) {
	return func(context.Context, afero.Fs, facts.Reader) ([]facts.Fact, error) { return fs, nil }
}

func fact(key, value string, c facts.Confidence) facts.Fact {
	return facts.Fact{Key: key, Value: facts.String(value), Confidence: c}
}

func discover(t *testing.T, ds ...Detector) (*facts.Store, *Report) {
	t.Helper()
	e, err := New(ds, Options{Workers: 2})
	require.NoError(t, err)
	return e.Discover(context.Background(), afero.NewMemMapFs())
}

func TestHigherConfidenceWins(t *testing.T) {
	store, report := discover(t,
		&fakeDetector{name: "prose", keys: []facts.KeySpec{str("project.name")}, ceiling: facts.Low,
			detect: emits(fact("project.name", "from-readme", facts.Low))},
		&fakeDetector{name: "manifest", keys: []facts.KeySpec{str("project.name")}, ceiling: facts.High,
			detect: emits(fact("project.name", "from-manifest", facts.High))},
	)
	f, ok := store.Get("project.name")
	require.True(t, ok)
	assert.Equal(t, "from-manifest", f.Value.Str())
	assert.Equal(t, facts.High, f.Confidence)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, FindingConflict, report.Findings[0].Kind)
}

func TestTiesKeepFirstRegistered(t *testing.T) {
	store, _ := discover(t,
		&fakeDetector{name: "first", keys: []facts.KeySpec{str("commands.build")}, ceiling: facts.High,
			detect: emits(fact("commands.build", "make", facts.High))},
		&fakeDetector{name: "second", keys: []facts.KeySpec{str("commands.build")}, ceiling: facts.High,
			detect: emits(fact("commands.build", "npm run build", facts.High))},
	)
	f, _ := store.Get("commands.build")
	assert.Equal(t, "make", f.Value.Str())
}

func TestTiesKeepFirstRegisteredAcrossWaves(t *testing.T) {
	store, report := discover(t,
		&fakeDetector{name: "late-wave", keys: []facts.KeySpec{str("paths.tests")}, ceiling: facts.Medium,
			requires: []string{"language.primary"},
			detect:   emits(fact("paths.tests", "test", facts.Medium))},
		&fakeDetector{name: "lang", keys: []facts.KeySpec{str("language.primary"), str("paths.tests")}, ceiling: facts.High,
			detect: emits(fact("language.primary", "go", facts.High), fact("paths.tests", "spec", facts.Medium))},
	)
	f, _ := store.Get("paths.tests")
	assert.Equal(t, "test", f.Value.Str())

	d, _ := report.Detector("late-wave")
	assert.Equal(t, 1, d.Wave)
}

func TestConfidenceClampedToCeiling(t *testing.T) {
	store, _ := discover(t,
		&fakeDetector{name: "layout", keys: []facts.KeySpec{str("paths.source")}, ceiling: facts.Medium,
			detect: emits(fact("paths.source", "src", facts.High))},
	)
	f, _ := store.Get("paths.source")
	assert.Equal(t, facts.Medium, f.Confidence)
	assert.Equal(t, "layout", f.Source)
}

func TestUndeclaredAndMistypedFactsRejected(t *testing.T) {
	store, report := discover(t,
		&fakeDetector{name: "sloppy", keys: []facts.KeySpec{str("project.name")}, ceiling: facts.High,
			detect: emits(
				fact("project.version", "1.0", facts.High),
				facts.Fact{Key: "project.name", Value: facts.Bool(true), Confidence: facts.High},
			)},
	)
	assert.Zero(t, store.Len())
	d, _ := report.Detector("sloppy")
	assert.Equal(t, StatusInconclusive, d.Status)

	var rejected int
	for _, f := range report.Findings {
		if f.Kind == FindingRejected {
			rejected++
		}
	}
	assert.Equal(t, 2, rejected)
}

func TestFailuresAreIsolated(t *testing.T) {
	store, report := discover(t,
		&fakeDetector{name: "boom", keys: []facts.KeySpec{str("a.b")}, ceiling: facts.High,
			detect: func(context.Context, afero.Fs, facts.Reader) ([]facts.Fact, error) { panic("kaboom") }},
		&fakeDetector{name: "err", keys: []facts.KeySpec{str("a.c")}, ceiling: facts.High,
			detect: func(context.Context, afero.Fs, facts.Reader) ([]facts.Fact, error) {
				return []facts.Fact{fact("a.c", "x", facts.High)}, errors.New("unreadable")
			}},
		&fakeDetector{name: "ok", keys: []facts.KeySpec{str("a.d")}, ceiling: facts.High,
			detect: emits(fact("a.d", "y", facts.High))},
	)
	assert.Equal(t, 1, store.Len())
	assert.True(t, store.Frozen())
	assert.Equal(t, 2, report.Count(StatusFailed))

	errs := report.Errors()
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrDetector)
	}
	var de *DetectorError
	require.ErrorAs(t, errs[0], &de)
	assert.True(t, de.Panic)
	assert.Equal(t, "boom", de.Detector)
}

func TestPrerequisites(t *testing.T) {
	var sawLanguage string
	framework := &fakeDetector{name: "framework", keys: []facts.KeySpec{str("framework.primary")}, ceiling: facts.High,
		requires: []string{"language.primary"},
		detect: func(_ context.Context, _ afero.Fs, known facts.Reader) ([]facts.Fact, error) {
			f, _ := known.Get("language.primary")
			sawLanguage = f.Value.Str()
			return []facts.Fact{fact("framework.primary", "gin", facts.High)}, nil
		}}
	lang := &fakeDetector{name: "go", keys: []facts.KeySpec{str("language.primary")}, ceiling: facts.High,
		detect: emits(fact("language.primary", "go", facts.High))}

	e, err := New([]Detector{framework, lang}, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"go"}, {"framework"}}, e.Waves())

	store, _ := e.Discover(context.Background(), afero.NewMemMapFs())
	assert.Equal(t, "go", sawLanguage)
	_, ok := store.Get("framework.primary")
	assert.True(t, ok)
}

func TestMissingPrerequisiteSkips(t *testing.T) {
	called := false
	_, report := discover(t,
		&fakeDetector{name: "go", keys: []facts.KeySpec{str("language.primary")}, ceiling: facts.High,
			detect: emits()},
		&fakeDetector{name: "framework", keys: []facts.KeySpec{str("framework.primary")}, ceiling: facts.High,
			requires: []string{"language.primary"},
			detect: func(context.Context, afero.Fs, facts.Reader) ([]facts.Fact, error) {
				called = true
				return nil, nil
			}},
	)
	assert.False(t, called)
	d, _ := report.Detector("framework")
	assert.Equal(t, StatusSkipped, d.Status)
	g, _ := report.Detector("go")
	assert.Equal(t, StatusInconclusive, g.Status)
}

func TestCycleIsConstructionError(t *testing.T) {
	_, err := New([]Detector{
		&fakeDetector{name: "a", keys: []facts.KeySpec{str("x.a")}, requires: []string{"x.b"}},
		&fakeDetector{name: "b", keys: []facts.KeySpec{str("x.b")}, requires: []string{"x.a"}},
	}, Options{})
	assert.Error(t, err)
}

func TestConflictingKindsIsConstructionError(t *testing.T) {
	_, err := New([]Detector{
		&fakeDetector{name: "a", keys: []facts.KeySpec{str("x.a")}},
		&fakeDetector{name: "b", keys: []facts.KeySpec{{Key: "x.a", Kind: facts.KindBool}}},
	}, Options{})
	assert.Error(t, err)
}

func TestDuplicateNamesRejected(t *testing.T) {
	_, err := New([]Detector{
		&fakeDetector{name: "a"},
		&fakeDetector{name: "a"},
	}, Options{})
	assert.Error(t, err)
}

func TestDetectorsCannotWrite(t *testing.T) {
	var writeErr error
	_, _ = discover(t, &fakeDetector{name: "vandal", ceiling: facts.High,
		detect: func(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
			writeErr = afero.WriteFile(fsys, "/x", []byte("x"), 0o644)
			return nil, nil
		}})
	assert.Error(t, writeErr)
}

type openDetector struct{ fakeDetector }

func (openDetector) OpenKeys() bool { return true }

func TestOpenDetectorMayUseAnyDeclaredKey(t *testing.T) {
	user := &openDetector{fakeDetector{name: "user", ceiling: facts.High,
		detect: emits(fact("commands.test", "just test", facts.High), fact("nobody.declares", "x", facts.High))}}
	node := &fakeDetector{name: "node", keys: []facts.KeySpec{str("commands.test")}, ceiling: facts.High,
		detect: emits(fact("commands.test", "npm test", facts.High))}

	store, _ := discover(t, user, node)
	f, _ := store.Get("commands.test")
	assert.Equal(t, "just test", f.Value.Str())
	_, ok := store.Get("nobody.declares")
	assert.False(t, ok)
}
