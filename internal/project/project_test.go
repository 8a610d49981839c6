package project

import (
	"context"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agentx-labs/groundwork/internal/catalog"
	"github.com/agentx-labs/groundwork/internal/discovery"
	"github.com/agentx-labs/groundwork/internal/discovery/detectors"
	"github.com/agentx-labs/groundwork/internal/manifest"
	"github.com/agentx-labs/groundwork/internal/scaffold"
	"github.com/agentx-labs/groundwork/internal/workflow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func goProject(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"/go.mod":               "module example.com/rocket\n\ngo 1.22\n",
		"/main.go":              "package main\n\nfunc main() {}\n",
		"/README.md":            "# Rocket\n\nLaunches things.\n",
		"/.git/HEAD":            "ref: refs/heads/main\n",
		"/.gitignore":           "bin/\n",
		"/internal/a/a.go":      "package a\n",
		"/internal/a/a_test.go": "package a\n",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
	return fsys
}

func newProject(t *testing.T, fsys afero.Fs, snapshot bool) *Project {
	t.Helper()
	engine, err := discovery.New(detectors.Default(detectors.Options{}), discovery.Options{Workers: 2})
	require.NoError(t, err)
	cat, err := catalog.Default(catalog.Options{Schema: engine.Schema(), Steps: GenerationSteps()})
	require.NoError(t, err)
	return New(fsys, Options{
		Discovery: engine,
		Catalog:   cat,
		Workers:   2,
		Backup:    scaffold.BackupOnConflict,
		Snapshot:  snapshot,
	})
}

func run(t *testing.T, p *Project, opts workflow.Options) (*workflow.Report, *manifest.Manifest, error) {
	t.Helper()
	e, err := p.Engine(opts)
	require.NoError(t, err)
	return e.Run(context.Background())
}

func read(t *testing.T, fsys afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, name)
	require.NoError(t, err)
	return string(data)
}

func TestRunScaffoldsGoProject(t *testing.T) {
	fsys := goProject(t)
	p := newProject(t, fsys, true)

	report, m, err := run(t, p, workflow.Options{})
	require.NoError(t, err)
	for _, s := range m.Steps {
		assert.Equal(t, manifest.StatusCompleted, s.Status, s.Name)
	}
	assert.Equal(t, "go", m.Metadata["project.type"])
	assert.Equal(t, 3, report.Written)
	assert.NotNil(t, p.Verification())

	agents := read(t, fsys, "/AGENTS.md")
	assert.Contains(t, agents, "# rocket\n")
	assert.Contains(t, agents, "- Test: `go test ./...`")
	assert.NotContains(t, agents, "{{")
	assert.Contains(t, read(t, fsys, "/docs/DEVELOPMENT.md"), "go 1.22.0 or newer")

	ignore := read(t, fsys, "/.gitignore")
	assert.Contains(t, ignore, "bin/\n\n# groundwork state\n")
	for _, l := range IgnoreLines() {
		assert.Contains(t, ignore, l+"\n")
	}
	assert.Contains(t, read(t, fsys, SnapshotPath()), `"project.name"`)

	report, _, err = run(t, newProject(t, fsys, true), workflow.Options{})
	require.NoError(t, err)
	assert.True(t, report.AlreadyFinished)
}

func TestUpdatePreservesRegions(t *testing.T) {
	fsys := goProject(t)
	_, _, err := run(t, newProject(t, fsys, false), workflow.Options{})
	require.NoError(t, err)

	agents := read(t, fsys, "/AGENTS.md")
	edited := agents[:len(agents)-len("<!-- /REGION:notes -->\n")] + "do not remove X\n<!-- /REGION:notes -->\n"
	require.NoError(t, afero.WriteFile(fsys, "/AGENTS.md", []byte(edited), 0o644))

	report, m, err := run(t, newProject(t, fsys, false), workflow.Options{Update: true})
	require.NoError(t, err)
	assert.Contains(t, read(t, fsys, "/AGENTS.md"), "do not remove X\n")
	assert.Equal(t, manifest.StatusSkipped, m.Step(StepSnapshot).Status)
	assert.GreaterOrEqual(t, report.Preserved, 1)

	exists, err := afero.Exists(fsys, "/AGENTS.md"+scaffold.BackupSuffix)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMalformedRegionsDoNotHaltRun(t *testing.T) {
	fsys := goProject(t)
	broken := "# mine\n<!-- REGION:notes -->\nkeep\n"
	require.NoError(t, afero.WriteFile(fsys, "/AGENTS.md", []byte(broken), 0o644))

	report, m, err := run(t, newProject(t, fsys, false), workflow.Options{})
	require.NoError(t, err)
	assert.True(t, m.Finished())
	assert.Equal(t, broken, read(t, fsys, "/AGENTS.md"))

	assert.Equal(t, manifest.StatusCompleted, m.Step(StepGenerateGuide).Status)
	assert.Empty(t, m.Step(StepGenerateGuide).Files)
	for _, name := range []string{StepGenerateDocs, StepIgnore, StepVerify} {
		assert.Equal(t, manifest.StatusCompleted, m.Step(name).Status, name)
	}
	assert.Contains(t, read(t, fsys, "/docs/DEVELOPMENT.md"), "rocket")
	assert.Contains(t, read(t, fsys, "/.gitignore"), "# groundwork state\n")

	assert.Equal(t, 1, report.Failed)
	var guide workflow.StepResult
	for _, s := range report.Steps {
		if s.Name == StepGenerateGuide {
			guide = s
		}
	}
	require.Len(t, guide.Failed, 1)
	assert.Equal(t, "AGENTS.md", guide.Failed[0].Path)
	assert.Contains(t, guide.Failed[0].Error, "never closed")

	exists, err := afero.Exists(fsys, "/AGENTS.md"+scaffold.BackupSuffix)
	require.NoError(t, err)
	assert.False(t, exists)
}

// renameFailFs refuses to move anything onto target.
type renameFailFs struct {
	afero.Fs
	target string
}

func (f renameFailFs) Rename(oldname, newname string) error {
	if newname == f.target {
		return &os.PathError{Op: "rename", Path: newname, Err: os.ErrPermission}
	}
	return f.Fs.Rename(oldname, newname)
}

func TestRetryAfterWriteFailureRehydratesFacts(t *testing.T) {
	fsys := goProject(t)

	_, m, err := run(t, newProject(t, renameFailFs{Fs: fsys, target: "/AGENTS.md"}, true), workflow.Options{})
	var serr *workflow.StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepGenerateGuide, serr.Step)
	assert.Equal(t, "AGENTS.md", serr.Path)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, manifest.StatusFailed, m.Step(StepGenerateGuide).Status)
	assert.Equal(t, manifest.StatusPending, m.Step(StepGenerateDocs).Status)

	p := newProject(t, fsys, true)
	report, m, err := run(t, p, workflow.Options{Retry: true})
	require.NoError(t, err)
	assert.True(t, m.Finished())
	assert.NotNil(t, p.Facts(), "facts rebuilt for the retried step")
	assert.Equal(t, workflow.OutcomeResumed, report.Steps[0].Outcome)
	assert.Contains(t, read(t, fsys, "/AGENTS.md"), "# rocket\n")
}

func TestEnsureGitignore(t *testing.T) {
	fsys := afero.NewMemMapFs()
	changed, err := EnsureGitignore(fsys, []string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "# groundwork state\na\nb\n", read(t, fsys, gitignoreFile))

	changed, err = EnsureGitignore(fsys, []string{"a", "b"})
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, afero.WriteFile(fsys, gitignoreFile, []byte("node_modules/\na"), 0o644))
	changed, err = EnsureGitignore(fsys, []string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "node_modules/\na\n\n# groundwork state\nb\n", read(t, fsys, gitignoreFile))
}
