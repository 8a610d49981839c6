package scaffold

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agentx-labs/groundwork/internal/catalog"
	"github.com/agentx-labs/groundwork/internal/facts"
	"github.com/agentx-labs/groundwork/internal/manifest"
	"github.com/agentx-labs/groundwork/internal/merge"
	"github.com/agentx-labs/groundwork/internal/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const guide = "# {{ project.name }}\n" +
	"<!-- REGION:notes -->\n" +
	"Add notes here.\n" +
	"<!-- /REGION:notes -->\n"

func tpl(name, target, text string) *catalog.Template {
	return &catalog.Template{
		Entry: catalog.Entry{Name: name, Target: target, Required: []string{"project.name"}},
		Tpl:   render.MustParse(name, text, nil),
	}
}

func store(t *testing.T, name string) *facts.Store {
	t.Helper()
	s := facts.NewStore()
	_, err := s.Propose(facts.Fact{Key: "project.name", Value: facts.String(name), Confidence: facts.High, Source: "test"})
	require.NoError(t, err)
	s.Freeze()
	return s
}

func read(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	return string(data)
}

func TestParseBackupPolicy(t *testing.T) {
	p, err := ParseBackupPolicy("")
	require.NoError(t, err)
	assert.Equal(t, BackupOnConflict, p)

	p, err = ParseBackupPolicy("always")
	require.NoError(t, err)
	assert.Equal(t, BackupAlways, p)

	_, err = ParseBackupPolicy("sometimes")
	assert.Error(t, err)
}

func TestGenerateCreatesFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	g := &Generator{Fs: fsys, Facts: store(t, "rocket"), Workers: 2}

	res := g.Generate(context.Background(), []*catalog.Template{
		tpl("agents", "AGENTS.md", guide),
		tpl("dev", "docs/DEVELOPMENT.md", "Dev guide for {{ project.name }}\n"),
	})
	require.NoError(t, res.Err())
	assert.Equal(t, 2, res.Count(merge.ActionCreated))

	assert.Contains(t, read(t, fsys, "/AGENTS.md"), "# rocket\n")
	assert.Equal(t, "Dev guide for rocket\n", read(t, fsys, "/docs/DEVELOPMENT.md"))

	records := res.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "AGENTS.md", records[0].Path)
	assert.Equal(t, "created", records[0].Action)
	assert.Equal(t, []string{"project.name"}, records[0].Required)
	assert.Len(t, records[0].SHA256, 64)
	assert.Len(t, records[0].Skeleton, 64)
}

func TestGeneratePreservesRegionsAndIsIdempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	tpls := []*catalog.Template{tpl("agents", "AGENTS.md", guide)}

	g := &Generator{Fs: fsys, Facts: store(t, "rocket")}
	first := g.Generate(context.Background(), tpls)
	require.NoError(t, first.Err())
	rec := first.Records()[0]

	edited := "# rocket\n<!-- REGION:notes -->\ndo not remove X\n<!-- /REGION:notes -->\n"
	require.NoError(t, afero.WriteFile(fsys, "/AGENTS.md", []byte(edited), 0o644))

	g = &Generator{
		Fs:    fsys,
		Facts: store(t, "rocket-v2"),
		Previous: func(path string) (manifest.FileRecord, bool) {
			return rec, path == rec.Path
		},
	}
	second := g.Generate(context.Background(), tpls)
	require.NoError(t, second.Err())
	f := second.Files[0]
	assert.Equal(t, merge.ActionMerged, f.Action)
	assert.Equal(t, []string{"notes"}, f.Preserved)
	assert.Empty(t, f.Conflicts)
	assert.Empty(t, f.Backup)
	assert.Equal(t, "# rocket-v2\n<!-- REGION:notes -->\ndo not remove X\n<!-- /REGION:notes -->\n", read(t, fsys, "/AGENTS.md"))

	third := g.Generate(context.Background(), tpls)
	require.NoError(t, third.Err())
	assert.Equal(t, merge.ActionUnchanged, third.Files[0].Action)
	assert.Equal(t, second.Files[0].Record.SHA256, third.Files[0].Record.SHA256)
}

func TestGenerateEditOutsideRegionBacksUp(t *testing.T) {
	fsys := afero.NewMemMapFs()
	tpls := []*catalog.Template{tpl("agents", "AGENTS.md", guide)}

	g := &Generator{Fs: fsys, Facts: store(t, "rocket")}
	rec := g.Generate(context.Background(), tpls).Records()[0]

	edited := "# rocket\nhand edit\n<!-- REGION:notes -->\nmine\n<!-- /REGION:notes -->\n"
	require.NoError(t, afero.WriteFile(fsys, "/AGENTS.md", []byte(edited), 0o644))

	g = &Generator{
		Fs:       fsys,
		Facts:    store(t, "rocket"),
		Backup:   BackupOnConflict,
		Previous: func(string) (manifest.FileRecord, bool) { return rec, true },
	}
	res := g.Generate(context.Background(), tpls)
	require.NoError(t, res.Err())
	f := res.Files[0]
	require.Len(t, f.Conflicts, 1)
	assert.Equal(t, merge.ConflictEditedOutside, f.Conflicts[0].Kind)
	assert.Equal(t, "AGENTS.md"+BackupSuffix, f.Backup)
	assert.Equal(t, edited, read(t, fsys, "/AGENTS.md"+BackupSuffix))
	assert.NotContains(t, read(t, fsys, "/AGENTS.md"), "hand edit")
	assert.Contains(t, read(t, fsys, "/AGENTS.md"), "mine\n")
}

func TestGenerateUnrecordedFileIsConflict(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/AGENTS.md", []byte("handwritten\n"), 0o644))

	g := &Generator{Fs: fsys, Facts: store(t, "rocket"), Backup: BackupNever}
	res := g.Generate(context.Background(), []*catalog.Template{tpl("agents", "AGENTS.md", guide)})
	require.NoError(t, res.Err())
	require.Len(t, res.Files[0].Conflicts, 1)
	assert.Equal(t, merge.ActionOverwritten, res.Files[0].Action)
	exists, err := afero.Exists(fsys, "/AGENTS.md"+BackupSuffix)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGenerateMalformedExistingLeavesFileAlone(t *testing.T) {
	fsys := afero.NewMemMapFs()
	broken := "<!-- REGION:notes -->\nunterminated\n"
	require.NoError(t, afero.WriteFile(fsys, "/AGENTS.md", []byte(broken), 0o644))

	g := &Generator{Fs: fsys, Facts: store(t, "rocket")}
	res := g.Generate(context.Background(), []*catalog.Template{
		tpl("agents", "AGENTS.md", guide),
		tpl("dev", "DEV.md", "{{ project.name }}\n"),
	})

	require.NoError(t, res.Err())
	bad := res.Malformed()
	require.Len(t, bad, 1)
	assert.Equal(t, "AGENTS.md", bad[0].Path)
	assert.True(t, errors.Is(bad[0].Err, merge.ErrMalformedRegion))
	var fe *FileError
	require.ErrorAs(t, bad[0].Err, &fe)
	assert.Equal(t, "AGENTS.md", fe.Path)

	assert.Equal(t, broken, read(t, fsys, "/AGENTS.md"))
	assert.Equal(t, "rocket\n", read(t, fsys, "/DEV.md"))
	require.Len(t, res.Records(), 1)
	assert.Equal(t, "DEV.md", res.Records()[0].Path)
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

func TestGenerateWriteFailureIsAnError(t *testing.T) {
	fsys := renameFailFs{Fs: afero.NewMemMapFs(), target: "/AGENTS.md"}
	g := &Generator{Fs: fsys, Facts: store(t, "rocket")}
	res := g.Generate(context.Background(), []*catalog.Template{
		tpl("agents", "AGENTS.md", guide),
		tpl("dev", "DEV.md", "{{ project.name }}\n"),
	})

	err := res.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "AGENTS.md", fe.Path)
	assert.Empty(t, res.Malformed())
	assert.Equal(t, "rocket\n", read(t, fsys, "/DEV.md"))
}

func TestGenerateRecordsUnresolvedKeys(t *testing.T) {
	fsys := afero.NewMemMapFs()
	g := &Generator{Fs: fsys, Facts: store(t, "rocket")}
	res := g.Generate(context.Background(), []*catalog.Template{
		tpl("agents", "AGENTS.md", "Test: {{ commands.test }}\n"),
	})
	require.NoError(t, res.Err())
	assert.Equal(t, []string{"commands.test"}, res.Files[0].Unresolved)
	assert.Equal(t, "Test: "+render.UnresolvedMarker("commands.test")+"\n", read(t, fsys, "/AGENTS.md"))
}
