package detectors

import (
	"context"
	"fmt"
	"path"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
	"golang.org/x/mod/modfile"

	"github.com/agentx-labs/groundwork/internal/facts"
)

const goMod = "go.mod"

func readGoMod(fsys afero.Fs) (*modfile.File, error) {
	data, err := readFile(fsys, goMod)
	if err != nil || data == nil {
		return nil, err
	}
	f, err := modfile.ParseLax(goMod, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", goMod, err)
	}
	return f, nil
}

// Go reads go.mod.
type Go struct{ base }

// NewGo returns the Go module detector.
func NewGo() *Go {
	return &Go{base{
		name: "go",
		keys: str(KeyLanguage, KeyLanguageVer, KeyProjectName, KeyProjectModule,
			KeyBuild, KeyTest),
		ceiling: facts.High,
	}}
}

func (d *Go) Detect(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	mf, err := readGoMod(fsys)
	if err != nil || mf == nil {
		return nil, err
	}

	out := []facts.Fact{
		stringFact(KeyLanguage, "go", goMod),
		stringFact(KeyBuild, "go build ./...", goMod),
		stringFact(KeyTest, "go test ./...", goMod),
	}
	if mf.Module != nil && mf.Module.Mod.Path != "" {
		mod := mf.Module.Mod.Path
		out = append(out,
			stringFact(KeyProjectModule, mod, goMod),
			stringFact(KeyProjectName, path.Base(mod), goMod))
	}
	if mf.Go != nil {
		if v, err := NormalizeVersion(mf.Go.Version); err == nil {
			out = append(out, stringFact(KeyLanguageVer, v, goMod))
		}
	}
	return out, nil
}

// NormalizeVersion expands short versions such as "1.22" to "1.22.0".
func NormalizeVersion(v string) (string, error) {
	sv, err := semver.NewVersion(v)
	if err != nil {
		return "", fmt.Errorf("parsing version %q: %w", v, err)
	}
	return sv.String(), nil
}
