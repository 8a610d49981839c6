package detectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

const (
	pyproject    = "pyproject.toml"
	requirements = "requirements.txt"
)

type pyprojectFile struct {
	Project struct {
		Name         string   `toml:"name"`
		Description  string   `toml:"description"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry *struct {
			Name         string                 `toml:"name"`
			Description  string                 `toml:"description"`
			Dependencies map[string]interface{} `toml:"dependencies"`
		} `toml:"poetry"`
		Pytest map[string]interface{} `toml:"pytest"`
	} `toml:"tool"`
}

// pythonDeps returns lower-cased distribution names from pyproject.toml and
// requirements.txt.
func pythonDeps(fsys afero.Fs) (map[string]bool, *pyprojectFile, error) {
	deps := map[string]bool{}

	var py *pyprojectFile
	data, err := readFile(fsys, pyproject)
	if err != nil {
		return nil, nil, err
	}
	if data != nil {
		py = &pyprojectFile{}
		if _, err := toml.Decode(string(data), py); err != nil {
			return nil, nil, fmt.Errorf("parsing %s: %w", pyproject, err)
		}
		for _, d := range py.Project.Dependencies {
			deps[requirementName(d)] = true
		}
		if py.Tool.Poetry != nil {
			for d := range py.Tool.Poetry.Dependencies {
				deps[lower(d)] = true
			}
		}
	}

	reqs, err := readFile(fsys, requirements)
	if err != nil {
		return nil, nil, err
	}
	for _, line := range strings.Split(string(reqs), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		deps[requirementName(line)] = true
	}
	return deps, py, nil
}

// requirementName strips version specifiers and extras from a requirement.
func requirementName(req string) string {
	end := strings.IndexAny(req, "<>=!~;[ (")
	if end >= 0 {
		req = req[:end]
	}
	return lower(req)
}

// Python reads pyproject.toml, requirements.txt and setup.py.
type Python struct{ base }

// NewPython returns the Python detector.
func NewPython() *Python {
	return &Python{base{
		name:    "python",
		keys:    str(KeyLanguage, KeyProjectName, KeyProjectDesc, KeyPackageManager, KeyTest),
		ceiling: facts.High,
	}}
}

func (d *Python) Detect(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	marker, ok := firstExisting(fsys, pyproject, requirements, "setup.py")
	if !ok {
		return nil, nil
	}
	deps, py, err := pythonDeps(fsys)
	if err != nil {
		return nil, err
	}

	out := []facts.Fact{stringFact(KeyLanguage, "python", marker)}

	if py != nil {
		name, desc := py.Project.Name, py.Project.Description
		if py.Tool.Poetry != nil {
			if name == "" {
				name = py.Tool.Poetry.Name
			}
			if desc == "" {
				desc = py.Tool.Poetry.Description
			}
		}
		if name != "" {
			out = append(out, stringFact(KeyProjectName, name, pyproject))
		}
		if desc != "" {
			out = append(out, stringFact(KeyProjectDesc, desc, pyproject))
		}
	}

	switch {
	case exists(fsys, "uv.lock"):
		out = append(out, stringFact(KeyPackageManager, "uv", "uv.lock"))
	case exists(fsys, "poetry.lock") || (py != nil && py.Tool.Poetry != nil):
		out = append(out, stringFact(KeyPackageManager, "poetry", marker))
	case exists(fsys, "Pipfile"):
		out = append(out, stringFact(KeyPackageManager, "pipenv", "Pipfile"))
	default:
		out = append(out, stringFact(KeyPackageManager, "pip", marker))
	}

	if deps["pytest"] || (py != nil && py.Tool.Pytest != nil) {
		out = append(out, stringFact(KeyTest, "pytest", marker))
	}
	return out, nil
}
