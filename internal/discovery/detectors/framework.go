package detectors

import (
	"context"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

// knownFrameworks maps a language to dependency names and the framework they
// indicate, most characteristic first.
var knownFrameworks = map[string][]struct{ dep, name string }{
	"javascript": nodeFrameworks,
	"typescript": nodeFrameworks,
	"go": {
		{"github.com/gin-gonic/gin", "gin"},
		{"github.com/labstack/echo/v4", "echo"},
		{"github.com/gofiber/fiber/v2", "fiber"},
		{"github.com/go-chi/chi/v5", "chi"},
		{"github.com/spf13/cobra", "cobra"},
		{"google.golang.org/grpc", "grpc"},
	},
	"rust": {
		{"actix-web", "actix-web"},
		{"axum", "axum"},
		{"rocket", "rocket"},
		{"clap", "clap"},
		{"tokio", "tokio"},
	},
	"python": {
		{"django", "django"},
		{"fastapi", "fastapi"},
		{"flask", "flask"},
		{"pytest", "pytest"},
	},
}

var nodeFrameworks = []struct{ dep, name string }{
	{"next", "next"},
	{"@nestjs/core", "nestjs"},
	{"@angular/core", "angular"},
	{"nuxt", "nuxt"},
	{"svelte", "svelte"},
	{"vue", "vue"},
	{"react", "react"},
	{"express", "express"},
	{"fastify", "fastify"},
}

// Framework matches dependency lists against known frameworks for the
// primary language.
type Framework struct{ base }

// NewFramework returns the framework detector.
func NewFramework() *Framework {
	return &Framework{base{
		name:     "framework",
		keys:     append(str(KeyFramework), list(KeyFrameworks)),
		ceiling:  facts.High,
		requires: []string{KeyLanguage},
	}}
}

func (d *Framework) Detect(_ context.Context, fsys afero.Fs, known facts.Reader) ([]facts.Fact, error) {
	lang, _ := known.Get(KeyLanguage)
	candidates, ok := knownFrameworks[lang.Value.Str()]
	if !ok {
		return nil, nil
	}

	deps, source, err := dependencies(fsys, lang.Value.Str())
	if err != nil || len(deps) == 0 {
		return nil, err
	}

	var found []string
	for _, c := range candidates {
		if deps[c.dep] {
			found = append(found, c.name)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	return []facts.Fact{
		stringFact(KeyFramework, found[0], source),
		{Key: KeyFrameworks, Value: facts.List(found...), Confidence: facts.High, Source: source},
	}, nil
}

// dependencies returns the dependency names declared for lang and the file
// they came from.
func dependencies(fsys afero.Fs, lang string) (map[string]bool, string, error) {
	deps := map[string]bool{}
	switch lang {
	case "javascript", "typescript":
		pkg, err := readPackageJSON(fsys)
		if err != nil || pkg == nil {
			return nil, "", err
		}
		for d := range pkg.Dependencies {
			deps[d] = true
		}
		for d := range pkg.DevDependencies {
			deps[d] = true
		}
		return deps, packageJSON, nil
	case "go":
		mf, err := readGoMod(fsys)
		if err != nil || mf == nil {
			return nil, "", err
		}
		for _, r := range mf.Require {
			deps[r.Mod.Path] = true
		}
		return deps, goMod, nil
	case "rust":
		m, err := readCargo(fsys)
		if err != nil || m == nil {
			return nil, "", err
		}
		for d := range m.Dependencies {
			deps[d] = true
		}
		return deps, cargoToml, nil
	case "python":
		pyDeps, _, err := pythonDeps(fsys)
		if err != nil {
			return nil, "", err
		}
		source := requirements
		if exists(fsys, pyproject) {
			source = pyproject
		}
		return pyDeps, source, nil
	}
	return nil, "", nil
}
