package detectors

import (
	"context"
	"path"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

var (
	sourceDirs = map[string][]string{
		"go":         {"internal", "pkg", "cmd"},
		"rust":       {"src"},
		"python":     {"src", "lib", "app"},
		"javascript": {"src", "lib", "app"},
		"typescript": {"src", "lib", "app"},
	}
	testDirs = []string{"tests", "test", "__tests__", "spec", "e2e"}
	docsDirs = []string{"docs", "doc", "documentation"}

	entryPoints = map[string][]string{
		"go":         {"main.go"},
		"rust":       {"src/main.rs", "src/lib.rs"},
		"python":     {"main.py", "app.py", "manage.py", "src/main.py"},
		"javascript": {"src/index.js", "index.js", "src/main.js", "server.js", "app.js"},
		"typescript": {"src/index.ts", "src/main.ts", "index.ts", "src/server.ts"},
	}
)

// Layout infers conventional paths from the directory structure.
type Layout struct{ base }

// NewLayout returns the directory layout detector.
func NewLayout() *Layout {
	return &Layout{base{
		name:     "layout",
		keys:     str(KeySourcePath, KeyTestsPath, KeyDocsPath, KeyEntryPoint),
		ceiling:  facts.Medium,
		requires: []string{KeyLanguage},
	}}
}

func (d *Layout) Detect(_ context.Context, fsys afero.Fs, known facts.Reader) ([]facts.Fact, error) {
	langFact, _ := known.Get(KeyLanguage)
	lang := langFact.Value.Str()

	var out []facts.Fact
	add := func(key, value string) {
		out = append(out, facts.Fact{Key: key, Value: facts.String(value), Confidence: facts.Medium, Source: value})
	}

	for _, dir := range sourceDirs[lang] {
		if isDir(fsys, dir) {
			add(KeySourcePath, dir)
			break
		}
	}
	for _, dir := range testDirs {
		if isDir(fsys, dir) {
			add(KeyTestsPath, dir)
			break
		}
	}
	for _, dir := range docsDirs {
		if isDir(fsys, dir) {
			add(KeyDocsPath, dir)
			break
		}
	}

	if entry, ok := firstExisting(fsys, entryPoints[lang]...); ok {
		add(KeyEntryPoint, entry)
	} else if lang == "go" {
		// cmd/<name>/main.go, first by name.
		for _, name := range listDir(fsys, "cmd") {
			candidate := path.Join("cmd", name, "main.go")
			if exists(fsys, candidate) {
				add(KeyEntryPoint, candidate)
				break
			}
		}
	}
	return out, nil
}
