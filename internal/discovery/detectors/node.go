package detectors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

const packageJSON = "package.json"

// packageManifest is the subset of package.json the detectors read.
type packageManifest struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Version         string            `json:"version"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func readPackageJSON(fsys afero.Fs) (*packageManifest, error) {
	data, err := readFile(fsys, packageJSON)
	if err != nil || data == nil {
		return nil, err
	}
	var pkg packageManifest
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", packageJSON, err)
	}
	return &pkg, nil
}

// scriptKeys maps package.json script names to command facts.
var scriptKeys = []struct{ script, key string }{
	{"build", KeyBuild},
	{"test", KeyTest},
	{"lint", KeyLint},
	{"start", KeyStart},
	{"format", KeyFormat},
}

// lockfiles maps lockfiles to package managers, most specific first.
var lockfiles = []struct{ file, manager string }{
	{"pnpm-lock.yaml", "pnpm"},
	{"yarn.lock", "yarn"},
	{"bun.lockb", "bun"},
	{"package-lock.json", "npm"},
}

// Node reads package.json, lockfiles and tsconfig.json.
type Node struct{ base }

// NewNode returns the Node.js detector.
func NewNode() *Node {
	return &Node{base{
		name: "node",
		keys: str(KeyLanguage, KeyProjectName, KeyProjectDesc, KeyProjectVersion,
			KeyBuild, KeyTest, KeyLint, KeyStart, KeyFormat, KeyPackageManager),
		ceiling: facts.High,
	}}
}

func (d *Node) Detect(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	pkg, err := readPackageJSON(fsys)
	if err != nil || pkg == nil {
		return nil, err
	}

	lang := "javascript"
	if exists(fsys, "tsconfig.json") {
		lang = "typescript"
	}
	out := []facts.Fact{stringFact(KeyLanguage, lang, packageJSON)}

	for _, kv := range []struct{ key, value string }{
		{KeyProjectName, pkg.Name},
		{KeyProjectDesc, pkg.Description},
		{KeyProjectVersion, pkg.Version},
	} {
		if kv.value != "" {
			out = append(out, stringFact(kv.key, kv.value, packageJSON))
		}
	}

	for _, s := range scriptKeys {
		if cmd, ok := pkg.Scripts[s.script]; ok && cmd != "" {
			out = append(out, stringFact(s.key, cmd, packageJSON))
		}
	}

	manager := facts.Fact{Key: KeyPackageManager, Value: facts.String("npm"), Confidence: facts.Low, Source: packageJSON}
	for _, lf := range lockfiles {
		if exists(fsys, lf.file) {
			manager = stringFact(KeyPackageManager, lf.manager, lf.file)
			break
		}
	}
	return append(out, manager), nil
}
