package detectors

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

const cargoToml = "Cargo.toml"

type cargoManifest struct {
	Package struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
	} `toml:"package"`
	Dependencies map[string]interface{} `toml:"dependencies"`
}

func readCargo(fsys afero.Fs) (*cargoManifest, error) {
	data, err := readFile(fsys, cargoToml)
	if err != nil || data == nil {
		return nil, err
	}
	var m cargoManifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", cargoToml, err)
	}
	return &m, nil
}

// Rust reads Cargo.toml.
type Rust struct{ base }

// NewRust returns the Cargo detector.
func NewRust() *Rust {
	return &Rust{base{
		name: "rust",
		keys: str(KeyLanguage, KeyProjectName, KeyProjectVersion, KeyProjectDesc,
			KeyBuild, KeyTest),
		ceiling: facts.High,
	}}
}

func (d *Rust) Detect(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	m, err := readCargo(fsys)
	if err != nil || m == nil {
		return nil, err
	}

	out := []facts.Fact{
		stringFact(KeyLanguage, "rust", cargoToml),
		stringFact(KeyBuild, "cargo build", cargoToml),
		stringFact(KeyTest, "cargo test", cargoToml),
	}
	for _, kv := range []struct{ key, value string }{
		{KeyProjectName, m.Package.Name},
		{KeyProjectVersion, m.Package.Version},
		{KeyProjectDesc, m.Package.Description},
	} {
		if kv.value != "" {
			out = append(out, stringFact(kv.key, kv.value, cargoToml))
		}
	}
	return out, nil
}
