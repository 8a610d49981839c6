package detectors

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/agentx-labs/groundwork/internal/facts"
)

var prettierFiles = []string{".prettierrc", ".prettierrc.json", ".prettierrc.yaml", ".prettierrc.yml"}

// Prettier reads quote and semicolon settings. JSON configs are valid YAML,
// so one decoder covers every supported file.
type Prettier struct{ base }

// NewPrettier returns the Prettier config detector.
func NewPrettier() *Prettier {
	return &Prettier{base{
		name:    "prettier",
		keys:    append(str(KeyQuoteStyle), boolean(KeySemicolons)),
		ceiling: facts.High,
	}}
}

func (d *Prettier) Detect(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	name, ok := firstExisting(fsys, prettierFiles...)
	if !ok {
		return nil, nil
	}
	data, err := readFile(fsys, name)
	if err != nil {
		return nil, err
	}

	var cfg struct {
		SingleQuote *bool `yaml:"singleQuote"`
		Semi        *bool `yaml:"semi"`
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	// Prettier defaults are double quotes with semicolons.
	quote := "double"
	if cfg.SingleQuote != nil && *cfg.SingleQuote {
		quote = "single"
	}
	semi := cfg.Semi == nil || *cfg.Semi

	return []facts.Fact{
		stringFact(KeyQuoteStyle, quote, name),
		{Key: KeySemicolons, Value: facts.Bool(semi), Confidence: facts.High, Source: name},
	}, nil
}
