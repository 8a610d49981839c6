package detectors

import (
	"context"
	"strings"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

const editorconfig = ".editorconfig"

// EditorConfig reads indentation settings from the [*] section.
type EditorConfig struct{ base }

// NewEditorConfig returns the .editorconfig detector.
func NewEditorConfig() *EditorConfig {
	return &EditorConfig{base{
		name:    "editorconfig",
		keys:    str(KeyIndentStyle, KeyIndentSize),
		ceiling: facts.High,
	}}
}

func (d *EditorConfig) Detect(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	data, err := readFile(fsys, editorconfig)
	if err != nil || data == nil {
		return nil, err
	}

	settings := map[string]string{}
	section := ""
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			continue
		}
		if section != "*" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if ok {
			settings[lower(k)] = lower(v)
		}
	}

	var out []facts.Fact
	switch settings["indent_style"] {
	case "tab":
		out = append(out, stringFact(KeyIndentStyle, "tab", editorconfig))
	case "space":
		out = append(out, stringFact(KeyIndentStyle, "space", editorconfig))
	}
	if size := settings["indent_size"]; size != "" && size != "unset" {
		out = append(out, stringFact(KeyIndentSize, size, editorconfig))
	}
	return out, nil
}
