package detectors

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

const (
	styleMaxFiles = 20
	styleMaxLines = 40
)

var (
	styleExts = map[string]bool{
		".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".mjs": true,
		".py": true, ".go": true, ".rs": true, ".rb": true, ".java": true,
	}
	quoteExts = map[string]bool{
		".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".mjs": true, ".py": true,
	}
	skipDirs = map[string]bool{
		".git": true, "node_modules": true, "vendor": true, "dist": true, "build": true,
		"target": true, ".venv": true, "venv": true, "__pycache__": true,
	}
)

// Style samples the head of a few source files to guess quote and
// indentation conventions.
type Style struct{ base }

// NewStyle returns the source style detector.
func NewStyle() *Style {
	return &Style{base{
		name:    "style",
		keys:    str(KeyQuoteStyle, KeyIndentStyle),
		ceiling: facts.Medium,
	}}
}

func (d *Style) Detect(ctx context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	files, err := sampleSources(ctx, fsys)
	if err != nil || len(files) == 0 {
		return nil, err
	}

	var single, double, tabs, spaces int
	for _, f := range files {
		lines, err := headLines(fsys, f, styleMaxLines)
		if err != nil {
			continue
		}
		countQuotes := quoteExts[path.Ext(f)]
		for _, line := range lines {
			switch {
			case strings.HasPrefix(line, "\t"):
				tabs++
			case strings.HasPrefix(line, "  "):
				spaces++
			}
			if countQuotes {
				single += strings.Count(line, "'")
				double += strings.Count(line, `"`)
			}
		}
	}

	var out []facts.Fact
	add := func(key, value string) {
		out = append(out, facts.Fact{Key: key, Value: facts.String(value), Confidence: facts.Medium, Source: "source files"})
	}
	if q := majority(single, double); q != 0 {
		add(KeyQuoteStyle, map[int]string{1: "single", -1: "double"}[q])
	}
	if i := majority(tabs, spaces); i != 0 {
		add(KeyIndentStyle, map[int]string{1: "tab", -1: "space"}[i])
	}
	return out, nil
}

// majority returns 1 when a clearly outnumbers b, -1 for the reverse and 0
// when the sample is too small or too close to call.
func majority(a, b int) int {
	switch {
	case a+b < 4:
		return 0
	case a >= 2*b:
		return 1
	case b >= 2*a:
		return -1
	}
	return 0
}

var errEnoughSamples = errors.New("enough samples")

// sampleSources returns up to styleMaxFiles source files in walk order.
func sampleSources(ctx context.Context, fsys afero.Fs) ([]string, error) {
	var files []string
	err := afero.Walk(fsys, "/", func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() {
			if p != "/" && (skipDirs[info.Name()] || strings.HasPrefix(info.Name(), ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if styleExts[path.Ext(p)] {
			files = append(files, p)
			if len(files) >= styleMaxFiles {
				return errEnoughSamples
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errEnoughSamples) {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
