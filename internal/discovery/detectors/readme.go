package detectors

import (
	"context"
	"strings"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

var readmeFiles = []string{"README.md", "README.markdown", "README.rst", "README.txt", "README", "readme.md"}

// Readme infers a name and description from prose, so its facts lose to
// anything read from a build manifest.
type Readme struct{ base }

// NewReadme returns the README detector.
func NewReadme() *Readme {
	return &Readme{base{
		name:    "readme",
		keys:    str(KeyProjectName, KeyProjectDesc),
		ceiling: facts.Low,
	}}
}

func (d *Readme) Detect(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	name, ok := firstExisting(fsys, readmeFiles...)
	if !ok {
		return nil, nil
	}
	lines, err := headLines(fsys, name, 60)
	if err != nil {
		return nil, err
	}

	title, para := parseReadme(lines)

	var out []facts.Fact
	if title != "" {
		out = append(out, facts.Fact{Key: KeyProjectName, Value: facts.String(title), Confidence: facts.Low, Source: name})
	}
	if para != "" {
		out = append(out, facts.Fact{Key: KeyProjectDesc, Value: facts.String(para), Confidence: facts.Low, Source: name})
	}
	return out, nil
}

// parseReadme returns the first heading and the first prose paragraph.
// Badges, images and HTML lines are not prose.
func parseReadme(lines []string) (title, para string) {
	var buf []string
	for i, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case title == "" && strings.HasPrefix(t, "# "):
			title = strings.TrimSpace(strings.TrimPrefix(t, "# "))
			continue
		case title == "" && i+1 < len(lines) && isUnderline(lines[i+1]) && t != "":
			title = t
			continue
		case isUnderline(t):
			continue
		}

		if t == "" || strings.HasPrefix(t, "#") {
			if len(buf) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(t, "[!") || strings.HasPrefix(t, "![") || strings.HasPrefix(t, "<") {
			continue
		}
		buf = append(buf, t)
	}
	return title, strings.Join(buf, " ")
}

func isUnderline(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 3 && (strings.Trim(s, "=") == "" || strings.Trim(s, "-") == "")
}
