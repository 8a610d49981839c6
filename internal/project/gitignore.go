package project

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/branding"
	"github.com/agentx-labs/groundwork/internal/manifest"
	"github.com/agentx-labs/groundwork/internal/platform"
	"github.com/agentx-labs/groundwork/internal/scaffold"
)

const gitignoreFile = "/.gitignore"

// IgnoreLines returns the .gitignore entries that keep run state untracked.
// User facts in the state directory stay trackable.
func IgnoreLines() []string {
	state := "/" + branding.StateDir()
	return []string{
		path.Join(state, manifest.FileName),
		path.Join(state, SnapshotFile),
		"*" + scaffold.BackupSuffix,
	}
}

// EnsureGitignore appends the missing lines to .gitignore under a header
// comment. It reports whether the file changed.
func EnsureGitignore(fsys afero.Fs, lines []string) (bool, error) {
	content, err := platform.ReadFileIfExists(fsys, gitignoreFile)
	if err != nil {
		return false, err
	}

	present := map[string]bool{}
	for _, l := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(l)] = true
	}
	var missing []string
	for _, l := range lines {
		if !present[l] {
			missing = append(missing, l)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	var b strings.Builder
	b.Write(content)
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		b.WriteString("\n")
	}
	header := "# " + branding.CLIName() + " state"
	if !present[header] {
		if len(content) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(header + "\n")
	}
	for _, l := range missing {
		b.WriteString(l + "\n")
	}

	if err := platform.WriteFileAtomic(fsys, gitignoreFile, []byte(b.String()), platform.FilePerm); err != nil {
		return false, fmt.Errorf("writing .gitignore: %w", err)
	}
	return true, nil
}
