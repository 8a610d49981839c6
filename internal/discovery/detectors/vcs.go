package detectors

import (
	"context"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

var ciProviders = []struct{ path, provider string }{
	{".github/workflows", "github-actions"},
	{".gitlab-ci.yml", "gitlab-ci"},
	{".circleci/config.yml", "circleci"},
	{"azure-pipelines.yml", "azure-pipelines"},
	{"Jenkinsfile", "jenkins"},
}

// VCS checks for a git checkout and CI configuration.
type VCS struct{ base }

// NewVCS returns the version control and CI detector.
func NewVCS() *VCS {
	return &VCS{base{
		name:    "vcs",
		keys:    append([]facts.KeySpec{boolean(KeyGit)}, str(KeyCI)...),
		ceiling: facts.High,
	}}
}

func (d *VCS) Detect(_ context.Context, fsys afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	var out []facts.Fact
	// .git is a directory in a checkout and a file in a worktree.
	if exists(fsys, ".git") {
		out = append(out, facts.Fact{Key: KeyGit, Value: facts.Bool(true), Confidence: facts.High, Source: ".git"})
	}
	for _, ci := range ciProviders {
		if exists(fsys, ci.path) {
			out = append(out, stringFact(KeyCI, ci.provider, ci.path))
			break
		}
	}
	return out, nil
}
