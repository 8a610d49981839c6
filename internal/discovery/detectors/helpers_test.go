package detectors

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/groundwork/internal/discovery"
	"github.com/agentx-labs/groundwork/internal/facts"
)

// tree builds an in-memory project rooted at "/".
func tree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, abs(name), []byte(content), 0o644))
	}
	return afero.NewReadOnlyFs(fsys)
}

// detect runs d and indexes its facts by key.
func detect(t *testing.T, d discovery.Detector, fsys afero.Fs, known ...facts.Fact) map[string]facts.Fact {
	t.Helper()
	store := facts.NewStore()
	for _, f := range known {
		_, err := store.Propose(f)
		require.NoError(t, err)
	}
	found, err := d.Detect(context.Background(), fsys, store)
	require.NoError(t, err)

	out := map[string]facts.Fact{}
	for _, f := range found {
		out[f.Key] = f
	}
	return out
}

func values(m map[string]facts.Fact) map[string]string {
	out := map[string]string{}
	for k, f := range m {
		s, _ := f.Value.Render()
		out[k] = s
	}
	return out
}
