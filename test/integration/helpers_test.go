//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentx-labs/groundwork/internal/cli"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir    string // GROUNDWORK_HOME, holds config.yaml
	ProjectDir string // the target project
}

// setupTestEnv creates isolated temp directories and points the CLI's
// configuration at them. Tool probing is disabled so results do not depend
// on the machine.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:    t.TempDir(),
		ProjectDir: t.TempDir(),
	}
	t.Setenv("GROUNDWORK_HOME", env.HomeDir)
	writeFile(t, filepath.Join(env.HomeDir, "config.yaml"), "tools: []\nlog_level: error\n")
	return env
}

// setupNodeProject writes a small Node project with a README, prettier
// config and lockfile.
func setupNodeProject(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "package.json"), `{
  "name": "launchpad",
  "description": "Schedules rocket launches",
  "version": "0.3.0",
  "scripts": {
    "build": "tsc -p .",
    "test": "run-tests",
    "lint": "eslint ."
  },
  "dependencies": {"express": "^4.19.0"}
}
`)
	writeFile(t, filepath.Join(dir, "package-lock.json"), "{}\n")
	writeFile(t, filepath.Join(dir, "tsconfig.json"), "{}\n")
	writeFile(t, filepath.Join(dir, ".prettierrc"), "singleQuote: true\nsemi: false\n")
	writeFile(t, filepath.Join(dir, "src", "index.ts"), "import express from 'express'\n\nconst app = express()\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# Launchpad\n\nA launch scheduler.\n")
}

// groundwork runs the CLI in-process and returns its exit code and output.
func groundwork(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := cli.Run(context.Background(), cli.BuildInfo{Version: "test"}, args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file %s to exist: %v", path, err)
	}
}

func assertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s not to exist (err=%v)", path, err)
	}
}

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("expected output to contain %q, got:\n%s", substr, s)
	}
}
