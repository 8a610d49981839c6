package detectors

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
)

// maxFileSize bounds how much of any single file a detector reads.
const maxFileSize = 1 << 20

// base carries the static declarations shared by every detector.
type base struct {
	name     string
	keys     []facts.KeySpec
	ceiling  facts.Confidence
	requires []string
}

func (b base) Name() string              { return b.name }
func (b base) Keys() []facts.KeySpec     { return b.keys }
func (b base) Ceiling() facts.Confidence { return b.ceiling }
func (b base) Requires() []string        { return b.requires }

func abs(name string) string {
	return path.Join("/", name)
}

func exists(fsys afero.Fs, name string) bool {
	_, err := fsys.Stat(abs(name))
	return err == nil
}

func isDir(fsys afero.Fs, name string) bool {
	info, err := fsys.Stat(abs(name))
	return err == nil && info.IsDir()
}

// firstExisting returns the first of names present in fsys.
func firstExisting(fsys afero.Fs, names ...string) (string, bool) {
	for _, n := range names {
		if exists(fsys, n) {
			return n, true
		}
	}
	return "", false
}

// readFile reads at most maxFileSize bytes of name. A missing file returns
// (nil, nil).
func readFile(fsys afero.Fs, name string) ([]byte, error) {
	f, err := fsys.Open(abs(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// headLines returns up to n lines from the start of name.
func headLines(fsys afero.Fs, name string, n int) ([]string, error) {
	f, err := fsys.Open(abs(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(io.LimitReader(f, maxFileSize))
	for sc.Scan() && len(lines) < n {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// listDir returns the sorted entry names of dir, or nil if it is unreadable.
func listDir(fsys afero.Fs, dir string) []string {
	entries, err := afero.ReadDir(fsys, abs(dir))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func stringFact(key, value, source string) facts.Fact {
	return facts.Fact{Key: key, Value: facts.String(value), Confidence: facts.High, Source: source}
}

func hasAny(set map[string]bool, names ...string) bool {
	for _, n := range names {
		if set[n] {
			return true
		}
	}
	return false
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
