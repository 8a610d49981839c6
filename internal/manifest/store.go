package manifest

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/branding"
	"github.com/agentx-labs/groundwork/internal/platform"
	"github.com/agentx-labs/groundwork/internal/schema"
)

// FileName is the manifest file name inside the state directory.
const FileName = "manifest.json"

var (
	// ErrNotFound is returned by Load when no manifest exists.
	ErrNotFound = errors.New("manifest not found")
	// ErrIncompatible is returned for manifests of another major format version.
	ErrIncompatible = errors.New("incompatible manifest version")
)

//go:embed schema/manifest.schema.json
var schemaJSON []byte

var validator = schema.New("manifest.schema.json", schemaJSON)

// Path returns the manifest location for a target root.
func Path(root string) string {
	return filepath.Join(root, branding.StateDir(), FileName)
}

// Validate checks raw manifest JSON against the embedded schema.
func Validate(data []byte) (*schema.Result, error) {
	return validator.ValidateJSON(data)
}

// Load reads, validates and decodes the manifest at path.
func Load(fsys afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	res, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating manifest %s: %w", path, err)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if err := CheckVersion(m.Version); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	if m.Metadata == nil {
		m.Metadata = map[string]interface{}{}
	}
	return &m, nil
}

// Save writes m to path atomically.
func Save(fsys afero.Fs, path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	data = append(data, '\n')
	if err := platform.WriteFileAtomic(fsys, path, data, platform.FilePerm); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	return nil
}

// CheckVersion rejects manifest versions whose major differs from FormatVersion.
func CheckVersion(version string) error {
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return fmt.Errorf("parsing manifest version %q: %w", version, err)
	}
	current := semver.MustParse(FormatVersion)
	if v.Major() != current.Major() {
		return fmt.Errorf("%w: %s (supported %d.x)", ErrIncompatible, version, current.Major())
	}
	return nil
}
