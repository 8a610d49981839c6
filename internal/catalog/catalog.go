package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/agentx-labs/groundwork/internal/branding"
	"github.com/agentx-labs/groundwork/internal/facts"
	"github.com/agentx-labs/groundwork/internal/render"
	"github.com/agentx-labs/groundwork/internal/schema"
)

// IndexFile is the catalog index file name.
const IndexFile = "catalog.yaml"

// supportedMajor is the catalog format major version this build reads.
const supportedMajor = 1

//go:embed templates
var embedded embed.FS

//go:embed schema/catalog.schema.json
var schemaJSON []byte

var validator = schema.New("catalog.schema.json", schemaJSON)

// ErrInvalid is wrapped by every semantic catalog error.
var ErrInvalid = errors.New("invalid catalog")

// Entry is one catalog.yaml template declaration.
type Entry struct {
	Name     string   `yaml:"name"`
	Source   string   `yaml:"source"`
	Target   string   `yaml:"target"`
	Step     string   `yaml:"step"`
	Required []string `yaml:"required"`
}

// Index is the decoded catalog.yaml.
type Index struct {
	Version   string  `yaml:"version"`
	Templates []Entry `yaml:"templates"`
}

// Template is a catalog entry with its parsed template.
type Template struct {
	Entry
	Tpl *render.Template
}

// Catalog is a loaded, validated set of templates.
type Catalog struct {
	Version   string
	Origin    string
	Templates []*Template
}

// Options constrains what a catalog may declare.
type Options struct {
	// Schema is the fact schema template keys are checked against.
	Schema *facts.Schema
	// Steps lists the step names templates may be attached to.
	Steps []string
}

// Default loads the embedded catalog.
func Default(opts Options) (*Catalog, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("opening embedded catalog: %w", err)
	}
	c, err := Load(afero.FromIOFS{FS: sub}, ".", opts)
	if err != nil {
		return nil, err
	}
	c.Origin = "embedded"
	return c, nil
}

// LoadDir loads a catalog from a directory on fsys.
func LoadDir(fsys afero.Fs, dir string, opts Options) (*Catalog, error) {
	c, err := Load(fsys, dir, opts)
	if err != nil {
		return nil, err
	}
	c.Origin = dir
	return c, nil
}

// Load reads dir/catalog.yaml from fsys, validates it, and parses every
// template it lists.
func Load(fsys afero.Fs, dir string, opts Options) (*Catalog, error) {
	indexPath := path.Join(dir, IndexFile)
	data, err := afero.ReadFile(fsys, indexPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", indexPath, err)
	}

	res, err := validator.ValidateYAML(data)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", indexPath, err)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", indexPath, err)
	}

	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", indexPath, err)
	}
	if err := checkVersion(idx.Version); err != nil {
		return nil, fmt.Errorf("%s: %w", indexPath, err)
	}
	if err := idx.check(opts); err != nil {
		return nil, fmt.Errorf("%s: %w", indexPath, err)
	}

	c := &Catalog{Version: idx.Version}
	for _, e := range idx.Templates {
		src := path.Join(dir, e.Source)
		text, err := afero.ReadFile(fsys, src)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", e.Name, err)
		}
		tpl, err := render.Parse(e.Source, string(text), opts.Schema)
		if err != nil {
			return nil, fmt.Errorf("loading template %s: %w", e.Name, err)
		}
		c.Templates = append(c.Templates, &Template{Entry: e, Tpl: tpl})
	}
	return c, nil
}

// ForStep returns the templates attached to step, in catalog order.
func (c *Catalog) ForStep(step string) []*Template {
	var out []*Template
	for _, t := range c.Templates {
		if t.Step == step {
			out = append(out, t)
		}
	}
	return out
}

// Lookup finds a template by name.
func (c *Catalog) Lookup(name string) (*Template, bool) {
	for _, t := range c.Templates {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

func checkVersion(version string) error {
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return fmt.Errorf("parsing catalog version %q: %w", version, err)
	}
	if v.Major() != supportedMajor {
		return fmt.Errorf("%w: version %s is not supported (want %d.x)", ErrInvalid, version, supportedMajor)
	}
	return nil
}

// check enforces the rules the JSON Schema cannot express.
func (idx *Index) check(opts Options) error {
	steps := map[string]bool{}
	for _, s := range opts.Steps {
		steps[s] = true
	}

	names := map[string]bool{}
	targets := map[string]bool{}
	for i := range idx.Templates {
		e := &idx.Templates[i]
		if names[e.Name] {
			return fmt.Errorf("%w: duplicate template name %q", ErrInvalid, e.Name)
		}
		names[e.Name] = true

		target, err := cleanTarget(e.Target)
		if err != nil {
			return fmt.Errorf("%w: template %s: %v", ErrInvalid, e.Name, err)
		}
		if targets[target] {
			return fmt.Errorf("%w: template %s: target %q is generated twice", ErrInvalid, e.Name, target)
		}
		targets[target] = true
		e.Target = target

		if len(steps) > 0 && !steps[e.Step] {
			return fmt.Errorf("%w: template %s: unknown step %q", ErrInvalid, e.Name, e.Step)
		}
		for _, key := range e.Required {
			if !facts.ValidKey(key) {
				return fmt.Errorf("%w: template %s: malformed required key %q", ErrInvalid, e.Name, key)
			}
			if opts.Schema != nil {
				if _, ok := opts.Schema.Lookup(key); !ok {
					return fmt.Errorf("%w: template %s: required key %q is never produced", ErrInvalid, e.Name, key)
				}
			}
		}
	}
	return nil
}

// cleanTarget rejects targets that are absolute, escape the project root, or
// point into the state directory.
func cleanTarget(target string) (string, error) {
	if path.IsAbs(target) || strings.HasPrefix(target, `\`) || strings.Contains(target, ":") {
		return "", fmt.Errorf("target %q must be relative", target)
	}
	clean := path.Clean(target)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("target %q escapes the project root", target)
	}
	if clean == branding.StateDir() || strings.HasPrefix(clean, branding.StateDir()+"/") {
		return "", fmt.Errorf("target %q is inside the state directory", target)
	}
	return clean, nil
}
