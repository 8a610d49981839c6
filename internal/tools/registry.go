package tools

import "sort"

// Name identifies a probed tool. Names are used as a fact key segment, so
// they stay lower-case.
type Name string

const (
	Git    Name = "git"
	Node   Name = "node"
	Npm    Name = "npm"
	Go     Name = "go"
	Cargo  Name = "cargo"
	Python Name = "python"
	Docker Name = "docker"
	Make   Name = "make"
)

// Spec says how to probe one tool.
type Spec struct {
	Name   Name
	Binary string
	Args   []string
}

var registry = map[Name]Spec{
	Git:    {Name: Git, Binary: "git", Args: []string{"--version"}},
	Node:   {Name: Node, Binary: "node", Args: []string{"--version"}},
	Npm:    {Name: Npm, Binary: "npm", Args: []string{"--version"}},
	Go:     {Name: Go, Binary: "go", Args: []string{"version"}},
	Cargo:  {Name: Cargo, Binary: "cargo", Args: []string{"--version"}},
	Python: {Name: Python, Binary: "python3", Args: []string{"--version"}},
	Docker: {Name: Docker, Binary: "docker", Args: []string{"--version"}},
	Make:   {Name: Make, Binary: "make", Args: []string{"--version"}},
}

// AllTools returns every known tool name, sorted.
func AllTools() []Name {
	names := make([]Name, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Lookup returns the probe spec for a tool name.
func Lookup(s string) (Spec, bool) {
	spec, ok := registry[Name(s)]
	return spec, ok
}

// Specs resolves names to specs. Unknown names are returned separately.
func Specs(names []string) (known []Spec, unknown []string) {
	for _, n := range names {
		if spec, ok := Lookup(n); ok {
			known = append(known, spec)
		} else {
			unknown = append(unknown, n)
		}
	}
	return known, unknown
}
