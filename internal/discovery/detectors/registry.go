package detectors

import (
	"github.com/agentx-labs/groundwork/internal/discovery"
	"github.com/agentx-labs/groundwork/internal/tools"
)

// Options configures the built-in detector set.
type Options struct {
	// Prober checks tool availability. Nil disables the tools detector.
	Prober Prober
	// Tools lists the tools to probe.
	Tools []tools.Spec
}

// Default returns the built-in detectors in registration order. Earlier
// detectors win confidence ties, so signature files come before structural
// and prose inference.
func Default(opts Options) []discovery.Detector {
	return []discovery.Detector{
		NewUser(),
		NewNode(),
		NewGo(),
		NewRust(),
		NewPython(),
		NewMake(),
		NewFramework(),
		NewDocker(),
		NewVCS(),
		NewEditorConfig(),
		NewPrettier(),
		NewLayout(),
		NewStyle(),
		NewReadme(),
		NewTools(opts.Prober, opts.Tools),
	}
}
