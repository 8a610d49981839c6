package detectors

import (
	"context"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/facts"
	"github.com/agentx-labs/groundwork/internal/tools"
)

// Prober is the part of tools.Prober the detector needs.
type Prober interface {
	ProbeAll(ctx context.Context, specs []tools.Spec) []tools.Status
}

// Tools reports which developer tools are runnable on this machine.
type Tools struct {
	base
	prober Prober
	specs  []tools.Spec
}

// NewTools returns a detector that probes specs with prober.
func NewTools(prober Prober, specs []tools.Spec) *Tools {
	return &Tools{
		base: base{
			name:    "tools",
			keys:    []facts.KeySpec{boolean(KeyToolAvailable)},
			ceiling: facts.High,
		},
		prober: prober,
		specs:  specs,
	}
}

func (d *Tools) Detect(ctx context.Context, _ afero.Fs, _ facts.Reader) ([]facts.Fact, error) {
	if d.prober == nil || len(d.specs) == 0 {
		return nil, nil
	}
	var out []facts.Fact
	for _, st := range d.prober.ProbeAll(ctx, d.specs) {
		out = append(out, facts.Fact{
			Key:        ToolKey(string(st.Tool)),
			Value:      facts.Bool(st.Available),
			Confidence: facts.High,
			Source:     "PATH",
		})
	}
	return out, nil
}
