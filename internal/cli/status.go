package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/groundwork/internal/manifest"
	"github.com/agentx-labs/groundwork/internal/verify"
)

type statusOutput struct {
	RunID        string          `json:"run_id"`
	Steps        []manifest.Step `json:"steps"`
	Verification *verify.Report  `json:"verification"`
}

func newStatusCmd(a *app, use, short string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `. Read-only: nothing in the target is modified.

Exit codes: 0 passed, 1 warnings, 2 failed or no manifest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return exit(2, err)
			}
			fsys, err := a.target()
			if err != nil {
				return exit(2, err)
			}
			m, err := manifest.Load(fsys, manifest.Path("/"))
			if errors.Is(err, manifest.ErrNotFound) {
				return exit(2, fmt.Errorf("no run recorded in %s (run `%s run` first)", a.dir, cmd.Root().Name()))
			}
			if err != nil {
				return exit(2, err)
			}

			r := verify.Run(fsys, m)
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(statusOutput{RunID: m.RunID, Steps: m.Steps, Verification: r}); err != nil {
					return exit(2, err)
				}
			} else {
				printStatus(a.out, m, r)
			}
			if code := r.Outcome.ExitCode(); code != 0 {
				return exit(code, nil)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print machine-readable output")
	return cmd
}
