package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/groundwork/internal/branding"
)

func newVersionCmd(a *app) *cobra.Command {
	var short, asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				fmt.Fprintln(a.out, a.info.Version)
				return nil
			}

			if asJSON {
				info := map[string]string{
					"version": a.info.Version,
					"commit":  a.info.Commit,
					"date":    a.info.Date,
				}
				out, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling version info: %w", err)
				}
				fmt.Fprintln(a.out, string(out))
				return nil
			}

			fmt.Fprintf(a.out, "%s version %s (commit: %s, built: %s)\n", branding.CLIName(), a.info.Version, a.info.Commit, a.info.Date)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print version number only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version info as JSON")
	return cmd
}
