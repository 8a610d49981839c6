package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/agentx-labs/groundwork/internal/discovery"
	"github.com/agentx-labs/groundwork/internal/facts"
	"github.com/agentx-labs/groundwork/internal/platform"
)

type discoverOutput struct {
	Facts  map[string]facts.SnapshotEntry `json:"facts"`
	Report *discovery.Report              `json:"report"`
}

func newDiscoverCmd(a *app) *cobra.Command {
	var (
		snapshot string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the facts inferred about the project",
		Long:  `Run discovery only and print the resulting facts with their confidence and source. Nothing in the target is modified.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			fsys, err := a.target()
			if err != nil {
				return err
			}
			engine, err := a.discovery()
			if err != nil {
				return err
			}
			store, report := engine.Discover(cmd.Context(), fsys)

			if snapshot != "" {
				data, err := store.MarshalSnapshot()
				if err != nil {
					return err
				}
				if err := platform.WriteFileAtomic(afero.NewOsFs(), snapshot, data, platform.FilePerm); err != nil {
					return fmt.Errorf("writing snapshot: %w", err)
				}
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(discoverOutput{Facts: store.Snapshot(), Report: report})
			}
			printFacts(a.out, store, report)
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Also write the fact snapshot to `FILE`")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print facts and report as JSON")
	return cmd
}
