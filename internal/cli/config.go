package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/groundwork/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user settings",
		Long:  `Read and write configuration stored at ~/.groundwork/config.yaml.`,
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			key, value := args[0], args[1]
			if err := cfg.Set(key, value); err != nil {
				return fmt.Errorf("setting config key %q: %w", key, err)
			}
			fmt.Fprintf(a.out, "Set %s = %s\n", key, value)
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !config.Known(args[0]) {
				return fmt.Errorf("unknown config key %q", args[0])
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, cfg.Get(args[0]))
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every configuration value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			for _, k := range config.Keys() {
				fmt.Fprintf(a.out, "%s = %s\n", k, cfg.Get(k))
			}
			return nil
		},
	}

	cmd.AddCommand(setCmd, getCmd, listCmd)
	return cmd
}
