package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render <template>",
		Short: "Render one catalog template to stdout",
		Long: `Discover facts and render the named catalog template without merging or
writing anything. Unresolved placeholders are listed on stderr.`,
		Args: cobra.ExactArgs(1),
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
			cat, err := a.catalog(engine)
			if err != nil {
				return err
			}
			tpl, ok := cat.Lookup(args[0])
			if !ok {
				names := make([]string, 0, len(cat.Templates))
				for _, t := range cat.Templates {
					names = append(names, t.Name)
				}
				return fmt.Errorf("unknown template %q (available: %s)", args[0], strings.Join(names, ", "))
			}

			store, _ := engine.Discover(cmd.Context(), fsys)
			res := tpl.Tpl.Render(store)
			if _, err := io.WriteString(a.out, res.Content); err != nil {
				return err
			}
			for _, key := range res.Unresolved {
				fmt.Fprintf(a.errOut, "unresolved: %s\n", key)
			}
			return nil
		},
	}
}
