package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelsCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the provider's embedding models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := buildEngine(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireProvider(); err != nil {
				return err
			}

			models, err := e.docs.ListModels(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), models)
			}

			def := e.docs.DefaultModel()
			out := cmd.OutOrStdout()
			for _, m := range models {
				marker := "  "
				if m == def {
					marker = "* "
				}
				fmt.Fprintln(out, marker+m)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the model names as JSON")

	return cmd
}
