package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	healthuc "github.com/kailas-cloud/emvex/internal/usecase/health"
)

// healthOutput is the --json layout of the health command.
type healthOutput struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func newHealthCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check store and provider availability",
		Long: `Ping the vector store and, when a provider is configured, the embedding
endpoint. The exit code is non-zero when every component is down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := buildEngine(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer e.Close()

			report := healthuc.New(e.store, e.embHealth).Check(cmd.Context())

			if asJSON {
				checks := make(map[string]string, len(report.Checks))
				for name, cr := range report.Checks {
					checks[name] = string(cr)
				}
				if err := printJSON(cmd.OutOrStdout(), healthOutput{
					Status: string(report.Status),
					Checks: checks,
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "status: %s\n", report.Status)

				names := make([]string, 0, len(report.Checks))
				for name := range report.Checks {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(out, "  %s: %s\n", name, report.Checks[name])
				}
			}

			if report.Status == healthuc.Unhealthy {
				return fmt.Errorf("unhealthy")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}
