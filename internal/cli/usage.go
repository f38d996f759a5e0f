package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	domusage "github.com/kailas-cloud/emvex/internal/domain/usage"
	usageuc "github.com/kailas-cloud/emvex/internal/usecase/usage"
)

// usageOutput is the --json layout of the usage command.
type usageOutput struct {
	Provider        string `json:"provider,omitempty"`
	Period          string `json:"period"`
	PeriodStart     string `json:"period_start,omitempty"`
	PeriodEnd       string `json:"period_end,omitempty"`
	Tokens          int64  `json:"tokens"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensRemaining int64  `json:"tokens_remaining"`
	Exhausted       bool   `json:"exhausted"`
}

func newUsageCommand(a *app) *cobra.Command {
	var (
		period string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Report token consumption against the budget",
		Long: `Report how many tokens the configured provider consumed in the given
period and how much of the budget remains. Counters persist across runs
only when the store backend is redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := domusage.Period(period)
			switch p {
			case domusage.PeriodDay, domusage.PeriodMonth, domusage.PeriodTotal:
			default:
				return fmt.Errorf("unknown period %q, want day, month or total", period)
			}

			e, err := buildEngine(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer e.Close()

			var reader usageuc.BudgetReader
			if e.budget != nil {
				reader = e.budget
			}
			report := usageuc.New(reader).GetReport(cmd.Context(), p)

			m := report.Metrics()
			b := report.Budget()

			if asJSON {
				out := usageOutput{
					Provider:        report.Provider(),
					Period:          string(report.Period()),
					Tokens:          m.Tokens(),
					TokensLimit:     b.TokensLimit(),
					TokensRemaining: b.TokensRemaining(),
					Exhausted:       b.IsExhausted(),
				}
				if report.PeriodStart() > 0 {
					out.PeriodStart = formatMillis(report.PeriodStart())
					out.PeriodEnd = formatMillis(report.PeriodEnd())
				}
				return printJSON(cmd.OutOrStdout(), out)
			}

			out := cmd.OutOrStdout()
			if report.Provider() == "" {
				fmt.Fprintln(out, "No token budget configured")
				return nil
			}

			fmt.Fprintf(out, "provider: %s\n", report.Provider())
			fmt.Fprintf(out, "period:   %s", report.Period())
			if report.PeriodStart() > 0 {
				fmt.Fprintf(out, " (%s to %s)", formatMillis(report.PeriodStart()), formatMillis(report.PeriodEnd()))
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "tokens:   %d used", m.Tokens())
			if b.TokensLimit() > 0 {
				fmt.Fprintf(out, ", %d of %d remaining", b.TokensRemaining(), b.TokensLimit())
			}
			fmt.Fprintln(out)
			if b.IsExhausted() {
				fmt.Fprintln(out, "budget exhausted")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", string(domusage.PeriodDay), "reporting period: day, month or total")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

// formatMillis renders a unix-millisecond timestamp in UTC.
func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
