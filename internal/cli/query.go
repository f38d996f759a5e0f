package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newQueryCommand(a *app) *cobra.Command {
	var (
		topK    int
		filters []string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "query <collection> <text>",
		Short: "Search a collection by meaning",
		Long: `Embed the query text and return the most similar stored documents,
best first. --filter restricts results to documents whose metadata
matches every given pair.

Examples:
  emvex query articles "feline behaviour"
  emvex query articles "feline behaviour" --top-k 3 --filter lang=en`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(filters)
			if err != nil {
				return err
			}

			e, err := buildEngine(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireProvider(); err != nil {
				return err
			}

			results, err := e.retrieval(nil).Query(cmd.Context(), args[0], args[1], topK, filter)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), results)
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No results")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "%2d. %s  score=%.4f\n", i+1, r.ID, r.Score)
				if r.Text != "" {
					fmt.Fprintf(out, "    %s\n", truncate(r.Text, 120))
				}
				keys := make([]string, 0, len(r.Metadata))
				for k := range r.Metadata {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "    %s=%s\n", k, r.Metadata[k])
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "number of results")
	cmd.Flags().StringSliceVar(&filters, "filter", nil, "metadata filter key=value, repeatable")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	return cmd
}
