package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	domcluster "github.com/kailas-cloud/emvex/internal/domain/cluster"
	clusteruc "github.com/kailas-cloud/emvex/internal/usecase/cluster"
)

// clusterOutput is the --json layout of the cluster command.
type clusterOutput struct {
	Clusters   [][]string `json:"clusters"`
	Iterations int        `json:"iterations"`
	Seed       int64      `json:"seed"`
}

func newClusterCommand(a *app) *cobra.Command {
	var (
		k       int
		seed    int64
		maxIter int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "cluster <collection>",
		Short: "Group the vectors of a collection with k-means",
		Long: `Partition every vector of a collection into k groups by cosine
similarity. The same --seed over the same collection reproduces the
same grouping; without it each run picks a fresh seed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer e.Close()

			opts := domcluster.Options{Seed: seed, MaxIterations: maxIter}
			if opts.Seed == 0 {
				opts.Seed = time.Now().UnixNano()
			}

			grouped, err := clusteruc.New(e.store).Group(cmd.Context(), args[0], k, opts)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), clusterOutput{
					Clusters:   grouped.Clusters,
					Iterations: grouped.Iterations,
					Seed:       opts.Seed,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d clusters after %d iterations (seed %d)\n", k, grouped.Iterations, opts.Seed)
			for i, ids := range grouped.Clusters {
				fmt.Fprintf(out, "cluster %d (%d vectors): %s\n", i, len(ids), previewIDs(ids, 5))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "clusters", "k", 2, "number of clusters")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed, fresh when zero")
	cmd.Flags().IntVar(&maxIter, "max-iterations", 0, "iteration cap, library default when zero")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the grouping as JSON")

	return cmd
}

// previewIDs renders up to n IDs and a remainder marker.
func previewIDs(ids []string, n int) string {
	if len(ids) <= n {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(ids[:n], ", "), len(ids)-n)
}
