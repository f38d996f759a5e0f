package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/emvex/internal/domain"
)

func newIndexCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "index <collection>",
		Short: "Embed documents and store them in a collection",
		Long: `Index documents into a collection: each document's text is embedded and
stored together with its metadata.

--file takes JSON Lines, one document per line ("-" reads stdin):

  {"id": "doc-1", "text": "a cat sat on the mat", "metadata": {"lang": "en"}}

Documents without an id get a generated one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocuments(file)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				return fmt.Errorf("%s holds no documents", file)
			}

			e, err := buildEngine(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireProvider(); err != nil {
				return err
			}

			start := time.Now()
			ctx, usage := domain.WithTokenUsage(cmd.Context())
			ids, err := e.retrieval(newProgressFunc("Indexing")).Index(ctx, args[0], docs)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents into %q in %s, %d tokens used\n",
				len(ids), args[0], time.Since(start).Round(time.Millisecond), usage.Tokens)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `JSON Lines file with documents ("-" for stdin)`)
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
