package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// embedOutput is the --json layout of the embed command.
type embedOutput struct {
	Model        string      `json:"model"`
	Embeddings   [][]float32 `json:"embeddings"`
	PromptTokens int         `json:"prompt_tokens"`
	TotalTokens  int         `json:"total_tokens"`
}

func newEmbedCommand(a *app) *cobra.Command {
	var (
		file   string
		model  string
		dims   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "embed [text]...",
		Short: "Generate embeddings for texts",
		Long: `Generate embeddings for the given texts through the batch pipeline.

Texts come from arguments or, with --file, one per line from a file
("-" reads stdin).

Examples:
  emvex embed "a cat sat on the mat"
  emvex embed --file texts.txt --json > vectors.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts, err := collectTexts(args, file)
			if err != nil {
				return err
			}
			if len(texts) == 0 {
				return fmt.Errorf("no texts given: pass arguments or --file")
			}

			e, err := buildEngine(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireProvider(); err != nil {
				return err
			}

			pipe := e.pipeline(e.docs, newProgressFunc("Embedding"))
			res, err := pipe.Generate(cmd.Context(), texts, domain.EmbedOptions{Model: model, Dimensions: dims})
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), embedOutput{
					Model:        res.Model,
					Embeddings:   res.Embeddings,
					PromptTokens: res.Usage.PromptTokens,
					TotalTokens:  res.Usage.TotalTokens,
				})
			}

			dim := 0
			if len(res.Embeddings) > 0 {
				dim = len(res.Embeddings[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d texts with %s (%d dimensions), %d tokens used\n",
				len(res.Embeddings), res.Model, dim, res.Usage.TotalTokens)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `read texts from a file, one per line ("-" for stdin)`)
	cmd.Flags().StringVar(&model, "model", "", "override the configured model")
	cmd.Flags().IntVar(&dims, "dimensions", 0, "requested vector size, provider default when zero")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the vectors as JSON")

	return cmd
}
