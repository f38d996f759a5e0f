package cli

import (
	"fmt"
	"sync"

	"github.com/schollz/progressbar/v3"

	embeddinguc "github.com/kailas-cloud/emvex/internal/usecase/embedding"
)

// newProgressFunc returns a pipeline progress callback that renders a
// terminal bar. The bar is created on the first call, when the total is
// known; the pipeline may report from several workers, so updates are
// serialized.
func newProgressFunc(description string) embeddinguc.ProgressFunc {
	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)

	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		_ = bar.Set(done)
	}
}
