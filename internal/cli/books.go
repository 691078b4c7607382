package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/clippings-sync/internal/importers"
	"github.com/mrlokans/clippings-sync/internal/kindle"
	"github.com/mrlokans/clippings-sync/internal/syncstate"
)

func newBooksCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List the books found in the clippings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.clippingsPath()
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("%w: %v", importers.ErrInputUnreadable, err)
			}
			defer f.Close()

			report, err := kindle.Parse(f)
			if err != nil {
				return fmt.Errorf("%w: %v", importers.ErrInputUnreadable, err)
			}

			store, closeStore := openStore(a.cfg.State)
			defer closeStore()
			known := syncstate.Load(store, a.logger)

			out := cmd.OutOrStdout()
			for i, book := range report.Books {
				newCount := 0
				for _, id := range book.IDs() {
					if !known.Has(id) {
						newCount++
					}
				}
				fmt.Fprintf(out, "%d. %q by %s (%d highlights, %d new)\n",
					i+1, book.Title, book.Author, len(book.Highlights), newCount)
			}
			fmt.Fprintf(out, "\n%d books, %d highlights, %d skipped entries\n",
				len(report.Books), report.HighlightCount(), report.SkippedTotal())
			return nil
		},
	}
}
