package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrlokans/clippings-sync/internal/config"
	"github.com/mrlokans/clippings-sync/internal/discovery"
	"github.com/mrlokans/clippings-sync/internal/exporters"
	"github.com/mrlokans/clippings-sync/internal/importers"
	"github.com/mrlokans/clippings-sync/internal/syncstate"
)

func newSyncCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import new highlights once and exit",
		Long: `Import highlights from 'My Clippings.txt' into one Markdown document per book.

Without --file the clippings file is looked up on mounted Kindle volumes,
e.g. /Volumes/Kindle/documents/My Clippings.txt.`,
		Example: `  clippings-sync sync
  clippings-sync sync --file "My Clippings.txt" --output ~/Notes/Kindle
  clippings-sync sync --dry-run --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd)
		},
	}
}

func (a *app) runSync(cmd *cobra.Command) error {
	path, err := a.clippingsPath()
	if err != nil {
		return err
	}

	result, err := a.syncFile(path)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result, a.cfg.DryRun)
	return nil
}

// clippingsPath returns the configured clippings file or discovers one.
func (a *app) clippingsPath() (string, error) {
	if a.cfg.Clippings.Path != "" {
		if _, err := os.Stat(a.cfg.Clippings.Path); err != nil {
			return "", fmt.Errorf("%w: %v", importers.ErrInputUnreadable, err)
		}
		return a.cfg.Clippings.Path, nil
	}

	path, err := discovery.FindClippings(a.cfg.Clippings.MountRoots, a.cfg.Clippings.VolumeNames)
	if err != nil {
		return "", err
	}
	a.logger.Info("found clippings file", "path", path)
	return path, nil
}

func (a *app) syncFile(path string) (importers.Result, error) {
	store, closeStore := openStore(a.cfg.State)
	defer closeStore()

	pipeline := importers.NewPipeline(
		store,
		exporters.NewFolderDestination(a.cfg.Output.Dir),
		a.logger.With("file", filepath.Base(path)),
		importers.Options{
			DryRun:          a.cfg.DryRun,
			PersistEachBook: a.cfg.State.PersistEachBook,
		},
	)
	return pipeline.RunFile(path)
}

// openStore returns the configured state backend and its release func.
func openStore(cfg config.State) (syncstate.Store, func()) {
	switch cfg.Backend {
	case config.StateBackendSQLite:
		store := syncstate.NewSQLiteStore(cfg.Path)
		return store, func() { _ = store.Close() }
	default:
		return syncstate.NewJSONFileStore(cfg.Path), func() {}
	}
}

func printSummary(w io.Writer, result importers.Result, dryRun bool) {
	if dryRun {
		fmt.Fprintln(w, "DRY RUN - no files were written")
	}
	fmt.Fprintf(w, "Books written: %d\n", result.BooksWritten)
	fmt.Fprintf(w, "Books unchanged: %d\n", result.BooksUnchanged)
	if result.BooksFailed > 0 {
		fmt.Fprintf(w, "Books failed: %d\n", result.BooksFailed)
		for _, book := range result.Books {
			if book.Err != nil {
				fmt.Fprintf(w, "  [ERROR] %q: %v\n", book.Title, book.Err)
			}
		}
	}
	fmt.Fprintf(w, "New highlights: %d\n", result.NewHighlights)

	skipped := 0
	for _, n := range result.Skipped {
		skipped += n
	}
	if skipped > 0 {
		fmt.Fprintf(w, "Skipped entries: %d\n", skipped)
	}
}

// isInputMissing reports whether err means there is nothing to read yet.
func isInputMissing(err error) bool {
	return errors.Is(err, discovery.ErrNotFound) || errors.Is(err, importers.ErrInputUnreadable)
}
