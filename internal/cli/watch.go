package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrlokans/clippings-sync/internal/discovery"
	"github.com/mrlokans/clippings-sync/internal/scheduler"
)

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep running and sync whenever the clippings file changes",
		Long: `Watch keeps the process alive and runs a sync when the clippings file
changes or a Kindle is mounted. A cron schedule triggers additional runs for
filesystems that do not report changes. Stop it with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd.Context())
		},
	}

	cmd.Flags().String("schedule", "", "cron schedule for fallback runs (default \"*/30 * * * *\")")
	cmd.Flags().Duration("debounce", 0, "quiet period after a file change before syncing (default 2s)")

	return cmd
}

func (a *app) runWatch(ctx context.Context) error {
	watcher, err := scheduler.NewWatcher(a.watcherConfig(), a.watchRun, a.logger)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

// watcherConfig watches the directory of an explicit clippings file, or the
// mount roots and every known Kindle location below them.
func (a *app) watcherConfig() scheduler.WatcherConfig {
	cfg := scheduler.WatcherConfig{
		Schedule: a.cfg.Watch.Schedule,
		Debounce: a.cfg.Watch.Debounce,
		FileName: discovery.ClippingsFileName,
	}

	if path := a.cfg.Clippings.Path; path != "" {
		cfg.Dirs = []string{filepath.Dir(path)}
		cfg.FileName = filepath.Base(path)
		return cfg
	}

	cfg.Dirs = append(cfg.Dirs, a.cfg.Clippings.MountRoots...)
	for _, candidate := range discovery.Candidates(a.cfg.Clippings.MountRoots, a.cfg.Clippings.VolumeNames) {
		cfg.Dirs = append(cfg.Dirs, filepath.Dir(candidate))
	}
	return cfg
}

// watchRun is one triggered sync. An absent Kindle is not an error here.
func (a *app) watchRun(ctx context.Context, reason string) error {
	path, err := a.clippingsPath()
	if err != nil {
		if isInputMissing(err) {
			a.logger.Info("clippings file not available, waiting", "reason", reason, "error", err)
			return nil
		}
		return err
	}

	_, err = a.syncFile(path)
	return err
}
