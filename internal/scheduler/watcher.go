// Package scheduler keeps the sync running in the background: it reacts to
// changes of the clippings file and falls back to a cron schedule for
// filesystems that never emit events.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// RunFunc performs one sync run. The reason is for logging only.
type RunFunc func(ctx context.Context, reason string) error

type WatcherConfig struct {
	// Dirs are watched for changes. Missing directories are skipped.
	Dirs []string
	// FileName limits file events to this base name. Create events for
	// directories (a volume being mounted) always trigger.
	FileName string
	Schedule string
	Debounce time.Duration
}

// Watcher triggers RunFunc on file events and on schedule. Runs never overlap.
type Watcher struct {
	cfg    WatcherConfig
	run    RunFunc
	logger *slog.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	runMu sync.Mutex // held for the duration of a run

	timerMu  sync.Mutex
	timer    *time.Timer
	inflight sync.WaitGroup // armed or running debounced runs
}

func NewWatcher(cfg WatcherConfig, run RunFunc, logger *slog.Logger) (*Watcher, error) {
	if run == nil {
		return nil, errors.New("run function is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Schedule != "" {
		if err := ValidateSchedule(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("invalid cron schedule '%s': %w", cfg.Schedule, err)
		}
	}

	return &Watcher{
		cfg:    cfg,
		run:    run,
		logger: logger,
		cron:   cron.New(cron.WithParser(scheduleParser)),
	}, nil
}

// Run blocks until ctx is cancelled. It performs one run immediately.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()
	defer func() {
		w.stopTimer()
		w.inflight.Wait()
	}()

	watched := 0
	for _, dir := range w.cfg.Dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			w.logger.Debug("watch directory unavailable", "dir", dir)
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("failed to watch directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}

	if w.cfg.Schedule != "" {
		w.entryID, err = w.cron.AddFunc(w.cfg.Schedule, func() {
			w.execute(ctx, "schedule")
		})
		if err != nil {
			return fmt.Errorf("failed to schedule sync job: %w", err)
		}
		w.cron.Start()
		defer func() {
			<-w.cron.Stop().Done()
		}()
	}

	if watched == 0 && w.cfg.Schedule == "" {
		return errors.New("nothing to watch: no directory available and no schedule set")
	}

	w.logger.Info("watching for clippings changes",
		"dirs", watched,
		"schedule", DescribeSchedule(w.cfg.Schedule),
		"next_run", w.NextRun())

	w.execute(ctx, "startup")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.logger.Debug("file event", "name", event.Name, "op", event.Op.String())
				w.schedule(ctx)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// NextRun returns when the cron schedule fires next, or nil without a schedule.
func (w *Watcher) NextRun() *time.Time {
	for _, entry := range w.cron.Entries() {
		if entry.ID == w.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	if w.cfg.FileName == "" || filepath.Base(event.Name) == w.cfg.FileName {
		return true
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// schedule (re)arms the debounce timer so a burst of events yields one run.
func (w *Watcher) schedule(ctx context.Context) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	w.stopTimerLocked()
	w.inflight.Add(1)
	w.timer = time.AfterFunc(w.cfg.Debounce, func() {
		defer w.inflight.Done()
		w.execute(ctx, "file change")
	})
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	w.stopTimerLocked()
}

// stopTimerLocked releases the pending run of a timer that has not fired.
func (w *Watcher) stopTimerLocked() {
	if w.timer != nil && w.timer.Stop() {
		w.inflight.Done()
	}
	w.timer = nil
}

func (w *Watcher) execute(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}

	w.runMu.Lock()
	defer w.runMu.Unlock()
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := w.run(ctx, reason); err != nil {
		w.logger.Error("sync run failed", "reason", reason, "error", err)
		return
	}
	w.logger.Debug("sync run finished", "reason", reason, "duration", time.Since(start).Round(time.Millisecond))
}
