package importers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/clippings-sync/internal/entities"
	"github.com/mrlokans/clippings-sync/internal/exporters"
	"github.com/mrlokans/clippings-sync/internal/kindle"
	"github.com/mrlokans/clippings-sync/internal/syncstate"
)

// ErrInputUnreadable wraps failures to open or read the clippings file.
var ErrInputUnreadable = errors.New("clippings file unreadable")

type BookStatus string

const (
	BookStatusWritten   BookStatus = "written"
	BookStatusUnchanged BookStatus = "unchanged"
	BookStatusFailed    BookStatus = "failed"
	BookStatusDryRun    BookStatus = "dry_run"
)

// BookOutcome describes what happened to one book during a run.
type BookOutcome struct {
	Title         string
	Author        string
	Status        BookStatus
	Path          string
	Highlights    int
	NewHighlights int
	Err           error
}

// Result summarises a run.
type Result struct {
	RunID          string
	Books          []BookOutcome
	BooksWritten   int
	BooksUnchanged int
	BooksFailed    int
	NewHighlights  int
	Records        int
	Skipped        map[kindle.SkipReason]int
	StateSize      int
}

type Options struct {
	// DryRun renders every book but writes nothing and never saves state.
	DryRun bool
	// PersistEachBook saves the state after every written book instead of
	// once at the end of the run.
	PersistEachBook bool
	// Now is the render timestamp source; defaults to time.Now.
	Now func() time.Time
}

// Pipeline handles the import workflow:
// parse → group by book → deduplicate → render → write → persist.
type Pipeline struct {
	store  syncstate.Store
	dest   exporters.Destination
	logger *slog.Logger
	opts   Options
}

// NewPipeline creates a new import pipeline. A nil logger uses slog.Default().
func NewPipeline(store syncstate.Store, dest exporters.Destination, logger *slog.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{store: store, dest: dest, logger: logger, opts: opts}
}

// RunFile opens the clippings file at path and runs the import on it.
func (p *Pipeline) RunFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInputUnreadable, err)
	}
	defer f.Close()

	return p.Run(f)
}

// Run imports the clippings read from r.
//
// Per-record and per-book problems are logged and reported in the Result.
// Only a read failure of r or a failure to save the state returns an error;
// nothing is saved when r cannot be read.
func (p *Pipeline) Run(r io.Reader) (Result, error) {
	result := Result{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", result.RunID)

	report, err := kindle.Parse(r)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrInputUnreadable, err)
	}
	result.Records = report.Records
	result.Skipped = report.Skipped

	logger.Info("clippings parsed",
		"books", len(report.Books),
		"highlights", report.HighlightCount(),
		"skipped_blocks", report.SkippedTotal())

	state := syncstate.Load(p.store, logger)
	now := p.opts.Now()

	written := make(map[string]entities.BookKey)
	dirty := false

	for _, book := range report.Books {
		outcome := p.processBook(book, state, now, logger)

		if outcome.Status == BookStatusWritten {
			if other, ok := written[outcome.Path]; ok && other != book.Key() {
				logger.Warn("filename collision, previous document overwritten",
					"path", outcome.Path,
					"title", book.Title,
					"previous_title", other.Title)
			}
			written[outcome.Path] = book.Key()

			if outcome.NewHighlights > 0 {
				dirty = true
				if p.opts.PersistEachBook {
					if err := p.store.Save(state); err != nil {
						return result, fmt.Errorf("failed to save sync state: %w", err)
					}
					dirty = false
				}
			}
		}

		result.add(outcome)
	}

	if dirty && !p.opts.DryRun {
		if err := p.store.Save(state); err != nil {
			return result, fmt.Errorf("failed to save sync state: %w", err)
		}
	}
	result.StateSize = state.Len()

	logger.Info("sync finished",
		"written", result.BooksWritten,
		"unchanged", result.BooksUnchanged,
		"failed", result.BooksFailed,
		"new_highlights", result.NewHighlights)

	return result, nil
}

// processBook renders and writes one book. New ids are recorded into state
// only after the document was written.
func (p *Pipeline) processBook(book *entities.Book, state *syncstate.State, now time.Time, logger *slog.Logger) BookOutcome {
	outcome := BookOutcome{
		Title:      book.Title,
		Author:     book.Author,
		Highlights: len(book.Highlights),
	}

	rendered, ok := exporters.RenderBook(book, state.Snapshot(), now)
	if !ok {
		outcome.Status = BookStatusUnchanged
		logger.Debug("no new highlights", "title", book.Title)
		return outcome
	}
	outcome.NewHighlights = len(rendered.NewIDs)

	if p.opts.DryRun {
		outcome.Status = BookStatusDryRun
		logger.Info("would save", "file", book.Filename(), "new_highlights", outcome.NewHighlights)
		return outcome
	}

	path, err := p.dest.Write(book.Filename(), rendered.Content)
	if err != nil {
		outcome.Status = BookStatusFailed
		outcome.Err = err
		logger.Error("failed to save", "file", book.Filename(), "error", err)
		return outcome
	}

	state.Record(rendered.NewIDs...)
	outcome.Status = BookStatusWritten
	outcome.Path = path
	logger.Info("saved", "file", book.Filename(), "new_highlights", outcome.NewHighlights)

	return outcome
}

func (r *Result) add(o BookOutcome) {
	r.Books = append(r.Books, o)
	switch o.Status {
	case BookStatusWritten:
		r.BooksWritten++
		r.NewHighlights += o.NewHighlights
	case BookStatusUnchanged:
		r.BooksUnchanged++
	case BookStatusFailed:
		r.BooksFailed++
	case BookStatusDryRun:
		r.NewHighlights += o.NewHighlights
	}
}
