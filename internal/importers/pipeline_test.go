package importers

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mrlokans/clippings-sync/internal/exporters"
	"github.com/mrlokans/clippings-sync/internal/kindle"
	"github.com/mrlokans/clippings-sync/internal/syncstate"
	storemocks "github.com/mrlokans/clippings-sync/internal/syncstate/mocks"
)

const clippings = `Dune (Frank Herbert)
- Your Highlight on page 12 | location 200-210 | Added on Monday, 1 January 2024 12:00:00

I must not fear.
==========
Dune (Frank Herbert)
- Your Note on location 55 | Added on Monday, 1 January 2024 12:05:00

Spice must flow
==========
Sapiens: A Brief History (Yuval Noah Harari)
- Your Highlight on page 3 | Added on Tuesday, 2 January 2024 08:00:00

Cognitive revolution
==========
Truncated (Nobody)
- Your Highlight on page 1
==========
`

type mockDestination struct {
	writes  map[string]string
	failFor map[string]error
}

func newMockDestination() *mockDestination {
	return &mockDestination{writes: map[string]string{}, failFor: map[string]error{}}
}

func (m *mockDestination) Write(name, content string) (string, error) {
	if err := m.failFor[name]; err != nil {
		return "", err
	}
	m.writes[name] = content
	return "/archive/" + name + ".md", nil
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestPipeline_Run_FirstImport(t *testing.T) {
	store := syncstate.NewJSONFileStore(filepath.Join(t.TempDir(), "state.json"))
	dest := newMockDestination()
	pipeline := NewPipeline(store, dest, quietLogger(), Options{Now: fixedNow})

	result, err := pipeline.Run(strings.NewReader(clippings))

	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.BooksWritten)
	assert.Equal(t, 3, result.NewHighlights)
	assert.Equal(t, 3, result.Records)
	assert.Equal(t, 1, result.Skipped[kindle.SkipTooFewLines])
	assert.Equal(t, 3, result.StateSize)

	require.Contains(t, dest.writes, "Dune — Frank Herbert")
	require.Contains(t, dest.writes, "Sapiens A Brief History — Yuval Noah Harari")
	assert.Contains(t, dest.writes["Dune — Frank Herbert"], "synced: 2024-06-15")
	assert.NotContains(t, strings.Join(mapValues(dest.writes), ""), "Truncated")

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, state.Len())
}

func TestPipeline_Run_IdempotentRerun(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	outDir := filepath.Join(dir, "archive")

	newPipeline := func() *Pipeline {
		return NewPipeline(
			syncstate.NewJSONFileStore(statePath),
			exporters.NewFolderDestination(outDir),
			quietLogger(),
			Options{Now: fixedNow},
		)
	}

	first, err := newPipeline().Run(strings.NewReader(clippings))
	require.NoError(t, err)
	assert.Equal(t, 2, first.BooksWritten)

	stateBefore, err := os.ReadFile(statePath)
	require.NoError(t, err)
	stat, err := os.Stat(statePath)
	require.NoError(t, err)

	second, err := newPipeline().Run(strings.NewReader(clippings))
	require.NoError(t, err)

	assert.Equal(t, 0, second.BooksWritten)
	assert.Equal(t, 2, second.BooksUnchanged)
	assert.Equal(t, 0, second.NewHighlights)

	stateAfter, err := os.ReadFile(statePath)
	require.NoError(t, err)
	assert.Equal(t, stateBefore, stateAfter)
	statAfter, err := os.Stat(statePath)
	require.NoError(t, err)
	assert.Equal(t, stat.ModTime(), statAfter.ModTime(), "state file must not be rewritten")
}

func TestPipeline_Run_IncrementalImportRewritesWholeBook(t *testing.T) {
	store := syncstate.NewJSONFileStore(filepath.Join(t.TempDir(), "state.json"))

	_, err := NewPipeline(store, newMockDestination(), quietLogger(), Options{Now: fixedNow}).
		Run(strings.NewReader(clippings))
	require.NoError(t, err)

	appended := clippings + `Dune (Frank Herbert)
- Your Highlight on page 40 | Added on Wednesday, 3 January 2024 10:00:00

Fear is the mind-killer.
==========
`
	dest := newMockDestination()
	result, err := NewPipeline(store, dest, quietLogger(), Options{Now: fixedNow}).
		Run(strings.NewReader(appended))

	require.NoError(t, err)
	assert.Equal(t, 1, result.BooksWritten)
	assert.Equal(t, 1, result.BooksUnchanged)
	assert.Equal(t, 1, result.NewHighlights)

	doc := dest.writes["Dune — Frank Herbert"]
	assert.Contains(t, doc, "I must not fear.")
	assert.Contains(t, doc, "Fear is the mind-killer.")
	assert.Less(t, strings.Index(doc, "I must not fear."), strings.Index(doc, "Fear is the mind-killer."))
}

func TestPipeline_Run_NewHighlightWithShiftedDigitsIsImported(t *testing.T) {
	store := syncstate.NewJSONFileStore(filepath.Join(t.TempDir(), "state.json"))
	first := `Dune (Frank Herbert)
- Your Highlight on page 1 | location 23 | Added on Monday, 1 January 2024 12:00:00

x
==========
`
	_, err := NewPipeline(store, newMockDestination(), quietLogger(), Options{Now: fixedNow}).
		Run(strings.NewReader(first))
	require.NoError(t, err)

	second := first + `Dune (Frank Herbert)
- Your Highlight on page 12 | location 3 | Added on Tuesday, 2 January 2024 12:00:00

x
==========
`
	dest := newMockDestination()
	result, err := NewPipeline(store, dest, quietLogger(), Options{Now: fixedNow}).
		Run(strings.NewReader(second))

	require.NoError(t, err)
	assert.Equal(t, 1, result.BooksWritten)
	assert.Equal(t, 1, result.NewHighlights)
	assert.Contains(t, dest.writes, "Dune — Frank Herbert")
}

func TestPipeline_Run_CorruptSQLiteStateRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("garbage", 1024)), 0644))

	run := func() Result {
		store := syncstate.NewSQLiteStore(path)
		defer store.Close()
		result, err := NewPipeline(store, newMockDestination(), quietLogger(), Options{Now: fixedNow}).
			Run(strings.NewReader(clippings))
		require.NoError(t, err)
		return result
	}

	first := run()
	assert.Equal(t, 2, first.BooksWritten)
	assert.FileExists(t, path+".corrupt")

	second := run()
	assert.Equal(t, 0, second.BooksWritten)
	assert.Equal(t, 2, second.BooksUnchanged)
}

func TestPipeline_Run_WriteFailureKeepsIDsNew(t *testing.T) {
	store := syncstate.NewJSONFileStore(filepath.Join(t.TempDir(), "state.json"))
	dest := newMockDestination()
	dest.failFor["Dune — Frank Herbert"] = errors.New("disk full")

	result, err := NewPipeline(store, dest, quietLogger(), Options{Now: fixedNow}).
		Run(strings.NewReader(clippings))

	require.NoError(t, err)
	assert.Equal(t, 1, result.BooksFailed)
	assert.Equal(t, 1, result.BooksWritten)
	assert.Equal(t, 1, result.StateSize)

	// Next run retries the failed book only
	retry := newMockDestination()
	result, err = NewPipeline(store, retry, quietLogger(), Options{Now: fixedNow}).
		Run(strings.NewReader(clippings))

	require.NoError(t, err)
	assert.Equal(t, 1, result.BooksWritten)
	assert.Equal(t, 2, result.NewHighlights)
	assert.Contains(t, retry.writes, "Dune — Frank Herbert")
	assert.NotContains(t, retry.writes, "Sapiens A Brief History — Yuval Noah Harari")
}

func TestPipeline_Run_DryRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storemocks.NewMockStore(ctrl)
	store.EXPECT().Load().Return(syncstate.NewState(), nil)
	// Save must not be called

	dest := newMockDestination()
	result, err := NewPipeline(store, dest, quietLogger(), Options{DryRun: true, Now: fixedNow}).
		Run(strings.NewReader(clippings))

	require.NoError(t, err)
	assert.Empty(t, dest.writes)
	assert.Equal(t, 0, result.BooksWritten)
	assert.Equal(t, 3, result.NewHighlights)
	for _, b := range result.Books {
		assert.Equal(t, BookStatusDryRun, b.Status)
	}
}

func TestPipeline_Run_PersistEachBook(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storemocks.NewMockStore(ctrl)
	store.EXPECT().Load().Return(syncstate.NewState(), nil)
	store.EXPECT().Save(gomock.Any()).Return(nil).Times(2)

	result, err := NewPipeline(store, newMockDestination(), quietLogger(), Options{PersistEachBook: true, Now: fixedNow}).
		Run(strings.NewReader(clippings))

	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksWritten)
}

func TestPipeline_Run_SaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storemocks.NewMockStore(ctrl)
	store.EXPECT().Load().Return(syncstate.NewState(), nil)
	store.EXPECT().Save(gomock.Any()).Return(errors.New("read-only filesystem"))

	_, err := NewPipeline(store, newMockDestination(), quietLogger(), Options{Now: fixedNow}).
		Run(strings.NewReader(clippings))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save sync state")
}

func TestPipeline_Run_CorruptStateIsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storemocks.NewMockStore(ctrl)
	store.EXPECT().Load().Return(nil, syncstate.ErrCorruptState)
	store.EXPECT().Save(gomock.Any()).DoAndReturn(func(s *syncstate.State) error {
		assert.Equal(t, 3, s.Len())
		return nil
	})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	result, err := NewPipeline(store, newMockDestination(), logger, Options{Now: fixedNow}).
		Run(strings.NewReader(clippings))

	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksWritten)
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestPipeline_RunFile_MissingInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Neither Load nor Save may be called
	store := storemocks.NewMockStore(ctrl)

	_, err := NewPipeline(store, newMockDestination(), quietLogger(), Options{}).
		RunFile(filepath.Join(t.TempDir(), "My Clippings.txt"))

	assert.ErrorIs(t, err, ErrInputUnreadable)
}

func TestPipeline_Run_FilenameCollisionWarns(t *testing.T) {
	input := `Why? (Someone)
- Your Highlight on page 1

first
==========
Why (Someone)
- Your Highlight on page 1

second
==========
`
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	store := syncstate.NewJSONFileStore(filepath.Join(t.TempDir(), "state.json"))
	dest := newMockDestination()

	result, err := NewPipeline(store, dest, logger, Options{Now: fixedNow}).Run(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksWritten)
	assert.Contains(t, logs.String(), "filename collision")
	assert.Contains(t, dest.writes["Why — Someone"], "second")
}

func mapValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
