package syncstate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/clippings-sync/internal/entities"
)

// saveBatchSize bounds the number of rows per INSERT statement.
const saveBatchSize = 500

// sqliteHeader starts every SQLite 3 database file.
const sqliteHeader = "SQLite format 3\x00"

// corruptSuffix is appended to a database file that had to be moved aside.
const corruptSuffix = ".corrupt"

// SQLiteStore keeps the state in the imported_highlights table of a SQLite
// database. Save only ever inserts, so rows written by other runs survive.
type SQLiteStore struct {
	Path string
	db   *gorm.DB
	now  func() time.Time
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{Path: path, now: time.Now}
}

func (s *SQLiteStore) open() (*gorm.DB, error) {
	if s.db != nil {
		return s.db, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := checkSQLiteHeader(s.Path); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(s.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if err := db.AutoMigrate(&entities.ImportedHighlight{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("%w: failed to migrate %s: %v", ErrCorruptState, s.Path, err)
	}

	s.db = db
	return db, nil
}

// checkSQLiteHeader reports ErrCorruptState for a non-empty file that is not
// a SQLite database. A missing or empty file is initialised by the driver.
func checkSQLiteHeader(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteHeader))
	n, err := io.ReadFull(f, header)
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil && !errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("failed to read state database: %w", err)
	}
	if string(header[:n]) != sqliteHeader {
		return fmt.Errorf("%w: %s is not a SQLite database", ErrCorruptState, path)
	}
	return nil
}

// quarantine moves a corrupt database and its journal files aside so a fresh
// one can be created at Path.
func (s *SQLiteStore) quarantine() error {
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		from := s.Path + suffix
		err := os.Rename(from, from+corruptSuffix)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to move corrupt state database aside: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load() (*State, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := db.Model(&entities.ImportedHighlight{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to read imported highlights: %w", err)
	}

	return NewState(ids...), nil
}

// Save inserts every id of state that is not stored yet, in one transaction.
// A corrupt database is renamed to "<path>.corrupt" and replaced.
func (s *SQLiteStore) Save(state *State) error {
	db, err := s.open()
	if errors.Is(err, ErrCorruptState) {
		if err := s.quarantine(); err != nil {
			return err
		}
		db, err = s.open()
	}
	if err != nil {
		return err
	}

	ids := state.IDs()
	if len(ids) == 0 {
		return nil
	}

	now := s.now()
	rows := make([]entities.ImportedHighlight, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, entities.ImportedHighlight{ID: id, ImportedAt: now})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(&rows, saveBatchSize).Error
		if err != nil {
			return fmt.Errorf("failed to save imported highlights: %w", err)
		}
		return nil
	})
}

// Close releases the database handle, if one was opened.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.db = nil
	return sqlDB.Close()
}
