package exporters

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/mrlokans/clippings-sync/internal/utils"
)

const (
	defaultWriteAttempts = 3
	defaultWriteDelay    = 100 * time.Millisecond
)

// FolderDestination writes archive documents as Markdown files into a folder
// watched by the note-taking archive.
type FolderDestination struct {
	Dir      string
	Attempts uint
	Delay    time.Duration
}

func NewFolderDestination(dir string) *FolderDestination {
	return &FolderDestination{
		Dir:      dir,
		Attempts: defaultWriteAttempts,
		Delay:    defaultWriteDelay,
	}
}

// Path returns the file a document called name is written to.
func (d *FolderDestination) Path(name string) string {
	return filepath.Join(d.Dir, utils.SanitizeFilename(name)+".md")
}

// Write creates the folder if needed and writes content, overwriting any
// previous version of the document. Failures other than permission errors
// are retried.
func (d *FolderDestination) Write(name, content string) (string, error) {
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := d.Path(name)

	err := retry.Do(
		func() error {
			return os.WriteFile(path, []byte(content), 0644)
		},
		retry.Attempts(max(d.Attempts, 1)),
		retry.Delay(d.Delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, fs.ErrPermission)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
