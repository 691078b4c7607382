// Package discovery locates My Clippings.txt on a mounted Kindle.
package discovery

import (
	"errors"
	"os"
	"path/filepath"
)

// ClippingsFileName is the name Kindle gives its highlight export.
const ClippingsFileName = "My Clippings.txt"

// ErrNotFound is returned when no mounted volume holds a clippings file.
var ErrNotFound = errors.New("kindle not found or My Clippings.txt missing")

// DefaultVolumeNames are the volume labels a Kindle mounts under.
var DefaultVolumeNames = []string{"Kindle", "KINDLE", "kindle"}

// clippingsLocations are tried in order inside each volume.
var clippingsLocations = []string{
	filepath.Join("documents", ClippingsFileName),
	ClippingsFileName,
}

// DefaultMountRoots returns the directories removable volumes are mounted
// under on macOS and common Linux desktops.
func DefaultMountRoots() []string {
	roots := []string{"/Volumes"}
	if user := os.Getenv("USER"); user != "" {
		roots = append(roots,
			filepath.Join("/media", user),
			filepath.Join("/run/media", user),
		)
	}
	return roots
}

// Candidates lists every path FindClippings checks, in order.
func Candidates(roots, volumeNames []string) []string {
	var paths []string
	for _, root := range roots {
		for _, name := range volumeNames {
			for _, loc := range clippingsLocations {
				paths = append(paths, filepath.Join(root, name, loc))
			}
		}
	}
	return paths
}

// FindClippings returns the first existing clippings file below roots.
// On case-insensitive filesystems several volume names resolve to the same
// directory; the first hit wins.
func FindClippings(roots, volumeNames []string) (string, error) {
	for _, path := range Candidates(roots, volumeNames) {
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", ErrNotFound
}
