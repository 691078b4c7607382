package exporters

// Destination stores a rendered archive document under a name and returns
// where it ended up.
//
// Implementations:
//   - FolderDestination (folder.go) - Markdown file in a watched folder
type Destination interface {
	Write(name, content string) (string, error)
}

// KnownIDs is the read-only view of previously imported highlight ids the
// renderer consults.
type KnownIDs interface {
	Has(id string) bool
	Empty() bool
}
