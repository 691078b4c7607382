package config

// Default file names, relative to the user's home directory
const (
	// DefaultStateFile keeps the ids of already imported highlights
	DefaultStateFile = ".kindle-sync-state.json"

	// DefaultLogFile receives a copy of every log line
	DefaultLogFile = ".kindle-sync.log"

	// DefaultOutputDir is the folder watched by the note archive
	DefaultOutputDir = "Documents/Kindle Highlights"

	// DefaultWatchSchedule is the fallback polling schedule of watch mode
	DefaultWatchSchedule = "*/30 * * * *"

	// EnvPrefix prefixes every environment variable, e.g. CLIPPINGS_SYNC_OUTPUT_DIR
	EnvPrefix = "CLIPPINGS_SYNC"

	// ConfigName is the base name of the optional YAML config file
	ConfigName = "clippings-sync"
)
