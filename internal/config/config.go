package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mrlokans/clippings-sync/internal/discovery"
)

type StateBackend string

const (
	StateBackendJSON   StateBackend = "json"   // Single JSON file (default)
	StateBackendSQLite StateBackend = "sqlite" // SQLite database via gorm
)

// Viper keys
const (
	KeyClippingsPath   = "clippings_path"
	KeyMountRoots      = "mount_roots"
	KeyVolumeNames     = "volume_names"
	KeyOutputDir       = "output_dir"
	KeyStatePath       = "state_path"
	KeyStateBackend    = "state_backend"
	KeyPersistEachBook = "persist_each_book"
	KeyLogFile         = "log_file"
	KeyVerbose         = "verbose"
	KeyDryRun          = "dry_run"
	KeyWatchSchedule   = "watch_schedule"
	KeyWatchDebounce   = "watch_debounce"
)

type (
	Config struct {
		Clippings
		Output
		State
		Log
		Watch
		DryRun bool
	}

	Clippings struct {
		Path        string   // Explicit path; empty means discover on mounted volumes
		MountRoots  []string // Where removable volumes are mounted
		VolumeNames []string // Volume labels a Kindle mounts under
	}
	Output struct {
		Dir string // Folder the archive documents are written to
	}
	State struct {
		Path            string
		Backend         StateBackend
		PersistEachBook bool // Save after every written book instead of once per run
	}
	Log struct {
		File    string // Empty disables file logging
		Verbose bool
	}
	Watch struct {
		Schedule string        // Cron format: "*/30 * * * *" = every 30 minutes
		Debounce time.Duration // Quiet period before a file event triggers a run
	}
)

// NewViper returns a viper instance with defaults, environment binding and,
// when present, a YAML config file. configFile overrides the search path.
// A .env file in the working directory is loaded first; variables that are
// already set win over it.
func NewViper(configFile string) (*viper.Viper, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault(KeyClippingsPath, "")
	v.SetDefault(KeyMountRoots, discovery.DefaultMountRoots())
	v.SetDefault(KeyVolumeNames, discovery.DefaultVolumeNames)
	v.SetDefault(KeyOutputDir, filepath.Join(home, DefaultOutputDir))
	v.SetDefault(KeyStatePath, filepath.Join(home, DefaultStateFile))
	v.SetDefault(KeyStateBackend, string(StateBackendJSON))
	v.SetDefault(KeyPersistEachBook, false)
	v.SetDefault(KeyLogFile, filepath.Join(home, DefaultLogFile))
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyWatchSchedule, DefaultWatchSchedule)
	v.SetDefault(KeyWatchDebounce, 2*time.Second)
}

// FromViper builds and validates a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Clippings: Clippings{
			Path:        expandHome(v.GetString(KeyClippingsPath)),
			MountRoots:  v.GetStringSlice(KeyMountRoots),
			VolumeNames: v.GetStringSlice(KeyVolumeNames),
		},
		Output: Output{
			Dir: expandHome(v.GetString(KeyOutputDir)),
		},
		State: State{
			Path:            expandHome(v.GetString(KeyStatePath)),
			Backend:         StateBackend(strings.ToLower(v.GetString(KeyStateBackend))),
			PersistEachBook: v.GetBool(KeyPersistEachBook),
		},
		Log: Log{
			File:    expandHome(v.GetString(KeyLogFile)),
			Verbose: v.GetBool(KeyVerbose),
		},
		Watch: Watch{
			Schedule: v.GetString(KeyWatchSchedule),
			Debounce: v.GetDuration(KeyWatchDebounce),
		},
		DryRun: v.GetBool(KeyDryRun),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	switch c.State.Backend {
	case StateBackendJSON, StateBackendSQLite:
	default:
		return fmt.Errorf("invalid %s %q: expected %q or %q",
			KeyStateBackend, c.State.Backend, StateBackendJSON, StateBackendSQLite)
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("%s must not be empty", KeyOutputDir)
	}
	if c.State.Path == "" {
		return fmt.Errorf("%s must not be empty", KeyStatePath)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%s must not be negative", KeyWatchDebounce)
	}

	return nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
