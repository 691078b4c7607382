// Package cli wires configuration, logging and the sync pipeline into the
// clippings-sync command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrlokans/clippings-sync/internal/config"
)

// BuildInfo is set at build time via ldflags in main.
type BuildInfo struct {
	Version string
	Commit  string
}

// app carries the state shared by all subcommands once flags are parsed.
type app struct {
	build  BuildInfo
	cfg    *config.Config
	logger *slog.Logger

	closeLog func()
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"file":              config.KeyClippingsPath,
	"output":            config.KeyOutputDir,
	"state":             config.KeyStatePath,
	"state-backend":     config.KeyStateBackend,
	"persist-each-book": config.KeyPersistEachBook,
	"log-file":          config.KeyLogFile,
	"dry-run":           config.KeyDryRun,
	"verbose":           config.KeyVerbose,
	"schedule":          config.KeyWatchSchedule,
	"debounce":          config.KeyWatchDebounce,
}

// NewRootCommand builds the command tree. Without a subcommand it syncs.
func NewRootCommand(build BuildInfo) *cobra.Command {
	a := &app{build: build}

	root := &cobra.Command{
		Use:   "clippings-sync",
		Short: "Sync Kindle highlights into per-book Markdown notes",
		Long: `clippings-sync reads the "My Clippings.txt" file of a connected Kindle,
groups the highlights by book and writes one Markdown document per book.

Highlights already imported are remembered in a state file, so repeated runs
only rewrite books that gained new highlights.`,
		Version:       build.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: ./clippings-sync.yaml or ~/.config/clippings-sync/config.yaml)")
	flags.String("file", "", "path to 'My Clippings.txt' (default: look on mounted Kindle volumes)")
	flags.String("output", "", "directory the Markdown documents are written to")
	flags.String("state", "", "path of the sync state file")
	flags.String("state-backend", "", "sync state backend: json or sqlite")
	flags.Bool("persist-each-book", false, "save the sync state after every written book")
	flags.String("log-file", "", "append logs to this file in addition to stderr")
	flags.Bool("dry-run", false, "show what would be written without changing anything")
	flags.Bool("verbose", false, "enable debug logging")

	root.AddCommand(
		newSyncCommand(a),
		newWatchCommand(a),
		newBooksCommand(a),
		newVersionCommand(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")

	v, err := config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, a.closeLog = newLogger(cmd.ErrOrStderr(), cfg.Log)
	if used := v.ConfigFileUsed(); used != "" {
		a.logger.Debug("using config file", "path", used)
	}
	return nil
}

// bindFlags binds only flags the user set so that defaults, config file and
// environment keep their precedence for the rest.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, build BuildInfo, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(build)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
