// Package cli implements the jast command tree on top of the todo store.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/jast/internal/datekey"
	"github.com/nhle/jast/internal/logging"
	"github.com/nhle/jast/internal/model"
	"github.com/nhle/jast/internal/store"
	"github.com/nhle/jast/internal/theme"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Options configures the command tree.
type Options struct {
	Build BuildInfo

	// Store, when set, is used instead of opening the configured database
	// and is not closed by the commands.
	Store store.Store

	// Now overrides the clock used to resolve "today".
	Now func() time.Time
}

// app is the state shared by all commands of one invocation.
type app struct {
	opts    Options
	cfgFile string
	dbPath  string
	noColor bool

	store  store.Store
	owned  bool
	log    *zap.Logger
	out    io.Writer
	styles theme.Styles
}

// NewRootCommand builds the jast command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := &app{opts: opts, log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "jast",
		Short: "Just another simple todo list, one day at a time",
		Long: `jast keeps a todo list per calendar day. Todos can be nested one level
deep, reordered, moved between days and checked off. Completion is tracked
per day and shown as a yearly achievement graph.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ~/.config/jast/config.yaml)")
	flags.StringVar(&a.dbPath, "db", "", "database file (overrides the config)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(
		newListCommand(a),
		newAddCommand(a),
		newRenameCommand(a),
		newStatusCommand(a, "done", "Mark a todo as completed", model.TodoStatusCompleted),
		newStatusCommand(a, "undo", "Mark a todo as pending again", model.TodoStatusPending),
		newToggleCommand(a),
		newRemoveCommand(a),
		newMoveCommand(a),
		newIndentCommand(a),
		newOutdentCommand(a),
		newReorderCommand(a),
		newShiftCommand(a, "up", "Move a todo one place up among its siblings", -1),
		newShiftCommand(a, "down", "Move a todo one place down among its siblings", 1),
		newStatsCommand(a),
		newGraphCommand(a),
		newRebuildStatsCommand(a),
		newVersionCommand(a),
	)

	return root
}

// Execute runs the command tree with os.Args and reports any error on
// stderr. It returns the process exit code.
func Execute(opts Options) int {
	root := NewRootCommand(opts)
	if err := root.Execute(); err != nil {
		styles := theme.New(os.Stderr, true)
		fmt.Fprintln(os.Stderr, styles.Error.Render("Error:"), err)
		return 1
	}
	return 0
}

// setup loads configuration, builds the logger and opens the store.
func (a *app) setup(cmd *cobra.Command) error {
	cfgPath := a.cfgFile
	if cfgPath == "" {
		cfgPath = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.log = logger

	a.out = cmd.OutOrStdout()
	a.styles = theme.New(a.out, cfg.Display.Color && !a.noColor)

	if a.opts.Store != nil {
		a.store = a.opts.Store
		return nil
	}

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}
	s, err := store.NewSQLiteStore(cfg.Database.Path, store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("opening database %s: %w", cfg.Database.Path, err)
	}
	a.log.Debug("database opened", zap.String("path", cfg.Database.Path))
	a.store = s
	a.owned = true
	return nil
}

func (a *app) teardown() error {
	defer a.log.Sync() //nolint:errcheck

	if a.owned && a.store != nil {
		if err := a.store.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}
	return nil
}

// today returns the current local date key.
func (a *app) today() int {
	return datekey.Today(a.opts.Now())
}

// parseDate resolves a date argument. Besides the forms datekey.Parse
// accepts it understands "today", "tomorrow" and "yesterday".
func (a *app) parseDate(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return a.today(), nil
	case "tomorrow":
		return datekey.AddDays(a.today(), 1)
	case "yesterday":
		return datekey.AddDays(a.today(), -1)
	}
	return datekey.Parse(s)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", s)
	}
	return id, nil
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			b := a.opts.Build
			fmt.Fprintf(cmd.OutOrStdout(), "jast %s (commit %s, built %s)\n", b.Version, b.Commit, b.Date)
		},
	}
}
