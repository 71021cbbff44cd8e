// Package cli implements the todo command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada/internal/app"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

// Exit codes: 0 ok, 1 error, 2 usage.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks mistakes in the invocation itself.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// runner carries per-invocation state shared by the subcommands.
type runner struct {
	flags  globalFlags
	cfg    *config.Config
	app    *app.App
	logger *log.Logger

	// runTUI is swapped out in tests.
	runTUI func(tui.Backend) error
}

type globalFlags struct {
	configPath string
	backend    string
	dataDir    string
	key        string
	logLevel   string
	theme      string
	noColor    bool
}

// Run executes the command line and returns an exit code. Output goes to
// stdout and stderr.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr, nil)
}

func run(args []string, stdout, stderr io.Writer, r *runner) int {
	if r == nil {
		r = &runner{}
	}
	if r.runTUI == nil {
		r.runTUI = func(b tui.Backend) error { return tui.Run(b) }
	}

	root := newRootCmd(r)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if r.app != nil {
		if cerr := r.app.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close storage: %w", cerr)
		}
	}
	if err == nil {
		return ExitOK
	}

	ui.Fail(stderr, err.Error())
	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

func newRootCmd(r *runner) *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "tada - a prioritized todo list",
		Long: `tada keeps a list of todos, each with a description and a priority
(low, middle or high). The list is saved locally after every change and
restored on the next start.

Run without a subcommand to open the interactive list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.NoArgs),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runTUI(r.app)
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&r.flags.configPath, "config", "", "config file (TOML)")
	pf.StringVar(&r.flags.backend, "backend", "", "storage backend: file, sqlite or memory")
	pf.StringVar(&r.flags.dataDir, "data-dir", "", "directory holding the saved todos")
	pf.StringVar(&r.flags.key, "key", "", "storage key the list is saved under")
	pf.StringVar(&r.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&r.flags.theme, "theme", "", "output theme: classic, neon or mono")
	pf.BoolVar(&r.flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newAddCmd(r),
		newListCmd(r),
		newShowCmd(r),
		newEditCmd(r),
		newRemoveCmd(r),
		newExportCmd(r),
		newPrioritiesCmd(r),
		newTUICmd(r),
	)
	return root
}

// setup loads configuration, applies flag overrides and opens the app.
func (r *runner) setup(cmd *cobra.Command) error {
	cfg := r.cfg
	if cfg == nil {
		var err error
		cfg, err = config.Load(r.flags.configPath)
		if err != nil {
			return err
		}
	}

	f := cmd.Flags()
	if f.Changed("backend") {
		cfg.Backend = r.flags.backend
	}
	if f.Changed("data-dir") {
		cfg.DataDir = r.flags.dataDir
	}
	if f.Changed("key") {
		cfg.StorageKey = r.flags.key
	}
	if f.Changed("log-level") {
		cfg.LogLevel = r.flags.logLevel
	}
	if f.Changed("theme") {
		cfg.Theme = r.flags.theme
	}
	if f.Changed("no-color") {
		cfg.NoColor = r.flags.noColor
	}
	if err := cfg.Finalize(); err != nil {
		return usagef("%v", err)
	}
	r.cfg = cfg

	ui.SetTheme(cfg.Theme)
	ui.SetColor(!cfg.NoColor && cfg.Theme != "mono")

	if r.logger == nil {
		r.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	}
	a, err := app.New(cfg, r.logger)
	if err != nil {
		return err
	}
	r.app = a
	return nil
}

// usageArgs reports positional argument mistakes as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{msg: err.Error()}
		}
		return nil
	}
}
