package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amirbrooks/todonow/internal/config"
	"github.com/amirbrooks/todonow/internal/contexts"
	"github.com/amirbrooks/todonow/internal/logging"
	"github.com/amirbrooks/todonow/internal/store"
	"github.com/amirbrooks/todonow/internal/tag"
	"github.com/amirbrooks/todonow/internal/todo"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitNotFound = 3
	ExitConflict = 4
	ExitInternal = 10
)

type GlobalFlags struct {
	ConfigFile string
	TodoFile   string
	LogLevel   string
	JSON       bool
	Plain      bool
	Quiet      bool
}

// usageError marks bad invocations.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, a ...any) error {
	return &usageError{err: fmt.Errorf(format, a...)}
}

// app carries what every command needs once flags are parsed.
type app struct {
	stdout io.Writer
	stderr io.Writer

	gf     GlobalFlags
	cfg    *config.Config
	logger *log.Logger

	now  func() time.Time
	rnd  *rand.Rand
	wifi func() string
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
		rnd:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newApp(os.Stdout, os.Stderr).execute(ctx, args)
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	code := exitCode(err)
	fmt.Fprintln(a.stderr, "todonow:", err)
	if code == ExitUsage {
		fmt.Fprintln(a.stderr, "Run 'todonow --help' for usage.")
	}
	return code
}

func exitCode(err error) int {
	var ue *usageError
	switch {
	case errors.As(err, &ue), strings.HasPrefix(err.Error(), "unknown command"):
		return ExitUsage
	case errors.Is(err, todo.ErrNoCurrentTodo),
		errors.Is(err, todo.ErrMalformedDocument),
		errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, todo.ErrMultipleCurrentTodos),
		errors.Is(err, todo.ErrDuplicateTag),
		errors.Is(err, todo.ErrAmbiguousIgnoreTag),
		errors.Is(err, todo.ErrStaleTodo),
		errors.Is(err, tag.ErrAmbiguousTag):
		return ExitConflict
	default:
		return ExitInternal
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todonow",
		Short: "Pick the one thing to do next from a tagged outline",
		Long: `todonow reads a tab-indented outline of todos tagged with @contexts and
#projects, and picks the single todo that best matches where you are and
what you are doing. The chosen todo is marked @CURRENT in the file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.gf.ConfigFile, "config", "", "config file (default ~/.todonow/config.toml)")
	pf.StringVar(&a.gf.TodoFile, "file", "", "outline file (default ~/todo.txt or TODONOW_FILE)")
	pf.StringVar(&a.gf.LogLevel, "log-level", "", "debug|info|warn|error")
	pf.BoolVar(&a.gf.JSON, "json", false, "JSON output")
	pf.BoolVar(&a.gf.Plain, "plain", false, "TSV output, no color")
	pf.BoolVarP(&a.gf.Quiet, "quiet", "q", false, "only print essential output")

	root.AddCommand(
		a.nowCmd(),
		a.topCmd(),
		a.splitCmd(),
		a.doneCmd(),
		a.addCmd(),
		a.contextCmd(),
		a.autocontextCmd(),
		a.listTagsCmd("contexts", "List all context tags in the outline", tag.SigilContext),
		a.listTagsCmd("projects", "List all project tags in the outline", tag.SigilProject),
		a.todosCmd(),
		a.randomProjectCmd(),
		a.watchCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Overrides{
		ConfigFile: a.gf.ConfigFile,
		TodoFile:   a.gf.TodoFile,
		LogLevel:   a.gf.LogLevel,
	})
	if err != nil {
		return &usageError{err: err}
	}
	a.cfg = cfg
	a.logger = logging.FromConfig(a.stderr, cfg.LogLevel, cfg.LogFormat)
	log.SetDefault(a.logger)
	if a.gf.Plain || a.gf.JSON {
		color.NoColor = true
	}
	return nil
}

func (a *app) todoStore() *store.File {
	return store.NewFile(a.cfg.TodoFile)
}

func (a *app) openList() (*todo.List, error) {
	return todo.Open(a.todoStore(),
		todo.WithClock(a.now),
		todo.WithRand(a.rnd),
		todo.WithLogger(a.logger),
	)
}

func (a *app) settings() *store.SettingsStore {
	return store.NewSettingsStore(a.cfg.StateDir)
}

// storedContexts returns the contexts saved by the context commands.
func (a *app) storedContexts() ([]string, error) {
	st, err := a.settings().Load()
	if err != nil {
		return nil, err
	}
	return st.Contexts, nil
}

func (a *app) contextHandler() *contexts.Handler {
	wifi := a.wifi
	if wifi == nil {
		wifi = contexts.CommandWifi(a.cfg.Contexts.WifiCommand)
	}
	return &contexts.Handler{
		HomeWifi: a.cfg.Contexts.HomeWifi,
		WorkWifi: a.cfg.Contexts.WorkWifi,
		Wifi:     wifi,
		Now:      a.now,
	}
}

// refreshContexts recomputes the automatic tags and saves the result.
func (a *app) refreshContexts() (before, after []string, err error) {
	before, err = a.storedContexts()
	if err != nil {
		return nil, nil, err
	}
	after = a.contextHandler().Refresh(before)
	if err := a.settings().SetContexts(after); err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// joinArgs glues positional words into one todo text.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
