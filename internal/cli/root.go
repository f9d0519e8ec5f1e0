// Package cli implements the taskly command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/taskly/internal/config"
	"github.com/example/taskly/internal/logging"
	"github.com/example/taskly/internal/telemetry"
	"github.com/example/taskly/internal/version"
	"github.com/example/taskly/internal/view"
	"github.com/example/taskly/internal/wire"
)

// Runtime carries per-invocation state shared by all commands: resolved
// config, output streams and the lazily built App.
type Runtime struct {
	Out io.Writer
	Err io.Writer

	configFile string
	cfg        *config.Config
	app        *wire.App
	shutdown   telemetry.Shutdown
}

// NewRuntime creates a Runtime writing to out and err.
func NewRuntime(out, err io.Writer) *Runtime {
	return &Runtime{Out: out, Err: err}
}

// Config returns the resolved configuration. Valid after PersistentPreRunE.
func (r *Runtime) Config() *config.Config { return r.cfg }

// App opens the store on first use.
func (r *Runtime) App(ctx context.Context) (*wire.App, error) {
	if r.app != nil {
		return r.app, nil
	}
	if r.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	a, err := wire.Build(ctx, r.cfg, nil)
	if err != nil {
		return nil, err
	}
	r.app = a
	return a, nil
}

// Close releases the store and flushes telemetry.
func (r *Runtime) Close() {
	if r.app != nil {
		r.app.Close()
		r.app = nil
	}
	if r.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.shutdown(ctx)
		r.shutdown = nil
	}
}

// mutate runs fn as a write from the command's own view of the configured
// partition. See mutateIn.
func (r *Runtime) mutate(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	return r.mutateIn(cmd, r.cfg.Tutorial, fn)
}

// mutateIn runs fn through a view store named after the command, so the
// context carries the command as origin and views attached to the bus see
// data.changed plus the typed collections once fn succeeds.
func (r *Runtime) mutateIn(cmd *cobra.Command, isTutorial bool, fn func(ctx context.Context) error) error {
	a, err := r.App(cmd.Context())
	if err != nil {
		return err
	}
	store := a.NewPartitionView(commandOrigin(cmd), isTutorial, view.WithTypedBroadcast())
	return store.Mutate(cmd.Context(), fn)
}

// commandOrigin turns "taskly sprint add" into "sprint.add".
func commandOrigin(cmd *cobra.Command) string {
	path := strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name())
	return strings.Join(strings.Fields(path), ".")
}

// NewRootCmd builds the command tree.
func NewRootCmd(rt *Runtime) *cobra.Command {
	root := &cobra.Command{
		Use:     "taskly",
		Short:   "Taskly - backlog and sprint planning",
		Version: version.String(),
		Long: `Taskly keeps an Epic > Story > Task/Bug backlog, one active sprint,
a kanban board and an archive of finished sprints.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.Close()
		},
	}
	root.SetOut(rt.Out)
	root.SetErr(rt.Err)

	flags := root.PersistentFlags()
	flags.StringVar(&rt.configFile, "config", "", "config file (default $TASKLY_HOME/config.yaml)")
	flags.Bool("tutorial", false, "operate on the tutorial partition")
	flags.String("db", "", "SQLite store path")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(InitCmd(rt))
	root.AddCommand(ItemCmd(rt))
	root.AddCommand(SprintCmd(rt))
	root.AddCommand(BoardCmd(rt))
	root.AddCommand(ArchiveCmd(rt))
	root.AddCommand(PlanCmd(rt))
	root.AddCommand(WatchCmd(rt))
	root.AddCommand(CleanCmd(rt))
	root.AddCommand(SeedCmd(rt))
	root.AddCommand(IntroCmd(rt))
	root.AddCommand(VersionCmd(rt))
	return root
}

func (rt *Runtime) load(cmd *cobra.Command) error {
	home, err := config.HomeDir()
	if err != nil {
		return err
	}
	root := cmd.Root().PersistentFlags()
	cfg, err := config.Load(home, rt.configFile, func(v *viper.Viper) error {
		for key, flag := range map[string]string{
			config.KeyTutorial:   "tutorial",
			config.KeySQLitePath: "db",
			config.KeyLogLevel:   "log-level",
		} {
			if err := v.BindPFlag(key, root.Lookup(flag)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	rt.cfg = cfg

	if _, err := logging.Setup(cfg.Log, rt.Err); err != nil {
		return err
	}

	shutdown, err := telemetry.Init(cmd.Context(), telemetry.Options{
		Enabled:      cfg.Telemetry.Enabled,
		Stdout:       cfg.Telemetry.Stdout,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Version:      version.Version,
		Writer:       rt.Err,
	})
	if err != nil {
		return err
	}
	rt.shutdown = shutdown
	return nil
}

// Execute runs the command tree against os.Args and returns the exit code.
func Execute(ctx context.Context) int {
	rt := NewRuntime(os.Stdout, os.Stderr)
	defer rt.Close()

	root := NewRootCmd(rt)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rt.Err, "Error:", err)
		return ExitCode(err)
	}
	return 0
}
