package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/taskly/internal/adapters/cli"
	"github.com/example/taskly/internal/eventbus"
	"github.com/example/taskly/internal/view"
)

// renderers by view name
var renderers = map[string]func(w io.Writer, snap view.Snapshot, reviewStage bool){
	"board": func(w io.Writer, snap view.Snapshot, reviewStage bool) {
		cliadapter.RenderBoard(w, view.BuildBoard(snap, reviewStage))
	},
	"archive": func(w io.Writer, snap view.Snapshot, _ bool) {
		cliadapter.RenderArchive(w, view.BuildArchive(snap))
	},
	"plan": func(w io.Writer, snap view.Snapshot, _ bool) {
		cliadapter.RenderPlanning(w, view.BuildPlanning(snap))
	},
}

func viewCmd(rt *Runtime, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			store := a.NewView(name)
			if err := store.Reload(cmd.Context()); err != nil {
				return err
			}
			renderers[name](rt.Out, store.Snapshot(), a.Config.Workflow.ReviewStage)
			return nil
		},
	}
}

// BoardCmd renders the active sprint as a kanban board.
func BoardCmd(rt *Runtime) *cobra.Command {
	return viewCmd(rt, "board", "Show the active sprint board")
}

// ArchiveCmd renders archived sprints, newest first.
func ArchiveCmd(rt *Runtime) *cobra.Command {
	return viewCmd(rt, "archive", "Show archived sprints")
}

// PlanCmd renders the sprint planning view.
func PlanCmd(rt *Runtime) *cobra.Command {
	return viewCmd(rt, "plan", "Show sprint members and the backlog available to add")
}

// WatchCmd keeps one or more views on screen and redraws them whenever the
// store changes, including writes made by other taskly processes.
func WatchCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [board|archive|plan]...",
		Short: "Redraw views on every store change",
		Long: `Redraw views on every store change. With several views the store is
read once per change and the result is shared with every view on screen.`,
		Args:      cobra.OnlyValidArgs,
		ValidArgs: []string{"board", "archive", "plan"},
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = []string{"board"}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return rt.watch(ctx, names)
		},
	}
}

func (rt *Runtime) watch(ctx context.Context, names []string) error {
	a, err := rt.App(ctx)
	if err != nil {
		return err
	}

	clearScreen := false
	if f, ok := rt.Out.(*os.File); ok {
		clearScreen = isTerminal(f)
	}

	// one store reads, the displayed views apply what it broadcasts
	feed := a.NewView("watch", view.WithTypedBroadcast())
	views := make([]*view.Store, 0, len(names))
	for _, name := range names {
		store := a.NewView(name, view.WithTypedApply())
		store.Attach()
		defer store.Detach()
		views = append(views, store)
	}

	draw := func() {
		if clearScreen {
			fmt.Fprint(rt.Out, "\033[H\033[2J")
		}
		for i, store := range views {
			if i > 0 {
				fmt.Fprintln(rt.Out)
			}
			renderers[store.Name()](rt.Out, store.Snapshot(), a.Config.Workflow.ReviewStage)
		}
		if latest, ok := a.Bus.Latest(eventbus.TopicDataChanged); ok {
			cliadapter.RenderFooter(rt.Out, latest.At)
		}
	}
	refresh := func() {
		if err := feed.Refresh(ctx); err != nil {
			a.Logger.WarnContext(ctx, "watch refresh failed", "error", err)
			return
		}
		draw()
	}

	if err := feed.Refresh(ctx); err != nil {
		return err
	}
	draw()
	return a.Feed.Run(ctx, refresh)
}
