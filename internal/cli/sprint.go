package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/taskly/internal/adapters/cli"
	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/primary"
)

// SprintCmd returns the sprint command group.
func SprintCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "Manage the sprint lifecycle",
		Long: `Create, archive, restore and delete sprints, and plan items into the
active sprint. Each partition has at most one active sprint.`,
	}
	cmd.AddCommand(
		sprintCreateCmd(rt),
		sprintShowCmd(rt),
		sprintListCmd(rt),
		sprintEditCmd(rt),
		sprintArchiveCmd(rt),
		sprintByIDCmd(rt, "restore", "Make an archived sprint active again", (*cliadapter.SprintAdapter).Restore),
		sprintByIDCmd(rt, "delete", "Delete a sprint and return its items to the backlog", (*cliadapter.SprintAdapter).Delete),
		sprintByIDCmd(rt, "add", "Add an item (and a story's tasks) to the active sprint", (*cliadapter.SprintAdapter).Add),
		sprintByIDCmd(rt, "remove", "Remove an item (and a story's tasks) from the active sprint", (*cliadapter.SprintAdapter).Remove),
	)
	return cmd
}

func (rt *Runtime) sprintAdapter(cmd *cobra.Command) (*cliadapter.SprintAdapter, error) {
	a, err := rt.App(cmd.Context())
	if err != nil {
		return nil, err
	}
	return cliadapter.NewSprintAdapter(a.Sprints, a.Backlog, rt.Out), nil
}

func dateFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	text, _ := cmd.Flags().GetString(name)
	t, err := parseDate(text, time.Now())
	if err != nil {
		return nil, errs.Validation(name, "%v", err)
	}
	return &t, nil
}

func sprintCreateCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create the active sprint",
		Long: `Create the active sprint. Dates accept YYYY-MM-DD or phrases such as
"today" or "next monday". Start defaults to today and end to start plus
sprint.default_length.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := primary.CreateSprintRequest{Name: args[0], IsTutorial: rt.Config().Tutorial}
			req.Goal, _ = cmd.Flags().GetString("goal")
			start, err := dateFlag(cmd, "start")
			if err != nil {
				return err
			}
			if start != nil {
				req.StartDate = *start
			}
			end, err := dateFlag(cmd, "end")
			if err != nil {
				return err
			}
			if end != nil {
				req.EndDate = *end
			}

			adapter, err := rt.sprintAdapter(cmd)
			if err != nil {
				return err
			}
			return rt.mutate(cmd, func(ctx context.Context) error {
				_, err := adapter.Create(ctx, req)
				return err
			})
		},
	}
	cmd.Flags().String("goal", "", "sprint goal")
	cmd.Flags().String("start", "", "start date")
	cmd.Flags().String("end", "", "end date")
	return cmd
}

func sprintShowCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active sprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := rt.sprintAdapter(cmd)
			if err != nil {
				return err
			}
			return adapter.Show(cmd.Context(), rt.Config().Tutorial)
		},
	}
}

func sprintListCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := primary.SprintFilters{IsTutorial: rt.Config().Tutorial}
			if cmd.Flags().Changed("archived") {
				archived, _ := cmd.Flags().GetBool("archived")
				filters.Archived = &archived
			}
			adapter, err := rt.sprintAdapter(cmd)
			if err != nil {
				return err
			}
			return adapter.List(cmd.Context(), filters)
		},
	}
	cmd.Flags().Bool("archived", false, "only archived sprints (--archived=false for the active one)")
	return cmd
}

func sprintEditCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a sprint's name, goal or dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			req := primary.UpdateSprintRequest{SprintID: id}
			if cmd.Flags().Changed("name") {
				v, _ := cmd.Flags().GetString("name")
				req.Name = &v
			}
			if cmd.Flags().Changed("goal") {
				v, _ := cmd.Flags().GetString("goal")
				req.Goal = &v
			}
			if req.StartDate, err = dateFlag(cmd, "start"); err != nil {
				return err
			}
			if req.EndDate, err = dateFlag(cmd, "end"); err != nil {
				return err
			}

			adapter, err := rt.sprintAdapter(cmd)
			if err != nil {
				return err
			}
			return rt.mutate(cmd, func(ctx context.Context) error {
				return adapter.Edit(ctx, req)
			})
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("goal", "", "new goal")
	cmd.Flags().String("start", "", "new start date")
	cmd.Flags().String("end", "", "new end date")
	return cmd
}

func sprintArchiveCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Archive the active sprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := rt.sprintAdapter(cmd)
			if err != nil {
				return err
			}
			return rt.mutate(cmd, func(ctx context.Context) error {
				return adapter.Archive(ctx, rt.Config().Tutorial)
			})
		},
	}
}

func sprintByIDCmd(rt *Runtime, use, short string, run func(*cliadapter.SprintAdapter, context.Context, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			adapter, err := rt.sprintAdapter(cmd)
			if err != nil {
				return err
			}
			return rt.mutate(cmd, func(ctx context.Context) error {
				return run(adapter, ctx, id)
			})
		},
	}
}
