package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/taskly/internal/adapters/cli"
	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/primary"
)

// ItemCmd returns the item command group.
func ItemCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage backlog items (epics, stories, tasks and bugs)",
	}
	cmd.AddCommand(
		itemAddCmd(rt),
		itemListCmd(rt),
		itemShowCmd(rt),
		itemEditCmd(rt),
		itemStatusCmd(rt),
		itemMoveCmd(rt, "advance", "Move a sprint item one column right", (*cliadapter.ItemAdapter).Advance),
		itemMoveCmd(rt, "reverse", "Move a sprint item one column left", (*cliadapter.ItemAdapter).Reverse),
		itemDeleteCmd(rt),
		itemTreeCmd(rt),
	)
	return cmd
}

func (rt *Runtime) itemAdapter(cmd *cobra.Command) (*cliadapter.ItemAdapter, error) {
	a, err := rt.App(cmd.Context())
	if err != nil {
		return nil, err
	}
	return cliadapter.NewItemAdapter(a.Backlog, rt.Out), nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Validation("id", "invalid id %q", arg)
	}
	return id, nil
}

func itemAddCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [type] [title]",
		Short: "Create an item",
		Long: `Create an epic, story, task or bug.

Stories go under epics and tasks or bugs go under stories (--parent).
A child of a story that is in the sprint joins the sprint too.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
				return cobra.MaximumNArgs(2)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := primary.CreateItemRequest{IsTutorial: rt.Config().Tutorial}
			if len(args) > 0 {
				typ, err := backlog.ParseType(args[0])
				if err != nil {
					return errs.Validation("type", "%v", err)
				}
				req.Type = typ
			}
			if len(args) > 1 {
				req.Title = args[1]
			}
			req.Description, _ = cmd.Flags().GetString("description")
			req.StoryPoints, _ = cmd.Flags().GetInt("points")
			req.Priority, _ = cmd.Flags().GetInt("priority")
			if cmd.Flags().Changed("parent") {
				parent, _ := cmd.Flags().GetInt64("parent")
				req.ParentID = &parent
			}

			if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
				if err := itemForm(&req); err != nil {
					return err
				}
			}

			adapter, err := rt.itemAdapter(cmd)
			if err != nil {
				return err
			}
			return rt.mutate(cmd, func(ctx context.Context) error {
				_, err := adapter.Create(ctx, req)
				return err
			})
		},
	}
	cmd.Flags().Int64("parent", 0, "parent item ID")
	cmd.Flags().Int("points", 0, "story points")
	cmd.Flags().Int("priority", 0, "priority (default: after the last item)")
	cmd.Flags().StringP("description", "d", "", "description")
	cmd.Flags().BoolP("interactive", "i", false, "fill in the item with a form")
	return cmd
}

func itemListCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := primary.ItemFilters{IsTutorial: rt.Config().Tutorial}
			if s, _ := cmd.Flags().GetString("type"); s != "" {
				typ, err := backlog.ParseType(s)
				if err != nil {
					return errs.Validation("type", "%v", err)
				}
				filters.Type = typ
			}
			if s, _ := cmd.Flags().GetString("status"); s != "" {
				status, err := backlog.ParseStatus(s)
				if err != nil {
					return errs.Validation("status", "%v", err)
				}
				filters.Status = status
			}
			adapter, err := rt.itemAdapter(cmd)
			if err != nil {
				return err
			}
			return adapter.List(cmd.Context(), filters)
		},
	}
	cmd.Flags().String("type", "", "filter by type")
	cmd.Flags().String("status", "", "filter by status")
	return cmd
}

func itemShowCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			adapter, err := rt.itemAdapter(cmd)
			if err != nil {
				return err
			}
			_, err = adapter.Show(cmd.Context(), id)
			return err
		},
	}
}

func itemEditCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit an item's fields",
		Long:  "Edit fields in place. --parent 0 detaches the item from its parent.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			req := primary.UpdateItemRequest{ItemID: id}
			flags := cmd.Flags()
			if flags.Changed("title") {
				v, _ := flags.GetString("title")
				req.Title = &v
			}
			if flags.Changed("description") {
				v, _ := flags.GetString("description")
				req.Description = &v
			}
			if flags.Changed("points") {
				v, _ := flags.GetInt("points")
				req.StoryPoints = &v
			}
			if flags.Changed("priority") {
				v, _ := flags.GetInt("priority")
				req.Priority = &v
			}
			if flags.Changed("type") {
				s, _ := flags.GetString("type")
				typ, err := backlog.ParseType(s)
				if err != nil {
					return errs.Validation("type", "%v", err)
				}
				req.Type = &typ
			}
			if flags.Changed("parent") {
				v, _ := flags.GetInt64("parent")
				if v == 0 {
					req.ClearParent = true
				} else {
					req.ParentID = &v
				}
			}

			adapter, err := rt.itemAdapter(cmd)
			if err != nil {
				return err
			}
			return rt.mutate(cmd, func(ctx context.Context) error {
				return adapter.Edit(ctx, req)
			})
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().StringP("description", "d", "", "new description")
	cmd.Flags().Int("points", 0, "new story points")
	cmd.Flags().Int("priority", 0, "new priority")
	cmd.Flags().Int64("parent", 0, "new parent ID (0 to detach)")
	cmd.Flags().String("type", "", "new type")
	return cmd
}

func itemStatusCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status [id] [status]",
		Short: "Set an item's status directly",
		Long:  "Set any status (backlog, todo, in_progress, review, done), skipping stages if needed.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := backlog.ParseStatus(args[1])
			if err != nil {
				return errs.Validation("status", "%v", err)
			}
			adapter, err := rt.itemAdapter(cmd)
			if err != nil {
				return err
			}
			return rt.mutate(cmd, func(ctx context.Context) error {
				return adapter.SetStatus(ctx, id, status)
			})
		},
	}
}

func itemMoveCmd(rt *Runtime, use, short string, move func(*cliadapter.ItemAdapter, context.Context, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			adapter, err := rt.itemAdapter(cmd)
			if err != nil {
				return err
			}
			return rt.mutate(cmd, func(ctx context.Context) error {
				return move(adapter, ctx, id)
			})
		},
	}
}

func itemDeleteCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an item; its children become orphans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			adapter, err := rt.itemAdapter(cmd)
			if err != nil {
				return err
			}
			return rt.mutate(cmd, func(ctx context.Context) error {
				return adapter.Delete(ctx, id)
			})
		},
	}
}

func itemTreeCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the epic > story > task hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := rt.itemAdapter(cmd)
			if err != nil {
				return err
			}
			if err := adapter.Tree(cmd.Context(), rt.Config().Tutorial); err != nil {
				return fmt.Errorf("failed to show tree: %w", err)
			}
			return nil
		},
	}
}
