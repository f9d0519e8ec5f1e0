package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/taskly/internal/config"
	"github.com/example/taskly/internal/db"
	"github.com/example/taskly/internal/ports/primary"
)

// InitCmd opens (and migrates) the configured store.
func InitCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and initialize the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rt.Config()
			if _, err := rt.App(cmd.Context()); err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}

			fmt.Fprintf(rt.Out, "✓ Config: %s\n", cfg.File)
			switch cfg.Backend {
			case config.BackendPostgres:
				fmt.Fprintln(rt.Out, "✓ Store: postgres")
			default:
				fmt.Fprintf(rt.Out, "✓ Store: %s\n", cfg.SQLitePath)
			}
			fmt.Fprintln(rt.Out)
			fmt.Fprintln(rt.Out, "Next steps:")
			fmt.Fprintln(rt.Out, "  taskly intro            # guided tutorial sprint")
			fmt.Fprintln(rt.Out, "  taskly sprint create \"Sprint 1\"")
			fmt.Fprintln(rt.Out, "  taskly board")
			return nil
		},
	}
}

// CleanCmd deletes stored data.
func CleanCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete all items and sprints",
		Long: `Delete all items and sprints. With --tutorial only the tutorial
partition is cleared and the introduction can be run again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tutorialOnly := rt.Config().Tutorial
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				title := "Delete ALL items and sprints?"
				if tutorialOnly {
					title = "Delete the tutorial items and sprints?"
				}
				ok, err := confirm(title)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(rt.Out, "Aborted.")
					return nil
				}
			}

			a, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			err = rt.mutate(cmd, func(ctx context.Context) error {
				return a.Maintenance.Clean(ctx, tutorialOnly)
			})
			if err != nil {
				return err
			}
			if !tutorialOnly {
				// the tutorial partition was wiped as well
				if err := a.NewPartitionView(commandOrigin(cmd), true).Refresh(cmd.Context()); err != nil {
					return err
				}
			}
			if tutorialOnly {
				fmt.Fprintln(rt.Out, "✓ Tutorial data cleared")
			} else {
				fmt.Fprintln(rt.Out, "✓ All data cleared")
			}
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// SeedCmd loads a fixture backlog into the selected partition.
func SeedCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo backlog",
		Long: `Load a YAML backlog through the normal services. Without --file the
built-in demo backlog is used. An active sprint is reused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			fx, err := loadFixtures(file)
			if err != nil {
				return err
			}

			a, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			var res *primary.SeedResult
			err = rt.mutate(cmd, func(ctx context.Context) error {
				var serr error
				res, serr = a.Seed.Seed(ctx, fx, rt.Config().Tutorial)
				return serr
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(rt.Out, "✓ Seeded %d items\n", res.Items)
			if res.SprintID != nil {
				verb := "Reused"
				if res.SprintCreated {
					verb = "Created"
				}
				fmt.Fprintf(rt.Out, "  %s sprint #%d, planned %d items\n", verb, *res.SprintID, res.Planned)
			}
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "fixture YAML file")
	return cmd
}

func loadFixtures(file string) (*db.Fixtures, error) {
	if file == "" {
		return db.DefaultFixtures()
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer f.Close()
	return db.ParseFixtures(f)
}

// IntroCmd runs the tutorial in the tutorial partition.
func IntroCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intro",
		Short: "Build a guided tutorial sprint",
		Long: `Build a small tutorial backlog and sprint in the tutorial partition.
View it with --tutorial, e.g. "taskly board --tutorial". --reset clears it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			if reset, _ := cmd.Flags().GetBool("reset"); reset {
				if err := rt.mutateIn(cmd, true, a.Intro.Reset); err != nil {
					return err
				}
				fmt.Fprintln(rt.Out, "✓ Tutorial reset")
				return nil
			}

			var res *primary.IntroResult
			err = rt.mutateIn(cmd, true, func(ctx context.Context) error {
				var rerr error
				res, rerr = a.Intro.Run(ctx)
				return rerr
			})
			if err != nil {
				return err
			}
			if res.AlreadyCompleted {
				fmt.Fprintln(rt.Out, "Introduction already completed. Use --reset to start over.")
				return nil
			}
			for i, step := range res.Steps {
				fmt.Fprintf(rt.Out, "%d. %s\n", i+1, step)
			}
			fmt.Fprintln(rt.Out)
			fmt.Fprintln(rt.Out, "Next: taskly board --tutorial")
			return nil
		},
	}
	cmd.Flags().Bool("reset", false, "clear the tutorial partition and completion flag")
	return cmd
}
