package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/taskly/internal/version"
)

// VersionCmd prints build information.
func VersionCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(rt.Out, version.String())
			return nil
		},
	}
}
