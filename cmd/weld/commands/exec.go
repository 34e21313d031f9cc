package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/weld/internal/app"
)

func (c *CLI) newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <module> <Namespace.Type::Method> [args...]",
		Short: "Load a module and run one of its static methods",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			probeDirs, _ := cmd.Flags().GetStringSlice("probe-dir")
			tempRoot, _ := cmd.Flags().GetString("temp-dir")
			temporary, _ := cmd.Flags().GetBool("temporary-assemblies")

			out, err := c.app.Exec(cmd.Context(), app.ExecRequest{
				Module:              args[0],
				Entry:               args[1],
				Args:                args[2:],
				Stdout:              cmd.OutOrStdout(),
				ProbeDirs:           probeDirs,
				TempRoot:            tempRoot,
				TemporaryAssemblies: temporary,
			})
			if err != nil {
				return err
			}
			if out != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("probe-dir", nil, "Directory searched for modules before embedded resources")
	cmd.Flags().String("temp-dir", "", "Directory under which embedded native libraries are extracted")
	cmd.Flags().Bool("temporary-assemblies", false, "Load embedded modules from extracted files")
	return cmd
}
