package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <module>",
		Short: "Show the references, types and embedded dependencies of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.app.Inspect(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "module %s %s\n", s.Name, s.Version)
			for _, r := range s.References {
				_, _ = fmt.Fprintf(out, "reference %s %s\n", r.Name, r.Version)
			}
			for _, t := range s.Types {
				_, _ = fmt.Fprintf(out, "type %s\n", t)
			}
			for _, r := range s.Resources {
				_, _ = fmt.Fprintf(out, "resource %s kind=%s arch=%s compressed=%t size=%d\n",
					r.FileName, r.Key.Kind, r.Key.Arch, r.Compressed, r.Size)
			}
			if s.Loader == "" {
				_, _ = fmt.Fprintln(out, "loader none")
				return nil
			}
			_, _ = fmt.Fprintf(out, "loader v%s attached=%t\n", s.Loader, s.Attached)
			return nil
		},
	}
}
