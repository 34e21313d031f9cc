package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/weld/internal/app"
	"go.trai.ch/weld/internal/core/domain"
)

func (c *CLI) newWeaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weave [module]",
		Short: "Embed the dependencies of a module and inject its loader",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := c.configLoader.Load(path)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Module = args[0]
			}
			applyWeaveFlags(cmd, cfg)

			res, err := c.app.Weave(cmd.Context(), app.WeaveRequest{Config: cfg})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range res.Resources {
				state := "embedded"
				if r.Reused {
					state = "unchanged"
				}
				_, _ = fmt.Fprintf(out, "%-9s %s (%d -> %d bytes)\n", state, r.Name, r.OriginalSize, r.Size)
			}
			if res.Written {
				_, _ = fmt.Fprintf(out, "wrote %s\n", res.Output)
			} else {
				_, _ = fmt.Fprintf(out, "%s is up to date\n", res.Output)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Write the processed module here instead of in place")
	flags.StringSliceP("reference", "r", nil, "Copy-local reference file or glob")
	flags.StringSlice("reference-dir", nil, "Directory whose modules and native libraries are all references")
	flags.StringSlice("search-path", nil, "Directory searched for the base library")
	flags.StringSlice("unmanaged", nil, "Name of a reference that carries native code")
	flags.StringSlice("unmanaged32", nil, "Name of a reference that carries 32-bit native code")
	flags.StringSlice("unmanaged64", nil, "Name of a reference that carries 64-bit native code")
	flags.StringSlice("include", nil, "Only embed references whose name matches")
	flags.StringSlice("exclude", nil, "Never embed references whose name matches")
	flags.StringSlice("preload", nil, "Native library to load when the module starts")
	flags.Bool("temporary-assemblies", false, "Load managed dependencies from extracted files at run time")
	flags.Bool("no-compress", false, "Store payloads uncompressed")
	flags.Bool("stage", false, "Stage payloads on disk before merging them")
	flags.String("staging-dir", "", "Directory used by --stage")
	return cmd
}

// applyWeaveFlags overrides cfg with every flag set on the command line.
func applyWeaveFlags(cmd *cobra.Command, cfg *domain.Config) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	list := func(name string, dst *[]string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetStringSlice(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if flags.Changed(name) {
			*dst, _ = flags.GetBool(name)
		}
	}

	str("output", &cfg.Output)
	list("reference", &cfg.References)
	list("reference-dir", &cfg.ReferenceDirs)
	list("search-path", &cfg.SearchPaths)
	list("unmanaged", &cfg.Unmanaged)
	list("unmanaged32", &cfg.Unmanaged32)
	list("unmanaged64", &cfg.Unmanaged64)
	list("include", &cfg.Include)
	list("exclude", &cfg.Exclude)
	list("preload", &cfg.Preload)
	boolean("temporary-assemblies", &cfg.CreateTemporaryAssemblies)
	boolean("no-compress", &cfg.DisableCompression)
	boolean("stage", &cfg.StageResources)
	str("staging-dir", &cfg.StagingDir)

	if cfg.StageResources && cfg.StagingDir == "" && cfg.Module != "" {
		cfg.StagingDir = filepath.Join(filepath.Dir(cfg.Module), ".weld")
	}
}
