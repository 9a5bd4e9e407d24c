package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jake-the-creative/dehc-1/pkg/debug"
	"github.com/jake-the-creative/dehc-1/pkg/export"
	"github.com/jake-the-creative/dehc-1/pkg/hierarchy"
)

// newSnapshotCmd builds the snapshot exporter: a static SVG/PNG render
// of the register subtree under a base item.
func newSnapshotCmd() *cobra.Command {
	var (
		baseID      string
		title       string
		preset      string
		svgPath     string
		pngPath     string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export the register as an SVG/PNG diagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dbPath, _ := cmd.Flags().GetString("db")

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.Database = dbPath
			}

			ctx := cmd.Context()
			log, flush := debug.Logger()
			defer flush()

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			base := baseID
			if base == "" {
				base, err = resolveRoot(ctx, st, cfg.BaseCategory)
				if err != nil {
					return err
				}
			}

			engine := hierarchy.New(st, log)
			if err := engine.SetBase(ctx, base); err != nil {
				return err
			}

			opts := export.SnapshotOptions{
				SVGPath: svgPath,
				PNGPath: pngPath,
				Title:   title,
				Preset:  preset,
			}
			if interactive {
				wiz := export.NewWizard(engine.BaseLabel())
				opts, err = wiz.Run()
				if err != nil {
					return err
				}
			}
			opts.Tree = engine.Upper()
			opts.Stats = engine.Stats()

			if err := export.SaveSnapshot(opts); err != nil {
				return err
			}

			if opts.SVGPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.SVGPath)
			}
			if opts.PNGPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.PNGPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseID, "base", "", "subtree root item id (default: the register root)")
	cmd.Flags().StringVar(&title, "title", "", "title for the summary block")
	cmd.Flags().StringVar(&preset, "preset", "compact", "layout preset: compact or roomy")
	cmd.Flags().StringVar(&svgPath, "svg", "", "SVG output path")
	cmd.Flags().StringVar(&pngPath, "png", "", "PNG output path")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick options in a form instead of flags")
	return cmd
}
