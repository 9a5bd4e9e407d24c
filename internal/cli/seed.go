package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jake-the-creative/dehc-1/pkg/config"
	"github.com/jake-the-creative/dehc-1/pkg/testutil"
)

// newSeedCmd builds the demo-register seeder. It fills an empty
// database with a plausible evacuation so the TUI has something to
// show on first contact.
func newSeedCmd() *cobra.Command {
	var (
		stations   int
		perStation int
		loose      int
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the register with demo data",
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
			return runSeed(cmd, cfg, stations, perStation, loose, force)
		},
	}

	cmd.Flags().IntVar(&stations, "stations", 3, "number of stations")
	cmd.Flags().IntVar(&perStation, "per-station", 5, "persons per station")
	cmd.Flags().IntVar(&loose, "loose", 4, "unfiled supplies")
	cmd.Flags().BoolVar(&force, "force", false, "seed even when the register already holds items")
	return cmd
}

func runSeed(cmd *cobra.Command, cfg config.Config, stations, perStation, loose int, force bool) error {
	ctx := cmd.Context()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if !force {
		counts, err := st.Counts(ctx)
		if err != nil {
			return err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		if total > 0 {
			return fmt.Errorf("register already holds %d item(s); use --force to seed anyway", total)
		}
	}

	gen := testutil.New(testutil.GeneratorConfig{Seed: 1, WithFlags: true})

	wide := gen.Wide(stations, perStation)
	ids, err := testutil.Load(ctx, st, wide)
	if err != nil {
		return err
	}
	rootID := ids[0]

	if loose > 0 {
		extra := gen.Loose(loose)
		// The wide fixture already provides the root; load only the
		// supplies and leave them unfiled.
		extra.Items = extra.Items[1:]
		if _, err := testutil.Load(ctx, st, extra); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %s: %d stations, %d persons, %d loose supplies (root %s)\n",
		cfg.Database, stations, stations*perStation, loose, rootID)
	return nil
}
