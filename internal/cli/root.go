// Package cli wires the ems commands: the register TUI plus the
// supporting seed and snapshot tooling.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jake-the-creative/dehc-1/internal/store"
	"github.com/jake-the-creative/dehc-1/pkg/config"
	"github.com/jake-the-creative/dehc-1/pkg/debug"
	"github.com/jake-the-creative/dehc-1/pkg/hardware"
	"github.com/jake-the-creative/dehc-1/pkg/hierarchy"
	"github.com/jake-the-creative/dehc-1/pkg/model"
	"github.com/jake-the-creative/dehc-1/pkg/ui"
	"github.com/jake-the-creative/dehc-1/pkg/watcher"
)

// NewRootCmd builds the ems command tree. Running ems with no
// subcommand opens the register TUI.
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		dbPath     string
		theme      string
	)

	root := &cobra.Command{
		Use:           "ems",
		Short:         "Evacuation register viewer and editor",
		Long:          "ems is a dual-tree TUI over an evacuation register: stations, containers, persons, vehicles and supplies arranged in one containment hierarchy.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.Database = dbPath
			}
			if theme != "" {
				cfg.UI.Theme = theme
			}
			return runTUI(cmd.Context(), cfg)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: XDG config dir)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "register database path (overrides config)")
	root.Flags().StringVar(&theme, "theme", "", "ui theme: neutral or warm")

	root.AddCommand(newSeedCmd())
	root.AddCommand(newSnapshotCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// openStore opens the register database with the configured schema.
func openStore(cfg config.Config) (*store.SQLite, error) {
	cats := store.DefaultCategories()
	if cfg.Schema != "" {
		loaded, err := store.LoadSchema(cfg.Schema)
		if err != nil {
			return nil, fmt.Errorf("loading schema: %w", err)
		}
		cats = loaded
	}
	return store.Open(cfg.Database, cats)
}

// resolveRoot finds the singleton base item, creating it on first run.
func resolveRoot(ctx context.Context, st store.Store, baseCategory string) (string, error) {
	roots, err := st.QueryItems(ctx, baseCategory)
	if err != nil {
		return "", err
	}
	if len(roots) > 0 {
		return roots[0].ID, nil
	}

	label := baseCategory
	cats, err := st.Categories(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range cats {
		if c.Name == baseCategory {
			label = c.Label
		}
	}

	it := &model.Item{Category: baseCategory, DisplayName: label}
	if err := st.CreateItem(ctx, it); err != nil {
		return "", fmt.Errorf("creating %s root: %w", baseCategory, err)
	}
	return it.ID, nil
}

func runTUI(ctx context.Context, cfg config.Config) error {
	log, flush := debug.Logger()
	defer flush()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rootID, err := resolveRoot(ctx, st, cfg.BaseCategory)
	if err != nil {
		return err
	}

	engine := hierarchy.New(st, log)
	engine.SetFallback(rootID)
	if err := engine.SetBase(ctx, rootID); err != nil {
		return err
	}

	cats, err := st.Categories(ctx)
	if err != nil {
		return err
	}

	var w *watcher.Watcher
	if cfg.WatcherEnabled() {
		w, err = watcher.New(cfg.Database, watcher.WithForcePoll(cfg.Watcher.PollOnly))
		if err != nil {
			log.Warn("watcher unavailable", zap.Error(err))
		} else if err := w.Start(); err != nil {
			log.Warn("watcher failed to start", zap.Error(err))
			w = nil
		} else {
			defer w.Stop()
		}
	}

	var scan hardware.Scanner
	if cfg.Scanner.Device != "" {
		ls := hardware.OpenLineScanner(ctx, cfg.Scanner.Device, log)
		defer ls.Close()
		scan = ls
	}

	m := ui.NewModel(ctx, ui.Params{
		Store:         st,
		Engine:        engine,
		Categories:    cats,
		DBPath:        cfg.Database,
		BookmarksPath: cfg.Bookmarks,
		Theme:         cfg.UI.Theme,
		Log:           log,
		Watcher:       w,
		Scanner:       scan,
	})
	return runProgram(m)
}

// runProgram runs the bubbletea program with graceful shutdown on
// SIGINT/SIGTERM. EMS_TUI_AUTOCLOSE_MS quits the program after a delay,
// for automated smoke tests.
func runProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	if v := os.Getenv("EMS_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
