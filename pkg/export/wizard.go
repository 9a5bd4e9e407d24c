package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Wizard collects snapshot options interactively when `ems snapshot`
// runs without flags on a terminal.
type Wizard struct {
	title   string
	preset  string
	formats []string
	outDir  string
}

// NewWizard creates a snapshot wizard with defaults filled in.
func NewWizard(defaultTitle string) *Wizard {
	return &Wizard{
		title:   defaultTitle,
		preset:  "compact",
		formats: []string{"svg"},
		outDir:  ".",
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run walks the user through the snapshot options and returns them as
// SnapshotOptions with the tree fields left for the caller to fill.
func (w *Wizard) Run() (SnapshotOptions, error) {
	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Snapshot title").
				Description("Shown in the summary block").
				Value(&w.title),
			huh.NewSelect[string]().
				Title("Layout").
				Options(
					huh.NewOption("Compact (dense, fits more)", "compact"),
					huh.NewOption("Roomy (bigger boxes, wall copy)", "roomy"),
				).
				Value(&w.preset),
			huh.NewMultiSelect[string]().
				Title("Formats").
				Options(
					huh.NewOption("SVG (scalable, small)", "svg").Selected(true),
					huh.NewOption("PNG (paste anywhere)", "png"),
				).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return fmt.Errorf("pick at least one format")
					}
					return nil
				}).
				Value(&w.formats),
			huh.NewInput().
				Title("Output directory").
				Value(&w.outDir),
		),
	)

	if err := form.Run(); err != nil {
		return SnapshotOptions{}, fmt.Errorf("snapshot wizard: %w", err)
	}

	return w.options(), nil
}

func (w *Wizard) options() SnapshotOptions {
	opts := SnapshotOptions{
		Title:  strings.TrimSpace(w.title),
		Preset: w.preset,
	}
	stem := "snapshot"
	if opts.Title != "" {
		stem = slugify(opts.Title)
	}
	for _, f := range w.formats {
		switch f {
		case "svg":
			opts.SVGPath = filepath.Join(w.outDir, stem+".svg")
		case "png":
			opts.PNGPath = filepath.Join(w.outDir, stem+".png")
		}
	}
	return opts
}

// slugify turns a free-form title into a safe file stem.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "snapshot"
	}
	return out
}
