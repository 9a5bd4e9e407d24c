package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals use the
// terminal's own background instead of a down-converted approximation
// that may clash with palettes like Solarized.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme carries the palette and pre-computed styles for one tree pane
// family. The upper tree uses the neutral variant, the lower tree the
// warm one, so a glance tells the operator which pane a row belongs to.
type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Categories
	Evacuation lipgloss.AdaptiveColor
	Station    lipgloss.AdaptiveColor
	Container  lipgloss.AdaptiveColor
	Person     lipgloss.AdaptiveColor
	Vehicle    lipgloss.AdaptiveColor
	Supply     lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	// Styles
	Base          lipgloss.Style
	Cursor        lipgloss.Style
	Selected      lipgloss.Style
	Header        lipgloss.Style
	FocusedBorder lipgloss.Style
	BlurredBorder lipgloss.Style

	// Pre-computed row styles, created once instead of per-frame
	MutedText     lipgloss.Style
	SecondaryText lipgloss.Style
	PrimaryBold   lipgloss.Style
	FlagBadge     lipgloss.Style
}

// NeutralTheme returns the cool slate palette used by the upper tree.
func NeutralTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#2D5C8A", Dark: "#77B2E8"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#8294AC"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#3D4758"},
		Highlight: lipgloss.AdaptiveColor{Light: "#DDE6F0", Dark: "#2C3B52"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6B7A94"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}
	applyCategoryPalette(&t)
	finishTheme(&t, r)
	return t
}

// WarmTheme returns the amber palette used by the lower tree.
func WarmTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#9A5B00", Dark: "#FFB86C"},
		Secondary: lipgloss.AdaptiveColor{Light: "#6B5B45", Dark: "#B39B7D"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Border:    lipgloss.AdaptiveColor{Light: "#C2B49C", Dark: "#54493A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#F1E6D4", Dark: "#4A3B28"},
		Muted:     lipgloss.AdaptiveColor{Light: "#7A6E5C", Dark: "#8A7B66"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}
	applyCategoryPalette(&t)
	finishTheme(&t, r)
	return t
}

// ThemeByName maps a config theme value to its constructor; unknown
// names fall back to neutral.
func ThemeByName(name string, r *lipgloss.Renderer) Theme {
	if name == "warm" {
		return WarmTheme(r)
	}
	return NeutralTheme(r)
}

// Category colors are shared across variants so an evacuee is the same
// hue in both panes.
func applyCategoryPalette(t *Theme) {
	t.Evacuation = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	t.Station = lipgloss.AdaptiveColor{Light: "#2684FF", Dark: "#4C9AFF"}
	t.Container = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	t.Person = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	t.Vehicle = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	t.Supply = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
}

func finishTheme(t *Theme, r *lipgloss.Renderer) {
	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Cursor = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Selected = r.NewStyle().Foreground(t.Primary).Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E2430"}).
		Bold(true).
		Padding(0, 1)

	t.FocusedBorder = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary)
	t.BlurredBorder = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border)

	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.FlagBadge = r.NewStyle().Foreground(t.Danger).Bold(true)
}

// CategoryBadge returns a one-letter marker and its color for a
// category name, so tree rows stay narrow.
func (t Theme) CategoryBadge(cat string) (string, lipgloss.AdaptiveColor) {
	switch cat {
	case "evacuation":
		return "E", t.Evacuation
	case "station":
		return "S", t.Station
	case "container":
		return "C", t.Container
	case "person":
		return "P", t.Person
	case "vehicle":
		return "V", t.Vehicle
	case "supply":
		return "U", t.Supply
	default:
		return "·", t.Subtext
	}
}

// TestTheme returns a theme suitable for use in tests (uses a plain stdout renderer).
func TestTheme() Theme {
	return NeutralTheme(lipgloss.NewRenderer(os.Stdout))
}
