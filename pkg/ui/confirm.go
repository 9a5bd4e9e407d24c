package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmDialog asks before a destructive action. Children of a
// deleted container survive (they move up a level), and the prompt
// says so.
type ConfirmDialog struct {
	theme  Theme
	width  int
	height int

	prompt  string
	detail  string
	itemID  string
	parents []string

	confirmed bool
	cancelled bool
}

// NewDeleteConfirm builds the dialog for deleting an item.
func NewDeleteConfirm(itemID, label string, childCount int, parents []string, theme Theme) ConfirmDialog {
	detail := "This cannot be undone."
	if childCount > 0 {
		detail = fmt.Sprintf("Its %d contained item(s) move up one level. This cannot be undone.", childCount)
	}
	return ConfirmDialog{
		theme:   theme,
		prompt:  fmt.Sprintf("Delete %q?", label),
		detail:  detail,
		itemID:  itemID,
		parents: parents,
	}
}

// Update handles keys: y/enter confirms, n/esc cancels.
func (d ConfirmDialog) Update(msg tea.Msg) ConfirmDialog {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return d
	}
	switch key.String() {
	case "y", "enter":
		d.confirmed = true
	case "n", "esc", "q":
		d.cancelled = true
	}
	return d
}

// Confirmed reports whether the user accepted.
func (d ConfirmDialog) Confirmed() bool { return d.confirmed }

// Cancelled reports whether the user declined.
func (d ConfirmDialog) Cancelled() bool { return d.cancelled }

// ItemID returns the delete target.
func (d ConfirmDialog) ItemID() string { return d.itemID }

// Parents returns the target's parent chain for the delete event.
func (d ConfirmDialog) Parents() []string { return d.parents }

// SetSize sets the dialog placement area.
func (d *ConfirmDialog) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// View renders the dialog centered in its area.
func (d ConfirmDialog) View() string {
	r := d.theme.Renderer

	var content strings.Builder
	content.WriteString(r.NewStyle().Foreground(d.theme.Danger).Bold(true).Render(d.prompt))
	content.WriteString("\n\n")
	content.WriteString(d.theme.Base.Render(d.detail))
	content.WriteString("\n\n")
	content.WriteString(d.theme.MutedText.Render("[y] Delete   [n] Cancel"))

	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(d.theme.Danger).
		Padding(1, 2).
		Render(content.String())

	return lipgloss.Place(d.width, d.height, lipgloss.Center, lipgloss.Center, box)
}
