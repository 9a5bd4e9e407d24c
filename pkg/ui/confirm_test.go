package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestConfirmDialogKeys(t *testing.T) {
	tests := []struct {
		name      string
		key       tea.KeyMsg
		confirmed bool
		cancelled bool
	}{
		{"y confirms", keyRunes("y"), true, false},
		{"enter confirms", tea.KeyMsg{Type: tea.KeyEnter}, true, false},
		{"n cancels", keyRunes("n"), false, true},
		{"esc cancels", tea.KeyMsg{Type: tea.KeyEsc}, false, true},
		{"other key is ignored", keyRunes("x"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeleteConfirm("item-1", "Tent 1", 0, nil, TestTheme())
			d = d.Update(tt.key)
			if d.Confirmed() != tt.confirmed {
				t.Errorf("Confirmed() = %v, want %v", d.Confirmed(), tt.confirmed)
			}
			if d.Cancelled() != tt.cancelled {
				t.Errorf("Cancelled() = %v, want %v", d.Cancelled(), tt.cancelled)
			}
		})
	}
}

func TestConfirmDialogDetail(t *testing.T) {
	d := NewDeleteConfirm("item-1", "Tent 1", 3, []string{"parent-1"}, TestTheme())
	d.SetSize(80, 24)

	out := d.View()
	if !strings.Contains(out, `Delete "Tent 1"?`) {
		t.Errorf("prompt missing from view:\n%s", out)
	}
	if !strings.Contains(out, "3 contained item(s) move up one level") {
		t.Error("child warning missing for a populated container")
	}
	if d.ItemID() != "item-1" {
		t.Errorf("ItemID() = %q", d.ItemID())
	}
	if got := d.Parents(); len(got) != 1 || got[0] != "parent-1" {
		t.Errorf("Parents() = %v", got)
	}

	leaf := NewDeleteConfirm("item-2", "Ada", 0, nil, TestTheme())
	leaf.SetSize(80, 24)
	if strings.Contains(leaf.View(), "move up one level") {
		t.Error("leaf delete should not warn about children")
	}
}
