package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jake-the-creative/dehc-1/internal/store"
	"github.com/jake-the-creative/dehc-1/pkg/model"
)

func categoryByName(t *testing.T, name string) model.Category {
	t.Helper()
	for _, c := range store.DefaultCategories() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no category %q", name)
	return model.Category{}
}

func personItem() *model.Item {
	return &model.Item{
		ID:          "p-1",
		Category:    "person",
		DisplayName: "Ada Quinn",
		Fields:      map[string]string{"given_name": "Ada", "family_name": "Quinn", "sex": "female"},
		Flags:       []string{"priority"},
		Notes:       "arrived by bus",
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBuildFieldsOrder(t *testing.T) {
	cat := categoryByName(t, "person")
	fields := buildFields(personItem(), cat)

	if fields[0].Key != "display_name" {
		t.Errorf("first field = %q, want display_name", fields[0].Key)
	}
	if last := fields[len(fields)-1]; last.Key != "notes" || last.Type != EditFieldTextArea {
		t.Errorf("last field = %q (%d), want notes textarea", last.Key, last.Type)
	}

	// Name + schema fields + flags + notes.
	want := 1 + len(cat.Fields) + len(cat.Flags) + 1
	if len(fields) != want {
		t.Fatalf("field count = %d, want %d", len(fields), want)
	}

	byKey := map[string]EditField{}
	for _, f := range fields {
		byKey[f.Key] = f
	}
	if f := byKey["sex"]; f.Type != EditFieldSelect || f.Options[f.Selected] != "female" {
		t.Errorf("sex field = %+v, want select preset to female", f)
	}
	if f := byKey["priority"]; f.Type != EditFieldFlag || !f.FlagSet {
		t.Errorf("priority flag = %+v, want set", f)
	}
	if f := byKey["missing"]; f.FlagSet {
		t.Error("missing flag should start unset")
	}
}

func TestEditPaneRecordRoundTrip(t *testing.T) {
	it := personItem()
	p := NewEditPane(it, categoryByName(t, "person"), TestTheme())

	rec := p.Record()
	if rec.ID != "p-1" || rec.DisplayName != "Ada Quinn" {
		t.Errorf("record identity = %q/%q", rec.ID, rec.DisplayName)
	}
	if rec.Field("given_name") != "Ada" || rec.Notes != "arrived by bus" {
		t.Errorf("record fields lost: %+v", rec)
	}
	if !rec.HasFlag("priority") {
		t.Error("record lost the priority flag")
	}

	// The staged record is a clone; mutating it must not touch the input.
	rec.DisplayName = "changed"
	if it.DisplayName != "Ada Quinn" {
		t.Error("Record() aliased the original item")
	}
}

func TestEditPaneTypingSetsDirty(t *testing.T) {
	p := NewEditPane(personItem(), categoryByName(t, "person"), TestTheme())
	p.Focus()

	if p.IsDirty() {
		t.Fatal("fresh pane should be clean")
	}

	p, _ = p.Update(keyRunes("x"))
	if !p.IsDirty() {
		t.Error("typing should mark the pane dirty")
	}
	if got := p.Record().DisplayName; got != "Ada Quinnx" {
		t.Errorf("display name after typing = %q", got)
	}
}

func TestEditPaneSelectCycling(t *testing.T) {
	p := NewEditPane(personItem(), categoryByName(t, "person"), TestTheme())
	p.Focus()

	// Tab to the sex select: name, given, family, age, then sex.
	for i := 0; i < 4; i++ {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	if got := p.fields[p.focusedField].Key; got != "sex" {
		t.Fatalf("focused field = %q, want sex", got)
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := p.Record().Field("sex"); got != "male" {
		t.Errorf("after right, sex = %q, want male", got)
	}
	if !p.IsDirty() {
		t.Error("select change should mark the pane dirty")
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if got := p.Record().Field("sex"); got != "female" {
		t.Errorf("after left, sex = %q, want female", got)
	}
	if p.IsDirty() {
		t.Error("cycling back should clear the dirty mark")
	}
}

func TestEditPaneFlagToggle(t *testing.T) {
	p := NewEditPane(personItem(), categoryByName(t, "person"), TestTheme())
	p.Focus()

	// Tab past name and the five schema fields to the first flag.
	for i := 0; i < 6; i++ {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	if got := p.fields[p.focusedField].Key; got != "medical attention" {
		t.Fatalf("focused field = %q, want medical attention", got)
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeySpace})
	if !p.Record().HasFlag("medical attention") {
		t.Error("space should set the flag")
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeySpace})
	if p.Record().HasFlag("medical attention") {
		t.Error("second space should clear the flag")
	}
}

func TestEditPaneSaveCancelLatches(t *testing.T) {
	p := NewEditPane(personItem(), categoryByName(t, "person"), TestTheme())

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if !p.SaveRequested() {
		t.Error("ctrl+s should latch a save request")
	}
	p.ClearRequests()
	if p.SaveRequested() {
		t.Error("ClearRequests should reset the latch")
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !p.CancelRequested() {
		t.Error("esc should latch a cancel request")
	}
}

func TestEditPaneEscLeavesPreviewFirst(t *testing.T) {
	p := NewEditPane(personItem(), categoryByName(t, "person"), TestTheme())

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	if !p.previewNotes {
		t.Fatal("ctrl+p should open the notes preview")
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.CancelRequested() {
		t.Error("esc inside the preview must not cancel the pane")
	}
	if p.previewNotes {
		t.Error("esc should close the preview")
	}
}

func TestCreatePaneStartsEmpty(t *testing.T) {
	p := NewCreatePane(categoryByName(t, "supply"), TestTheme())

	if !p.IsCreateMode() {
		t.Fatal("IsCreateMode() = false")
	}
	rec := p.Record()
	if rec.ID != "" || rec.Category != "supply" {
		t.Errorf("create record = %q/%q, want empty id, supply", rec.ID, rec.Category)
	}

	p.Focus()
	for _, r := range "Water" {
		p, _ = p.Update(keyRunes(string(r)))
	}
	if got := p.Record().DisplayName; got != "Water" {
		t.Errorf("typed name = %q", got)
	}
}

func TestEditPaneViewShowsSchema(t *testing.T) {
	p := NewEditPane(personItem(), categoryByName(t, "person"), TestTheme())
	p.SetSize(80, 30)

	out := p.View()
	for _, want := range []string{"Edit Person", "Name", "Given name", "Wristband", "Notes", "[x]"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	p.Focus()
	p, _ = p.Update(keyRunes("x"))
	if !strings.Contains(p.View(), "*") {
		t.Error("dirty pane should mark its title")
	}
}
