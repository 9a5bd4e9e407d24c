package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jake-the-creative/dehc-1/internal/store"
	"github.com/jake-the-creative/dehc-1/pkg/hierarchy"
	"github.com/jake-the-creative/dehc-1/pkg/model"
)

func newTestModel(t *testing.T) (Model, *fixture) {
	t.Helper()
	f := newFixture(t)
	cats, err := f.store.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(context.Background(), Params{
		Store:         f.store,
		Engine:        f.engine,
		Categories:    cats,
		DBPath:        "register.db",
		BookmarksPath: filepath.Join(t.TempDir(), "bookmarks.json"),
		Log:           zap.NewNop(),
	})
	mm, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return mm.(Model), f
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		mm, _ := m.Update(k)
		m = mm.(Model)
	}
	return m
}

func TestModelCursorLoadsRecord(t *testing.T) {
	m, f := newTestModel(t)

	// The root starts expanded, so one step down lands on North.
	m = press(t, m, keyRunes("j"))

	if m.edit == nil {
		t.Fatal("moving the cursor should open the detail pane")
	}
	if m.edit.ItemID() != f.north {
		t.Errorf("detail pane shows %q, want north", m.edit.ItemID())
	}
	if sels := f.engine.Selections(); len(sels) != 1 || sels[0] != f.north {
		t.Errorf("selections = %v, want sole north", sels)
	}
}

func TestModelTabCyclesFocus(t *testing.T) {
	m, _ := newTestModel(t)

	if m.focus != focusUpper {
		t.Fatalf("initial focus = %v", m.focus)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusLower {
		t.Errorf("after one tab focus = %v, want lower", m.focus)
	}

	// With no edit pane open, the cycle skips it.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusUpper {
		t.Errorf("after two tabs focus = %v, want upper", m.focus)
	}

	// Once a record is shown the pane joins the cycle.
	m = press(t, m, keyRunes("j"), tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusEdit {
		t.Errorf("focus = %v, want edit", m.focus)
	}
}

func TestModelTabWalksEditFields(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, keyRunes("j"),
		tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusEdit {
		t.Fatalf("focus = %v, want edit", m.focus)
	}
	if m.edit.focusedField != 0 {
		t.Fatalf("focused field = %d, want the name field", m.edit.focusedField)
	}

	// A station pane holds name, purpose, capacity, notes; tab walks
	// forward through them without leaving the pane.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusEdit {
		t.Fatal("tab inside the pane must not cycle pane focus")
	}
	if m.edit.focusedField != 1 {
		t.Errorf("focused field = %d, want 1", m.edit.focusedField)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab})
	if m.edit.focusedField != 3 {
		t.Errorf("focused field = %d, want the notes field", m.edit.focusedField)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.edit.focusedField != 2 {
		t.Errorf("focused field = %d after shift+tab, want 2", m.edit.focusedField)
	}
}

func TestModelEditSaveKeepsPlacement(t *testing.T) {
	m, f := newTestModel(t)
	ctx := context.Background()

	// Plain edit: select North, focus the pane, append to the name,
	// save. The item must keep its place under the root.
	m = press(t, m, keyRunes("j"),
		tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusEdit {
		t.Fatalf("focus = %v, want edit", m.focus)
	}
	m = press(t, m, keyRunes("x"), tea.KeyMsg{Type: tea.KeyCtrlS})

	it, err := f.store.GetItem(ctx, f.north)
	if err != nil {
		t.Fatal(err)
	}
	if it.DisplayName != "Northx" {
		t.Errorf("store name = %q, edit not committed", it.DisplayName)
	}
	if parent, _ := f.store.GetParent(ctx, f.north); parent != f.evac {
		t.Errorf("edge parent = %q, in-place save moved the item", parent)
	}
	if n := f.engine.Upper().Node(f.north); n == nil || n.Label != "Northx" {
		t.Error("view does not show the committed edit")
	}
	if !strings.Contains(m.status.View(), "saved") {
		t.Errorf("status = %q, want a save note", m.status.View())
	}
}

func TestModelDeleteFlow(t *testing.T) {
	m, f := newTestModel(t)
	ctx := context.Background()

	// Cursor to South: root, North, South at the top level.
	m = press(t, m, keyRunes("j"), keyRunes("j"))
	if m.upperPane.CursorID() != f.south {
		t.Fatalf("cursor = %q, want south", m.upperPane.CursorID())
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	if m.mode != modeConfirm {
		t.Fatal("ctrl+d should open the confirm dialog")
	}

	// Declining leaves the item alone.
	m = press(t, m, keyRunes("n"))
	if m.mode != modeNormal {
		t.Fatal("n should close the dialog")
	}
	if _, err := f.store.GetItem(ctx, f.south); err != nil {
		t.Fatalf("south deleted despite cancel: %v", err)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlD}, keyRunes("y"))
	if m.mode != modeNormal {
		t.Fatal("y should close the dialog")
	}
	if _, err := f.store.GetItem(ctx, f.south); !store.IsNotFound(err) {
		t.Errorf("south still present after confirmed delete: %v", err)
	}
}

func TestModelNewChildFlow(t *testing.T) {
	m, f := newTestModel(t)
	ctx := context.Background()

	// New child of North: the parent container (the root) gets
	// highlighted as the save target.
	m = press(t, m, keyRunes("j"), keyRunes("n"))
	if m.mode != modePickCategory {
		t.Fatal("n should open the category picker")
	}
	if sels := f.engine.Selections(); len(sels) != 1 || sels[0] != f.evac {
		t.Fatalf("selections = %v, want the parent container", sels)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.edit == nil || !m.edit.IsCreateMode() {
		t.Fatal("picking a category should open a create pane")
	}
	if m.focus != focusEdit {
		t.Errorf("focus = %v, want edit", m.focus)
	}

	for _, r := range "Gate" {
		m = press(t, m, keyRunes(string(r)))
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	// The record now exists and is filed under the highlighted parent.
	var createdID string
	for _, n := range f.engine.Upper().Node(f.evac).Children {
		if n.Label == "Gate" {
			createdID = n.ID
		}
	}
	if createdID == "" {
		t.Fatal("created item not attached under the parent container")
	}
	if it, err := f.store.GetItem(ctx, createdID); err != nil || it.Category != "station" {
		t.Errorf("created item = %+v, %v", it, err)
	}
	if m.edit == nil || m.edit.IsCreateMode() {
		t.Error("after save the pane should be in edit mode")
	}
}

func TestModelSaveRequiresName(t *testing.T) {
	m, f := newTestModel(t)

	m = press(t, m, keyRunes("j"), keyRunes("n"), tea.KeyMsg{Type: tea.KeyEnter})
	before, _ := f.store.Counts(context.Background())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	after, _ := f.store.Counts(context.Background())
	if before["station"] != after["station"] {
		t.Error("saving a nameless record should be refused")
	}
	if m.edit == nil || !m.edit.IsCreateMode() {
		t.Error("the create pane should stay open")
	}
}

func TestModelBookmarkRoundTrip(t *testing.T) {
	m, f := newTestModel(t)

	// Pin North to slot 1, wander off, jump back.
	m = press(t, m, keyRunes("j"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	if bm, ok := m.bookmarks.Get(1); !ok || bm.ID != f.north {
		t.Fatalf("slot 1 = %+v, ok=%v", bm, ok)
	}

	m = press(t, m, keyRunes("j"), keyRunes("1"))
	if sels := f.engine.Selections(); len(sels) != 1 || sels[0] != f.north {
		t.Errorf("selections after jump = %v, want north", sels)
	}
	if m.edit == nil || m.edit.ItemID() != f.north {
		t.Error("bookmark jump should load the record")
	}
}

func TestModelStaleBookmarkIsDropped(t *testing.T) {
	m, f := newTestModel(t)
	ctx := context.Background()

	m = press(t, m, keyRunes("j"), keyRunes("j"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlB}) // south -> slot 1

	if err := f.store.DeleteItem(ctx, f.south); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, keyRunes("1"))
	if _, ok := m.bookmarks.Get(1); ok {
		t.Error("jumping to a deleted item should drop the pin")
	}
}

func TestModelScanCode(t *testing.T) {
	m, f := newTestModel(t)

	mm, _ := m.Update(scanCodeMsg(f.tent))
	m = mm.(Model)
	if sels := f.engine.Selections(); len(sels) != 1 || sels[0] != f.tent {
		t.Errorf("selections after scan = %v, want tent", sels)
	}
	if m.edit == nil || m.edit.ItemID() != f.tent {
		t.Error("scan should load the record")
	}

	mm, _ = m.Update(scanCodeMsg("no-such-code"))
	m = mm.(Model)
	if !strings.Contains(m.status.View(), "unknown code") {
		t.Error("unknown code should flash an error")
	}
}

func TestModelExternalChangeRefreshes(t *testing.T) {
	m, f := newTestModel(t)

	newItem := addItem(t, f.store, "station", "West", f.evac)

	mm, _ := m.Update(dbChangedMsg{})
	m = mm.(Model)

	if f.engine.Upper().Node(newItem) == nil {
		t.Error("external change should rebuild the trees")
	}
	if !strings.Contains(m.status.View(), "external change") {
		t.Error("external change should flash a note")
	}
}

// flakyStore arms a read failure to exercise refresh error surfacing.
type flakyStore struct {
	*store.Memory
	fail bool
}

func (f *flakyStore) Children(ctx context.Context, id string) ([]model.Summary, error) {
	if f.fail {
		return nil, errors.New("register file unreadable")
	}
	return f.Memory.Children(ctx, id)
}

func TestModelExternalChangeRefreshFailureKeepsError(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(store.DefaultCategories())
	root := &model.Item{Category: "evacuation", DisplayName: "Evacuation"}
	if err := mem.CreateItem(ctx, root); err != nil {
		t.Fatal(err)
	}
	fs := &flakyStore{Memory: mem}
	engine := hierarchy.New(fs, zap.NewNop())
	engine.SetFallback(root.ID)
	if err := engine.SetBase(ctx, root.ID); err != nil {
		t.Fatal(err)
	}
	cats, err := mem.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(ctx, Params{
		Store:         fs,
		Engine:        engine,
		Categories:    cats,
		DBPath:        "register.db",
		BookmarksPath: filepath.Join(t.TempDir(), "bookmarks.json"),
		Log:           zap.NewNop(),
	})
	mm, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = mm.(Model)

	fs.fail = true
	mm, _ = m.Update(dbChangedMsg{})
	m = mm.(Model)

	if strings.Contains(m.status.View(), "external change") {
		t.Error("refresh failure must not flash the success note")
	}
	if !strings.Contains(m.status.View(), "unreadable") {
		t.Errorf("status = %q, want the refresh error", m.status.View())
	}
}

func addItem(t *testing.T, mem *store.Memory, category, name, parent string) string {
	t.Helper()
	ctx := context.Background()
	it := &model.Item{Category: category, DisplayName: name}
	if err := mem.CreateItem(ctx, it); err != nil {
		t.Fatal(err)
	}
	if parent != "" {
		if err := mem.AddContainerEdge(ctx, parent, it.ID); err != nil {
			t.Fatal(err)
		}
	}
	return it.ID
}

func TestModelHelpOverlay(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, keyRunes("?"))
	if m.mode != modeHelp {
		t.Fatal("? should open help")
	}
	if !strings.Contains(m.View(), "cycle focus") {
		t.Error("help view missing key listing")
	}

	m = press(t, m, keyRunes("x"))
	if m.mode != modeNormal {
		t.Error("any key should close help")
	}
}

func TestModelViewLayout(t *testing.T) {
	m, f := newTestModel(t)
	_ = f

	out := m.View()
	for _, want := range []string{"ems", "Evacuation", "Hierarchy", "Contents", "register.db"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
