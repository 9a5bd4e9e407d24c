package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jake-the-creative/dehc-1/internal/store"
	"github.com/jake-the-creative/dehc-1/pkg/controller"
	"github.com/jake-the-creative/dehc-1/pkg/hardware"
	"github.com/jake-the-creative/dehc-1/pkg/hierarchy"
	"github.com/jake-the-creative/dehc-1/pkg/model"
	"github.com/jake-the-creative/dehc-1/pkg/watcher"
)

// focusArea is the pane currently receiving keys.
type focusArea int

const (
	focusUpper focusArea = iota
	focusLower
	focusEdit
)

// uiMode is the modal state of the shell.
type uiMode int

const (
	modeNormal uiMode = iota
	modeConfirm
	modeHelp
	modePickCategory
)

// Messages from the background goroutines. Watcher and scanner talk to
// the shell only through these — they never touch model state.
type dbChangedMsg struct{}
type scanCodeMsg string

// detailSlot is the controller's detail sink. It lives on the heap so
// the value-copied Model always sees what the controller pushed during
// the current Update.
type detailSlot struct {
	item    *model.Item
	cleared bool
}

func (s *detailSlot) Show(it *model.Item) { s.item = it }
func (s *detailSlot) Clear()              { s.cleared = true }

// Model is the bubbletea shell: two tree panes over one engine, an
// edit pane fed by the controller, a status bar, and the modal dialogs.
// Every controller event runs to completion inside one Update call.
type Model struct {
	ctx    context.Context
	store  store.Store
	engine *hierarchy.Engine
	ctrl   *controller.Controller
	log    *zap.Logger

	categories map[string]model.Category
	catOrder   []string

	slot *detailSlot

	upperPane TreePane
	lowerPane TreePane
	edit      *EditPane
	status    StatusBar
	bookmarks *Bookmarks
	confirm   ConfirmDialog

	watch *watcher.Watcher
	scan  hardware.Scanner

	mode      uiMode
	focus     focusArea
	pickIndex int

	width  int
	height int
}

// Params collects the shell's collaborators. Watcher and Scanner are
// optional.
type Params struct {
	Store         store.Store
	Engine        *hierarchy.Engine
	Categories    []model.Category
	DBPath        string
	BookmarksPath string
	Theme         string
	Log           *zap.Logger
	Watcher       *watcher.Watcher
	Scanner       hardware.Scanner
}

// NewModel wires the shell. The controller is created here because the
// shell owns the detail sink.
func NewModel(ctx context.Context, p Params) Model {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := lipgloss.DefaultRenderer()
	neutral := NeutralTheme(r)
	warm := WarmTheme(r)
	base := ThemeByName(p.Theme, r)

	slot := &detailSlot{}
	m := Model{
		ctx:        ctx,
		store:      p.Store,
		engine:     p.Engine,
		ctrl:       controller.New(p.Store, p.Engine, slot, log),
		log:        log,
		categories: make(map[string]model.Category, len(p.Categories)),
		slot:       slot,
		upperPane:  NewTreePane("Hierarchy", neutral),
		lowerPane:  NewTreePane("Contents", warm),
		status:     NewStatusBar(p.DBPath, base),
		bookmarks:  LoadBookmarks(p.BookmarksPath),
		watch:      p.Watcher,
		scan:       p.Scanner,
	}
	for _, c := range p.Categories {
		if c.Singleton {
			continue // the root is never created from the picker
		}
		m.categories[c.Name] = c
		m.catOrder = append(m.catOrder, c.Name)
	}
	for _, c := range p.Categories {
		if c.Singleton {
			m.categories[c.Name] = c
		}
	}

	m.upperPane.SetTree(p.Engine.Upper())
	m.lowerPane.SetTree(p.Engine.Lower())
	m.upperPane.Focus()
	m.refreshStatus()
	return m
}

// Init starts the background feeds.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.watch != nil {
		cmds = append(cmds, waitForChange(m.watch))
	}
	if m.scan != nil {
		cmds = append(cmds, waitForScan(m.scan))
	}
	return tea.Batch(cmds...)
}

func waitForChange(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return dbChangedMsg{}
	}
}

func waitForScan(s hardware.Scanner) tea.Cmd {
	return func() tea.Msg {
		code, ok := <-s.Codes()
		if !ok {
			return nil
		}
		return scanCodeMsg(code)
	}
}

// Update is the single event loop: one message, one transition.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case dbChangedMsg:
		out, err := m.ctrl.Refresh(m.ctx)
		m.syncAfter(out, err)
		if err == nil {
			m.status.Flash("external change picked up")
		}
		if m.watch == nil {
			return m, nil
		}
		return m, waitForChange(m.watch)

	case scanCodeMsg:
		m.handleScan(string(msg))
		if m.scan == nil {
			return m, nil
		}
		return m, waitForScan(m.scan)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleScan(code string) {
	if _, err := m.store.GetItem(m.ctx, code); err != nil {
		if store.IsNotFound(err) {
			m.status.FlashError(fmt.Sprintf("unknown code %s", code))
			return
		}
		m.status.FlashError(err.Error())
		return
	}
	if m.showItem(code) {
		m.status.Flash(fmt.Sprintf("scanned %s", code))
	}
}

// showItem focuses the trees on id and loads its record into the detail
// pane. Reports whether both steps succeeded.
func (m *Model) showItem(id string) bool {
	out, err := m.ctrl.Handle(m.ctx, controller.ShowRequested{ID: id})
	m.syncAfter(out, err)
	if err != nil {
		return false
	}
	out, err = m.ctrl.Handle(m.ctx, controller.SelectionChanged{ID: id})
	m.syncAfter(out, err)
	return err == nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeHelp:
		m.mode = modeNormal
		return m, nil

	case modeConfirm:
		m.confirm = m.confirm.Update(msg)
		if m.confirm.Confirmed() {
			m.mode = modeNormal
			out, err := m.ctrl.Handle(m.ctx, controller.DeleteRequested{
				ID:      m.confirm.ItemID(),
				Parents: m.confirm.Parents(),
			})
			if err == nil {
				m.bookmarks.Drop(m.confirm.ItemID())
			}
			m.syncAfter(out, err)
		} else if m.confirm.Cancelled() {
			m.mode = modeNormal
		}
		return m, nil

	case modePickCategory:
		return m.handlePickKey(msg)
	}

	// Global keys that always win.
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		// Inside the edit pane tab walks fields; everywhere else it
		// cycles panes.
		if m.focus != focusEdit || m.edit == nil {
			m.cycleFocus()
			return m, nil
		}
	}

	if m.focus == focusEdit && m.edit != nil {
		return m.handleEditKey(msg)
	}
	return m.handleTreeKey(msg)
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pane, cmd := m.edit.Update(msg)
	m.edit = &pane

	if pane.CancelRequested() {
		m.edit.ClearRequests()
		m.closeEdit()
		return m, cmd
	}
	if pane.SaveRequested() {
		m.edit.ClearRequests()
		m.saveEdit()
		return m, cmd
	}
	return m, cmd
}

// saveEdit turns the staged record into save transitions. A created
// record is saved again once it has an id, which files it into the
// highlighted container — the same path an edited record takes.
func (m *Model) saveEdit() {
	rec := m.edit.Record()
	if strings.TrimSpace(rec.DisplayName) == "" {
		m.status.FlashError("name is required")
		return
	}

	out, err := m.ctrl.Handle(m.ctx, controller.SaveRequested{Record: rec})
	if err == nil && rec.ID != "" && m.edit.IsCreateMode() && len(m.engine.Selections()) > 0 {
		out, err = m.ctrl.Handle(m.ctx, controller.SaveRequested{Record: rec})
	}
	m.syncAfter(out, err)
	if err != nil {
		return
	}
	// Reload the pane in edit mode so a second ctrl+s is an update.
	if it, gerr := m.store.GetItem(m.ctx, rec.ID); gerr == nil {
		m.showRecord(it)
	}
}

func (m Model) handleTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pane := &m.upperPane
	if m.focus == focusLower {
		pane = &m.lowerPane
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "j", "down":
		pane.MoveDown()
		m.selectCursor(pane)
	case "k", "up":
		pane.MoveUp()
		m.selectCursor(pane)
	case "g":
		pane.JumpToTop()
		m.selectCursor(pane)
	case "G":
		pane.JumpToBottom()
		m.selectCursor(pane)

	case "enter", "l":
		pane.Expand()
	case "h":
		pane.CollapseOrJumpToParent()
	case " ":
		pane.ToggleExpand()

	case "n":
		m.requestNewChild(pane.CursorID())

	case "ctrl+d":
		m.requestDelete(pane.CursorID())

	case "s":
		if id := m.ctrl.Current(); id != "" {
			out, err := m.ctrl.Handle(m.ctx, controller.ShowRequested{ID: id})
			m.syncAfter(out, err)
		}

	case "r":
		out, err := m.ctrl.Refresh(m.ctx)
		m.syncAfter(out, err)
		m.status.Flash("refreshed")

	case "y":
		if id := pane.CursorID(); id != "" {
			if err := clipboard.WriteAll(id); err != nil {
				m.status.FlashError("clipboard unavailable")
			} else {
				m.status.Flash("yanked " + id)
			}
		}

	case "ctrl+b":
		m.saveBookmark(pane)

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.jumpToBookmark(int(msg.String()[0] - '0'))

	case "?":
		m.mode = modeHelp
	}

	return m, nil
}

// selectCursor mirrors a cursor move into the engine and the detail
// pane: highlight the node, then load its record.
func (m *Model) selectCursor(pane *TreePane) {
	id := pane.CursorID()
	if id == "" {
		return
	}
	m.engine.Highlight(id)
	out, err := m.ctrl.Handle(m.ctx, controller.SelectionChanged{ID: id})
	m.syncAfter(out, err)
	pane.MoveTo(id)
}

// requestNewChild anchors the parent container and opens the category
// picker for the new record.
func (m *Model) requestNewChild(target string) {
	if target == "" {
		target = m.ctrl.Current()
	}
	if target == "" {
		m.status.FlashError("nothing selected")
		return
	}
	out, err := m.ctrl.Handle(m.ctx, controller.NewChildRequested{Target: target})
	m.syncAfter(out, err)
	if err != nil {
		return
	}
	m.mode = modePickCategory
	m.pickIndex = 0
}

func (m *Model) requestDelete(id string) {
	if id == "" {
		m.status.FlashError("nothing selected")
		return
	}
	node := m.engine.Upper().Node(id)
	if node == nil {
		return
	}
	label := node.Label
	childCount := len(node.Children)

	var parents []string
	if parent, err := m.store.GetParent(m.ctx, id); err == nil && parent != "" {
		parents = []string{parent}
	}

	m.confirm = NewDeleteConfirm(id, label, childCount, parents, m.status.theme)
	m.confirm.SetSize(m.width, m.height)
	m.mode = modeConfirm
}

func (m Model) handlePickKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeNormal
	case "j", "down":
		if m.pickIndex < len(m.catOrder)-1 {
			m.pickIndex++
		}
	case "k", "up":
		if m.pickIndex > 0 {
			m.pickIndex--
		}
	case "enter":
		cat := m.categories[m.catOrder[m.pickIndex]]
		pane := NewCreatePane(cat, m.status.theme)
		pane.SetSize(m.editWidth(), m.bodyHeight())
		m.edit = &pane
		m.setFocus(focusEdit)
		m.mode = modeNormal
	}
	return m, nil
}

func (m *Model) saveBookmark(pane *TreePane) {
	id := pane.CursorID()
	if id == "" {
		return
	}
	node := pane.CursorNode()
	for n := 1; n <= 9; n++ {
		if _, taken := m.bookmarks.Get(n); !taken {
			if err := m.bookmarks.Set(n, id, node.Label); err != nil {
				m.status.FlashError(err.Error())
				return
			}
			m.status.Flash(fmt.Sprintf("bookmarked %s as %d", node.Label, n))
			return
		}
	}
	m.status.FlashError("all bookmark slots taken")
}

func (m *Model) jumpToBookmark(n int) {
	bm, ok := m.bookmarks.Get(n)
	if !ok {
		return
	}
	if _, err := m.store.GetItem(m.ctx, bm.ID); err != nil {
		if store.IsNotFound(err) {
			m.bookmarks.Drop(bm.ID)
			m.status.FlashError(fmt.Sprintf("bookmark %d is stale", n))
		} else {
			m.status.FlashError(err.Error())
		}
		return
	}
	m.showItem(bm.ID)
}

// syncAfter applies a transition's aftermath: surface errors or status
// notes, consume the detail slot, and re-anchor both panes.
func (m *Model) syncAfter(out controller.Outcome, err error) {
	if err != nil {
		m.status.FlashError(err.Error())
	} else if out.Status != "" {
		m.status.Flash(out.Status)
	}
	if out.Refreshed {
		m.status.MarkRefreshed()
		m.refreshStatus()
	}

	if m.slot.cleared {
		m.slot.cleared = false
		m.slot.item = nil
		m.closeEdit()
	} else if m.slot.item != nil {
		m.showRecord(m.slot.item)
		m.slot.item = nil
	}

	m.upperPane.SetTree(m.engine.Upper())
	m.lowerPane.SetTree(m.engine.Lower())

	// Keep the cursor with the engine's highlight after transitions
	// that move it (save, delete, show).
	if sels := m.engine.Selections(); len(sels) > 0 {
		m.upperPane.MoveTo(sels[0])
		m.lowerPane.MoveTo(sels[0])
	}
}

func (m *Model) showRecord(it *model.Item) {
	cat, ok := m.categories[it.Category]
	if !ok {
		cat = model.Category{Name: it.Category, Label: it.Category}
	}
	pane := NewEditPane(it, cat, m.status.theme)
	pane.SetSize(m.editWidth(), m.bodyHeight())
	if m.focus == focusEdit {
		pane.Focus()
	}
	m.edit = &pane
}

func (m *Model) closeEdit() {
	m.edit = nil
	if m.focus == focusEdit {
		m.setFocus(focusUpper)
	}
}

func (m *Model) refreshStatus() {
	if counts, err := m.store.Counts(m.ctx); err == nil {
		m.status.SetCounts(counts)
	}
	m.status.SetStats(m.engine.Stats())
}

func (m *Model) cycleFocus() {
	next := m.focus + 1
	if next > focusEdit || (next == focusEdit && m.edit == nil) {
		next = focusUpper
	}
	m.setFocus(next)
}

func (m *Model) setFocus(f focusArea) {
	m.upperPane.Blur()
	m.lowerPane.Blur()
	if m.edit != nil {
		m.edit.Blur()
	}
	m.focus = f
	switch f {
	case focusUpper:
		m.upperPane.Focus()
	case focusLower:
		m.lowerPane.Focus()
	case focusEdit:
		if m.edit != nil {
			m.edit.Focus()
		}
	}
}

func (m *Model) layout() {
	treeWidth := m.width / 2
	paneHeight := m.bodyHeight() / 2

	m.upperPane.SetSize(treeWidth, paneHeight)
	m.lowerPane.SetSize(treeWidth, paneHeight)
	if m.edit != nil {
		m.edit.SetSize(m.editWidth(), m.bodyHeight())
	}
	m.status.SetSize(m.width)
	m.confirm.SetSize(m.width, m.height)
}

func (m Model) editWidth() int {
	return m.width - m.width/2 - 1
}

func (m Model) bodyHeight() int {
	// header + status + bookmark bar
	h := m.height - 3
	if h < 6 {
		h = 6
	}
	return h
}

// View renders the whole shell.
func (m Model) View() string {
	switch m.mode {
	case modeConfirm:
		return m.confirm.View()
	case modeHelp:
		return m.helpView()
	case modePickCategory:
		return m.pickView()
	}

	header := m.status.theme.Header.Render("ems") + " " +
		m.status.theme.PrimaryBold.Render(m.engine.BaseLabel())

	left := lipgloss.JoinVertical(lipgloss.Left, m.upperPane.View(), m.lowerPane.View())

	right := m.status.theme.MutedText.Render("\n  select an item to edit it\n")
	if m.edit != nil {
		right = m.edit.View()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)

	lines := []string{header, body, m.status.View()}
	if bar := m.bookmarks.Bar(m.status.theme); bar != "" {
		lines = append(lines, bar)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) pickView() string {
	t := m.status.theme
	var sb strings.Builder
	sb.WriteString(t.PrimaryBold.Render("New item category"))
	sb.WriteString("\n\n")
	for i, name := range m.catOrder {
		label := m.categories[name].Label
		if i == m.pickIndex {
			sb.WriteString(t.Cursor.Render("> " + label))
		} else {
			sb.WriteString("  " + label)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(t.MutedText.Render("[Enter] Create   [Esc] Cancel"))

	box := t.FocusedBorder.Padding(1, 2).Render(sb.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) helpView() string {
	t := m.status.theme
	rows := []struct{ key, what string }{
		{"tab", "cycle focus (in the edit pane: next field)"},
		{"j/k", "move cursor"},
		{"enter/l", "expand node"},
		{"h", "collapse node / jump to parent"},
		{"n", "new child of the shown item"},
		{"ctrl+s", "save the edit pane"},
		{"ctrl+d", "delete the item under the cursor"},
		{"s", "show the edited item in the trees"},
		{"r", "refresh from the database"},
		{"y", "yank item id to the clipboard"},
		{"1-9", "jump to bookmark"},
		{"ctrl+b", "bookmark the item under the cursor"},
		{"ctrl+p", "preview notes as markdown (edit pane)"},
		{"q", "quit"},
	}

	var sb strings.Builder
	sb.WriteString(t.PrimaryBold.Render("Keys"))
	sb.WriteString("\n\n")
	for _, row := range rows {
		sb.WriteString(t.SecondaryText.Render(padRight(row.key, 9)))
		sb.WriteString(t.Base.Render(row.what))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(t.MutedText.Render("press any key to close"))

	box := t.FocusedBorder.Padding(1, 2).Render(sb.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
