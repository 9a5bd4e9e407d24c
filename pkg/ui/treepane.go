package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jake-the-creative/dehc-1/pkg/hierarchy"
)

// TreePane renders one hierarchy tree with a cursor and windowed
// scrolling. The tree itself is owned by the engine; the pane only
// holds view state (cursor, offset, focus) and re-reads the flat list
// every frame, so an engine refresh never leaves the pane stale.
type TreePane struct {
	tree  *hierarchy.Tree
	theme Theme
	title string

	width  int
	height int

	cursor         int
	viewportOffset int
	focused        bool
}

// NewTreePane creates an empty pane. Call SetTree before rendering.
func NewTreePane(title string, theme Theme) TreePane {
	return TreePane{title: title, theme: theme}
}

// SetTree points the pane at a (possibly rebuilt) tree, keeping the
// cursor on the same item when it survived the rebuild.
func (p *TreePane) SetTree(t *hierarchy.Tree) {
	keep := p.CursorID()
	p.tree = t
	if keep != "" && p.MoveTo(keep) {
		return
	}
	p.cursor = 0
	p.viewportOffset = 0
}

// SetSize updates the available dimensions for the pane.
func (p *TreePane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.clampCursor()
	p.ensureCursorVisible()
}

// Focus marks the pane as the active key target.
func (p *TreePane) Focus() { p.focused = true }

// Blur removes focus.
func (p *TreePane) Blur() { p.focused = false }

// Focused reports whether the pane has focus.
func (p *TreePane) Focused() bool { return p.focused }

// Title returns the pane's header label.
func (p *TreePane) Title() string { return p.title }

// CursorID returns the id under the cursor, "" for an empty pane.
func (p *TreePane) CursorID() string {
	if p.tree == nil {
		return ""
	}
	flat := p.tree.Flat()
	if p.cursor < 0 || p.cursor >= len(flat) {
		return ""
	}
	return flat[p.cursor].ID
}

// CursorNode returns the node under the cursor, nil for an empty pane.
func (p *TreePane) CursorNode() *hierarchy.Node {
	if p.tree == nil {
		return nil
	}
	flat := p.tree.Flat()
	if p.cursor < 0 || p.cursor >= len(flat) {
		return nil
	}
	return flat[p.cursor]
}

// MoveTo places the cursor on id if it is visible. Returns false when
// the id is absent or hidden under a collapsed ancestor.
func (p *TreePane) MoveTo(id string) bool {
	if p.tree == nil {
		return false
	}
	for i, n := range p.tree.Flat() {
		if n.ID == id {
			p.cursor = i
			p.ensureCursorVisible()
			return true
		}
	}
	return false
}

// MoveDown moves the cursor one visible row down.
func (p *TreePane) MoveDown() {
	if p.tree == nil {
		return
	}
	if p.cursor < len(p.tree.Flat())-1 {
		p.cursor++
	}
	p.ensureCursorVisible()
}

// MoveUp moves the cursor one visible row up.
func (p *TreePane) MoveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
	p.ensureCursorVisible()
}

// JumpToTop moves the cursor to the first row.
func (p *TreePane) JumpToTop() {
	p.cursor = 0
	p.viewportOffset = 0
}

// JumpToBottom moves the cursor to the last row.
func (p *TreePane) JumpToBottom() {
	if p.tree == nil {
		return
	}
	p.cursor = len(p.tree.Flat()) - 1
	if p.cursor < 0 {
		p.cursor = 0
	}
	p.ensureCursorVisible()
}

// Expand opens the node under the cursor.
func (p *TreePane) Expand() {
	if n := p.CursorNode(); n != nil && len(n.Children) > 0 {
		p.tree.SetExpanded(n.ID, true)
	}
}

// CollapseOrJumpToParent collapses an open node, or moves to the
// parent when the node is already closed or a leaf.
func (p *TreePane) CollapseOrJumpToParent() {
	n := p.CursorNode()
	if n == nil {
		return
	}
	if n.Expanded && len(n.Children) > 0 {
		p.tree.SetExpanded(n.ID, false)
		p.clampCursor()
		return
	}
	if n.Parent != nil {
		p.MoveTo(n.Parent.ID)
	}
}

// ToggleExpand flips the expand state of the node under the cursor.
func (p *TreePane) ToggleExpand() {
	n := p.CursorNode()
	if n == nil || len(n.Children) == 0 {
		return
	}
	p.tree.SetExpanded(n.ID, !n.Expanded)
	p.clampCursor()
}

// View renders the pane: a header, the visible window of rows, and a
// position line when the tree overflows the window.
func (p *TreePane) View() string {
	r := p.theme.Renderer
	var sb strings.Builder

	sb.WriteString(p.theme.Header.Render(p.title))
	sb.WriteString("\n")

	if p.tree == nil || len(p.tree.Flat()) == 0 {
		sb.WriteString(p.theme.MutedText.Render("  (empty)"))
		return p.borderStyle().Render(sb.String())
	}

	flat := p.tree.Flat()
	start, end := p.visibleRange()
	for i := start; i < end; i++ {
		node := flat[i]
		line := p.renderNode(node)

		switch {
		case i == p.cursor && p.focused:
			line = p.theme.Cursor.Render(line)
		case i == p.cursor:
			line = r.NewStyle().Background(p.theme.Highlight).PaddingLeft(1).Render(line)
		default:
			line = " " + line
		}

		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if len(flat) > p.rowCount() && p.rowCount() > 0 {
		sb.WriteString(p.theme.MutedText.Render(
			fmt.Sprintf(" %d-%d of %d", start+1, end, len(flat))))
	}

	return p.borderStyle().Render(strings.TrimRight(sb.String(), "\n"))
}

func (p *TreePane) borderStyle() lipgloss.Style {
	if p.focused {
		return p.theme.FocusedBorder
	}
	return p.theme.BlurredBorder
}

func (p *TreePane) renderNode(node *hierarchy.Node) string {
	r := p.theme.Renderer
	width := p.width
	if width <= 0 {
		width = 80
	}
	width = width - 3 // border + cursor gutter

	var left strings.Builder

	prefix := p.buildTreePrefix(node)
	left.WriteString(prefix)

	indicator := expandIndicator(node)
	left.WriteString(r.NewStyle().Foreground(p.theme.Secondary).Render(indicator))
	left.WriteString(" ")

	badge, badgeColor := p.theme.CategoryBadge(node.Category)
	left.WriteString(r.NewStyle().Foreground(badgeColor).Render(badge))
	left.WriteString(" ")

	used := lipgloss.Width(prefix) + 2 + 2
	label := truncate(node.Label, width-used)
	if p.tree.IsSelected(node.ID) {
		left.WriteString(p.theme.Selected.Render(label))
	} else {
		left.WriteString(p.theme.Base.Render(label))
	}

	return left.String()
}

// buildTreePrefix draws the branch characters for one row.
func (p *TreePane) buildTreePrefix(node *hierarchy.Node) string {
	if node.Parent == nil {
		return ""
	}

	var parts []string
	for a := node.Parent; a != nil && a.Parent != nil; a = a.Parent {
		if hasSiblingsBelow(a) {
			parts = append([]string{"│  "}, parts...)
		} else {
			parts = append([]string{"   "}, parts...)
		}
	}
	if isLastChild(node) {
		parts = append(parts, "└─ ")
	} else {
		parts = append(parts, "├─ ")
	}

	return p.theme.MutedText.Render(strings.Join(parts, ""))
}

func hasSiblingsBelow(n *hierarchy.Node) bool {
	if n.Parent == nil {
		return false
	}
	sibs := n.Parent.Children
	for i, s := range sibs {
		if s == n {
			return i < len(sibs)-1
		}
	}
	return false
}

func isLastChild(n *hierarchy.Node) bool {
	if n.Parent == nil {
		return true
	}
	sibs := n.Parent.Children
	return len(sibs) > 0 && sibs[len(sibs)-1] == n
}

func expandIndicator(n *hierarchy.Node) string {
	if len(n.Children) == 0 {
		return "•"
	}
	if n.Expanded {
		return "▾"
	}
	return "▸"
}

// rowCount is the number of tree rows the window can show.
func (p *TreePane) rowCount() int {
	// header + border rows
	rows := p.height - 4
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (p *TreePane) visibleRange() (start, end int) {
	flat := p.tree.Flat()
	if len(flat) == 0 {
		return 0, 0
	}

	count := p.rowCount()
	start = p.viewportOffset
	if start < 0 {
		start = 0
	}
	end = start + count
	if end > len(flat) {
		end = len(flat)
		start = end - count
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func (p *TreePane) clampCursor() {
	if p.tree == nil {
		p.cursor = 0
		return
	}
	if max := len(p.tree.Flat()) - 1; p.cursor > max {
		p.cursor = max
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
	p.ensureCursorVisible()
}

func (p *TreePane) ensureCursorVisible() {
	if p.tree == nil {
		return
	}
	flat := p.tree.Flat()
	if len(flat) == 0 {
		return
	}

	count := p.rowCount()
	if p.cursor < p.viewportOffset {
		p.viewportOffset = p.cursor
	}
	if p.cursor >= p.viewportOffset+count {
		p.viewportOffset = p.cursor - count + 1
	}

	maxOffset := len(flat) - count
	if maxOffset < 0 {
		maxOffset = 0
	}
	if p.viewportOffset > maxOffset {
		p.viewportOffset = maxOffset
	}
	if p.viewportOffset < 0 {
		p.viewportOffset = 0
	}
}
