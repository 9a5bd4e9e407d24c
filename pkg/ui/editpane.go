package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jake-the-creative/dehc-1/pkg/model"
)

// EditFieldType defines the widget backing an edit field.
type EditFieldType int

const (
	EditFieldText EditFieldType = iota
	EditFieldTextArea
	EditFieldSelect
	EditFieldFlag
)

// EditField represents a single editable field.
type EditField struct {
	Label    string
	Key      string // schema field key; "display_name", "notes" and flag names are reserved
	Type     EditFieldType
	Input    textinput.Model // for text and number fields
	TextArea textarea.Model  // for the notes field
	Options  []string        // for select fields
	Selected int             // current selection index for select fields
	FlagSet  bool            // for flag toggles
	Original string          // original value for dirty detection
}

// EditPane provides field-by-field record editing driven by the
// category schema. The pane stages changes on a cloned record; nothing
// reaches the store until the shell turns a save request into a
// controller event.
type EditPane struct {
	category model.Category
	fields   []EditField

	focusedField int
	width        int
	height       int
	theme        Theme
	focused      bool

	itemID       string // empty for create mode
	original     *model.Item
	isCreateMode bool
	dirty        bool

	previewNotes bool

	saveRequested   bool
	cancelRequested bool
}

// NewEditPane builds a pane pre-populated from an existing record.
func NewEditPane(it *model.Item, cat model.Category, theme Theme) EditPane {
	p := EditPane{
		category: cat,
		theme:    theme,
		itemID:   it.ID,
		original: it.Clone(),
	}
	p.fields = buildFields(it, cat)
	return p
}

// NewCreatePane builds an empty pane for creating a record of cat.
func NewCreatePane(cat model.Category, theme Theme) EditPane {
	p := EditPane{
		category:     cat,
		theme:        theme,
		isCreateMode: true,
	}
	p.fields = buildFields(&model.Item{Category: cat.Name}, cat)
	if len(p.fields) > 0 {
		p.fields[0].Input.Focus()
	}
	return p
}

func buildFields(it *model.Item, cat model.Category) []EditField {
	fields := []EditField{makeTextField("Name", "display_name", it.DisplayName)}

	for _, def := range cat.Fields {
		val := it.Field(def.Key)
		switch def.Kind {
		case model.FieldSelect:
			fields = append(fields, makeSelectField(def.Label, def.Key, val, def.Options))
		case model.FieldTextarea:
			fields = append(fields, makeTextAreaField(def.Label, def.Key, val))
		default: // text and number share a widget; the schema validated the kind
			fields = append(fields, makeTextField(def.Label, def.Key, val))
		}
	}

	for _, flag := range cat.Flags {
		fields = append(fields, makeFlagField(flag, it.HasFlag(flag)))
	}

	fields = append(fields, makeTextAreaField("Notes", "notes", it.Notes))
	return fields
}

func makeTextField(label, key, value string) EditField {
	ti := textinput.New()
	ti.SetValue(value)
	ti.CharLimit = 200
	ti.Width = 40

	return EditField{
		Label:    label,
		Key:      key,
		Type:     EditFieldText,
		Input:    ti,
		Original: value,
	}
}

func makeTextAreaField(label, key, value string) EditField {
	ta := textarea.New()
	ta.SetValue(value)
	ta.SetWidth(40)
	ta.SetHeight(3)
	ta.CharLimit = 5000

	return EditField{
		Label:    label,
		Key:      key,
		Type:     EditFieldTextArea,
		TextArea: ta,
		Original: value,
	}
}

func makeSelectField(label, key, value string, options []string) EditField {
	selected := 0
	for i, opt := range options {
		if opt == value {
			selected = i
			break
		}
	}

	return EditField{
		Label:    label,
		Key:      key,
		Type:     EditFieldSelect,
		Options:  options,
		Selected: selected,
		Original: value,
	}
}

func makeFlagField(flag string, set bool) EditField {
	return EditField{
		Label:    flag,
		Key:      flag,
		Type:     EditFieldFlag,
		FlagSet:  set,
		Original: flagValue(set),
	}
}

func flagValue(set bool) string {
	if set {
		return "yes"
	}
	return "no"
}

// Update handles input for the edit pane.
func (p EditPane) Update(msg tea.Msg) (EditPane, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			p.saveRequested = true
			return p, nil

		case "esc":
			if p.previewNotes {
				p.previewNotes = false
				return p, nil
			}
			p.cancelRequested = true
			return p, nil

		case "ctrl+p":
			p.previewNotes = !p.previewNotes
			return p, nil

		case "tab":
			p.fields[p.focusedField] = blurField(p.fields[p.focusedField])
			p.focusedField = (p.focusedField + 1) % len(p.fields)
			p.fields[p.focusedField] = focusField(p.fields[p.focusedField])
			return p, nil

		case "shift+tab":
			p.fields[p.focusedField] = blurField(p.fields[p.focusedField])
			p.focusedField = (p.focusedField - 1 + len(p.fields)) % len(p.fields)
			p.fields[p.focusedField] = focusField(p.fields[p.focusedField])
			return p, nil

		case "left", "right":
			field := &p.fields[p.focusedField]
			switch field.Type {
			case EditFieldSelect:
				if msg.String() == "left" {
					field.Selected = (field.Selected - 1 + len(field.Options)) % len(field.Options)
				} else {
					field.Selected = (field.Selected + 1) % len(field.Options)
				}
				p.updateDirtyFlag()
				return p, nil
			case EditFieldFlag:
				field.FlagSet = !field.FlagSet
				p.updateDirtyFlag()
				return p, nil
			}

		case " ":
			if field := &p.fields[p.focusedField]; field.Type == EditFieldFlag {
				field.FlagSet = !field.FlagSet
				p.updateDirtyFlag()
				return p, nil
			}
		}

		// Pass key to focused field
		field := &p.fields[p.focusedField]
		switch field.Type {
		case EditFieldText:
			field.Input, cmd = field.Input.Update(msg)
			cmds = append(cmds, cmd)
		case EditFieldTextArea:
			field.TextArea, cmd = field.TextArea.Update(msg)
			cmds = append(cmds, cmd)
		}
		p.updateDirtyFlag()
	}

	return p, tea.Batch(cmds...)
}

func focusField(field EditField) EditField {
	switch field.Type {
	case EditFieldText:
		field.Input.Focus()
	case EditFieldTextArea:
		field.TextArea.Focus()
	}
	return field
}

func blurField(field EditField) EditField {
	switch field.Type {
	case EditFieldText:
		field.Input.Blur()
	case EditFieldTextArea:
		field.TextArea.Blur()
	}
	return field
}

func (p *EditPane) updateDirtyFlag() {
	p.dirty = false
	for _, field := range p.fields {
		if currentValue(field) != field.Original {
			p.dirty = true
			break
		}
	}
}

func currentValue(field EditField) string {
	switch field.Type {
	case EditFieldText:
		return field.Input.Value()
	case EditFieldTextArea:
		return field.TextArea.Value()
	case EditFieldSelect:
		if field.Selected >= 0 && field.Selected < len(field.Options) {
			return field.Options[field.Selected]
		}
		return ""
	case EditFieldFlag:
		return flagValue(field.FlagSet)
	}
	return ""
}

// Record assembles the staged record for a save request. In edit mode
// the identity and timestamps come from the original record.
func (p EditPane) Record() *model.Item {
	it := &model.Item{Category: p.category.Name}
	if p.original != nil {
		it = p.original.Clone()
	}
	it.ID = p.itemID

	for _, field := range p.fields {
		val := currentValue(field)
		switch {
		case field.Key == "display_name":
			it.DisplayName = val
		case field.Key == "notes":
			it.Notes = val
		case field.Type == EditFieldFlag:
			if field.FlagSet != it.HasFlag(field.Key) {
				it.ToggleFlag(field.Key)
			}
		default:
			it.SetField(field.Key, val)
		}
	}
	return it
}

// IsDirty reports whether any field differs from its original value.
func (p EditPane) IsDirty() bool { return p.dirty }

// IsCreateMode reports whether the pane stages a brand-new record.
func (p EditPane) IsCreateMode() bool { return p.isCreateMode }

// ItemID returns the edited item's id, "" in create mode.
func (p EditPane) ItemID() string { return p.itemID }

// SaveRequested reports a pending ctrl+s; it stays set until the shell
// consumes it via ClearRequests.
func (p EditPane) SaveRequested() bool { return p.saveRequested }

// CancelRequested reports a pending esc.
func (p EditPane) CancelRequested() bool { return p.cancelRequested }

// ClearRequests resets the save/cancel latches.
func (p *EditPane) ClearRequests() {
	p.saveRequested = false
	p.cancelRequested = false
}

// SetSize sets the pane dimensions.
func (p *EditPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Focus marks the pane as the active key target.
func (p *EditPane) Focus() {
	p.focused = true
	p.fields[p.focusedField] = focusField(p.fields[p.focusedField])
}

// Blur removes focus.
func (p *EditPane) Blur() {
	p.focused = false
	p.fields[p.focusedField] = blurField(p.fields[p.focusedField])
}

// Focused reports whether the pane has focus.
func (p EditPane) Focused() bool { return p.focused }

// View renders the edit pane.
func (p EditPane) View() string {
	r := p.theme.Renderer

	var title string
	if p.isCreateMode {
		title = fmt.Sprintf("New %s", p.category.Label)
	} else {
		title = fmt.Sprintf("Edit %s", p.category.Label)
		if p.dirty {
			title += " *"
		}
	}

	var content strings.Builder
	content.WriteString(p.theme.PrimaryBold.Render(title))
	content.WriteString("\n\n")

	if p.previewNotes {
		content.WriteString(p.renderNotesPreview())
		return p.frame(content.String())
	}

	labelStyle := r.NewStyle().
		Foreground(p.theme.Secondary).
		Width(14).
		Align(lipgloss.Right)
	focusedLabelStyle := r.NewStyle().
		Foreground(p.theme.Primary).
		Bold(true).
		Width(14).
		Align(lipgloss.Right)
	selectStyle := r.NewStyle().Foreground(p.theme.Primary)

	for i, field := range p.fields {
		isFocused := p.focused && i == p.focusedField

		if isFocused {
			content.WriteString(focusedLabelStyle.Render(field.Label + ":"))
		} else {
			content.WriteString(labelStyle.Render(field.Label + ":"))
		}
		content.WriteString(" ")

		switch field.Type {
		case EditFieldText:
			content.WriteString(field.Input.View())

		case EditFieldTextArea:
			taView := field.TextArea.View()
			lines := strings.Split(taView, "\n")
			for idx, line := range lines {
				if idx > 0 {
					content.WriteString(strings.Repeat(" ", 15))
				}
				content.WriteString(line)
				if idx < len(lines)-1 {
					content.WriteString("\n")
				}
			}

		case EditFieldSelect:
			val := field.Options[field.Selected]
			if isFocused {
				content.WriteString(selectStyle.Render(fmt.Sprintf("< %s >", val)))
			} else {
				content.WriteString(val)
			}

		case EditFieldFlag:
			mark := "[ ]"
			if field.FlagSet {
				mark = "[x]"
			}
			if isFocused {
				content.WriteString(selectStyle.Render(mark))
			} else if field.FlagSet {
				content.WriteString(p.theme.FlagBadge.Render(mark))
			} else {
				content.WriteString(mark)
			}
		}

		content.WriteString("\n")
		if field.Type == EditFieldTextArea {
			content.WriteString("\n")
		}
	}

	content.WriteString("\n")
	subtext := r.NewStyle().Foreground(p.theme.Subtext).Italic(true)
	instructions := "[Tab] Next   [Ctrl+S] Save   [Ctrl+P] Preview notes   [Esc] Cancel"
	if p.fields[p.focusedField].Type == EditFieldSelect {
		instructions = "[←/→] Change   " + instructions
	}
	content.WriteString(subtext.Render(instructions))

	return p.frame(content.String())
}

// renderNotesPreview renders the notes field as markdown.
func (p EditPane) renderNotesPreview() string {
	notes := ""
	for _, f := range p.fields {
		if f.Key == "notes" {
			notes = currentValue(f)
		}
	}
	if strings.TrimSpace(notes) == "" {
		return p.theme.MutedText.Render("(no notes)")
	}

	width := p.width - 8
	if width < 40 {
		width = 40
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return notes
	}
	rendered, err := renderer.Render(notes)
	if err != nil {
		return notes
	}
	return rendered
}

func (p EditPane) frame(content string) string {
	boxWidth := p.width - 4
	if boxWidth < 50 {
		boxWidth = 50
	}
	style := p.theme.BlurredBorder
	if p.focused {
		style = p.theme.FocusedBorder
	}
	return style.Padding(0, 1).Width(boxWidth).Render(content)
}
