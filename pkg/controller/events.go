// Package controller coordinates the tree views, the store, and the
// detail pane. The edit pane and trees never call each other: every
// action is one of a closed set of events delivered to Handle, which
// runs the transition to completion before the next event is processed.
package controller

import "github.com/jake-the-creative/dehc-1/pkg/model"

// Event is one member of the closed set of controller inputs.
type Event interface{ isEvent() }

// SelectionChanged reports that a tree highlighted item ID.
type SelectionChanged struct {
	ID string
}

// SaveRequested asks to persist the edit pane's record. A record with an
// empty ID is a new standalone item; otherwise the item is updated and
// filed into the currently selected container.
type SaveRequested struct {
	Record *model.Item
}

// DeleteRequested asks to delete item ID. Parents is the ancestor chain
// as the edit pane knows it; only the first element is ever consumed.
type DeleteRequested struct {
	ID      string
	Parents []string
}

// NewChildRequested asks to anchor the view for creating a child under
// Target's parent.
type NewChildRequested struct {
	Target string
}

// ShowRequested asks to focus the view on item ID.
type ShowRequested struct {
	ID string
}

func (SelectionChanged) isEvent()  {}
func (SaveRequested) isEvent()     {}
func (DeleteRequested) isEvent()   {}
func (NewChildRequested) isEvent() {}
func (ShowRequested) isEvent()     {}
