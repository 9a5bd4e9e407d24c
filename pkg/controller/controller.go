package controller

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jake-the-creative/dehc-1/internal/store"
	"github.com/jake-the-creative/dehc-1/pkg/hierarchy"
	"github.com/jake-the-creative/dehc-1/pkg/model"
)

// DetailSink is where loaded records land: the edit pane in the app, a
// recorder in tests.
type DetailSink interface {
	// Show populates the pane with a record.
	Show(it *model.Item)
	// Clear empties the pane (after deletes and stale selections).
	Clear()
}

// Outcome reports what a transition did, for the status bar.
type Outcome struct {
	Status    string // human-readable note, may be empty
	Refreshed bool   // whether the trees were rebuilt
}

// Controller is the selection and detail sync state machine. It owns one
// active item id and commands the engine; it never reaches into tree
// internals.
type Controller struct {
	store   store.Store
	engine  *hierarchy.Engine
	detail  DetailSink
	log     *zap.Logger
	current string // active item id, "" when the pane is empty
}

// New wires a controller. All dependencies are explicit so tests can
// substitute fakes.
func New(st store.Store, engine *hierarchy.Engine, detail DetailSink, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{store: st, engine: engine, detail: detail, log: log}
}

// Current returns the active item id, "" when none.
func (c *Controller) Current() string { return c.current }

// Refresh re-runs the engine's refresh with no mutation: the manual
// Refresh action, also used to pick up external writers.
func (c *Controller) Refresh(ctx context.Context) (Outcome, error) {
	if err := c.engine.Refresh(ctx); err != nil {
		return Outcome{}, err
	}
	return Outcome{Refreshed: true}, nil
}

// Handle runs one transition to completion. The ordering guarantee
// holds for every branch: the store mutation completes or fails before
// any refresh, and refresh precedes highlight. A failed mutation
// returns with the view untouched.
func (c *Controller) Handle(ctx context.Context, ev Event) (Outcome, error) {
	switch ev := ev.(type) {
	case SelectionChanged:
		return c.selectionChanged(ctx, ev)
	case SaveRequested:
		return c.save(ctx, ev)
	case DeleteRequested:
		return c.delete(ctx, ev)
	case NewChildRequested:
		return c.newChild(ctx, ev)
	case ShowRequested:
		return c.show(ctx, ev)
	default:
		return Outcome{}, fmt.Errorf("unknown event %T", ev)
	}
}

func (c *Controller) selectionChanged(ctx context.Context, ev SelectionChanged) (Outcome, error) {
	it, err := c.store.GetItem(ctx, ev.ID)
	if err != nil {
		if store.IsNotFound(err) {
			// Stale selection: the item vanished between tree build and
			// click. Clear the pane, not an error.
			c.detail.Clear()
			c.current = ""
			return Outcome{Status: "item no longer exists"}, nil
		}
		return Outcome{}, err
	}
	c.detail.Show(it)
	c.current = it.ID
	return Outcome{}, nil
}

func (c *Controller) save(ctx context.Context, ev SaveRequested) (Outcome, error) {
	rec := ev.Record
	if rec == nil {
		return Outcome{}, fmt.Errorf("save: nil record")
	}

	// New standalone record: create, refresh, nothing to re-anchor.
	if rec.ID == "" {
		if err := c.store.CreateItem(ctx, rec); err != nil {
			return Outcome{}, err
		}
		if err := c.engine.Refresh(ctx); err != nil {
			return Outcome{}, err
		}
		c.log.Debug("created item", zap.String("id", rec.ID))
		return Outcome{Status: fmt.Sprintf("created %s", rec.DisplayName), Refreshed: true}, nil
	}

	sels := c.engine.Selections()
	if len(sels) == 0 {
		return Outcome{}, fmt.Errorf("save: no container selected")
	}
	container := sels[0]

	// The selection tracks the edited item itself during plain edits;
	// that is not a filing request, the item stays where it is.
	// Otherwise the edge add goes first: it carries the semantic
	// rejections (self-containment, cycles), so a refused filing aborts
	// before the record is touched. Refresh only after both writes land.
	if container != rec.ID {
		if err := c.store.AddContainerEdge(ctx, container, rec.ID); err != nil {
			return Outcome{}, err
		}
	}
	if err := c.store.UpdateItem(ctx, rec); err != nil {
		return Outcome{}, err
	}
	if err := c.engine.Refresh(ctx); err != nil {
		return Outcome{}, err
	}
	c.engine.Highlight(container)
	c.engine.Open()
	c.log.Debug("saved item",
		zap.String("id", rec.ID),
		zap.String("container", container))
	return Outcome{Status: fmt.Sprintf("saved %s", rec.DisplayName), Refreshed: true}, nil
}

func (c *Controller) delete(ctx context.Context, ev DeleteRequested) (Outcome, error) {
	if err := c.store.DeleteItem(ctx, ev.ID); err != nil {
		return Outcome{}, err
	}

	if len(ev.Parents) > 0 {
		parent := ev.Parents[0]
		// The displayed base cannot survive its own deletion; move it up
		// before rebuilding.
		if ev.ID == c.engine.Base() {
			if err := c.engine.SetBase(ctx, parent); err != nil {
				return Outcome{}, err
			}
		}
		if err := c.engine.Refresh(ctx); err != nil {
			return Outcome{}, err
		}
		c.engine.Highlight(parent)
		c.engine.Open()
	} else {
		if err := c.engine.Refresh(ctx); err != nil {
			return Outcome{}, err
		}
	}

	c.detail.Clear()
	c.current = ""
	c.log.Debug("deleted item", zap.String("id", ev.ID))
	return Outcome{Status: "item deleted", Refreshed: true}, nil
}

func (c *Controller) newChild(ctx context.Context, ev NewChildRequested) (Outcome, error) {
	parent := c.engine.ParentOf(ev.Target)
	if parent == "" {
		// The target is displayed at view-root level: its true parent is
		// above the base, so the root itself must move up.
		anchor, err := c.engine.Rebase(ctx, ev.Target)
		if err != nil {
			return Outcome{}, err
		}
		parent = c.engine.ParentOf(ev.Target)
		if parent == "" {
			parent = anchor // terminal case: the target is its own anchor
		}
	}
	c.engine.Highlight(parent)
	return Outcome{}, nil
}

func (c *Controller) show(ctx context.Context, ev ShowRequested) (Outcome, error) {
	if ev.ID == "" {
		return Outcome{}, nil
	}
	if err := c.engine.Refresh(ctx); err != nil {
		return Outcome{}, err
	}
	if !c.engine.Highlight(ev.ID) {
		// Not under the current base: reveal it via the rebase protocol.
		if _, err := c.engine.Rebase(ctx, ev.ID); err != nil {
			return Outcome{}, err
		}
		c.engine.Highlight(ev.ID)
	}
	return Outcome{Refreshed: true}, nil
}
