package hierarchy

import (
	"context"

	"go.uber.org/zap"

	"github.com/jake-the-creative/dehc-1/internal/store"
	"github.com/jake-the-creative/dehc-1/pkg/model"
)

// Store is the read-side contract the engine needs to materialize views.
type Store interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
	Children(ctx context.Context, id string) ([]model.Summary, error)
	GetParent(ctx context.Context, id string) (string, error)
}

// Engine owns the shared base and the two tree views (an upper context
// tree and a lower detail tree). Callers command it through SetBase,
// Refresh, Highlight, Open and Rebase; nothing else mutates view state.
type Engine struct {
	store    Store
	log      *zap.Logger
	upper    *Tree
	lower    *Tree
	base     string
	fallback string // known-good root for stale-reference recovery
}

// New returns an engine with empty views. Call SetFallback with the
// singleton root id before the first SetBase so stale-reference recovery
// has somewhere to land.
func New(st Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store: st,
		log:   log,
		upper: NewTree(),
		lower: NewTree(),
	}
}

// SetFallback records the known-good root used when a displayed id turns
// out to have been deleted underneath the view.
func (e *Engine) SetFallback(id string) { e.fallback = id }

// Base returns the shared displayed root id, "" before the first SetBase.
func (e *Engine) Base() string { return e.base }

// BaseLabel returns the display label of the base node, "" when no base
// is displayed.
func (e *Engine) BaseLabel() string {
	if n := e.upper.Root(); n != nil {
		return n.Label
	}
	return ""
}

// Upper returns the upper (context) tree for rendering.
func (e *Engine) Upper() *Tree { return e.upper }

// Lower returns the lower (detail) tree for rendering.
func (e *Engine) Lower() *Tree { return e.lower }

// Selections returns the upper tree's highlighted ids. The first entry
// doubles as the save-target container.
func (e *Engine) Selections() []string { return e.upper.Selections() }

// SetBase replaces the displayed root with id and rebuilds both views.
// A stale id (deleted underneath us) is recovered locally by rebasing to
// the fallback root with selection cleared; only store I/O failures are
// returned, and those leave the previous state intact.
func (e *Engine) SetBase(ctx context.Context, id string) error {
	if err := e.rebaseTo(ctx, id); err != nil {
		if store.IsNotFound(err) {
			return e.recoverStale(ctx, id)
		}
		return err
	}
	// A fresh base starts with itself selected so a save target container
	// always exists while something is displayed.
	e.upper.Select(id)
	e.base = id
	return nil
}

// Refresh rebuilds both views from the current base, preserving the
// expand state of surviving nodes. Idempotent against an unchanged
// store. A vanished base triggers the same recovery as SetBase.
func (e *Engine) Refresh(ctx context.Context) error {
	if e.base == "" {
		return nil
	}
	if err := e.rebaseTo(ctx, e.base); err != nil {
		if store.IsNotFound(err) {
			return e.recoverStale(ctx, e.base)
		}
		return err
	}
	return nil
}

// rebaseTo rebuilds both trees rooted at id without touching e.base, so
// failures leave prior state in place.
func (e *Engine) rebaseTo(ctx context.Context, id string) error {
	if err := e.upper.rebuild(ctx, e.store, id); err != nil {
		return err
	}
	if err := e.lower.rebuild(ctx, e.store, id); err != nil {
		return err
	}
	return nil
}

// recoverStale falls back to the last known-good root after staleID
// turned out to be deleted. Recovery is local: the affected selection is
// cleared and the condition logged, not surfaced as an error.
func (e *Engine) recoverStale(ctx context.Context, staleID string) error {
	e.log.Warn("stale reference, falling back",
		zap.String("stale", staleID),
		zap.String("fallback", e.fallback))

	if e.fallback == "" || e.fallback == staleID {
		e.upper.clear()
		e.lower.clear()
		e.base = ""
		return nil
	}
	if err := e.rebaseTo(ctx, e.fallback); err != nil {
		if store.IsNotFound(err) {
			e.upper.clear()
			e.lower.clear()
			e.base = ""
			return nil
		}
		return err
	}
	e.base = e.fallback
	e.upper.ClearSelection()
	e.lower.ClearSelection()
	return nil
}

// Highlight selects id in the upper tree, expanding ancestors so it is
// visible, and mirrors the focus to the lower tree. Returns false as a
// no-op when id is not reachable from the base; the caller rebases
// first (see Rebase).
func (e *Engine) Highlight(id string) bool {
	if !e.upper.Select(id) {
		return false
	}
	e.lower.Select(id)
	return true
}

// Open expands the currently selected nodes in both trees, used after a
// highlight to reveal newly attached children.
func (e *Engine) Open() {
	e.upper.OpenSelected()
	e.lower.OpenSelected()
}

// ParentOf returns the in-view parent of id in the upper tree, "" when
// id is displayed at view-root level (its true parent, if any, lies
// above the base).
func (e *Engine) ParentOf(id string) string {
	return e.upper.ParentID(id)
}

// Rebase is the protocol for revealing a target the current view cannot
// show because its true parent sits above the displayed root: query the
// store for the parent, make it the new base, and return it as the
// highlight anchor. A target with no parent at all is the terminal case
// and becomes the base itself. The policy is conservative: always
// re-root at the immediate parent, one extra full rebuild buys
// correctness.
func (e *Engine) Rebase(ctx context.Context, target string) (string, error) {
	parent, err := e.store.GetParent(ctx, target)
	if err != nil {
		return "", err
	}
	anchor := parent
	if anchor == "" {
		anchor = target
	}
	e.log.Debug("rebasing view",
		zap.String("target", target),
		zap.String("anchor", anchor))
	if err := e.SetBase(ctx, anchor); err != nil {
		return "", err
	}
	return anchor, nil
}
