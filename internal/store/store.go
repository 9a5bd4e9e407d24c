// Package store is the hierarchy store adapter: register items plus the
// container edges that arrange them into a single-parent tree, persisted
// in SQLite. The navigation engine and the controller only ever talk to
// the Store interface, so tests substitute in-memory fakes.
package store

import (
	"context"

	"github.com/jake-the-creative/dehc-1/pkg/model"
)

// Store is the full adapter contract. Reads feed the tree views and the
// edit pane; mutations are the only write path into the register.
type Store interface {
	// Categories returns the schema's category definitions in display order.
	Categories(ctx context.Context) ([]model.Category, error)

	// QueryItems returns summaries of every item in a category, ordered by
	// display name then id. Used at startup to resolve the singleton root
	// and by the UI's category search.
	QueryItems(ctx context.Context, category string) ([]model.Summary, error)

	// GetItem returns the full record for id, or a NotFoundError.
	GetItem(ctx context.Context, id string) (*model.Item, error)

	// GetParent returns the id of the container holding id, or "" when the
	// item has no container edge pointing at it.
	GetParent(ctx context.Context, id string) (string, error)

	// Children returns summaries of the items contained by id, ordered by
	// display name then id so tree rebuilds are deterministic.
	Children(ctx context.Context, id string) ([]model.Summary, error)

	// AddContainerEdge records that containerID holds itemID. An item with
	// an existing container is moved (the old edge is replaced).
	// Self-containment and cycles return a ConflictError.
	AddContainerEdge(ctx context.Context, containerID, itemID string) error

	// RemoveContainerEdge deletes the edge containerID -> itemID if it
	// exists; removing an absent edge is not an error.
	RemoveContainerEdge(ctx context.Context, containerID, itemID string) error

	// CreateItem inserts a new record, assigning a uuid when it.ID is empty.
	CreateItem(ctx context.Context, it *model.Item) error

	// UpdateItem rewrites the record for it.ID, or returns a NotFoundError.
	UpdateItem(ctx context.Context, it *model.Item) error

	// DeleteItem removes the record and its edges. Children are promoted to
	// the deleted item's own container; with no container their edges are
	// dropped and they become unrooted.
	DeleteItem(ctx context.Context, id string) error

	// Counts returns the number of items per category, for the status bar.
	Counts(ctx context.Context) (map[string]int, error)

	Close() error
}
