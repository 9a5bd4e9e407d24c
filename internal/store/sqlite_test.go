package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jake-the-creative/dehc-1/pkg/model"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "register.db"), DefaultCategories())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreate(t *testing.T, s Store, category, name string) *model.Item {
	t.Helper()
	it := &model.Item{Category: category, DisplayName: name}
	require.NoError(t, s.CreateItem(context.Background(), it))
	require.NotEmpty(t, it.ID)
	return it
}

func TestSQLiteCreateGetRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	it := &model.Item{
		Category:    "person",
		DisplayName: "Ada Quinn",
		Flags:       []string{"priority"},
		Fields:      map[string]string{"given_name": "Ada", "family_name": "Quinn"},
		Notes:       "arrived on bus 3",
	}
	require.NoError(t, s.CreateItem(ctx, it))

	got, err := s.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Quinn", got.DisplayName)
	assert.Equal(t, []string{"priority"}, got.Flags)
	assert.Equal(t, "Ada", got.Field("given_name"))
	assert.Equal(t, "arrived on bus 3", got.Notes)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLiteGetItemNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetItem(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
}

func TestSQLiteUpdateNotFound(t *testing.T) {
	s := openTestStore(t)

	err := s.UpdateItem(context.Background(), &model.Item{ID: "ghost", Category: "person", DisplayName: "x"})
	assert.True(t, IsNotFound(err))
}

func TestSQLiteEdgeMoveSemantics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, "station", "Alpha")
	b := mustCreate(t, s, "station", "Bravo")
	p := mustCreate(t, s, "person", "Cory Lane")

	require.NoError(t, s.AddContainerEdge(ctx, a.ID, p.ID))
	parent, err := s.GetParent(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, parent)

	// Adding a second edge moves the item, it does not fail.
	require.NoError(t, s.AddContainerEdge(ctx, b.ID, p.ID))
	parent, err = s.GetParent(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, parent)

	children, err := s.Children(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestSQLiteEdgeRejectsSelfAndCycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, "container", "Crate A")
	b := mustCreate(t, s, "container", "Crate B")
	c := mustCreate(t, s, "container", "Crate C")
	require.NoError(t, s.AddContainerEdge(ctx, a.ID, b.ID))
	require.NoError(t, s.AddContainerEdge(ctx, b.ID, c.ID))

	err := s.AddContainerEdge(ctx, a.ID, a.ID)
	assert.True(t, IsConflict(err), "self-containment must be a conflict")

	// c is a descendant of a; containing a inside c closes a cycle.
	err = s.AddContainerEdge(ctx, c.ID, a.ID)
	assert.True(t, IsConflict(err), "cycle must be a conflict")

	// Edges are unchanged after the rejections.
	parent, err := s.GetParent(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "", parent)
}

func TestSQLiteEdgeUnknownEndpoint(t *testing.T) {
	s := openTestStore(t)
	a := mustCreate(t, s, "station", "Alpha")

	err := s.AddContainerEdge(context.Background(), a.ID, "ghost")
	assert.True(t, IsNotFound(err))
}

func TestSQLiteDeletePromotesChildren(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	top := mustCreate(t, s, "station", "Triage")
	mid := mustCreate(t, s, "container", "Tent 4")
	kid := mustCreate(t, s, "person", "Dana West")
	require.NoError(t, s.AddContainerEdge(ctx, top.ID, mid.ID))
	require.NoError(t, s.AddContainerEdge(ctx, mid.ID, kid.ID))

	require.NoError(t, s.DeleteItem(ctx, mid.ID))

	_, err := s.GetItem(ctx, mid.ID)
	assert.True(t, IsNotFound(err))

	parent, err := s.GetParent(ctx, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, top.ID, parent, "child should be promoted to the deleted item's container")
}

func TestSQLiteDeleteRootUnrootsChildren(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	root := mustCreate(t, s, "station", "Dock")
	kid := mustCreate(t, s, "supply", "Water")
	require.NoError(t, s.AddContainerEdge(ctx, root.ID, kid.ID))

	require.NoError(t, s.DeleteItem(ctx, root.ID))

	parent, err := s.GetParent(ctx, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, "", parent)
}

func TestSQLiteChildrenDeterministicOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	root := mustCreate(t, s, "station", "Muster")
	names := []string{"Charlie", "alpha", "Bravo"}
	for _, n := range names {
		it := mustCreate(t, s, "person", n)
		require.NoError(t, s.AddContainerEdge(ctx, root.ID, it.ID))
	}

	first, err := s.Children(ctx, root.ID)
	require.NoError(t, err)
	second, err := s.Children(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeat queries must agree")
	require.Len(t, first, 3)
}

func TestSQLiteSingletonConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "evacuation", "Evacuation")
	err := s.CreateItem(ctx, &model.Item{Category: "evacuation", DisplayName: "Second"})
	assert.True(t, IsConflict(err))
}

func TestSQLiteCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "person", "One")
	mustCreate(t, s, "person", "Two")
	mustCreate(t, s, "supply", "Rations")

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["person"])
	assert.Equal(t, 1, counts["supply"])
}

// TestMemoryMatchesSQLiteSemantics runs the same scenario against both
// implementations; the Memory store backs the engine and controller
// tests, so its edge semantics have to track the real adapter.
func TestMemoryMatchesSQLiteSemantics(t *testing.T) {
	for name, s := range map[string]Store{
		"sqlite": openTestStore(t),
		"memory": NewMemory(DefaultCategories()),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a := mustCreate(t, s, "container", "A")
			b := mustCreate(t, s, "container", "B")
			require.NoError(t, s.AddContainerEdge(ctx, a.ID, b.ID))

			err := s.AddContainerEdge(ctx, b.ID, a.ID)
			assert.True(t, IsConflict(err))

			require.NoError(t, s.DeleteItem(ctx, a.ID))
			parent, err := s.GetParent(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, "", parent)
		})
	}
}
