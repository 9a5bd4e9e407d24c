package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jake-the-creative/dehc-1/pkg/hierarchy"
	"github.com/jake-the-creative/dehc-1/pkg/model"
)

// AssertItemCount verifies the expected number of items.
func AssertItemCount(t *testing.T, items []model.Item, expected int) {
	t.Helper()
	if len(items) != expected {
		t.Errorf("expected %d items, got %d", expected, len(items))
	}
}

// AssertNoDuplicateIDs verifies all item ids are unique.
func AssertNoDuplicateIDs(t *testing.T, ids []string) {
	t.Helper()
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate item id: %s", id)
		}
		seen[id] = true
	}
}

// ParentReader is the read slice the containment assertions need.
type ParentReader interface {
	GetParent(ctx context.Context, id string) (string, error)
}

// AssertContainedIn verifies that child is filed under parent.
func AssertContainedIn(t *testing.T, st ParentReader, parentID, childID string) {
	t.Helper()
	got, err := st.GetParent(context.Background(), childID)
	if err != nil {
		t.Fatalf("GetParent(%s): %v", childID, err)
	}
	if got != parentID {
		t.Errorf("parent of %s = %q, want %q", childID, got, parentID)
	}
}

// AssertUnrooted verifies that id has no container.
func AssertUnrooted(t *testing.T, st ParentReader, id string) {
	t.Helper()
	got, err := st.GetParent(context.Background(), id)
	if err != nil {
		t.Fatalf("GetParent(%s): %v", id, err)
	}
	if got != "" {
		t.Errorf("item %s unexpectedly contained in %q", id, got)
	}
}

// AssertTreeShape verifies a materialized tree against the fixture's
// declared properties.
func AssertTreeShape(t *testing.T, tr *hierarchy.Tree, f HierarchyFixture) {
	t.Helper()
	root := tr.Root()
	if root == nil {
		t.Fatal("tree has no root")
	}

	maxDepth := 0
	var walk func(n *hierarchy.Node)
	walk = func(n *hierarchy.Node) {
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)

	if f.Properties.ExpectedDepth > 0 && maxDepth != f.Properties.ExpectedDepth {
		t.Errorf("tree depth = %d, want %d", maxDepth, f.Properties.ExpectedDepth)
	}
	if f.Properties.IsConnected {
		if want := len(f.Items); tr.Len() != want {
			t.Errorf("tree holds %d nodes, want all %d fixture items", tr.Len(), want)
		}
	}
}

// AssertSoleSelection verifies id is the one and only highlighted node.
func AssertSoleSelection(t *testing.T, tr *hierarchy.Tree, id string) {
	t.Helper()
	sels := tr.Selections()
	if len(sels) != 1 || sels[0] != id {
		t.Errorf("selections = %v, want sole %q", sels, id)
	}
}

// WriteFixtureFile writes a fixture as JSON under dir, returning the
// file path.
func WriteFixtureFile(t *testing.T, dir, name string, f HierarchyFixture) string {
	t.Helper()
	data, err := MarshalFixture(f)
	if err != nil {
		t.Fatalf("marshaling fixture: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

// ReadFixtureFile loads a fixture written by WriteFixtureFile or kept
// in testdata.
func ReadFixtureFile(t *testing.T, path string) HierarchyFixture {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	f, err := UnmarshalFixture(data)
	if err != nil {
		t.Fatal(err)
	}
	return f
}
