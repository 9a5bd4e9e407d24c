package testutil

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/jake-the-creative/dehc-1/internal/store"
	"github.com/jake-the-creative/dehc-1/pkg/hierarchy"
)

func TestNestedShape(t *testing.T) {
	f := NewDefault().Nested(4)

	// root + 4 containers + 1 person
	AssertItemCount(t, f.Items, 6)
	if len(f.Edges) != 5 {
		t.Errorf("edge count = %d, want 5", len(f.Edges))
	}
	if f.Properties.ExpectedDepth != 5 {
		t.Errorf("expected depth = %d, want 5", f.Properties.ExpectedDepth)
	}
	if f.Items[0].Category != "evacuation" {
		t.Errorf("first item category = %q, want evacuation", f.Items[0].Category)
	}
	if last := f.Items[len(f.Items)-1]; last.Category != "person" {
		t.Errorf("last item category = %q, want person", last.Category)
	}
}

func TestWideShape(t *testing.T) {
	f := NewDefault().Wide(3, 4)

	AssertItemCount(t, f.Items, 1+3+3*4)
	if len(f.Edges) != 3+3*4 {
		t.Errorf("edge count = %d", len(f.Edges))
	}

	stations := 0
	for _, it := range f.Items {
		if it.Category == "station" {
			stations++
		}
	}
	if stations != 3 {
		t.Errorf("stations = %d, want 3", stations)
	}
}

func TestBalancedShape(t *testing.T) {
	f := NewDefault().Balanced(3, 2)

	// 1 + 2 + 4 + 8
	AssertItemCount(t, f.Items, 15)
	if f.Properties.ExpectedDepth != 3 {
		t.Errorf("expected depth = %d, want 3", f.Properties.ExpectedDepth)
	}
}

func TestLooseShape(t *testing.T) {
	f := NewDefault().Loose(5)

	AssertItemCount(t, f.Items, 6)
	if len(f.Edges) != 0 {
		t.Errorf("loose fixture has %d edges", len(f.Edges))
	}
	if f.Properties.IsConnected {
		t.Error("loose fixture should not claim connectivity")
	}
}

func TestDeterminism(t *testing.T) {
	a := New(GeneratorConfig{Seed: 7, WithFlags: true}).Wide(2, 3)
	b := New(GeneratorConfig{Seed: 7, WithFlags: true}).Wide(2, 3)

	if len(a.Items) != len(b.Items) {
		t.Fatalf("item counts differ: %d vs %d", len(a.Items), len(b.Items))
	}
	for i := range a.Items {
		if a.Items[i].DisplayName != b.Items[i].DisplayName {
			t.Errorf("item %d name differs: %q vs %q", i, a.Items[i].DisplayName, b.Items[i].DisplayName)
		}
		if a.Items[i].Field("age") != b.Items[i].Field("age") {
			t.Errorf("item %d age differs", i)
		}
		if len(a.Items[i].Flags) != len(b.Items[i].Flags) {
			t.Errorf("item %d flags differ", i)
		}
	}
}

func TestLoadIntoStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(store.DefaultCategories())

	f := NewDefault().Nested(3)
	ids, err := Load(ctx, mem, f)
	if err != nil {
		t.Fatal(err)
	}
	AssertNoDuplicateIDs(t, ids)

	// Edges landed: each child is filed under its fixture parent.
	for _, e := range f.Edges {
		AssertContainedIn(t, mem, ids[e[0]], ids[e[1]])
	}
	AssertUnrooted(t, mem, ids[0])

	eng := hierarchy.New(mem, zap.NewNop())
	if err := eng.SetBase(ctx, ids[0]); err != nil {
		t.Fatal(err)
	}
	AssertTreeShape(t, eng.Upper(), f)
	AssertSoleSelection(t, eng.Upper(), ids[0])
}

func TestFixtureFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f := NewDefault().Wide(2, 2)

	path := WriteFixtureFile(t, dir, "wide.json", f)
	got := ReadFixtureFile(t, path)

	if got.Description != f.Description {
		t.Errorf("description = %q, want %q", got.Description, f.Description)
	}
	AssertItemCount(t, got.Items, len(f.Items))
	if len(got.Edges) != len(f.Edges) {
		t.Errorf("edges = %d, want %d", len(got.Edges), len(f.Edges))
	}
}
