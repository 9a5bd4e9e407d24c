// Package testutil provides deterministic register fixtures for tests.
// All generators produce the same output for the same seed, so tree and
// store tests are reproducible.
package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/goccy/go-json"

	"github.com/jake-the-creative/dehc-1/pkg/model"
)

// HierarchyFixture is an abstract register: items plus containment
// edges by index. This is the format used by testdata/registers/*.json.
type HierarchyFixture struct {
	Description string       `json:"description"`
	Items       []model.Item `json:"items"`
	Edges       [][2]int     `json:"edges"` // [parent_idx, child_idx]
	Properties  Properties   `json:"properties,omitempty"`
}

// Properties holds optional metadata about the fixture.
type Properties struct {
	ExpectedDepth int  `json:"expected_depth,omitempty"`
	IsConnected   bool `json:"is_connected,omitempty"`
	LooseItems    int  `json:"loose_items,omitempty"`
}

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed       int64     // Random seed for determinism (0 = use current time)
	NamePrefix string    // Prefix for display names (default: "Test")
	BaseTime   time.Time // Base time for timestamps (default: fixed time)
	WithFlags  bool      // Sprinkle person flags deterministically
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:       42, // Deterministic
		NamePrefix: "Test",
		BaseTime:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Generator creates register fixtures with various shapes.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = "Test"
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Nested creates a chain of containers depth levels deep under an
// evacuation root, with one person at the bottom:
//
//	evacuation -> container1 -> container2 -> ... -> person
//
// Properties: connected, expected depth = depth+1.
func (g *Generator) Nested(depth int) HierarchyFixture {
	if depth < 1 {
		depth = 1
	}

	items := []model.Item{g.item("evacuation", "Evacuation")}
	edges := make([][2]int, 0, depth+1)

	for i := 1; i <= depth; i++ {
		items = append(items, g.item("container", fmt.Sprintf("Box %d", i)))
		edges = append(edges, [2]int{i - 1, i})
	}
	items = append(items, g.person(0))
	edges = append(edges, [2]int{depth, depth + 1})

	return HierarchyFixture{
		Description: fmt.Sprintf("Chain of %d nested containers with one person at the bottom", depth),
		Items:       items,
		Edges:       edges,
		Properties: Properties{
			ExpectedDepth: depth + 1,
			IsConnected:   true,
		},
	}
}

// Wide creates an evacuation with stations stations holding perStation
// persons each. Properties: connected, expected depth = 2.
func (g *Generator) Wide(stations, perStation int) HierarchyFixture {
	items := []model.Item{g.item("evacuation", "Evacuation")}
	var edges [][2]int

	for s := 0; s < stations; s++ {
		items = append(items, g.item("station", fmt.Sprintf("Station %d", s+1)))
		si := len(items) - 1
		edges = append(edges, [2]int{0, si})
		for p := 0; p < perStation; p++ {
			items = append(items, g.person(s*perStation + p))
			edges = append(edges, [2]int{si, len(items) - 1})
		}
	}

	return HierarchyFixture{
		Description: fmt.Sprintf("%d stations with %d persons each", stations, perStation),
		Items:       items,
		Edges:       edges,
		Properties: Properties{
			ExpectedDepth: 2,
			IsConnected:   true,
		},
	}
}

// Balanced creates a container tree of the given depth and branching
// factor under an evacuation root.
func (g *Generator) Balanced(depth, branch int) HierarchyFixture {
	if depth < 1 {
		depth = 1
	}
	if branch < 1 {
		branch = 1
	}

	items := []model.Item{g.item("evacuation", "Evacuation")}
	var edges [][2]int

	level := []int{0}
	for d := 1; d <= depth; d++ {
		var next []int
		for _, parent := range level {
			for b := 0; b < branch; b++ {
				items = append(items, g.item("container", fmt.Sprintf("C%d-%d", d, len(items))))
				idx := len(items) - 1
				edges = append(edges, [2]int{parent, idx})
				next = append(next, idx)
			}
		}
		level = next
	}

	return HierarchyFixture{
		Description: fmt.Sprintf("Balanced container tree, depth %d, branching %d", depth, branch),
		Items:       items,
		Edges:       edges,
		Properties: Properties{
			ExpectedDepth: depth,
			IsConnected:   true,
		},
	}
}

// Loose creates an evacuation root plus n supplies that are not filed
// into any container. These exercise the unrooted-item paths.
func (g *Generator) Loose(n int) HierarchyFixture {
	items := []model.Item{g.item("evacuation", "Evacuation")}
	for i := 0; i < n; i++ {
		it := g.item("supply", fmt.Sprintf("%s Supply %d", g.cfg.NamePrefix, i+1))
		it.SetField("quantity", fmt.Sprintf("%d", g.rng.Intn(100)+1))
		items = append(items, it)
	}

	return HierarchyFixture{
		Description: fmt.Sprintf("Root plus %d loose supplies", n),
		Items:       items,
		Properties: Properties{
			IsConnected: false,
			LooseItems:  n,
		},
	}
}

func (g *Generator) item(category, name string) model.Item {
	return model.Item{
		Category:    category,
		DisplayName: name,
		CreatedAt:   g.cfg.BaseTime,
	}
}

var givenNames = []string{"Ada", "Ben", "Cara", "Dev", "Elif", "Finn", "Gia", "Hugo"}
var familyNames = []string{"Quinn", "Silva", "Okafor", "Meyer", "Ito", "Novak"}

func (g *Generator) person(n int) model.Item {
	given := givenNames[n%len(givenNames)]
	family := familyNames[(n/len(givenNames))%len(familyNames)]
	it := g.item("person", fmt.Sprintf("%s %s", given, family))
	it.SetField("given_name", given)
	it.SetField("family_name", family)
	it.SetField("age", fmt.Sprintf("%d", g.rng.Intn(80)+5))
	if g.cfg.WithFlags && g.rng.Intn(4) == 0 {
		it.ToggleFlag("medical attention")
	}
	return it
}

// ItemStore is the slice of store behavior the loader needs; both
// store.Memory and store.SQLite satisfy it.
type ItemStore interface {
	CreateItem(ctx context.Context, it *model.Item) error
	AddContainerEdge(ctx context.Context, containerID, itemID string) error
}

// Load materializes a fixture into a store and returns the created ids
// in fixture order.
func Load(ctx context.Context, st ItemStore, f HierarchyFixture) ([]string, error) {
	ids := make([]string, len(f.Items))
	for i := range f.Items {
		it := f.Items[i].Clone()
		it.ID = ""
		if err := st.CreateItem(ctx, it); err != nil {
			return nil, fmt.Errorf("creating item %d: %w", i, err)
		}
		ids[i] = it.ID
	}
	for _, e := range f.Edges {
		if e[0] < 0 || e[0] >= len(ids) || e[1] < 0 || e[1] >= len(ids) {
			return nil, fmt.Errorf("edge %v out of range", e)
		}
		if err := st.AddContainerEdge(ctx, ids[e[0]], ids[e[1]]); err != nil {
			return nil, fmt.Errorf("attaching %d under %d: %w", e[1], e[0], err)
		}
	}
	return ids, nil
}

// MarshalFixture renders a fixture as indented JSON for testdata files.
func MarshalFixture(f HierarchyFixture) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// UnmarshalFixture parses a testdata fixture file.
func UnmarshalFixture(data []byte) (HierarchyFixture, error) {
	var f HierarchyFixture
	if err := json.Unmarshal(data, &f); err != nil {
		return HierarchyFixture{}, fmt.Errorf("parsing fixture: %w", err)
	}
	return f, nil
}
