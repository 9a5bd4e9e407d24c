package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jake-the-creative/dehc-1/pkg/model"
)

// Memory is an in-memory Store with the same edge semantics as SQLite.
// It backs tests and anything that wants a register without a database
// file. Not safe for concurrent use; the event loop is single-threaded.
type Memory struct {
	categories []model.Category
	items      map[string]*model.Item
	parentOf   map[string]string // child id -> parent id
}

// NewMemory returns an empty in-memory store.
func NewMemory(categories []model.Category) *Memory {
	if len(categories) == 0 {
		categories = DefaultCategories()
	}
	return &Memory{
		categories: categories,
		items:      make(map[string]*model.Item),
		parentOf:   make(map[string]string),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Categories(ctx context.Context) ([]model.Category, error) {
	out := make([]model.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func (m *Memory) QueryItems(ctx context.Context, category string) ([]model.Summary, error) {
	var out []model.Summary
	for _, it := range m.items {
		if it.Category == category {
			out = append(out, model.Summary{ID: it.ID, Category: it.Category, DisplayName: it.DisplayName})
		}
	}
	sortSummaries(out)
	return out, nil
}

func (m *Memory) GetItem(ctx context.Context, id string) (*model.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return it.Clone(), nil
}

func (m *Memory) GetParent(ctx context.Context, id string) (string, error) {
	return m.parentOf[id], nil
}

func (m *Memory) Children(ctx context.Context, id string) ([]model.Summary, error) {
	var out []model.Summary
	for child, parent := range m.parentOf {
		if parent != id {
			continue
		}
		if it, ok := m.items[child]; ok {
			out = append(out, model.Summary{ID: it.ID, Category: it.Category, DisplayName: it.DisplayName})
		}
	}
	sortSummaries(out)
	return out, nil
}

func (m *Memory) AddContainerEdge(ctx context.Context, containerID, itemID string) error {
	if containerID == itemID {
		return &ConflictError{Op: "add edge", Reason: "item cannot contain itself"}
	}
	if _, ok := m.items[containerID]; !ok {
		return &NotFoundError{ID: containerID}
	}
	if _, ok := m.items[itemID]; !ok {
		return &NotFoundError{ID: itemID}
	}
	for cur := containerID; cur != ""; cur = m.parentOf[cur] {
		if m.parentOf[cur] == itemID {
			return &ConflictError{Op: "add edge", Reason: fmt.Sprintf("%s is an ancestor of %s", itemID, containerID)}
		}
	}
	m.parentOf[itemID] = containerID
	return nil
}

func (m *Memory) RemoveContainerEdge(ctx context.Context, containerID, itemID string) error {
	if m.parentOf[itemID] == containerID {
		delete(m.parentOf, itemID)
	}
	return nil
}

func (m *Memory) CreateItem(ctx context.Context, it *model.Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	for i := range m.categories {
		if m.categories[i].Name == it.Category && m.categories[i].Singleton {
			for _, existing := range m.items {
				if existing.Category == it.Category {
					return &ConflictError{Op: "create", Reason: fmt.Sprintf("category %q is a singleton", it.Category)}
				}
			}
		}
	}
	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now
	m.items[it.ID] = it.Clone()
	return nil
}

func (m *Memory) UpdateItem(ctx context.Context, it *model.Item) error {
	if _, ok := m.items[it.ID]; !ok {
		return &NotFoundError{ID: it.ID}
	}
	it.UpdatedAt = time.Now().UTC()
	m.items[it.ID] = it.Clone()
	return nil
}

func (m *Memory) DeleteItem(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return &NotFoundError{ID: id}
	}
	parent := m.parentOf[id]
	for child, p := range m.parentOf {
		if p != id {
			continue
		}
		if parent != "" {
			m.parentOf[child] = parent
		} else {
			delete(m.parentOf, child)
		}
	}
	delete(m.parentOf, id)
	delete(m.items, id)
	return nil
}

func (m *Memory) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, it := range m.items {
		counts[it.Category]++
	}
	return counts, nil
}

func sortSummaries(s []model.Summary) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].DisplayName != s[j].DisplayName {
			return s[i].DisplayName < s[j].DisplayName
		}
		return s[i].ID < s[j].ID
	})
}

var _ Store = (*Memory)(nil)
