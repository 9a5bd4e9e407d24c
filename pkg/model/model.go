// Package model defines the domain types shared by the store, the
// navigation engine, and the UI: register items, the category schema
// that drives the edit pane, and the lightweight summaries the tree
// views are built from.
package model

import (
	"sort"
	"time"
)

// Item is a persisted register entry: an evacuee, a container, a
// station, a vehicle, a supply crate, or the evacuation root itself.
// Identity is ID; every other attribute is mutable through the store.
type Item struct {
	ID          string            `json:"id"`
	Category    string            `json:"category"`
	DisplayName string            `json:"display_name"`
	Flags       []string          `json:"flags,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Field returns the value of a named field, or "" when unset.
func (it *Item) Field(key string) string {
	if it.Fields == nil {
		return ""
	}
	return it.Fields[key]
}

// SetField sets a named field, allocating the map on first use.
func (it *Item) SetField(key, value string) {
	if it.Fields == nil {
		it.Fields = make(map[string]string)
	}
	it.Fields[key] = value
}

// HasFlag reports whether the item carries the given flag.
func (it *Item) HasFlag(flag string) bool {
	for _, f := range it.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// ToggleFlag adds the flag when absent and removes it when present,
// keeping the flag list sorted so stored JSON stays stable.
func (it *Item) ToggleFlag(flag string) {
	for i, f := range it.Flags {
		if f == flag {
			it.Flags = append(it.Flags[:i], it.Flags[i+1:]...)
			return
		}
	}
	it.Flags = append(it.Flags, flag)
	sort.Strings(it.Flags)
}

// Clone returns a deep copy, so the edit pane can stage changes
// without touching the record the controller handed it.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	cp := *it
	if it.Flags != nil {
		cp.Flags = append([]string(nil), it.Flags...)
	}
	if it.Fields != nil {
		cp.Fields = make(map[string]string, len(it.Fields))
		for k, v := range it.Fields {
			cp.Fields[k] = v
		}
	}
	return &cp
}

// Summary is the id/label projection used for tree building and
// category queries; the full record is fetched only when an item is
// opened in the edit pane.
type Summary struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	DisplayName string `json:"display_name"`
}

// FieldKind selects the edit-pane widget used for a field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldNumber   FieldKind = "number"
	FieldSelect   FieldKind = "select"
	FieldTextarea FieldKind = "textarea"
)

// FieldDef describes one editable field of a category.
type FieldDef struct {
	Key     string    `yaml:"key" validate:"required"`
	Label   string    `yaml:"label" validate:"required"`
	Kind    FieldKind `yaml:"kind" validate:"required,oneof=text number select textarea"`
	Options []string  `yaml:"options,omitempty" validate:"required_if=Kind select"`
}

// Category describes one class of register item: its editable fields,
// the flags that may be assigned to it, and its structural role.
// Singleton categories hold exactly one item (the evacuation root);
// Container categories may contain other items.
type Category struct {
	Name      string     `yaml:"name" validate:"required"`
	Label     string     `yaml:"label" validate:"required"`
	Fields    []FieldDef `yaml:"fields" validate:"dive"`
	Flags     []string   `yaml:"flags,omitempty"`
	Singleton bool       `yaml:"singleton,omitempty"`
	Container bool       `yaml:"container,omitempty"`
}

// FieldByKey returns the definition for key, or nil when the category
// does not define it.
func (c *Category) FieldByKey(key string) *FieldDef {
	for i := range c.Fields {
		if c.Fields[i].Key == key {
			return &c.Fields[i]
		}
	}
	return nil
}
