package store

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jake-the-creative/dehc-1/pkg/model"
)

// BaseCategory is the distinguished singleton category whose one record
// anchors both tree views at startup.
const BaseCategory = "evacuation"

// schemaFile is the shape of a YAML schema override.
type schemaFile struct {
	Categories []model.Category `yaml:"categories" validate:"required,min=1,dive"`
}

// DefaultCategories returns the built-in category schema. Order matters:
// it is the order categories appear in search dropdowns and the status bar.
func DefaultCategories() []model.Category {
	return []model.Category{
		{
			Name:      "evacuation",
			Label:     "Evacuation",
			Singleton: true,
			Container: true,
			Fields: []model.FieldDef{
				{Key: "location", Label: "Location", Kind: model.FieldText},
				{Key: "commander", Label: "Commander", Kind: model.FieldText},
			},
		},
		{
			Name:      "station",
			Label:     "Station",
			Container: true,
			Fields: []model.FieldDef{
				{Key: "purpose", Label: "Purpose", Kind: model.FieldText},
				{Key: "capacity", Label: "Capacity", Kind: model.FieldNumber},
			},
		},
		{
			Name:      "container",
			Label:     "Container",
			Container: true,
			Fields: []model.FieldDef{
				{Key: "kind", Label: "Kind", Kind: model.FieldSelect, Options: []string{"tent", "vehicle bay", "shelf", "pallet"}},
			},
		},
		{
			Name:  "person",
			Label: "Person",
			Flags: []string{"medical attention", "missing", "priority", "cleared"},
			Fields: []model.FieldDef{
				{Key: "given_name", Label: "Given name", Kind: model.FieldText},
				{Key: "family_name", Label: "Family name", Kind: model.FieldText},
				{Key: "age", Label: "Age", Kind: model.FieldNumber},
				{Key: "sex", Label: "Sex", Kind: model.FieldSelect, Options: []string{"female", "male", "other", "unknown"}},
				{Key: "wristband", Label: "Wristband", Kind: model.FieldText},
			},
		},
		{
			Name:      "vehicle",
			Label:     "Vehicle",
			Container: true,
			Flags:     []string{"fueled", "out of service"},
			Fields: []model.FieldDef{
				{Key: "registration", Label: "Registration", Kind: model.FieldText},
				{Key: "seats", Label: "Seats", Kind: model.FieldNumber},
			},
		},
		{
			Name:  "supply",
			Label: "Supply",
			Flags: []string{"perishable", "depleted"},
			Fields: []model.FieldDef{
				{Key: "quantity", Label: "Quantity", Kind: model.FieldNumber},
				{Key: "unit", Label: "Unit", Kind: model.FieldText},
			},
		},
	}
}

// LoadSchema reads a YAML schema override from path and validates it.
// An empty path returns the default schema.
func LoadSchema(path string) ([]model.Category, error) {
	if path == "" {
		return DefaultCategories(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCategories(), nil
		}
		return nil, fmt.Errorf("reading schema: %w", err)
	}

	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	if err := validator.New().Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}

	// The base category must exist and stay a singleton container, or the
	// app has no root to display.
	base := false
	for i := range f.Categories {
		if f.Categories[i].Name == BaseCategory {
			base = true
			if !f.Categories[i].Singleton || !f.Categories[i].Container {
				return nil, fmt.Errorf("invalid schema %s: category %q must be a singleton container", path, BaseCategory)
			}
		}
	}
	if !base {
		return nil, fmt.Errorf("invalid schema %s: missing base category %q", path, BaseCategory)
	}

	return f.Categories, nil
}
