package service

import (
	"context"
	"fmt"

	"github.com/brewpos/api/internal/database"
	"github.com/brewpos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// CatalogStore defines the DB methods needed to seed catalog defaults.
// Satisfied by *database.Queries.
type CatalogStore interface {
	CountAddOns(ctx context.Context) (int64, error)
	CreateAddOn(ctx context.Context, arg database.CreateAddOnParams) (database.AddOn, error)
	ListItemModifiersByType(ctx context.Context, modifierType string) ([]database.ItemModifier, error)
	CreateItemModifier(ctx context.Context, arg database.CreateItemModifierParams) (database.ItemModifier, error)
}

type defaultAddOn struct {
	name      string
	price     int64
	addOnType string
}

var defaultAddOns = []defaultAddOn{
	{"Extra Shot", 6000, enum.AddOnTypeExtraShot},
	{"Oat Milk", 3000, enum.AddOnTypeOatMilk},
}

type defaultModifier struct {
	name      string
	sortOrder int32
}

var defaultModifiers = []struct {
	modifierType string
	options      []defaultModifier
}{
	{enum.ModifierTypeTemperature, []defaultModifier{
		{"Hot", 1},
		{"Warm", 2},
		{"Less Ice", 3},
		{"Cold", 4},
	}},
	{enum.ModifierTypeSweetness, []defaultModifier{
		{"Not Sweet", 1},
		{"Less Sugar", 2},
		{"Normal", 3},
	}},
}

// SeedDefaultAddOns inserts the default add-ons when the catalog has none.
// It returns the add-ons it created.
func SeedDefaultAddOns(ctx context.Context, store CatalogStore) ([]database.AddOn, error) {
	count, err := store.CountAddOns(ctx)
	if err != nil {
		return nil, fmt.Errorf("count add-ons: %w", err)
	}
	if count > 0 {
		return nil, nil
	}

	created := make([]database.AddOn, 0, len(defaultAddOns))
	for _, d := range defaultAddOns {
		a, err := store.CreateAddOn(ctx, database.CreateAddOnParams{
			Name:  d.name,
			Price: decimalToNumeric(decimal.NewFromInt(d.price)),
			Type:  d.addOnType,
		})
		if err != nil {
			return nil, fmt.Errorf("create add-on %q: %w", d.name, err)
		}
		created = append(created, a)
	}
	return created, nil
}

// SeedDefaultModifiers inserts each default modifier whose name is not yet
// present for its type. It returns the modifiers it created.
func SeedDefaultModifiers(ctx context.Context, store CatalogStore) ([]database.ItemModifier, error) {
	var created []database.ItemModifier
	for _, group := range defaultModifiers {
		existing, err := store.ListItemModifiersByType(ctx, group.modifierType)
		if err != nil {
			return nil, fmt.Errorf("list %s modifiers: %w", group.modifierType, err)
		}
		names := make(map[string]bool, len(existing))
		for _, m := range existing {
			names[m.Name] = true
		}

		for _, opt := range group.options {
			if names[opt.name] {
				continue
			}
			m, err := store.CreateItemModifier(ctx, database.CreateItemModifierParams{
				Name:      opt.name,
				Type:      group.modifierType,
				SortOrder: opt.sortOrder,
			})
			if err != nil {
				return nil, fmt.Errorf("create modifier %q: %w", opt.name, err)
			}
			created = append(created, m)
		}
	}
	return created, nil
}
