package service

import (
	"time"

	"github.com/brewpos/api/internal/database"
	"github.com/brewpos/api/internal/enum"
	"github.com/brewpos/api/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionOf extracts the promotion configuration of a menu item.
func PromotionOf(item database.MenuItem) pricing.Promotion {
	return pricing.Promotion{
		HasPromo:  item.HasPromo,
		Active:    item.PromoActive,
		Type:      item.DiscountType.String,
		Value:     numericToDecimal(item.DiscountValue),
		StartDate: timestamptzPtr(item.PromoStartDate),
		EndDate:   timestamptzPtr(item.PromoEndDate),
	}
}

// MenuItemPrice returns the price a customer pays for one unit of item at
// now, and whether a promotion produced it.
func MenuItemPrice(item database.MenuItem, now time.Time) (decimal.Decimal, bool) {
	price, discount := pricing.ResolvePromotion(numericToDecimal(item.Cogm), PromotionOf(item), now)
	return price, discount != nil
}

func allowedModifiers(item database.MenuItem, modifierType string) []uuid.UUID {
	switch modifierType {
	case enum.ModifierTypeTemperature:
		return item.AllowedTemperatures
	case enum.ModifierTypeSweetness:
		return item.AllowedSweetness
	}
	return nil
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
