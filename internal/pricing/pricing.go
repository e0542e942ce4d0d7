// Package pricing computes cart line prices, promotions and transaction
// totals. It performs no I/O; callers load menu data and persist results.
package pricing

import (
	"errors"
	"time"

	"github.com/brewpos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidDiscount is returned for an unknown discount type, a
// non-positive value, or a percentage above 100.
var ErrInvalidDiscount = errors.New("invalid discount")

var hundred = decimal.NewFromInt(100)

// Discount is an applied discount snapshot. Amount is the money taken off
// one unit (item discounts) or off the whole transaction.
type Discount struct {
	Type   string          `json:"type"`
	Value  decimal.Decimal `json:"value"`
	Amount decimal.Decimal `json:"amount"`
}

// Promotion is the promo configuration carried by a menu item.
type Promotion struct {
	HasPromo  bool
	Active    bool
	Type      string
	Value     decimal.Decimal
	StartDate *time.Time
	EndDate   *time.Time
}

// IsActiveAt reports whether the promotion applies at now. Both window
// bounds are inclusive and must be set.
func (p Promotion) IsActiveAt(now time.Time) bool {
	if !p.HasPromo || !p.Active || p.StartDate == nil || p.EndDate == nil {
		return false
	}
	return !now.Before(*p.StartDate) && !now.After(*p.EndDate)
}

// DiscountAmount returns how much a discount of the given type and value
// takes off base. Percentages round to cents; the result is clamped to
// [0, base].
func DiscountAmount(discountType string, value, base decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch discountType {
	case enum.DiscountTypePercentage:
		amount = base.Mul(value).Div(hundred).Round(2)
	case enum.DiscountTypeFixed:
		amount = value
	default:
		return decimal.Zero
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(amount, base)
}

// ResolvePromotion returns the effective unit price of an item priced at
// base, and the discount snapshot when the promotion is active at now.
func ResolvePromotion(base decimal.Decimal, promo Promotion, now time.Time) (decimal.Decimal, *Discount) {
	if !promo.IsActiveAt(now) || !enum.IsValidDiscountType(promo.Type) {
		return base, nil
	}
	amount := DiscountAmount(promo.Type, promo.Value, base)
	effective := base.Sub(amount)
	if effective.IsNegative() {
		effective = decimal.Zero
	}
	return effective, &Discount{
		Type:   promo.Type,
		Value:  promo.Value,
		Amount: amount,
	}
}

// ValidateDiscount checks a manually entered discount.
func ValidateDiscount(discountType string, value decimal.Decimal) error {
	if !enum.IsValidDiscountType(discountType) {
		return ErrInvalidDiscount
	}
	if !value.IsPositive() {
		return ErrInvalidDiscount
	}
	if discountType == enum.DiscountTypePercentage && value.GreaterThan(hundred) {
		return ErrInvalidDiscount
	}
	return nil
}

// TransactionDiscount validates and computes a transaction-level discount
// against subtotal.
func TransactionDiscount(discountType string, value, subtotal decimal.Decimal) (*Discount, error) {
	if err := ValidateDiscount(discountType, value); err != nil {
		return nil, err
	}
	return &Discount{
		Type:   discountType,
		Value:  value,
		Amount: DiscountAmount(discountType, value, subtotal),
	}, nil
}

// AddOnLine is an add-on attached to a line, with its price at add time.
type AddOnLine struct {
	AddOnID uuid.UUID       `json:"add_on_id"`
	Price   decimal.Decimal `json:"price"`
}

// ModifierSelection holds at most one modifier per axis.
type ModifierSelection struct {
	Temperature *uuid.UUID `json:"temperature,omitempty"`
	Sweetness   *uuid.UUID `json:"sweetness,omitempty"`
}

// IsEmpty reports whether no axis has a selection.
func (m *ModifierSelection) IsEmpty() bool {
	return m == nil || (m.Temperature == nil && m.Sweetness == nil)
}

// LineItem is one cart line. BasePrice and AppliedDiscount are snapshots
// taken when the line was added and never re-derived from the menu.
type LineItem struct {
	ID              uuid.UUID          `json:"id"`
	MenuItemID      uuid.UUID          `json:"menu_item_id"`
	Quantity        int32              `json:"quantity"`
	BasePrice       decimal.Decimal    `json:"base_price"`
	AddOns          []AddOnLine        `json:"add_ons"`
	Modifiers       *ModifierSelection `json:"modifiers,omitempty"`
	AppliedDiscount *Discount          `json:"applied_discount,omitempty"`
	ItemTotal       decimal.Decimal    `json:"item_total"`
}

// NewLineItem builds a line for quantity units of an item priced at base,
// resolving its promotion at now.
func NewLineItem(menuItemID uuid.UUID, quantity int32, base decimal.Decimal, promo Promotion, addOns []AddOnLine, modifiers *ModifierSelection, now time.Time) LineItem {
	_, discount := ResolvePromotion(base, promo, now)
	if modifiers.IsEmpty() {
		modifiers = nil
	}
	if addOns == nil {
		addOns = []AddOnLine{}
	}
	line := LineItem{
		ID:              uuid.New(),
		MenuItemID:      menuItemID,
		BasePrice:       base,
		AddOns:          addOns,
		Modifiers:       modifiers,
		AppliedDiscount: discount,
	}
	line.SetQuantity(quantity)
	return line
}

// AddOnTotal is the sum of add-on prices for one unit.
func (l LineItem) AddOnTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range l.AddOns {
		total = total.Add(a.Price)
	}
	return total
}

// UnitPrice is the undiscounted price of one unit: base plus add-ons.
func (l LineItem) UnitPrice() decimal.Decimal {
	return l.BasePrice.Add(l.AddOnTotal())
}

// UnitDiscount is the per-unit amount of the applied discount snapshot.
func (l LineItem) UnitDiscount() decimal.Decimal {
	if l.AppliedDiscount == nil {
		return decimal.Zero
	}
	return l.AppliedDiscount.Amount
}

// DiscountedUnitPrice is UnitPrice less the discount snapshot, floored at 0.
func (l LineItem) DiscountedUnitPrice() decimal.Decimal {
	p := l.UnitPrice().Sub(l.UnitDiscount())
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// SetQuantity updates the quantity and the line total.
func (l *LineItem) SetQuantity(quantity int32) {
	l.Quantity = quantity
	l.ItemTotal = l.DiscountedUnitPrice().Mul(decimal.NewFromInt32(quantity))
}

// Totals are the derived money fields of a transaction.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Total         decimal.Decimal `json:"total"`
	Cogs          decimal.Decimal `json:"cogs"`
}

// ItemDiscountTotal sums the item discount snapshots across all lines.
func ItemDiscountTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitDiscount().Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return total
}

// Recalculate derives subtotal, total discount, total and cogs from the
// lines and the optional transaction discount. The transaction discount
// amount is taken as stored.
func Recalculate(items []LineItem, txDiscount *Discount) Totals {
	subtotal := decimal.Zero
	cogs := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt32(item.Quantity)
		subtotal = subtotal.Add(item.UnitPrice().Mul(qty))
		cogs = cogs.Add(item.BasePrice.Mul(qty))
	}

	totalDiscount := ItemDiscountTotal(items)
	if txDiscount != nil {
		totalDiscount = totalDiscount.Add(txDiscount.Amount)
	}

	total := subtotal.Sub(totalDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:      subtotal,
		TotalDiscount: totalDiscount,
		Total:         total,
		Cogs:          cogs,
	}
}
