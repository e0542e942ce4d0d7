package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	TransactionStatusDraft     = "draft"
	TransactionStatusCompleted = "completed"
)

const (
	MenuItemStatusActive   = "active"
	MenuItemStatusInactive = "inactive"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleAdmin    = "admin"
	UserRoleStaff    = "staff"
	UserRoleCustomer = "customer"
)

const (
	ModifierTypeTemperature = "temperature"
	ModifierTypeSweetness   = "sweetness"
)

const (
	AddOnTypeExtraShot = "extra-shot"
	AddOnTypeOatMilk   = "oat-milk"
)

const (
	AddOnEligibilityCoffeeOnly  = "coffee-only"
	AddOnEligibilityCoffeeBased = "coffee-based"
	AddOnEligibilityNonCoffee   = "non-coffee"
	AddOnEligibilityNone        = "none"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	CategoryCoffee      = "Coffee"
	CategoryNonCoffee   = "Non-Coffee"
	CategoryMerch       = "Merch"
	CategoryPromo       = "Promo"
	CategoryAddOn       = "Add-on"
	CategoryConsignment = "Consignment"
	CategoryBundle      = "Bundle"
)

// ── WebSocket event types ──

const (
	EventCartUpdated    = "cart.updated"
	EventCartCleared    = "cart.cleared"
	EventCartCheckedOut = "cart.checked_out"
	EventMenuUpdated    = "menu.updated"
)

// IsValidCategory reports whether s is a known menu category.
func IsValidCategory(s string) bool {
	switch s {
	case CategoryCoffee, CategoryNonCoffee, CategoryMerch, CategoryPromo,
		CategoryAddOn, CategoryConsignment, CategoryBundle:
		return true
	}
	return false
}

// IsValidAddOnEligibility reports whether s is a known add-on eligibility class.
func IsValidAddOnEligibility(s string) bool {
	switch s {
	case AddOnEligibilityCoffeeOnly, AddOnEligibilityCoffeeBased,
		AddOnEligibilityNonCoffee, AddOnEligibilityNone:
		return true
	}
	return false
}

func IsValidAddOnType(s string) bool {
	return s == AddOnTypeExtraShot || s == AddOnTypeOatMilk
}

func IsValidModifierType(s string) bool {
	return s == ModifierTypeTemperature || s == ModifierTypeSweetness
}

func IsValidDiscountType(s string) bool {
	return s == DiscountTypePercentage || s == DiscountTypeFixed
}

func IsValidMenuItemStatus(s string) bool {
	return s == MenuItemStatusActive || s == MenuItemStatusInactive
}

// AddOnAllowed reports whether an add-on of addOnType may be attached to a
// menu item of the given eligibility class.
func AddOnAllowed(eligibility, addOnType string) bool {
	switch eligibility {
	case AddOnEligibilityCoffeeBased:
		return true
	case AddOnEligibilityNonCoffee:
		return addOnType == AddOnTypeOatMilk
	case AddOnEligibilityCoffeeOnly:
		return addOnType == AddOnTypeExtraShot
	}
	return false
}

func IsValidUserRole(s string) bool {
	return s == UserRoleAdmin || s == UserRoleStaff || s == UserRoleCustomer
}
