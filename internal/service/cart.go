package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brewpos/api/internal/database"
	"github.com/brewpos/api/internal/enum"
	"github.com/brewpos/api/internal/pricing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxCartRetries = 3

	defaultHistoryLimit = 10
	maxHistoryLimit     = 100

	draftConstraint = "transactions_one_draft_per_user"
)

// Errors returned by the cart service.
var (
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemInactive    = errors.New("menu item is inactive")
	ErrModifierNotFound    = errors.New("modifier not found")
	ErrInvalidModifier     = errors.New("modifier not allowed for menu item")
	ErrAddOnNotEligible    = errors.New("add-on not eligible for menu item")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrCartNotFound        = errors.New("cart not found")
	ErrLineItemNotFound    = errors.New("line item not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCartConflict        = errors.New("cart was modified concurrently")
	ErrInvalidDiscount     = pricing.ErrInvalidDiscount
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB is a pool that runs queries directly and starts transactions.
// Satisfied by *pgxpool.Pool.
type DB interface {
	database.DBTX
	TxBeginner
}

// CartStore defines the DB methods needed by the cart service.
// Satisfied by *database.Queries (and its WithTx variant).
type CartStore interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error)
	ListAddOnsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.AddOn, error)
	ListItemModifiersByIDs(ctx context.Context, ids []uuid.UUID) ([]database.ItemModifier, error)
	GetDraftTransactionByUser(ctx context.Context, userID uuid.UUID) (database.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (database.Transaction, error)
	CreateDraftTransaction(ctx context.Context, arg database.CreateDraftTransactionParams) (database.Transaction, error)
	UpdateDraftTransaction(ctx context.Context, arg database.UpdateDraftTransactionParams) (database.Transaction, error)
	DeleteDraftTransaction(ctx context.Context, arg database.DeleteDraftTransactionParams) (int64, error)
	CompleteTransaction(ctx context.Context, arg database.CompleteTransactionParams) (database.Transaction, error)
	ListCompletedTransactions(ctx context.Context, arg database.ListCompletedTransactionsParams) ([]database.Transaction, error)
}

// NewCartStore creates a CartStore from a DBTX (pool or tx).
type NewCartStore func(db database.DBTX) CartStore

// Notifier delivers change events to a user's connected devices.
type Notifier interface {
	NotifyUser(userID uuid.UUID, eventType string, payload interface{})
}

// CartEvent is the payload pushed after a cart changes.
type CartEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	ItemCount     int       `json:"item_count"`
	Total         string    `json:"total"`
}

// AddToCartRequest is the validated input for adding a line to the cart.
type AddToCartRequest struct {
	UserID     uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	AddOnIDs   []uuid.UUID
	Modifiers  pricing.ModifierSelection
}

// ListTransactionsRequest filters completed transaction history.
type ListTransactionsRequest struct {
	StartAt *time.Time
	EndAt   *time.Time
	Limit   int32
}

// Cart is a transaction with its decoded line items and discount.
type Cart struct {
	Transaction database.Transaction
	Items       []pricing.LineItem
	Discount    *pricing.Discount
	Totals      pricing.Totals
}

// CartDetail is a cart with the menu items, add-ons and modifiers its
// lines reference.
type CartDetail struct {
	Cart
	MenuItems map[uuid.UUID]database.MenuItem
	AddOns    map[uuid.UUID]database.AddOn
	Modifiers map[uuid.UUID]database.ItemModifier
}

// CartService handles cart and checkout business logic.
type CartService struct {
	pool     DB
	newStore NewCartStore
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewCartService creates a new CartService. notifier may be nil.
func NewCartService(pool DB, newStore NewCartStore, notifier Notifier, logger *zap.Logger) *CartService {
	return &CartService{
		pool:     pool,
		newStore: newStore,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// AddToCart prices a new line and appends it to the caller's draft,
// creating the draft when none exists.
func (s *CartService) AddToCart(ctx context.Context, req AddToCartRequest) (*Cart, error) {
	if req.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.retry(ctx, "add to cart", func() (*Cart, error) {
		return s.addToCartTx(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	s.notify(req.UserID, enum.EventCartUpdated, cart)
	return cart, nil
}

func (s *CartService) addToCartTx(ctx context.Context, req AddToCartRequest) (*Cart, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	line, err := s.buildLine(ctx, store, req)
	if err != nil {
		return nil, err
	}

	draft, err := store.GetDraftTransactionByUser(ctx, req.UserID)
	var cart *Cart
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		cart, err = s.createDraft(ctx, store, req.UserID, []pricing.LineItem{line})
	case err != nil:
		return nil, fmt.Errorf("get draft: %w", err)
	default:
		cart, err = decodeCart(draft)
		if err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, line)
		cart, err = s.saveDraft(ctx, store, cart)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return cart, nil
}

// buildLine validates the menu item, modifiers and add-ons of req and
// prices the resulting line.
func (s *CartService) buildLine(ctx context.Context, store CartStore, req AddToCartRequest) (pricing.LineItem, error) {
	item, err := store.GetMenuItem(ctx, req.MenuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.LineItem{}, ErrMenuItemNotFound
		}
		return pricing.LineItem{}, fmt.Errorf("get menu item: %w", err)
	}
	if item.Status != enum.MenuItemStatusActive {
		return pricing.LineItem{}, ErrMenuItemInactive
	}

	if err := s.validateModifiers(ctx, store, item, req.Modifiers); err != nil {
		return pricing.LineItem{}, err
	}

	addOns, err := s.resolveAddOns(ctx, store, item, req.AddOnIDs)
	if err != nil {
		return pricing.LineItem{}, err
	}

	modifiers := req.Modifiers
	return pricing.NewLineItem(item.ID, req.Quantity, numericToDecimal(item.Cogm), PromotionOf(item), addOns, &modifiers, s.now()), nil
}

func (s *CartService) validateModifiers(ctx context.Context, store CartStore, item database.MenuItem, sel pricing.ModifierSelection) error {
	selected := []struct {
		modifierType string
		id           *uuid.UUID
	}{
		{enum.ModifierTypeTemperature, sel.Temperature},
		{enum.ModifierTypeSweetness, sel.Sweetness},
	}

	var ids []uuid.UUID
	for _, m := range selected {
		if m.id == nil {
			continue
		}
		if !containsUUID(allowedModifiers(item, m.modifierType), *m.id) {
			return fmt.Errorf("%s: %w", m.modifierType, ErrInvalidModifier)
		}
		ids = append(ids, *m.id)
	}
	if len(ids) == 0 {
		return nil
	}

	modifiers, err := store.ListItemModifiersByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("list modifiers: %w", err)
	}
	found := make(map[uuid.UUID]database.ItemModifier, len(modifiers))
	for _, m := range modifiers {
		found[m.ID] = m
	}
	for _, m := range selected {
		if m.id == nil {
			continue
		}
		modifier, ok := found[*m.id]
		if !ok {
			return fmt.Errorf("%s: %w", m.modifierType, ErrModifierNotFound)
		}
		if modifier.Type != m.modifierType {
			return fmt.Errorf("%s: %w", m.modifierType, ErrInvalidModifier)
		}
	}
	return nil
}

// resolveAddOns looks up add-on prices. Ids that do not resolve are
// skipped.
func (s *CartService) resolveAddOns(ctx context.Context, store CartStore, item database.MenuItem, ids []uuid.UUID) ([]pricing.AddOnLine, error) {
	lines := []pricing.AddOnLine{}
	if len(ids) == 0 {
		return lines, nil
	}

	addOns, err := store.ListAddOnsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list add-ons: %w", err)
	}
	found := make(map[uuid.UUID]database.AddOn, len(addOns))
	for _, a := range addOns {
		found[a.ID] = a
	}

	for _, id := range ids {
		addOn, ok := found[id]
		if !ok {
			s.logger.Warn("skipping unknown add-on", zap.Stringer("add_on_id", id), zap.Stringer("menu_item_id", item.ID))
			continue
		}
		if !enum.AddOnAllowed(item.AddOnEligibility, addOn.Type) {
			return nil, fmt.Errorf("%s: %w", addOn.Name, ErrAddOnNotEligible)
		}
		lines = append(lines, pricing.AddOnLine{AddOnID: addOn.ID, Price: numericToDecimal(addOn.Price)})
	}
	return lines, nil
}

// UpdateItemQuantity sets the quantity of one line. A quantity of zero or
// less removes the line; removing the last line deletes the draft, in
// which case the returned cart is nil.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int32) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	cart, err := s.retry(ctx, "update quantity", func() (*Cart, error) {
		return s.mutateDraft(ctx, userID, func(cart *Cart) error {
			idx := -1
			for i, item := range cart.Items {
				if item.ID == lineID {
					idx = i
					break
				}
			}
			if idx < 0 {
				return ErrLineItemNotFound
			}
			if quantity <= 0 {
				cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
				return nil
			}
			cart.Items[idx].SetQuantity(quantity)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if cart == nil {
		s.notify(userID, enum.EventCartCleared, nil)
		return nil, nil
	}
	s.notify(userID, enum.EventCartUpdated, cart)
	return cart, nil
}

// ApplyTransactionDiscount replaces the draft's transaction discount with
// one computed against the current subtotal.
func (s *CartService) ApplyTransactionDiscount(ctx context.Context, userID uuid.UUID, discountType string, value decimal.Decimal) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if err := pricing.ValidateDiscount(discountType, value); err != nil {
		return nil, err
	}

	cart, err := s.retry(ctx, "apply discount", func() (*Cart, error) {
		return s.mutateDraft(ctx, userID, func(cart *Cart) error {
			subtotal := pricing.Recalculate(cart.Items, nil).Subtotal
			d, err := pricing.TransactionDiscount(discountType, value, subtotal)
			if err != nil {
				return err
			}
			cart.Discount = d
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(userID, enum.EventCartUpdated, cart)
	return cart, nil
}

// RemoveTransactionDiscount clears the draft's transaction discount.
func (s *CartService) RemoveTransactionDiscount(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	cart, err := s.retry(ctx, "remove discount", func() (*Cart, error) {
		return s.mutateDraft(ctx, userID, func(cart *Cart) error {
			cart.Discount = nil
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(userID, enum.EventCartUpdated, cart)
	return cart, nil
}

// mutateDraft loads the caller's draft in a transaction, applies fn and
// writes the result back with a version check.
func (s *CartService) mutateDraft(ctx context.Context, userID uuid.UUID, fn func(cart *Cart) error) (*Cart, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	draft, err := store.GetDraftTransactionByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}

	cart, err := decodeCart(draft)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}

	cart, err = s.saveDraft(ctx, store, cart)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return cart, nil
}

// ClearCart deletes the caller's draft. It is a no-op when none exists.
func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrUnauthenticated
	}

	var cleared bool
	_, err := s.retry(ctx, "clear cart", func() (*Cart, error) {
		store := s.newStore(s.pool)
		draft, err := store.GetDraftTransactionByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("get draft: %w", err)
		}
		rows, err := store.DeleteDraftTransaction(ctx, database.DeleteDraftTransactionParams{
			ID:      draft.ID,
			Version: draft.Version,
		})
		if err != nil {
			return nil, fmt.Errorf("delete draft: %w", err)
		}
		if rows == 0 {
			return nil, ErrCartConflict
		}
		cleared = true
		return nil, nil
	})
	if err != nil {
		return err
	}
	if cleared {
		s.notify(userID, enum.EventCartCleared, nil)
	}
	return nil
}

// Checkout completes the caller's draft and returns it.
func (s *CartService) Checkout(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	cart, err := s.retry(ctx, "checkout", func() (*Cart, error) {
		store := s.newStore(s.pool)
		draft, err := store.GetDraftTransactionByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrCartNotFound
			}
			return nil, fmt.Errorf("get draft: %w", err)
		}

		completed, err := store.CompleteTransaction(ctx, database.CompleteTransactionParams{
			ID:          draft.ID,
			Version:     draft.Version,
			CompletedAt: pgtype.Timestamptz{Time: s.now(), Valid: true},
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrCartConflict
			}
			return nil, fmt.Errorf("complete transaction: %w", err)
		}
		return decodeCart(completed)
	})
	if err != nil {
		return nil, err
	}
	s.notify(userID, enum.EventCartCheckedOut, cart)
	return cart, nil
}

// GetCurrentCart returns the caller's draft with details, or nil when the
// caller has no draft.
func (s *CartService) GetCurrentCart(ctx context.Context, userID uuid.UUID) (*CartDetail, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	store := s.newStore(s.pool)
	draft, err := store.GetDraftTransactionByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}

	details, err := s.populate(ctx, store, []database.Transaction{draft})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// GetTransaction returns any transaction with details.
func (s *CartService) GetTransaction(ctx context.Context, id uuid.UUID) (*CartDetail, error) {
	store := s.newStore(s.pool)
	txn, err := store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	details, err := s.populate(ctx, store, []database.Transaction{txn})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// ListCompletedTransactions returns completed transactions, newest first.
func (s *CartService) ListCompletedTransactions(ctx context.Context, req ListTransactionsRequest) ([]CartDetail, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	store := s.newStore(s.pool)
	txns, err := store.ListCompletedTransactions(ctx, database.ListCompletedTransactionsParams{
		StartAt: toTimestamptz(req.StartAt),
		EndAt:   toTimestamptz(req.EndAt),
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return s.populate(ctx, store, txns)
}

// populate decodes txns and loads every menu item, add-on and modifier
// they reference.
func (s *CartService) populate(ctx context.Context, store CartStore, txns []database.Transaction) ([]CartDetail, error) {
	details := make([]CartDetail, 0, len(txns))
	var menuIDs, addOnIDs, modifierIDs []uuid.UUID
	for _, txn := range txns {
		cart, err := decodeCart(txn)
		if err != nil {
			return nil, err
		}
		for _, item := range cart.Items {
			menuIDs = append(menuIDs, item.MenuItemID)
			for _, a := range item.AddOns {
				addOnIDs = append(addOnIDs, a.AddOnID)
			}
			if item.Modifiers != nil {
				if item.Modifiers.Temperature != nil {
					modifierIDs = append(modifierIDs, *item.Modifiers.Temperature)
				}
				if item.Modifiers.Sweetness != nil {
					modifierIDs = append(modifierIDs, *item.Modifiers.Sweetness)
				}
			}
		}
		details = append(details, CartDetail{Cart: *cart})
	}

	menuItems := map[uuid.UUID]database.MenuItem{}
	if len(menuIDs) > 0 {
		rows, err := store.ListMenuItemsByIDs(ctx, menuIDs)
		if err != nil {
			return nil, fmt.Errorf("list menu items: %w", err)
		}
		for _, r := range rows {
			menuItems[r.ID] = r
		}
	}

	addOns := map[uuid.UUID]database.AddOn{}
	if len(addOnIDs) > 0 {
		rows, err := store.ListAddOnsByIDs(ctx, addOnIDs)
		if err != nil {
			return nil, fmt.Errorf("list add-ons: %w", err)
		}
		for _, r := range rows {
			addOns[r.ID] = r
		}
	}

	modifiers := map[uuid.UUID]database.ItemModifier{}
	if len(modifierIDs) > 0 {
		rows, err := store.ListItemModifiersByIDs(ctx, modifierIDs)
		if err != nil {
			return nil, fmt.Errorf("list modifiers: %w", err)
		}
		for _, r := range rows {
			modifiers[r.ID] = r
		}
	}

	for i := range details {
		details[i].MenuItems = menuItems
		details[i].AddOns = addOns
		details[i].Modifiers = modifiers
	}
	return details, nil
}

// retry runs attempt until it succeeds, fails with something other than
// ErrCartConflict, or maxCartRetries is reached.
func (s *CartService) retry(ctx context.Context, op string, attempt func() (*Cart, error)) (*Cart, error) {
	var lastErr error
	for i := 0; i < maxCartRetries; i++ {
		cart, err := attempt()
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ErrCartConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("cart conflict, retrying", zap.String("op", op), zap.Int("attempt", i+1))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// createDraft inserts a new draft holding items. A concurrent insert for
// the same user surfaces as ErrCartConflict.
func (s *CartService) createDraft(ctx context.Context, store CartStore, userID uuid.UUID, items []pricing.LineItem) (*Cart, error) {
	itemsJSON, discountJSON, totals, err := encodeCart(items, nil)
	if err != nil {
		return nil, err
	}
	txn, err := store.CreateDraftTransaction(ctx, database.CreateDraftTransactionParams{
		UserID:              userID,
		Items:               itemsJSON,
		Subtotal:            decimalToNumeric(totals.Subtotal),
		TotalDiscount:       decimalToNumeric(totals.TotalDiscount),
		Total:               decimalToNumeric(totals.Total),
		Cogs:                decimalToNumeric(totals.Cogs),
		TransactionDiscount: discountJSON,
	})
	if err != nil {
		if isDraftConflict(err) {
			return nil, fmt.Errorf("create draft: %w", ErrCartConflict)
		}
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return &Cart{Transaction: txn, Items: items, Totals: totals}, nil
}

// saveDraft recomputes the totals of cart and writes it with a version
// check. An empty cart is deleted and nil is returned.
func (s *CartService) saveDraft(ctx context.Context, store CartStore, cart *Cart) (*Cart, error) {
	if len(cart.Items) == 0 {
		rows, err := store.DeleteDraftTransaction(ctx, database.DeleteDraftTransactionParams{
			ID:      cart.Transaction.ID,
			Version: cart.Transaction.Version,
		})
		if err != nil {
			return nil, fmt.Errorf("delete draft: %w", err)
		}
		if rows == 0 {
			return nil, ErrCartConflict
		}
		return nil, nil
	}

	itemsJSON, discountJSON, totals, err := encodeCart(cart.Items, cart.Discount)
	if err != nil {
		return nil, err
	}
	txn, err := store.UpdateDraftTransaction(ctx, database.UpdateDraftTransactionParams{
		ID:                  cart.Transaction.ID,
		Version:             cart.Transaction.Version,
		Items:               itemsJSON,
		Subtotal:            decimalToNumeric(totals.Subtotal),
		TotalDiscount:       decimalToNumeric(totals.TotalDiscount),
		Total:               decimalToNumeric(totals.Total),
		Cogs:                decimalToNumeric(totals.Cogs),
		TransactionDiscount: discountJSON,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartConflict
		}
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return &Cart{Transaction: txn, Items: cart.Items, Discount: cart.Discount, Totals: totals}, nil
}

func (s *CartService) notify(userID uuid.UUID, eventType string, cart *Cart) {
	if s.notifier == nil {
		return
	}
	var payload interface{}
	if cart != nil {
		payload = CartEvent{
			TransactionID: cart.Transaction.ID,
			ItemCount:     len(cart.Items),
			Total:         cart.Totals.Total.StringFixed(2),
		}
	}
	s.notifier.NotifyUser(userID, eventType, payload)
}

// isDraftConflict checks for a unique violation on the one-draft-per-user
// index (pgconn error code 23505).
func isDraftConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == draftConstraint
	}
	return false
}

func decodeCart(txn database.Transaction) (*Cart, error) {
	items := []pricing.LineItem{}
	if len(txn.Items) > 0 {
		if err := json.Unmarshal(txn.Items, &items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
	}
	var discount *pricing.Discount
	if len(txn.TransactionDiscount) > 0 && string(txn.TransactionDiscount) != "null" {
		discount = &pricing.Discount{}
		if err := json.Unmarshal(txn.TransactionDiscount, discount); err != nil {
			return nil, fmt.Errorf("decode discount: %w", err)
		}
	}
	return &Cart{
		Transaction: txn,
		Items:       items,
		Discount:    discount,
		Totals: pricing.Totals{
			Subtotal:      numericToDecimal(txn.Subtotal),
			TotalDiscount: numericToDecimal(txn.TotalDiscount),
			Total:         numericToDecimal(txn.Total),
			Cogs:          numericToDecimal(txn.Cogs),
		},
	}, nil
}

func encodeCart(items []pricing.LineItem, discount *pricing.Discount) ([]byte, []byte, pricing.Totals, error) {
	totals := pricing.Recalculate(items, discount)
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, nil, pricing.Totals{}, fmt.Errorf("encode items: %w", err)
	}
	var discountJSON []byte
	if discount != nil {
		discountJSON, err = json.Marshal(discount)
		if err != nil {
			return nil, nil, pricing.Totals{}, fmt.Errorf("encode discount: %w", err)
		}
	}
	return itemsJSON, discountJSON, totals, nil
}
