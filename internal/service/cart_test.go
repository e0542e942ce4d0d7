package service

import (
	"context"
	"errors"
	"sync"
	"testing"
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

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	commits     int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.commits++
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockPool implements DB. Queries go through the mock store, so the DBTX
// methods are never called directly.
type mockPool struct {
	tx  pgx.Tx
	err error
}

func (m *mockPool) Begin(ctx context.Context) (pgx.Tx, error) { return m.tx, m.err }
func (m *mockPool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	panic("not implemented")
}

// mockCartStore implements CartStore with configurable behavior.
type mockCartStore struct {
	getMenuItemFn               func(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	listMenuItemsByIDsFn        func(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error)
	listAddOnsByIDsFn           func(ctx context.Context, ids []uuid.UUID) ([]database.AddOn, error)
	listItemModifiersByIDsFn    func(ctx context.Context, ids []uuid.UUID) ([]database.ItemModifier, error)
	getDraftTransactionByUserFn func(ctx context.Context, userID uuid.UUID) (database.Transaction, error)
	getTransactionFn            func(ctx context.Context, id uuid.UUID) (database.Transaction, error)
	createDraftTransactionFn    func(ctx context.Context, arg database.CreateDraftTransactionParams) (database.Transaction, error)
	updateDraftTransactionFn    func(ctx context.Context, arg database.UpdateDraftTransactionParams) (database.Transaction, error)
	deleteDraftTransactionFn    func(ctx context.Context, arg database.DeleteDraftTransactionParams) (int64, error)
	completeTransactionFn       func(ctx context.Context, arg database.CompleteTransactionParams) (database.Transaction, error)
	listCompletedFn             func(ctx context.Context, arg database.ListCompletedTransactionsParams) ([]database.Transaction, error)
}

func (m *mockCartStore) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	return m.getMenuItemFn(ctx, id)
}
func (m *mockCartStore) ListMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error) {
	return m.listMenuItemsByIDsFn(ctx, ids)
}
func (m *mockCartStore) ListAddOnsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.AddOn, error) {
	return m.listAddOnsByIDsFn(ctx, ids)
}
func (m *mockCartStore) ListItemModifiersByIDs(ctx context.Context, ids []uuid.UUID) ([]database.ItemModifier, error) {
	return m.listItemModifiersByIDsFn(ctx, ids)
}
func (m *mockCartStore) GetDraftTransactionByUser(ctx context.Context, userID uuid.UUID) (database.Transaction, error) {
	return m.getDraftTransactionByUserFn(ctx, userID)
}
func (m *mockCartStore) GetTransaction(ctx context.Context, id uuid.UUID) (database.Transaction, error) {
	return m.getTransactionFn(ctx, id)
}
func (m *mockCartStore) CreateDraftTransaction(ctx context.Context, arg database.CreateDraftTransactionParams) (database.Transaction, error) {
	return m.createDraftTransactionFn(ctx, arg)
}
func (m *mockCartStore) UpdateDraftTransaction(ctx context.Context, arg database.UpdateDraftTransactionParams) (database.Transaction, error) {
	return m.updateDraftTransactionFn(ctx, arg)
}
func (m *mockCartStore) DeleteDraftTransaction(ctx context.Context, arg database.DeleteDraftTransactionParams) (int64, error) {
	return m.deleteDraftTransactionFn(ctx, arg)
}
func (m *mockCartStore) CompleteTransaction(ctx context.Context, arg database.CompleteTransactionParams) (database.Transaction, error) {
	return m.completeTransactionFn(ctx, arg)
}
func (m *mockCartStore) ListCompletedTransactions(ctx context.Context, arg database.ListCompletedTransactionsParams) ([]database.Transaction, error) {
	return m.listCompletedFn(ctx, arg)
}

// mockNotifier records the events it receives.
type mockNotifier struct {
	mu     sync.Mutex
	events []string
}

func (m *mockNotifier) NotifyUser(userID uuid.UUID, eventType string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
}

func (m *mockNotifier) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return ""
	}
	return m.events[len(m.events)-1]
}

// --- In-memory backing data ---

// memDB holds the rows the default mock store reads and writes. Draft
// writes enforce the same version checks as the SQL queries.
type memDB struct {
	menu      map[uuid.UUID]database.MenuItem
	addOns    map[uuid.UUID]database.AddOn
	modifiers map[uuid.UUID]database.ItemModifier
	txns      map[uuid.UUID]database.Transaction
}

func newMemDB() *memDB {
	return &memDB{
		menu:      map[uuid.UUID]database.MenuItem{},
		addOns:    map[uuid.UUID]database.AddOn{},
		modifiers: map[uuid.UUID]database.ItemModifier{},
		txns:      map[uuid.UUID]database.Transaction{},
	}
}

func (db *memDB) draftFor(userID uuid.UUID) (database.Transaction, bool) {
	for _, t := range db.txns {
		if t.UserID == userID && t.Status == enum.TransactionStatusDraft {
			return t, true
		}
	}
	return database.Transaction{}, false
}

func defaultCartStore(db *memDB) *mockCartStore {
	return &mockCartStore{
		getMenuItemFn: func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
			item, ok := db.menu[id]
			if !ok {
				return database.MenuItem{}, pgx.ErrNoRows
			}
			return item, nil
		},
		listMenuItemsByIDsFn: func(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error) {
			var out []database.MenuItem
			for _, id := range ids {
				if item, ok := db.menu[id]; ok {
					out = append(out, item)
				}
			}
			return out, nil
		},
		listAddOnsByIDsFn: func(ctx context.Context, ids []uuid.UUID) ([]database.AddOn, error) {
			var out []database.AddOn
			for _, id := range ids {
				if a, ok := db.addOns[id]; ok {
					out = append(out, a)
				}
			}
			return out, nil
		},
		listItemModifiersByIDsFn: func(ctx context.Context, ids []uuid.UUID) ([]database.ItemModifier, error) {
			var out []database.ItemModifier
			for _, id := range ids {
				if m, ok := db.modifiers[id]; ok {
					out = append(out, m)
				}
			}
			return out, nil
		},
		getDraftTransactionByUserFn: func(ctx context.Context, userID uuid.UUID) (database.Transaction, error) {
			t, ok := db.draftFor(userID)
			if !ok {
				return database.Transaction{}, pgx.ErrNoRows
			}
			return t, nil
		},
		getTransactionFn: func(ctx context.Context, id uuid.UUID) (database.Transaction, error) {
			t, ok := db.txns[id]
			if !ok {
				return database.Transaction{}, pgx.ErrNoRows
			}
			return t, nil
		},
		createDraftTransactionFn: func(ctx context.Context, arg database.CreateDraftTransactionParams) (database.Transaction, error) {
			if _, ok := db.draftFor(arg.UserID); ok {
				return database.Transaction{}, &pgconn.PgError{Code: "23505", ConstraintName: draftConstraint}
			}
			t := database.Transaction{
				ID:                  uuid.New(),
				UserID:              arg.UserID,
				Status:              enum.TransactionStatusDraft,
				Items:               arg.Items,
				Subtotal:            arg.Subtotal,
				TotalDiscount:       arg.TotalDiscount,
				Total:               arg.Total,
				Cogs:                arg.Cogs,
				TransactionDiscount: arg.TransactionDiscount,
				Version:             1,
			}
			db.txns[t.ID] = t
			return t, nil
		},
		updateDraftTransactionFn: func(ctx context.Context, arg database.UpdateDraftTransactionParams) (database.Transaction, error) {
			t, ok := db.txns[arg.ID]
			if !ok || t.Version != arg.Version || t.Status != enum.TransactionStatusDraft {
				return database.Transaction{}, pgx.ErrNoRows
			}
			t.Items = arg.Items
			t.Subtotal = arg.Subtotal
			t.TotalDiscount = arg.TotalDiscount
			t.Total = arg.Total
			t.Cogs = arg.Cogs
			t.TransactionDiscount = arg.TransactionDiscount
			t.Version++
			db.txns[t.ID] = t
			return t, nil
		},
		deleteDraftTransactionFn: func(ctx context.Context, arg database.DeleteDraftTransactionParams) (int64, error) {
			t, ok := db.txns[arg.ID]
			if !ok || t.Version != arg.Version || t.Status != enum.TransactionStatusDraft {
				return 0, nil
			}
			delete(db.txns, arg.ID)
			return 1, nil
		},
		completeTransactionFn: func(ctx context.Context, arg database.CompleteTransactionParams) (database.Transaction, error) {
			t, ok := db.txns[arg.ID]
			if !ok || t.Version != arg.Version || t.Status != enum.TransactionStatusDraft {
				return database.Transaction{}, pgx.ErrNoRows
			}
			t.Status = enum.TransactionStatusCompleted
			t.CompletedAt = arg.CompletedAt
			t.Version++
			db.txns[t.ID] = t
			return t, nil
		},
		listCompletedFn: func(ctx context.Context, arg database.ListCompletedTransactionsParams) ([]database.Transaction, error) {
			var out []database.Transaction
			for _, t := range db.txns {
				if t.Status == enum.TransactionStatusCompleted && int32(len(out)) < arg.Limit {
					out = append(out, t)
				}
			}
			return out, nil
		},
	}
}

// --- Test helpers ---

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func assertMoney(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	w := decimal.RequireFromString(want)
	if !got.Equal(w) {
		t.Errorf("%s: got %s, want %s", field, got.String(), w.String())
	}
}

// newTestCartService creates a CartService with mocked dependencies.
func newTestCartService(store *mockCartStore) (*CartService, *mockTx, *mockNotifier) {
	tx := &mockTx{}
	pool := &mockPool{tx: tx}
	notifier := &mockNotifier{}
	newStore := func(db database.DBTX) CartStore { return store }
	svc := NewCartService(pool, newStore, notifier, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc, tx, notifier
}

func addMenuItem(db *memDB, cogm string) database.MenuItem {
	item := database.MenuItem{
		ID:               uuid.New(),
		Name:             "Latte",
		Category:         enum.CategoryCoffee,
		Cogm:             makeNumeric(cogm),
		AddOnEligibility: enum.AddOnEligibilityCoffeeBased,
		Status:           enum.MenuItemStatusActive,
	}
	db.menu[item.ID] = item
	return item
}

func withPromo(db *memDB, item database.MenuItem, discountType, value string) database.MenuItem {
	item.HasPromo = true
	item.PromoActive = true
	item.DiscountType = pgtype.Text{String: discountType, Valid: true}
	item.DiscountValue = makeNumeric(value)
	item.PromoStartDate = pgtype.Timestamptz{Time: testNow.Add(-24 * time.Hour), Valid: true}
	item.PromoEndDate = pgtype.Timestamptz{Time: testNow.Add(24 * time.Hour), Valid: true}
	db.menu[item.ID] = item
	return item
}

func addAddOn(db *memDB, name, price, addOnType string) database.AddOn {
	a := database.AddOn{ID: uuid.New(), Name: name, Price: makeNumeric(price), Type: addOnType}
	db.addOns[a.ID] = a
	return a
}

func addModifier(db *memDB, name, modifierType string) database.ItemModifier {
	m := database.ItemModifier{ID: uuid.New(), Name: name, Type: modifierType}
	db.modifiers[m.ID] = m
	return m
}

// =====================
// AddToCart
// =====================

func TestAddToCart_CreatesDraftWithPromoSnapshot(t *testing.T) {
	db := newMemDB()
	item := withPromo(db, addMenuItem(db, "20000"), enum.DiscountTypePercentage, "20")
	svc, tx, notifier := newTestCartService(defaultCartStore(db))
	userID := uuid.New()

	cart, err := svc.AddToCart(context.Background(), AddToCartRequest{
		UserID:     userID,
		MenuItemID: item.ID,
		Quantity:   2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(cart.Items))
	}
	line := cart.Items[0]
	assertMoney(t, "item total", line.ItemTotal, "32000")
	assertMoney(t, "base price", line.BasePrice, "20000")
	if line.AppliedDiscount == nil {
		t.Fatal("expected discount snapshot")
	}
	assertMoney(t, "discount amount", line.AppliedDiscount.Amount, "4000")

	assertMoney(t, "subtotal", cart.Totals.Subtotal, "40000")
	assertMoney(t, "total discount", cart.Totals.TotalDiscount, "8000")
	assertMoney(t, "total", cart.Totals.Total, "32000")
	assertMoney(t, "cogs", cart.Totals.Cogs, "40000")

	stored, _ := db.draftFor(userID)
	if !numericToDecimal(stored.Total).Equal(decimal.NewFromInt(32000)) {
		t.Errorf("persisted total: got %s", numericToDecimal(stored.Total))
	}
	if tx.commits != 1 {
		t.Errorf("commits: got %d, want 1", tx.commits)
	}
	if notifier.last() != enum.EventCartUpdated {
		t.Errorf("event: got %q, want %q", notifier.last(), enum.EventCartUpdated)
	}
}

func TestAddToCart_AppendsAndPreservesTransactionDiscount(t *testing.T) {
	db := newMemDB()
	latte := addMenuItem(db, "20000")
	cookie := addMenuItem(db, "10000")
	svc, _, _ := newTestCartService(defaultCartStore(db))
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: latte.ID, Quantity: 2}); err != nil {
		t.Fatalf("add latte: %v", err)
	}
	if _, err := svc.ApplyTransactionDiscount(ctx, userID, enum.DiscountTypeFixed, decimal.NewFromInt(5000)); err != nil {
		t.Fatalf("apply discount: %v", err)
	}
	cart, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: cookie.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add cookie: %v", err)
	}

	if len(cart.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(cart.Items))
	}
	assertMoney(t, "subtotal", cart.Totals.Subtotal, "50000")
	assertMoney(t, "total discount", cart.Totals.TotalDiscount, "5000")
	assertMoney(t, "total", cart.Totals.Total, "45000")
	if cart.Transaction.Version != 3 {
		t.Errorf("version: got %d, want 3", cart.Transaction.Version)
	}
}

func TestAddToCart_Unauthenticated(t *testing.T) {
	svc, _, _ := newTestCartService(defaultCartStore(newMemDB()))
	_, err := svc.AddToCart(context.Background(), AddToCartRequest{MenuItemID: uuid.New(), Quantity: 1})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAddToCart_InvalidQuantity(t *testing.T) {
	svc, _, _ := newTestCartService(defaultCartStore(newMemDB()))
	_, err := svc.AddToCart(context.Background(), AddToCartRequest{UserID: uuid.New(), MenuItemID: uuid.New(), Quantity: 0})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestAddToCart_MenuItemNotFound(t *testing.T) {
	svc, _, _ := newTestCartService(defaultCartStore(newMemDB()))
	_, err := svc.AddToCart(context.Background(), AddToCartRequest{UserID: uuid.New(), MenuItemID: uuid.New(), Quantity: 1})
	if !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatalf("expected ErrMenuItemNotFound, got %v", err)
	}
}

func TestAddToCart_InactiveMenuItem(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "20000")
	item.Status = enum.MenuItemStatusInactive
	db.menu[item.ID] = item
	svc, _, _ := newTestCartService(defaultCartStore(db))

	_, err := svc.AddToCart(context.Background(), AddToCartRequest{UserID: uuid.New(), MenuItemID: item.ID, Quantity: 1})
	if !errors.Is(err, ErrMenuItemInactive) {
		t.Fatalf("expected ErrMenuItemInactive, got %v", err)
	}
}

func TestAddToCart_Modifiers(t *testing.T) {
	db := newMemDB()
	hot := addModifier(db, "Hot", enum.ModifierTypeTemperature)
	cold := addModifier(db, "Cold", enum.ModifierTypeTemperature)
	normal := addModifier(db, "Normal", enum.ModifierTypeSweetness)
	ghost := uuid.New()

	item := addMenuItem(db, "20000")
	item.AllowedTemperatures = []uuid.UUID{hot.ID, ghost}
	item.AllowedSweetness = []uuid.UUID{normal.ID, hot.ID}
	db.menu[item.ID] = item

	tests := []struct {
		name    string
		sel     pricing.ModifierSelection
		wantErr error
	}{
		{"allowed temperature and sweetness", pricing.ModifierSelection{Temperature: &hot.ID, Sweetness: &normal.ID}, nil},
		{"temperature not in allowed set", pricing.ModifierSelection{Temperature: &cold.ID}, ErrInvalidModifier},
		{"allowed id that does not exist", pricing.ModifierSelection{Temperature: &ghost}, ErrModifierNotFound},
		{"modifier of the wrong type", pricing.ModifierSelection{Sweetness: &hot.ID}, ErrInvalidModifier},
		{"no selection", pricing.ModifierSelection{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestCartService(defaultCartStore(db))
			cart, err := svc.AddToCart(context.Background(), AddToCartRequest{
				UserID:     uuid.New(),
				MenuItemID: item.ID,
				Quantity:   1,
				Modifiers:  tt.sel,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			line := cart.Items[0]
			if tt.sel.IsEmpty() {
				if line.Modifiers != nil {
					t.Errorf("expected no modifiers, got %+v", line.Modifiers)
				}
				return
			}
			if line.Modifiers == nil || *line.Modifiers.Temperature != hot.ID || *line.Modifiers.Sweetness != normal.ID {
				t.Errorf("modifiers not stored: %+v", line.Modifiers)
			}
		})
	}
}

func TestAddToCart_InvalidModifierLeavesDraftUnchanged(t *testing.T) {
	db := newMemDB()
	hot := addModifier(db, "Hot", enum.ModifierTypeTemperature)
	cold := addModifier(db, "Cold", enum.ModifierTypeTemperature)
	item := addMenuItem(db, "20000")
	item.AllowedTemperatures = []uuid.UUID{hot.ID}
	db.menu[item.ID] = item

	svc, tx, notifier := newTestCartService(defaultCartStore(db))
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.AddToCart(ctx, AddToCartRequest{
		UserID:     userID,
		MenuItemID: item.ID,
		Quantity:   2,
		Modifiers:  pricing.ModifierSelection{Temperature: &hot.ID},
	}); err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	before, ok := db.draftFor(userID)
	if !ok {
		t.Fatal("expected a draft after the first add")
	}
	commits := tx.commits
	events := len(notifier.events)

	_, err := svc.AddToCart(ctx, AddToCartRequest{
		UserID:     userID,
		MenuItemID: item.ID,
		Quantity:   1,
		Modifiers:  pricing.ModifierSelection{Temperature: &cold.ID},
	})
	if !errors.Is(err, ErrInvalidModifier) {
		t.Fatalf("expected ErrInvalidModifier, got %v", err)
	}

	after, ok := db.draftFor(userID)
	if !ok {
		t.Fatal("draft disappeared after a rejected add")
	}
	if after.Version != before.Version {
		t.Errorf("version: got %d, want %d", after.Version, before.Version)
	}
	if string(after.Items) != string(before.Items) {
		t.Errorf("items changed: got %s, want %s", after.Items, before.Items)
	}
	for _, f := range []struct {
		name        string
		got, wanted pgtype.Numeric
	}{
		{"subtotal", after.Subtotal, before.Subtotal},
		{"total discount", after.TotalDiscount, before.TotalDiscount},
		{"total", after.Total, before.Total},
		{"cogs", after.Cogs, before.Cogs},
	} {
		if !numericToDecimal(f.got).Equal(numericToDecimal(f.wanted)) {
			t.Errorf("%s: got %s, want %s", f.name, numericToDecimal(f.got), numericToDecimal(f.wanted))
		}
	}
	assertMoney(t, "stored total", numericToDecimal(after.Total), "40000")
	if tx.commits != commits {
		t.Errorf("commits: got %d, want %d", tx.commits, commits)
	}
	if len(notifier.events) != events {
		t.Errorf("events: got %d, want %d", len(notifier.events), events)
	}
}

func TestAddToCart_UnknownAddOnSkipped(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "25000")
	shot := addAddOn(db, "Extra Shot", "6000", enum.AddOnTypeExtraShot)
	svc, _, _ := newTestCartService(defaultCartStore(db))

	cart, err := svc.AddToCart(context.Background(), AddToCartRequest{
		UserID:     uuid.New(),
		MenuItemID: item.ID,
		Quantity:   2,
		AddOnIDs:   []uuid.UUID{uuid.New(), shot.ID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := cart.Items[0]
	if len(line.AddOns) != 1 || line.AddOns[0].AddOnID != shot.ID {
		t.Fatalf("add-ons: got %+v, want only the extra shot", line.AddOns)
	}
	assertMoney(t, "item total", line.ItemTotal, "62000")
	assertMoney(t, "cogs", cart.Totals.Cogs, "50000")
}

func TestAddToCart_AddOnEligibility(t *testing.T) {
	tests := []struct {
		eligibility string
		addOnType   string
		wantErr     bool
	}{
		{enum.AddOnEligibilityCoffeeBased, enum.AddOnTypeExtraShot, false},
		{enum.AddOnEligibilityCoffeeBased, enum.AddOnTypeOatMilk, false},
		{enum.AddOnEligibilityCoffeeOnly, enum.AddOnTypeExtraShot, false},
		{enum.AddOnEligibilityCoffeeOnly, enum.AddOnTypeOatMilk, true},
		{enum.AddOnEligibilityNonCoffee, enum.AddOnTypeOatMilk, false},
		{enum.AddOnEligibilityNonCoffee, enum.AddOnTypeExtraShot, true},
		{enum.AddOnEligibilityNone, enum.AddOnTypeOatMilk, true},
	}

	for _, tt := range tests {
		t.Run(tt.eligibility+"/"+tt.addOnType, func(t *testing.T) {
			db := newMemDB()
			item := addMenuItem(db, "20000")
			item.AddOnEligibility = tt.eligibility
			db.menu[item.ID] = item
			addOn := addAddOn(db, tt.addOnType, "3000", tt.addOnType)
			svc, _, _ := newTestCartService(defaultCartStore(db))

			_, err := svc.AddToCart(context.Background(), AddToCartRequest{
				UserID:     uuid.New(),
				MenuItemID: item.ID,
				Quantity:   1,
				AddOnIDs:   []uuid.UUID{addOn.ID},
			})
			if tt.wantErr && !errors.Is(err, ErrAddOnNotEligible) {
				t.Fatalf("expected ErrAddOnNotEligible, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// =====================
// Retry on concurrent modification
// =====================

func TestAddToCart_RetryOnDraftConflict(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "20000")
	store := defaultCartStore(db)
	userID := uuid.New()

	// Another device creates the draft between our read and our insert.
	createCalls := 0
	defaultCreate := store.createDraftTransactionFn
	store.createDraftTransactionFn = func(ctx context.Context, arg database.CreateDraftTransactionParams) (database.Transaction, error) {
		createCalls++
		if createCalls == 1 {
			if _, err := defaultCreate(ctx, arg); err != nil {
				t.Fatalf("seed concurrent draft: %v", err)
			}
			return database.Transaction{}, &pgconn.PgError{Code: "23505", ConstraintName: draftConstraint}
		}
		return defaultCreate(ctx, arg)
	}

	svc, _, _ := newTestCartService(store)
	cart, err := svc.AddToCart(context.Background(), AddToCartRequest{UserID: userID, MenuItemID: item.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if createCalls != 1 {
		t.Errorf("second attempt should append to the existing draft: create calls %d", createCalls)
	}
	if len(cart.Items) != 2 {
		t.Errorf("items: got %d, want 2 (concurrent line + ours)", len(cart.Items))
	}
	assertMoney(t, "subtotal", cart.Totals.Subtotal, "40000")
}

func TestAddToCart_RetryOnVersionMismatch(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "15000")
	store := defaultCartStore(db)
	svc, _, _ := newTestCartService(store)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: item.ID, Quantity: 1}); err != nil {
		t.Fatalf("first add: %v", err)
	}

	// Bump the stored version once, as a concurrent writer would.
	updateCalls := 0
	defaultUpdate := store.updateDraftTransactionFn
	store.updateDraftTransactionFn = func(ctx context.Context, arg database.UpdateDraftTransactionParams) (database.Transaction, error) {
		updateCalls++
		if updateCalls == 1 {
			draft, _ := db.draftFor(userID)
			draft.Version++
			db.txns[draft.ID] = draft
		}
		return defaultUpdate(ctx, arg)
	}

	cart, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: item.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if updateCalls != 2 {
		t.Errorf("update calls: got %d, want 2", updateCalls)
	}
	assertMoney(t, "total", cart.Totals.Total, "30000")
}

func TestAddToCart_RetryExhausted(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "15000")
	store := defaultCartStore(db)
	userID := uuid.New()
	svc, _, _ := newTestCartService(store)

	if _, err := svc.AddToCart(context.Background(), AddToCartRequest{UserID: userID, MenuItemID: item.ID, Quantity: 1}); err != nil {
		t.Fatalf("first add: %v", err)
	}

	updateCalls := 0
	store.updateDraftTransactionFn = func(ctx context.Context, arg database.UpdateDraftTransactionParams) (database.Transaction, error) {
		updateCalls++
		return database.Transaction{}, pgx.ErrNoRows
	}

	_, err := svc.AddToCart(context.Background(), AddToCartRequest{UserID: userID, MenuItemID: item.ID, Quantity: 1})
	if !errors.Is(err, ErrCartConflict) {
		t.Fatalf("expected ErrCartConflict, got %v", err)
	}
	if updateCalls != maxCartRetries {
		t.Errorf("update calls: got %d, want %d", updateCalls, maxCartRetries)
	}
}

func TestAddToCart_NonConflictErrorNotRetried(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "15000")
	store := defaultCartStore(db)

	callCount := 0
	store.createDraftTransactionFn = func(ctx context.Context, arg database.CreateDraftTransactionParams) (database.Transaction, error) {
		callCount++
		return database.Transaction{}, errors.New("some other DB error")
	}

	svc, _, _ := newTestCartService(store)
	_, err := svc.AddToCart(context.Background(), AddToCartRequest{UserID: uuid.New(), MenuItemID: item.ID, Quantity: 1})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if callCount != 1 {
		t.Errorf("non-conflict errors should not retry: expected 1 call, got %d", callCount)
	}
}

// =====================
// UpdateItemQuantity
// =====================

func TestUpdateItemQuantity_UsesStoredSnapshot(t *testing.T) {
	db := newMemDB()
	item := withPromo(db, addMenuItem(db, "20000"), enum.DiscountTypeFixed, "5000")
	svc, _, _ := newTestCartService(defaultCartStore(db))
	ctx := context.Background()
	userID := uuid.New()

	cart, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: item.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// The promo ends after the line was added.
	item.PromoActive = false
	db.menu[item.ID] = item

	cart, err = svc.UpdateItemQuantity(ctx, userID, cart.Items[0].ID, 3)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	assertMoney(t, "item total", cart.Items[0].ItemTotal, "45000")
	assertMoney(t, "subtotal", cart.Totals.Subtotal, "60000")
	assertMoney(t, "total discount", cart.Totals.TotalDiscount, "15000")
	assertMoney(t, "total", cart.Totals.Total, "45000")
}

func TestUpdateItemQuantity_RemovingLastLineDeletesDraft(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "20000")
	svc, _, notifier := newTestCartService(defaultCartStore(db))
	ctx := context.Background()
	userID := uuid.New()

	cart, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: item.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err = svc.UpdateItemQuantity(ctx, userID, cart.Items[0].ID, 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cart != nil {
		t.Errorf("expected nil cart after removing last line, got %+v", cart)
	}
	if _, ok := db.draftFor(userID); ok {
		t.Error("draft should be deleted")
	}
	if notifier.last() != enum.EventCartCleared {
		t.Errorf("event: got %q, want %q", notifier.last(), enum.EventCartCleared)
	}
}

func TestUpdateItemQuantity_RemovesOneOfSeveralLines(t *testing.T) {
	db := newMemDB()
	latte := addMenuItem(db, "20000")
	cookie := addMenuItem(db, "10000")
	svc, _, _ := newTestCartService(defaultCartStore(db))
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: latte.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add latte: %v", err)
	}
	if _, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: cookie.ID, Quantity: 2}); err != nil {
		t.Fatalf("add cookie: %v", err)
	}

	cart, err := svc.UpdateItemQuantity(ctx, userID, first.Items[0].ID, -1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].MenuItemID != cookie.ID {
		t.Fatalf("expected only the cookie line, got %+v", cart.Items)
	}
	assertMoney(t, "total", cart.Totals.Total, "20000")
}

func TestUpdateItemQuantity_Errors(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "20000")
	svc, _, _ := newTestCartService(defaultCartStore(db))
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.UpdateItemQuantity(ctx, userID, uuid.New(), 1); !errors.Is(err, ErrCartNotFound) {
		t.Errorf("no draft: expected ErrCartNotFound, got %v", err)
	}

	if _, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: item.ID, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.UpdateItemQuantity(ctx, userID, uuid.New(), 1); !errors.Is(err, ErrLineItemNotFound) {
		t.Errorf("unknown line: expected ErrLineItemNotFound, got %v", err)
	}
}

// =====================
// Transaction discount
// =====================

func TestTransactionDiscount_ApplyAndRemove(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "20000")
	svc, _, _ := newTestCartService(defaultCartStore(db))
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: item.ID, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := svc.ApplyTransactionDiscount(ctx, userID, enum.DiscountTypeFixed, decimal.NewFromInt(5000))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	assertMoney(t, "total discount", cart.Totals.TotalDiscount, "5000")
	assertMoney(t, "total", cart.Totals.Total, "35000")
	if cart.Discount == nil {
		t.Fatal("discount not stored")
	}

	// Applying again replaces the previous discount.
	cart, err = svc.ApplyTransactionDiscount(ctx, userID, enum.DiscountTypePercentage, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	assertMoney(t, "total discount", cart.Totals.TotalDiscount, "4000")

	cart, err = svc.RemoveTransactionDiscount(ctx, userID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if cart.Discount != nil {
		t.Error("discount should be cleared")
	}
	assertMoney(t, "total discount", cart.Totals.TotalDiscount, "0")
	assertMoney(t, "total", cart.Totals.Total, "40000")
}

func TestApplyTransactionDiscount_Invalid(t *testing.T) {
	svc, _, _ := newTestCartService(defaultCartStore(newMemDB()))
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name  string
		typ   string
		value decimal.Decimal
	}{
		{"percentage over 100", enum.DiscountTypePercentage, decimal.NewFromInt(150)},
		{"zero value", enum.DiscountTypeFixed, decimal.Zero},
		{"unknown type", "bogus", decimal.NewFromInt(10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApplyTransactionDiscount(ctx, userID, tt.typ, tt.value)
			if !errors.Is(err, ErrInvalidDiscount) {
				t.Fatalf("expected ErrInvalidDiscount, got %v", err)
			}
		})
	}
}

func TestApplyTransactionDiscount_NoDraft(t *testing.T) {
	svc, _, _ := newTestCartService(defaultCartStore(newMemDB()))
	_, err := svc.ApplyTransactionDiscount(context.Background(), uuid.New(), enum.DiscountTypeFixed, decimal.NewFromInt(1000))
	if !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

// =====================
// Clear / Checkout
// =====================

func TestClearCart(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "20000")
	svc, _, notifier := newTestCartService(defaultCartStore(db))
	ctx := context.Background()
	userID := uuid.New()

	// No draft is a no-op.
	if err := svc.ClearCart(ctx, userID); err != nil {
		t.Fatalf("clear empty: %v", err)
	}
	if notifier.last() != "" {
		t.Errorf("no event expected for a no-op clear, got %q", notifier.last())
	}

	if _, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: item.ID, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.ClearCart(ctx, userID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := db.draftFor(userID); ok {
		t.Error("draft should be deleted")
	}
	if notifier.last() != enum.EventCartCleared {
		t.Errorf("event: got %q, want %q", notifier.last(), enum.EventCartCleared)
	}
}

func TestCheckout(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "20000")
	svc, _, notifier := newTestCartService(defaultCartStore(db))
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.AddToCart(ctx, AddToCartRequest{UserID: userID, MenuItemID: item.ID, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := svc.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if cart.Transaction.Status != enum.TransactionStatusCompleted {
		t.Errorf("status: got %s, want completed", cart.Transaction.Status)
	}
	if !cart.Transaction.CompletedAt.Valid || !cart.Transaction.CompletedAt.Time.Equal(testNow) {
		t.Errorf("completed_at: got %+v", cart.Transaction.CompletedAt)
	}
	if notifier.last() != enum.EventCartCheckedOut {
		t.Errorf("event: got %q, want %q", notifier.last(), enum.EventCartCheckedOut)
	}

	// The completed transaction is no longer a cart.
	current, err := svc.GetCurrentCart(ctx, userID)
	if err != nil {
		t.Fatalf("get current cart: %v", err)
	}
	if current != nil {
		t.Error("expected no current cart after checkout")
	}
	if _, err := svc.UpdateItemQuantity(ctx, userID, cart.Items[0].ID, 5); !errors.Is(err, ErrCartNotFound) {
		t.Errorf("mutating after checkout: expected ErrCartNotFound, got %v", err)
	}
	if _, err := svc.Checkout(ctx, userID); !errors.Is(err, ErrCartNotFound) {
		t.Errorf("second checkout: expected ErrCartNotFound, got %v", err)
	}
}

// =====================
// Reads
// =====================

func TestGetCurrentCart_Populated(t *testing.T) {
	db := newMemDB()
	item := addMenuItem(db, "25000")
	shot := addAddOn(db, "Extra Shot", "6000", enum.AddOnTypeExtraShot)
	hot := addModifier(db, "Hot", enum.ModifierTypeTemperature)
	item.AllowedTemperatures = []uuid.UUID{hot.ID}
	db.menu[item.ID] = item
	svc, _, _ := newTestCartService(defaultCartStore(db))
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.AddToCart(ctx, AddToCartRequest{
		UserID:     userID,
		MenuItemID: item.ID,
		Quantity:   1,
		AddOnIDs:   []uuid.UUID{shot.ID},
		Modifiers:  pricing.ModifierSelection{Temperature: &hot.ID},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	detail, err := svc.GetCurrentCart(ctx, userID)
	if err != nil {
		t.Fatalf("get current cart: %v", err)
	}
	if detail == nil {
		t.Fatal("expected a cart")
	}
	if detail.MenuItems[item.ID].Name != "Latte" {
		t.Errorf("menu item not populated: %+v", detail.MenuItems)
	}
	if detail.AddOns[shot.ID].Name != "Extra Shot" {
		t.Errorf("add-on not populated: %+v", detail.AddOns)
	}
	if detail.Modifiers[hot.ID].Name != "Hot" {
		t.Errorf("modifier not populated: %+v", detail.Modifiers)
	}
	assertMoney(t, "total", detail.Totals.Total, "31000")
}

func TestGetTransaction_NotFound(t *testing.T) {
	svc, _, _ := newTestCartService(defaultCartStore(newMemDB()))
	_, err := svc.GetTransaction(context.Background(), uuid.New())
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestListCompletedTransactions_Limit(t *testing.T) {
	tests := []struct {
		name  string
		limit int32
		want  int32
	}{
		{"default", 0, defaultHistoryLimit},
		{"explicit", 25, 25},
		{"clamped", 1000, maxHistoryLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := defaultCartStore(newMemDB())
			var got int32
			store.listCompletedFn = func(ctx context.Context, arg database.ListCompletedTransactionsParams) ([]database.Transaction, error) {
				got = arg.Limit
				return nil, nil
			}
			svc, _, _ := newTestCartService(store)
			if _, err := svc.ListCompletedTransactions(context.Background(), ListTransactionsRequest{Limit: tt.limit}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("limit: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestListCompletedTransactions_PassesWindow(t *testing.T) {
	store := defaultCartStore(newMemDB())
	var arg database.ListCompletedTransactionsParams
	store.listCompletedFn = func(ctx context.Context, a database.ListCompletedTransactionsParams) ([]database.Transaction, error) {
		arg = a
		return nil, nil
	}
	svc, _, _ := newTestCartService(store)

	start := testNow.Add(-48 * time.Hour)
	if _, err := svc.ListCompletedTransactions(context.Background(), ListTransactionsRequest{StartAt: &start}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !arg.StartAt.Valid || !arg.StartAt.Time.Equal(start) {
		t.Errorf("start: got %+v", arg.StartAt)
	}
	if arg.EndAt.Valid {
		t.Errorf("end should be unset, got %+v", arg.EndAt)
	}
}
