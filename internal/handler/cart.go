package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/brewpos/api/internal/pricing"
	"github.com/brewpos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartServicer defines the service methods needed by cart handlers.
// Satisfied by *service.CartService; narrow interface for testability.
type CartServicer interface {
	GetCurrentCart(ctx context.Context, userID uuid.UUID) (*service.CartDetail, error)
	AddToCart(ctx context.Context, req service.AddToCartRequest) (*service.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int32) (*service.Cart, error)
	ApplyTransactionDiscount(ctx context.Context, userID uuid.UUID, discountType string, value decimal.Decimal) (*service.Cart, error)
	RemoveTransactionDiscount(ctx context.Context, userID uuid.UUID) (*service.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
	Checkout(ctx context.Context, userID uuid.UUID) (*service.Cart, error)
}

// CartHandler handles the caller's draft transaction.
type CartHandler struct {
	svc    CartServicer
	logger *zap.Logger
}

func NewCartHandler(svc CartServicer, logger *zap.Logger) *CartHandler {
	return &CartHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers cart endpoints. Mounted at /cart.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Delete("/", h.Clear)
	r.Post("/items", h.AddItem)
	r.Patch("/items/{lineId}", h.UpdateItem)
	r.Put("/discount", h.ApplyDiscount)
	r.Delete("/discount", h.RemoveDiscount)
	r.Post("/checkout", h.Checkout)
}

// --- Request / Response types ---

type addCartItemRequest struct {
	MenuItemID string   `json:"menu_item_id"`
	Quantity   int32    `json:"quantity"`
	AddOnIDs   []string `json:"add_on_ids"`
	Modifiers  struct {
		Temperature string `json:"temperature"`
		Sweetness   string `json:"sweetness"`
	} `json:"modifiers"`
}

type updateCartItemRequest struct {
	Quantity *int32 `json:"quantity"`
}

type applyDiscountRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type discountResponse struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Amount string `json:"amount"`
}

type namedRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

type lineAddOnResponse struct {
	AddOnID uuid.UUID `json:"add_on_id"`
	Name    string    `json:"name,omitempty"`
	Type    string    `json:"type,omitempty"`
	Price   string    `json:"price"`
}

type lineModifiersResponse struct {
	Temperature *namedRef `json:"temperature,omitempty"`
	Sweetness   *namedRef `json:"sweetness,omitempty"`
}

type lineItemResponse struct {
	ID              uuid.UUID              `json:"id"`
	MenuItemID      uuid.UUID              `json:"menu_item_id"`
	MenuItemName    string                 `json:"menu_item_name,omitempty"`
	Category        string                 `json:"category,omitempty"`
	Quantity        int32                  `json:"quantity"`
	BasePrice       string                 `json:"base_price"`
	AddOns          []lineAddOnResponse    `json:"add_ons"`
	Modifiers       *lineModifiersResponse `json:"modifiers,omitempty"`
	AppliedDiscount *discountResponse      `json:"applied_discount,omitempty"`
	ItemTotal       string                 `json:"item_total"`
}

type cartResponse struct {
	ID                  uuid.UUID          `json:"id"`
	UserID              uuid.UUID          `json:"user_id"`
	Status              string             `json:"status"`
	Items               []lineItemResponse `json:"items"`
	Subtotal            string             `json:"subtotal"`
	TotalDiscount       string             `json:"total_discount"`
	Total               string             `json:"total"`
	Cogs                string             `json:"cogs"`
	TransactionDiscount *discountResponse  `json:"transaction_discount"`
	Version             int32              `json:"version"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	CompletedAt         *time.Time         `json:"completed_at"`
}

func toDiscountResponse(d *pricing.Discount) *discountResponse {
	if d == nil {
		return nil
	}
	return &discountResponse{
		Type:   d.Type,
		Value:  d.Value.StringFixed(2),
		Amount: d.Amount.StringFixed(2),
	}
}

func modifierRef(id *uuid.UUID, detail service.CartDetail) *namedRef {
	if id == nil {
		return nil
	}
	ref := &namedRef{ID: *id}
	if m, ok := detail.Modifiers[*id]; ok {
		ref.Name = m.Name
	}
	return ref
}

// toCartResponse renders a cart. Names are filled in from whatever details
// the CartDetail carries; mutation results carry none.
func toCartResponse(detail service.CartDetail) cartResponse {
	txn := detail.Transaction
	resp := cartResponse{
		ID:                  txn.ID,
		UserID:              txn.UserID,
		Status:              txn.Status,
		Items:               make([]lineItemResponse, len(detail.Items)),
		Subtotal:            detail.Totals.Subtotal.StringFixed(2),
		TotalDiscount:       detail.Totals.TotalDiscount.StringFixed(2),
		Total:               detail.Totals.Total.StringFixed(2),
		Cogs:                detail.Totals.Cogs.StringFixed(2),
		TransactionDiscount: toDiscountResponse(detail.Discount),
		Version:             txn.Version,
		CreatedAt:           txn.CreatedAt,
		UpdatedAt:           txn.UpdatedAt,
		CompletedAt:         optionalTime(txn.CompletedAt),
	}

	for i, item := range detail.Items {
		line := lineItemResponse{
			ID:              item.ID,
			MenuItemID:      item.MenuItemID,
			Quantity:        item.Quantity,
			BasePrice:       item.BasePrice.StringFixed(2),
			AddOns:          make([]lineAddOnResponse, len(item.AddOns)),
			AppliedDiscount: toDiscountResponse(item.AppliedDiscount),
			ItemTotal:       item.ItemTotal.StringFixed(2),
		}
		if m, ok := detail.MenuItems[item.MenuItemID]; ok {
			line.MenuItemName = m.Name
			line.Category = m.Category
		}
		for j, a := range item.AddOns {
			line.AddOns[j] = lineAddOnResponse{AddOnID: a.AddOnID, Price: a.Price.StringFixed(2)}
			if ao, ok := detail.AddOns[a.AddOnID]; ok {
				line.AddOns[j].Name = ao.Name
				line.AddOns[j].Type = ao.Type
			}
		}
		if !item.Modifiers.IsEmpty() {
			line.Modifiers = &lineModifiersResponse{
				Temperature: modifierRef(item.Modifiers.Temperature, detail),
				Sweetness:   modifierRef(item.Modifiers.Sweetness, detail),
			}
		}
		resp.Items[i] = line
	}
	return resp
}

func writeCart(w http.ResponseWriter, status int, cart *service.Cart) {
	if cart == nil {
		writeJSON(w, status, nil)
		return
	}
	writeJSON(w, status, toCartResponse(service.CartDetail{Cart: *cart}))
}

func parseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// --- Handlers ---

// Get handles GET /cart. Responds with null when the caller has no draft.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.GetCurrentCart(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "get cart", err)
		return
	}
	if detail == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(*detail))
}

// AddItem handles POST /cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	menuItemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu_item_id")
		return
	}
	addOnIDs, err := parseUUIDs(req.AddOnIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid add_on_ids")
		return
	}
	temperature, err := parseOptionalUUID(req.Modifiers.Temperature)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid temperature modifier")
		return
	}
	sweetness, err := parseOptionalUUID(req.Modifiers.Sweetness)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sweetness modifier")
		return
	}

	cart, err := h.svc.AddToCart(r.Context(), service.AddToCartRequest{
		UserID:     userID,
		MenuItemID: menuItemID,
		Quantity:   req.Quantity,
		AddOnIDs:   addOnIDs,
		Modifiers:  pricing.ModifierSelection{Temperature: temperature, Sweetness: sweetness},
	})
	if err != nil {
		writeServiceError(w, h.logger, "add to cart", err)
		return
	}
	writeCart(w, http.StatusCreated, cart)
}

// UpdateItem handles PATCH /cart/items/{lineId}. A quantity of zero or less
// removes the line; removing the last line deletes the cart and responds
// with null.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	lineID, err := uuid.Parse(chi.URLParam(r, "lineId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line item ID")
		return
	}

	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	cart, err := h.svc.UpdateItemQuantity(r.Context(), userID, lineID, *req.Quantity)
	if err != nil {
		writeServiceError(w, h.logger, "update cart item", err)
		return
	}
	writeCart(w, http.StatusOK, cart)
}

// ApplyDiscount handles PUT /cart/discount.
func (h *CartHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req applyDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid discount value")
		return
	}

	cart, err := h.svc.ApplyTransactionDiscount(r.Context(), userID, req.Type, value)
	if err != nil {
		writeServiceError(w, h.logger, "apply discount", err)
		return
	}
	writeCart(w, http.StatusOK, cart)
}

// RemoveDiscount handles DELETE /cart/discount.
func (h *CartHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	cart, err := h.svc.RemoveTransactionDiscount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "remove discount", err)
		return
	}
	writeCart(w, http.StatusOK, cart)
}

// Clear handles DELETE /cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.ClearCart(r.Context(), userID); err != nil {
		writeServiceError(w, h.logger, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles POST /cart/checkout.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	cart, err := h.svc.Checkout(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "checkout", err)
		return
	}
	writeCart(w, http.StatusOK, cart)
}
