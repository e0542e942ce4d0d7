package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/brewpos/api/internal/database"
	"github.com/brewpos/api/internal/enum"
	"github.com/brewpos/api/internal/middleware"
	"github.com/brewpos/api/internal/pricing"
	"github.com/brewpos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MenuItemStore defines the database methods needed by menu item handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuItemStore interface {
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListActiveMenuItems(ctx context.Context) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	BulkUpdateMenuItems(ctx context.Context, arg database.BulkUpdateMenuItemsParams) (int64, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) (int64, error)
	BulkDeleteMenuItems(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// Broadcaster pushes an event to every connected client.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	NotifyAll(eventType string, payload interface{})
}

// MenuItemHandler handles menu item endpoints.
type MenuItemHandler struct {
	store       MenuItemStore
	broadcaster Broadcaster
	logger      *zap.Logger
	now         func() time.Time
}

// NewMenuItemHandler creates a new MenuItemHandler. broadcaster may be nil.
func NewMenuItemHandler(store MenuItemStore, broadcaster Broadcaster, logger *zap.Logger) *MenuItemHandler {
	return &MenuItemHandler{store: store, broadcaster: broadcaster, logger: logger, now: time.Now}
}

// RegisterRoutes registers menu item endpoints on the given Chi router.
// Expected to be mounted at /menu-items inside the authenticated group.
func (h *MenuItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/pos", h.ListForPOS)
	r.Get("/{id}", h.Get)

	admin := r.With(middleware.RequireRole(enum.UserRoleAdmin))
	admin.Post("/", h.Create)
	admin.Post("/bulk-update", h.BulkUpdate)
	admin.Post("/bulk-delete", h.BulkDelete)
	admin.Patch("/{id}", h.Update)
	admin.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createMenuItemRequest struct {
	Name                string   `json:"name"`
	Category            string   `json:"category"`
	Cogm                string   `json:"cogm"`
	AddOnEligibility    string   `json:"add_on_eligibility"`
	AllowedTemperatures []string `json:"allowed_temperatures"`
	AllowedSweetness    []string `json:"allowed_sweetness"`
}

type updateMenuItemRequest struct {
	Name                *string    `json:"name"`
	Category            *string    `json:"category"`
	Cogm                *string    `json:"cogm"`
	AddOnEligibility    *string    `json:"add_on_eligibility"`
	AllowedTemperatures []string   `json:"allowed_temperatures"`
	AllowedSweetness    []string   `json:"allowed_sweetness"`
	Status              *string    `json:"status"`
	HasPromo            *bool      `json:"has_promo"`
	DiscountType        *string    `json:"discount_type"`
	DiscountValue       *string    `json:"discount_value"`
	PromoStartDate      *time.Time `json:"promo_start_date"`
	PromoEndDate        *time.Time `json:"promo_end_date"`
	PromoActive         *bool      `json:"promo_active"`
}

type bulkUpdateMenuItemsRequest struct {
	IDs            []string   `json:"ids"`
	Status         *string    `json:"status"`
	HasPromo       *bool      `json:"has_promo"`
	DiscountType   *string    `json:"discount_type"`
	DiscountValue  *string    `json:"discount_value"`
	PromoStartDate *time.Time `json:"promo_start_date"`
	PromoEndDate   *time.Time `json:"promo_end_date"`
	PromoActive    *bool      `json:"promo_active"`
}

type bulkDeleteMenuItemsRequest struct {
	IDs []string `json:"ids"`
}

type bulkResultResponse struct {
	Affected int64 `json:"affected"`
}

type menuItemResponse struct {
	ID                  uuid.UUID   `json:"id"`
	Name                string      `json:"name"`
	Category            string      `json:"category"`
	Cogm                string      `json:"cogm"`
	AddOnEligibility    string      `json:"add_on_eligibility"`
	AllowedTemperatures []uuid.UUID `json:"allowed_temperatures"`
	AllowedSweetness    []uuid.UUID `json:"allowed_sweetness"`
	Status              string      `json:"status"`
	HasPromo            bool        `json:"has_promo"`
	DiscountType        *string     `json:"discount_type"`
	DiscountValue       *string     `json:"discount_value"`
	PromoStartDate      *time.Time  `json:"promo_start_date"`
	PromoEndDate        *time.Time  `json:"promo_end_date"`
	PromoActive         bool        `json:"promo_active"`
	FinalPrice          string      `json:"final_price"`
	HasActivePromo      bool        `json:"has_active_promo"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

type menuEventPayload struct {
	Action string      `json:"action"`
	IDs    []uuid.UUID `json:"ids"`
}

func toMenuItemResponse(m database.MenuItem, now time.Time) menuItemResponse {
	price, promoApplied := service.MenuItemPrice(m, now)
	resp := menuItemResponse{
		ID:                  m.ID,
		Name:                m.Name,
		Category:            m.Category,
		Cogm:                numericToString(m.Cogm),
		AddOnEligibility:    m.AddOnEligibility,
		AllowedTemperatures: m.AllowedTemperatures,
		AllowedSweetness:    m.AllowedSweetness,
		Status:              m.Status,
		HasPromo:            m.HasPromo,
		DiscountValue:       optionalNumericString(m.DiscountValue),
		PromoStartDate:      optionalTime(m.PromoStartDate),
		PromoEndDate:        optionalTime(m.PromoEndDate),
		PromoActive:         m.PromoActive,
		FinalPrice:          price.StringFixed(2),
		HasActivePromo:      promoApplied,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	if resp.AllowedTemperatures == nil {
		resp.AllowedTemperatures = []uuid.UUID{}
	}
	if resp.AllowedSweetness == nil {
		resp.AllowedSweetness = []uuid.UUID{}
	}
	if m.DiscountType.Valid {
		resp.DiscountType = &m.DiscountType.String
	}
	return resp
}

// --- Validation ---

// validatePromo checks the promo fields of a menu item after an update has
// been applied. Returns an empty string when valid.
func validatePromo(discountType pgtype.Text, value pgtype.Numeric, start, end pgtype.Timestamptz) string {
	if discountType.Valid && !enum.IsValidDiscountType(discountType.String) {
		return "discount_type must be percentage or fixed"
	}
	if discountType.Valid && value.Valid {
		v, err := decimal.NewFromString(numericToString(value))
		if err != nil || pricing.ValidateDiscount(discountType.String, v) != nil {
			return "discount_value must be > 0 and at most 100 for percentage"
		}
	}
	if start.Valid && end.Valid && end.Time.Before(start.Time) {
		return "promo_end_date must not be before promo_start_date"
	}
	return ""
}

func toTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func toText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func toBool(b *bool) pgtype.Bool {
	if b == nil {
		return pgtype.Bool{}
	}
	return pgtype.Bool{Bool: *b, Valid: true}
}

func (h *MenuItemHandler) publish(action string, ids []uuid.UUID) {
	if h.broadcaster == nil {
		return
	}
	h.broadcaster.NotifyAll(enum.EventMenuUpdated, menuEventPayload{Action: action, IDs: ids})
}

// --- Handlers ---

// List handles GET /menu-items.
func (h *MenuItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		h.logger.Error("list menu items", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeList(w, items)
}

// ListForPOS handles GET /menu-items/pos: active items only.
func (h *MenuItemHandler) ListForPOS(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListActiveMenuItems(r.Context())
	if err != nil {
		h.logger.Error("list active menu items", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeList(w, items)
}

func (h *MenuItemHandler) writeList(w http.ResponseWriter, items []database.MenuItem) {
	now := h.now()
	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m, now)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /menu-items/{id}.
func (h *MenuItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		h.logger.Error("get menu item", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item, h.now()))
}

// Create handles POST /menu-items.
func (h *MenuItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !enum.IsValidCategory(req.Category) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	if req.AddOnEligibility == "" {
		req.AddOnEligibility = enum.AddOnEligibilityNone
	}
	if !enum.IsValidAddOnEligibility(req.AddOnEligibility) {
		writeError(w, http.StatusBadRequest, "invalid add_on_eligibility")
		return
	}
	cogm, err := parseMoney(req.Cogm)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cogm must be a non-negative number")
		return
	}
	temps, err := parseUUIDs(req.AllowedTemperatures)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid allowed_temperatures")
		return
	}
	sweetness, err := parseUUIDs(req.AllowedSweetness)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid allowed_sweetness")
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Name:                req.Name,
		Category:            req.Category,
		Cogm:                cogm,
		AddOnEligibility:    req.AddOnEligibility,
		AllowedTemperatures: temps,
		AllowedSweetness:    sweetness,
	})
	if err != nil {
		h.logger.Error("create menu item", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.publish("created", []uuid.UUID{item.ID})
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item, h.now()))
}

// Update handles PATCH /menu-items/{id}. Omitted fields keep their value.
func (h *MenuItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	var req updateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		h.logger.Error("get menu item", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	params := database.UpdateMenuItemParams{
		ID:               id,
		Name:             toText(req.Name),
		Category:         toText(req.Category),
		AddOnEligibility: toText(req.AddOnEligibility),
		Status:           toText(req.Status),
		HasPromo:         toBool(req.HasPromo),
		DiscountType:     toText(req.DiscountType),
		PromoStartDate:   toTimestamptz(req.PromoStartDate),
		PromoEndDate:     toTimestamptz(req.PromoEndDate),
		PromoActive:      toBool(req.PromoActive),
	}

	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusBadRequest, "name must not be empty")
		return
	}
	if req.Category != nil && !enum.IsValidCategory(*req.Category) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	if req.AddOnEligibility != nil && !enum.IsValidAddOnEligibility(*req.AddOnEligibility) {
		writeError(w, http.StatusBadRequest, "invalid add_on_eligibility")
		return
	}
	if req.Status != nil && !enum.IsValidMenuItemStatus(*req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.Cogm != nil {
		if params.Cogm, err = parseMoney(*req.Cogm); err != nil {
			writeError(w, http.StatusBadRequest, "cogm must be a non-negative number")
			return
		}
	}
	if req.DiscountValue != nil {
		if params.DiscountValue, err = parseMoney(*req.DiscountValue); err != nil {
			writeError(w, http.StatusBadRequest, "discount_value must be a non-negative number")
			return
		}
	}
	if req.AllowedTemperatures != nil {
		if params.AllowedTemperatures, err = parseUUIDs(req.AllowedTemperatures); err != nil {
			writeError(w, http.StatusBadRequest, "invalid allowed_temperatures")
			return
		}
	}
	if req.AllowedSweetness != nil {
		if params.AllowedSweetness, err = parseUUIDs(req.AllowedSweetness); err != nil {
			writeError(w, http.StatusBadRequest, "invalid allowed_sweetness")
			return
		}
	}

	// Validate the promo as it will be stored, not just the changed fields.
	discountType := existing.DiscountType
	if params.DiscountType.Valid {
		discountType = params.DiscountType
	}
	discountValue := existing.DiscountValue
	if params.DiscountValue.Valid {
		discountValue = params.DiscountValue
	}
	start := existing.PromoStartDate
	if params.PromoStartDate.Valid {
		start = params.PromoStartDate
	}
	end := existing.PromoEndDate
	if params.PromoEndDate.Valid {
		end = params.PromoEndDate
	}
	if msg := validatePromo(discountType, discountValue, start, end); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		h.logger.Error("update menu item", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.publish("updated", []uuid.UUID{item.ID})
	writeJSON(w, http.StatusOK, toMenuItemResponse(item, h.now()))
}

// BulkUpdate handles POST /menu-items/bulk-update.
func (h *MenuItemHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateMenuItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ids, err := parseUUIDs(req.IDs)
	if err != nil || len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "ids must be a non-empty list of UUIDs")
		return
	}
	if req.Status != nil && !enum.IsValidMenuItemStatus(*req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	params := database.BulkUpdateMenuItemsParams{
		IDs:            ids,
		Status:         toText(req.Status),
		HasPromo:       toBool(req.HasPromo),
		DiscountType:   toText(req.DiscountType),
		PromoStartDate: toTimestamptz(req.PromoStartDate),
		PromoEndDate:   toTimestamptz(req.PromoEndDate),
		PromoActive:    toBool(req.PromoActive),
	}
	if req.DiscountValue != nil {
		if params.DiscountValue, err = parseMoney(*req.DiscountValue); err != nil {
			writeError(w, http.StatusBadRequest, "discount_value must be a non-negative number")
			return
		}
	}
	// Omitted fields keep each row's stored value; promo fields travel in pairs.
	if params.DiscountType.Valid != params.DiscountValue.Valid {
		writeError(w, http.StatusBadRequest, "discount_type and discount_value must be set together")
		return
	}
	if params.PromoStartDate.Valid != params.PromoEndDate.Valid {
		writeError(w, http.StatusBadRequest, "promo_start_date and promo_end_date must be set together")
		return
	}
	if msg := validatePromo(params.DiscountType, params.DiscountValue, params.PromoStartDate, params.PromoEndDate); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	affected, err := h.store.BulkUpdateMenuItems(r.Context(), params)
	if err != nil {
		h.logger.Error("bulk update menu items", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.publish("updated", ids)
	writeJSON(w, http.StatusOK, bulkResultResponse{Affected: affected})
}

// BulkDelete handles POST /menu-items/bulk-delete.
func (h *MenuItemHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteMenuItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ids, err := parseUUIDs(req.IDs)
	if err != nil || len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "ids must be a non-empty list of UUIDs")
		return
	}

	affected, err := h.store.BulkDeleteMenuItems(r.Context(), ids)
	if err != nil {
		h.logger.Error("bulk delete menu items", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.publish("deleted", ids)
	writeJSON(w, http.StatusOK, bulkResultResponse{Affected: affected})
}

// Delete handles DELETE /menu-items/{id}.
func (h *MenuItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	affected, err := h.store.DeleteMenuItem(r.Context(), id)
	if err != nil {
		h.logger.Error("delete menu item", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if affected == 0 {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}

	h.publish("deleted", []uuid.UUID{id})
	w.WriteHeader(http.StatusNoContent)
}
