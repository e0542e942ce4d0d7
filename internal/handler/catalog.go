package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/brewpos/api/internal/database"
	"github.com/brewpos/api/internal/enum"
	"github.com/brewpos/api/internal/middleware"
	"github.com/brewpos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogStore defines the database methods needed by add-on and item
// modifier handlers. Satisfied by *database.Queries.
type CatalogStore interface {
	service.CatalogStore
	ListAddOns(ctx context.Context) ([]database.AddOn, error)
	ListItemModifiers(ctx context.Context) ([]database.ItemModifier, error)
}

// CatalogHandler handles add-on and item modifier endpoints.
type CatalogHandler struct {
	store  CatalogStore
	logger *zap.Logger
}

func NewCatalogHandler(store CatalogStore, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{store: store, logger: logger}
}

// RegisterAddOnRoutes registers /add-ons endpoints.
func (h *CatalogHandler) RegisterAddOnRoutes(r chi.Router) {
	r.Get("/", h.ListAddOns)

	admin := r.With(middleware.RequireRole(enum.UserRoleAdmin))
	admin.Post("/", h.CreateAddOn)
	admin.Post("/initialize", h.InitializeAddOns)
}

// RegisterModifierRoutes registers /item-modifiers endpoints.
func (h *CatalogHandler) RegisterModifierRoutes(r chi.Router) {
	r.Get("/", h.ListModifiers)

	admin := r.With(middleware.RequireRole(enum.UserRoleAdmin))
	admin.Post("/", h.CreateModifier)
	admin.Post("/initialize", h.InitializeModifiers)
}

// --- Request / Response types ---

type createAddOnRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Type  string `json:"type"`
}

type addOnResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type createModifierRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	SortOrder int32  `json:"sort_order"`
}

type modifierResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	SortOrder int32     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

func toAddOnResponse(a database.AddOn) addOnResponse {
	return addOnResponse{
		ID:        a.ID,
		Name:      a.Name,
		Price:     numericToString(a.Price),
		Type:      a.Type,
		CreatedAt: a.CreatedAt,
	}
}

func toModifierResponse(m database.ItemModifier) modifierResponse {
	return modifierResponse{
		ID:        m.ID,
		Name:      m.Name,
		Type:      m.Type,
		SortOrder: m.SortOrder,
		CreatedAt: m.CreatedAt,
	}
}

// --- Add-on handlers ---

// ListAddOns handles GET /add-ons.
func (h *CatalogHandler) ListAddOns(w http.ResponseWriter, r *http.Request) {
	addOns, err := h.store.ListAddOns(r.Context())
	if err != nil {
		h.logger.Error("list add-ons", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]addOnResponse, len(addOns))
	for i, a := range addOns {
		resp[i] = toAddOnResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateAddOn handles POST /add-ons.
func (h *CatalogHandler) CreateAddOn(w http.ResponseWriter, r *http.Request) {
	var req createAddOnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !enum.IsValidAddOnType(req.Type) {
		writeError(w, http.StatusBadRequest, "type must be extra-shot or oat-milk")
		return
	}
	price, err := parseMoney(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "price must be a non-negative number")
		return
	}

	addOn, err := h.store.CreateAddOn(r.Context(), database.CreateAddOnParams{
		Name:  req.Name,
		Price: price,
		Type:  req.Type,
	})
	if err != nil {
		h.logger.Error("create add-on", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toAddOnResponse(addOn))
}

// InitializeAddOns handles POST /add-ons/initialize. Does nothing when any
// add-on already exists.
func (h *CatalogHandler) InitializeAddOns(w http.ResponseWriter, r *http.Request) {
	created, err := service.SeedDefaultAddOns(r.Context(), h.store)
	if err != nil {
		h.logger.Error("initialize add-ons", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]addOnResponse, len(created))
	for i, a := range created {
		resp[i] = toAddOnResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Item modifier handlers ---

// ListModifiers handles GET /item-modifiers.
func (h *CatalogHandler) ListModifiers(w http.ResponseWriter, r *http.Request) {
	mods, err := h.store.ListItemModifiers(r.Context())
	if err != nil {
		h.logger.Error("list item modifiers", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]modifierResponse, len(mods))
	for i, m := range mods {
		resp[i] = toModifierResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateModifier handles POST /item-modifiers.
func (h *CatalogHandler) CreateModifier(w http.ResponseWriter, r *http.Request) {
	var req createModifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !enum.IsValidModifierType(req.Type) {
		writeError(w, http.StatusBadRequest, "type must be temperature or sweetness")
		return
	}

	mod, err := h.store.CreateItemModifier(r.Context(), database.CreateItemModifierParams{
		Name:      req.Name,
		Type:      req.Type,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		h.logger.Error("create item modifier", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toModifierResponse(mod))
}

// InitializeModifiers handles POST /item-modifiers/initialize.
func (h *CatalogHandler) InitializeModifiers(w http.ResponseWriter, r *http.Request) {
	created, err := service.SeedDefaultModifiers(r.Context(), h.store)
	if err != nil {
		h.logger.Error("initialize item modifiers", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]modifierResponse, len(created))
	for i, m := range created {
		resp[i] = toModifierResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}
