package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/brewpos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionServicer defines the service methods needed by transaction
// history handlers. Satisfied by *service.CartService.
type TransactionServicer interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*service.CartDetail, error)
	ListCompletedTransactions(ctx context.Context, req service.ListTransactionsRequest) ([]service.CartDetail, error)
}

// TransactionHandler serves completed transaction history.
type TransactionHandler struct {
	svc    TransactionServicer
	loc    *time.Location
	logger *zap.Logger
}

// NewTransactionHandler creates a TransactionHandler. Date filters are
// interpreted in loc.
func NewTransactionHandler(svc TransactionServicer, loc *time.Location, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{svc: svc, loc: loc, logger: logger}
}

// RegisterRoutes registers transaction endpoints. Mounted at /transactions.
func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// List handles GET /transactions?start_date=&end_date=&limit=.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var limit int32
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = int32(v)
	}

	txns, err := h.svc.ListCompletedTransactions(r.Context(), service.ListTransactionsRequest{
		StartAt: start,
		EndAt:   end,
		Limit:   limit,
	})
	if err != nil {
		writeServiceError(w, h.logger, "list transactions", err)
		return
	}

	resp := make([]cartResponse, len(txns))
	for i, t := range txns {
		resp[i] = toCartResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /transactions/{id}.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	detail, err := h.svc.GetTransaction(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(*detail))
}
