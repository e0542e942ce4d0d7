package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/brewpos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AnalyticsServicer defines the service methods needed by analytics
// handlers. Satisfied by *service.AnalyticsService.
type AnalyticsServicer interface {
	WeeklySales(ctx context.Context) ([]service.DailySales, error)
	MonthlySales(ctx context.Context) ([]service.DailySales, error)
	ItemRanking(ctx context.Context, startAt, endAt *time.Time) ([]service.ItemRank, error)
}

// AnalyticsHandler serves sales aggregates.
type AnalyticsHandler struct {
	svc    AnalyticsServicer
	loc    *time.Location
	logger *zap.Logger
}

func NewAnalyticsHandler(svc AnalyticsServicer, loc *time.Location, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, loc: loc, logger: logger}
}

// RegisterRoutes registers analytics endpoints. Mounted at /analytics.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/weekly-sales", h.WeeklySales)
	r.Get("/monthly-sales", h.MonthlySales)
	r.Get("/item-ranking", h.ItemRanking)
}

type dailySalesResponse struct {
	Date             string `json:"date"`
	Day              string `json:"day"`
	Total            string `json:"total"`
	TransactionCount int64  `json:"transaction_count"`
}

type itemRankResponse struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Quantity   int64  `json:"quantity"`
	Revenue    string `json:"revenue"`
}

func toDailySalesResponse(days []service.DailySales) []dailySalesResponse {
	resp := make([]dailySalesResponse, len(days))
	for i, d := range days {
		resp[i] = dailySalesResponse{
			Date:             d.Date,
			Day:              d.Day,
			Total:            d.Total.StringFixed(2),
			TransactionCount: d.TransactionCount,
		}
	}
	return resp
}

// WeeklySales handles GET /analytics/weekly-sales.
func (h *AnalyticsHandler) WeeklySales(w http.ResponseWriter, r *http.Request) {
	days, err := h.svc.WeeklySales(r.Context())
	if err != nil {
		h.logger.Error("weekly sales", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toDailySalesResponse(days))
}

// MonthlySales handles GET /analytics/monthly-sales.
func (h *AnalyticsHandler) MonthlySales(w http.ResponseWriter, r *http.Request) {
	days, err := h.svc.MonthlySales(r.Context())
	if err != nil {
		h.logger.Error("monthly sales", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toDailySalesResponse(days))
}

// ItemRanking handles GET /analytics/item-ranking?start_date=&end_date=.
func (h *AnalyticsHandler) ItemRanking(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ranks, err := h.svc.ItemRanking(r.Context(), start, end)
	if err != nil {
		h.logger.Error("item ranking", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]itemRankResponse, len(ranks))
	for i, rk := range ranks {
		resp[i] = itemRankResponse{
			MenuItemID: rk.MenuItemID,
			Name:       rk.Name,
			Category:   rk.Category,
			Quantity:   rk.Quantity,
			Revenue:    rk.Revenue.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
