package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/brewpos/api/internal/middleware"
	"github.com/brewpos/api/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors to HTTP statuses. Anything
// unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrModifierNotFound),
		errors.Is(err, service.ErrCartNotFound),
		errors.Is(err, service.ErrLineItemNotFound),
		errors.Is(err, service.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidModifier),
		errors.Is(err, service.ErrInvalidDiscount),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrMenuItemInactive),
		errors.Is(err, service.ErrAddOnNotEligible):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCartConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error(op, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireUser returns the caller's user id, writing a 401 when the request
// carries no claims.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil || claims.UserID == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return uuid.Nil, false
	}
	return claims.UserID, true
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func optionalNumericString(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := numericToString(n)
	return &s
}

func optionalTime(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

var errNegativeAmount = errors.New("negative amount")

// parseMoney parses a non-negative decimal string into a NUMERIC value.
func parseMoney(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativeAmount
	}
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

// parseDateRange reads optional start_date and end_date query parameters
// (YYYY-MM-DD in loc). end_date covers the whole day.
func parseDateRange(r *http.Request, loc *time.Location) (start, end *time.Time, err error) {
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return nil, nil, errors.New("invalid start_date format, use YYYY-MM-DD")
		}
		start = &t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return nil, nil, errors.New("invalid end_date format, use YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, errors.New("end_date must not be before start_date")
	}
	return start, end, nil
}

func parseUUIDs(ss []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
