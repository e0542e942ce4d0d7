package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/brewpos/api/internal/database"
	"github.com/brewpos/api/internal/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// UserStore defines the database methods needed by the me handler.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (database.User, error)
}

// MeHandler reports the authenticated caller.
type MeHandler struct {
	store  UserStore
	logger *zap.Logger
}

func NewMeHandler(store UserStore, logger *zap.Logger) *MeHandler {
	return &MeHandler{store: store, logger: logger}
}

type meResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
}

// Get handles GET /me. Users unknown to the local table are described from
// their token.
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	resp := meResponse{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.EffectiveRole(),
	}

	user, err := h.store.GetUser(r.Context(), claims.UserID)
	switch {
	case err == nil:
		resp.Email = user.Email
		resp.FullName = user.FullName
		if user.Role != "" {
			resp.Role = user.Role
		}
	case errors.Is(err, pgx.ErrNoRows):
	default:
		h.logger.Error("get user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
