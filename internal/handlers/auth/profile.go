package auth

import (
	"database/sql"
	"net/http"

	"github.com/flyMoon99/fysl/internal/middleware"
	"github.com/flyMoon99/fysl/internal/pkg/response"
)

type ProfileHandler struct {
	db *sql.DB
}

func NewProfileHandler(db *sql.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(r.Context())

	table := "admins"
	if role == "member" {
		table = "members"
	}

	var username, status string
	err := h.db.QueryRowContext(r.Context(),
		"SELECT username, status FROM "+table+" WHERE id = $1", userID).Scan(&username, &status)
	if err != nil {
		response.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"id":       userID,
		"username": username,
		"role":     role,
		"status":   status,
	})
}
