// handlers/auth/auth.go
package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/flyMoon99/fysl/internal/pkg/response"
	services "github.com/flyMoon99/fysl/internal/services/auth"
)

type AuthHandler struct {
	db         *sql.DB
	jwtService *services.JWTService
}

func NewAuthHandler(db *sql.DB, jwtService *services.JWTService) *AuthHandler {
	return &AuthHandler{db: db, jwtService: jwtService}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler — вход администратора.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	var id int64
	var passwordHash, role, status string
	err := h.db.QueryRowContext(r.Context(),
		"SELECT id, password_hash, role, status FROM admins WHERE username = $1",
		creds.Username).Scan(&id, &passwordHash, &role, &status)
	if err == sql.ErrNoRows || (err == nil && !services.CheckPassword(passwordHash, creds.Password)) {
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if status != "active" {
		response.RespondWithError(w, http.StatusForbidden, "Account disabled")
		return
	}

	accessToken, refreshToken, err := h.jwtService.GenerateToken(r.Context(), id, creds.Username, role)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Could not generate token")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]string{
		"token":         accessToken,
		"refresh_token": refreshToken,
		"role":          role,
	})
}

// MemberLoginHandler — вход участника (клиента). Пишет строку в журнал входов.
func (h *AuthHandler) MemberLoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	var id int64
	var passwordHash, status string
	err := h.db.QueryRowContext(r.Context(),
		"SELECT id, password_hash, status FROM members WHERE username = $1",
		creds.Username).Scan(&id, &passwordHash, &status)
	if err == sql.ErrNoRows || (err == nil && !services.CheckPassword(passwordHash, creds.Password)) {
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if status != "active" {
		response.RespondWithError(w, http.StatusForbidden, "Account disabled")
		return
	}

	if _, err := h.db.ExecContext(r.Context(),
		"INSERT INTO member_login_logs (member_id, login_ip, user_agent) VALUES ($1, $2, $3)",
		id, r.RemoteAddr, r.UserAgent()); err != nil {
		// Журнал входов не должен ломать сам вход.
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	accessToken, refreshToken, err := h.jwtService.GenerateToken(r.Context(), id, creds.Username, "member")
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Could not generate token")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]string{
		"token":         accessToken,
		"refresh_token": refreshToken,
		"role":          "member",
	})
}

func (h *AuthHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if body.RefreshToken == "" {
		response.RespondWithError(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(r.Context(), body.RefreshToken)
	if err != nil {
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	var username, role string
	err = h.db.QueryRowContext(r.Context(),
		"SELECT username, role FROM admins WHERE id = $1", userID).Scan(&username, &role)
	if err == sql.ErrNoRows {
		err = h.db.QueryRowContext(r.Context(),
			"SELECT username FROM members WHERE id = $1", userID).Scan(&username)
		role = "member"
	}
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "User not found")
		return
	}

	// Старый refresh-токен отзывается, выдаётся новая пара.
	_ = h.jwtService.RevokeRefreshToken(r.Context(), body.RefreshToken)

	accessToken, refreshToken, err := h.jwtService.GenerateToken(r.Context(), userID, username, role)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Could not generate token")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]string{
		"token":         accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.RefreshToken != "" {
		_ = h.jwtService.RevokeRefreshToken(r.Context(), body.RefreshToken)
	}
	response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
