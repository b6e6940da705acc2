package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"marine-catalog/internal/logger"
)

const tokenTTL = 24 * time.Hour

// LoginHandler exchanges the configured admin credentials for a signed
// admin token. Comparison is constant-time.
type LoginHandler struct {
	username string
	password string
}

// NewLoginHandler creates a login handler for the configured credentials.
func NewLoginHandler(username, password string) *LoginHandler {
	return &LoginHandler{username: username, password: password}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

type loginError struct {
	Error string `json:"error"`
}

// Login handles POST /login.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLoginJSON(w, http.StatusBadRequest, loginError{Error: "invalid request body"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username))
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.password))
	if userOK&passOK != 1 {
		writeLoginJSON(w, http.StatusUnauthorized, loginError{Error: "Invalid username or password"})
		return
	}

	token, err := IssueToken(req.Username, []string{RoleAdmin}, tokenTTL)
	if err != nil {
		logger.Errorf("Login: issue token: %v", err)
		writeLoginJSON(w, http.StatusInternalServerError, loginError{Error: "Login failed"})
		return
	}

	writeLoginJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Token:   token,
		Message: "Login successful",
	})
}

func writeLoginJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
