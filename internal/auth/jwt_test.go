package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := IssueToken("admin", []string{RoleAdmin}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.True(t, HasRole(claims.Roles, RoleAdmin))
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := IssueToken("admin", []string{RoleAdmin}, time.Hour)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "other-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := IssueToken("admin", []string{RoleAdmin}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestGetBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetBearerToken(r))

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", GetBearerToken(r))

	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Empty(t, GetBearerToken(r))
}

func TestLoginSuccess(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	h := NewLoginHandler("skipper", "hunter2")

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"skipper","password":"hunter2"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Login successful", resp.Message)

	claims, err := ParseToken(resp.Token)
	require.NoError(t, err)
	assert.True(t, HasRole(claims.Roles, RoleAdmin))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	h := NewLoginHandler("skipper", "hunter2")

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"skipper","password":"wrong"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	h := NewLoginHandler("skipper", "hunter2")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	h.Login(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
