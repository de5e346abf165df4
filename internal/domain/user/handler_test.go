package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcity/internal/database/dbtest"
	"smartcity/internal/middleware"
	"smartcity/internal/pkg/jwt"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t, &User{})
	j := jwt.New("test-secret", time.Hour)
	h := NewHandler(NewService(NewRepository(db), j, nil))

	r := gin.New()
	v1 := r.Group("/api/v1")
	h.RegisterPublicRoutes(v1)
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(j))
	h.RegisterProtectedRoutes(protected)
	return r
}

func doJSONRequest(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSONRequest(r, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"name": "Zanele", "email": "zanele@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var reg authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.NotEmpty(t, reg.Token)

	w = doJSONRequest(r, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"name": "Zanele", "email": "zanele@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "User already exists")

	w = doJSONRequest(r, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "zanele@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var login authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = doJSONRequest(r, http.MethodGet, "/api/v1/users/me", nil, login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "zanele@example.com")

	w = doJSONRequest(r, http.MethodPut, "/api/v1/users/me", map[string]any{"bio": "Tutor"}, login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tutor")

	w = doJSONRequest(r, http.MethodGet, "/api/v1/users/"+reg.User.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "zanele@example.com")
}

func TestHandler_Errors(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSONRequest(r, http.MethodGet, "/api/v1/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSONRequest(r, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "ghost@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSONRequest(r, http.MethodPost, "/api/v1/auth/login", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSONRequest(r, http.MethodGet, "/api/v1/users/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
