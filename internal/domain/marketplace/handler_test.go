package marketplace

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcity/internal/middleware"
	"smartcity/internal/pkg/jwt"
)

type handlerEnv struct {
	*testEnv
	router *gin.Engine
	jwt    *jwt.Service
}

func setupTestRouter(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := setupTestService(t)
	j := jwt.New("test-secret", time.Hour)
	h := NewHandler(env.svc)

	r := gin.New()
	v1 := r.Group("/api/v1")
	public := v1.Group("", middleware.OptionalJWTAuth(j))
	h.RegisterPublicRoutes(public)
	protected := v1.Group("", middleware.JWTAuth(j))
	h.RegisterProtectedRoutes(protected)
	return &handlerEnv{testEnv: env, router: r, jwt: j}
}

func (h *handlerEnv) token(t *testing.T, id uuid.UUID, role string) string {
	t.Helper()
	tok, err := h.jwt.GenerateToken(id.String(), role)
	require.NoError(t, err)
	return tok
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

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestProposalEndpoints(t *testing.T) {
	h := setupTestRouter(t)
	owner := h.user(t, "Lindiwe")
	provider := h.user(t, "Bongani")
	stranger := h.user(t, "Themba")
	req := h.request(t, owner, "Fix leaking tap")

	ownerTok := h.token(t, owner, "learner")
	providerTok := h.token(t, provider, "mentor")
	strangerTok := h.token(t, stranger, "learner")

	body := map[string]any{"requestId": req.ID, "description": "Can do", "price": 100, "deliveryTime": "2 days"}

	w := doJSONRequest(h.router, http.MethodPost, "/api/v1/proposals", body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSONRequest(h.router, http.MethodPost, "/api/v1/proposals", body, ownerTok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CONFLICT", decode(t, w)["code"])

	w = doJSONRequest(h.router, http.MethodPost, "/api/v1/proposals", map[string]any{"requestId": req.ID}, providerTok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])

	w = doJSONRequest(h.router, http.MethodPost, "/api/v1/proposals", body, providerTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	proposal := decode(t, w)["proposal"].(map[string]any)
	proposalPath := "/api/v1/proposals/" + proposal["id"].(string)

	w = doJSONRequest(h.router, http.MethodGet, proposalPath, nil, strangerTok)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSONRequest(h.router, http.MethodGet, "/api/v1/proposals/"+uuid.NewString(), nil, ownerTok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSONRequest(h.router, http.MethodPut, proposalPath, map[string]any{"status": "ACCEPTED"}, providerTok)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSONRequest(h.router, http.MethodPut, proposalPath, map[string]any{"status": "WHATEVER"}, ownerTok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSONRequest(h.router, http.MethodPut, proposalPath, map[string]any{"status": "ACCEPTED"}, ownerTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ACCEPTED", decode(t, w)["proposal"].(map[string]any)["status"])

	w = doJSONRequest(h.router, http.MethodDelete, proposalPath, nil, providerTok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot delete an accepted or completed proposal", decode(t, w)["error"])

	w = doJSONRequest(h.router, http.MethodGet, "/api/v1/proposals?requestId="+req.ID.String(), nil, ownerTok)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Len(t, page["items"], 1)
	assert.EqualValues(t, 1, page["pagination"].(map[string]any)["total"])
}

func TestTransactionEndpoints(t *testing.T) {
	h := setupTestRouter(t)
	eg := h.engage(t)
	clientTok := h.token(t, eg.client, "learner")
	providerTok := h.token(t, eg.provider, "mentor")
	path := "/api/v1/transactions/" + eg.tx.ID.String()

	w := doJSONRequest(h.router, http.MethodPut, path, map[string]any{"clientRating": 6}, clientTok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Rating must be between 1 and 5", decode(t, w)["error"])

	w = doJSONRequest(h.router, http.MethodPost, "/api/v1/payments", map[string]any{"transactionId": eg.tx.ID, "paymentMethod": "card"}, providerTok)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSONRequest(h.router, http.MethodPost, "/api/v1/payments", map[string]any{"transactionId": eg.tx.ID, "paymentMethod": "card"}, clientTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "succeeded", decode(t, w)["payment"].(map[string]any)["status"])

	w = doJSONRequest(h.router, http.MethodPut, path, map[string]any{"status": "COMPLETED", "clientRating": 5}, clientTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tx := decode(t, w)["transaction"].(map[string]any)
	assert.Equal(t, "COMPLETED", tx["status"])
	assert.NotEmpty(t, tx["completedAt"])

	w = doJSONRequest(h.router, http.MethodGet, "/api/v1/transactions?role=provider", nil, providerTok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)

	w = doJSONRequest(h.router, http.MethodGet, "/api/v1/admin/transactions", nil, clientTok)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSONRequest(h.router, http.MethodGet, "/api/v1/admin/transactions", nil, h.token(t, uuid.New(), "admin"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBrowseEndpoints(t *testing.T) {
	h := setupTestRouter(t)
	provider := h.user(t, "Bongani")
	providerTok := h.token(t, provider, "mentor")

	w := doJSONRequest(h.router, http.MethodPost, "/api/v1/service-offerings", map[string]any{
		"title": "Tap repairs", "description": "Washers", "category": "home repairs",
		"price": 300, "deliveryTime": "1 day", "features": []string{"Parts included"},
	}, providerTok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	offering := decode(t, w)["offering"].(map[string]any)
	assert.Equal(t, []any{"Parts included"}, offering["features"])
	path := "/api/v1/service-offerings/" + offering["id"].(string)

	w = doJSONRequest(h.router, http.MethodPut, path, map[string]any{"isActive": false}, providerTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSONRequest(h.router, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSONRequest(h.router, http.MethodGet, path, nil, providerTok)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSONRequest(h.router, http.MethodGet, "/api/v1/service-offerings?providerId="+provider.String(), nil, providerTok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)

	w = doJSONRequest(h.router, http.MethodGet, "/api/v1/service-requests?userId=not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSONRequest(h.router, http.MethodGet, "/api/v1/service-requests/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
