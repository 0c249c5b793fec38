package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/santos/internal/audit"
	"github.com/mrlokans/santos/internal/auth"
	"github.com/mrlokans/santos/internal/catalog"
	"github.com/mrlokans/santos/internal/config"
	"github.com/mrlokans/santos/internal/database"
	auditrepo "github.com/mrlokans/santos/internal/database/audit"
	"github.com/mrlokans/santos/internal/database/categories"
	"github.com/mrlokans/santos/internal/database/saints"
	"github.com/mrlokans/santos/internal/database/users"
	"github.com/mrlokans/santos/internal/entities"
	"github.com/mrlokans/santos/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	db      *database.Database
	audit   *audit.Service
	metrics *metrics.Metrics
	authSvc *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test adjust the router config before the router is built.
func newTestServerWith(t *testing.T, adjust func(*RouterConfig)) *testServer {
	t.Helper()

	db, err := database.NewDatabase(config.Database{
		Driver:   config.DatabaseDriverSQLite,
		Path:     filepath.Join(t.TempDir(), "santos.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	authCfg := config.Auth{
		JWTSecret:        "router-test-secret-with-enough-entropy",
		TokenExpiry:      time.Hour,
		BcryptCost:       bcrypt.MinCost,
		MaintainerEmail:  "maintainer@example.com",
		MaxLoginAttempts: 5,
		RateLimitWindow:  15 * time.Minute,
		LockoutDuration:  15 * time.Minute,
	}

	issuer, err := auth.NewTokenIssuer(authCfg.JWTSecret, authCfg.TokenExpiry)
	require.NoError(t, err)
	authSvc, err := auth.NewService(users.NewRepository(db.DB), issuer, authCfg)
	require.NoError(t, err)

	auditSvc := audit.NewService(auditrepo.NewRepository(db.DB))
	t.Cleanup(auditSvc.Wait)

	m := metrics.New()
	authController := auth.NewAuthController(authSvc, authCfg, auditSvc, m)
	t.Cleanup(authController.Stop)

	saintRepo := saints.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)
	routerCfg := RouterConfig{
		Catalog:        catalog.NewService(saintRepo, categories.NewRepository(db.DB)),
		Database:       db,
		AuthController: authController,
		AuthMiddleware: auth.NewMiddleware(authSvc, authSvc),
		Auditor:        auditSvc,
		AuditReader:    auditSvc,
		Metrics:        m,
		Counters:       map[string]RecordCounter{"saints": saintRepo, "users": userRepo},
		AllowedOrigins: []string{"https://app.example.com"},
		Version:        "test",
	}
	if adjust != nil {
		adjust(&routerCfg)
	}
	router := NewRouter(routerCfg)

	return &testServer{router: router, db: db, audit: auditSvc, metrics: m, authSvc: authSvc}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login registers a user and returns a bearer token for it.
func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "senha": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  string `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, email, resp.User)
	return resp.Token
}

func TestRouter_EndToEndSaintLifecycle(t *testing.T) {
	s := newTestServer(t)

	token := s.login(t, "a@x.com", "Passw0rd!")

	w := s.do(http.MethodPost, "/api/santos", token, map[string]any{
		"nome":     "Santa Teresinha",
		"titulo":   "Doutora da Igreja",
		"historia": "Carmelita de Lisieux",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created entities.Saint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	assert.Equal(t, entities.DefaultCategoryID, created.CategoryID)
	assert.Equal(t, entities.PlaceholderImageURL, created.PhotoURL)
	assert.GreaterOrEqual(t, len(created.Images), entities.MinGalleryImages)
	assert.Equal(t, "/api/santos/"+itoa(created.ID), w.Header().Get("Location"))

	w = s.do(http.MethodGet, "/api/santos/"+itoa(created.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched entities.Saint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, uint(11), fetched.CategoryID)
	assert.Equal(t, entities.PlaceholderImageURL, fetched.PhotoURL)
	assert.Len(t, fetched.Images, 3)
	require.NotNil(t, fetched.Category)
	assert.Equal(t, "Geral", fetched.Category.Name)

	w = s.do(http.MethodDelete, "/api/santos/"+itoa(created.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = s.do(http.MethodGet, "/api/santos/"+itoa(created.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_WritesRequireToken(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/santos"},
		{http.MethodPut, "/api/santos/1"},
		{http.MethodDelete, "/api/santos/1"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := s.do(tt.method, tt.path, "", map[string]any{"id": 1, "nome": "X"})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		})
	}

	w := s.do(http.MethodPost, "/api/santos", "not-a-token", map[string]any{"nome": "X"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_LoginFailuresShareMessage(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "user@example.com", "Passw0rd!")

	wrongPassword := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "user@example.com", "password": "Wrong0rd!"})
	unknownUser := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "Passw0rd!"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestRouter_UpdateSaint(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "editor@example.com", "Passw0rd!")

	w := s.do(http.MethodPost, "/api/santos", token, map[string]any{
		"nome":        "Francisco",
		"categoriaId": 3,
		"corHex":      "#8B4513",
		"milagres":    []map[string]string{{"titulo": "Lobo de Gubbio"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created entities.Saint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	path := "/api/santos/" + itoa(created.ID)

	t.Run("id mismatch is rejected", func(t *testing.T) {
		w := s.do(http.MethodPut, path, token, map[string]any{"id": created.ID + 1, "nome": "Outro"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "id_mismatch")
	})

	t.Run("missing saint", func(t *testing.T) {
		w := s.do(http.MethodPut, "/api/santos/9999", token, map[string]any{"id": 9999, "nome": "Ninguém"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing saint with unknown category", func(t *testing.T) {
		w := s.do(http.MethodPut, "/api/santos/9999", token, map[string]any{"id": 9999, "nome": "Ninguém", "categoriaId": 99})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown category", func(t *testing.T) {
		w := s.do(http.MethodPut, path, token, map[string]any{"id": created.ID, "nome": "F", "categoriaId": 99})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown_category")
	})

	t.Run("replaces scalars and children", func(t *testing.T) {
		w := s.do(http.MethodPut, path, token, map[string]any{
			"id":     created.ID,
			"nome":   "São Francisco de Assis",
			"locais": []map[string]string{{"nomeLugar": "Assis, Itália"}},
		})
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = s.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got entities.Saint
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "São Francisco de Assis", got.Name)
		assert.Empty(t, got.Color, "empty corHex is stored as sent")
		assert.Equal(t, entities.DefaultCategoryID, got.CategoryID)
		assert.Empty(t, got.Miracles)
		require.Len(t, got.Places, 1)
		assert.Len(t, got.Images, 3)
	})
}

func TestRouter_BatchAndQueries(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/santos/lote", "", []map[string]any{
		{"nome": "Pedro", "categoriaId": 5, "historia": "Pescador"},
		{"nome": "Paulo", "categoriaId": 5, "historia": "Apóstolo dos gentios"},
		{"nome": "Mônica", "historia": "Mãe de Agostinho"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var batch struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	assert.Equal(t, 3, batch.Count)
	assert.Contains(t, batch.Message, "3")

	var list []entities.Saint
	w = s.do(http.MethodGet, "/api/santos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "Pedro", list[0].Name)
	assert.Equal(t, entities.DefaultCategoryID, list[2].CategoryID)

	w = s.do(http.MethodGet, "/api/santos/categoria/5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = s.do(http.MethodGet, "/api/santos/busca/AGOSTINHO", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Mônica", list[0].Name)

	w = s.do(http.MethodGet, "/api/santos/busca/nada", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	assert.Equal(t, float64(3), testutil.ToFloat64(s.metrics.SaintWrites.WithLabelValues("batch")))
}

func TestRouter_BatchRejectsEmptyInput(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{"[]", "null", "{", ""} {
		t.Run(body, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/santos/lote", "", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRouter_InvalidIDs(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/santos/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/santos/categoria/-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Categories(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/categorias", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []entities.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 12)
	assert.Equal(t, uint(11), list[10].ID)
}

func TestRouter_AuditRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "boss@example.com", "Passw0rd!")

	w := s.do(http.MethodGet, "/api/audit", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/audit", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/debug/make-admin", "", `"boss@example.com"`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/santos", token, map[string]any{"nome": "Bento"})
	require.Equal(t, http.StatusCreated, w.Code)
	s.audit.Wait()

	w = s.do(http.MethodGet, "/api/audit?type=create&limit=10", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page struct {
		Data  []entities.AuditEvent `json:"data"`
		Total int64                 `json:"total"`
		Limit int                   `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "saint_create", page.Data[0].Action)
	assert.Equal(t, "boss@example.com", page.Data[0].UserEmail)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	s.login(t, "counted@example.com", "Passw0rd!")
	w := s.do(http.MethodPost, "/api/santos/lote", "", []map[string]any{{"nome": "Pedro"}, {"nome": "Paulo"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Checks["database"])
	assert.Equal(t, int64(2), health.Counts["saints"])
	assert.Equal(t, int64(1), health.Counts["users"])

	w = s.do(http.MethodGet, "/ping", "", nil)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "santos_http_requests_total")
}

func TestRouter_CommonHeaders(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categorias", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS is off unless enabled")
}

func TestRouter_HSTSWhenEnabled(t *testing.T) {
	s := newTestServerWith(t, func(cfg *RouterConfig) { cfg.EnableHSTS = true })

	req := httptest.NewRequest(http.MethodGet, "/api/categorias", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=")

	w = s.do(http.MethodGet, "/api/categorias", "", nil)
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "plain HTTP never gets HSTS")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
