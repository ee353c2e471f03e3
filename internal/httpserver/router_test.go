package httpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/realtime"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/pkg/config"
	"github.com/Skotchmaster/quickcommerce/pkg/db"
	"github.com/Skotchmaster/quickcommerce/pkg/tokens"
)

var testSecret = []byte("router-test-secret")

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "router.db")
	gdb, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), db.GormConfig())
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = db.Close(gdb) })

	svc := service.New(service.Deps{
		Repo: &repo.GormRepo{DB: gdb},
		Issuer: tokens.Issuer{
			AccessSecret:  testSecret,
			RefreshSecret: []byte("router-refresh-secret"),
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
		},
		Business:  config.Defaults().Business,
		Locations: realtime.NewMemoryLocationCache(),
	})

	e := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	Register(e, NewDeps(gdb, testSecret, svc, realtime.NewHub()))
	return e, gdb
}

func do(t *testing.T, e *echo.Echo, method, target, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func registerCustomer(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()

	rec, env := do(t, e, http.MethodPost, "/auth/register", "",
		`{"name":"Asha","email":"`+email+`","password":"correct-horse-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		User   models.User `json:"user"`
		Tokens tokens.Pair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.RoleCustomer, res.User.Role)
	require.NotEmpty(t, res.Tokens.AccessToken)
	return res.Tokens.AccessToken
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)

	rec, _ := do(t, e, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AuthGuards(t *testing.T) {
	e, _ := newTestServer(t)

	rec, env := do(t, e, http.MethodGet, "/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthorized", env.Error.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, e, http.MethodGet, "/orders", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := registerCustomer(t, e, "asha@example.com")

	rec, env = do(t, e, http.MethodPost, "/delivery-trips", token, `{"store_id":1,"rider_id":2,"order_ids":[3]}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "forbidden", env.Error.Code)

	rec, _ = do(t, e, http.MethodPost, "/organizations", token, `{"name":"Other"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = do(t, e, http.MethodGet, "/auth/me", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestRouter_ErrorMapping(t *testing.T) {
	e, _ := newTestServer(t)
	token := registerCustomer(t, e, "ravi@example.com")

	rec, env := do(t, e, http.MethodPost, "/auth/register", "", `{"name":"Ravi","email":"RAVI@example.com","password":"correct-horse-1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "conflict", env.Error.Code)

	rec, env = do(t, e, http.MethodPost, "/orders", token, `{"store_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Code)

	rec, env = do(t, e, http.MethodPost, "/orders", token, `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Code)

	rec, _ = do(t, e, http.MethodGet, "/orders/abc", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, e, http.MethodGet, "/orders/999", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)

	rec, _ = do(t, e, http.MethodGet, "/stores/999", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_PublicCatalog(t *testing.T) {
	e, gdb := newTestServer(t)

	org := models.Organization{Name: "Fresh Mart", Slug: "fresh-mart"}
	require.NoError(t, gdb.Create(&org).Error)
	store := models.Store{OrganizationID: org.ID, Name: "Central", IsActive: true}
	require.NoError(t, gdb.Create(&store).Error)
	require.NoError(t, gdb.Create(&models.StoreProduct{
		StoreID: store.ID, SKU: "MILK-1L", Name: "Milk 1L", Price: 6000, MRP: 6500, Stock: 5, IsAvailable: true,
	}).Error)

	rec, env := do(t, e, http.MethodGet, "/stores/"+strconv.FormatUint(uint64(store.ID), 10)+"/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var items []models.StoreProduct
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Milk 1L", items[0].Name)
}


func TestRouter_RidersKeptOffServiceDesk(t *testing.T) {
	e, _ := newTestServer(t)

	org := uint(1)
	pair, err := tokens.Issuer{
		AccessSecret:  testSecret,
		RefreshSecret: []byte("router-refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}.Issue(7, models.RoleRider, &org, nil, time.Now())
	require.NoError(t, err)

	for _, target := range []string{"/support/tickets", "/support/tickets/1", "/returns", "/returns/1"} {
		rec, env := do(t, e, http.MethodGet, target, pair.AccessToken, "")
		assert.Equal(t, http.StatusForbidden, rec.Code, target)
		require.NotNil(t, env.Error, target)
		assert.Equal(t, "forbidden", env.Error.Code)
	}
	rec, _ := do(t, e, http.MethodPost, "/support/tickets/1/messages", pair.AccessToken, `{"body":"hi"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
