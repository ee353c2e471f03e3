package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/quickcommerce/pkg/logging"
	"github.com/Skotchmaster/quickcommerce/pkg/tokens"
)

var secret = []byte("test-secret")

func issue(t *testing.T, role string) string {
	t.Helper()
	store := uint(9)
	pair, err := tokens.Issuer{
		AccessSecret:  secret,
		RefreshSecret: []byte("refresh"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}.Issue(5, role, nil, &store, time.Now())
	require.NoError(t, err)
	return pair.AccessToken
}

func newServer() *echo.Echo {
	e := echo.New()
	auth := NewBearerAuth(secret)
	g := e.Group("/p", auth.RequireAuth)
	g.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id":  c.Get(CtxUserID),
			"role":     c.Get(CtxRole),
			"store_id": c.Get(CtxStoreID),
		})
	})
	g.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireRoles("SUPER_ADMIN", "ORG_ADMIN"))
	return e
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	e := newServer()
	tok := issue(t, "STAFF")

	tests := []struct {
		name   string
		target string
		header string
		code   int
	}{
		{name: "missing token", target: "/p/me", code: http.StatusUnauthorized},
		{name: "garbage token", target: "/p/me", header: "Bearer nope", code: http.StatusUnauthorized},
		{name: "bearer header", target: "/p/me", header: "Bearer " + tok, code: http.StatusOK},
		{name: "query token", target: "/p/me?token=" + tok, code: http.StatusOK},
		{name: "role forbidden", target: "/p/admin", header: "Bearer " + tok, code: http.StatusForbidden},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestRequireRoles_Allows(t *testing.T) {
	t.Parallel()

	e := newServer()
	req := httptest.NewRequest(http.MethodGet, "/p/admin", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+issue(t, "ORG_ADMIN"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAuth_TagsRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), logging.NewWithWriter(&buf, "info"))))
			return next(c)
		}
	})
	e.GET("/me", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("profile_read")
		return c.NoContent(http.StatusNoContent)
	}, NewBearerAuth(secret).RequireAuth)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+issue(t, "STAFF"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.EqualValues(t, 5, line["user_id"])
	assert.Equal(t, "STAFF", line["role"])
	assert.EqualValues(t, 9, line["store_id"])
	assert.NotContains(t, line, "org_id")
}
