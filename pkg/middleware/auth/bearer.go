package middleware

import (
	"net/http"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/pkg/logging"
	"github.com/Skotchmaster/quickcommerce/pkg/tokens"
)

const (
	CtxUserID  = "user_id"
	CtxRole    = "role"
	CtxOrgID   = "org_id"
	CtxStoreID = "store_id"

	ctxToken = "jwt"
)

type BearerAuth struct {
	JWTSecret []byte
}

func NewBearerAuth(secret []byte) *BearerAuth {
	return &BearerAuth{JWTSecret: secret}
}

// RequireAuth accepts "Authorization: Bearer <token>" and, for websocket
// upgrades that cannot set headers, "?token=<token>".
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		SigningKey:    m.JWTSecret,
		SigningMethod: "HS256",
		ContextKey:    ctxToken,
		TokenLookup:   "header:Authorization:Bearer ,query:token",
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.AccessClaims) },
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid access token")
		},
	})
	return parse(func(c echo.Context) error {
		token, ok := c.Get(ctxToken).(*jwt.Token)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid access token")
		}
		claims, ok := token.Claims.(*tokens.AccessClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
		}
		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
		}
		setUserContext(c, userID, claims)
		return next(c)
	})
}

func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing role")
			}
			if !slices.Contains(roles, role) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights for this resource")
			}
			return next(c)
		}
	}
}

func setUserContext(c echo.Context, userID uint, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, userID)
	c.Set(CtxRole, claims.Role)
	if claims.OrgID != nil {
		c.Set(CtxOrgID, *claims.OrgID)
	}
	if claims.StoreID != nil {
		c.Set(CtxStoreID, *claims.StoreID)
	}
	req := c.Request()
	c.SetRequest(req.WithContext(logging.WithTenant(req.Context(), logging.Tenant{
		UserID: userID, Role: claims.Role, OrgID: claims.OrgID, StoreID: claims.StoreID,
	})))
}
