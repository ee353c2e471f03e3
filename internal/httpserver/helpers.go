package httpserver

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	middleware "github.com/Skotchmaster/quickcommerce/pkg/middleware/auth"
	"github.com/Skotchmaster/quickcommerce/pkg/util"
)

// Errors maps service errors onto HTTP responses.
var Errors = httpx.NewErrorMapper(
	httpx.Mapping{Err: service.ErrValidation, Status: http.StatusBadRequest, Code: "validation_error"},
	httpx.Mapping{Err: service.ErrUnauthorized, Status: http.StatusUnauthorized, Code: "unauthorized"},
	httpx.Mapping{Err: service.ErrForbidden, Status: http.StatusForbidden, Code: "forbidden"},
	httpx.Mapping{Err: service.ErrNotFound, Status: http.StatusNotFound, Code: "not_found"},
	httpx.Mapping{Err: gorm.ErrRecordNotFound, Status: http.StatusNotFound, Code: "not_found"},
	httpx.Mapping{Err: service.ErrConflict, Status: http.StatusConflict, Code: "conflict"},
	httpx.Mapping{Err: gorm.ErrDuplicatedKey, Status: http.StatusConflict, Code: "conflict"},
)

// fail logs a failed request the way every handler does and hands the error
// to the central error handler.
func fail(l *slog.Logger, event string, err error) error {
	status, _ := Errors.Status(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", err.Error())
	}
	return err
}

func bind(c echo.Context, l *slog.Logger, event string, dst any) error {
	if err := c.Bind(dst); err != nil {
		l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return nil
}

func actor(c echo.Context) service.Actor {
	a := service.Actor{}
	a.UserID, _ = c.Get(middleware.CtxUserID).(uint)
	a.Role, _ = c.Get(middleware.CtxRole).(string)
	if v, ok := c.Get(middleware.CtxOrgID).(uint); ok {
		a.OrgID = &v
	}
	if v, ok := c.Get(middleware.CtxStoreID).(uint); ok {
		a.StoreID = &v
	}
	return a
}

func paramID(c echo.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return uint(n), nil
}

// queryID reads an optional positive integer query parameter.
func queryID(c echo.Context, name string) (*uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	v := uint(n)
	return &v, nil
}

func pageOf(c echo.Context) util.Page {
	return util.Calculate(
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	)
}

func window(p util.Page) repo.Window {
	return repo.Window{Limit: p.Size, Offset: p.Offset}
}
