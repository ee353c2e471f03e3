package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

// Mapping binds a sentinel error to the response it produces.
type Mapping struct {
	Err    error
	Status int
	Code   string
}

type ErrorMapper struct {
	mappings []Mapping
}

func NewErrorMapper(m ...Mapping) *ErrorMapper {
	return &ErrorMapper{mappings: m}
}

// Status classifies err. Unknown errors are 500.
func (m *ErrorMapper) Status(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, codeForStatus(he.Code)
	}
	for _, mp := range m.mappings {
		if errors.Is(err, mp.Err) {
			return mp.Status, mp.Code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// Handler renders every error as the failure envelope. 5xx messages are
// replaced so internal details never reach the client.
func (m *ErrorMapper) Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, code := m.Status(err)
	msg := message(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", status, "error", err)
		msg = "internal error"
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = Fail(c, status, code, msg)
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response_failed", "error", werr)
	}
}

func message(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if s, ok := he.Message.(string); ok {
			return s
		}
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}
