package httpx

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quickcommerce/pkg/util"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Meta    *util.Meta `json:"meta,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func Accepted(c echo.Context, data any) error {
	return c.JSON(http.StatusAccepted, Envelope{Success: true, Data: data})
}

func List(c echo.Context, data any, meta util.Meta) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Meta: &meta})
}

func Fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Envelope{Error: &ErrorBody{Code: code, Message: message}})
}
