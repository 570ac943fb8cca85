package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/emanuelrdz/billarpos/internal/repository"
)

// getOperatorID extracts the user_id placed in the context by the JWT
// middleware and converts it to uint64.
func getOperatorID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// domainError maps repository sentinel errors to HTTP responses so all
// handlers answer consistently. Conflicting state maps to 409, bad
// input to 400, short stock to 422 and missing rows to 404; anything
// unrecognized becomes a 500 without leaking internals.
func domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrTableBusy),
		errors.Is(err, repository.ErrSessionNotActive),
		errors.Is(err, repository.ErrPaymentAlreadyCancelled),
		errors.Is(err, repository.ErrShiftAlreadyOpen),
		errors.Is(err, repository.ErrShiftClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrInvalidAmount),
		errors.Is(err, repository.ErrReferenceRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrInsufficientStock):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrRatePlanNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrPaymentNotFound),
		errors.Is(err, repository.ErrMethodNotFound),
		errors.Is(err, repository.ErrShiftNotFound),
		errors.Is(err, repository.ErrSaleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
