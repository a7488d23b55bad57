package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/domain/market"
	"github.com/x-xyz/gomarket/domain/order"
	"github.com/x-xyz/gomarket/service/query"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

var badRequestErrors = []error{
	domain.ErrBadParamInput,
	domain.ErrInvalidNumberFormat,
	domain.ErrInvalidCurrency,
	domain.ErrInvalidAddress,
	market.ErrFeeTooHigh,
	market.ErrZeroTreasury,
	ledger.ErrNonexistentToken,
	ledger.ErrNotOwnerNorApproved,
	ledger.ErrUnknownContract,
	ledger.ErrInsufficientBalance,
	ledger.ErrInsufficientAllowance,
	ledger.ErrInsufficientNative,
}

// StatusOf maps a usecase error to the http status it is reported with
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, query.ErrNotFound), errors.Is(err, order.ErrOrderNotExist):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, market.ErrNotOwner), order.IsAuthorizationError(err):
		return http.StatusForbidden
	case errors.Is(err, order.ErrEngineBusy):
		return http.StatusServiceUnavailable
	case order.IsValidationError(err):
		return http.StatusBadRequest
	}
	for _, e := range badRequestErrors {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// MakeJsonResp writes the {data, status} envelope. An error as data overrides status with StatusOf.
func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		status = StatusOf(err)
		data = err.Error()
	}

	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}

	if status >= 200 && status < 300 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
	}

	return c.JSON(status, data)
}
