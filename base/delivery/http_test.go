package delivery

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/domain/market"
	"github.com/x-xyz/gomarket/domain/order"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		exp  int
	}{
		{name: "order not exist", err: order.ErrOrderNotExist, exp: http.StatusNotFound},
		{name: "wrapped not found", err: xerrors.Errorf("find: %w", domain.ErrNotFound), exp: http.StatusNotFound},
		{name: "not creator", err: order.ErrNotOrderCreator, exp: http.StatusForbidden},
		{name: "not market owner", err: market.ErrNotOwner, exp: http.StatusForbidden},
		{name: "unauthorized", err: domain.ErrUnauthorized, exp: http.StatusUnauthorized},
		{name: "price zero", err: order.ErrPriceZero, exp: http.StatusBadRequest},
		{name: "auction over", err: order.ErrAuctionOver, exp: http.StatusBadRequest},
		{name: "insufficient balance", err: ledger.ErrInsufficientBalance, exp: http.StatusBadRequest},
		{name: "engine busy", err: order.ErrEngineBusy, exp: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), exp: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.exp, StatusOf(tt.err))
		})
	}
}

func TestMakeJsonResp(t *testing.T) {
	req := require.New(t)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	req.NoError(MakeJsonResp(c, http.StatusOK, map[string]int{"id": 1}))
	req.Equal(http.StatusOK, rec.Code)
	res := map[string]interface{}{}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	req.Equal("success", res["status"])

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	req.NoError(MakeJsonResp(c, http.StatusInternalServerError, order.ErrBidTooLow))
	req.Equal(http.StatusBadRequest, rec.Code)
	res = map[string]interface{}{}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	req.Equal("fail", res["status"])
	req.Equal(order.ErrBidTooLow.Error(), res["data"])
}
