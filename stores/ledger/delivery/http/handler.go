package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/delivery"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/middleware"
)

type handler struct {
	ledger ledger.Ledger
}

// New exposes read access to the simulated ledger. Writes only happen through the market
// engine or the genesis file.
func New(e *echo.Echo, l ledger.Ledger) {
	h := &handler{
		ledger: l,
	}
	g := e.Group("/ledger")
	g.GET("/native/:address", h.getNative, middleware.IsValidAddress("address"))
	g.GET("/token/:token/:address", h.getToken, middleware.IsValidAddress("token"), middleware.IsValidAddress("address"))
	g.GET("/token/:token/:address/allowance/:spender", h.getAllowance,
		middleware.IsValidAddress("token"), middleware.IsValidAddress("address"), middleware.IsValidAddress("spender"))
	g.GET("/nft/:contract/:tokenId", h.getNft, middleware.IsValidAddress("contract"))
}

type balance struct {
	Account domain.Address `json:"account"`
	Token   domain.Address `json:"token"`
	Balance string         `json:"balance"`
}

func (h *handler) getNative(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	account := domain.Address(c.Param("address")).ToLower()

	b, err := h.ledger.Native().BalanceOf(ctx, account)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "account": account}).Error("native.BalanceOf failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, balance{account, domain.NativeCurrency, b.String()})
}

func (h *handler) getToken(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	token := domain.Address(c.Param("token")).ToLower()
	account := domain.Address(c.Param("address")).ToLower()

	b, err := h.ledger.Tokens().BalanceOf(ctx, token, account)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "token": token, "account": account}).Error("tokens.BalanceOf failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, balance{account, token, b.String()})
}

func (h *handler) getAllowance(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	token := domain.Address(c.Param("token")).ToLower()
	owner := domain.Address(c.Param("address")).ToLower()
	spender := domain.Address(c.Param("spender")).ToLower()

	a, err := h.ledger.Tokens().Allowance(ctx, token, owner, spender)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "token": token, "owner": owner}).Error("tokens.Allowance failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]string{"allowance": a.String()})
}

func (h *handler) getNft(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	contract := domain.Address(c.Param("contract")).ToLower()
	tokenId := domain.TokenId(c.Param("tokenId"))

	owner, err := h.ledger.Registry().OwnerOf(ctx, contract, tokenId)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	approved, err := h.ledger.Registry().GetApproved(ctx, contract, tokenId)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Contract domain.Address `json:"contract"`
		TokenId  domain.TokenId `json:"tokenId"`
		Owner    domain.Address `json:"owner"`
		Approved domain.Address `json:"approved"`
	}{contract, tokenId, owner, approved}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
