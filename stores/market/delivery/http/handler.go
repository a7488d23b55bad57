package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/delivery"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/market"
	authMiddleware "github.com/x-xyz/gomarket/stores/auth/delivery/http/middleware"
)

type handler struct {
	mu market.UseCase
}

func New(e *echo.Echo, mu market.UseCase, authMiddleware *authMiddleware.AuthMiddleware, settingsCache echo.MiddlewareFunc) {
	h := &handler{
		mu: mu,
	}
	g := e.Group("/market")
	g.GET("/settings", h.getSettings, settingsCache)
	g.PUT("/treasury", h.setTreasury, authMiddleware.Auth())
	g.PUT("/fee", h.setFee, authMiddleware.Auth())
}

func (h *handler) getSettings(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	s, err := h.mu.GetSettings(ctx)
	if err != nil {
		ctx.WithField("err", err).Error("mu.GetSettings failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, s)
}

func (h *handler) setTreasury(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	type payload struct {
		Treasury domain.Address `json:"treasury" validate:"required,eth_addr"`
	}

	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	s, err := h.mu.SetMarketTreasury(ctx, caller, p.Treasury)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, s)
}

func (h *handler) setFee(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	// feeBps is a pointer so that an explicit zero fee is accepted
	type payload struct {
		FeeBps *uint16 `json:"feeBps" validate:"required"`
	}

	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	s, err := h.mu.SetMarketFee(ctx, caller, *p.FeeBps)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, s)
}
