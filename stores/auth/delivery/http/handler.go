package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/delivery"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/middleware"
)

type authHandler struct {
	auth               domain.AuthUsecase
	signingMsgTemplate string
}

type signPayload struct {
	Address   domain.Address `json:"address" validate:"required,eth_addr"`
	Signature string         `json:"signature" validate:"required"`
}

type tokenView struct {
	Address domain.Address `json:"address"`
	Token   string         `json:"token"`
}

func New(e *echo.Echo, auth domain.AuthUsecase, template string) {
	h := &authHandler{
		auth:               auth,
		signingMsgTemplate: template,
	}
	g := e.Group("/auth")
	g.GET("/nonce/:address", h.getNonce, middleware.IsValidAddress("address"))
	g.POST("/sign", h.sign)
	g.GET("/signingMsgTemplate", h.getSigningMsgTemplate)
}

// getNonce issues the nonce to put into the signing message template
func (h *authHandler) getNonce(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	nonce, err := h.auth.GetNonce(ctx, domain.Address(c.Param("address")))
	if err != nil {
		ctx.WithField("err", err).Error("auth.GetNonce failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, nonce)
}

// sign exchanges a signed nonce for an access token
func (h *authHandler) sign(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p := &signPayload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	tkn, err := h.auth.SignToken(ctx, p.Address, p.Signature)
	if err != nil {
		ctx.WithField("err", err).Warn("auth.SignToken failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, tokenView{Address: p.Address.ToLower(), Token: tkn})
}

func (h *authHandler) getSigningMsgTemplate(c echo.Context) error {
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]string{"template": h.signingMsgTemplate})
}
