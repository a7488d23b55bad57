package http

import (
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/delivery"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/order"
	"github.com/x-xyz/gomarket/middleware"
	authMiddleware "github.com/x-xyz/gomarket/stores/auth/delivery/http/middleware"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type handler struct {
	ou     order.UseCase
	tokens domain.PayTokenRepo
}

func New(e *echo.Echo, ou order.UseCase, tokens domain.PayTokenRepo, authMiddleware *authMiddleware.AuthMiddleware, listCache echo.MiddlewareFunc) {
	h := &handler{
		ou:     ou,
		tokens: tokens,
	}

	g := e.Group("/orders")
	g.GET("", h.findOrders, listCache)
	g.GET("/:id", h.getOrder)
	g.GET("/:id/events", h.getEvents)

	g.POST("/sell", h.createSell, authMiddleware.Auth())
	g.PUT("/:id/sell", h.updateSell, authMiddleware.Auth())
	g.POST("/auction", h.createAuction, authMiddleware.Auth())
	g.PUT("/:id/auction", h.updateAuction, authMiddleware.Auth())
	g.DELETE("/:id", h.cancel, authMiddleware.Auth())
	g.POST("/:id/buy", h.buy, authMiddleware.Auth())
	g.POST("/:id/bid", h.bid, authMiddleware.Auth())
	g.POST("/:id/finalize", h.finalize, authMiddleware.Auth())

	e.GET("/account/:address/orders", h.findAccountOrders, middleware.IsValidAddress("address"))
}

// orderView adds prices in whole currency units next to the raw amounts
type orderView struct {
	*order.Order
	Symbol              string `json:"symbol,omitempty"`
	DisplayPrice        string `json:"displayPrice,omitempty"`
	DisplayReservePrice string `json:"displayReservePrice,omitempty"`
	DisplayAmount       string `json:"displayAmount,omitempty"`
}

func (h *handler) view(c ctx.Ctx, o *order.Order) *orderView {
	v := &orderView{Order: o}
	t, err := h.tokens.FindOne(c, o.Currency)
	if err != nil {
		return v
	}
	v.Symbol = t.Symbol
	if o.Price != nil {
		v.DisplayPrice = t.Format(o.Price)
	}
	if o.ReservePrice != nil {
		v.DisplayReservePrice = t.Format(o.ReservePrice)
	}
	if o.Amount != nil {
		v.DisplayAmount = t.Format(o.Amount)
	}
	return v
}

func (h *handler) views(c ctx.Ctx, orders []*order.Order) []*orderView {
	res := make([]*orderView, 0, len(orders))
	for _, o := range orders {
		res = append(res, h.view(c, o))
	}
	return res
}

func parseId(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, domain.ErrBadParamInput
	}
	return id, nil
}

// parseAmount treats an empty string as nil so the engine reports the missing price
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return domain.ParseAmount(s)
}

type listParams struct {
	Owner     domain.Address `query:"owner"`
	Bidder    domain.Address `query:"bidder"`
	Contract  domain.Address `query:"contract"`
	TokenId   domain.TokenId `query:"tokenId"`
	OrderType string         `query:"type"`
	Status    string         `query:"status"`
	Offset    int32          `query:"offset"`
	Limit     int32          `query:"limit"`
}

func (p *listParams) options() []order.FindAllOptionsFunc {
	opts := []order.FindAllOptionsFunc{}
	if len(p.Owner) > 0 {
		opts = append(opts, order.WithTokenOwner(p.Owner))
	}
	if len(p.Bidder) > 0 {
		opts = append(opts, order.WithBidder(p.Bidder))
	}
	if len(p.Contract) > 0 {
		if len(p.TokenId) > 0 {
			opts = append(opts, order.WithToken(p.Contract, p.TokenId))
		} else {
			opts = append(opts, order.WithTokenContract(p.Contract))
		}
	}
	if len(p.OrderType) > 0 {
		opts = append(opts, order.WithOrderType(order.OrderType(p.OrderType)))
	}
	if len(p.Status) > 0 {
		opts = append(opts, order.WithStatus(order.Status(p.Status)))
	}
	return opts
}

func (p *listParams) pagination() (int32, int32) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	} else if limit > maxLimit {
		limit = maxLimit
	}
	return p.Offset, limit
}

type listResult struct {
	Count int          `json:"count"`
	Items []*orderView `json:"items"`
}

func (h *handler) list(c echo.Context, p *listParams) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	opts := p.options()
	count, err := h.ou.CountOrders(ctx, opts...)
	if err != nil {
		ctx.WithField("err", err).Error("ou.CountOrders failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	offset, limit := p.pagination()
	orders, err := h.ou.FindOrders(ctx, append(opts, order.WithPagination(offset, limit))...)
	if err != nil {
		ctx.WithField("err", err).Error("ou.FindOrders failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, listResult{Count: count, Items: h.views(ctx, orders)})
}

func (h *handler) findOrders(c echo.Context) error {
	p := &listParams{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	return h.list(c, p)
}

// findAccountOrders lists the orders created by address
func (h *handler) findAccountOrders(c echo.Context) error {
	p := &listParams{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	p.Owner = domain.Address(c.Param("address"))
	return h.list(c, p)
}

func (h *handler) getOrder(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	o, err := h.ou.GetOrder(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, h.view(ctx, o))
}

func (h *handler) getEvents(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Offset int32 `query:"offset"`
		Limit  int32 `query:"limit"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	lp := listParams{Offset: p.Offset, Limit: p.Limit}
	offset, limit := lp.pagination()

	events, err := h.ou.FindEvents(ctx, order.EventWithOrderId(id), order.EventWithPagination(offset, limit))
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "orderId": id}).Error("ou.FindEvents failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, events)
}

func (h *handler) createSell(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	type payload struct {
		TokenContract domain.Address `json:"tokenContract" validate:"required,eth_addr"`
		TokenId       domain.TokenId `json:"tokenId" validate:"required,amount"`
		Currency      domain.Address `json:"currency" validate:"required,eth_addr"`
		Price         string         `json:"price" validate:"required,amount"`
	}

	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	price, err := parseAmount(p.Price)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	o, err := h.ou.CreateSellOrder(ctx, caller, order.CreateSellOrderParams{
		TokenContract: p.TokenContract,
		TokenId:       p.TokenId,
		Currency:      p.Currency,
		Price:         price,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, h.view(ctx, o))
}

func (h *handler) updateSell(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type payload struct {
		Price string `json:"price" validate:"required,amount"`
	}

	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	price, err := parseAmount(p.Price)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	o, err := h.ou.UpdateSellOrder(ctx, caller, id, price)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, h.view(ctx, o))
}

func (h *handler) createAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	// durations are in seconds, capped at ten years so time.Duration cannot overflow
	type payload struct {
		TokenContract     domain.Address `json:"tokenContract" validate:"required,eth_addr"`
		TokenId           domain.TokenId `json:"tokenId" validate:"required,amount"`
		Currency          domain.Address `json:"currency" validate:"required,eth_addr"`
		ReservePrice      string         `json:"reservePrice" validate:"required,amount"`
		Duration          int64          `json:"duration" validate:"gte=0,lte=315360000"`
		ExtensionDuration int64          `json:"extensionDuration" validate:"gte=0,lte=315360000"`
		MinBidIncrement   uint16         `json:"minBidIncrement" validate:"lte=10000"`
	}

	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	reserve, err := parseAmount(p.ReservePrice)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	o, err := h.ou.CreateAuctionOrder(ctx, caller, order.CreateAuctionOrderParams{
		TokenContract:     p.TokenContract,
		TokenId:           p.TokenId,
		Currency:          p.Currency,
		ReservePrice:      reserve,
		Duration:          time.Duration(p.Duration) * time.Second,
		ExtensionDuration: time.Duration(p.ExtensionDuration) * time.Second,
		MinBidIncrement:   p.MinBidIncrement,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, h.view(ctx, o))
}

func (h *handler) updateAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type payload struct {
		ReservePrice string `json:"reservePrice" validate:"required,amount"`
	}

	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	reserve, err := parseAmount(p.ReservePrice)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	o, err := h.ou.UpdateAuctionOrder(ctx, caller, id, reserve)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, h.view(ctx, o))
}

func (h *handler) cancel(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.ou.CancelOrder(ctx, caller, id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, id)
}

func (h *handler) buy(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	// value is the native coin attached to the call
	type payload struct {
		Value string `json:"value" validate:"omitempty,amount"`
	}

	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	value, err := domain.ParseAmount(p.Value)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	o, err := h.ou.CreateBuyOrder(ctx, caller, id, value)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, h.view(ctx, o))
}

func (h *handler) bid(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type payload struct {
		Price string `json:"price" validate:"required,amount"`
		Value string `json:"value" validate:"omitempty,amount"`
	}

	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	price, err := parseAmount(p.Price)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	value, err := domain.ParseAmount(p.Value)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	o, err := h.ou.CreateBidOrder(ctx, caller, id, price, value)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, h.view(ctx, o))
}

func (h *handler) finalize(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	o, err := h.ou.FinalizeAuctionOrder(ctx, caller, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, h.view(ctx, o))
}
