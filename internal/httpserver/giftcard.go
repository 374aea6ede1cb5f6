package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/royaljewels/shop/pkg/logging"

	"github.com/royaljewels/shop/internal/service"
	"github.com/royaljewels/shop/internal/transport"
)

type GiftCardHTTP struct {
	Svc *service.GiftCardService
}

func (h *GiftCardHTTP) Generate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "giftcard.generate")

	userID, err := getUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.GenerateGiftCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Generate(ctx, userID, req)
	if err != nil {
		return fail(c, l, "generate_giftcard_error", err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *GiftCardHTTP) VerifyPurchase(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "giftcard.verify")

	userID, err := getUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.VerifyGiftCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	card, err := h.Svc.VerifyPurchase(ctx, userID, req)
	if err != nil {
		return fail(c, l, "verify_giftcard_error", err)
	}

	l.Info("giftcard_minted", "code", card.Code)
	return c.JSON(http.StatusOK, card)
}

func (h *GiftCardHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "giftcard.get")

	card, err := h.Svc.Get(ctx, c.Param("code"))
	if err != nil {
		return fail(c, l, "get_giftcard_error", err)
	}

	return c.JSON(http.StatusOK, card)
}

func (h *GiftCardHTTP) Redeem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "giftcard.redeem")

	if _, err := getUserID(c); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.RedeemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Redeem(ctx, req.Code)
	if err != nil {
		return fail(c, l, "redeem_giftcard_error", err)
	}

	l.Info("giftcard_redeemed", "code", req.Code)
	return c.JSON(http.StatusOK, res)
}

func (h *GiftCardHTTP) AdminIssue(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "giftcard.admin_issue")

	var req transport.GenerateGiftCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	card, err := h.Svc.AdminIssue(ctx, req.Amount)
	if err != nil {
		return fail(c, l, "admin_issue_error", err)
	}

	l.Info("giftcard_issued", "code", card.Code)
	return c.JSON(http.StatusCreated, card)
}

func (h *GiftCardHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "giftcard.list")

	cards, err := h.Svc.List(ctx)
	if err != nil {
		return fail(c, l, "list_giftcards_error", err)
	}

	return c.JSON(http.StatusOK, cards)
}

func (h *GiftCardHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "giftcard.stats")

	stats, err := h.Svc.Stats(ctx)
	if err != nil {
		return fail(c, l, "giftcard_stats_error", err)
	}

	return c.JSON(http.StatusOK, stats)
}
