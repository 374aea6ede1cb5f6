package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/royaljewels/shop/pkg/logging"

	"github.com/royaljewels/shop/internal/service"
	"github.com/royaljewels/shop/internal/transport"
)

type InvestmentHTTP struct {
	Svc *service.InvestmentService
}

func (h *InvestmentHTTP) Rates(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "investment.rates")

	rates, err := h.Svc.Rates(ctx)
	if err != nil {
		return fail(c, l, "rates_error", err)
	}

	return c.JSON(http.StatusOK, rates)
}

func (h *InvestmentHTTP) Buy(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "investment.buy")

	userID, err := getUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.TradeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Buy(ctx, userID, req)
	if err != nil {
		return fail(c, l, "buy_error", err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *InvestmentHTTP) VerifyBuy(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "investment.verify_buy")

	userID, err := getUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.VerifyBuyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	inv, err := h.Svc.VerifyBuy(ctx, userID, req)
	if err != nil {
		return fail(c, l, "verify_buy_error", err)
	}

	l.Info("buy_settled", "user_id", userID, "metal", req.Type)
	return c.JSON(http.StatusOK, inv)
}

func (h *InvestmentHTTP) Sell(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "investment.sell")

	userID, err := getUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.TradeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	inv, err := h.Svc.Sell(ctx, userID, req)
	if err != nil {
		return fail(c, l, "sell_error", err)
	}

	l.Info("sell_settled", "user_id", userID, "metal", req.Type)
	return c.JSON(http.StatusOK, inv)
}

func (h *InvestmentHTTP) Balances(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "investment.balances")

	userID, err := getUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	balances, err := h.Svc.Balances(ctx, userID)
	if err != nil {
		return fail(c, l, "balances_error", err)
	}

	return c.JSON(http.StatusOK, balances)
}

func (h *InvestmentHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "investment.history")

	userID, err := getUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	history, err := h.Svc.History(ctx, userID)
	if err != nil {
		return fail(c, l, "history_error", err)
	}

	return c.JSON(http.StatusOK, history)
}

func (h *InvestmentHTTP) UpdateRates(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "investment.update_rates")

	var req transport.UpdateRatesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.UpdateRates(ctx, req); err != nil {
		return fail(c, l, "update_rates_error", err)
	}

	rates, err := h.Svc.Rates(ctx)
	if err != nil {
		return fail(c, l, "update_rates_error", err)
	}

	l.Info("rates_updated")
	return c.JSON(http.StatusOK, rates)
}
