package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/royaljewels/shop/pkg/logging"

	"github.com/royaljewels/shop/internal/service"
	"github.com/royaljewels/shop/internal/transport"
	"github.com/royaljewels/shop/internal/util"
)

type AdminHTTP struct {
	Svc *service.AdminService
}

func (h *AdminHTTP) Overview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.overview")

	overview, err := h.Svc.Overview(ctx)
	if err != nil {
		return fail(c, l, "overview_error", err)
	}

	return c.JSON(http.StatusOK, overview)
}

func (h *AdminHTTP) InvestmentReport(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.investment_report")

	report, err := h.Svc.InvestmentReport(ctx)
	if err != nil {
		return fail(c, l, "investment_report_error", err)
	}

	return c.JSON(http.StatusOK, report)
}

func (h *AdminHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users")

	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		return fail(c, l, "list_users_error", err)
	}

	return c.JSON(http.StatusOK, users)
}

func (h *AdminHTTP) UserDetail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.user_detail")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	detail, err := h.Svc.UserDetail(ctx, id)
	if err != nil {
		return fail(c, l, "user_detail_error", err)
	}

	return c.JSON(http.StatusOK, detail)
}

func (h *AdminHTTP) BanUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.ban_user")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := h.Svc.BanUser(ctx, id)
	if err != nil {
		return fail(c, l, "ban_user_error", err)
	}

	l.Info("user_banned", "user_id", id)
	return c.JSON(http.StatusOK, user)
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	orders, err := h.Svc.ListOrders(ctx, limit, from)
	if err != nil {
		return fail(c, l, "list_orders_error", err)
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *AdminHTTP) SetOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order_status")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.SetOrderStatus(ctx, id, req.Status)
	if err != nil {
		return fail(c, l, "set_order_status_error", err)
	}

	l.Info("order_status_set", "order_id", id, "status", req.Status)
	return c.JSON(http.StatusOK, order)
}
