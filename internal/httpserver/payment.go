package httpserver

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/royaljewels/shop/pkg/logging"

	"github.com/royaljewels/shop/internal/service"
	"github.com/royaljewels/shop/internal/transport"
)

// SignatureHeader carries the hex HMAC of the webhook body.
const SignatureHeader = "X-Gateway-Signature"

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.checkout")

	userID, err := getUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Checkout(ctx, userID, req)
	if err != nil {
		return fail(c, l, "checkout_error", err)
	}

	l.Info("checkout_session_created", "order_id", req.OrderID)
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	var req transport.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.Verify(ctx, req.SessionID); err != nil {
		return fail(c, l, "verify_error", err)
	}

	l.Info("payment_verified", "session_id", req.SessionID)
	return c.JSON(http.StatusOK, map[string]string{"message": "payment verified"})
}

// Webhook reads the raw body so the HMAC is computed over exactly the
// bytes the gateway signed.
func (h *PaymentHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.webhook")

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	if err := h.Svc.HandleWebhook(ctx, payload, c.Request().Header.Get(SignatureHeader)); err != nil {
		return fail(c, l, "webhook_error", err)
	}

	return c.NoContent(http.StatusOK)
}
