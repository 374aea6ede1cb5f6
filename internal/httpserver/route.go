package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/royaljewels/shop/internal/middleware/auth"
	"github.com/royaljewels/shop/internal/service"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Auth       *service.AuthService
	Catalog    *service.CatalogService
	Cart       *service.CartService
	Order      *service.OrderService
	Payment    *service.PaymentService
	Investment *service.InvestmentService
	GiftCard   *service.GiftCardService
	Admin      *service.AdminService

	JWTSecret []byte
}

func Register(e *echo.Echo, d *Deps) {
	mw := auth.New(d.JWTSecret)

	authH := &AuthHTTP{Svc: d.Auth}
	productH := &ProductHTTP{Svc: d.Catalog}
	cartH := &CartHTTP{Svc: d.Cart}
	orderH := &OrderHTTP{Svc: d.Order}
	paymentH := &PaymentHTTP{Svc: d.Payment}
	investH := &InvestmentHTTP{Svc: d.Investment}
	giftH := &GiftCardHTTP{Svc: d.GiftCard}
	adminH := &AdminHTTP{Svc: d.Admin}

	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/readyz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	authG := e.Group("/auth")
	authG.POST("/register", authH.Register)
	authG.POST("/login", authH.Login)

	products := e.Group("/products")
	products.GET("", productH.GetProducts)
	products.GET("/search", productH.SearchProducts)
	products.GET("/:id", productH.GetProduct)

	cart := e.Group("/cart", mw.RequireAuth)
	cart.GET("", cartH.GetCart)
	cart.POST("", cartH.AddToCart)
	cart.PUT("/:id", cartH.UpdateItem)
	cart.DELETE("/:id", cartH.DeleteItem)

	orders := e.Group("/order", mw.RequireAuth)
	orders.POST("", orderH.CreateOrder)
	orders.GET("", orderH.ListOrders)
	orders.GET("/:id", orderH.GetOrder)

	payment := e.Group("/payment")
	payment.POST("/checkout", paymentH.Checkout, mw.RequireAuth)
	payment.POST("/verify", paymentH.Verify, mw.RequireAuth)
	payment.POST("/webhook", paymentH.Webhook)

	invest := e.Group("/investment")
	invest.GET("/rates", investH.Rates)
	invest.POST("/buy", investH.Buy, mw.RequireAuth)
	invest.POST("/verify-buy", investH.VerifyBuy, mw.RequireAuth)
	invest.POST("/sell", investH.Sell, mw.RequireAuth)
	invest.GET("/balances", investH.Balances, mw.RequireAuth)
	invest.GET("/view", investH.History, mw.RequireAuth)

	gift := e.Group("/giftcard")
	gift.GET("/:code", giftH.Get)
	gift.POST("/generate", giftH.Generate, mw.RequireAuth)
	gift.POST("/verify-purchase", giftH.VerifyPurchase, mw.RequireAuth)
	gift.POST("/redeem", giftH.Redeem, mw.RequireAuth)

	admin := e.Group("/admin", mw.RequireAdmin)
	admin.GET("/overview", adminH.Overview)
	admin.GET("/users", adminH.ListUsers)
	admin.GET("/users/:id", adminH.UserDetail)
	admin.PUT("/users/:id/ban", adminH.BanUser)
	admin.GET("/orders", adminH.ListOrders)
	admin.PUT("/orders/:id/status", adminH.SetOrderStatus)
	admin.POST("/products", productH.CreateProduct)
	admin.PUT("/products/:id", productH.PatchProduct)
	admin.DELETE("/products/:id", productH.DeleteProduct)
	admin.GET("/investments", adminH.InvestmentReport)
	admin.PUT("/investments/rates", investH.UpdateRates)
	admin.POST("/giftcards", giftH.AdminIssue)
	admin.GET("/giftcards", giftH.List)
	admin.GET("/giftcards/stats", giftH.Stats)
}
