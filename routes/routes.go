package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/bermelken20/university-canteen-sub001/config"
	"github.com/bermelken20/university-canteen-sub001/handlers"
	"github.com/bermelken20/university-canteen-sub001/middlewares"
)

// Register wires all HTTP routes.
func Register(e *echo.Echo, cfg *config.Config) {
	auth := handlers.NewAuthHandler(cfg)
	menu := handlers.NewMenuHandler()
	orders := handlers.NewOrderHandler(cfg)
	export := handlers.NewExportHandler(cfg)

	e.GET("/health", handlers.Health)

	// ===== Public Auth =====
	e.POST("/auth/register", auth.Register)
	e.POST("/auth/login", auth.Login)
	e.GET("/auth/check-email", auth.CheckEmail)
	e.POST("/auth/password-reset", auth.PasswordResetRequest)
	e.POST("/auth/password-reset/confirm", auth.PasswordResetConfirm)

	// ===== Public menu (orderable view, availability filter on) =====
	e.GET("/menu", menu.ListAvailable)
	e.GET("/menu/:id", menu.Get)

	authMW := middlewares.RequireAuth(cfg.JWTSecret)

	// ===== Authenticated (any role) =====
	my := e.Group("", authMW)
	my.POST("/orders", orders.Place)
	my.GET("/orders", orders.ListMine)
	my.GET("/orders/:id", orders.GetMine)
	my.POST("/orders/:id/cancel", orders.Cancel)

	// legacy JSON feed for the faculty display client; same session
	// contract as the endpoints above
	my.GET("/export/orders/recent", export.RecentOrders)
	my.POST("/export/orders", export.IntakeOrder)

	// ===== Admin =====
	admin := e.Group("/admin", authMW, middlewares.RequireRole("admin"))

	admin.GET("/menu", menu.ListAll)
	admin.POST("/menu", menu.Create)
	admin.PUT("/menu/:id", menu.Update)
	admin.PATCH("/menu/:id/availability", menu.SetAvailability)
	admin.DELETE("/menu/:id", menu.Delete)

	admin.GET("/orders", orders.AdminList)
	admin.GET("/orders/:id", orders.AdminDetail)
	admin.POST("/orders/:id/status", orders.AdminUpdateStatus)
}
