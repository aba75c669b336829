package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"sweetshop-backend/controllers"
	"sweetshop-backend/middleware"
	"sweetshop-backend/services"
)

type Controllers struct {
	Auth   *controllers.AuthController
	Sweets *controllers.SweetController
	Orders *controllers.OrderController
	Cart   *controllers.CartController
}

func Register(r *gin.Engine, ctl Controllers, tokens services.TokenService) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth endpoints take the brunt of abuse, so they get a tighter limiter.
	auth := r.Group("/auth", middleware.RateLimiter(rate.Limit(5), 10))
	{
		auth.POST("/register/initiate", ctl.Auth.InitiateRegister)
		auth.POST("/register/verify", ctl.Auth.VerifyOtp)
		auth.POST("/login", ctl.Auth.Login)
	}

	api := r.Group("/api", middleware.RateLimiter(rate.Limit(50), 100))

	api.GET("/sweets", ctl.Sweets.List)

	authed := api.Group("", middleware.RequireAuth(tokens))
	{
		authed.GET("/sweets/search", ctl.Sweets.Search)
		authed.GET("/sweets/:id", ctl.Sweets.Get)
		authed.POST("/sweets/:id/purchase", ctl.Sweets.Purchase)

		authed.POST("/orders", ctl.Orders.Create)
		authed.GET("/orders", ctl.Orders.List)
		authed.GET("/orders/:id", ctl.Orders.Get)

		authed.GET("/cart", ctl.Cart.Get)
		authed.POST("/cart", ctl.Cart.AddItem)
		authed.DELETE("/cart", ctl.Cart.Clear)
		authed.PUT("/cart/items/:sweetId", ctl.Cart.UpdateItem)
		authed.DELETE("/cart/items/:sweetId", ctl.Cart.RemoveItem)
		authed.POST("/cart/checkout", ctl.Cart.Checkout)
	}

	admin := authed.Group("", middleware.RequireAdmin())
	{
		admin.POST("/sweets", ctl.Sweets.Create)
		admin.PUT("/sweets/:id", ctl.Sweets.Update)
		admin.DELETE("/sweets/:id", ctl.Sweets.Delete)
		admin.POST("/sweets/:id/restock", ctl.Sweets.Restock)
	}
}
