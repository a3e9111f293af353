package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/akozhevin/storefront/internal/handlers"
	authmw "github.com/akozhevin/storefront/internal/middleware/auth"
)

type Deps struct {
	JWTSecret []byte

	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Product     *handlers.ProductHandler
	Category    *handlers.CategoryHandler
	Cart        *handlers.CartHandler
	Order       *handlers.OrderHandler
	Shipping    *handlers.ShippingHandler
	Payment     *handlers.PaymentHandler
	Review      *handlers.ReviewHandler
	Inventory   *handlers.InventoryHandler
	HomeFeature *handlers.HomeFeatureHandler
	Search      *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")
	login := authmw.RequireLogin(d.JWTSecret)

	// auth
	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/refresh", d.Auth.Refresh)
	api.POST("/auth/logout", d.Auth.Logout)
	api.POST("/auth/logout-all", d.Auth.LogoutAll, login)

	// users
	api.GET("/users/me", d.User.Me, login)
	api.PATCH("/users/me", d.User.UpdateMe, login)
	api.GET("/users", d.User.ListUsers, login, authmw.AdminOnly)
	api.GET("/users/:id", d.User.GetUser, login, authmw.AdminOnly)
	api.DELETE("/users/:id", d.User.DeleteUser, login, authmw.AdminOnly)

	// catalog
	api.GET("/products", d.Product.GetProducts)
	api.GET("/products/:id", d.Product.GetProduct)
	api.GET("/products/:id/reviews", d.Review.ListProductReviews)
	api.POST("/products", d.Product.CreateProduct, login, authmw.AdminOnly)
	api.PATCH("/products/:id", d.Product.PatchProduct, login, authmw.AdminOnly)
	api.DELETE("/products/:id", d.Product.DeleteProduct, login, authmw.AdminOnly)
	api.POST("/products/:id/images", d.Product.AddImage, login, authmw.AdminOnly)
	api.DELETE("/product-images/:id", d.Product.DeleteImage, login, authmw.AdminOnly)

	api.GET("/categories", d.Category.GetCategories)
	api.GET("/categories/:id", d.Category.GetCategory)
	api.POST("/categories", d.Category.CreateCategory, login, authmw.AdminOnly)
	api.PATCH("/categories/:id", d.Category.PatchCategory, login, authmw.AdminOnly)
	api.DELETE("/categories/:id", d.Category.DeleteCategory, login, authmw.AdminOnly)

	api.GET("/search", d.Search.Search)
	api.GET("/home-features", d.HomeFeature.GetFeatures)
	api.POST("/home-features", d.HomeFeature.CreateFeature, login, authmw.AdminOnly)
	api.PATCH("/home-features/:id", d.HomeFeature.PatchFeature, login, authmw.AdminOnly)
	api.DELETE("/home-features/:id", d.HomeFeature.DeleteFeature, login, authmw.AdminOnly)

	// cart
	api.GET("/cart", d.Cart.GetCart, login)
	api.DELETE("/cart", d.Cart.ClearCart, login)
	api.POST("/cart-items", d.Cart.AddCartItem, login)
	api.PATCH("/cart-items/:id", d.Cart.UpdateCartItem, login)
	api.DELETE("/cart-items/:id", d.Cart.DeleteCartItem, login)

	// orders
	api.POST("/orders", d.Order.CreateOrder, login)
	api.GET("/orders", d.Order.ListOrders, login)
	api.GET("/orders/:id", d.Order.GetOrder, login)
	api.GET("/admin/orders", d.Order.AdminListOrders, login, authmw.AdminOnly)
	api.PATCH("/admin/orders/:id/status", d.Order.AdminSetStatus, login, authmw.AdminOnly)

	// shipping
	api.PUT("/orders/:id/shipping", d.Shipping.UpsertShipping, login)
	api.GET("/orders/:id/shipping", d.Shipping.GetShipping, login)
	api.PATCH("/shipping-details/:id/status", d.Shipping.SetDeliveryStatus, login, authmw.AdminOnly)

	// payments; the webhook is unauthenticated but signature-checked
	api.POST("/payments", d.Payment.CreatePayment, login)
	api.POST("/payments/webhook", d.Payment.Webhook)
	api.GET("/cards", d.Payment.ListCards, login)
	api.POST("/cards", d.Payment.SaveCard, login)
	api.DELETE("/cards/:id", d.Payment.DeleteCard, login)

	// reviews
	api.POST("/reviews", d.Review.CreateReview, login)
	api.PATCH("/reviews/:id", d.Review.PatchReview, login)
	api.DELETE("/reviews/:id", d.Review.DeleteReview, login)

	// inventory
	api.POST("/inventory-adjustments", d.Inventory.AdjustStock, login, authmw.AdminOnly)
	api.GET("/inventory-logs", d.Inventory.ListLogs, login, authmw.AdminOnly)
}
