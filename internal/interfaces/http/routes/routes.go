// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/handlers"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Handlers bundles everything the API routes dispatch to
type Handlers struct {
	Auth     *handlers.AuthHandler
	Profile  *handlers.ProfileHandler
	Product  *handlers.ProductHandler
	Review   *handlers.ReviewHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Order    *handlers.OrderHandler
	Upload   *handlers.UploadHandler

	Authenticator *middleware.Authenticator
}

// SetupRoutes registers every /api/v1 route
func SetupRoutes(rg *gin.RouterGroup, h *Handlers) {
	SetupAuthRoutes(rg, h)
	SetupAccountRoutes(rg, h)
	SetupProductRoutes(rg, h)
	SetupCartRoutes(rg, h)
	SetupOrderRoutes(rg, h)
	SetupUploadRoutes(rg, h)
}

// SetupAuthRoutes sets up signup, login, logout and session restore
func SetupAuthRoutes(rg *gin.RouterGroup, h *Handlers) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/buyers/signup", h.Auth.BuyerSignup)
		authGroup.POST("/buyers/login", h.Auth.BuyerLogin)
		authGroup.POST("/sellers/signup", h.Auth.SellerSignup)
		authGroup.POST("/sellers/login", h.Auth.SellerLogin)
		authGroup.POST("/logout", h.Authenticator.RequirePrincipal(), h.Auth.Logout)
	}

	rg.GET("/session", h.Auth.Session)
}

// SetupAccountRoutes sets up profile and seller directory routes
func SetupAccountRoutes(rg *gin.RouterGroup, h *Handlers) {
	buyers := rg.Group("/buyers")
	buyers.Use(h.Authenticator.RequirePrincipal(auth.KindBuyer))
	{
		buyers.GET("/me", h.Profile.GetBuyerProfile)
		buyers.PUT("/me", h.Profile.UpdateBuyerProfile)
	}

	sellers := rg.Group("/sellers")
	{
		sellers.GET("", h.Profile.ListSellers)

		owner := sellers.Group("")
		owner.Use(h.Authenticator.RequirePrincipal(auth.KindSeller))
		{
			owner.GET("/me", h.Profile.GetSellerProfile)
			owner.PUT("/me", h.Profile.UpdateSellerProfile)
			owner.GET("/:id/products", h.Product.ListSellerProducts)
		}
	}
}

// SetupProductRoutes sets up catalog and review routes
func SetupProductRoutes(rg *gin.RouterGroup, h *Handlers) {
	sellerOnly := h.Authenticator.RequirePrincipal(auth.KindSeller)
	buyerOnly := h.Authenticator.RequirePrincipal(auth.KindBuyer)

	products := rg.Group("/products")
	{
		products.GET("", h.Product.ListProducts)
		products.GET("/categories", h.Product.ListCategories)
		products.GET("/name/:name", h.Product.GetProductsByName)
		products.GET("/:id", h.Product.GetProduct)
		products.GET("/:id/reviews", h.Review.ListReviews)

		products.POST("", sellerOnly, h.Product.CreateProduct)
		products.PUT("/:id", sellerOnly, h.Product.UpdateProduct)
		products.DELETE("/:id", sellerOnly, h.Product.DeleteProduct)

		products.POST("/:id/reviews", buyerOnly, h.Review.CreateReview)
	}
}

// SetupCartRoutes sets up the session cart. Anonymous visitors may shop.
func SetupCartRoutes(rg *gin.RouterGroup, h *Handlers) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.Cart.GetCart)
		cart.DELETE("", h.Cart.ClearCart)
		cart.POST("/items", h.Cart.AddItem)
		cart.PUT("/items/:productId", h.Cart.SetQuantity)
		cart.DELETE("/items/:productId", h.Cart.RemoveItem)
	}
}

// SetupOrderRoutes sets up checkout and order history
func SetupOrderRoutes(rg *gin.RouterGroup, h *Handlers) {
	buyerOnly := h.Authenticator.RequirePrincipal(auth.KindBuyer)

	rg.POST("/checkout", buyerOnly, h.Checkout.Checkout)

	orders := rg.Group("/orders")
	orders.Use(buyerOnly)
	{
		orders.GET("", h.Order.ListOrders)
		orders.GET("/:reference", h.Order.GetOrder)
		orders.GET("/:reference/receipt", h.Order.DownloadReceipt)
	}
}

// SetupUploadRoutes sets up seller image uploads
func SetupUploadRoutes(rg *gin.RouterGroup, h *Handlers) {
	uploads := rg.Group("/uploads")
	uploads.Use(h.Authenticator.RequirePrincipal(auth.KindSeller))
	{
		uploads.POST("/images", h.Upload.UploadImage)
	}
}
