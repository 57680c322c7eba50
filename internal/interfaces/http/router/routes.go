package router

import (
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/staff"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the API handlers
type Handlers struct {
	Store          *handler.StoreHandler
	Cart           *handler.CartHandler
	Checkout       *handler.CheckoutHandler
	Webhook        *handler.WebhookHandler
	Auth           *handler.AuthHandler
	Staff          *handler.StaffHandler
	Category       *handler.CategoryHandler
	Product        *handler.ProductHandler
	Import         *handler.ImportHandler
	Customer       *handler.CustomerHandler
	Order          *handler.OrderHandler
	Shipment       *handler.ShipmentHandler
	Reconciliation *handler.ReconciliationHandler
}

// Security holds what the protected and throttled routes need
type Security struct {
	Tokens      middleware.TokenValidator
	Revocations auth.Revocations
	// LoginLimiter throttles POST /auth/login per client IP. Nil disables it.
	LoginLimiter middleware.Limiter
	Logger       *zap.Logger
}

// StoreRoutes returns the public storefront routes
func StoreRoutes(h Handlers) *DomainGroup {
	store := NewDomainGroup("store", "/store")
	store.GET("/categories", h.Store.ListCategories)
	store.GET("/products", h.Store.ListProducts)
	store.GET("/products/:slug", h.Store.GetProduct)
	store.GET("/delivery-options", h.Store.ListDeliveryOptions)
	store.GET("/orders/:number", h.Store.LookupOrder)

	store.POST("/carts", h.Cart.Create)
	store.GET("/carts/:id", h.Cart.Get)
	store.PUT("/carts/:id/items", h.Cart.SetItem)
	store.DELETE("/carts/:id/items/:variantId", h.Cart.RemoveItem)

	store.POST("/checkout", h.Checkout.Checkout)
	return store
}

// WebhookRoutes returns the unauthenticated gateway callbacks. They verify
// their own signatures.
func WebhookRoutes(h Handlers) *DomainGroup {
	hooks := NewDomainGroup("webhooks", "/webhooks")
	hooks.POST("/stripe", h.Webhook.Stripe)
	hooks.POST("/shipping", h.Webhook.Shipping)
	return hooks
}

// AuthRoutes returns the login route
func AuthRoutes(h Handlers, sec Security) *DomainGroup {
	authGroup := NewDomainGroup("auth", "/auth")
	if sec.LoginLimiter != nil {
		authGroup.Use(middleware.RateLimit(sec.LoginLimiter, sec.Logger))
	}
	authGroup.POST("/login", h.Auth.Login)
	return authGroup
}

// AdminRoutes returns the back-office routes. Every route needs a valid
// token and staff management needs the ADMIN role.
func AdminRoutes(h Handlers, sec Security) *DomainGroup {
	admin := NewDomainGroup("admin", "/admin")
	admin.Use(middleware.JWTAuth(middleware.JWTConfig{
		Tokens:      sec.Tokens,
		Revocations: sec.Revocations,
		Logger:      sec.Logger,
	}))

	session := admin.Group("session", "/auth")
	session.POST("/logout", h.Auth.Logout)
	session.GET("/me", h.Auth.Me)

	categories := admin.Group("categories", "/categories")
	categories.GET("", h.Category.List)
	categories.POST("", h.Category.Create)
	categories.GET("/:id", h.Category.Get)
	categories.PUT("/:id", h.Category.Update)
	categories.DELETE("/:id", h.Category.Delete)

	products := admin.Group("products", "/products")
	products.GET("", h.Product.List)
	products.POST("", h.Product.Create)
	products.GET("/:id", h.Product.Get)
	products.PUT("/:id", h.Product.Update)
	products.DELETE("/:id", h.Product.Delete)
	products.POST("/:id/publish", h.Product.Publish)
	products.POST("/:id/archive", h.Product.Archive)
	products.POST("/:id/variants", h.Product.AddVariant)
	products.POST("/:id/images", h.Product.UploadImage)
	products.DELETE("/:id/images", h.Product.RemoveImage)

	variants := admin.Group("variants", "/variants")
	variants.PUT("/:id", h.Product.UpdateVariant)
	variants.DELETE("/:id", h.Product.DeleteVariant)
	variants.POST("/:id/stock", h.Product.AdjustStock)

	admin.POST("/catalog/import", h.Import.Import)

	customers := admin.Group("customers", "/customers")
	customers.GET("", h.Customer.List)
	customers.POST("", h.Customer.Create)
	customers.GET("/:id", h.Customer.Get)
	customers.PUT("/:id", h.Customer.Update)
	customers.DELETE("/:id", h.Customer.Delete)
	customers.GET("/:id/wishlist", h.Customer.Wishlist)
	customers.POST("/:id/wishlist/:productId", h.Customer.AddToWishlist)
	customers.DELETE("/:id/wishlist/:productId", h.Customer.RemoveFromWishlist)

	orders := admin.Group("orders", "/orders")
	orders.GET("", h.Order.List)
	orders.GET("/:id", h.Order.Get)
	orders.POST("/:id/status", h.Order.UpdateStatus)
	orders.POST("/:id/cancel", h.Order.Cancel)
	orders.POST("/:id/refund", h.Order.Refund)
	orders.POST("/:id/shipments", h.Order.CreateShipment)
	orders.GET("/:id/shipments", h.Order.Shipments)

	shipments := admin.Group("shipments", "/shipments")
	shipments.GET("/:id", h.Shipment.Get)
	shipments.POST("/:id/sync", h.Shipment.Sync)

	options := admin.Group("delivery-options", "/delivery-options")
	options.GET("", h.Shipment.ListOptions)
	options.POST("", h.Shipment.CreateOption)
	options.GET("/:id", h.Shipment.GetOption)
	options.PUT("/:id", h.Shipment.UpdateOption)
	options.DELETE("/:id", h.Shipment.DeleteOption)

	orphans := admin.Group("orphan-payments", "/orphan-payments")
	orphans.GET("", h.Reconciliation.ListOrphans)
	orphans.POST("/:id/retry", h.Reconciliation.RetryOrphan)

	reconcile := admin.Group("reconciliation", "/reconciliation")
	reconcile.POST("/sweep", h.Reconciliation.Sweep)
	reconcile.POST("/scan", h.Reconciliation.Scan)

	emails := admin.Group("emails", "/emails")
	emails.GET("", h.Reconciliation.ListEmails)
	emails.POST("/:id/retry", h.Reconciliation.RetryEmail)

	staffGroup := admin.Group("staff", "/staff")
	staffGroup.Use(middleware.RequireRole(staff.RoleAdmin))
	staffGroup.GET("", h.Staff.List)
	staffGroup.POST("", h.Staff.Create)
	staffGroup.GET("/:id", h.Staff.Get)
	staffGroup.PUT("/:id", h.Staff.Update)
	staffGroup.POST("/:id/deactivate", h.Staff.Deactivate)
	staffGroup.DELETE("/:id", h.Staff.Delete)

	return admin
}

// APIRoutes returns every /api/<version> registrar in mount order
func APIRoutes(h Handlers, sec Security) []RouteRegistrar {
	return []RouteRegistrar{
		StoreRoutes(h),
		WebhookRoutes(h),
		AuthRoutes(h, sec),
		AdminRoutes(h, sec),
	}
}
