// Package router registers the HTTP surface. Grouping mirrors the
// authorization boundaries: public browse, authenticated user, seller
// console, staff console.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/oguzhanyavuz/tradeport/internal/chat"
	"github.com/oguzhanyavuz/tradeport/internal/handler"
	"github.com/oguzhanyavuz/tradeport/internal/middleware"
	"github.com/oguzhanyavuz/tradeport/internal/model"
)

// Deps carries every handler the router mounts.
type Deps struct {
	JWTSecret string
	Identity  *middleware.IdentityCache
	RateLimit echo.MiddlewareFunc
	Perms     middleware.PermissionLookup

	Auth     *handler.AuthHandler
	Catalog  *handler.PublicCatalogHandler
	Company  *handler.SellerCompanyHandler
	Product  *handler.SellerProductHandler
	Offer    *handler.SellerOfferHandler
	PortDeal *handler.SellerPortDealHandler
	Contact  *handler.ContactHandler
	Tracking *handler.TrackingHandler
	Query    *handler.QueryHandler
	Staff    *handler.StaffHandler
	Upload   *handler.UploadHandler
	ChatWS   *chat.Handler
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Auth endpoints: no session required except logout/me.
	auth := e.Group("/v1/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/refresh-access", d.Auth.RefreshAccess)
	auth.POST("/logout", d.Auth.Logout, middleware.JWTAuth(d.JWTSecret))
	auth.GET("/me", d.Auth.Me, middleware.JWTAuth(d.JWTSecret))

	// Public browse: anonymous works, a bearer upgrades visibility.
	pub := e.Group("/v1", middleware.OptionalAuth(d.JWTSecret), d.Identity.WithCaller())
	pub.GET("/products", d.Catalog.ListProducts)
	pub.GET("/products/:slug", d.Catalog.GetProduct)
	pub.GET("/companies", d.Catalog.ListCompanies)
	pub.GET("/companies/:slug", d.Catalog.GetCompany)
	pub.GET("/categories", d.Catalog.ListCategories)
	pub.GET("/port-deals", d.Catalog.ListPortDeals)
	pub.GET("/port-deals/:slug", d.Catalog.GetPortDeal)
	pub.GET("/posts", d.Catalog.ListPosts)
	pub.GET("/posts/:slug", d.Catalog.GetPost)

	// Public writes are rate limited.
	pub.POST("/contact", d.Contact.Submit, d.RateLimit)
	pub.POST("/track", d.Tracking.Record, d.RateLimit)

	// Signed-in users of any role.
	user := e.Group("/v1", middleware.JWTAuth(d.JWTSecret), d.Identity.WithCaller())
	user.GET("/contact/mine", d.Contact.Mine)
	user.POST("/queries", d.Query.Open, d.RateLimit)
	user.GET("/queries", d.Query.Threads)
	user.GET("/queries/:room_token/items", d.Query.Items)
	user.POST("/queries/:room_token/items", d.Query.AddItem)
	user.GET("/queries/:room_token/messages", d.Query.History)
	user.POST("/queries/:room_token/messages", d.Query.Send)
	user.POST("/queries/:room_token/close", d.Query.Close)
	user.POST("/uploads", d.Upload.Upload, d.RateLimit)

	// Websocket upgrade authenticates via query token inside the handler.
	e.GET("/ws/query-chat/:room_token", d.ChatWS.Serve)

	// Seller console.
	seller := e.Group("/v1/seller",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleSeller, model.RoleStaff, model.RoleSuperuser),
		d.Identity.WithCaller())
	seller.POST("/company", d.Company.Create)
	seller.GET("/company", d.Company.Mine)
	seller.PUT("/company", d.Company.Update)
	seller.POST("/company/publish", d.Company.Publish)
	seller.POST("/company/unpublish", d.Company.Unpublish)

	seller.POST("/products", d.Product.Create)
	seller.PUT("/products/:id", d.Product.Update)
	seller.POST("/products/:id/publish", d.Product.Publish)
	seller.POST("/products/:id/unpublish", d.Product.Unpublish)
	seller.POST("/products/:id/activate", d.Product.Activate)
	seller.POST("/products/:id/deactivate", d.Product.Deactivate)
	seller.DELETE("/products/:id", d.Product.Delete)

	seller.POST("/offers", d.Offer.Create)
	seller.GET("/offers", d.Offer.Mine)
	seller.POST("/offers/:id/deactivate", d.Offer.Deactivate)
	seller.DELETE("/offers/:id", d.Offer.Delete)

	seller.POST("/port-deals", d.PortDeal.Create)
	seller.GET("/port-deals", d.PortDeal.Mine)
	seller.POST("/port-deals/:id/deactivate", d.PortDeal.Deactivate)
	seller.DELETE("/port-deals/:id", d.PortDeal.Delete)

	// Staff console. Destructive routes additionally require a granted
	// capability codename; superusers pass every check.
	perm := func(codename string) echo.MiddlewareFunc {
		return middleware.RequirePermission(d.Perms, codename)
	}
	staff := e.Group("/v1/staff",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleStaff, model.RoleSuperuser),
		d.Identity.WithCaller())
	staff.PUT("/users/:id/role", d.Staff.SetUserRole, perm(model.PermManageUsers))
	staff.POST("/companies/:id/verify", d.Staff.VerifyCompany)
	staff.POST("/companies/:id/activate", d.Staff.ActivateCompany)
	staff.POST("/companies/:id/deactivate", d.Staff.DeactivateCompany, perm(model.PermManageCompanies))
	staff.DELETE("/companies/:id", d.Staff.DeleteCompany, perm(model.PermManageCompanies))
	staff.POST("/port-deals/:id/reopen", d.Staff.ReopenPortDeal)
	staff.GET("/contacts", d.Contact.ListAll)
	staff.PUT("/contacts/:id/status", d.Contact.SetStatus)
	staff.GET("/tracking", d.Tracking.List)
	staff.POST("/tracking/delete", d.Tracking.DeleteBulk, perm(model.PermManageTracking))
	staff.POST("/posts", d.Staff.CreatePost)
	staff.POST("/posts/:id/publish", d.Staff.PublishPost)
	staff.POST("/posts/:id/unpublish", d.Staff.UnpublishPost)
	staff.DELETE("/posts/:id", d.Staff.DeletePost, perm(model.PermManagePosts))
}
