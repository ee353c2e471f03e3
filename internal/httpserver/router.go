package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/realtime"
	"github.com/Skotchmaster/quickcommerce/internal/service"
	"github.com/Skotchmaster/quickcommerce/pkg/db"
	"github.com/Skotchmaster/quickcommerce/pkg/httpx"
	middleware "github.com/Skotchmaster/quickcommerce/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/quickcommerce/pkg/middleware/logging"
)

type Deps struct {
	DB        *gorm.DB
	JWTSecret []byte

	AuthHandler         *AuthHTTP
	TenancyHandler      *TenancyHTTP
	CatalogHandler      *CatalogHTTP
	CouponHandler       *CouponHTTP
	BannerHandler       *BannerHTTP
	OrderHandler        *OrderHTTP
	TripHandler         *TripHTTP
	LocationHandler     *LocationHTTP
	LoyaltyHandler      *LoyaltyHTTP
	ReferralHandler     *ReferralHTTP
	MembershipHandler   *MembershipHTTP
	NotificationHandler *NotificationHTTP
	ReturnHandler       *ReturnHTTP
	SupportHandler      *SupportHTTP
	RatingHandler       *RatingHTTP
}

func NewDeps(database *gorm.DB, secret []byte, svc *service.Services, hub *realtime.Hub) *Deps {
	return &Deps{
		DB:                  database,
		JWTSecret:           secret,
		AuthHandler:         &AuthHTTP{Svc: svc.Auth},
		TenancyHandler:      &TenancyHTTP{Svc: svc.Tenancy},
		CatalogHandler:      &CatalogHTTP{Svc: svc.Catalog, Slots: svc.Slots},
		CouponHandler:       &CouponHTTP{Svc: svc.Coupons},
		BannerHandler:       &BannerHTTP{Svc: svc.Banners},
		OrderHandler:        &OrderHTTP{Svc: svc.Orders},
		TripHandler:         &TripHTTP{Svc: svc.Trips},
		LocationHandler:     &LocationHTTP{Svc: svc.Locations, Hub: hub},
		LoyaltyHandler:      &LoyaltyHTTP{Svc: svc.Loyalty},
		ReferralHandler:     &ReferralHTTP{Svc: svc.Referrals},
		MembershipHandler:   &MembershipHTTP{Svc: svc.Memberships},
		NotificationHandler: &NotificationHTTP{Svc: svc.Notifications},
		ReturnHandler:       &ReturnHTTP{Svc: svc.Returns},
		SupportHandler:      &SupportHTTP{Svc: svc.Support},
		RatingHandler:       &RatingHTTP{Svc: svc.Ratings},
	}
}

// NewServer builds the echo instance with the middleware chain shared by
// every route.
func NewServer(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = Errors.Handler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return httpx.Fail(c, http.StatusServiceUnavailable, "not_ready", "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewBearerAuth(d.JWTSecret)
	authed := authMW.RequireAuth

	superAdmin := middleware.RequireRoles(models.RoleSuperAdmin)
	orgAdmin := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleOrgAdmin)
	manager := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleOrgAdmin, models.RoleStoreManager)
	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleOrgAdmin, models.RoleStoreManager, models.RoleStaff)
	fleet := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleOrgAdmin, models.RoleStoreManager, models.RoleStaff, models.RoleRider)
	rider := middleware.RequireRoles(models.RoleRider)
	customer := middleware.RequireRoles(models.RoleCustomer)
	desk := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleOrgAdmin, models.RoleStoreManager, models.RoleStaff, models.RoleCustomer)

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout, authed)
	auth.GET("/me", d.AuthHandler.Me, authed)

	orgs := e.Group("/organizations", authed, superAdmin)
	orgs.POST("", d.TenancyHandler.CreateOrganization)
	orgs.GET("", d.TenancyHandler.ListOrganizations)

	users := e.Group("/users", authed, manager)
	users.POST("", d.TenancyHandler.CreateUser)
	users.GET("", d.TenancyHandler.ListUsers)

	stores := e.Group("/stores")
	stores.POST("", d.TenancyHandler.CreateStore, authed, orgAdmin)
	stores.GET("", d.TenancyHandler.ListStores, authed)
	stores.GET("/:storeId", d.TenancyHandler.GetStore)
	stores.PATCH("/:storeId", d.TenancyHandler.PatchStore, authed, orgAdmin)

	products := stores.Group("/:storeId/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("", d.CatalogHandler.CreateProduct, authed, manager)
	products.PATCH("/:id", d.CatalogHandler.PatchProduct, authed, manager)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, authed, manager)
	products.POST("/bulk-stock", d.CatalogHandler.BulkStock, authed, staff)

	slots := stores.Group("/:storeId/slots", authed)
	slots.GET("", d.CatalogHandler.ListSlots)
	slots.POST("", d.CatalogHandler.CreateSlot, manager)
	slots.PATCH("/:id", d.CatalogHandler.PatchSlot, manager)

	stores.GET("/:storeId/ratings", d.RatingHandler.List)
	stores.GET("/:storeId/ratings/summary", d.RatingHandler.Summary)

	coupons := e.Group("/coupons", authed)
	coupons.POST("/validate", d.CouponHandler.Validate)
	coupons.POST("", d.CouponHandler.Create, manager)
	coupons.GET("", d.CouponHandler.List, manager)
	coupons.GET("/:id", d.CouponHandler.Get, manager)
	coupons.PATCH("/:id", d.CouponHandler.Patch, manager)
	coupons.DELETE("/:id", d.CouponHandler.Delete, manager)

	orders := e.Group("/orders", authed)
	orders.POST("", d.OrderHandler.Create, customer)
	orders.GET("", d.OrderHandler.List)
	orders.GET("/transitions", d.OrderHandler.Transitions)
	orders.POST("/bulk-status", d.OrderHandler.BulkStatus, staff)
	orders.GET("/:id", d.OrderHandler.Get)
	orders.PATCH("/:id/status", d.OrderHandler.UpdateStatus, staff)
	orders.POST("/:id/cancel", d.OrderHandler.Cancel, customer)

	trips := e.Group("/delivery-trips", authed)
	trips.POST("", d.TripHandler.Create, staff)
	trips.GET("", d.TripHandler.List, fleet)
	trips.GET("/:id", d.TripHandler.Get, fleet)
	trips.POST("/:id/start", d.TripHandler.Start, fleet)
	trips.POST("/:id/orders/:orderId/deliver", d.TripHandler.Deliver, fleet)
	trips.POST("/:id/orders/:orderId/fail", d.TripHandler.Fail, fleet)
	trips.POST("/:id/complete", d.TripHandler.Complete, fleet)
	trips.POST("/:id/cancel", d.TripHandler.Cancel, staff)
	trips.GET("/:id/cod", d.TripHandler.COD, fleet)
	trips.POST("/:id/settle-cash", d.TripHandler.SettleCash, manager)
	trips.GET("/:id/location", d.LocationHandler.TripLocation)
	trips.GET("/:id/track", d.LocationHandler.Track)

	e.GET("/riders/:riderId/cod-pending", d.TripHandler.RiderCODPending, authed, fleet)

	riderGroup := e.Group("/rider", authed, rider)
	riderGroup.POST("/location", d.LocationHandler.Record)
	riderGroup.GET("/ws", d.LocationHandler.RiderStream)

	loyalty := e.Group("/loyalty", authed)
	loyalty.GET("/balance", d.LoyaltyHandler.Balance, customer)
	loyalty.GET("/transactions", d.LoyaltyHandler.Transactions, customer)
	loyalty.GET("/users/:userId", d.LoyaltyHandler.ForUser, staff)
	loyalty.POST("/adjust", d.LoyaltyHandler.Adjust, orgAdmin)

	referrals := e.Group("/referrals", authed)
	referrals.GET("/config", d.ReferralHandler.Config, orgAdmin)
	referrals.PUT("/config", d.ReferralHandler.PutConfig, orgAdmin)
	referrals.GET("/me", d.ReferralHandler.Mine, customer)
	referrals.POST("/apply", d.ReferralHandler.Apply, customer)
	referrals.GET("", d.ReferralHandler.List, orgAdmin)

	notifications := e.Group("/notifications", authed)
	notifications.GET("", d.NotificationHandler.Inbox)
	notifications.GET("/unread-count", d.NotificationHandler.UnreadCount)
	notifications.PATCH("/:id/read", d.NotificationHandler.MarkRead)
	notifications.POST("/read-all", d.NotificationHandler.MarkAllRead)
	notifications.POST("/devices", d.NotificationHandler.RegisterDevice)

	campaigns := notifications.Group("/admin", manager)
	campaigns.POST("/send", d.NotificationHandler.Send)
	campaigns.GET("/campaigns", d.NotificationHandler.Campaigns)
	campaigns.GET("/campaigns/:id/progress", d.NotificationHandler.Progress)

	banners := e.Group("/banners")
	banners.GET("/active", d.BannerHandler.Active)
	banners.POST("", d.BannerHandler.Create, authed, manager)
	banners.GET("", d.BannerHandler.List, authed, manager)
	banners.GET("/:id", d.BannerHandler.Get, authed, manager)
	banners.PATCH("/:id", d.BannerHandler.Patch, authed, manager)
	banners.DELETE("/:id", d.BannerHandler.Delete, authed, manager)

	returns := e.Group("/returns", authed, desk)
	returns.POST("", d.ReturnHandler.Create, customer)
	returns.GET("", d.ReturnHandler.List)
	returns.GET("/:id", d.ReturnHandler.Get)
	returns.POST("/:id/approve", d.ReturnHandler.Approve, manager)
	returns.POST("/:id/reject", d.ReturnHandler.Reject, manager)

	tickets := e.Group("/support/tickets", authed, desk)
	tickets.POST("", d.SupportHandler.Create, customer)
	tickets.GET("", d.SupportHandler.List)
	tickets.GET("/:id", d.SupportHandler.Get)
	tickets.POST("/:id/messages", d.SupportHandler.AddMessage)
	tickets.PATCH("/:id", d.SupportHandler.Patch, staff)

	ratings := e.Group("/ratings", authed)
	ratings.POST("", d.RatingHandler.Create, customer)
	ratings.PATCH("/:id/moderate", d.RatingHandler.Moderate, manager)
	ratings.POST("/:id/reply", d.RatingHandler.Reply, manager)

	memberships := e.Group("/memberships")
	memberships.GET("/plans", d.MembershipHandler.PublicPlans)
	memberships.POST("/plans", d.MembershipHandler.CreatePlan, authed, orgAdmin)
	memberships.PATCH("/plans/:id", d.MembershipHandler.PatchPlan, authed, orgAdmin)
	memberships.GET("/admin/plans", d.MembershipHandler.AdminPlans, authed, orgAdmin)
	memberships.POST("/subscribe", d.MembershipHandler.Subscribe, authed, customer)
	memberships.POST("/cancel", d.MembershipHandler.Cancel, authed, customer)
	memberships.GET("/me", d.MembershipHandler.Mine, authed, customer)
	memberships.GET("/subscribers", d.MembershipHandler.Subscribers, authed, orgAdmin)
}
