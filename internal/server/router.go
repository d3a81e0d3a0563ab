// Package server wires the services, handlers and middleware into an echo instance.
package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"pos-service/internal/handler"
	mid "pos-service/internal/middleware"
	"pos-service/internal/model"
	"pos-service/internal/policy"
	"pos-service/internal/repository"
	"pos-service/internal/service"
	"pos-service/pkg/cache"
	"pos-service/pkg/config"
	"pos-service/pkg/jwtutil"
	"pos-service/pkg/logger"
	"pos-service/pkg/validator"
	"pos-service/prometheus"
)

// Deps are the collaborators the router is built from
type Deps struct {
	Config   *config.Config
	Repos    *repository.Set
	Cache    cache.Store
	Notifier service.Notifier
	Logger   *zap.Logger
	// Checks are reported by GET /health
	Checks map[string]handler.Check
}

// New returns the configured echo instance with every route registered
func New(d Deps) *echo.Echo {
	cfg := d.Config
	log := d.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, mid.TenantHeader, mid.DeviceIDHeader, mid.RequestIDHeader},
		AllowCredentials: false,
	}))
	e.Use(echo.WrapMiddleware(otelhttp.NewMiddleware(cfg.ServiceName)))
	e.Use(mid.RequestIDMiddleware())
	e.Use(prometheus.MetricsMiddleware())
	e.Use(logger.Middleware())

	// Services
	pricing := service.NewSpecialPriceService(d.Repos)
	auth := service.NewAuthService(d.Repos.Users, jwtutil.NewJWTUtil(&cfg.JWT), d.Cache, log)
	directory := service.NewTenantDirectory(d.Repos.Tenants, d.Cache, cfg.Redis.TenantCacheTTL, cfg.Redis.TenantNegativeTTL, log)

	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.GET("/health", handler.NewHealthHandler(d.Checks).HealthCheck)

	api := e.Group("/api")
	authn := mid.AuthMiddleware(auth, cfg.JWT.CookieName)
	tenant := mid.TenantMiddleware(directory, cfg.Server.BaseDomain)

	// Auth routes
	authHandler := handler.NewAuthHandler(auth, cfg.JWT.CookieName, cfg.Server.Env == "production")
	api.POST("/auth/login", authHandler.Login)
	authAPI := api.Group("/auth", authn)
	authAPI.POST("/logout", authHandler.Logout)
	authAPI.POST("/switch", authHandler.Switch)
	authAPI.GET("/me", authHandler.Me)
	authAPI.GET("/tenants", authHandler.Tenants)

	// Master data
	masterRoutes(api.Group("/regions", authn, tenant), policy.Regions,
		handler.NewMasterHandler(service.NewMasterService(d.Repos.Regions, "Region")))
	masterRoutes(api.Group("/pools", authn, tenant), policy.Pools,
		handler.NewMasterHandler(service.NewMasterService(d.Repos.Pools, "Pool", "region_id")))
	masterRoutes(api.Group("/leasings", authn, tenant), policy.Leasings,
		handler.NewMasterHandler(service.NewMasterService(d.Repos.Leasings, "Leasing")))
	masterRoutes(api.Group("/doc-types", authn, tenant), policy.DocTypes,
		handler.NewMasterHandler(service.NewMasterService(d.Repos.DocTypes, "Doc type")))
	masterRoutes(api.Group("/upah-tarik-rates", authn, tenant), policy.UpahTarikRates,
		handler.NewMasterHandler(service.NewMasterService(d.Repos.UpahTarikRates, "Upah tarik rate", "region_id", "leasing_id", "vehicle_type")))
	masterRoutes(api.Group("/product-categories", authn, tenant), policy.ProductCategories,
		handler.NewMasterHandler(service.NewMasterService(d.Repos.ProductCategories, "Product category")))
	masterRoutes(api.Group("/customer-categories", authn, tenant), policy.CustomerCategories,
		handler.NewMasterHandler(service.NewMasterService(d.Repos.CustomerCategories, "Customer category")))
	masterRoutes(api.Group("/customers", authn, tenant), policy.Customers,
		handler.NewMasterHandler(service.NewMasterService(d.Repos.Customers, "Customer", "category_id", "region_id")))

	products := api.Group("/products", authn, tenant)
	masterRoutes(products, policy.Products,
		handler.NewMasterHandler(service.NewMasterService(d.Repos.Products, "Product", "category_id")))
	prices := handler.NewSpecialPriceHandler(pricing)
	products.GET("/:id/special-prices", prices.List, mid.Authorize(policy.Read, policy.Products))
	products.PUT("/:id/special-prices", prices.Set, mid.Authorize(policy.Update, policy.Products))
	products.DELETE("/:id/special-prices/:categoryId", prices.Remove, mid.Authorize(policy.Update, policy.Products))

	// Sales
	sales := handler.NewSalesHandler(service.NewSalesService(d.Repos, pricing, d.Notifier, log))
	salesAPI := api.Group("/sales", authn, tenant)
	salesAPI.GET("", sales.List, mid.Authorize(policy.Read, policy.Sales))
	salesAPI.GET("/:id", sales.Get, mid.Authorize(policy.Read, policy.Sales))
	salesAPI.POST("", sales.Create, mid.Authorize(policy.Create, policy.Sales))
	salesAPI.POST("/:id/payments", sales.Pay, mid.Authorize(policy.Pay, policy.Sales))
	salesAPI.DELETE("/:id", sales.Void, mid.Authorize(policy.Deactivate, policy.Sales))

	// Receivables and payables
	ledgerRoutes(api.Group("/receivables", authn, tenant), policy.Receivables,
		handler.NewLedgerHandler(service.NewReceivableService(d.Repos), "Receivable"))
	ledgerRoutes(api.Group("/payables", authn, tenant), policy.Payables,
		handler.NewLedgerHandler(service.NewPayableService(d.Repos), "Payable"))

	// Expenses
	expenses := handler.NewExpenseHandler(service.NewExpenseService(d.Repos.Expenses))
	expenseAPI := api.Group("/expenses", authn, tenant)
	expenseAPI.GET("", expenses.List, mid.Authorize(policy.Read, policy.Expenses))
	expenseAPI.GET("/:id", expenses.Get, mid.Authorize(policy.Read, policy.Expenses))
	expenseAPI.POST("", expenses.Create, mid.Authorize(policy.Create, policy.Expenses))
	expenseAPI.PUT("/:id", expenses.Update, mid.Authorize(policy.Update, policy.Expenses))
	expenseAPI.DELETE("/:id", expenses.Void, mid.Authorize(policy.Deactivate, policy.Expenses))

	// Progress tracking
	masterRoutes(api.Group("/progress/templates", authn, tenant), policy.ProgressTemplates,
		handler.NewMasterHandler(service.NewMasterService(d.Repos.ProgressTemplates, "Progress template")))
	progress := handler.NewProgressHandler(service.NewProgressService(d.Repos, d.Notifier, log))
	progressAPI := api.Group("/progress/instances", authn, tenant)
	progressAPI.GET("", progress.List, mid.Authorize(policy.Read, policy.ProgressInstances))
	progressAPI.GET("/:id", progress.Get, mid.Authorize(policy.Read, policy.ProgressInstances))
	progressAPI.POST("", progress.Create, mid.Authorize(policy.Create, policy.ProgressInstances))
	progressAPI.POST("/:id/advance", progress.Advance, mid.Authorize(policy.Advance, policy.ProgressInstances))
	progressAPI.POST("/:id/cancel", progress.Cancel, mid.Authorize(policy.Deactivate, policy.ProgressInstances))

	return e
}

func masterRoutes[T any, PT model.Entity[T]](g *echo.Group, resource string, h *handler.MasterHandler[T, PT]) {
	g.GET("", h.List, mid.Authorize(policy.Read, resource))
	g.GET("/:id", h.Get, mid.Authorize(policy.Read, resource))
	g.POST("", h.Create, mid.Authorize(policy.Create, resource))
	g.PUT("/:id", h.Update, mid.Authorize(policy.Update, resource))
	g.DELETE("/:id", h.Deactivate, mid.Authorize(policy.Deactivate, resource))
	g.POST("/:id/activate", h.Activate, mid.Authorize(policy.Deactivate, resource))
}

func ledgerRoutes(g *echo.Group, resource string, h *handler.LedgerHandler) {
	g.GET("", h.List, mid.Authorize(policy.Read, resource))
	g.GET("/:id", h.Get, mid.Authorize(policy.Read, resource))
	g.POST("", h.Create, mid.Authorize(policy.Create, resource))
	g.PUT("/:id", h.Update, mid.Authorize(policy.Update, resource))
	g.POST("/:id/payments", h.Pay, mid.Authorize(policy.Pay, resource))
	g.POST("/settle", h.Settle, mid.Authorize(policy.Settle, resource))
}
