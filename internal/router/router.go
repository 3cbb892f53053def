package router

import (
	"net/http"

	"studynest/config"
	"studynest/internal/auth"
	"studynest/internal/domain"
	"studynest/internal/handler"
	"studynest/internal/middleware"
	"studynest/internal/repository"
	"studynest/internal/service"
	"studynest/internal/ws"
	"studynest/pkg/cloudinary"
	"studynest/pkg/metrics"
	"studynest/pkg/payment"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators built in main and shared by every handler.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Processor payment.Processor
	Cloud     cloudinary.Client
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Hub       *ws.Hub
	Limiter   *middleware.InMemoryRateLimiter
}

func Setup(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     cfg.CORS.AllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowWebSockets:  true,
		AllowCredentials: false,
	}))
	r.Use(middleware.RequestLogger(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}

	// Repositories
	profileRepo := repository.NewProfileRepository(d.DB)
	propertyRepo := repository.NewPropertyRepository(d.DB)
	rentPaymentRepo := repository.NewRentPaymentRepository(d.DB)
	inquiryRepo := repository.NewInquiryRepository(d.DB)
	notificationRepo := repository.NewNotificationRepository(d.DB)
	webhookEventRepo := repository.NewWebhookEventRepository(d.DB)

	verifier := auth.NewVerifier(&cfg.JWT)

	// Services
	notifSvc := service.NewNotificationService(notificationRepo)
	checkoutSvc := service.NewCheckoutService(propertyRepo, rentPaymentRepo, d.Processor, verifier, cfg.Stripe.Currency)
	reconciler := service.NewReconciler(d.DB, rentPaymentRepo, propertyRepo, webhookEventRepo, notifSvc, d.Metrics)
	inquirySvc := service.NewInquiryService(inquiryRepo, propertyRepo, notifSvc, d.Hub)

	// Handlers
	healthHandler := handler.NewHealthHandler(d.DB)
	rentHandler := handler.NewRentPaymentHandler(checkoutSvc, rentPaymentRepo, cfg.Server.BaseURL, cfg.CORS.AllowOrigins)
	webhookHandler := handler.NewStripeWebhookHandler(d.Processor, reconciler)
	profileHandler := handler.NewProfileHandler(profileRepo)
	propertyHandler := handler.NewPropertyHandler(propertyRepo, rentPaymentRepo, d.Cloud, cfg.Cloudinary.Folder)
	inquiryHandler := handler.NewInquiryHandler(inquirySvc, profileRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	authMw := middleware.AuthRequired(verifier)
	ownerMw := middleware.RequireRole(profileRepo, domain.RolePropertyOwner)
	studentMw := middleware.RequireRole(profileRepo, domain.RoleStudent)

	r.GET("/health", healthHandler.Health)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	// Stripe retries on its own schedule; the webhook is not rate limited.
	r.POST("/api/v1/webhooks/stripe", webhookHandler.Handle)

	api := r.Group("/api/v1")
	if d.Limiter != nil {
		api.Use(middleware.RateLimit(d.Limiter))
	}
	{
		// Authenticates inside the service so every failure keeps the {error, details} shape.
		api.POST("/payments/rent/checkout", rentHandler.CreateCheckout)
		api.POST("/payments/rent/portal", authMw, rentHandler.Portal)
		api.POST("/payments/rent/verify", authMw, rentHandler.Verify)

		api.GET("/properties", propertyHandler.Search)
		api.GET("/properties/:id", propertyHandler.Get)
		api.POST("/properties", authMw, ownerMw, propertyHandler.Create)
		api.PUT("/properties/:id", authMw, ownerMw, propertyHandler.Update)
		api.DELETE("/properties/:id", authMw, ownerMw, propertyHandler.Delete)
		api.POST("/properties/:id/images", authMw, ownerMw, propertyHandler.UploadImage)
		api.DELETE("/properties/:id/images", authMw, ownerMw, propertyHandler.DeleteImage)
		api.POST("/properties/:id/inquiries", authMw, studentMw, inquiryHandler.Create)

		inquiries := api.Group("/inquiries/:id")
		inquiries.Use(authMw)
		{
			inquiries.PATCH("/status", inquiryHandler.UpdateStatus)
			inquiries.GET("/messages", inquiryHandler.Messages)
			inquiries.POST("/messages", inquiryHandler.Reply)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.POST("/profile", profileHandler.Create)
			me.GET("/profile", profileHandler.Get)
			me.PATCH("/profile", profileHandler.Update)
			me.GET("/properties", ownerMw, propertyHandler.ListMine)
			me.GET("/inquiries", inquiryHandler.ListMine)
			me.GET("/rent-payments", rentHandler.History)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}
	}

	r.GET("/ws/inquiries", ws.UpgradeInquiryWS(verifier, d.Hub))

	return r
}
