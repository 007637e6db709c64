package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ignatzorin/water-alert-backend/internal/config"
	"github.com/ignatzorin/water-alert-backend/internal/http/middleware"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/handler"
	"github.com/ignatzorin/water-alert-backend/internal/service"
)

// Handlers собирает все HTTP обработчики сервиса.
type Handlers struct {
	Health    *handler.HealthHandler
	Report    *handler.ReportHandler
	Alert     *handler.AlertHandler
	Pincode   *handler.PincodeHandler
	SMS       *handler.SMSHandler
	Authority *handler.AuthorityHandler
	Lab       *handler.LabHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokenManager *service.TokenManager,
	gatherer prometheus.Gatherer,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	writeLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	reports := api.Group("/reports")
	{
		reports.GET("", h.Report.List)
		reports.POST("", writeLimit, h.Report.Submit)
		reports.POST("/:id/upvote", middleware.UUIDValidator("id"), writeLimit, h.Report.Upvote)
	}

	api.GET("/alerts/nearby", h.Alert.Nearby)
	api.GET("/pincodes", h.Pincode.ByDistrict)
	api.GET("/pincodes/:pin", h.Pincode.Lookup)

	smsGroup := api.Group("/sms")
	{
		smsGroup.GET("/instructions", h.SMS.Instructions)
		smsGroup.POST("/format", h.SMS.Format)
		smsGroup.POST("/inbound", middleware.WebhookToken(cfg.SMSWebhookTokenHash), h.SMS.Inbound)
	}

	authority := api.Group("/authority")
	authority.Use(middleware.AuthMiddleware(tokenManager))
	{
		onlyAuthority := middleware.RequireRole(service.RoleAuthority)

		authority.GET("/groups", onlyAuthority, h.Authority.ListGroups)
		authority.POST("/escalations", onlyAuthority, h.Authority.Escalate)
		authority.PUT("/assignments/:id/coordinates", middleware.UUIDValidator("id"), onlyAuthority, h.Authority.SetCoordinates)
		authority.POST("/reports/:id/verify", middleware.UUIDValidator("id"), onlyAuthority, h.Authority.Verify)
		authority.POST("/assignments/:id/confirm-clean",
			middleware.UUIDValidator("id"),
			middleware.RequireRole(service.RoleAuthority, service.RoleLab),
			h.Authority.ConfirmClean,
		)
	}

	lab := api.Group("/lab")
	lab.Use(middleware.AuthMiddleware(tokenManager))
	{
		anyStaff := middleware.RequireRole(service.RoleLab, service.RoleAuthority)

		lab.GET("/assignments", anyStaff, h.Lab.List)
		lab.GET("/assignments/:id", middleware.UUIDValidator("id"), anyStaff, h.Lab.Get)
		lab.POST("/assignments/:id/solution", middleware.UUIDValidator("id"), middleware.RequireRole(service.RoleLab), h.Lab.UploadSolution)
		lab.POST("/assignments/:id/test-result", middleware.UUIDValidator("id"), middleware.RequireRole(service.RoleLab), h.Lab.UploadTestResult)
		lab.GET("/solutions", anyStaff, h.Lab.ListSolutions)
	}

	return r
}
