// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/internal/config"
	"github.com/dealboard/dealboard-backend/internal/handlers"
	"github.com/dealboard/dealboard-backend/internal/middleware"
	"github.com/dealboard/dealboard-backend/internal/policy"
	"github.com/dealboard/dealboard-backend/internal/services"
	"github.com/dealboard/dealboard-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	engine := policy.NewEngine(policy.Options{
		DealTypeBlocking:                cfg.Policy.DealTypeBlocking,
		ShortDescriptionCaseInsensitive: cfg.Policy.ShortDescriptionCaseInsensitive,
	})
	storageService, _ := services.NewStorageService(cfg)
	dealService := services.NewDealService(db, engine)
	storeService := services.NewStoreService(db)
	authService := services.NewAuthService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	dealHandler := handlers.NewDealHandler(dealService, storageService, cfg.Policy)
	storeHandler := handlers.NewStoreHandler(storeService)
	adminHandler := handlers.NewAdminHandler(dealService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Public storefront routes
		v1.GET("/deal-types", dealHandler.GetDealTypes)
		v1.GET("/stores", storeHandler.GetStores)
		v1.GET("/stores/:idOrSlug", storeHandler.GetStore)

		deals := v1.Group("/deals")
		{
			deals.GET("", dealHandler.GetDeals)
			deals.GET("/flash", dealHandler.GetFlashDeals)
			deals.GET("/policy", dealHandler.GetPolicy)

			// Contributor routes (registered before the wildcard so
			// gin does not shadow them)
			protected := deals.Group("")
			protected.Use(middleware.AuthRequired(), middleware.ContributorRequired())
			{
				protected.GET("/mine", dealHandler.GetMyDeals)
				protected.POST("/batch", dealHandler.BatchCreateDeals)
				protected.POST("/check-duplicates", middleware.DuplicateCheckRateLimit(), dealHandler.CheckDuplicates)
				protected.POST("/upload-picture", middleware.UploadRateLimit(), dealHandler.UploadPicture)
				protected.PATCH("/:idOrSlug", dealHandler.UpdateDeal)
				protected.DELETE("/:idOrSlug", dealHandler.DeleteDeal)
			}

			deals.GET("/:idOrSlug", dealHandler.GetDeal)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/deals", adminHandler.GetDeals)
			admin.PUT("/deals/:id/approve", adminHandler.ApproveDeal)
			admin.PUT("/deals/:id/reject", adminHandler.RejectDeal)
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
			admin.POST("/stores", storeHandler.CreateStore)
		}
	}

	return r
}
