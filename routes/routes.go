package routes

import (
	"windowquote-backend/config"
	"windowquote-backend/controllers"
	"windowquote-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter builds the public quote surface and the authenticated staff
// API. The iframe endpoint does its own origin checking on top of CORS.
func SetupRouter(cfg *config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger(log))

	// Public quote surface, consumed by the embedded widget.
	r.POST("/analyze-window", controllers.AnalyzeWindow)
	r.POST("/validate-measurements", controllers.ValidateMeasurements)
	r.POST("/calculate-quote", controllers.CalculateQuote)
	r.POST("/generate-quote-explanation", controllers.GenerateQuoteExplanation)
	r.POST("/customer", controllers.SaveCustomer)
	r.GET("/customer", controllers.GetCustomerByEmail)

	r.GET("/materials", controllers.GetMaterials)
	r.GET("/window-types", controllers.GetWindowTypes)
	r.GET("/window-brands", controllers.GetWindowBrands)
	r.GET("/window-options", controllers.GetWindowOptions)
	r.GET("/window-products", controllers.GetWindowProducts)
	r.GET("/configuration", controllers.GetConfiguration)

	r.POST("/iframe-message", controllers.IframeMessage)
	r.GET("/system-health", controllers.SystemHealth)

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		api.GET("/leads", controllers.ListLeads)
		api.GET("/quotes", controllers.ListQuotes)
		api.POST("/quotes", controllers.CreateQuote)
		api.GET("/quotes/:id", controllers.GetQuote)
		api.GET("/search", controllers.SearchAll)
		api.GET("/dashboard", controllers.GetDashboardOverview)

		api.GET("/pricing-config", controllers.GetPricingConfig)
		api.PUT("/pricing-config", controllers.UpdatePricingConfig)
		api.POST("/catalog/refresh", controllers.RefreshCatalog)
	}

	return r
}
