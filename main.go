package main

import (
	"fmt"
	"log"

	"windowquote-backend/catalog"
	"windowquote-backend/config"
	"windowquote-backend/controllers"
	"windowquote-backend/gateway"
	"windowquote-backend/models"
	"windowquote-backend/pricing"
	"windowquote-backend/repository"
	"windowquote-backend/routes"
	"windowquote-backend/services"
	"windowquote-backend/utils"
	"windowquote-backend/vision"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	logger := config.NewLogger(cfg.Env)
	defer logger.Sync()

	utils.SetJWTSecret(cfg.JWTSecret)

	config.ConnectDB()
	config.DB.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.QuoteRecord{},
		&models.QuoteLineRecord{},
		&models.Material{},
		&models.WindowType{},
		&models.WindowBrand{},
		&models.WindowOption{},
		&models.PricingConfigRow{},
		&models.AnalysisResult{},
		&models.AnalyticsEvent{},
		&models.FollowUpLog{},
	)

	store := repository.New(config.DB, logger)
	cat := catalog.New(config.DB, logger)
	engine := pricing.NewEngine(cat)

	visionClient := vision.NewClient(cfg.VisionEndpoint, cfg.VisionAPIKey,
		cfg.MaxImageBytes, cfg.VisionTimeout, logger)
	emailSvc := services.NewEmailService(cfg.EmailEndpoint, cfg.EmailAPIKey,
		cfg.EmailTimeout, logger)

	analytics := services.NewAnalyticsService(store, cfg.AnalyticsBatchSize,
		cfg.AnalyticsInterval, logger)
	go analytics.Start()
	defer analytics.Stop()

	quoteSvc := services.NewQuoteService(cat, engine, store,
		visionClient, emailSvc, analytics, logger)

	followUps := services.NewFollowUpService(store, emailSvc,
		cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	scheduler := followUps.StartScheduler()
	defer scheduler.Stop()

	policy := gateway.NewOriginPolicy(cfg.AllowedOrigins, cfg.AllowedOriginSuffix)
	gw := gateway.New(policy, quoteSvc, cat, analytics, logger)

	controllers.Init(cfg, cat, store, quoteSvc, gw, logger)

	r := routes.SetupRouter(cfg, logger)
	printRoutes(r)

	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
