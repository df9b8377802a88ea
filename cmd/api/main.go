package main

import (
	"os"
	"time"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/ai"
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	ws "backend/internal/websocket"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Civic Reports & Points API
// @version         1.0
// @description     Citizens file infrastructure-issue reports, earn points and redeem them against a product catalog.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info("no configs/.env file found, using environment")
	}

	dsn := "postgres://" + env("DB_USER", "postgres") + ":" + env("DB_PASSWORD", "postgres") +
		"@" + env("DB_HOST", "localhost") + ":" + env("DB_PORT", "5432") +
		"/" + env("DB_NAME", "postgres") + "?sslmode=" + env("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	log.Info("connected to PostgreSQL")

	if err := database.SeedAdmin(db); err != nil {
		log.WithError(err).Fatal("admin seeding failed")
	}

	// WebSocket hub for fire-and-forget notifications
	wsHub := ws.NewHub()
	go wsHub.Run()
	notifier := ws.NewNotifier(wsHub)

	// AI analysis backend
	aiTimeout, _ := time.ParseDuration(env("AI_TIMEOUT", "10s"))
	aiClient := ai.NewHTTPClient(env("AI_BASE_URL", "http://localhost:9090"), aiTimeout)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	reportRepo := repository.NewReportRepository(db)
	productRepo := repository.NewProductRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)

	userService := service.NewUserService(userRepo)
	pointsService := service.NewPointsService(userRepo, pointsRepo, txManager)
	enrichmentService := service.NewEnrichmentService(reportRepo, txManager, aiClient)
	reportService := service.NewReportService(reportRepo, pointsService, txManager, enrichmentService, notifier)
	productService := service.NewProductService(productRepo, txManager)
	redemptionService := service.NewRedemptionService(redemptionRepo, productRepo, pointsService, txManager, notifier)

	authHandler := handler.NewAuthHandler(userService)
	reportHandler := handler.NewReportHandler(reportService)
	pointsHandler := handler.NewPointsHandler(pointsService)
	productHandler := handler.NewProductHandler(productService)
	redemptionHandler := handler.NewRedemptionHandler(redemptionService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API routing
	authHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	pointsHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	redemptionHandler.RegisterRoutes(router.Group(""))

	port := env("PORT", "8080")
	log.WithField("port", port).Info("server listening")
	if err := router.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}
