package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"credexa/internal/api"        // Custom package for API handlers
	"credexa/internal/chain"      // Chain anchor client
	"credexa/internal/config"     // Custom package for configuration
	"credexa/internal/credential" // Anchoring and verification core
	"credexa/internal/extract"    // Extraction service client
	"credexa/internal/middleware" // Custom package for middleware

	// For loading .env files
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// TranslateError maps duplicate-key violations onto gorm.ErrDuplicatedKey,
	// which the anchoring store relies on for its race guard
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Setup the chain anchor client with explicit configuration, injected
	// into the services below rather than read from ambient state
	chainClient, err := chain.New(chain.Config{
		RPCURL:          cfg.ChainRPCURL,     // Blockchain JSON-RPC endpoint
		PrivateKey:      cfg.ChainPrivateKey, // Anchoring key
		ContractAddress: cfg.ContractAddress, // Anchor contract address
		Timeout:         cfg.ChainTimeout,    // Per-call timeout
	})
	if err != nil {
		logrus.Fatalf("failed to set up chain client: %v", err)
	}

	// Wire the anchoring and verification core
	store := credential.NewGormStore(db)                          // Credential record store
	users := credential.NewGormUsers(db)                          // User collaborator
	anchorSvc := credential.NewService(store, chainClient)        // Anchoring service
	verifier := credential.NewVerifier(store, users, chainClient) // Verification service

	// Extraction service client
	extractClient := extract.New(cfg.ExtractionURL)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/auth/register", api.RegisterHandler(db))                                // Registration endpoint
	r.POST("/auth/login", api.LoginHandler(db, cfg.JWTSecret))                       // Login endpoint
	r.POST("/auth/otp/request", api.RequestOTPHandler(db, redisClient, cfg))         // OTP request endpoint
	r.POST("/auth/otp/verify", api.VerifyOTPHandler(db, redisClient, cfg.JWTSecret)) // OTP login endpoint

	// Public routes: verification works for third parties holding only a hash
	r.GET("/credentials/verify/:hash", api.VerifyHandler(verifier, redisClient)) // Public verification endpoint
	r.GET("/leaderboard", api.LeaderboardHandler(db, redisClient))               // Leaderboard endpoint
	r.GET("/jobs", api.SearchJobsHandler(db, redisClient))                       // Job search endpoint

	// Credential routes (protected by JWT)
	credGroup := r.Group("/api")
	// Protect credential routes with JWT middleware and inject Redis client into context
	credGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), func(c *gin.Context) {
		c.Set("redisClient", redisClient)
		c.Next()
	})
	credGroup.POST("/credentials", api.CreateCredentialHandler(db))                                // Create credential endpoint
	credGroup.GET("/credentials", api.ListCredentialsHandler(db, redisClient))                     // List credentials endpoint
	credGroup.GET("/credentials/:id", api.GetCredentialHandler(db))                                // Get credential endpoint
	credGroup.PUT("/credentials/:id", api.UpdateCredentialHandler(store))                          // Update credential endpoint
	credGroup.DELETE("/credentials/:id", api.DeleteCredentialHandler(db))                          // Delete credential endpoint
	credGroup.POST("/credentials/:id/anchor", api.AnchorCredentialHandler(anchorSvc, redisClient)) // Anchor endpoint
	credGroup.POST("/credentials/extract", api.ExtractCredentialHandler(extractClient))            // Certificate extraction endpoint
	credGroup.GET("/settings", api.GetSettingsHandler(db))                                         // Get settings endpoint
	credGroup.PUT("/settings", api.UpdateSettingsHandler(db))                                      // Update settings endpoint
	credGroup.POST("/platforms", api.LinkPlatformHandler(db))                                      // Link platform endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	// Protect admin routes with JWT and AdminOnly middleware
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	adminGroup.GET("/users", api.AdminListUsersHandler(db, redisClient))             // List users endpoint
	adminGroup.GET("/credentials", api.AdminListCredentialsHandler(db, redisClient)) // List credentials endpoint
	adminGroup.POST("/jobs", api.CreateJobHandler(db))                               // Job ingestion endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
