package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/buildhive/buildhive-backend/internal/config"
	"github.com/buildhive/buildhive-backend/internal/database"
	"github.com/buildhive/buildhive-backend/internal/engine"
	"github.com/buildhive/buildhive-backend/internal/handlers"
	"github.com/buildhive/buildhive-backend/internal/middleware"
	"github.com/buildhive/buildhive-backend/internal/routes"
	"github.com/buildhive/buildhive-backend/internal/services"
	"github.com/buildhive/buildhive-backend/internal/store"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to MongoDB
	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Persistence + engine
	db := store.New(database.DB)
	if err := db.EnsureIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
	} else {
		log.Println("✅ MongoDB indexes ensured")
	}
	eng := engine.New(db)
	tokens := services.NewTokenService(cfg.JWTSecret)

	// Optional collaborators: warn and continue when unconfigured.
	var mailer *services.Mailer
	if cfg.SMTPHost != "" {
		m, err := services.NewMailer(cfg)
		if err != nil {
			log.Printf("⚠️  WARNING: failed to initialize mailer: %v", err)
		} else {
			mailer = m
			log.Println("✅ Mailer initialized")
		}
	} else {
		log.Println("Warning: SMTP not configured. Verification emails will not be sent")
	}

	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		if err := handlers.InitCloudinaryService(cfg); err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("File uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. File uploads will not be available")
	}

	if cfg.StripeSecretKey != "" {
		if err := handlers.InitPaymentService(cfg); err != nil {
			log.Printf("Warning: Failed to initialize Stripe: %v", err)
			log.Println("Payments will not be available")
		} else {
			log.Println("✅ Stripe payment service initialized")
		}
	} else {
		log.Println("Warning: Stripe credentials not found. Payments will not be available")
	}

	handlers.Init(cfg, db, eng, tokens, mailer)

	// Cross-instance chat fan-out
	services.StartRedisProjectSubscriber(context.Background())

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, tokens)

	log.Printf("🚀 BuildHive backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
