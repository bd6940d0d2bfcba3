package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tripweaver/config"
	"tripweaver/database"
	"tripweaver/handlers"
	"tripweaver/planner"
	"tripweaver/services"
)

func main() {
	// Load .env file (ignored in production where env vars are set directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	ctx := context.Background()

	// Generation log is optional
	var genLog handlers.GenerationLog
	var recorder planner.Recorder
	if cfg.DatabaseURL != "" {
		store, err := database.Open(ctx, cfg.DatabaseURL, 10)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer store.Close()
		genLog, recorder = store, store
	} else {
		log.Println("⚠️  DATABASE_URL not set — generation log disabled")
	}

	weather := services.NewWeatherClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.WeatherCacheTTL)

	var gen planner.Generator
	switch cfg.AIProvider {
	case config.ProviderHuggingFace:
		gen = services.NewHuggingFaceClient(cfg.HuggingFaceAPIKey, cfg.HFModel, "")
	default:
		gemini, err := services.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		gen = gemini
	}

	p := planner.New(weather, gen, planner.Options{
		WeatherTimeout:    cfg.WeatherTimeout,
		GenerationTimeout: cfg.GenerationTimeout,
		MaxTripDays:       cfg.MaxTripDays,
		Recorder:          recorder,
	})

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// Trusted proxies (the platform sits behind a proxy)
	r.SetTrustedProxies([]string{"0.0.0.0/0"})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	var limit gin.HandlerFunc
	if cfg.RateLimitRPS > 0 {
		limit = handlers.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Limit()
	}

	h := handlers.New(p, handlers.NewSessionStore(cfg.SessionTTL), genLog)
	h.Register(r.Group("/api"), limit)

	// A generate call waits on both providers before it can write.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.WeatherTimeout + cfg.GenerationTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 Tripweaver backend starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("🛑 Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Shutdown error: %v", err)
	}
}
