// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tripweaver/planner"
)

// Provider names accepted in AI_PROVIDER.
const (
	ProviderGemini      = "gemini"
	ProviderHuggingFace = "huggingface"
)

// Config holds all configuration values for the API server.
type Config struct {
	Port    string
	GinMode string

	// AllowedOrigins always includes the local dev servers; FRONTEND_URL
	// (comma-separated) adds to them.
	AllowedOrigins []string

	AIProvider        string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string
	HuggingFaceAPIKey string
	HFModel           string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	WeatherTimeout    time.Duration
	GenerationTimeout time.Duration
	WeatherCacheTTL   time.Duration
	SessionTTL        time.Duration
	MaxTripDays       int

	// RateLimitRPS <= 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// DatabaseURL is optional; empty disables the generation log.
	DatabaseURL string
}

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// Load reads configuration from environment variables and returns a Config.
// Malformed values produce an error naming every offending variable.
func Load() (Config, error) {
	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		GinMode:            os.Getenv("GIN_MODE"),
		AllowedOrigins:     append(append([]string{}, defaultOrigins...), splitCSV(os.Getenv("FRONTEND_URL"))...),
		AIProvider:         strings.ToLower(getEnv("AI_PROVIDER", ProviderGemini)),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        os.Getenv("GEMINI_MODEL"),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		HuggingFaceAPIKey:  os.Getenv("HUGGINGFACE_API_KEY"),
		HFModel:            os.Getenv("HF_MODEL"),
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: os.Getenv("OPENWEATHER_BASE_URL"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
	}

	p := parser{}
	cfg.WeatherTimeout = p.duration("WEATHER_TIMEOUT", planner.DefaultWeatherTimeout)
	cfg.GenerationTimeout = p.duration("GENERATION_TIMEOUT", planner.DefaultGenerationTimeout)
	cfg.WeatherCacheTTL = p.duration("WEATHER_CACHE_TTL", 10*time.Minute)
	cfg.SessionTTL = p.duration("SESSION_TTL", 2*time.Hour)
	cfg.MaxTripDays = p.positiveInt("MAX_TRIP_DAYS", planner.DefaultMaxTripDays)
	cfg.RateLimitRPS = p.float("RATE_LIMIT_RPS", 1)
	cfg.RateLimitBurst = p.positiveInt("RATE_LIMIT_BURST", 5)

	switch cfg.AIProvider {
	case ProviderGemini, ProviderHuggingFace:
	default:
		p.invalid = append(p.invalid, fmt.Sprintf("AI_PROVIDER=%q (want %s or %s)", cfg.AIProvider, ProviderGemini, ProviderHuggingFace))
	}

	if len(p.invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(p.invalid, "; "))
	}
	return cfg, nil
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	invalid []string
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.invalid = append(p.invalid, fmt.Sprintf("%s=%q (want a positive duration such as 30s)", key, v))
		return fallback
	}
	return d
}

func (p *parser) positiveInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		p.invalid = append(p.invalid, fmt.Sprintf("%s=%q (want a positive integer)", key, v))
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.invalid = append(p.invalid, fmt.Sprintf("%s=%q (want a number)", key, v))
		return fallback
	}
	return f
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
