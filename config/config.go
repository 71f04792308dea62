// Package config handles application configuration via environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configurable values for the app.
type Config struct {
	Env  string
	Port string
	DB   string

	// Iframe gateway origin policy. Exact origins plus suffix wildcards
	// for the hosting platform's preview/editor domains.
	AllowedOrigins      []string
	AllowedOriginSuffix []string

	// Vision LLM
	VisionEndpoint string
	VisionAPIKey   string
	VisionTimeout  time.Duration
	MaxImageBytes  int64

	// Email dispatch service
	EmailEndpoint string
	EmailAPIKey   string
	EmailTimeout  time.Duration

	// Analytics batching
	AnalyticsBatchSize int
	AnalyticsInterval  time.Duration

	// Twilio SMS follow-ups (optional; disabled when SID is empty)
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	JWTSecret string
}

// Load reads environment variables and populates a Config struct.
func Load() *Config {
	batchSize, err := strconv.Atoi(getEnv("ANALYTICS_BATCH_SIZE", "20"))
	if err != nil {
		log.Panicf("Invalid ANALYTICS_BATCH_SIZE: %v", err)
	}

	interval, err := time.ParseDuration(getEnv("ANALYTICS_INTERVAL", "15s"))
	if err != nil {
		log.Panicf("Invalid ANALYTICS_INTERVAL: %v", err)
	}

	visionTimeout, err := time.ParseDuration(getEnv("VISION_TIMEOUT", "60s"))
	if err != nil {
		log.Panicf("Invalid VISION_TIMEOUT: %v", err)
	}

	emailTimeout, err := time.ParseDuration(getEnv("EMAIL_TIMEOUT", "15s"))
	if err != nil {
		log.Panicf("Invalid EMAIL_TIMEOUT: %v", err)
	}

	maxImage, err := strconv.ParseInt(getEnv("MAX_IMAGE_BYTES", "5242880"), 10, 64)
	if err != nil {
		log.Panicf("Invalid MAX_IMAGE_BYTES: %v", err)
	}

	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),
		DB:   os.Getenv("DB_URL"),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS",
			"https://www.clearviewwindowworks.com,http://localhost:3000")),
		AllowedOriginSuffix: splitList(getEnv("ALLOWED_ORIGIN_SUFFIXES",
			".wixsite.com,.editorx.io,.wix.com")),

		VisionEndpoint: getEnv("VISION_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		VisionAPIKey:   os.Getenv("VISION_API_KEY"),
		VisionTimeout:  visionTimeout,
		MaxImageBytes:  maxImage,

		EmailEndpoint: getEnv("EMAIL_ENDPOINT", "http://localhost:9100/send"),
		EmailAPIKey:   os.Getenv("EMAIL_API_KEY"),
		EmailTimeout:  emailTimeout,

		AnalyticsBatchSize: batchSize,
		AnalyticsInterval:  interval,

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_PHONE_NUMBER"),

		JWTSecret: os.Getenv("JWT_SECRET"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
