package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	HTTPPort         string
	DBPath           string
	BaseURL          string
	JWTSecret        string
	TwilioAuthToken  string
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	MailFrom         string
	AdminEmail       string
	AdminPassword    string
	SkipTwilioVerify bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:         getEnv("PORT", "8080"),
		DBPath:           getEnv("VILLAGELINE_DB_PATH", "villageline.db"),
		BaseURL:          getEnv("VILLAGELINE_BASE_URL", "http://localhost:8080"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		SMTPHost:         getEnv("SMTP_HOST", "localhost"),
		SMTPPort:         getInt("SMTP_PORT", 587),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		MailFrom:         getEnv("MAIL_FROM", "Community Line <communityline@domain.local>"),
		AdminEmail:       getEnv("ADMIN_EMAIL", "admin@villageline.local"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", "changeme"),
		SkipTwilioVerify: getBool("TWILIO_SKIP_VERIFY", false),
	}

	if cfg.TwilioAuthToken == "" && !cfg.SkipTwilioVerify {
		return Config{}, fmt.Errorf("TWILIO_AUTH_TOKEN is required unless TWILIO_SKIP_VERIFY is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
