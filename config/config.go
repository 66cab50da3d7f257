package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ProviderConfig holds the OAuth and webhook settings for one fitness provider.
// Endpoint URLs have production defaults and are overridable for tests.
type ProviderConfig struct {
	ClientID      string
	ClientSecret  string
	Scopes        []string
	AuthorizeURL  string
	TokenURL      string
	RevokeURL     string // empty means the provider has no revoke endpoint
	WebhookSecret string // empty means webhook signature verification is skipped
}

// IsConfigured returns true if all required provider configuration is present
// Note: WebhookSecret is optional, but an unconfigured secret disables
// signature verification for that provider's webhooks.
func (c ProviderConfig) IsConfigured() bool {
	return c.ClientID != "" &&
		c.ClientSecret != ""
}

type ClerkConfig struct {
	SecretKey string
}

// IsConfigured returns true if all required Clerk configuration is present
func (c ClerkConfig) IsConfigured() bool {
	return c.SecretKey != ""
}

type AppConfig struct {
	// Core configuration (always required)
	DatabaseURL          string
	DatabaseSchema       string
	Port                 string // Optional with default "8080"
	CORSAllowedOrigins   string // Optional with default "*"
	Environment          string
	PublicBaseURL        string // Base URL used for OAuth redirects and webhook callback URLs
	ServerLogsURL        string
	SlackAlertWebhookURL string
	UseStrictConfig      bool // If true, error when any provider is not fully configured

	// Provider configurations (grouped)
	StravaConfig ProviderConfig
	FitbitConfig ProviderConfig
	GarminConfig ProviderConfig

	ClerkConfig ClerkConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	// Core required configuration
	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		// Core configuration
		DatabaseURL:          databaseURL,
		DatabaseSchema:       databaseSchema,
		Port:                 getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins:   getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:          getEnvWithDefault("ENVIRONMENT", "dev"),
		PublicBaseURL:        getEnvWithDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		ServerLogsURL:        getEnvWithDefault("SERVER_LOGS_URL", ""),
		SlackAlertWebhookURL: os.Getenv("SLACK_ALERT_WEBHOOK_URL"),
		UseStrictConfig:      getEnvWithDefault("USE_STRICT_CONFIG", "true") == "true",

		// Strava configuration (optional)
		StravaConfig: ProviderConfig{
			ClientID:      os.Getenv("STRAVA_CLIENT_ID"),
			ClientSecret:  os.Getenv("STRAVA_CLIENT_SECRET"),
			Scopes:        getEnvList("STRAVA_SCOPES", "read,activity:read_all"),
			AuthorizeURL:  getEnvWithDefault("STRAVA_AUTHORIZE_URL", "https://www.strava.com/oauth/authorize"),
			TokenURL:      getEnvWithDefault("STRAVA_TOKEN_URL", "https://www.strava.com/oauth/token"),
			RevokeURL:     getEnvWithDefault("STRAVA_REVOKE_URL", "https://www.strava.com/oauth/deauthorize"),
			WebhookSecret: os.Getenv("STRAVA_WEBHOOK_SECRET"),
		},

		// Fitbit configuration (optional)
		FitbitConfig: ProviderConfig{
			ClientID:      os.Getenv("FITBIT_CLIENT_ID"),
			ClientSecret:  os.Getenv("FITBIT_CLIENT_SECRET"),
			Scopes:        getEnvList("FITBIT_SCOPES", "activity,profile"),
			AuthorizeURL:  getEnvWithDefault("FITBIT_AUTHORIZE_URL", "https://www.fitbit.com/oauth2/authorize"),
			TokenURL:      getEnvWithDefault("FITBIT_TOKEN_URL", "https://api.fitbit.com/oauth2/token"),
			RevokeURL:     getEnvWithDefault("FITBIT_REVOKE_URL", "https://api.fitbit.com/oauth2/revoke"),
			WebhookSecret: os.Getenv("FITBIT_WEBHOOK_SECRET"),
		},

		// Garmin configuration (optional). Garmin has no revoke endpoint.
		GarminConfig: ProviderConfig{
			ClientID:      os.Getenv("GARMIN_CLIENT_ID"),
			ClientSecret:  os.Getenv("GARMIN_CLIENT_SECRET"),
			Scopes:        getEnvList("GARMIN_SCOPES", "activity_read"),
			AuthorizeURL:  getEnvWithDefault("GARMIN_AUTHORIZE_URL", "https://connect.garmin.com/oauth2Confirm"),
			TokenURL:      getEnvWithDefault("GARMIN_TOKEN_URL", "https://connectapi.garmin.com/di-oauth2-service/oauth/token"),
			RevokeURL:     "",
			WebhookSecret: os.Getenv("GARMIN_WEBHOOK_SECRET"),
		},

		// Clerk configuration (optional)
		ClerkConfig: ClerkConfig{
			SecretKey: os.Getenv("CLERK_SECRET_KEY"),
		},
	}

	// Log which providers are configured
	providerConfigs := map[string]ProviderConfig{
		"Strava": config.StravaConfig,
		"Fitbit": config.FitbitConfig,
		"Garmin": config.GarminConfig,
	}
	for name, pc := range providerConfigs {
		if pc.IsConfigured() {
			log.Printf("✅ %s provider configured", name)
			if pc.WebhookSecret == "" {
				log.Printf("⚠️ %s webhook secret not set - webhook signature verification is DISABLED for %s", name, name)
			}
		} else {
			log.Printf("⚠️ %s provider not configured - %s connections will be disabled", name, name)
			if config.UseStrictConfig {
				return nil, fmt.Errorf("%s provider is not fully configured (USE_STRICT_CONFIG=true)", strings.ToLower(name))
			}
		}
	}

	if config.ClerkConfig.IsConfigured() {
		log.Printf("✅ Clerk authentication configured")
	} else {
		log.Printf("⚠️ Clerk authentication not configured - API authentication will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("clerk authentication is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnvWithDefault(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
