package config

import (
	"fmt"
	"time"

	"github.com/Clean-PRO/backend/utils"
	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	GinMode  string `env:"GIN_MODE" envDefault:"debug"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	TimeZone string `env:"TIME_ZONE" envDefault:"Europe/Moscow"`

	DBEngine   string `env:"DB_ENGINE" envDefault:"sqlite"` // mysql, postgres, sqlite
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT"`
	DBName     string `env:"DB_NAME" envDefault:"cleanpro"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"cleanpro.db"`

	JWTSecret      string        `env:"JWT_SECRET"`
	JWTTTL         time.Duration `env:"JWT_TTL" envDefault:"24h"`
	SecretSalt     string        `env:"SECRET_SALT" envDefault:""`
	PassIterations int           `env:"PASS_ITERATIONS" envDefault:"1000"`

	WorkStartHour int `env:"SCHEDULE_WORK_START_H" envDefault:"9"`
	WorkStopHour  int `env:"SCHEDULE_WORK_STOP_H" envDefault:"21"`

	RedisURL string `env:"REDIS_URL"`

	YaMapsID             string        `env:"CLEANPRO_YA_MAPS_ID"`
	ReviewsParseInterval time.Duration `env:"REVIEWS_PARSE_INTERVAL" envDefault:"24h"`

	SMTPHost         string `env:"EMAIL_HOST"`
	SMTPPort         int    `env:"EMAIL_PORT" envDefault:"587"`
	SMTPUser         string `env:"EMAIL_HOST_USER"`
	SMTPPassword     string `env:"EMAIL_HOST_PASSWORD"`
	DefaultFromEmail string `env:"DEFAULT_FROM_EMAIL" envDefault:"noreply@cleanpro.ru"`

	OAuthRedirectBase      string `env:"OAUTH_REDIRECT_BASE" envDefault:"http://localhost:8080"`
	SocialLoginRedirectURL string `env:"SOCIAL_AUTH_LOGIN_REDIRECT_URL" envDefault:"http://localhost:3000/"`
	GoogleClientID         string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret     string `env:"GOOGLE_CLIENT_SECRET"`
	GitHubClientID         string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret     string `env:"GITHUB_CLIENT_SECRET"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	StripeSuccessURL    string `env:"STRIPE_SUCCESS_URL" envDefault:"http://localhost:3000/orders?paid=1"`
	StripeCancelURL     string `env:"STRIPE_CANCEL_URL" envDefault:"http://localhost:3000/orders"`

	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_ORDER_TOPIC" envDefault:"cleanpro.orders"`

	OTelEnabled  bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampling float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"1"`

	CORSOrigin   string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`
	RateLimit    int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"300"`
	SeedCleaners int    `env:"SEED_CLEANERS" envDefault:"0"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.WorkStartHour < 0 || cfg.WorkStopHour > 23 || cfg.WorkStartHour >= cfg.WorkStopHour {
		return nil, fmt.Errorf("invalid working hours %d-%d", cfg.WorkStartHour, cfg.WorkStopHour)
	}
	return cfg, nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// YaMapsURL is the reviews widget page for the company card.
func (c *Config) YaMapsURL() string {
	if c.YaMapsID == "" {
		return ""
	}
	return fmt.Sprintf("https://yandex.ru/maps-reviews-widget/%s?comments", c.YaMapsID)
}
