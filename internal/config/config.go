package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values shared by the API and the sweeper.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	KafkaBrokers        []string
	JWTSecret           string
	PushTransport       string
	PushSubject         string
	SweepCron           string
	Timezone            *time.Location
	CompletionRateLimit int
	SeedEnabled         bool
	SeedToken           string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Study API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.url", "sqlite:gema_study.db")
	v.SetDefault("push.transport", "log")
	v.SetDefault("push.subject", "gema.push")
	v.SetDefault("sweep.timezone", "Asia/Tokyo")
	v.SetDefault("rate_limit.completions", 30)
	v.SetDefault("seed.enabled", false)

	location, err := time.LoadLocation(v.GetString("sweep.timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid sweep timezone: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		KafkaBrokers:        splitList(v.GetString("kafka.brokers")),
		JWTSecret:           v.GetString("jwt.secret"),
		PushTransport:       strings.ToLower(strings.TrimSpace(v.GetString("push.transport"))),
		PushSubject:         strings.TrimSpace(v.GetString("push.subject")),
		SweepCron:           strings.TrimSpace(v.GetString("sweep.cron")),
		Timezone:            location,
		CompletionRateLimit: v.GetInt("rate_limit.completions"),
		SeedEnabled:         v.GetBool("seed.enabled"),
		SeedToken:           strings.TrimSpace(v.GetString("seed.token")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	switch cfg.PushTransport {
	case "log", "nats", "redis", "kafka":
	default:
		return Config{}, fmt.Errorf("unsupported push transport %q", cfg.PushTransport)
	}

	if cfg.CompletionRateLimit <= 0 {
		cfg.CompletionRateLimit = 30
	}

	return cfg, nil
}

// RequireJWT reports an error when the API is started without a signing secret.
func (c Config) RequireJWT() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret must be provided")
	}
	return nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
