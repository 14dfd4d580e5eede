package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL      string
	RedisURL         string
	KafkaBrokers     string
	JWTSecret        string
	CardProviderURL  string
	CardProviderKey  string
	ProviderTimeout  time.Duration
	DegradedFallback bool
	OTLPEndpoint     string
	Port             string
}

func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	cardURL := os.Getenv("CARD_PROVIDER_URL")
	if cardURL == "" {
		cardURL = "https://api.stripe.com"
	}

	timeout := 10 * time.Second
	if raw := os.Getenv("PROVIDER_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	// Degraded fallback marks a payment Succeeded when the provider cannot be
	// reached. Off unless explicitly enabled; only meant for environments
	// without live provider credentials.
	fallback, _ := strconv.ParseBool(os.Getenv("PAYMENT_DEGRADED_FALLBACK"))

	return &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		JWTSecret:        os.Getenv("JWT_SECRET_KEY"),
		CardProviderURL:  cardURL,
		CardProviderKey:  os.Getenv("CARD_PROVIDER_SECRET_KEY"),
		ProviderTimeout:  timeout,
		DegradedFallback: fallback,
		OTLPEndpoint:     os.Getenv("OTLP_ENDPOINT"),
		Port:             port,
	}
}
