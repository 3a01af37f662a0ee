package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Addr               string
	DatabaseURL        string
	TickEvery          time.Duration
	DriftMode          string
	NegotiationDelay   time.Duration
	TokenTTL           time.Duration
	StartupSeedTargets bool
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("MAGNATE_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:               addr,
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TickEvery:          envDurationDefault("MAGNATE_TICK_EVERY", 24*time.Hour),
		DriftMode:          envDriftDefault(),
		NegotiationDelay:   envDurationDefault("MAGNATE_NEGOTIATION_DELAY", 2*time.Second),
		TokenTTL:           envDurationDefault("MAGNATE_TOKEN_TTL", 30*24*time.Hour),
		StartupSeedTargets: envBoolDefault("MAGNATE_STARTUP_SEED_TARGETS", true),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("MGN_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBoolDefault(key string, fallback bool) bool {
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

func envDriftDefault() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("MAGNATE_DRIFT_MODE")))
	switch v {
	case "calm", "normal", "wild":
		return v
	default:
		return "normal"
	}
}
