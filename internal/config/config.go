package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"tabular-reconciliation-backend/internal/loader"
	"tabular-reconciliation-backend/internal/services/matching"
)

type Config struct {
	Port            string
	DatabaseDriver  string
	DatabaseURL     string
	CORSOrigins     []string
	MaxUploadMB     int64
	ResultCacheSize int

	Normalizer matching.Normalizer
	TieBreak   matching.TieBreak
	Encodings  []string
}

// Load reads configuration from the environment. Call godotenv.Load first
// to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverPostgres)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		Normalizer:     matching.DefaultNormalizer(),
	}

	var err error
	if cfg.MaxUploadMB, err = strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "32"), 10, 64); err != nil || cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB %q", os.Getenv("MAX_UPLOAD_MB"))
	}
	if cfg.ResultCacheSize, err = strconv.Atoi(getEnv("RESULT_CACHE_SIZE", "64")); err != nil || cfg.ResultCacheSize <= 0 {
		return nil, fmt.Errorf("invalid RESULT_CACHE_SIZE %q", os.Getenv("RESULT_CACHE_SIZE"))
	}

	if cfg.Normalizer.Whitespace, err = matching.ParseWhitespaceMode(getEnv("RECON_WHITESPACE", string(matching.WhitespaceCollapse))); err != nil {
		return nil, fmt.Errorf("RECON_WHITESPACE: %w", err)
	}
	if cfg.Normalizer.Missing, err = matching.ParseMissingPolicy(getEnv("RECON_MISSING", string(matching.MissingNeverMatch))); err != nil {
		return nil, fmt.Errorf("RECON_MISSING: %w", err)
	}
	cfg.Normalizer.MissingToken = getEnv("RECON_MISSING_TOKEN", matching.DefaultMissingToken)
	if cfg.TieBreak, err = matching.ParseTieBreak(os.Getenv("RECON_TIE_BREAK")); err != nil {
		return nil, fmt.Errorf("RECON_TIE_BREAK: %w", err)
	}

	cfg.Encodings = loader.DefaultEncodings()
	if v := os.Getenv("RECON_ENCODINGS"); v != "" {
		cfg.Encodings = nil
		for _, name := range splitList(v) {
			canonical, ok := loader.CanonicalEncoding(name)
			if !ok {
				return nil, fmt.Errorf("RECON_ENCODINGS: unsupported encoding %q", name)
			}
			cfg.Encodings = append(cfg.Encodings, canonical)
		}
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}

func (c *Config) LoaderOptions() loader.Options {
	return loader.Options{Encodings: c.Encodings}
}

func (c *Config) MatchOptions() matching.Options {
	return matching.Options{Mode: matching.ModeLeft, TieBreak: c.TieBreak}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
