package config

import (
	"os"
	"strings"
)

type Config struct {
	Env      string // development|production
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret string // HMAC secret for local JWTs

	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string

	LogLevel string
}

func FromEnv() Config {
	return Config{
		Env:           envOr("APP_ENV", "development"),
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", ""),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:3000"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
