package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	MaxTestDuration      int // seconds, advisory only
	QuestionsPerCategory int

	CORSOrigins []string

	AdminUser     string
	AdminPassHash string // bcrypt
	AuthSecret    string // HMAC key for admin JWTs
}

func FromEnv() Config {
	return Config{
		HTTPAddr:             envOr("HTTP_ADDR", ":8080"),
		DBDriver:             envOr("DB_DRIVER", "sqlite"),
		DBDSN:                os.Getenv("DB_DSN"),
		MaxTestDuration:      envInt("MAX_TEST_DURATION", 1800),
		QuestionsPerCategory: envInt("QUESTIONS_PER_CATEGORY", 5),
		CORSOrigins:          csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		AdminUser:            envOr("ADMIN_USER", "admin"),
		AdminPassHash:        os.Getenv("ADMIN_PASS_HASH"),
		AuthSecret:           envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
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
