package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"splitpot/backend/database"
)

const devEncryptionKey = "default-key-for-development-only"

type Config struct {
	Port          string
	Env           string
	NoDBReset     bool
	EncryptionKey string
	CORSOrigins   []string
	Database      database.Config
	Firebase      FirebaseConfig
	// ProjectionWorkers bounds the goroutines used for parallel projections;
	// zero keeps the single sequential sweep.
	ProjectionWorkers int
}

// FirebaseConfig carries service account credentials in one of two encodings
type FirebaseConfig struct {
	ProjectID            string
	ServiceAccountJSON   string
	ServiceAccountBase64 string
}

func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		NoDBReset:     getEnv("NO_DB_RESET", "false") == "true",
		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		CORSOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		Database: database.Config{
			Driver: getEnv("DB_DRIVER", database.DriverSQLite),
			Path:   getEnv("DB_PATH", "./splitpot.db"),
			Postgres: database.PostgresConfig{
				URL:      getEnv("DATABASE_URL", ""),
				Host:     getEnv("DB_HOST", "localhost"),
				Port:     getEnv("DB_PORT", "5432"),
				User:     getEnv("DB_USER", "postgres"),
				Password: getEnv("DB_PASSWORD", "postgres"),
				DBName:   getEnv("DB_NAME", "splitpot"),
				SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			},
		},
		Firebase: FirebaseConfig{
			ProjectID:            getEnv("FIREBASE_PROJECT_ID", ""),
			ServiceAccountJSON:   getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
			ServiceAccountBase64: getEnv("FIREBASE_SERVICE_ACCOUNT_BASE64", ""),
		},
		ProjectionWorkers: getEnvInt("PROJECTION_WORKERS", 0),
	}

	if cfg.EncryptionKey == "" {
		if cfg.IsProduction() {
			log.Fatal("ENCRYPTION_KEY must be set in production")
		}
		log.Println("Warning: ENCRYPTION_KEY not set, using a default key. This is NOT secure for production!")
		cfg.EncryptionKey = devEncryptionKey
	}
	if cfg.Database.Driver == database.DriverSQLite && cfg.IsProduction() {
		log.Println("Warning: running production on SQLite, set DB_DRIVER=postgres for shared deployments")
	}

	return cfg
}

// IsProduction reports whether ENV names a production deployment
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, v, def)
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
