package config

import (
	"reflect"
	"testing"

	"splitpot/backend/database"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "DB_DRIVER", "DB_PATH", "ENCRYPTION_KEY", "CORS_ALLOWED_ORIGINS", "PROJECTION_WORKERS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Port)
	}
	if cfg.Database.Driver != database.DriverSQLite || cfg.Database.Path != "./splitpot.db" {
		t.Errorf("Expected SQLite at ./splitpot.db, got %+v", cfg.Database)
	}
	if cfg.EncryptionKey != devEncryptionKey {
		t.Error("Expected the development encryption key outside production")
	}
	if cfg.IsProduction() {
		t.Error("Expected development by default")
	}
	if cfg.ProjectionWorkers != 0 {
		t.Errorf("Expected sequential projections by default, got %d workers", cfg.ProjectionWorkers)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/splitpot")
	t.Setenv("ENCRYPTION_KEY", "a-real-key")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PROJECTION_WORKERS", "not-a-number")

	cfg := Load()
	if cfg.Port != "9000" || !cfg.IsProduction() {
		t.Errorf("Unexpected port/env: %s %s", cfg.Port, cfg.Env)
	}
	if cfg.Database.Driver != database.DriverPostgres || cfg.Database.Postgres.ConnectionString() != "postgres://u:p@db/splitpot" {
		t.Errorf("Unexpected database config: %+v", cfg.Database)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("Expected origins %v, got %v", want, cfg.CORSOrigins)
	}
	if cfg.ProjectionWorkers != 0 {
		t.Errorf("Expected a bad worker count to fall back to 0, got %d", cfg.ProjectionWorkers)
	}
}
