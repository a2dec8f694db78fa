package database

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresConfig holds database connection parameters. URL, when set, wins
// over the individual fields.
type PostgresConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConnectionString builds a PostgreSQL connection string
func (cfg PostgresConfig) ConnectionString() string {
	if cfg.URL != "" {
		return cfg.URL
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
	}
	return u.String()
}

// CreatePostgresDB opens and pings a PostgreSQL connection pool
func CreatePostgresDB(cfg PostgresConfig) (*sql.DB, error) {
	connectionString := cfg.ConnectionString()
	log.Printf("Connecting to PostgreSQL: %s", MaskPassword(connectionString))

	db, err := sql.Open(DriverPostgres, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

// MaskPassword hides the password in a URL-style connection string for logging
func MaskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	return u.Redacted()
}
