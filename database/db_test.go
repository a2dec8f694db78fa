package database

import (
	"os"
	"strings"
	"testing"

	"splitpot/backend/migrations"
)

func TestMain(m *testing.M) {
	if err := InitMemoryDB(); err != nil {
		panic(err)
	}

	code := m.Run()

	Close()
	os.Exit(code)
}

func TestInitDBCreatesTables(t *testing.T) {
	tables := []string{"users", "projects", "project_members", "participants", "payments", "contributions", "user_preferences", "upstream_config"}

	for _, table := range tables {
		var count int
		err := DB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&count)
		if err != nil {
			t.Fatalf("Error checking table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Expected table %s to exist", table)
		}
	}
}

func TestMigrationsAreRecordedOnce(t *testing.T) {
	if err := RunMigrations(); err != nil {
		t.Fatalf("Re-running migrations failed: %v", err)
	}

	names, err := migrations.Applied(DB)
	if err != nil {
		t.Fatalf("Error listing migrations: %v", err)
	}
	want := []string{"base_schema", "add_warning_horizons", "add_upstream_config", "seed_dev_data"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Expected migrations %v, got %v", want, names)
	}
}

func TestWarningHorizonColumns(t *testing.T) {
	_, err := DB.Exec(`INSERT INTO projects (id, name, created_by, created_at, updated_at) VALUES ('p', 'P', 'u', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err != nil {
		t.Fatalf("Error inserting project: %v", err)
	}
	defer DB.Exec("DELETE FROM projects WHERE id = 'p'")

	_, err = DB.Exec(`INSERT INTO participants (id, project_id, name, account_type, warning_horizon_account)
		VALUES ('pool', 'p', 'Pool', 'pool', '3_months')`)
	if err != nil {
		t.Fatalf("Error inserting participant: %v", err)
	}

	var account, users string
	err = DB.QueryRow("SELECT warning_horizon_account, warning_horizon_users FROM participants WHERE id = 'pool'").Scan(&account, &users)
	if err != nil {
		t.Fatalf("Error reading horizons: %v", err)
	}
	if account != "3_months" || users != "" {
		t.Errorf("Unexpected horizons %q / %q", account, users)
	}
}

func TestRebind(t *testing.T) {
	query := "SELECT * FROM payments WHERE project_id = ? AND description = '?' AND amount > ?"

	if got := Rebind(query); got != query {
		t.Errorf("Expected SQLite queries to be left alone, got %s", got)
	}

	Driver = DriverPostgres
	defer func() { Driver = DriverSQLite }()

	want := "SELECT * FROM payments WHERE project_id = $1 AND description = '?' AND amount > $2"
	if got := Rebind(query); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestPostgresConnectionString(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     "5432",
		User:     "splitpot",
		Password: "s3cr:t",
		DBName:   "splitpot",
		SSLMode:  "disable",
	}

	conn := cfg.ConnectionString()
	if !strings.HasPrefix(conn, "postgres://splitpot:") || !strings.HasSuffix(conn, "@db.internal:5432/splitpot?sslmode=disable") {
		t.Errorf("Unexpected connection string %s", conn)
	}

	masked := MaskPassword(conn)
	if strings.Contains(masked, "s3cr") {
		t.Errorf("Expected the password to be masked, got %s", masked)
	}

	cfg.URL = "postgres://u:p@elsewhere/db"
	if got := cfg.ConnectionString(); got != cfg.URL {
		t.Errorf("Expected URL to win, got %s", got)
	}
}

func TestResetSQLite(t *testing.T) {
	path := t.TempDir() + "/reset.db"
	for _, f := range []string{path, path + "-wal"} {
		if err := os.WriteFile(f, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if err := ResetSQLite(path); err != nil {
		t.Fatalf("ResetSQLite failed: %v", err)
	}
	for _, f := range []string{path, path + "-wal", path + "-shm"} {
		if _, err := os.Stat(f); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be gone, got %v", f, err)
		}
	}

	if err := ResetSQLite(path); err != nil {
		t.Errorf("Resetting a missing database should succeed, got %v", err)
	}
}
