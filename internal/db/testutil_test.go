package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	// Mirror the pragmas OpenDatabase sets, via DSN so they apply to
	// every pooled connection.
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func requireSchema(t *testing.T, conn *sql.DB) {
	t.Helper()
	if err := InitSchema(conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}
}
