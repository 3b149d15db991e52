package cache

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/ctabridge/pkg/errors"
)

func TestSQLiteStore(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
		if err != nil {
			t.Fatalf("OpenSQLite() error = %v", err)
		}
		return s
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CTABRIDGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CTABRIDGE_TEST_POSTGRES_DSN not set")
	}
	testStore(t, func(t *testing.T) Store {
		s, err := OpenPostgres(context.Background(), dsn)
		if err != nil {
			t.Fatalf("OpenPostgres() error = %v", err)
		}
		if _, err := s.Clear(context.Background()); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		return s
	})
}

// legacyDB creates an apiCache table without the unique index, as older
// writers left it, holding two rows for the same URL.
func legacyDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE apiCache (id INTEGER PRIMARY KEY AUTOINCREMENT, url TEXT NOT NULL, data TEXT NOT NULL, time TEXT NOT NULL)`,
		`INSERT INTO apiCache (url, data, time) VALUES ('http://x/a', 'older', '2024-01-02 15:04:05')`,
		`INSERT INTO apiCache (url, data, time) VALUES ('http://x/a', 'newer', '2024-01-02 15:04:30')`,
		`INSERT INTO apiCache (url, data, time) VALUES ('http://x/b', 'only', '2024-01-02 15:04:30')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Exec(%q) error = %v", stmt, err)
		}
	}
	return db, path
}

func TestSQLStoreDuplicateRowsAreCorruption(t *testing.T) {
	db, _ := legacyDB(t)
	s := NewSQLStore(db, DriverSQLite)

	_, err := s.Load(context.Background(), "http://x/a", time.Time{})
	if !errors.Is(err, errors.ErrCodeCacheCorruption) {
		t.Fatalf("Load() error = %v, want CACHE_CORRUPTION", err)
	}

	e, err := s.Load(context.Background(), "http://x/b", time.Time{})
	if err != nil {
		t.Fatalf("Load(b) error = %v", err)
	}
	if e == nil || e.Payload != "only" {
		t.Errorf("Load(b) = %+v, want the single row", e)
	}
}

func TestSQLStoreMigrateDedupes(t *testing.T) {
	ctx := context.Background()
	db, _ := legacyDB(t)
	s := NewSQLStore(db, DriverSQLite)

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	e, err := s.Load(ctx, "http://x/a", time.Time{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if e == nil || e.Payload != "newer" {
		t.Errorf("Load() = %+v, want newest row kept", e)
	}
	want := time.Date(2024, 1, 2, 15, 4, 30, 0, time.Local)
	if !e.StoredAt.Equal(want) {
		t.Errorf("StoredAt = %v, want legacy local time %v", e.StoredAt, want)
	}

	_, err = db.Exec(`INSERT INTO apiCache (url, data, time) VALUES ('http://x/a', 'dup', '2024-01-02 15:05:00')`)
	if err == nil {
		t.Error("duplicate insert succeeded after Migrate, want unique violation")
	}

	// Migrate is idempotent.
	if err := s.Migrate(ctx); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

func TestSQLStoreRebind(t *testing.T) {
	pg := NewSQLStore(nil, DriverPostgres)
	if got, want := pg.rebind(`SELECT a FROM t WHERE b = ? AND c = ?`), `SELECT a FROM t WHERE b = $1 AND c = $2`; got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}
	lite := NewSQLStore(nil, DriverSQLite)
	if got := lite.rebind(`WHERE b = ?`); got != `WHERE b = ?` {
		t.Errorf("sqlite rebind() = %q", got)
	}
	if pg.Name() != "postgres" || lite.Name() != "sqlite" {
		t.Errorf("Name() = %q, %q", pg.Name(), lite.Name())
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"fixed width", formatTime(time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)), time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)},
		{"trailing zeros trimmed", "2024-05-06T07:08:09.12Z", time.Date(2024, 5, 6, 7, 8, 9, 120000000, time.UTC)},
		{"whole seconds", "2024-05-06T07:08:09Z", time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)},
		{"legacy local", "2024-05-06 07:08:09", time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)},
		{"legacy fraction", "2024-05-06 07:08:09.5", time.Date(2024, 5, 6, 7, 8, 9, 500000000, time.Local)},
		{"garbage", "garbage", time.Time{}},
		{"empty", "", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseTime(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStoredTimeScan(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 100000000, time.UTC)
	tests := []struct {
		name    string
		src     any
		want    time.Time
		wantErr bool
	}{
		{"time value", at, at, false},
		{"text", "2024-05-06T07:08:09.1Z", at, false},
		{"bytes", []byte(formatTime(at)), at, false},
		{"null", nil, time.Time{}, false},
		{"number", int64(3), time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got storedTime
			err := got.Scan(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !time.Time(got).Equal(tt.want) {
				t.Errorf("Scan() = %v, want %v", time.Time(got), tt.want)
			}
		})
	}
}

// datetimeDB creates the apiCache table with a DATETIME time column and one
// row stamped by SQLite in local time, the layout older cache files use.
func datetimeDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open(DriverSQLite, filepath.Join(t.TempDir(), "ctaApiCache.sqlite3"))
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS apiCache (id INTEGER PRIMARY KEY, url TEXT, data TEXT, time DATETIME)`,
		`INSERT INTO apiCache (url, data, time) VALUES ('http://x/fresh', 'payload', datetime('now','localtime'))`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Exec(%q) error = %v", stmt, err)
		}
	}
	return db
}

func TestSQLStoreDatetimeColumn(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(datetimeDB(t), DriverSQLite)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	e, err := s.Load(ctx, "http://x/fresh", time.Now().Add(-TTL))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if e == nil || e.Payload != "payload" {
		t.Fatalf("Load() = %+v, want the fresh local-time row", e)
	}
	if d := time.Since(e.StoredAt); d < -time.Minute || d > time.Minute {
		t.Errorf("StoredAt = %v, %v from now", e.StoredAt, d)
	}

	n, err := s.Purge(ctx, time.Now().Add(-TTL))
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Purge() = %d, want 0 for a fresh row", n)
	}
}

func TestSQLStoreDatetimeColumnRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(datetimeDB(t), DriverSQLite)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Millisecond clock values format with trailing zeros in the nanoseconds.
	now := time.Now().Truncate(time.Millisecond)
	c := New(s, WithClock(func() time.Time { return now }))

	if err := c.Set(ctx, "v", "p"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, hit, err := c.Get(ctx, "v")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !hit || got != "p" {
		t.Errorf("Get() = %q, %v, want hit", got, hit)
	}
}
